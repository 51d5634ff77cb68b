package normalize

import (
	"github.com/tusmolang/tusmoc/internal/ast"
	"github.com/tusmolang/tusmoc/internal/parser"
)

// ResolveFStrings walks every statement and expression reachable from file
// and, for each formatted-string literal, parses its unresolved `{expr}`
// segments into real expression trees. A segment is re-lexed and
// re-parsed as its own tiny translation unit, attributed to the original
// file/line so diagnostics from a malformed embedded expression still point
// somewhere useful; a nested f-string inside a segment is resolved
// recursively before the walk continues.
func ResolveFStrings(file *ast.File) error {
	for _, n := range file.Nodes {
		if err := resolveNodeFStrings(n); err != nil {
			return err
		}
	}
	return nil
}

func resolveNodeFStrings(n ast.Node) error {
	switch d := n.(type) {
	case *ast.FuncDecl:
		return resolveStmts(d.Body)
	case *ast.ClassDecl:
		for _, m := range d.Members {
			if err := resolveExprField(&m.Init); err != nil {
				return err
			}
		}
		for _, m := range d.Methods {
			if err := resolveStmts(m.Body); err != nil {
				return err
			}
		}
		return nil
	case ast.Stmt:
		return resolveStmt(d)
	default:
		return nil
	}
}

func resolveStmts(stmts []ast.Stmt) error {
	for _, s := range stmts {
		if err := resolveStmt(s); err != nil {
			return err
		}
	}
	return nil
}

func resolveStmt(s ast.Stmt) error {
	switch st := s.(type) {
	case *ast.VarDecl:
		return resolveExprField(&st.Init)
	case *ast.Assignment:
		if err := resolveExprField(&st.Target); err != nil {
			return err
		}
		return resolveExprField(&st.Value)
	case *ast.CompoundAssignment:
		if err := resolveExprField(&st.Target); err != nil {
			return err
		}
		return resolveExprField(&st.Value)
	case *ast.IfStmt:
		for i := range st.Cases {
			if err := resolveExprField(&st.Cases[i].Cond); err != nil {
				return err
			}
			if err := resolveStmts(st.Cases[i].Body); err != nil {
				return err
			}
		}
		return resolveStmts(st.Else)
	case *ast.WhileStmt:
		if err := resolveExprField(&st.Cond); err != nil {
			return err
		}
		return resolveStmts(st.Body)
	case *ast.DoWhileStmt:
		if err := resolveStmts(st.Body); err != nil {
			return err
		}
		return resolveExprField(&st.Cond)
	case *ast.ForRangeStmt:
		if err := resolveExprField(&st.Start); err != nil {
			return err
		}
		if err := resolveExprField(&st.End); err != nil {
			return err
		}
		return resolveStmts(st.Body)
	case *ast.ForEachStmt:
		if err := resolveExprField(&st.Array); err != nil {
			return err
		}
		return resolveStmts(st.Body)
	case *ast.ReturnStmt:
		return resolveExprField(&st.Value)
	case *ast.PrintStmt:
		for i := range st.Args {
			if err := resolveExprField(&st.Args[i]); err != nil {
				return err
			}
		}
		return nil
	case *ast.ExprStmt:
		return resolveExprField(&st.X)
	default:
		// BreakStmt, ContinueStmt, ReadStmt, ImportStmt, EmbeddedCStmt,
		// VarDecl/FuncDecl/ClassDecl nested forms carry no expressions an
		// f-string could hide inside beyond what's already handled above.
		return nil
	}
}

// resolveExprField resolves f-strings within *e (which may be nil) and
// writes the possibly-rewritten expression back through the pointer.
func resolveExprField(e *ast.Expr) error {
	if e == nil || *e == nil {
		return nil
	}
	resolved, err := resolveExpr(*e)
	if err != nil {
		return err
	}
	*e = resolved
	return nil
}

func resolveExpr(e ast.Expr) (ast.Expr, error) {
	switch x := e.(type) {
	case *ast.FStringLit:
		for i := range x.Parts {
			part := &x.Parts[i]
			if !part.IsExpr || part.Expr != nil {
				continue
			}
			parsed, err := parser.ParseExprSnippet(x.Filename, x.Line, part.Raw)
			if err != nil {
				return nil, err
			}
			parsed, err = resolveExpr(parsed)
			if err != nil {
				return nil, err
			}
			part.Expr = parsed
		}
		return x, nil
	case *ast.BinaryOp:
		if err := resolveExprField(&x.Left); err != nil {
			return nil, err
		}
		if err := resolveExprField(&x.Right); err != nil {
			return nil, err
		}
		return x, nil
	case *ast.UnaryOp:
		if err := resolveExprField(&x.Operand); err != nil {
			return nil, err
		}
		return x, nil
	case *ast.Ternary:
		if err := resolveExprField(&x.Cond); err != nil {
			return nil, err
		}
		if err := resolveExprField(&x.True); err != nil {
			return nil, err
		}
		if err := resolveExprField(&x.False); err != nil {
			return nil, err
		}
		return x, nil
	case *ast.ArrayLit:
		for i := range x.Elements {
			if err := resolveExprField(&x.Elements[i]); err != nil {
				return nil, err
			}
		}
		return x, nil
	case *ast.MemberAccess:
		if err := resolveExprField(&x.Object); err != nil {
			return nil, err
		}
		return x, nil
	case *ast.ArrayIndex:
		if err := resolveExprField(&x.Array); err != nil {
			return nil, err
		}
		if err := resolveExprField(&x.Index); err != nil {
			return nil, err
		}
		return x, nil
	case *ast.DictIndex:
		if err := resolveExprField(&x.Dict); err != nil {
			return nil, err
		}
		if err := resolveExprField(&x.Key); err != nil {
			return nil, err
		}
		return x, nil
	case *ast.Call:
		if x.Object != nil {
			if err := resolveExprField(&x.Object); err != nil {
				return nil, err
			}
		}
		for i := range x.Args {
			if err := resolveExprField(&x.Args[i].Value); err != nil {
				return nil, err
			}
		}
		return x, nil
	case *ast.LengthQuery:
		if err := resolveExprField(&x.Arg); err != nil {
			return nil, err
		}
		return x, nil
	case *ast.TypeQuery:
		if err := resolveExprField(&x.Arg); err != nil {
			return nil, err
		}
		return x, nil
	case *ast.ArrayElemTypeQuery:
		if err := resolveExprField(&x.Array); err != nil {
			return nil, err
		}
		return x, nil
	case *ast.EmbeddedCCall:
		for i := range x.Args {
			if err := resolveExprField(&x.Args[i]); err != nil {
				return nil, err
			}
		}
		return x, nil
	default:
		// IntLit, FloatLit, StringLit, CharLit, BoolLit, TypeLiteral, Ident,
		// SelfExpr, ParentExpr: leaves, nothing to resolve.
		return x, nil
	}
}
