package codegen

import (
	"github.com/tusmolang/tusmoc/internal/ast"
	"github.com/tusmolang/tusmoc/internal/symbols"
)

// typeOf recovers the static type of an already-analyzed expression from the
// generator's own scope table plus the resolver fields the analyzer filled in
// (Callee, ResolvedOwner, ContainerOp). The generator re-derives types rather
// than caching them on every node: the symbol table is threaded through both
// analysis and generation, and by this point every expression is known
// to be well-typed, so the walk never has to diagnose anything — an
// unresolvable expression types as Dynamic, which always lowers to the
// runtime's polymorphic path.
func (g *Generator) typeOf(e ast.Expr) ast.Type {
	switch x := e.(type) {
	case *ast.IntLit:
		return ast.Int
	case *ast.FloatLit:
		return ast.Float
	case *ast.StringLit:
		return ast.String
	case *ast.CharLit:
		return ast.Char
	case *ast.BoolLit:
		return ast.Bool
	case *ast.FStringLit:
		return ast.String
	case *ast.TypeLiteral:
		return ast.TypeLit(x.Name)
	case *ast.Ident:
		if sym, ok := g.syms.Get(x.Name); ok {
			if t, ok := sym.Data.(ast.Type); ok {
				return t
			}
		}
		return ast.Dynamic
	case *ast.SelfExpr:
		if g.currentClass != nil {
			return ast.ClassType(g.currentClass.Name)
		}
		return ast.Dynamic
	case *ast.ParentExpr:
		if g.currentClass != nil && g.currentClass.Parent != nil {
			return ast.ClassType(g.currentClass.Parent.Name)
		}
		return ast.Dynamic
	case *ast.MemberAccess:
		owner := x.ResolvedOwner
		if owner == nil {
			if ot := g.typeOf(x.Object); ot.Kind == ast.TClass {
				owner = g.classes[ot.Name]
			}
		}
		for ; owner != nil; owner = owner.Parent {
			for _, m := range owner.Members {
				if m.Name == x.Member {
					return m.Type
				}
			}
		}
		return ast.Dynamic
	case *ast.ArrayIndex:
		switch at := g.typeOf(x.Array); at.Kind {
		case ast.TArray:
			if at.Elem != nil {
				return *at.Elem
			}
			return ast.Dynamic
		case ast.TString:
			return ast.Char
		default:
			return ast.Dynamic
		}
	case *ast.DictIndex:
		return ast.Dynamic
	case *ast.BinaryOp:
		return g.typeOfBinary(x)
	case *ast.UnaryOp:
		if x.Op == "!" {
			return ast.Bool
		}
		return g.typeOf(x.Operand)
	case *ast.Ternary:
		return g.typeOf(x.True)
	case *ast.ArrayLit:
		if x.DeclaredElem != nil {
			return ast.ArrayOf(x.DeclaredElem)
		}
		return ast.ArrayOf(nil)
	case *ast.Call:
		return g.typeOfCall(x)
	case *ast.LengthQuery:
		return ast.Int
	case *ast.TypeQuery, *ast.ArrayElemTypeQuery:
		return ast.String
	default:
		return ast.Dynamic
	}
}

func (g *Generator) typeOfBinary(x *ast.BinaryOp) ast.Type {
	switch x.Op {
	case "&&", "||", "==", "!=", "<", "<=", ">", ">=", "iyo", "ama":
		return ast.Bool
	case "+":
		left, right := g.typeOf(x.Left), g.typeOf(x.Right)
		if left.Kind == ast.TString || right.Kind == ast.TString {
			return ast.String
		}
		return promote(left, right)
	default:
		return promote(g.typeOf(x.Left), g.typeOf(x.Right))
	}
}

func promote(left, right ast.Type) ast.Type {
	if left.Kind == ast.TDynamic || right.Kind == ast.TDynamic {
		return ast.Dynamic
	}
	if left.Kind == ast.TFloat || right.Kind == ast.TFloat {
		return ast.Float
	}
	return ast.Int
}

func (g *Generator) typeOfCall(c *ast.Call) ast.Type {
	if c.ContainerOp != "" {
		switch c.ContainerOp {
		case "pop":
			if c.ContainerElem.Kind != ast.TDynamic {
				return c.ContainerElem
			}
			return ast.Dynamic
		case "get":
			return ast.Dynamic
		case "has_key":
			return ast.Bool
		default:
			return ast.Void
		}
	}
	if sig, ok := builtinSignature(c.Name); ok {
		return sig.Ret
	}
	if c.Kind == ast.CallConstructor {
		return ast.ClassType(c.Name)
	}
	if c.Callee != nil {
		return c.Callee.ReturnType
	}
	// a call through a function-typed variable: the return type lives on the
	// variable's function type rather than on a FuncDecl.
	if sym, ok := g.syms.Get(c.Name); ok && sym.Kind == symbols.KindFunctionTypedVariable {
		if t, ok := sym.Data.(ast.Type); ok && t.Return != nil {
			return *t.Return
		}
	}
	return ast.Dynamic
}
