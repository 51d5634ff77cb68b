package analyzer

import "github.com/tusmolang/tusmoc/internal/ast"

// typeOfExpr type-checks e and returns its static type. The first
// violation aborts the whole analysis through errorf; expressions that are
// merely unresolvable without being wrong (a dynamic receiver, a value
// already typed Invalid upstream) type as ast.Invalid instead.
func (a *Analyzer) typeOfExpr(e ast.Expr) ast.Type {
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
	case *ast.TypeLiteral:
		return ast.TypeLit(x.Name)
	case *ast.FStringLit:
		for _, part := range x.Parts {
			if part.IsExpr && part.Expr != nil {
				a.typeOfExpr(part.Expr)
			}
		}
		return ast.String
	case *ast.Ident:
		sym, ok := a.syms.Get(x.Name)
		if !ok {
			a.errorf(x.Position, "%q is not declared", x.Name)
			return ast.Invalid
		}
		if t, ok := sym.Data.(ast.Type); ok {
			return t
		}
		// a function name used as a value, e.g. assigned into a
		// function-typed variable: its type is built from its declaration.
		if fn, ok := sym.Data.(*ast.FuncDecl); ok {
			params := make([]ast.Type, len(fn.Params))
			for i, p := range fn.Params {
				params[i] = p.Type
			}
			return ast.FuncType(params, fn.ReturnType)
		}
		return ast.Invalid
	case *ast.SelfExpr:
		if a.currentClass == nil {
			a.errorf(x.Position, "'kan' used outside of a method")
			return ast.Invalid
		}
		return ast.ClassType(a.currentClass.Name)
	case *ast.ParentExpr:
		if a.currentClass == nil || a.currentClass.Parent == nil {
			a.errorf(x.Position, "'parent' used outside of a method of a class with a parent")
			return ast.Invalid
		}
		return ast.ClassType(a.currentClass.Parent.Name)
	case *ast.MemberAccess:
		return a.typeOfMemberAccess(x)
	case *ast.ArrayIndex:
		arrType := a.typeOfExpr(x.Array)
		idxType := a.typeOfExpr(x.Index)
		if arrType.Kind == ast.TDict {
			return ast.Dynamic
		}
		if idxType.Kind != ast.TInt && idxType.Kind != ast.TDynamic && idxType.Kind != ast.TInvalid {
			a.errorf(x.Index.Pos(), "array index must be %s, not %s", ast.Int, idxType)
		}
		if arrType.Kind == ast.TArray {
			if arrType.Elem != nil {
				return *arrType.Elem
			}
			return ast.Dynamic
		}
		if arrType.Kind == ast.TString {
			return ast.Char
		}
		if arrType.Kind != ast.TInvalid {
			a.errorf(x.Position, "cannot index a value of type %s", arrType)
		}
		return ast.Invalid
	case *ast.DictIndex:
		a.typeOfExpr(x.Dict)
		a.typeOfExpr(x.Key)
		return ast.Dynamic
	case *ast.BinaryOp:
		return a.typeOfBinary(x)
	case *ast.UnaryOp:
		operand := a.typeOfExpr(x.Operand)
		if x.Op == "!" {
			return ast.Bool
		}
		return operand
	case *ast.Ternary:
		condType := a.typeOfExpr(x.Cond)
		if condType.Kind != ast.TBool && condType.Kind != ast.TDynamic && condType.Kind != ast.TInvalid {
			a.errorf(x.Cond.Pos(), "ternary condition must be %s, not %s", ast.Bool, condType)
		}
		trueType := a.typeOfExpr(x.True)
		a.typeOfExpr(x.False)
		return trueType
	case *ast.ArrayLit:
		var elem ast.Type
		if x.DeclaredElem != nil {
			elem = *x.DeclaredElem
		}
		mixed := false
		for i, el := range x.Elements {
			t := a.typeOfExpr(el)
			if i == 0 && x.DeclaredElem == nil {
				elem = t
			} else if x.DeclaredElem == nil && !t.Equal(elem) {
				mixed = true
			}
		}
		if mixed || x.DeclaredElem == nil && len(x.Elements) == 0 {
			return ast.ArrayOf(nil)
		}
		return ast.ArrayOf(&elem)
	case *ast.Call:
		return a.bindCall(x)
	case *ast.LengthQuery:
		a.typeOfExpr(x.Arg)
		return ast.Int
	case *ast.TypeQuery:
		a.typeOfExpr(x.Arg)
		return ast.String
	case *ast.ArrayElemTypeQuery:
		a.typeOfExpr(x.Array)
		return ast.String
	case *ast.EmbeddedCCall:
		for _, arg := range x.Args {
			a.typeOfExpr(arg)
		}
		return ast.Dynamic
	default:
		return ast.Invalid
	}
}

func (a *Analyzer) typeOfMemberAccess(x *ast.MemberAccess) ast.Type {
	objType := a.typeOfExpr(x.Object)
	if objType.Kind != ast.TClass {
		if objType.Kind != ast.TInvalid && objType.Kind != ast.TDynamic {
			a.errorf(x.Position, "cannot access member %q of non-class type %s", x.Member, objType)
		}
		return ast.Invalid
	}
	cls, ok := a.classes[objType.Name]
	if !ok {
		a.errorf(x.Position, "unknown class %q", objType.Name)
		return ast.Invalid
	}
	owner, hops, member := lookupMember(cls, x.Member)
	if member == nil {
		a.errorf(x.Position, "%s has no member %q", objType.Name, x.Member)
		return ast.Invalid
	}
	x.ResolvedOwner = owner
	x.ParentHops = hops
	return member.Type
}

// isNumeric reports whether t is int, float, or dynamic (any of which may
// flow through an arithmetic operator; dynamic defers the real check to
// runtime).
func isNumeric(t ast.Type) bool {
	return t.Kind == ast.TInt || t.Kind == ast.TFloat || t.Kind == ast.TDynamic
}

func (a *Analyzer) typeOfBinary(x *ast.BinaryOp) ast.Type {
	left := a.typeOfExpr(x.Left)
	right := a.typeOfExpr(x.Right)

	switch x.Op {
	case "&&", "||":
		return ast.Bool
	case "==", "!=":
		return ast.Bool
	case "<", "<=", ">", ">=":
		if !isNumeric(left) && left.Kind != ast.TString && left.Kind != ast.TInvalid {
			a.errorf(x.Position, "operator %s is not defined for %s", x.Op, left)
		}
		return ast.Bool
	case "+":
		if left.Kind == ast.TString || right.Kind == ast.TString {
			return ast.String
		}
		return arithmeticResult(left, right)
	case "-", "*", "/", "%":
		if !isNumeric(left) && left.Kind != ast.TInvalid {
			a.errorf(x.Position, "operator %s is not defined for %s", x.Op, left)
		}
		return arithmeticResult(left, right)
	default:
		return ast.Invalid
	}
}

// arithmeticResult implements the usual numeric promotion: float beats int,
// dynamic is deferred to runtime, anything else is invalid.
func arithmeticResult(left, right ast.Type) ast.Type {
	if left.Kind == ast.TDynamic || right.Kind == ast.TDynamic {
		return ast.Dynamic
	}
	if left.Kind == ast.TFloat || right.Kind == ast.TFloat {
		return ast.Float
	}
	return ast.Int
}
