package analyzer

import (
	"github.com/tusmolang/tusmoc/internal/ast"
	"github.com/tusmolang/tusmoc/internal/symbols"
)

func (a *Analyzer) checkStmt(s ast.Stmt) {
	switch st := s.(type) {
	case *ast.VarDecl:
		if st.Init != nil {
			pinDeclaredElem(st.Init, st.Type)
			initType := a.typeOfExpr(st.Init)
			if !initType.CompatibleWith(st.Type) {
				a.errorf(st.Position, "cannot initialize %q of type %s with a value of type %s", st.Name, st.Type, initType)
			}
		}
		if err := a.syms.Set(symbols.Symbol{Name: st.Name, Kind: symbolKindFor(st.Type), Data: st.Type}); err != nil {
			a.errorf(st.Position, "%s", err)
		}
	case *ast.Assignment:
		targetType := a.typeOfExpr(st.Target)
		pinDeclaredElem(st.Value, targetType)
		valType := a.typeOfExpr(st.Value)
		if targetType.Kind != ast.TInvalid && !valType.CompatibleWith(targetType) {
			a.errorf(st.Position, "cannot assign a value of type %s to a target of type %s", valType, targetType)
		}
	case *ast.CompoundAssignment:
		targetType := a.typeOfExpr(st.Target)
		valType := a.typeOfExpr(st.Value)
		if targetType.Kind != ast.TInt && targetType.Kind != ast.TFloat && targetType.Kind != ast.TDynamic {
			a.errorf(st.Position, "%s is only valid on numeric targets, not %s", st.Op, targetType)
		}
		_ = valType
	case *ast.IfStmt:
		for _, c := range st.Cases {
			condType := a.typeOfExpr(c.Cond)
			if condType.Kind != ast.TBool && condType.Kind != ast.TDynamic && condType.Kind != ast.TInvalid {
				a.errorf(c.Cond.Pos(), "condition must be %s, not %s", ast.Bool, condType)
			}
			a.checkBlock(c.Body)
		}
		if st.Else != nil {
			a.checkBlock(st.Else)
		}
	case *ast.WhileStmt:
		a.typeOfExpr(st.Cond)
		a.loopDepth++
		a.checkBlock(st.Body)
		a.loopDepth--
	case *ast.DoWhileStmt:
		a.loopDepth++
		a.checkBlock(st.Body)
		a.loopDepth--
		a.typeOfExpr(st.Cond)
	case *ast.ForRangeStmt:
		startType := a.typeOfExpr(st.Start)
		endType := a.typeOfExpr(st.End)
		if startType.Kind != ast.TInt || endType.Kind != ast.TInt {
			a.errorf(st.Position, "for-range bounds must be %s", ast.Int)
		}
		a.syms.Push()
		_ = a.syms.Set(symbols.Symbol{Name: st.Var, Kind: symbols.KindVariable, Data: ast.Int})
		a.loopDepth++
		for _, inner := range st.Body {
			a.checkStmt(inner)
		}
		a.loopDepth--
		a.syms.Pop()
	case *ast.ForEachStmt:
		arrType := a.typeOfExpr(st.Array)
		elemType := ast.Dynamic
		if arrType.Kind == ast.TArray && arrType.Elem != nil {
			elemType = *arrType.Elem
		} else if arrType.Kind == ast.TString {
			elemType = ast.Char
		}
		a.syms.Push()
		_ = a.syms.Set(symbols.Symbol{Name: st.Var, Kind: symbolKindFor(elemType), Data: elemType})
		a.loopDepth++
		for _, inner := range st.Body {
			a.checkStmt(inner)
		}
		a.loopDepth--
		a.syms.Pop()
	case *ast.BreakStmt:
		if a.loopDepth == 0 {
			a.errorf(st.Position, "'break' used outside of a loop")
		}
	case *ast.ContinueStmt:
		if a.loopDepth == 0 {
			a.errorf(st.Position, "'continue' used outside of a loop")
		}
	case *ast.ReturnStmt:
		var retType ast.Type = ast.Void
		if st.Value != nil {
			retType = a.typeOfExpr(st.Value)
		}
		if a.currentFunc != nil && !retType.CompatibleWith(a.currentFunc.ReturnType) {
			a.errorf(st.Position, "return type %s does not match declared return type %s", retType, a.currentFunc.ReturnType)
		}
	case *ast.PrintStmt:
		for _, arg := range st.Args {
			a.typeOfExpr(arg)
		}
	case *ast.ReadStmt:
		if _, ok := a.syms.Get(st.Name); !ok {
			a.errorf(st.Position, "%q is not declared", st.Name)
		}
	case *ast.EmbeddedCStmt:
		// opaque to the analyzer: passed through verbatim.
	case *ast.ExprStmt:
		a.typeOfExpr(st.X)
	case *ast.FuncDecl, *ast.ClassDecl:
		// tusmo does not nest function or class declarations inside a body;
		// the parser never produces these here, so this case is unreachable.
	}
}

// pinDeclaredElem propagates a declaration's element type down onto a
// literal array initializer before typeOfExpr sees it, so an empty or
// single-type literal assigned to a declared array type (e.g.
// `let : array:tiro xs = [1, 2, 3];`) picks up its element type from the
// declaration rather than from re-inferring the literal in isolation.
// Recurses into nested array literals for declared array-of-array types.
func pinDeclaredElem(init ast.Expr, declared ast.Type) {
	arr, ok := init.(*ast.ArrayLit)
	if !ok || declared.Kind != ast.TArray {
		return
	}
	arr.DeclaredElem = declared.Elem
	if declared.Elem == nil {
		return
	}
	for _, el := range arr.Elements {
		pinDeclaredElem(el, *declared.Elem)
	}
}
