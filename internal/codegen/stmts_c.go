package codegen

import (
	"fmt"

	"github.com/tusmolang/tusmoc/internal/ast"
	"github.com/tusmolang/tusmoc/internal/symbols"
)

func (g *Generator) emitStmt(s ast.Stmt) {
	switch st := s.(type) {
	case *ast.VarDecl:
		g.emitVarDecl(st)
	case *ast.Assignment:
		target := g.emitExpr(st.Target, ast.Invalid)
		if lit, ok := st.Value.(*ast.ArrayLit); ok {
			g.writeLine("%s = %s;", target, g.arrayCreateExpr(ast.ArrayOf(lit.DeclaredElem)))
			g.emitArrayAppends(target, lit)
			return
		}
		g.writeLine("%s = %s;", target, g.emitExpr(st.Value, g.typeOf(st.Target)))
	case *ast.CompoundAssignment:
		targetType := g.typeOf(st.Target)
		value := g.emitExpr(st.Value, targetType)
		if g.typeOf(st.Value).Kind == ast.TDynamic && targetType.Kind != ast.TDynamic {
			value = g.unwrap(value, targetType)
		}
		g.writeLine("%s %s %s;", g.emitExpr(st.Target, ast.Invalid), st.Op, value)
	case *ast.IfStmt:
		g.emitIf(st)
	case *ast.WhileStmt:
		g.writeLine("while (%s) {", g.emitExpr(st.Cond, ast.Bool))
		g.emitBlock(st.Body)
		g.writeLine("}")
	case *ast.DoWhileStmt:
		g.writeLine("do {")
		g.emitBlock(st.Body)
		g.writeLine("} while (%s);", g.emitExpr(st.Cond, ast.Bool))
	case *ast.ForRangeStmt:
		g.writeLine("for (int %s = %s; %s < %s; %s++) {", st.Var, g.emitExpr(st.Start, ast.Int), st.Var, g.emitExpr(st.End, ast.Int), st.Var)
		g.syms.Push()
		_ = g.syms.Set(symbols.Symbol{Name: st.Var, Kind: symbols.KindVariable, Data: ast.Int})
		g.indent++
		for _, b := range st.Body {
			g.emitStmt(b)
		}
		g.indent--
		g.syms.Pop()
		g.writeLine("}")
	case *ast.ForEachStmt:
		g.emitForEach(st)
	case *ast.BreakStmt:
		g.writeLine("break;")
	case *ast.ContinueStmt:
		g.writeLine("continue;")
	case *ast.ReturnStmt:
		if st.Value == nil {
			g.writeLine("return;")
		} else {
			g.writeLine("return %s;", g.emitExpr(st.Value, ast.Invalid))
		}
	case *ast.PrintStmt:
		g.emitPrint(st)
	case *ast.ReadStmt:
		g.emitRead(st)
	case *ast.ImportStmt:
		// resolved away before codegen; nothing left to emit.
	case *ast.EmbeddedCStmt:
		pos := st.Pos()
		g.writeLine("/* %s:%d */", pos.Filename, pos.Line)
		g.writeLine("%s", st.Code)
	case *ast.ExprStmt:
		g.writeLine("%s;", g.emitExpr(st.X, ast.Invalid))
	}
}

// emitVarDecl lowers a declaration. Array-literal initializers get the
// create-then-append sequence directly on the declared name; an
// uninitialized declaration still gets the language-defined default for its
// type; a dynamic initializer is unwrapped when the declared type is
// statically known.
func (g *Generator) emitVarDecl(st *ast.VarDecl) {
	defer func() {
		_ = g.syms.Set(symbols.Symbol{Name: st.Name, Kind: symbols.KindVariable, Data: st.Type})
	}()

	if lit, ok := st.Init.(*ast.ArrayLit); ok {
		t := ast.ArrayOf(lit.DeclaredElem)
		g.writeLine("%s %s = %s;", g.cType(t), st.Name, g.arrayCreateExpr(t))
		g.emitArrayAppends(st.Name, lit)
		return
	}
	if st.Init != nil {
		init := g.emitExpr(st.Init, st.Type)
		if g.typeOf(st.Init).Kind == ast.TDynamic && st.Type.Kind != ast.TDynamic {
			init = g.unwrap(init, st.Type)
		}
		g.writeLine("%s;", g.cDecl(st.Type, st.Name)+" = "+init)
		return
	}
	g.writeLine("%s = %s;", g.cDecl(st.Type, st.Name), g.defaultValue(st.Type))
}

// defaultValue is the language-defined default an uninitialized declaration
// starts out as: zero for the scalar types, an empty string, and a
// freshly created empty container for arrays and dictionaries.
func (g *Generator) defaultValue(t ast.Type) string {
	switch t.Kind {
	case ast.TInt, ast.TBool:
		return "0"
	case ast.TFloat:
		return "0.0"
	case ast.TChar:
		return `'\0'`
	case ast.TString:
		return `""`
	case ast.TDict:
		g.use("dict")
		return "dict_create()"
	case ast.TArray:
		return g.arrayCreateExpr(t)
	case ast.TDynamic:
		return "tusmo_box_int(0)"
	default:
		return "NULL"
	}
}

func (g *Generator) emitBlock(body []ast.Stmt) {
	g.syms.Push()
	g.indent++
	for _, b := range body {
		g.emitStmt(b)
	}
	g.indent--
	g.syms.Pop()
}

func (g *Generator) emitIf(st *ast.IfStmt) {
	for i, c := range st.Cases {
		kw := "if"
		if i > 0 {
			kw = "} else if"
		}
		g.writeLine("%s (%s) {", kw, g.emitExpr(c.Cond, ast.Bool))
		g.emitBlock(c.Body)
	}
	if st.Else != nil {
		g.writeLine("} else {")
		g.emitBlock(st.Else)
	}
	g.writeLine("}")
}

// emitForEach lowers iteration to an index-based C loop over the
// receiver's backing storage: array elements come out of ->data, string
// iteration walks the character buffer.
func (g *Generator) emitForEach(st *ast.ForEachStmt) {
	idx := st.Var + "_idx"
	arr := receiver(g.emitExpr(st.Array, ast.Invalid))
	at := g.typeOf(st.Array)

	var lenExpr, elemExpr string
	elemType := ast.Dynamic
	switch {
	case at.Kind == ast.TString:
		g.use("string")
		lenExpr = fmt.Sprintf("(int)strlen(%s)", arr)
		elemExpr = fmt.Sprintf("%s[%s]", arr, idx)
		elemType = ast.Char
	case at.Kind == ast.TArray && at.Elem != nil:
		g.use("array")
		lenExpr = fmt.Sprintf("(int)%s->size", arr)
		elemExpr = fmt.Sprintf("%s->data[%s]", arr, idx)
		elemType = *at.Elem
	default:
		g.use("array_mixed")
		lenExpr = fmt.Sprintf("(int)%s->size", arr)
		elemExpr = fmt.Sprintf("%s->data[%s]", arr, idx)
	}

	g.writeLine("for (int %s = 0; %s < %s; %s++) {", idx, idx, lenExpr, idx)
	g.syms.Push()
	_ = g.syms.Set(symbols.Symbol{Name: st.Var, Kind: symbols.KindVariable, Data: elemType})
	g.indent++
	g.writeLine("%s = %s;", g.cDecl(elemType, st.Var), elemExpr)
	for _, b := range st.Body {
		g.emitStmt(b)
	}
	g.indent--
	g.syms.Pop()
	g.writeLine("}")
}

// emitPrint batches consecutive primitive-typed arguments into one printf
// call, flushing that batch whenever a non-primitive argument needs the
// runtime's polymorphic printer instead, then resuming the batch, rather
// than one printf call per argument or one for the whole statement. A
// single trailing printf("\n") closes the statement.
func (g *Generator) emitPrint(st *ast.PrintStmt) {
	if len(st.Args) == 0 {
		return
	}
	g.use("io")
	var format string
	var args []string
	flush := func() {
		if format == "" {
			return
		}
		if len(args) == 0 {
			g.writeLine("printf(%q);", format)
		} else {
			g.writeLine("printf(%q, %s);", format, joinArgs(args))
		}
		format = ""
		args = nil
	}

	for _, arg := range st.Args {
		spec, expr, batched := g.printArg(arg)
		if !batched {
			flush()
			g.writeLine("%s;", expr)
			continue
		}
		format += spec
		args = append(args, expr)
	}
	flush()
	g.writeLine("printf(\"\\n\");")
}

func joinArgs(args []string) string {
	out := args[0]
	for _, a := range args[1:] {
		out += ", " + a
	}
	return out
}

// printArg decides how one print argument is emitted: primitives return a
// printf conversion specifier and join the current batch (bools printed as
// the source spellings "run"/"been"); arrays, dictionaries, and dynamic
// values return a complete runtime printer call instead.
func (g *Generator) printArg(arg ast.Expr) (spec, expr string, batched bool) {
	t := g.typeOf(arg)
	switch t.Kind {
	case ast.TInt:
		return "%d", g.emitExpr(arg, t), true
	case ast.TFloat:
		return "%f", g.emitExpr(arg, t), true
	case ast.TString:
		return "%s", g.emitExpr(arg, t), true
	case ast.TChar:
		return "%c", g.emitExpr(arg, t), true
	case ast.TBool:
		return "%s", fmt.Sprintf(`(%s) ? "run" : "been"`, g.emitExpr(arg, t)), true
	case ast.TTypeLiteral:
		return "%s", fmt.Sprintf("%q", t.Name), true
	case ast.TDict:
		g.use("dictionary")
		return "", fmt.Sprintf("dict_print(%s)", g.emitExpr(arg, t)), false
	case ast.TArray:
		g.use("dynamic_value")
		return "", fmt.Sprintf("print_dynamic(%s)", g.boxExpr(arg)), false
	default:
		g.use("dynamic_value")
		return "", fmt.Sprintf("print_dynamic(%s)", g.emitExpr(arg, ast.Dynamic)), false
	}
}

// emitRead lowers `hel x;` by the declared type of x: numeric and char
// targets scan directly, everything else goes through the runtime's
// line reader.
func (g *Generator) emitRead(st *ast.ReadStmt) {
	var t ast.Type
	if sym, ok := g.syms.Get(st.Name); ok {
		if dt, ok := sym.Data.(ast.Type); ok {
			t = dt
		}
	}
	switch t.Kind {
	case ast.TInt, ast.TBool:
		g.use("io")
		g.writeLine(`scanf("%%d", &%s);`, st.Name)
	case ast.TFloat:
		g.use("io")
		g.writeLine(`scanf("%%lf", &%s);`, st.Name)
	case ast.TChar:
		g.use("io")
		g.writeLine(`scanf(" %%c", &%s);`, st.Name)
	default:
		g.use("read")
		g.writeLine("%s = read_str();", st.Name)
	}
}
