package codegen

import (
	"fmt"
	"strings"

	"github.com/tusmolang/tusmoc/internal/ast"
	"github.com/tusmolang/tusmoc/internal/symbols"
)

// emitClass writes c's typedef and struct definition (embedding its
// parent's struct by value under the field name "parent", so a pointer to a
// child is implicitly a pointer to its ancestor) and every one of
// its methods, including a synthesized `_create_ClassName` that allocates
// the instance through the collector and calls its `dhis` constructor if it
// has one.
func (g *Generator) emitClass(c *ast.ClassDecl) {
	fmt.Fprintf(&g.structDefs, "typedef struct %s %s;\n", c.Name, c.Name)
	fmt.Fprintf(&g.structDefs, "struct %s {\n", c.Name)
	if c.Parent != nil {
		fmt.Fprintf(&g.structDefs, "\tstruct %s parent;\n", c.Parent.Name)
	}
	for _, m := range c.Members {
		fmt.Fprintf(&g.structDefs, "\t%s;\n", g.cDecl(m.Type, m.Name))
	}
	g.structDefs.WriteString("};\n\n")

	for _, method := range c.Methods {
		g.emitMethod(c, method)
	}
	g.emitCreator(c)
}

// methodName mangles a method per the runtime ABI's naming convention:
// "ClassName_methodName".
func methodName(owner *ast.ClassDecl, name string) string {
	return owner.Name + "_" + name
}

func (g *Generator) emitMethod(owner *ast.ClassDecl, fn *ast.FuncDecl) {
	ret := "void"
	if fn.Name != "dhis" {
		ret = g.cType(fn.ReturnType)
	}
	fmt.Fprintf(&g.functionDefs, "%s %s(struct %s* kan", ret, methodName(owner, fn.Name), owner.Name)
	for _, p := range fn.Params {
		fmt.Fprintf(&g.functionDefs, ", %s", g.cDecl(p.Type, p.Name))
	}
	g.functionDefs.WriteString(") {\n")
	g.functionDefs.WriteString(g.captureBody(owner, fn.Params, fn.Body))
	g.functionDefs.WriteString("}\n\n")
}

func (g *Generator) emitFunction(fn *ast.FuncDecl) {
	fmt.Fprintf(&g.functionDefs, "%s %s(", g.cType(fn.ReturnType), fn.Name)
	for i, p := range fn.Params {
		if i > 0 {
			g.functionDefs.WriteString(", ")
		}
		g.functionDefs.WriteString(g.cDecl(p.Type, p.Name))
	}
	g.functionDefs.WriteString(") {\n")
	g.functionDefs.WriteString(g.capturedFuncBody(fn.Params, fn.Body))
	g.functionDefs.WriteString("}\n\n")
}

// capturedFuncBody renders body in a fresh scope holding only the
// parameters, redirecting the statement buffer away from main for the
// duration.
func (g *Generator) capturedFuncBody(params []*ast.Param, body []ast.Stmt) string {
	return g.capture(func() {
		g.syms.Push()
		for _, p := range params {
			_ = g.syms.Set(symbols.Symbol{Name: p.Name, Kind: symbols.KindVariable, Data: p.Type})
		}
		g.indent++
		for _, s := range body {
			g.emitStmt(s)
		}
		g.indent--
		g.syms.Pop()
	})
}

// captureBody is capturedFuncBody for methods: the receiver class becomes
// the current class for the duration so kan/parent lower correctly.
func (g *Generator) captureBody(owner *ast.ClassDecl, params []*ast.Param, body []ast.Stmt) string {
	savedClass := g.currentClass
	g.currentClass = owner
	out := g.capturedFuncBody(params, body)
	g.currentClass = savedClass
	return out
}

// capture redirects mainBody into a scratch buffer while fn runs and
// returns what fn wrote.
func (g *Generator) capture(fn func()) string {
	saved := g.mainBody
	g.mainBody = strings.Builder{}
	fn()
	out := g.mainBody.String()
	g.mainBody = saved
	return out
}

// emitCreator writes `_create_ClassName`, which allocates an instance via
// the collector (all allocation goes through GC_MALLOC, which returns
// cleared memory), runs every member initializer up the inheritance chain,
// and calls the class's `dhis` constructor last if it declares or inherits
// one.
func (g *Generator) emitCreator(c *ast.ClassDecl) {
	var ctor *ast.FuncDecl
	var ctorOwner *ast.ClassDecl
	hops := 0
	for cur := c; cur != nil; cur = cur.Parent {
		for _, m := range cur.Methods {
			if m.Name == "dhis" {
				ctor = m
				ctorOwner = cur
				break
			}
		}
		if ctor != nil {
			break
		}
		hops++
	}

	fmt.Fprintf(&g.functionDefs, "struct %s* _create_%s(", c.Name, c.Name)
	if ctor != nil {
		for i, p := range ctor.Params {
			if i > 0 {
				g.functionDefs.WriteString(", ")
			}
			g.functionDefs.WriteString(g.cDecl(p.Type, p.Name))
		}
	}
	g.functionDefs.WriteString(") {\n")
	fmt.Fprintf(&g.functionDefs, "\tstruct %s* kan = GC_MALLOC(sizeof(struct %s));\n", c.Name, c.Name)

	g.functionDefs.WriteString(g.capture(func() {
		g.indent++
		g.emitMemberInits(c)
		g.indent--
	}))

	if ctor != nil {
		self := "kan"
		for i := 0; i < hops; i++ {
			self = fmt.Sprintf("(&%s->parent)", self)
		}
		g.functionDefs.WriteString("\t" + methodName(ctorOwner, "dhis") + "(" + self)
		for _, p := range ctor.Params {
			fmt.Fprintf(&g.functionDefs, ", %s", p.Name)
		}
		g.functionDefs.WriteString(");\n")
	}
	g.functionDefs.WriteString("\treturn kan;\n}\n\n")
}

// emitMemberInits assigns every member's declared initializer (or, for
// container types, a freshly created empty container) from the root of the
// inheritance chain down, so a child's initializer can overwrite an
// inherited default. Scalar members without initializers stay as the
// cleared memory the allocator handed back.
func (g *Generator) emitMemberInits(c *ast.ClassDecl) {
	var chain []*ast.ClassDecl
	for cur := c; cur != nil; cur = cur.Parent {
		chain = append(chain, cur)
	}
	for i := len(chain) - 1; i >= 0; i-- {
		prefix := "kan->" + strings.Repeat("parent.", i)
		for _, m := range chain[i].Members {
			target := prefix + m.Name
			if lit, ok := m.Init.(*ast.ArrayLit); ok {
				g.writeLine("%s = %s;", target, g.arrayCreateExpr(ast.ArrayOf(lit.DeclaredElem)))
				g.emitArrayAppends(target, lit)
				continue
			}
			if m.Init != nil {
				init := g.emitExpr(m.Init, m.Type)
				if g.typeOf(m.Init).Kind == ast.TDynamic && m.Type.Kind != ast.TDynamic {
					init = g.unwrap(init, m.Type)
				}
				g.writeLine("%s = %s;", target, init)
				continue
			}
			switch m.Type.Kind {
			case ast.TDict, ast.TArray:
				g.writeLine("%s = %s;", target, g.defaultValue(m.Type))
			}
		}
	}
}
