// Package analyzer implements semantic analysis: name and scope
// resolution, inheritance resolution and cycle detection, call-argument
// binding (positional, named, and defaulted), type checking, and
// self/parent validity. It fills in the resolver fields the parser leaves
// zero on *ast.Call, *ast.MemberAccess, *ast.ClassDecl, and *ast.FuncDecl.
// The first violation aborts the whole pass with a single structured
// diagnostic, the same single-error contract the parser and importer
// follow: internally errorf panics with the diagnostic and Analyze
// recovers it into the returned error, so the deeply recursive walk never
// threads an error return through every visit function.
package analyzer

import (
	"sort"

	"github.com/tusmolang/tusmoc/internal/ast"
	"github.com/tusmolang/tusmoc/internal/diag"
	"github.com/tusmolang/tusmoc/internal/symbols"
)

// Analyzer walks a single spliced, normalized ast.File.
type Analyzer struct {
	file    *ast.File
	syms    *symbols.Table
	classes map[string]*ast.ClassDecl
	funcs   map[string]*ast.FuncDecl

	currentClass *ast.ClassDecl
	currentFunc  *ast.FuncDecl
	loopDepth    int
}

// Analyze runs every analysis pass over file. It returns nil for a
// well-formed program, or the first semantic error found.
func Analyze(file *ast.File) (err error) {
	a := &Analyzer{
		file:    file,
		syms:    symbols.New(),
		classes: map[string]*ast.ClassDecl{},
		funcs:   map[string]*ast.FuncDecl{},
	}
	defer func() {
		if r := recover(); r != nil {
			d, ok := r.(*diag.Diagnostic)
			if !ok {
				panic(r)
			}
			err = d
		}
	}()
	a.collectDecls()
	a.resolveInheritance()
	a.registerGlobalSymbols()
	a.checkClasses()
	a.checkFunctions()
	a.checkTopLevel()
	return nil
}

// errorf aborts the analysis with a structured diagnostic; the recover in
// Analyze turns it into the returned error.
func (a *Analyzer) errorf(pos ast.Position, format string, args ...interface{}) {
	panic(diag.New(pos.Filename, pos.Line, diag.StageAnalyze, format, args...).(*diag.Diagnostic))
}

// sortedClassNames returns the declared class names in a fixed order, so
// which error aborts the pass never depends on map iteration order.
func (a *Analyzer) sortedClassNames() []string {
	names := make([]string, 0, len(a.classes))
	for name := range a.classes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (a *Analyzer) sortedFuncNames() []string {
	names := make([]string, 0, len(a.funcs))
	for name := range a.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ---- declaration collection -------------------------------------------------

func (a *Analyzer) collectDecls() {
	for _, n := range a.file.Nodes {
		switch d := n.(type) {
		case *ast.FuncDecl:
			if _, dup := a.funcs[d.Name]; dup {
				a.errorf(d.Position, "function %q is already declared", d.Name)
			}
			a.funcs[d.Name] = d
		case *ast.ClassDecl:
			if _, dup := a.classes[d.Name]; dup {
				a.errorf(d.Position, "class %q is already declared", d.Name)
			}
			a.classes[d.Name] = d
			for _, m := range d.Methods {
				m.Owner = d
				m.IsMethod = true
			}
		}
	}
}

func (a *Analyzer) resolveInheritance() {
	state := map[string]int{} // 0 unvisited, 1 visiting, 2 done
	var resolve func(c *ast.ClassDecl)
	resolve = func(c *ast.ClassDecl) {
		switch state[c.Name] {
		case 1:
			a.errorf(c.Position, "class %q participates in an inheritance cycle", c.Name)
		case 2:
			return
		}
		if c.ParentName == "" {
			state[c.Name] = 2
			return
		}
		state[c.Name] = 1
		parent, ok := a.classes[c.ParentName]
		if !ok {
			a.errorf(c.Position, "class %q inherits from undeclared class %q", c.Name, c.ParentName)
		}
		resolve(parent)
		c.Parent = parent
		state[c.Name] = 2
	}
	for _, name := range a.sortedClassNames() {
		resolve(a.classes[name])
	}
}

func (a *Analyzer) registerGlobalSymbols() {
	for _, name := range a.sortedFuncNames() {
		_ = a.syms.SetGlobal(symbols.Symbol{Name: name, Kind: symbols.KindFunction, Data: a.funcs[name]})
	}
	for _, name := range a.sortedClassNames() {
		_ = a.syms.SetGlobal(symbols.Symbol{Name: name, Kind: symbols.KindClass, Data: a.classes[name]})
	}
}

// ---- classes ----------------------------------------------------------------

func (a *Analyzer) checkClasses() {
	for _, name := range a.sortedClassNames() {
		c := a.classes[name]
		a.currentClass = c
		for _, m := range c.Members {
			if m.Init != nil {
				pinDeclaredElem(m.Init, m.Type)
				a.typeOfExpr(m.Init)
			}
		}
		for _, method := range c.Methods {
			a.checkFuncBody(method)
		}
		a.currentClass = nil
	}
}

// lookupMember walks the class hierarchy starting at c looking for a member
// field named name, returning the declaring class and the number of .parent
// hops needed to reach it from an instance of c.
func lookupMember(c *ast.ClassDecl, name string) (*ast.ClassDecl, int, *ast.VarDecl) {
	hops := 0
	for cur := c; cur != nil; cur = cur.Parent {
		for _, m := range cur.Members {
			if m.Name == name {
				return cur, hops, m
			}
		}
		hops++
	}
	return nil, 0, nil
}

// lookupMethod is lookupMember's counterpart for methods.
func lookupMethod(c *ast.ClassDecl, name string) (*ast.ClassDecl, int, *ast.FuncDecl) {
	hops := 0
	for cur := c; cur != nil; cur = cur.Parent {
		for _, m := range cur.Methods {
			if m.Name == name {
				return cur, hops, m
			}
		}
		hops++
	}
	return nil, 0, nil
}

// ---- functions ----------------------------------------------------------

func (a *Analyzer) checkFunctions() {
	for _, name := range a.sortedFuncNames() {
		a.checkFuncBody(a.funcs[name])
	}
}

func (a *Analyzer) checkFuncBody(fn *ast.FuncDecl) {
	a.currentFunc = fn
	a.syms.Push()
	for _, p := range fn.Params {
		if err := a.syms.Set(symbols.Symbol{Name: p.Name, Kind: symbolKindFor(p.Type), Data: p.Type}); err != nil {
			a.errorf(p.Position, "%s", err)
		}
		if p.Default != nil {
			pinDeclaredElem(p.Default, p.Type)
			a.typeOfExpr(p.Default)
		}
	}
	if fn.IsMethod {
		_ = a.syms.Set(symbols.Symbol{Name: "kan", Kind: symbols.KindVariable, Data: ast.ClassType(fn.Owner.Name)})
	}
	a.checkBlock(fn.Body)
	a.syms.Pop()
	a.currentFunc = nil
}

func symbolKindFor(t ast.Type) symbols.Kind {
	if t.Kind == ast.TFunction {
		return symbols.KindFunctionTypedVariable
	}
	return symbols.KindVariable
}

// ---- top level ----------------------------------------------------------

func (a *Analyzer) checkTopLevel() {
	var stmts []ast.Stmt
	for _, n := range a.file.Nodes {
		switch n.(type) {
		case *ast.FuncDecl, *ast.ClassDecl, *ast.ImportStmt:
			continue
		default:
			if s, ok := n.(ast.Stmt); ok {
				stmts = append(stmts, s)
			}
		}
	}
	a.checkBlock(stmts)
}

// checkBlock type-checks stmts in a fresh nested scope; every block is its
// own scope.
func (a *Analyzer) checkBlock(stmts []ast.Stmt) {
	a.syms.Push()
	for _, s := range stmts {
		a.checkStmt(s)
	}
	a.syms.Pop()
}
