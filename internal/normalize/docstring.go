// Package normalize implements the two source-to-source passes that run
// between parsing/import-resolution and semantic analysis: docstring
// attachment and formatted-string resolution. Both walk the
// spliced ast.File and modify it in place; neither consults the symbol
// table or performs any type checking, which is why they are separate
// stages from the analyzer rather than folded into it.
package normalize

import "github.com/tusmolang/tusmoc/internal/ast"

// AttachDocstrings moves a function's leading bare string-literal statement
// out of its body and into its Docstring field, the same operation the
// parser already performs for class bodies inline (since a class body has no
// statement list to scan). It recurses into every class's methods.
func AttachDocstrings(file *ast.File) {
	for _, n := range file.Nodes {
		switch d := n.(type) {
		case *ast.FuncDecl:
			attachFuncDocstring(d)
		case *ast.ClassDecl:
			for _, m := range d.Methods {
				attachFuncDocstring(m)
			}
		}
	}
}

func attachFuncDocstring(fn *ast.FuncDecl) {
	if fn.Docstring != "" || len(fn.Body) == 0 {
		return
	}
	es, ok := fn.Body[0].(*ast.ExprStmt)
	if !ok {
		return
	}
	sl, ok := es.X.(*ast.StringLit)
	if !ok {
		return
	}
	fn.Docstring = sl.Value
	fn.Body = fn.Body[1:]
}
