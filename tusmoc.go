// Package tusmoc wires the compiler stages together: import resolution,
// docstring and f-string normalization, semantic analysis, and C code
// generation — a single entry point a CLI or daemon can call without
// knowing about any stage's internals.
package tusmoc

import (
	"fmt"

	"github.com/tusmolang/tusmoc/internal/analyzer"
	"github.com/tusmolang/tusmoc/internal/ast"
	"github.com/tusmolang/tusmoc/internal/codegen"
	"github.com/tusmolang/tusmoc/internal/diag"
	"github.com/tusmolang/tusmoc/internal/importer"
	"github.com/tusmolang/tusmoc/internal/normalize"
)

// Result is the output of a successful compilation.
type Result struct {
	// C is the generated translation unit.
	C string

	// Features is the sorted set of runtime features the generated C
	// needs from the support library.
	Features []string
}

// Roots configures where included modules are searched for; it is the
// compiler-facing alias of importer.Roots so callers need not import that
// package directly.
type Roots = importer.Roots

// Compile resolves every include reachable from the entry file at path,
// normalizes the spliced translation unit, type-checks it, and lowers it to
// C. Every stage aborts on its first error, so the returned error is always
// a single diagnostic naming a file and line.
func Compile(path string, roots Roots) (Result, error) {
	file, err := importer.Resolve(path, roots)
	if err != nil {
		return Result{}, fmt.Errorf("%q: %w", path, err)
	}

	normalize.AttachDocstrings(file)
	if err := normalize.ResolveFStrings(file); err != nil {
		return Result{}, err
	}

	if err := analyzer.Analyze(file); err != nil {
		return Result{}, err
	}

	classes := collectClasses(file)
	c, features, err := codegen.Generate(file, classes)
	if err != nil {
		return Result{}, diag.Wrap(err, path, 0, diag.StageCodegen, "code generation failed")
	}

	return Result{C: c, Features: features}, nil
}

// collectClasses gathers every top-level class declaration in file by name,
// the map shape internal/analyzer and internal/codegen both expect as the
// resolved class universe for a translation unit.
func collectClasses(file *ast.File) map[string]*ast.ClassDecl {
	classes := make(map[string]*ast.ClassDecl)
	for _, n := range file.Nodes {
		if c, ok := n.(*ast.ClassDecl); ok {
			classes[c.Name] = c
		}
	}
	return classes
}
