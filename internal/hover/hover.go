// Package hover implements the editor-facing documentation index: a
// reusable entry point that re-runs lexing, parsing, docstring attachment,
// and import resolution over a document, but never semantic analysis or
// code generation, and never aborts the hosting process on a parse error.
// It is a read-only view built from the same front end the compile pipeline
// uses, kept deliberately thin so it stays safe to call on every keystroke.
package hover

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tusmolang/tusmoc/internal/ast"
	"github.com/tusmolang/tusmoc/internal/importer"
	"github.com/tusmolang/tusmoc/internal/lexer"
	"github.com/tusmolang/tusmoc/internal/normalize"
	"github.com/tusmolang/tusmoc/internal/parser"
)

// Kind distinguishes the declarations an Entry can describe.
type Kind string

const (
	KindClass    Kind = "class"
	KindFunction Kind = "function"
	KindMethod   Kind = "method"
)

// Entry is one documented declaration: its display name, what kind of
// declaration it is, a rendered signature, and its attached docstring (empty
// if none was written).
type Entry struct {
	DisplayName string `json:"displayName"`
	Kind        Kind   `json:"kind"`
	Signature   string `json:"signature"`
	Docstring   string `json:"docstring"`
}

// Index maps both unqualified names ("kor") and qualified ones
// ("Dad.kor") to their Entry, for a function/method/class declared
// anywhere in the document or anything it transitively includes.
type Index map[string]Entry

// Build parses source (the in-editor buffer for filename, not necessarily
// what's on disk) and every module it includes via roots, and returns the
// resulting hover Index. Lex and parse errors are logged to stderr and
// otherwise swallowed — a lex or parse error in the buffer itself yields an
// empty Index, an include that fails is skipped while the rest is still
// indexed, and Build itself never returns an error the caller must handle
// specially.
func Build(filename, source string, roots importer.Roots) Index {
	idx := Index{}

	file, err := parseBuffer(filename, source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hover: %s: %v\n", filename, err)
		return idx
	}

	spliced := spliceIncludes(file, filepath.Dir(filename), roots)
	normalize.AttachDocstrings(spliced)

	indexFile(spliced, idx)
	return idx
}

// parseBuffer lexes and parses an in-memory buffer without touching disk,
// with per-call-instance construction: a fresh lexer and
// parser value per call, no shared mutable state across invocations.
func parseBuffer(filename, source string) (*ast.File, error) {
	lx := lexer.New(filename, normalize.PreprocessDocLines(source))
	toks := lx.All()
	if len(lx.Diagnostics) > 0 {
		d := lx.Diagnostics[0]
		return nil, fmt.Errorf("%d: %s", d.Line, d.Message)
	}
	return parser.Parse(toks)
}

// spliceIncludes resolves every `include` reachable from file's own
// ImportStmt nodes, splicing each included module together with its own
// includes via importer.Resolve, and tolerating a failed include (logged,
// skipped) instead of aborting the whole index the way a full compile would.
func spliceIncludes(file *ast.File, fromDir string, roots importer.Roots) *ast.File {
	out := &ast.File{}
	for _, n := range file.Nodes {
		imp, ok := n.(*ast.ImportStmt)
		if !ok {
			out.Nodes = append(out.Nodes, n)
			continue
		}
		path, err := importer.ResolveModulePath(imp.Module, fromDir, roots)
		if err != nil {
			fmt.Fprintf(os.Stderr, "hover: include %q: %v\n", imp.Module, err)
			continue
		}
		spliced, err := importer.Resolve(path, roots)
		if err != nil {
			fmt.Fprintf(os.Stderr, "hover: include %q: %v\n", imp.Module, err)
			continue
		}
		out.Nodes = append(out.Nodes, spliced.Nodes...)
	}
	return out
}

func indexFile(file *ast.File, idx Index) {
	for _, n := range file.Nodes {
		switch d := n.(type) {
		case *ast.FuncDecl:
			idx[d.Name] = Entry{
				DisplayName: d.Name,
				Kind:        KindFunction,
				Signature:   funcSignature(d),
				Docstring:   d.Docstring,
			}
		case *ast.ClassDecl:
			idx[d.Name] = Entry{
				DisplayName: d.Name,
				Kind:        KindClass,
				Signature:   classSignature(d),
				Docstring:   d.Docstring,
			}
			for _, m := range d.Methods {
				qualified := d.Name + "." + m.Name
				idx[qualified] = Entry{
					DisplayName: qualified,
					Kind:        KindMethod,
					Signature:   funcSignature(m),
					Docstring:   m.Docstring,
				}
			}
		}
	}
}

func funcSignature(fn *ast.FuncDecl) string {
	var params []string
	for _, p := range fn.Params {
		params = append(params, fmt.Sprintf("%s: %s", p.Name, p.Type))
	}
	ret := fn.ReturnType.String()
	return fmt.Sprintf("%s(%s) -> %s", fn.Name, strings.Join(params, ", "), ret)
}

func classSignature(c *ast.ClassDecl) string {
	if c.ParentName == "" {
		return c.Name
	}
	return fmt.Sprintf("%s : %s", c.Name, c.ParentName)
}
