// Package importer resolves `include "module";` statements into a single
// spliced translation unit: a stack of in-progress absolute paths whose
// length bounds the include depth, a set of already-spliced paths that
// silently absorbs repeats and cycles, and errors that wrap a sentinel
// with the offending path.
package importer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tusmolang/tusmoc/internal/ast"
	"github.com/tusmolang/tusmoc/internal/lexer"
	"github.com/tusmolang/tusmoc/internal/normalize"
	"github.com/tusmolang/tusmoc/internal/parser"
	"github.com/tusmolang/tusmoc/internal/util"
)

// MaxImportDepth bounds how deeply one include chain may recurse.
const MaxImportDepth = 32

var (
	// ErrImportStackOverflow is returned when an include chain is nested
	// deeper than MaxImportDepth.
	ErrImportStackOverflow = errors.New("import chain is too deeply nested")

	// ErrModuleNotFound is returned when a module name cannot be located
	// under any search root.
	ErrModuleNotFound = errors.New("module not found")
)

// Roots lists the directories searched for an included module, in order:
// the importing file's own directory, that directory's lib/ subdirectory,
// each configured library root, and finally the standard-library root.
type Roots struct {
	LibRoots []string
	StdRoot  string
}

// resolve locates the file backing a module name. Module names are resolved
// first as a path relative to fromDir, then under fromDir's project-local
// lib/ directory, then under each configured root, each time trying both
// "name" and "name.tus" verbatim.
func (r Roots) resolve(name, fromDir string) (string, error) {
	candidates := []string{fromDir, filepath.Join(fromDir, "lib")}
	candidates = append(candidates, r.LibRoots...)
	if r.StdRoot != "" {
		candidates = append(candidates, r.StdRoot)
	}
	for _, dir := range candidates {
		for _, n := range []string{name, name + ".tus"} {
			full := filepath.Join(dir, n)
			if st, err := os.Stat(full); err == nil && !st.IsDir() {
				return filepath.Clean(full), nil
			}
		}
	}
	return "", fmt.Errorf("%q: %w", name, ErrModuleNotFound)
}

// ResolveModulePath locates the file backing module name as imported from
// fromDir, without parsing it. It exposes Roots.resolve to callers like the
// hover index that need to follow a single include by hand instead of
// fully splicing a translation unit.
func ResolveModulePath(name, fromDir string, roots Roots) (string, error) {
	return roots.resolve(name, fromDir)
}

// Resolve parses the entry file at path and splices in every transitively
// included module, depth-first, preserving the order imports appear in
// source; a module already spliced in is not spliced again. The returned File's Nodes omit ImportStmt entries
// entirely — by the time Resolve returns, every import has either been
// expanded in place or (if already seen) dropped.
func Resolve(path string, roots Roots) (*ast.File, error) {
	seen := util.NewStringSet()
	return resolveFile(path, roots, nil, seen)
}

func resolveFile(path string, roots Roots, stack []string, seen util.StringSet) (*ast.File, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", path, err)
	}
	abs = filepath.Clean(abs)

	if len(stack) >= MaxImportDepth {
		return nil, fmt.Errorf("%q: %w", abs, ErrImportStackOverflow)
	}

	// A cycle is silently short-circuited, not an error: the second
	// visit to an already-seen path — whether a true re-import or the closing
	// edge of an include cycle — simply contributes no additional nodes.
	if seen.Has(abs) {
		return &ast.File{}, nil
	}
	seen.Add(abs)

	src, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("%q: reading from disk: %w", abs, err)
	}

	lx := lexer.New(abs, normalize.PreprocessDocLines(string(src)))
	toks := lx.All()
	if len(lx.Diagnostics) > 0 {
		d := lx.Diagnostics[0]
		return nil, fmt.Errorf("%s:%d: %s", d.Filename, d.Line, d.Message)
	}

	file, err := parser.Parse(toks)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(abs)
	nextStack := append(append([]string{}, stack...), abs)

	out := &ast.File{}
	for _, n := range file.Nodes {
		imp, ok := n.(*ast.ImportStmt)
		if !ok {
			out.Nodes = append(out.Nodes, n)
			continue
		}
		modPath, err := roots.resolve(imp.Module, dir)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", imp.Filename, imp.Line, err)
		}
		spliced, err := resolveFile(modPath, roots, nextStack, seen)
		if err != nil {
			return nil, err
		}
		out.Nodes = append(out.Nodes, spliced.Nodes...)
	}
	return out, nil
}
