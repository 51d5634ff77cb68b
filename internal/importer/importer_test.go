package importer

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tusmolang/tusmoc/internal/ast"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func Test_Resolve_splicesIncludedModuleNodes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "greet.tus", `fn greet(): waxbo { print("hi"); }`)
	entry := writeFile(t, dir, "main.tus", `include "greet.tus"; greet();`)

	file, err := Resolve(entry, Roots{})
	require.NoError(t, err)

	var fnCount, exprCount int
	for _, n := range file.Nodes {
		switch n.(type) {
		case *ast.FuncDecl:
			fnCount++
		case *ast.ExprStmt:
			exprCount++
		case *ast.ImportStmt:
			t.Fatalf("import statement should have been spliced away, got %T", n)
		}
	}
	assert.Equal(t, 1, fnCount)
	assert.Equal(t, 1, exprCount)
}

func Test_Resolve_moduleIncludedTwiceIsSplicedOnce(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "shared.tus", `fn helper(): waxbo { print("hi"); }`)
	writeFile(t, dir, "a.tus", `include "shared.tus";`)
	entry := writeFile(t, dir, "main.tus", `include "a.tus"; include "shared.tus";`)

	file, err := Resolve(entry, Roots{})
	require.NoError(t, err)

	var fnCount int
	for _, n := range file.Nodes {
		if _, ok := n.(*ast.FuncDecl); ok {
			fnCount++
		}
	}
	assert.Equal(t, 1, fnCount, "shared.tus must only be spliced in once")
}

func Test_Resolve_cycleIsShortCircuited(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.tus", `include "b.tus";`)
	writeFile(t, dir, "b.tus", `include "a.tus"; fn fromB(): waxbo { print("b"); }`)
	entry := writeFile(t, dir, "main.tus", `include "a.tus";`)

	file, err := Resolve(entry, Roots{})
	require.NoError(t, err)

	var fnCount int
	for _, n := range file.Nodes {
		if _, ok := n.(*ast.FuncDecl); ok {
			fnCount++
		}
	}
	assert.Equal(t, 1, fnCount)
}

func Test_Resolve_missingModuleErrors(t *testing.T) {
	dir := t.TempDir()
	entry := writeFile(t, dir, "main.tus", `include "nope.tus";`)

	_, err := Resolve(entry, Roots{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrModuleNotFound)
}

func Test_Resolve_searchesLibRootAfterOwnDirectory(t *testing.T) {
	dir := t.TempDir()
	libDir := t.TempDir()
	writeFile(t, libDir, "lib_mod.tus", `fn fromLib(): waxbo { print("lib"); }`)
	entry := writeFile(t, dir, "main.tus", `include "lib_mod.tus";`)

	file, err := Resolve(entry, Roots{LibRoots: []string{libDir}})
	require.NoError(t, err)
	require.Len(t, file.Nodes, 1)
	fn, ok := file.Nodes[0].(*ast.FuncDecl)
	require.True(t, ok)
	assert.Equal(t, "fromLib", fn.Name)
}

func Test_ResolveModulePath_triesWithAndWithoutExtension(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "mathlib.tus", `fn id(): waxbo {}`)

	path, err := ResolveModulePath("mathlib", dir, Roots{})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "mathlib.tus"), path)
}

func Test_Resolve_deepImportChainExceedsMaxDepth(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < MaxImportDepth+2; i++ {
		name := filepath.Join(dir, "m"+itoa(i)+".tus")
		next := "m" + itoa(i+1) + ".tus"
		require.NoError(t, os.WriteFile(name, []byte(`include "`+next+`";`), 0644))
	}
	last := filepath.Join(dir, "m"+itoa(MaxImportDepth+2)+".tus")
	require.NoError(t, os.WriteFile(last, []byte(`fn last(): waxbo {}`), 0644))

	entry := filepath.Join(dir, "m0.tus")
	_, err := Resolve(entry, Roots{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrImportStackOverflow))
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

func Test_Resolve_searchesProjectLocalLibDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "lib"), 0755))
	writeFile(t, filepath.Join(dir, "lib"), "helpers.tus", `fn fromProjectLib(): waxbo {}`)
	entry := writeFile(t, dir, "main.tus", `include "helpers";`)

	file, err := Resolve(entry, Roots{})
	require.NoError(t, err)
	require.Len(t, file.Nodes, 1)
	fn, ok := file.Nodes[0].(*ast.FuncDecl)
	require.True(t, ok)
	assert.Equal(t, "fromProjectLib", fn.Name)
}

func Test_Resolve_ownDirectoryWinsOverLibRoots(t *testing.T) {
	dir := t.TempDir()
	libDir := t.TempDir()
	writeFile(t, dir, "dup.tus", `fn fromOwnDir(): waxbo {}`)
	writeFile(t, libDir, "dup.tus", `fn fromLibRoot(): waxbo {}`)
	entry := writeFile(t, dir, "main.tus", `include "dup";`)

	file, err := Resolve(entry, Roots{LibRoots: []string{libDir}})
	require.NoError(t, err)
	require.Len(t, file.Nodes, 1)
	assert.Equal(t, "fromOwnDir", file.Nodes[0].(*ast.FuncDecl).Name)
}

func Test_Resolve_rewritesDocLinesBeforeParsing(t *testing.T) {
	dir := t.TempDir()
	entry := writeFile(t, dir, "main.tus", "fn greet(): waxbo {\n    :says hello:\n    print(\"hi\");\n}\n")

	file, err := Resolve(entry, Roots{})
	require.NoError(t, err)
	require.Len(t, file.Nodes, 1)
	fn := file.Nodes[0].(*ast.FuncDecl)
	require.Len(t, fn.Body, 2)
	es, ok := fn.Body[0].(*ast.ExprStmt)
	require.True(t, ok)
	lit, ok := es.X.(*ast.StringLit)
	require.True(t, ok)
	assert.Equal(t, "says hello", lit.Value)
}
