package hover

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tusmolang/tusmoc/internal/importer"
)

func Test_Build_indexesTopLevelFunctionWithDocstring(t *testing.T) {
	idx := Build("buf.tus", `
fn greet(): waxbo {
	"says hello";
	print("hi");
}
`, importer.Roots{})

	entry, ok := idx["greet"]
	require.True(t, ok)
	assert.Equal(t, KindFunction, entry.Kind)
	assert.Equal(t, "says hello", entry.Docstring)
	assert.Equal(t, "greet() -> waxbo", entry.Signature)
}

func Test_Build_indexesClassAndQualifiedMethodNames(t *testing.T) {
	idx := Build("buf.tus", `
class Dog inherits Animal {
	fn bark(): waxbo { print("woof"); }
}
`, importer.Roots{})

	cls, ok := idx["Dog"]
	require.True(t, ok)
	assert.Equal(t, KindClass, cls.Kind)
	assert.Equal(t, "Dog : Animal", cls.Signature)

	method, ok := idx["Dog.bark"]
	require.True(t, ok)
	assert.Equal(t, KindMethod, method.Kind)
	assert.Equal(t, "bark() -> waxbo", method.Signature)
}

func Test_Build_malformedSourceReturnsEmptyIndexWithoutPanicking(t *testing.T) {
	idx := Build("buf.tus", `fn broken( : waxbo {`, importer.Roots{})
	assert.Empty(t, idx)
}

func Test_Build_spliceIncludesPullsInIncludedDeclarations(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir+"/lib.tus", `fn helper(): waxbo { print("lib"); }`)

	idx := Build(dir+"/main.tus", `
include "lib";
fn main2(): waxbo { print("main"); }
`, importer.Roots{})

	_, hasMain := idx["main2"]
	_, hasHelper := idx["helper"]
	assert.True(t, hasMain)
	assert.True(t, hasHelper)
}

func Test_Build_unresolvableIncludeIsSkippedNotFatal(t *testing.T) {
	idx := Build("buf.tus", `
include "does_not_exist";
fn main2(): waxbo { print("main"); }
`, importer.Roots{})

	_, ok := idx["main2"]
	assert.True(t, ok)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
