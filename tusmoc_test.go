package tusmoc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compileSource(t *testing.T, src string) Result {
	t.Helper()
	dir := t.TempDir()
	entry := filepath.Join(dir, "main.tus")
	require.NoError(t, os.WriteFile(entry, []byte(src), 0644))
	result, err := Compile(entry, Roots{})
	require.NoError(t, err)
	return result
}

func Test_Compile_mainCallsGCInitFirst(t *testing.T) {
	result := compileSource(t, `print("hi");`)
	assert.Contains(t, result.C, "int main(void) {\n\tGC_INIT();")
}

func Test_Compile_printPublishesIoFeature(t *testing.T) {
	result := compileSource(t, `print("hi");`)
	assert.Contains(t, result.Features, "io")
}

func Test_Compile_featureTagsAreCanonical(t *testing.T) {
	canonical := map[string]bool{
		"array": true, "dictionary": true, "string": true, "io": true,
		"conversion": true, "random": true, "time": true, "os": true,
		"http": true, "socket": true, "websocket": true,
	}
	result := compileSource(t, `
let : array:tiro xs = [1, 2, 3];
xs.append(4);
let : qaamuus d;
d.set("a", 1);
print(xs, d);
`)
	for _, f := range result.Features {
		assert.Truef(t, canonical[f], "feature %q is not in the fixed tag vocabulary", f)
	}
	assert.Contains(t, result.Features, "array")
}

func Test_Compile_arrayAppendLowersToRuntimeCall(t *testing.T) {
	result := compileSource(t, `
let : array:tiro xs = [1, 2];
xs.append(3);
`)
	assert.Contains(t, result.C, "array_int_append")
}

func Test_Compile_classAllocationUsesGCMalloc(t *testing.T) {
	result := compileSource(t, `
class Point {
	let: tiro x;
	let: tiro y;
}
let : Point p = Point() new;
`)
	assert.Contains(t, result.C, "GC_MALLOC(sizeof(struct Point))")
	assert.NotContains(t, result.C, "calloc(")
}

func Test_Compile_embeddedCHoistedBeforeStructs(t *testing.T) {
	result := compileSource(t, `
__C_CODE__("int global_counter = 0;");
class Point {
	let: tiro x;
}
`)
	structIdx := indexOf(result.C, "struct Point {")
	embeddedIdx := indexOf(result.C, "global_counter")
	require.GreaterOrEqual(t, structIdx, 0)
	require.GreaterOrEqual(t, embeddedIdx, 0)
	assert.Less(t, embeddedIdx, structIdx)
}

func Test_Compile_printBatchesPrimitivesAroundDynamicValue(t *testing.T) {
	result := compileSource(t, `
let : array:tiro xs = [1, 2];
print(1, xs, 2);
`)
	printfIdx := indexOf(result.C, `printf("%d"`)
	dynamicIdx := indexOf(result.C, "print_dynamic")
	trailingNewlineIdx := lastIndexOf(result.C, `printf("\n")`)
	require.GreaterOrEqual(t, printfIdx, 0)
	require.GreaterOrEqual(t, dynamicIdx, 0)
	require.GreaterOrEqual(t, trailingNewlineIdx, 0)
	assert.Less(t, printfIdx, dynamicIdx)
	assert.Greater(t, trailingNewlineIdx, dynamicIdx)
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

func lastIndexOf(s, sub string) int {
	last := -1
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			last = i
		}
	}
	return last
}
