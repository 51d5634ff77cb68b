package codegen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tusmolang/tusmoc/internal/analyzer"
	"github.com/tusmolang/tusmoc/internal/ast"
	"github.com/tusmolang/tusmoc/internal/lexer"
	"github.com/tusmolang/tusmoc/internal/normalize"
	"github.com/tusmolang/tusmoc/internal/parser"
)

// generate runs every stage up through code generation over src, the same
// order tusmoc.Compile drives them in, but without the import resolver
// (these fixtures are single-file).
func generate(t *testing.T, src string) (string, []string) {
	t.Helper()
	lx := lexer.New("test.tus", src)
	toks := lx.All()
	require.Empty(t, lx.Diagnostics)

	file, err := parser.Parse(toks)
	require.NoError(t, err)

	normalize.AttachDocstrings(file)
	require.NoError(t, normalize.ResolveFStrings(file))

	require.NoError(t, analyzer.Analyze(file))

	classes := map[string]*ast.ClassDecl{}
	for _, n := range file.Nodes {
		if c, ok := n.(*ast.ClassDecl); ok {
			classes[c.Name] = c
		}
	}

	c, features, err := Generate(file, classes)
	require.NoError(t, err)
	return c, features
}

// E1: hello world.
func Test_Generate_helloWorld(t *testing.T) {
	c, features := generate(t, `print("hi");`)
	assert.Contains(t, c, `printf("%s"`)
	assert.Contains(t, c, `"hi"`)
	assert.Contains(t, c, `printf("\n")`)
	assert.Contains(t, features, "io")
}

// E2: arithmetic and precedence.
func Test_Generate_arithmeticPrecedence(t *testing.T) {
	c, _ := generate(t, `print(1 + 2 * 3);`)
	assert.Contains(t, c, "(1 + (2 * 3))")
}

// E3: homogeneous array append/index. The literal lowers to a capacity-only
// create call followed by one append per element, and the access goes
// through the runtime struct's data/size with a bounds check.
func Test_Generate_homogeneousArrayAppendAndIndex(t *testing.T) {
	c, features := generate(t, `
let : array:tiro xs = [1, 2, 3];
xs.append(4);
print(xs[3]);
`)
	assert.Contains(t, features, "array")
	assert.Contains(t, c, "Array_int* xs = array_int_create(8);")
	assert.Contains(t, c, "array_int_append(xs, 1);")
	assert.Contains(t, c, "array_int_append(xs, 2);")
	assert.Contains(t, c, "array_int_append(xs, 3);")
	assert.Contains(t, c, "array_int_append(xs, 4);")
	assert.Contains(t, c, "xs->data[tusmo_bounds_check(3, xs->size)]")
	assert.Contains(t, c, `printf("%d", xs->data[tusmo_bounds_check(3, xs->size)]);`)
}

// E4: class with inheritance and parent method dispatch.
func Test_Generate_inheritanceParentCall(t *testing.T) {
	c, _ := generate(t, `
class A {
	fn greet(): waxbo { print("A"); }
}
class B inherits A {
	fn hello(): waxbo { parent.greet(); }
}
let : B b = B() new;
`)
	assert.Contains(t, c, "struct B {")
	assert.Contains(t, c, "struct A parent;")
	assert.Contains(t, c, "A_greet((&kan->parent))")
}

// E5: named arguments with defaults reorder to declaration order.
func Test_Generate_namedArgumentsWithDefaults(t *testing.T) {
	c, _ := generate(t, `
fn f(a: tiro, b: tiro = 10): tiro { return a + b; }
print(f(b=5, a=2));
`)
	assert.Contains(t, c, "f(2, 5)")
}

// E6: heterogeneous array boxes every element with its own kind and prints
// through the dynamic printer.
func Test_Generate_heterogeneousArrayBoxesElements(t *testing.T) {
	c, features := generate(t, `
let : array xs = [1, "two", 3.0];
print(xs[1]);
`)
	assert.Contains(t, features, "array")
	assert.Contains(t, c, "array_mixed_create(8)")
	assert.Contains(t, c, "array_mixed_append(xs, tusmo_box_int(1));")
	assert.Contains(t, c, `array_mixed_append(xs, tusmo_box_string("two"));`)
	assert.Contains(t, c, "array_mixed_append(xs, tusmo_box_float(3.0));")
	assert.Contains(t, c, "print_dynamic(xs->data[tusmo_bounds_check(1, xs->size)]);")
}

func Test_Generate_stringConcatPromotesNonStringOperand(t *testing.T) {
	c, features := generate(t, `print("n=" + 1);`)
	assert.Contains(t, c, `tusmo_concat_cstr("n=", tusmo_str_format("%d", 1))`)
	assert.Contains(t, features, "string")
}

func Test_Generate_typeQueryIsStaticForKnownOperand(t *testing.T) {
	c, _ := generate(t, `
let : tiro x = 1;
print(nooc(x));
`)
	assert.Contains(t, c, `printf("%s", "tiro");`)
	assert.NotContains(t, c, "type_of(")
}

func Test_Generate_typeQueryCallsRuntimeForDynamicOperand(t *testing.T) {
	c, _ := generate(t, `
let : qaamuus d;
print(nooc(d["k"]));
`)
	assert.Contains(t, c, `type_of(dict_get(d, "k"))`)
}

func Test_Generate_dynamicInitializerUnwrapsAtDeclaration(t *testing.T) {
	c, features := generate(t, `
let : qaamuus d;
let : tiro x = d["k"];
`)
	assert.Contains(t, c, `int x = to_int(dict_get(d, "k"));`)
	assert.Contains(t, features, "conversion")
}

func Test_Generate_plainAssignmentDoesNotUnwrap(t *testing.T) {
	c, _ := generate(t, `
let : qaamuus d;
let : tiro x = 0;
x = 1;
`)
	assert.Contains(t, c, "x = 1;")
	assert.NotContains(t, c, "to_int(1)")
}

func Test_Generate_uninitializedDeclarationsGetDefaults(t *testing.T) {
	c, _ := generate(t, `
let : tiro i;
let : eray s;
let : qaamuus d;
let : array:tiro xs;
`)
	assert.Contains(t, c, "int i = 0;")
	assert.Contains(t, c, `char* s = "";`)
	assert.Contains(t, c, "TusmoDict* d = dict_create();")
	assert.Contains(t, c, "Array_int* xs = array_int_create(8);")
}

func Test_Generate_dictSetBoxesValueByKind(t *testing.T) {
	c, features := generate(t, `
let : qaamuus d;
d.set("a", 1);
d.set("b", "x");
`)
	assert.Contains(t, c, `dict_set(d, "a", tusmo_box_int(1));`)
	assert.Contains(t, c, `dict_set(d, "b", tusmo_box_string("x"));`)
	assert.Contains(t, features, "dictionary")
}

func Test_Generate_forEachOverTypedArrayReadsBackingData(t *testing.T) {
	c, _ := generate(t, `
let : array:tiro xs = [1, 2];
for x each from xs {
	print(x);
}
`)
	assert.Contains(t, c, "for (int x_idx = 0; x_idx < (int)xs->size; x_idx++)")
	assert.Contains(t, c, "int x = xs->data[x_idx];")
	assert.Contains(t, c, `printf("%d", x);`)
}

func Test_Generate_forEachOverStringWalksCharacters(t *testing.T) {
	c, _ := generate(t, `
let : eray s = "ab";
for ch each from s {
	print(ch);
}
`)
	assert.Contains(t, c, "(int)strlen(s)")
	assert.Contains(t, c, "char ch = s[ch_idx];")
}

func Test_Generate_classGetsTypedefBeforeStruct(t *testing.T) {
	c, _ := generate(t, `
class Point {
	let: tiro x;
}
`)
	assert.Contains(t, c, "typedef struct Point Point;")
}

func Test_Generate_readStmtLowersToRuntimeReader(t *testing.T) {
	c, features := generate(t, `
let : eray s;
hel s;
`)
	assert.Contains(t, c, "s = read_str();")
	assert.Contains(t, features, "io")
}

func Test_Generate_castBuiltinBoxesItsArgument(t *testing.T) {
	c, features := generate(t, `print(eray(5));`)
	assert.Contains(t, c, "to_string(tusmo_box_int(5))")
	assert.Contains(t, features, "conversion")
}

func Test_Generate_typeLiteralComparisonFoldsWhenStatic(t *testing.T) {
	c, _ := generate(t, `
let : tiro x = 1;
print(x == tiro);
`)
	assert.Contains(t, c, `printf("%s", (1) ? "run" : "been");`)
}

func Test_Generate_memberInitializerRunsInCreator(t *testing.T) {
	c, _ := generate(t, `
class Counter {
	let: tiro n = 5;
}
let : Counter c = Counter() new;
`)
	assert.Contains(t, c, "kan->n = 5;")
}

func Test_Generate_sameInputProducesIdenticalOutput(t *testing.T) {
	src := `
class A {
	fn greet(): waxbo { print("A"); }
}
let : array xs = [1, "two"];
let : A a = A() new;
print(xs[0], 2);
`
	c1, f1 := generate(t, src)
	c2, f2 := generate(t, src)
	assert.Equal(t, c1, c2)
	assert.Equal(t, f1, f2)
}

func Test_Generate_mainCallsGCInitBeforeBody(t *testing.T) {
	c, _ := generate(t, `print("hi");`)
	assert.Contains(t, c, "int main(void) {\n\tGC_INIT();")
}

func Test_Generate_classAllocationUsesGCMalloc(t *testing.T) {
	c, _ := generate(t, `
class Point {
	let: tiro x;
}
let : Point p = Point() new;
`)
	assert.Contains(t, c, "GC_MALLOC(sizeof(struct Point))")
	assert.NotContains(t, c, "calloc(")
}

func Test_Generate_stringEqualityUsesStrcmp(t *testing.T) {
	c, features := generate(t, `print("a" == "b");`)
	assert.Contains(t, c, "strcmp(")
	assert.Contains(t, features, "string")
}

func Test_Generate_ternaryAndLogicalOperators(t *testing.T) {
	c, _ := generate(t, `print(run && been || run ? 1 : 2);`)
	assert.Contains(t, c, "&&")
	assert.Contains(t, c, "||")
	assert.Contains(t, c, "?")
}

func Test_Generate_embeddedCHoistedBeforeEverythingElse(t *testing.T) {
	c, _ := generate(t, `
__C_CODE__("int counter = 0;");
class Point {
	let: tiro x;
}
fn noop(): waxbo {}
`)
	cIdx := indexOf(c, "counter = 0")
	structIdx := indexOf(c, "struct Point {")
	fnIdx := indexOf(c, "noop()")
	require.GreaterOrEqual(t, cIdx, 0)
	require.GreaterOrEqual(t, structIdx, 0)
	require.GreaterOrEqual(t, fnIdx, 0)
	assert.Less(t, cIdx, structIdx)
	assert.Less(t, structIdx, fnIdx)
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

func Test_Generate_readIntTargetScansDirectly(t *testing.T) {
	c, _ := generate(t, `
let : tiro x;
hel x;
`)
	assert.Contains(t, c, `scanf("%d", &x);`)
}

// The emitted file must begin with the runtime header, before any libc
// include, embedded-C chunk, or generated declaration.
func Test_Generate_outputBeginsWithRuntimeHeader(t *testing.T) {
	c, _ := generate(t, `
__C_CODE__("int counter = 0;");
print("hi");
`)
	assert.True(t, strings.HasPrefix(c, "#include \"tusmo_runtime.h\"\n"))
}
