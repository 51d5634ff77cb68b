package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tusmolang/tusmoc/internal/ast"
	"github.com/tusmolang/tusmoc/internal/diag"
	"github.com/tusmolang/tusmoc/internal/lexer"
	"github.com/tusmolang/tusmoc/internal/parser"
)

func parseFile(t *testing.T, src string) *ast.File {
	t.Helper()
	lx := lexer.New("test.tus", src)
	toks := lx.All()
	require.Empty(t, lx.Diagnostics)
	file, err := parser.Parse(toks)
	require.NoError(t, err)
	return file
}

func Test_Analyze_wellFormedProgramHasNoDiagnostics(t *testing.T) {
	file := parseFile(t, `
fn add(a: tiro, b: tiro = 1): tiro { return a + b; }
print(add(a=2));
`)
	assert.NoError(t, Analyze(file))
}

func Test_Analyze_namedArgumentsReorderToDeclarationOrder(t *testing.T) {
	file := parseFile(t, `
fn f(a: tiro, b: tiro = 10): tiro { return a + b; }
print(f(b=5, a=2));
`)
	require.NoError(t, Analyze(file))

	printStmt := file.Nodes[1].(*ast.PrintStmt)
	call := printStmt.Args[0].(*ast.Call)
	require.Len(t, call.OrderedArgs, 2)
	assert.Equal(t, int64(2), call.OrderedArgs[0].(*ast.IntLit).Value)
	assert.Equal(t, int64(5), call.OrderedArgs[1].(*ast.IntLit).Value)
}

func Test_Analyze_undeclaredVariableIsDiagnosed(t *testing.T) {
	file := parseFile(t, `print(missing);`)
	assert.Error(t, Analyze(file))
}

func Test_Analyze_duplicateDeclarationInSameScopeIsDiagnosed(t *testing.T) {
	file := parseFile(t, `
let : tiro x = 1;
let : tiro x = 2;
`)
	assert.Error(t, Analyze(file))
}

func Test_Analyze_breakOutsideLoopIsDiagnosed(t *testing.T) {
	file := parseFile(t, `break;`)
	assert.Error(t, Analyze(file))
}

func Test_Analyze_inheritanceCycleIsDiagnosed(t *testing.T) {
	file := parseFile(t, `
class A inherits B {}
class B inherits A {}
`)
	assert.Error(t, Analyze(file))
}

func Test_Analyze_arrayAppendResolvesElementType(t *testing.T) {
	file := parseFile(t, `
let : array:tiro xs = [1, 2, 3];
xs.append(4);
`)
	require.NoError(t, Analyze(file))

	stmt := file.Nodes[1].(*ast.ExprStmt)
	call := stmt.X.(*ast.Call)
	assert.Equal(t, "append", call.ContainerOp)
	assert.Equal(t, ast.TInt, call.ContainerElem.Kind)
}

func Test_Analyze_homogeneousArrayLiteralPinsDeclaredElem(t *testing.T) {
	file := parseFile(t, `let : array:tiro xs = [1, 2, 3];`)
	require.NoError(t, Analyze(file))

	decl := file.Nodes[0].(*ast.VarDecl)
	lit := decl.Init.(*ast.ArrayLit)
	require.NotNil(t, lit.DeclaredElem)
	assert.Equal(t, ast.TInt, lit.DeclaredElem.Kind)
}

func Test_Analyze_heterogeneousArrayLiteralLeavesElemNil(t *testing.T) {
	file := parseFile(t, `let : array xs = [1, "two", 3.0];`)
	require.NoError(t, Analyze(file))

	decl := file.Nodes[0].(*ast.VarDecl)
	lit := decl.Init.(*ast.ArrayLit)
	assert.Nil(t, lit.DeclaredElem)
}

func Test_Analyze_parentMethodCallResolvesOwnerAndHopCount(t *testing.T) {
	file := parseFile(t, `
class A {
	fn greet(): waxbo { print("A"); }
}
class B inherits A {
	fn hello(): waxbo { parent.greet(); }
}
`)
	require.NoError(t, Analyze(file))

	var b *ast.ClassDecl
	for _, n := range file.Nodes {
		if c, ok := n.(*ast.ClassDecl); ok && c.Name == "B" {
			b = c
		}
	}
	require.NotNil(t, b)
	hello := b.Methods[0]
	stmt := hello.Body[0].(*ast.ExprStmt)
	call := stmt.X.(*ast.Call)
	require.NotNil(t, call.OwnerClass)
	assert.Equal(t, "A", call.OwnerClass.Name)
}

func Test_Analyze_functionTypedVariableIsCallable(t *testing.T) {
	file := parseFile(t, `
fn double(n: tiro): tiro { return n * 2; }
fn apply(op: fn(tiro): tiro, n: tiro): tiro { return op(n); }
print(apply(double, 3));
`)
	assert.NoError(t, Analyze(file))
}

func Test_Analyze_functionTypedVariableRejectsNamedArguments(t *testing.T) {
	file := parseFile(t, `
fn apply(op: fn(tiro): tiro): tiro { return op(n=1); }
`)
	assert.Error(t, Analyze(file))
}

func Test_Analyze_selfOutsideMethodIsDiagnosed(t *testing.T) {
	file := parseFile(t, `print(kan);`)
	assert.Error(t, Analyze(file))
}

func Test_Analyze_diagnosticsCarryFilenameAndLine(t *testing.T) {
	file := parseFile(t, `
print(missing);
`)
	err := Analyze(file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "test.tus:2")
}

// The first violation aborts the pass: a program with several independent
// problems yields exactly one structured diagnostic, for the earliest one.
func Test_Analyze_abortsOnFirstError(t *testing.T) {
	file := parseFile(t, `
print(missing_one);
print(missing_two);
`)
	err := Analyze(file)
	require.Error(t, err)

	var d *diag.Diagnostic
	require.ErrorAs(t, err, &d)
	assert.Equal(t, "test.tus", d.Filename)
	assert.Equal(t, 2, d.Line)
	assert.Contains(t, err.Error(), "missing_one")
	assert.NotContains(t, err.Error(), "missing_two")
}
