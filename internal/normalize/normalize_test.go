package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tusmolang/tusmoc/internal/ast"
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

func Test_AttachDocstrings_movesLeadingStringOutOfFuncBody(t *testing.T) {
	file := parseFile(t, `
fn greet(): waxbo {
	"says hello";
	print("hi");
}
`)
	AttachDocstrings(file)

	fn := file.Nodes[0].(*ast.FuncDecl)
	assert.Equal(t, "says hello", fn.Docstring)
	require.Len(t, fn.Body, 1)
	assert.IsType(t, &ast.PrintStmt{}, fn.Body[0])
}

func Test_AttachDocstrings_noLeadingStringLeavesBodyAlone(t *testing.T) {
	file := parseFile(t, `
fn greet(): waxbo {
	print("hi");
}
`)
	AttachDocstrings(file)

	fn := file.Nodes[0].(*ast.FuncDecl)
	assert.Equal(t, "", fn.Docstring)
	require.Len(t, fn.Body, 1)
}

func Test_AttachDocstrings_recursesIntoClassMethods(t *testing.T) {
	file := parseFile(t, `
class Animal {
	fn speak(): waxbo {
		"an overridable noise";
		print("...");
	}
}
`)
	AttachDocstrings(file)

	cls := file.Nodes[0].(*ast.ClassDecl)
	method := cls.Methods[0]
	assert.Equal(t, "an overridable noise", method.Docstring)
	require.Len(t, method.Body, 1)
}

func Test_ResolveFStrings_fillsExprForBraceSegments(t *testing.T) {
	file := parseFile(t, `
fn greet(): waxbo {
	let : tiro x = 1;
	print($"total: {x + 1}");
}
`)
	err := ResolveFStrings(file)
	require.NoError(t, err)

	fn := file.Nodes[0].(*ast.FuncDecl)
	printStmt := fn.Body[1].(*ast.PrintStmt)
	fstr := printStmt.Args[0].(*ast.FStringLit)

	var exprPart *ast.FStringPart
	for i := range fstr.Parts {
		if fstr.Parts[i].IsExpr {
			exprPart = &fstr.Parts[i]
		}
	}
	require.NotNil(t, exprPart)
	require.NotNil(t, exprPart.Expr)
	bin, ok := exprPart.Expr.(*ast.BinaryOp)
	require.True(t, ok)
	assert.Equal(t, "+", bin.Op)
}

func Test_ResolveFStrings_recursesIntoNestedExpressions(t *testing.T) {
	file := parseFile(t, `
fn greet(): waxbo {
	let : array:tiro xs = [1, $"x"];
}
`)
	err := ResolveFStrings(file)
	require.NoError(t, err)

	fn := file.Nodes[0].(*ast.FuncDecl)
	decl := fn.Body[0].(*ast.VarDecl)
	arr := decl.Init.(*ast.ArrayLit)
	_, ok := arr.Elements[1].(*ast.FStringLit)
	assert.True(t, ok)
}

func Test_ResolveFStrings_malformedExprPropagatesError(t *testing.T) {
	file := parseFile(t, `
fn greet(): waxbo {
	print($"broken: {1 +}");
}
`)
	err := ResolveFStrings(file)
	assert.Error(t, err)
}
