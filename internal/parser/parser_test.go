package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tusmolang/tusmoc/internal/ast"
	"github.com/tusmolang/tusmoc/internal/lexer"
)

func parse(t *testing.T, src string) *ast.File {
	t.Helper()
	lx := lexer.New("test.tus", src)
	toks := lx.All()
	require.Empty(t, lx.Diagnostics)
	file, err := Parse(toks)
	require.NoError(t, err)
	require.NotNil(t, file)
	return file
}

func Test_Parse_varDecl(t *testing.T) {
	file := parse(t, "let : tiro x = 5;")
	require.Len(t, file.Nodes, 1)
	decl, ok := file.Nodes[0].(*ast.VarDecl)
	require.True(t, ok)
	assert.Equal(t, "x", decl.Name)
	assert.Equal(t, ast.Int, decl.Type)
	assert.IsType(t, &ast.IntLit{}, decl.Init)
}

func Test_Parse_funcDeclWithParamsAndReturn(t *testing.T) {
	file := parse(t, `fn add(a: tiro, b: tiro): tiro { return a + b; }`)
	require.Len(t, file.Nodes, 1)
	fn, ok := file.Nodes[0].(*ast.FuncDecl)
	require.True(t, ok)
	assert.Equal(t, "add", fn.Name)
	assert.Equal(t, ast.Int, fn.ReturnType)
	require.Len(t, fn.Params, 2)
	assert.Equal(t, "a", fn.Params[0].Name)
	assert.Equal(t, ast.Int, fn.Params[0].Type)
	require.Len(t, fn.Body, 1)
	ret, ok := fn.Body[0].(*ast.ReturnStmt)
	require.True(t, ok)
	bin, ok := ret.Value.(*ast.BinaryOp)
	require.True(t, ok)
	assert.Equal(t, "+", bin.Op)
}

func Test_Parse_funcDeclDefaultsToVoid(t *testing.T) {
	file := parse(t, `fn sideEffect() { print("hi"); }`)
	fn := file.Nodes[0].(*ast.FuncDecl)
	assert.Equal(t, ast.Void, fn.ReturnType)
}

func Test_Parse_classDeclWithInheritanceMembersAndMethods(t *testing.T) {
	file := parse(t, `
class Animal {
	"""a living thing""";
	let : eray name;
	fn speak(): waxbo { print(kan.name); }
}
class Dog inherits Animal {
	fn speak(): waxbo { print("woof"); }
}
`)
	require.Len(t, file.Nodes, 2)

	animal, ok := file.Nodes[0].(*ast.ClassDecl)
	require.True(t, ok)
	assert.Equal(t, "Animal", animal.Name)
	assert.Equal(t, "", animal.ParentName)
	assert.Equal(t, "a living thing", animal.Docstring)
	require.Len(t, animal.Members, 1)
	assert.Equal(t, "name", animal.Members[0].Name)
	require.Len(t, animal.Methods, 1)
	assert.True(t, animal.Methods[0].IsMethod)

	dog, ok := file.Nodes[1].(*ast.ClassDecl)
	require.True(t, ok)
	assert.Equal(t, "Dog", dog.Name)
	assert.Equal(t, "Animal", dog.ParentName)
}

func Test_Parse_ifElseIfElse(t *testing.T) {
	file := parse(t, `
fn classify(x: tiro): waxbo {
	if (x > 0) {
		print("positive");
	} else-if (x == 0) {
		print("zero");
	} else {
		print("negative");
	}
}
`)
	fn := file.Nodes[0].(*ast.FuncDecl)
	ifs := fn.Body[0].(*ast.IfStmt)
	require.Len(t, ifs.Cases, 2)
	require.NotNil(t, ifs.Else)
	assert.Len(t, ifs.Else, 1)
}

func Test_Parse_whileAndDoWhile(t *testing.T) {
	file := parse(t, `
fn loopy(): waxbo {
	while (run) {
		break;
	}
	do {
		continue;
	} while (been);
}
`)
	fn := file.Nodes[0].(*ast.FuncDecl)
	require.Len(t, fn.Body, 2)
	assert.IsType(t, &ast.WhileStmt{}, fn.Body[0])
	assert.IsType(t, &ast.DoWhileStmt{}, fn.Body[1])
}

func Test_Parse_forRangeAndForEach(t *testing.T) {
	file := parse(t, `
fn loopy(): waxbo {
	for i from 0..10 {
		print(i);
	}
	for v each from xs {
		print(v);
	}
}
`)
	fn := file.Nodes[0].(*ast.FuncDecl)
	require.Len(t, fn.Body, 2)

	rng, ok := fn.Body[0].(*ast.ForRangeStmt)
	require.True(t, ok)
	assert.Equal(t, "i", rng.Var)

	each, ok := fn.Body[1].(*ast.ForEachStmt)
	require.True(t, ok)
	assert.Equal(t, "v", each.Var)
}

func Test_Parse_expressionPrecedence(t *testing.T) {
	file := parse(t, "let : tiro x = 1 + 2 * 3;")
	decl := file.Nodes[0].(*ast.VarDecl)
	top, ok := decl.Init.(*ast.BinaryOp)
	require.True(t, ok)
	assert.Equal(t, "+", top.Op)
	assert.IsType(t, &ast.IntLit{}, top.Left)
	mul, ok := top.Right.(*ast.BinaryOp)
	require.True(t, ok)
	assert.Equal(t, "*", mul.Op)
}

func Test_Parse_ternaryIsLooserThanOr(t *testing.T) {
	file := parse(t, "let : miyaa x = run || been ? 1 : 2;")
	decl := file.Nodes[0].(*ast.VarDecl)
	tern, ok := decl.Init.(*ast.Ternary)
	require.True(t, ok)
	assert.IsType(t, &ast.BinaryOp{}, tern.Cond)
}

func Test_Parse_arrayLiteralAndIndex(t *testing.T) {
	file := parse(t, "let : tiro x = [1, 2, 3][0];")
	decl := file.Nodes[0].(*ast.VarDecl)
	idx, ok := decl.Init.(*ast.ArrayIndex)
	require.True(t, ok)
	arr, ok := idx.Array.(*ast.ArrayLit)
	require.True(t, ok)
	assert.Len(t, arr.Elements, 3)
}

func Test_Parse_methodCallAndConstructor(t *testing.T) {
	file := parse(t, `
fn build(): waxbo {
	let : Dog d = Dog() new;
	d.speak();
}
`)
	fn := file.Nodes[0].(*ast.FuncDecl)
	decl := fn.Body[0].(*ast.VarDecl)
	ctor, ok := decl.Init.(*ast.Call)
	require.True(t, ok)
	assert.Equal(t, ast.CallConstructor, ctor.Kind)

	exprStmt := fn.Body[1].(*ast.ExprStmt)
	call, ok := exprStmt.X.(*ast.Call)
	require.True(t, ok)
	assert.Equal(t, ast.CallMethod, call.Kind)
	assert.Equal(t, "speak", call.Name)
}

func Test_Parse_embeddedCStatementAndCall(t *testing.T) {
	file := parse(t, `
fn native(): tiro {
	__C_CODE__("int z = 0;");
	return __C_CALL__("my_native_fn", 1, 2);
}
`)
	fn := file.Nodes[0].(*ast.FuncDecl)
	cstmt, ok := fn.Body[0].(*ast.EmbeddedCStmt)
	require.True(t, ok)
	assert.Equal(t, "int z = 0;", cstmt.Code)

	ret := fn.Body[1].(*ast.ReturnStmt)
	ccall, ok := ret.Value.(*ast.EmbeddedCCall)
	require.True(t, ok)
	assert.Equal(t, "my_native_fn", ccall.FuncName)
	assert.Len(t, ccall.Args, 2)
}

func Test_Parse_import(t *testing.T) {
	file := parse(t, `include "math.tus";`)
	imp, ok := file.Nodes[0].(*ast.ImportStmt)
	require.True(t, ok)
	assert.Equal(t, "math.tus", imp.Module)
}

func Test_Parse_arrayOfType(t *testing.T) {
	file := parse(t, "let : array:tiro xs = [1, 2];")
	decl := file.Nodes[0].(*ast.VarDecl)
	assert.Equal(t, ast.ArrayOf(&ast.Int), decl.Type)
}

func Test_Parse_compoundAssignment(t *testing.T) {
	file := parse(t, `
fn bump(): waxbo {
	let : tiro x = 1;
	x += 2;
}
`)
	fn := file.Nodes[0].(*ast.FuncDecl)
	assign, ok := fn.Body[1].(*ast.CompoundAssignment)
	require.True(t, ok)
	assert.Equal(t, "+=", assign.Op)
}

func Test_Parse_errorMissingSemicolon(t *testing.T) {
	lx := lexer.New("test.tus", "let : tiro x = 5")
	toks := lx.All()
	_, err := Parse(toks)
	require.Error(t, err)
	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "test.tus", perr.Filename)
}

func Test_Parse_errorMalformedType(t *testing.T) {
	lx := lexer.New("test.tus", "let : 5 x = 5;")
	toks := lx.All()
	_, err := Parse(toks)
	require.Error(t, err)
}

func Test_ParseExpr_reparsesSnippet(t *testing.T) {
	lx := lexer.New("<fstring>", "1 + 2")
	toks := lx.All()
	e, err := ParseExpr(toks)
	require.NoError(t, err)
	bin, ok := e.(*ast.BinaryOp)
	require.True(t, ok)
	assert.Equal(t, "+", bin.Op)
}
