package codegen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tusmolang/tusmoc/internal/ast"
)

// binaryOpC maps a tusmo binary operator onto its C spelling. Most are
// already valid C; only the word operators need translating. The lexer and
// parser produce && and || for the logical operators, so the "iyo"/"ama"
// cases are not reached from parsed source.
func binaryOpC(op string) string {
	switch op {
	case "iyo":
		return "&&"
	case "ama":
		return "||"
	default:
		return op
	}
}

// emitExpr renders e as a C expression. hint carries the expected type when
// the caller has one (ast.Invalid if not); it only matters for the few
// contexts where the same source expression lowers differently depending on
// where its value is headed.
func (g *Generator) emitExpr(e ast.Expr, hint ast.Type) string {
	switch x := e.(type) {
	case *ast.IntLit:
		return strconv.FormatInt(x.Value, 10)
	case *ast.FloatLit:
		s := strconv.FormatFloat(x.Value, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return s
	case *ast.StringLit:
		return strconv.Quote(x.Value)
	case *ast.CharLit:
		return charC(x.Value)
	case *ast.BoolLit:
		if x.Value {
			return "1"
		}
		return "0"
	case *ast.TypeLiteral:
		return fmt.Sprintf("%q", x.Name)
	case *ast.FStringLit:
		return g.emitFString(x)
	case *ast.Ident:
		return x.Name
	case *ast.SelfExpr:
		return "kan"
	case *ast.ParentExpr:
		return "(&kan->parent)"
	case *ast.MemberAccess:
		return g.emitMemberAccess(x)
	case *ast.ArrayIndex:
		return g.emitIndex(x)
	case *ast.DictIndex:
		g.use("dict")
		return fmt.Sprintf("dict_get(%s, %s)", g.emitExpr(x.Dict, ast.Invalid), g.emitExpr(x.Key, ast.String))
	case *ast.BinaryOp:
		return g.emitBinary(x)
	case *ast.UnaryOp:
		return fmt.Sprintf("(%s%s)", x.Op, g.emitExpr(x.Operand, ast.Invalid))
	case *ast.Ternary:
		return fmt.Sprintf("(%s ? %s : %s)", g.emitExpr(x.Cond, ast.Bool), g.emitExpr(x.True, ast.Invalid), g.emitExpr(x.False, ast.Invalid))
	case *ast.ArrayLit:
		return g.emitArrayLit(x)
	case *ast.Call:
		return g.emitCall(x)
	case *ast.LengthQuery:
		return g.emitLength(x)
	case *ast.TypeQuery:
		return g.emitTypeQuery(x)
	case *ast.ArrayElemTypeQuery:
		return g.emitElemTypeQuery(x)
	case *ast.EmbeddedCCall:
		var args []string
		for _, a := range x.Args {
			args = append(args, g.emitExpr(a, ast.Invalid))
		}
		return fmt.Sprintf("%s(%s)", x.FuncName, strings.Join(args, ", "))
	default:
		return "/* unsupported expression */0"
	}
}

func charC(r rune) string {
	switch r {
	case 0:
		return `'\0'`
	case '\n':
		return `'\n'`
	case '\r':
		return `'\r'`
	case '\t':
		return `'\t'`
	case '\'':
		return `'\''`
	case '\\':
		return `'\\'`
	default:
		return "'" + string(r) + "'"
	}
}

// receiver wraps a rendered C expression in parentheses unless it is a plain
// identifier or already one balanced parenthesized group, so member
// selection through it always parses without stacking redundant parens.
func receiver(s string) string {
	if isCIdent(s) || isParenGroup(s) {
		return s
	}
	return "(" + s + ")"
}

func isCIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			continue
		}
		if i > 0 && r >= '0' && r <= '9' {
			continue
		}
		return false
	}
	return true
}

func isParenGroup(s string) bool {
	if len(s) < 2 || s[0] != '(' || s[len(s)-1] != ')' {
		return false
	}
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 && i != len(s)-1 {
				return false
			}
		}
	}
	return depth == 0
}

// emitIndex lowers `e[i]` by the receiver's static type: arrays go through
// their runtime struct's data/size fields with a bounds check,
// strings index into their character buffer, and a dictionary receiver is a
// key lookup.
func (g *Generator) emitIndex(x *ast.ArrayIndex) string {
	at := g.typeOf(x.Array)
	arr := g.emitExpr(x.Array, ast.Invalid)
	idx := g.emitExpr(x.Index, ast.Int)
	switch at.Kind {
	case ast.TDict:
		g.use("dict")
		return fmt.Sprintf("dict_get(%s, %s)", arr, idx)
	case ast.TString:
		g.use("string")
		return fmt.Sprintf("%s[tusmo_bounds_check(%s, strlen(%s))]", receiver(arr), idx, arr)
	default:
		if at.IsHeterogeneousArray() || at.Kind != ast.TArray {
			g.use("array_mixed")
		} else {
			g.use("array")
		}
		r := receiver(arr)
		return fmt.Sprintf("%s->data[tusmo_bounds_check(%s, %s->size)]", r, idx, r)
	}
}

func (g *Generator) emitLength(x *ast.LengthQuery) string {
	arg := g.emitExpr(x.Arg, ast.Invalid)
	switch t := g.typeOf(x.Arg); t.Kind {
	case ast.TString:
		g.use("string")
		return fmt.Sprintf("(int)strlen(%s)", arg)
	case ast.TArray, ast.TDict:
		g.use("array")
		return fmt.Sprintf("(int)%s->size", receiver(arg))
	default:
		g.use("conversion")
		return fmt.Sprintf("tusmo_dherer(%s)", arg)
	}
}

// emitTypeQuery returns a static string for a statically known operand and
// only defers to the runtime's type-tag function for dynamic values.
func (g *Generator) emitTypeQuery(x *ast.TypeQuery) string {
	t := g.typeOf(x.Arg)
	if t.Kind == ast.TDynamic {
		g.use("type_of")
		return fmt.Sprintf("type_of(%s)", g.emitExpr(x.Arg, ast.Dynamic))
	}
	return strconv.Quote(t.String())
}

func (g *Generator) emitElemTypeQuery(x *ast.ArrayElemTypeQuery) string {
	t := g.typeOf(x.Array)
	if t.Kind == ast.TArray && t.Elem != nil {
		return strconv.Quote(t.Elem.String())
	}
	g.use("type_of")
	return fmt.Sprintf("tusmo_array_elem_type(%s)", g.emitExpr(x.Array, ast.Invalid))
}

// emitFString lowers a formatted string into a chain of tusmo_concat_cstr
// calls, one per part, promoting each expression part to a
// string the same way `+` on strings does.
func (g *Generator) emitFString(x *ast.FStringLit) string {
	g.use("string_concat")
	if len(x.Parts) == 0 {
		return `""`
	}
	var acc string
	for i, part := range x.Parts {
		var piece string
		if part.IsExpr {
			piece = g.emitStringOperand(part.Expr)
		} else {
			piece = strconv.Quote(part.Text)
		}
		if i == 0 {
			acc = piece
			continue
		}
		acc = fmt.Sprintf("tusmo_concat_cstr(%s, %s)", acc, piece)
	}
	return acc
}

// emitStringOperand renders e promoted to a C string, using the per-type
// same per-type formatter table concatenation uses: chars through "%c", ints "%d", floats "%f",
// bools as the source language's own true/false spellings, and dynamic
// values through the runtime's to_string.
func (g *Generator) emitStringOperand(e ast.Expr) string {
	switch t := g.typeOf(e); t.Kind {
	case ast.TString:
		return g.emitExpr(e, ast.String)
	case ast.TChar:
		g.use("string_format")
		return fmt.Sprintf(`tusmo_str_format("%%c", %s)`, g.emitExpr(e, t))
	case ast.TInt:
		g.use("string_format")
		return fmt.Sprintf(`tusmo_str_format("%%d", %s)`, g.emitExpr(e, t))
	case ast.TFloat:
		g.use("string_format")
		return fmt.Sprintf(`tusmo_str_format("%%f", %s)`, g.emitExpr(e, t))
	case ast.TBool:
		return fmt.Sprintf(`((%s) ? "run" : "been")`, g.emitExpr(e, t))
	case ast.TTypeLiteral:
		return strconv.Quote(t.Name)
	case ast.TDynamic:
		g.use("conversion")
		return fmt.Sprintf("to_string(%s)", g.emitExpr(e, ast.Dynamic))
	default:
		return g.emitExpr(e, ast.Invalid)
	}
}

// boxExpr renders e boxed into the runtime's tagged-value struct, selecting
// the constructor by e's static type — C has no overloading, so every kind
// in the tagged union gets its own boxing function. An already-dynamic
// value passes through untouched.
func (g *Generator) boxExpr(e ast.Expr) string {
	switch t := g.typeOf(e); t.Kind {
	case ast.TInt:
		return fmt.Sprintf("tusmo_box_int(%s)", g.emitExpr(e, t))
	case ast.TFloat:
		return fmt.Sprintf("tusmo_box_float(%s)", g.emitExpr(e, t))
	case ast.TString:
		return fmt.Sprintf("tusmo_box_string(%s)", g.emitExpr(e, t))
	case ast.TChar:
		return fmt.Sprintf("tusmo_box_char(%s)", g.emitExpr(e, t))
	case ast.TBool:
		return fmt.Sprintf("tusmo_box_bool(%s)", g.emitExpr(e, t))
	case ast.TArray:
		return fmt.Sprintf("tusmo_box_array(%s)", g.emitExpr(e, t))
	case ast.TDict:
		return fmt.Sprintf("tusmo_box_dict(%s)", g.emitExpr(e, t))
	default:
		return g.emitExpr(e, ast.Dynamic)
	}
}

// unwrap renders cExpr (a tagged dynamic value) narrowed to want, via the
// runtime's to_* helpers. Only declaration initializers (including class
// member initializers) and compound assignments call this; a plain
// assignment never unwraps.
func (g *Generator) unwrap(cExpr string, want ast.Type) string {
	var fn string
	switch want.Kind {
	case ast.TInt:
		fn = "to_int"
	case ast.TFloat:
		fn = "to_float"
	case ast.TString:
		fn = "to_string"
	case ast.TBool:
		fn = "to_bool"
	default:
		return cExpr
	}
	g.use("conversion")
	return fmt.Sprintf("%s(%s)", fn, cExpr)
}

func (g *Generator) emitBinary(x *ast.BinaryOp) string {
	op := binaryOpC(x.Op)

	if tl, other, ok := typeLiteralOperand(x); ok && (op == "==" || op == "!=") {
		return g.emitTypeComparison(tl, other, op)
	}

	left := g.typeOf(x.Left)
	right := g.typeOf(x.Right)

	if op == "+" && (left.Kind == ast.TString || right.Kind == ast.TString) {
		g.use("string_concat")
		return fmt.Sprintf("tusmo_concat_cstr(%s, %s)", g.emitStringOperand(x.Left), g.emitStringOperand(x.Right))
	}
	if (op == "==" || op == "!=") && (left.Kind == ast.TString || right.Kind == ast.TString) {
		g.use("string")
		cmp := fmt.Sprintf("strcmp(%s, %s) == 0", g.emitStringOperand(x.Left), g.emitStringOperand(x.Right))
		if op == "!=" {
			return fmt.Sprintf("!(%s)", cmp)
		}
		return cmp
	}
	return fmt.Sprintf("(%s %s %s)", g.emitExpr(x.Left, ast.Invalid), op, g.emitExpr(x.Right, ast.Invalid))
}

func typeLiteralOperand(x *ast.BinaryOp) (*ast.TypeLiteral, ast.Expr, bool) {
	if tl, ok := x.Left.(*ast.TypeLiteral); ok {
		return tl, x.Right, true
	}
	if tl, ok := x.Right.(*ast.TypeLiteral); ok {
		return tl, x.Left, true
	}
	return nil, nil, false
}

// emitTypeComparison lowers `expr == typename`: statically known operands
// fold to a constant, dynamic values compare their runtime type tag.
func (g *Generator) emitTypeComparison(tl *ast.TypeLiteral, other ast.Expr, op string) string {
	t := g.typeOf(other)
	if t.Kind != ast.TDynamic {
		match := t.String() == tl.Name
		if op == "!=" {
			match = !match
		}
		if match {
			return "1"
		}
		return "0"
	}
	g.use("type_of")
	cmp := fmt.Sprintf("strcmp(type_of(%s), %q) == 0", g.emitExpr(other, ast.Dynamic), tl.Name)
	if op == "!=" {
		return fmt.Sprintf("!(%s)", cmp)
	}
	return cmp
}

// emitMemberAccess walks ParentHops ".parent" accesses to reach the
// declaring struct's field.
func (g *Generator) emitMemberAccess(x *ast.MemberAccess) string {
	path := receiver(g.emitExpr(x.Object, ast.Invalid))
	for i := 0; i < x.ParentHops; i++ {
		path = fmt.Sprintf("(&%s->parent)", path)
	}
	return fmt.Sprintf("%s->%s", path, x.Member)
}

// emitArrayLit lowers a literal in expression position by hoisting it into a
// fresh temporary: the runtime's array_T_create takes only a capacity
//, so the elements have to be appended one statement at a time
// before the surrounding expression can mention the array at all.
// Statement-position literals (a declaration or assignment initializer) are
// lowered directly onto their target by their callers, which create the
// target and call emitArrayAppends on it, without the temporary.
func (g *Generator) emitArrayLit(x *ast.ArrayLit) string {
	tmp := g.nextTemp()
	t := ast.ArrayOf(x.DeclaredElem)
	g.writeLine("%s %s = %s;", g.cType(t), tmp, g.arrayCreateExpr(t))
	g.emitArrayAppends(tmp, x)
	return tmp
}

// arrayCreateExpr renders the array_T_create(cap) call for an array of type
// t, with the runtime's default initial capacity.
func (g *Generator) arrayCreateExpr(t ast.Type) string {
	if t.Elem == nil {
		g.use("array_mixed")
		return "array_mixed_create(8)"
	}
	g.use("array")
	return fmt.Sprintf("%s(8)", g.arrayCreateFn(*t.Elem))
}

// emitArrayAppends appends each literal element onto target in source
// order, boxing into tagged values when the target array is heterogeneous.
func (g *Generator) emitArrayAppends(target string, x *ast.ArrayLit) string {
	if x.DeclaredElem == nil {
		g.use("array_mixed")
		for _, e := range x.Elements {
			g.writeLine("array_mixed_append(%s, %s);", target, g.boxExpr(e))
		}
		return target
	}
	family := "array_" + g.arraySuffix(*x.DeclaredElem)
	for _, e := range x.Elements {
		g.writeLine("%s_append(%s, %s);", family, target, g.emitExpr(e, *x.DeclaredElem))
	}
	return target
}

func (g *Generator) emitCall(c *ast.Call) string {
	if c.ContainerOp != "" {
		return g.emitContainerOp(c)
	}
	if sig, ok := builtinSignature(c.Name); ok && c.Callee == nil && c.Kind == ast.CallFunction {
		return g.emitBuiltinCall(c, sig)
	}
	switch c.Kind {
	case ast.CallConstructor:
		return g.emitConstructorCall(c)
	case ast.CallMethod:
		return g.emitMethodCall(c)
	default:
		var args []string
		for _, a := range c.OrderedArgs {
			args = append(args, g.emitExpr(a, ast.Invalid))
		}
		return fmt.Sprintf("%s(%s)", c.Name, strings.Join(args, ", "))
	}
}

// emitContainerOp lowers an array/dict built-in method call to the matching
// runtime function. Dictionary values
// and heterogeneous-array elements are boxed into tagged values on every
// write.
func (g *Generator) emitContainerOp(c *ast.Call) string {
	recv := g.emitExpr(c.Object, ast.Invalid)
	switch c.Name {
	case "set", "get", "delete", "has_key":
		g.use("dictionary")
		key := g.emitExpr(c.OrderedArgs[0], ast.String)
		switch c.Name {
		case "set":
			return fmt.Sprintf("dict_set(%s, %s, %s)", recv, key, g.boxExpr(c.OrderedArgs[1]))
		case "get":
			return fmt.Sprintf("dict_get(%s, %s)", recv, key)
		case "delete":
			return fmt.Sprintf("dict_delete(%s, %s)", recv, key)
		default:
			return fmt.Sprintf("dict_has_key(%s, %s)", recv, key)
		}
	default:
		return g.emitArrayOp(c, recv)
	}
}

func (g *Generator) emitArrayOp(c *ast.Call, recv string) string {
	heterogeneous := c.ContainerElem.Kind == ast.TDynamic
	var family string
	if heterogeneous {
		g.use("array_mixed")
		family = "array_mixed"
	} else {
		g.use("array")
		family = "array_" + g.arraySuffix(c.ContainerElem)
	}

	elem := func(e ast.Expr) string {
		if heterogeneous {
			return g.boxExpr(e)
		}
		return g.emitExpr(e, c.ContainerElem)
	}

	switch c.Name {
	case "append":
		if family == "array_string" {
			// string-array printing depends on the dictionary runtime too.
			g.use("dictionary")
		}
		return fmt.Sprintf("%s_append(%s, %s)", family, recv, elem(c.OrderedArgs[0]))
	case "insert":
		return fmt.Sprintf("%s_insert(%s, %s, %s)", family, recv, g.emitExpr(c.OrderedArgs[0], ast.Int), elem(c.OrderedArgs[1]))
	case "remove":
		return fmt.Sprintf("%s_remove(%s, %s)", family, recv, g.emitExpr(c.OrderedArgs[0], ast.Int))
	case "pop":
		return fmt.Sprintf("%s_pop(%s)", family, recv)
	default:
		return "/* unsupported container op */0"
	}
}

func (g *Generator) emitConstructorCall(c *ast.Call) string {
	var args []string
	for _, a := range c.OrderedArgs {
		args = append(args, g.emitExpr(a, ast.Invalid))
	}
	return fmt.Sprintf("_create_%s(%s)", c.Name, strings.Join(args, ", "))
}

func (g *Generator) emitMethodCall(c *ast.Call) string {
	path := receiver(g.emitExpr(c.Object, ast.Invalid))
	for i := 0; i < c.ParentHops; i++ {
		path = fmt.Sprintf("(&%s->parent)", path)
	}
	name := c.Name
	if c.OwnerClass != nil {
		name = methodName(c.OwnerClass, c.Name)
	}
	args := []string{path}
	for _, a := range c.OrderedArgs {
		args = append(args, g.emitExpr(a, ast.Invalid))
	}
	return fmt.Sprintf("%s(%s)", name, strings.Join(args, ", "))
}
