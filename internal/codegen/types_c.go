package codegen

import (
	"strings"

	"github.com/tusmolang/tusmoc/internal/ast"
)

// cType renders t as the C type the runtime ABI expects it to arrive as
//: primitives map onto the obvious C scalar, strings and classes are
// always pointers, arrays route through the array_* family keyed by
// element type, and anything dynamically typed becomes the tagged union
// TusmoDynamicValue.
func (g *Generator) cType(t ast.Type) string {
	switch t.Kind {
	case ast.TInt:
		return "int"
	case ast.TFloat:
		return "double"
	case ast.TString:
		return "char*"
	case ast.TChar:
		return "char"
	case ast.TBool:
		return "int"
	case ast.TVoid:
		return "void"
	case ast.TDict:
		g.use("dict")
		return "TusmoDict*"
	case ast.TDynamic:
		return "TusmoDynamicValue"
	case ast.TArray:
		if t.Elem == nil {
			g.use("array_mixed")
			return "TusmoMixedArray*"
		}
		g.use("array")
		return "Array_" + g.arraySuffix(*t.Elem) + "*"
	case ast.TClass:
		return "struct " + t.Name + "*"
	default:
		return "void*"
	}
}

// cDecl renders the declaration of name with type t. It exists because a
// function-typed variable cannot be declared as "<type> <name>" in C — the
// name sits inside the pointer declarator — while every other type can.
func (g *Generator) cDecl(t ast.Type, name string) string {
	if t.Kind != ast.TFunction {
		return g.cType(t) + " " + name
	}
	params := make([]string, 0, len(t.Params))
	for _, p := range t.Params {
		params = append(params, g.cType(p))
	}
	if len(params) == 0 {
		params = append(params, "void")
	}
	ret := ast.Void
	if t.Return != nil {
		ret = *t.Return
	}
	return g.cType(ret) + " (*" + name + ")(" + strings.Join(params, ", ") + ")"
}

// arraySuffix names the per-element-type array family the generator
// instantiates via array_T_create/append/insert/pop/remove. Element
// types without a dedicated family (arrays of arrays, class instances)
// route through the void*-element generic family.
func (g *Generator) arraySuffix(elem ast.Type) string {
	switch elem.Kind {
	case ast.TInt:
		return "int"
	case ast.TFloat:
		return "float"
	case ast.TString:
		return "string"
	case ast.TChar:
		return "char"
	case ast.TBool:
		return "bool"
	case ast.TDynamic:
		g.use("array_mixed")
		return "mixed"
	default:
		g.use("array_generic")
		return "generic"
	}
}

// arrayCreateFn is the array_T_create constructor name for elem's array
// family.
func (g *Generator) arrayCreateFn(elem ast.Type) string {
	return "array_" + g.arraySuffix(elem) + "_create"
}
