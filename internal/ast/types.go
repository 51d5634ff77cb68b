package ast

import (
	"fmt"
	"strings"
)

// TypeKind discriminates the members of the compiler's type lattice.
type TypeKind int

const (
	TInvalid TypeKind = iota
	TInt
	TFloat
	TString
	TChar
	TBool
	TVoid
	TDict
	TArray
	TFunction
	TClass
	TTypeLiteral
	TDynamic
)

// Type is a value in the compiler's type lattice. Equality is structural for
// Array and Function, nominal for Class; Dynamic is compatible with every
// primitive/array type and a heterogeneous array's element type is
// compatible with anything.
type Type struct {
	Kind TypeKind

	// Array: Elem is nil for a heterogeneous array.
	Elem *Type

	// Function
	Params []Type
	Return *Type

	// Class / TypeLiteral
	Name string

	// Class slots for a definition and resolved parent. No stage fills them
	// in; class definitions are looked up by Name instead.
	ClassDef *ClassDecl
	Parent   *Type
}

// Primitive type singletons. Callers should treat these as immutable values.
var (
	Int        = Type{Kind: TInt}
	Float      = Type{Kind: TFloat}
	String     = Type{Kind: TString}
	Char       = Type{Kind: TChar}
	Bool       = Type{Kind: TBool}
	Void       = Type{Kind: TVoid}
	Dict       = Type{Kind: TDict}
	Dynamic    = Type{Kind: TDynamic}
	Invalid    = Type{Kind: TInvalid}
)

// ArrayOf builds an array type whose elements are of elem. Pass nil to build
// the heterogeneous-array type.
func ArrayOf(elem *Type) Type {
	return Type{Kind: TArray, Elem: elem}
}

// FuncType builds a function type from parameter types and a return type.
func FuncType(params []Type, ret Type) Type {
	return Type{Kind: TFunction, Params: params, Return: &ret}
}

// ClassType builds a (possibly not-yet-resolved) reference to a user class by
// name.
func ClassType(name string) Type {
	return Type{Kind: TClass, Name: name}
}

// TypeLit builds the type of a type-literal value, e.g. the expression `tiro`
// used as a first-class value for a runtime type query.
func TypeLit(name string) Type {
	return Type{Kind: TTypeLiteral, Name: name}
}

// IsHeterogeneousArray reports whether t is an array with no static element
// type, i.e. one whose elements are tagged dynamic values.
func (t Type) IsHeterogeneousArray() bool {
	return t.Kind == TArray && t.Elem == nil
}

// Equal implements structural equality for Array/Function and nominal
// equality for Class.
func (t Type) Equal(o Type) bool {
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case TArray:
		if t.Elem == nil || o.Elem == nil {
			return t.Elem == nil && o.Elem == nil
		}
		return t.Elem.Equal(*o.Elem)
	case TFunction:
		if len(t.Params) != len(o.Params) {
			return false
		}
		for i := range t.Params {
			if !t.Params[i].Equal(o.Params[i]) {
				return false
			}
		}
		if (t.Return == nil) != (o.Return == nil) {
			return false
		}
		if t.Return != nil && !t.Return.Equal(*o.Return) {
			return false
		}
		return true
	case TClass, TTypeLiteral:
		return t.Name == o.Name
	default:
		return true
	}
}

// CompatibleWith reports whether a value of type t may be used where a value
// of type want is expected: Dynamic is
// compatible with every primitive/array type, and a heterogeneous array's
// element slot accepts anything. Function types are compatible when params
// and return are pairwise compatible.
func (t Type) CompatibleWith(want Type) bool {
	if t.Kind == TDynamic || want.Kind == TDynamic {
		return true
	}
	if want.IsHeterogeneousArray() || t.IsHeterogeneousArray() {
		if want.Kind == TArray && t.Kind == TArray {
			return true
		}
	}
	if t.Kind == TFunction && want.Kind == TFunction {
		if len(t.Params) != len(want.Params) {
			return false
		}
		for i := range t.Params {
			if !t.Params[i].CompatibleWith(want.Params[i]) {
				return false
			}
		}
		if t.Return == nil || want.Return == nil {
			return t.Return == want.Return
		}
		return t.Return.CompatibleWith(*want.Return)
	}
	if t.Kind == TArray && want.Kind == TArray {
		if t.Elem == nil || want.Elem == nil {
			return true
		}
		return t.Elem.CompatibleWith(*want.Elem)
	}
	return t.Equal(want)
}

// String renders the type the way the generator's internal type strings and
// diagnostics do: primitive names in the source language's own spelling,
// "array" / "array:elem" for array types, "typetag:name" for type literals.
func (t Type) String() string {
	switch t.Kind {
	case TInt:
		return "tiro"
	case TFloat:
		return "jajab"
	case TString:
		return "eray"
	case TChar:
		return "xaraf"
	case TBool:
		return "miyaa"
	case TVoid:
		return "waxbo"
	case TDict:
		return "qaamuus"
	case TDynamic:
		return "dynamic_value"
	case TArray:
		if t.Elem == nil {
			return "array"
		}
		return "array:" + t.Elem.String()
	case TFunction:
		var params []string
		for _, p := range t.Params {
			params = append(params, p.String())
		}
		ret := "waxbo"
		if t.Return != nil {
			ret = t.Return.String()
		}
		return fmt.Sprintf("fn(%s):%s", strings.Join(params, ", "), ret)
	case TClass:
		return t.Name
	case TTypeLiteral:
		return "typetag:" + t.Name
	default:
		return "invalid"
	}
}
