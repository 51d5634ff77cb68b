// Package symbols implements the scope-stack symbol table the semantic
// analyzer and code generator thread through a compilation: a small
// typed registry keyed by name, scoped as a stack of frames rather than a
// single flat map, since tusmo has block scoping a flattened symbol
// registry would not capture.
package symbols

import "fmt"

// Kind tags what a symbol denotes.
type Kind int

const (
	KindVariable Kind = iota
	KindFunction
	KindClass
	KindFunctionTypedVariable
)

func (k Kind) String() string {
	switch k {
	case KindVariable:
		return "variable"
	case KindFunction:
		return "function"
	case KindClass:
		return "class_definition"
	case KindFunctionTypedVariable:
		return "function_typed_variable"
	default:
		return "unknown"
	}
}

// Symbol is one entry in the table: a name, its kind, and an opaque payload
// (an ast.Type, *ast.FuncDecl, or *ast.ClassDecl depending on Kind) that the
// analyzer attaches and the generator later reads back.
type Symbol struct {
	Name string
	Kind Kind
	Data interface{}
}

type scope struct {
	names map[string]Symbol
}

func newScope() *scope {
	return &scope{names: make(map[string]Symbol)}
}

// Table is a stack of lexical scopes, with scope 0 always present as the
// global scope (functions, classes, and top-level variables all live there).
type Table struct {
	scopes []*scope
}

// New creates a Table with its global scope already pushed.
func New() *Table {
	return &Table{scopes: []*scope{newScope()}}
}

// Push opens a new nested scope (a function body, a loop body, an if/else
// branch — every block gets one).
func (t *Table) Push() {
	t.scopes = append(t.scopes, newScope())
}

// Pop closes the innermost scope. Popping the global scope is a programmer
// error and panics, since it would leave the table unusable.
func (t *Table) Pop() {
	if len(t.scopes) <= 1 {
		panic("symbols: cannot pop the global scope")
	}
	t.scopes = t.scopes[:len(t.scopes)-1]
}

// Depth reports how many scopes are currently open, including the global
// scope (so a freshly-constructed Table has Depth() == 1).
func (t *Table) Depth() int {
	return len(t.scopes)
}

func (t *Table) current() *scope {
	return t.scopes[len(t.scopes)-1]
}

func (t *Table) global() *scope {
	return t.scopes[0]
}

// Set declares sym in the innermost scope. It returns an error if a symbol
// with the same name is already declared in that same scope (shadowing an
// outer scope's symbol is fine and is how loop variables and parameters
// work; redeclaring within one scope is not).
func (t *Table) Set(sym Symbol) error {
	cur := t.current()
	if _, exists := cur.names[sym.Name]; exists {
		return fmt.Errorf("%q is already declared in this scope", sym.Name)
	}
	cur.names[sym.Name] = sym
	return nil
}

// SetGlobal declares sym directly in the global scope regardless of how
// deeply nested the table currently is; used for function and class
// declarations, which are always globally visible.
func (t *Table) SetGlobal(sym Symbol) error {
	g := t.global()
	if _, exists := g.names[sym.Name]; exists {
		return fmt.Errorf("%q is already declared at global scope", sym.Name)
	}
	g.names[sym.Name] = sym
	return nil
}

// Get looks up name starting from the innermost scope outward, returning the
// first match.
func (t *Table) Get(name string) (Symbol, bool) {
	for i := len(t.scopes) - 1; i >= 0; i-- {
		if sym, ok := t.scopes[i].names[name]; ok {
			return sym, true
		}
	}
	return Symbol{}, false
}

// InCurrentScope reports whether name is declared in the innermost scope
// specifically (not an outer one).
func (t *Table) InCurrentScope(name string) bool {
	_, ok := t.current().names[name]
	return ok
}

// InGlobalScope reports whether name is declared at global scope.
func (t *Table) InGlobalScope(name string) bool {
	_, ok := t.global().names[name]
	return ok
}
