package analyzer

import "github.com/tusmolang/tusmoc/internal/ast"

// builtinSig describes a free function the generator lowers to a runtime
// call rather than user code — the conversion casts and the OS-facing
// helpers named in the fixed built-in function table.
// Signatures for the OS helpers aren't spelled out explicitly there; the
// arities/types below are this compiler's own reasonable completion,
// recorded as an Open Question decision in DESIGN.md.
type builtinSig struct {
	Params []ast.Type
	Return ast.Type
	// Feature is the tag recorded in the generator's used-features set.
	Feature string
}

var builtins = map[string]builtinSig{
	"eray":  {Params: []ast.Type{ast.Dynamic}, Return: ast.String, Feature: "conversion"},
	"tiro":  {Params: []ast.Type{ast.Dynamic}, Return: ast.Int, Feature: "conversion"},
	"jajab": {Params: []ast.Type{ast.Dynamic}, Return: ast.Float, Feature: "conversion"},
	"miyaa": {Params: []ast.Type{ast.Dynamic}, Return: ast.Bool, Feature: "conversion"},

	"tusmo_os_system": {Params: []ast.Type{ast.String}, Return: ast.Int, Feature: "os"},
	"koobi":           {Params: []ast.Type{ast.String, ast.String}, Return: ast.Void, Feature: "os"},
	"nuqul":           {Params: []ast.Type{ast.String, ast.String}, Return: ast.Void, Feature: "os"},
	"u_dhaqaaji":      {Params: []ast.Type{ast.String, ast.String}, Return: ast.Void, Feature: "os"},
	"aqri_fayl":       {Params: []ast.Type{ast.String}, Return: ast.String, Feature: "os"},
	"qor_fayl":        {Params: []ast.Type{ast.String, ast.String}, Return: ast.Void, Feature: "os"},
	"isku_dar_waddo":  {Params: []ast.Type{ast.String, ast.String}, Return: ast.String, Feature: "os"},
	"cabbir_fayl":     {Params: []ast.Type{ast.String}, Return: ast.Int, Feature: "os"},
}
