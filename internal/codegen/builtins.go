package codegen

import (
	"fmt"
	"strings"

	"github.com/tusmolang/tusmoc/internal/ast"
)

// builtinSig names the runtime C function a built-in maps to and the
// feature tag that function belongs to. The
// analyzer's own builtins table (internal/analyzer/builtins.go) checks
// arity/types against the same names; this one only needs the C side of
// the mapping since by codegen time the call has already passed analysis.
type builtinSig struct {
	CFunc   string
	Feature string
	Ret     ast.Type
}

var builtinTable = map[string]builtinSig{
	"eray":  {CFunc: "to_string", Feature: "conversion", Ret: ast.String},
	"tiro":  {CFunc: "to_int", Feature: "conversion", Ret: ast.Int},
	"jajab": {CFunc: "to_float", Feature: "conversion", Ret: ast.Float},
	"miyaa": {CFunc: "to_bool", Feature: "conversion", Ret: ast.Bool},

	"tusmo_os_system": {CFunc: "tusmo_os_system", Feature: "os", Ret: ast.Int},
	"koobi":           {CFunc: "tusmo_os_copy", Feature: "os", Ret: ast.Void},
	"nuqul":           {CFunc: "tusmo_os_copy", Feature: "os", Ret: ast.Void},
	"u_dhaqaaji":      {CFunc: "tusmo_os_move", Feature: "os", Ret: ast.Void},
	"aqri_fayl":       {CFunc: "tusmo_os_read_file", Feature: "os", Ret: ast.String},
	"qor_fayl":        {CFunc: "tusmo_os_write_file", Feature: "os", Ret: ast.Void},
	"isku_dar_waddo":  {CFunc: "tusmo_os_join_path", Feature: "os", Ret: ast.String},
	"cabbir_fayl":     {CFunc: "tusmo_os_file_size", Feature: "os", Ret: ast.Int},
}

// builtinSignature reports whether name is one of the fixed built-in
// functions rather than a user-defined call.
func builtinSignature(name string) (builtinSig, bool) {
	sig, ok := builtinTable[name]
	return sig, ok
}

// emitBuiltinCall lowers a call to one of the fixed built-ins to its
// runtime C function, publishing the feature tag the table names for it.
// The cast builtins take a tagged value, so their argument is boxed first;
// the OS helpers take plain C strings and get their arguments verbatim.
func (g *Generator) emitBuiltinCall(c *ast.Call, sig builtinSig) string {
	g.use(sig.Feature)
	var args []string
	for _, a := range c.OrderedArgs {
		if sig.Feature == "conversion" {
			args = append(args, g.boxExpr(a))
		} else {
			args = append(args, g.emitExpr(a, ast.Invalid))
		}
	}
	return fmt.Sprintf("%s(%s)", sig.CFunc, strings.Join(args, ", "))
}
