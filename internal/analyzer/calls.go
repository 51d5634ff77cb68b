package analyzer

import (
	"github.com/tusmolang/tusmoc/internal/ast"
	"github.com/tusmolang/tusmoc/internal/symbols"
)

// bindCall resolves a call's callee, orders its arguments against the
// callee's parameter list (positional first, then named, with defaults
// filling any gap), and returns the callee's static return type.
func (a *Analyzer) bindCall(c *ast.Call) ast.Type {
	switch c.Kind {
	case ast.CallMethod:
		return a.bindMethodCall(c)
	case ast.CallConstructor:
		return a.bindConstructorCall(c)
	default:
		return a.bindFunctionCall(c)
	}
}

func (a *Analyzer) bindFunctionCall(c *ast.Call) ast.Type {
	if sig, ok := builtins[c.Name]; ok {
		return a.bindBuiltinCall(c, sig)
	}
	fn, ok := a.funcs[c.Name]
	if !ok {
		if sym, found := a.syms.Get(c.Name); found && sym.Kind == symbols.KindFunctionTypedVariable {
			return a.bindFunctionVarCall(c, sym)
		}
		a.errorf(c.Position, "call to undeclared function %q", c.Name)
		return ast.Invalid
	}
	c.Callee = fn
	a.orderArgs(c, paramList(fn.Params))
	return fn.ReturnType
}

// bindFunctionVarCall resolves a call through a function-typed variable.
// The variable's type carries parameter types
// but no parameter names or defaults, so arguments must be positional and
// every slot must be supplied.
func (a *Analyzer) bindFunctionVarCall(c *ast.Call, sym symbols.Symbol) ast.Type {
	t, ok := sym.Data.(ast.Type)
	if !ok || t.Kind != ast.TFunction {
		a.errorf(c.Position, "%q is not callable", c.Name)
		return ast.Invalid
	}
	if len(c.Args) != len(t.Params) {
		a.errorf(c.Position, "%q takes %d argument(s), got %d", c.Name, len(t.Params), len(c.Args))
	}
	for i, arg := range c.Args {
		if arg.Name != "" {
			a.errorf(arg.Value.Pos(), "cannot pass named argument %q through a function-typed variable", arg.Name)
		}
		argType := a.typeOfExpr(arg.Value)
		if i < len(t.Params) && !argType.CompatibleWith(t.Params[i]) {
			a.errorf(arg.Value.Pos(), "argument %d of %q must be %s, not %s", i+1, c.Name, t.Params[i], argType)
		}
		c.OrderedArgs = append(c.OrderedArgs, arg.Value)
	}
	if t.Return != nil {
		return *t.Return
	}
	return ast.Void
}

// arrayMethods and dictMethods are the container built-ins reachable as
// `recv.name(args)` instead of a user-defined method call, dispatched to
// the array_T_*/dict_* runtime families.
var arrayMethods = map[string]bool{"append": true, "insert": true, "pop": true, "remove": true}
var dictMethods = map[string]bool{"set": true, "get": true, "delete": true, "has_key": true}

func (a *Analyzer) bindMethodCall(c *ast.Call) ast.Type {
	objType := a.typeOfExpr(c.Object)
	if objType.Kind == ast.TArray && arrayMethods[c.Name] {
		return a.bindArrayMethod(c, objType)
	}
	if objType.Kind == ast.TDict && dictMethods[c.Name] {
		return a.bindDictMethod(c)
	}
	if objType.Kind != ast.TClass {
		if objType.Kind != ast.TInvalid && objType.Kind != ast.TDynamic {
			a.errorf(c.Position, "cannot call method %q on non-class type %s", c.Name, objType)
		}
		// a dynamic receiver is tolerated; its arguments still get checked.
		for _, arg := range c.Args {
			a.typeOfExpr(arg.Value)
		}
		return ast.Invalid
	}
	cls, ok := a.classes[objType.Name]
	if !ok {
		a.errorf(c.Position, "unknown class %q", objType.Name)
		return ast.Invalid
	}
	owner, hops, method := lookupMethod(cls, c.Name)
	if method == nil {
		a.errorf(c.Position, "%s has no method %q", objType.Name, c.Name)
		return ast.Invalid
	}
	c.Callee = method
	c.OwnerClass = owner
	c.ParentHops = hops
	a.orderArgs(c, paramList(method.Params))
	return method.ReturnType
}

// bindArrayMethod type-checks append/insert/pop/remove against c.Object's
// resolved element type and records it on the call node as ContainerElem so
// the generator can dispatch to the matching array_T_* runtime function.
func (a *Analyzer) bindArrayMethod(c *ast.Call, arrType ast.Type) ast.Type {
	c.ContainerOp = c.Name
	if arrType.Elem != nil {
		c.ContainerElem = *arrType.Elem
	} else {
		c.ContainerElem = ast.Dynamic
	}

	for _, arg := range c.Args {
		a.typeOfExpr(arg.Value)
		c.OrderedArgs = append(c.OrderedArgs, arg.Value)
	}

	switch c.Name {
	case "append":
		if len(c.Args) != 1 {
			a.errorf(c.Position, "%q takes 1 argument, got %d", c.Name, len(c.Args))
		}
		return ast.Void
	case "insert":
		if len(c.Args) != 2 {
			a.errorf(c.Position, "%q takes 2 arguments, got %d", c.Name, len(c.Args))
		}
		return ast.Void
	case "remove":
		if len(c.Args) != 1 {
			a.errorf(c.Position, "%q takes 1 argument, got %d", c.Name, len(c.Args))
		}
		return ast.Void
	case "pop":
		if len(c.Args) != 0 {
			a.errorf(c.Position, "%q takes no arguments, got %d", c.Name, len(c.Args))
		}
		if arrType.Elem != nil {
			return *arrType.Elem
		}
		return ast.Dynamic
	default:
		return ast.Invalid
	}
}

// bindDictMethod type-checks set/get/delete/has_key against a dictionary
// receiver; every value that crosses a dictionary boundary is a tagged
// dynamic value, so no element-type bookkeeping is needed here.
func (a *Analyzer) bindDictMethod(c *ast.Call) ast.Type {
	c.ContainerOp = c.Name
	for _, arg := range c.Args {
		a.typeOfExpr(arg.Value)
		c.OrderedArgs = append(c.OrderedArgs, arg.Value)
	}

	switch c.Name {
	case "set":
		if len(c.Args) != 2 {
			a.errorf(c.Position, "%q takes 2 arguments, got %d", c.Name, len(c.Args))
		}
		return ast.Void
	case "delete":
		if len(c.Args) != 1 {
			a.errorf(c.Position, "%q takes 1 argument, got %d", c.Name, len(c.Args))
		}
		return ast.Void
	case "get":
		if len(c.Args) != 1 {
			a.errorf(c.Position, "%q takes 1 argument, got %d", c.Name, len(c.Args))
		}
		return ast.Dynamic
	case "has_key":
		if len(c.Args) != 1 {
			a.errorf(c.Position, "%q takes 1 argument, got %d", c.Name, len(c.Args))
		}
		return ast.Bool
	default:
		return ast.Invalid
	}
}

func (a *Analyzer) bindConstructorCall(c *ast.Call) ast.Type {
	cls, ok := a.classes[c.Name]
	if !ok {
		a.errorf(c.Position, "'new' used with undeclared class %q", c.Name)
		return ast.Invalid
	}
	owner, hops, ctor := lookupMethod(cls, "dhis")
	c.OwnerClass = owner
	c.ParentHops = hops
	if ctor != nil {
		c.Callee = ctor
		a.orderArgs(c, paramList(ctor.Params))
	} else if len(c.Args) > 0 {
		a.errorf(c.Position, "class %q has no constructor but %d arguments were given", c.Name, len(c.Args))
	}
	return ast.ClassType(c.Name)
}

func (a *Analyzer) bindBuiltinCall(c *ast.Call, sig builtinSig) ast.Type {
	if len(c.Args) != len(sig.Params) {
		a.errorf(c.Position, "%q takes %d argument(s), got %d", c.Name, len(sig.Params), len(c.Args))
	}
	for i, arg := range c.Args {
		argType := a.typeOfExpr(arg.Value)
		if i < len(sig.Params) && !argType.CompatibleWith(sig.Params[i]) {
			a.errorf(arg.Value.Pos(), "argument %d of %q must be %s, not %s", i+1, c.Name, sig.Params[i], argType)
		}
		c.OrderedArgs = append(c.OrderedArgs, arg.Value)
	}
	return sig.Return
}

type paramInfo struct {
	Name    string
	Type    ast.Type
	Default ast.Expr
}

func paramList(params []*ast.Param) []paramInfo {
	out := make([]paramInfo, len(params))
	for i, p := range params {
		out[i] = paramInfo{Name: p.Name, Type: p.Type, Default: p.Default}
	}
	return out
}

// orderArgs binds c.Args (positional then named, in source order) against
// params and writes the result — one expression per parameter, in
// declaration order, defaults substituted in for anything the caller left
// out — to c.OrderedArgs.
func (a *Analyzer) orderArgs(c *ast.Call, params []paramInfo) {
	bound := make([]ast.Expr, len(params))
	set := make([]bool, len(params))

	positionalCount := 0
	for _, arg := range c.Args {
		if arg.Name == "" {
			positionalCount++
		}
	}
	if positionalCount > len(params) {
		a.errorf(c.Position, "%q takes at most %d argument(s), got %d positional", c.Name, len(params), positionalCount)
	}

	pos := 0
	for _, arg := range c.Args {
		argType := a.typeOfExpr(arg.Value)
		if arg.Name == "" {
			if pos >= len(params) {
				pos++
				continue
			}
			if !argType.CompatibleWith(params[pos].Type) {
				a.errorf(arg.Value.Pos(), "argument %d of %q must be %s, not %s", pos+1, c.Name, params[pos].Type, argType)
			}
			bound[pos] = arg.Value
			set[pos] = true
			pos++
			continue
		}
		idx := indexOfParam(params, arg.Name)
		if idx < 0 {
			a.errorf(arg.Value.Pos(), "%q has no parameter named %q", c.Name, arg.Name)
			continue
		}
		if set[idx] {
			a.errorf(arg.Value.Pos(), "parameter %q of %q already bound", arg.Name, c.Name)
			continue
		}
		if !argType.CompatibleWith(params[idx].Type) {
			a.errorf(arg.Value.Pos(), "argument %q of %q must be %s, not %s", arg.Name, c.Name, params[idx].Type, argType)
		}
		bound[idx] = arg.Value
		set[idx] = true
	}

	for i, p := range params {
		if set[i] {
			continue
		}
		if p.Default != nil {
			bound[i] = p.Default
			continue
		}
		a.errorf(c.Position, "missing required argument %q in call to %q", p.Name, c.Name)
	}
	c.OrderedArgs = bound
}

func indexOfParam(params []paramInfo, name string) int {
	for i, p := range params {
		if p.Name == name {
			return i
		}
	}
	return -1
}
