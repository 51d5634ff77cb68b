// Package parser implements a recursive-descent, precedence-climbing parser
// for the tusmo source language, producing the typed AST defined by package
// ast. It renders the language's LALR-style grammar the way a Go
// compiler idiomatically would: explicit precedence levels expressed as a
// chain of parse functions rather than a generated parse table.
package parser

import (
	"fmt"

	"github.com/tusmolang/tusmoc/internal/ast"
	"github.com/tusmolang/tusmoc/internal/token"
)

// Error is a syntax error: a single diagnostic naming the offending token's
// file, line, and lexeme.
type Error struct {
	Filename string
	Line     int
	Message  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.Filename, e.Line, e.Message)
}

// Parser consumes a flat token slice (normally produced by internal/lexer)
// and builds an ast.File. A Parser value holds no state beyond the slice
// being parsed, so a fresh one is cheap to construct per call — including
// the many small re-parses the f-string resolver performs on expression
// snippets.
type Parser struct {
	toks []token.Token
	pos  int
}

// New creates a Parser over toks. toks must be terminated by a token.EOF,
// which is what internal/lexer.Lexer.All produces.
func New(toks []token.Token) *Parser {
	return &Parser{toks: toks}
}

// Parse parses a complete translation unit: a sequence of imports,
// declarations, and statements up to end of file.
func Parse(toks []token.Token) (*ast.File, error) {
	p := New(toks)
	return p.parseFile()
}

// ParseExpr parses a single expression followed by an implicit terminator,
// used by the f-string resolver to re-parse an embedded `{expr}` snippet.
func ParseExpr(toks []token.Token) (ast.Expr, error) {
	p := New(toks)
	e, err := p.expr()
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (p *Parser) cur() token.Token {
	if p.pos >= len(p.toks) {
		return token.Token{Kind: token.EOF}
	}
	return p.toks[p.pos]
}

func (p *Parser) at(k token.Kind) bool {
	return p.cur().Kind == k
}

func (p *Parser) atAny(ks ...token.Kind) bool {
	c := p.cur().Kind
	for _, k := range ks {
		if c == k {
			return true
		}
	}
	return false
}

func (p *Parser) advance() token.Token {
	t := p.cur()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *Parser) peekAt(off int) token.Token {
	idx := p.pos + off
	if idx >= len(p.toks) {
		return token.Token{Kind: token.EOF}
	}
	return p.toks[idx]
}

func (p *Parser) errAt(t token.Token, format string, a ...interface{}) error {
	return &Error{Filename: t.Filename, Line: t.Line, Message: fmt.Sprintf(format, a...)}
}

func (p *Parser) expect(k token.Kind) (token.Token, error) {
	if !p.at(k) {
		t := p.cur()
		return t, p.errAt(t, "expected %s but found %s %q", k, t.Kind, t.Value)
	}
	return p.advance(), nil
}

func (p *Parser) pos0() ast.Position {
	t := p.cur()
	return ast.Position{Filename: t.Filename, Line: t.Line}
}

// ---- top level --------------------------------------------------------------

func (p *Parser) parseFile() (*ast.File, error) {
	f := &ast.File{}
	for !p.at(token.EOF) {
		n, err := p.topLevelItem()
		if err != nil {
			return nil, err
		}
		f.Nodes = append(f.Nodes, n)
	}
	return f, nil
}

func (p *Parser) topLevelItem() (ast.Node, error) {
	switch p.cur().Kind {
	case token.KwInclude:
		return p.importStmt()
	case token.KwFn:
		return p.funcDecl()
	case token.KwClass:
		return p.classDecl()
	default:
		return p.statement()
	}
}

func (p *Parser) importStmt() (ast.Node, error) {
	pos := p.pos0()
	p.advance() // include
	strTok, err := p.expect(token.StringLit)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Semicolon); err != nil {
		return nil, err
	}
	return &ast.ImportStmt{Position: pos, Module: strTok.Value}, nil
}

// ---- types --------------------------------------------------------------

func (p *Parser) parseType() (ast.Type, error) {
	switch p.cur().Kind {
	case token.KwInt:
		p.advance()
		return ast.Int, nil
	case token.KwFloat:
		p.advance()
		return ast.Float, nil
	case token.KwString:
		p.advance()
		return ast.String, nil
	case token.KwChar:
		p.advance()
		return ast.Char, nil
	case token.KwBool:
		p.advance()
		return ast.Bool, nil
	case token.KwVoid:
		p.advance()
		return ast.Void, nil
	case token.KwDict:
		p.advance()
		return ast.Dict, nil
	case token.KwArray:
		p.advance()
		if p.at(token.Colon) {
			p.advance()
			elem, err := p.parseType()
			if err != nil {
				return ast.Invalid, err
			}
			return ast.ArrayOf(&elem), nil
		}
		return ast.ArrayOf(nil), nil
	case token.KwFn:
		p.advance()
		if _, err := p.expect(token.LParen); err != nil {
			return ast.Invalid, err
		}
		var params []ast.Type
		for !p.at(token.RParen) {
			t, err := p.parseType()
			if err != nil {
				return ast.Invalid, err
			}
			params = append(params, t)
			if p.at(token.Comma) {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expect(token.RParen); err != nil {
			return ast.Invalid, err
		}
		ret := ast.Void
		if p.at(token.Colon) || p.at(token.Arrow) {
			p.advance()
			r, err := p.parseType()
			if err != nil {
				return ast.Invalid, err
			}
			ret = r
		}
		return ast.FuncType(params, ret), nil
	case token.Ident:
		name := p.advance().Value
		return ast.ClassType(name), nil
	default:
		t := p.cur()
		return ast.Invalid, p.errAt(t, "expected a type but found %s %q", t.Kind, t.Value)
	}
}

// ---- declarations -------------------------------------------------------

// varDeclBody parses the common `: T name [= expr]` tail shared by top-level
// `let` declarations and class member declarations.
func (p *Parser) varDeclBody(pos ast.Position) (*ast.VarDecl, error) {
	if !p.atAny(typeColonOrArrow()...) {
		t := p.cur()
		return nil, p.errAt(t, "expected %s but found %s %q", token.Colon, t.Kind, t.Value)
	}
	p.advance()
	typ, err := p.parseType()
	if err != nil {
		return nil, err
	}
	nameTok, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	decl := &ast.VarDecl{Position: pos, Name: nameTok.Value, Type: typ}
	if p.at(token.Assign) {
		p.advance()
		init, err := p.expr()
		if err != nil {
			return nil, err
		}
		decl.Init = init
	}
	return decl, nil
}

func (p *Parser) varDeclStmt() (ast.Stmt, error) {
	pos := p.pos0()
	p.advance() // let
	decl, err := p.varDeclBody(pos)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Semicolon); err != nil {
		return nil, err
	}
	return decl, nil
}

func typeColonOrArrow() []token.Kind { return []token.Kind{token.Colon, token.Arrow} }

func (p *Parser) param() (*ast.Param, error) {
	pos := p.pos0()
	nameTok, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	if !p.atAny(typeColonOrArrow()...) {
		t := p.cur()
		return nil, p.errAt(t, "expected %s but found %s %q", token.Colon, t.Kind, t.Value)
	}
	p.advance()
	typ, err := p.parseType()
	if err != nil {
		return nil, err
	}
	prm := &ast.Param{Position: pos, Name: nameTok.Value, Type: typ}
	if p.at(token.Assign) {
		p.advance()
		def, err := p.expr()
		if err != nil {
			return nil, err
		}
		prm.Default = def
	}
	return prm, nil
}

func (p *Parser) funcDecl() (*ast.FuncDecl, error) {
	pos := p.pos0()
	p.advance() // fn
	nameTok, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	var params []*ast.Param
	for !p.at(token.RParen) {
		prm, err := p.param()
		if err != nil {
			return nil, err
		}
		params = append(params, prm)
		if p.at(token.Comma) {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	ret := ast.Void
	if p.atAny(typeColonOrArrow()...) {
		p.advance()
		r, err := p.parseType()
		if err != nil {
			return nil, err
		}
		ret = r
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	return &ast.FuncDecl{Position: pos, Name: nameTok.Value, Params: params, ReturnType: ret, Body: body}, nil
}

func (p *Parser) classDecl() (*ast.ClassDecl, error) {
	pos := p.pos0()
	p.advance() // class
	nameTok, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	cls := &ast.ClassDecl{Position: pos, Name: nameTok.Value}
	if p.at(token.KwInherits) {
		p.advance()
		parentTok, err := p.expect(token.Ident)
		if err != nil {
			return nil, err
		}
		cls.ParentName = parentTok.Value
	}
	if _, err := p.expect(token.LBrace); err != nil {
		return nil, err
	}
	for !p.at(token.RBrace) {
		switch {
		case p.at(token.StringLit) && len(cls.Members) == 0 && len(cls.Methods) == 0 && cls.Docstring == "":
			// A class body has no statement list to scan the way a function
			// body does, so the leading docstring is captured here instead
			// of by internal/normalize's docstring pass. Function
			// docstrings still go through that pass.
			tok := p.advance()
			if _, err := p.expect(token.Semicolon); err != nil {
				return nil, err
			}
			cls.Docstring = tok.Value
		case p.at(token.KwLet):
			p.advance()
			member, err := p.varDeclBody(p.pos0())
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.Semicolon); err != nil {
				return nil, err
			}
			cls.Members = append(cls.Members, member)
		case p.at(token.KwFn):
			method, err := p.funcDecl()
			if err != nil {
				return nil, err
			}
			method.IsMethod = true
			cls.Methods = append(cls.Methods, method)
		default:
			t := p.cur()
			return nil, p.errAt(t, "expected class member or method but found %s %q", t.Kind, t.Value)
		}
	}
	if _, err := p.expect(token.RBrace); err != nil {
		return nil, err
	}
	return cls, nil
}

// ---- statements & blocks --------------------------------------------------

func (p *Parser) block() ([]ast.Stmt, error) {
	if _, err := p.expect(token.LBrace); err != nil {
		return nil, err
	}
	var stmts []ast.Stmt
	for !p.at(token.RBrace) {
		s, err := p.statement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	if _, err := p.expect(token.RBrace); err != nil {
		return nil, err
	}
	return stmts, nil
}

func (p *Parser) statement() (ast.Stmt, error) {
	switch p.cur().Kind {
	case token.KwLet:
		return p.varDeclStmt()
	case token.KwIf:
		return p.ifStmt()
	case token.KwWhile:
		return p.whileStmt()
	case token.KwDo:
		return p.doWhileStmt()
	case token.KwFor:
		return p.forStmt()
	case token.KwBreak:
		pos := p.pos0()
		p.advance()
		if _, err := p.expect(token.Semicolon); err != nil {
			return nil, err
		}
		return &ast.BreakStmt{Position: pos}, nil
	case token.KwContinue:
		pos := p.pos0()
		p.advance()
		if _, err := p.expect(token.Semicolon); err != nil {
			return nil, err
		}
		return &ast.ContinueStmt{Position: pos}, nil
	case token.KwReturn:
		return p.returnStmt()
	case token.KwPrint:
		return p.printStmt()
	case token.KwHel:
		return p.readStmt()
	case token.KwCCode:
		return p.embeddedCStmt()
	default:
		return p.exprOrAssignStmt()
	}
}

func (p *Parser) ifStmt() (ast.Stmt, error) {
	pos := p.pos0()
	p.advance() // if
	cond, body, err := p.parenCondAndBlock()
	if err != nil {
		return nil, err
	}
	stmt := &ast.IfStmt{Position: pos, Cases: []ast.IfCase{{Cond: cond, Body: body}}}
	for p.at(token.KwElseIf) {
		p.advance()
		c, b, err := p.parenCondAndBlock()
		if err != nil {
			return nil, err
		}
		stmt.Cases = append(stmt.Cases, ast.IfCase{Cond: c, Body: b})
	}
	if p.at(token.KwElse) {
		p.advance()
		b, err := p.block()
		if err != nil {
			return nil, err
		}
		stmt.Else = b
	}
	return stmt, nil
}

func (p *Parser) parenCondAndBlock() (ast.Expr, []ast.Stmt, error) {
	if _, err := p.expect(token.LParen); err != nil {
		return nil, nil, err
	}
	cond, err := p.expr()
	if err != nil {
		return nil, nil, err
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, nil, err
	}
	return cond, body, nil
}

func (p *Parser) whileStmt() (ast.Stmt, error) {
	pos := p.pos0()
	p.advance() // while
	cond, body, err := p.parenCondAndBlock()
	if err != nil {
		return nil, err
	}
	return &ast.WhileStmt{Position: pos, Cond: cond, Body: body}, nil
}

func (p *Parser) doWhileStmt() (ast.Stmt, error) {
	pos := p.pos0()
	p.advance() // do
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.KwWhile); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	cond, err := p.expr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Semicolon); err != nil {
		return nil, err
	}
	return &ast.DoWhileStmt{Position: pos, Body: body, Cond: cond}, nil
}

func (p *Parser) forStmt() (ast.Stmt, error) {
	pos := p.pos0()
	p.advance() // for
	nameTok, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	if p.at(token.KwEach) {
		p.advance()
		if _, err := p.expect(token.KwFrom); err != nil {
			return nil, err
		}
		arr, err := p.expr()
		if err != nil {
			return nil, err
		}
		body, err := p.block()
		if err != nil {
			return nil, err
		}
		return &ast.ForEachStmt{Position: pos, Var: nameTok.Value, Array: arr, Body: body}, nil
	}
	if _, err := p.expect(token.KwFrom); err != nil {
		return nil, err
	}
	start, err := p.expr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.DotDot); err != nil {
		return nil, err
	}
	end, err := p.expr()
	if err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	return &ast.ForRangeStmt{Position: pos, Var: nameTok.Value, Start: start, End: end, Body: body}, nil
}

func (p *Parser) returnStmt() (ast.Stmt, error) {
	pos := p.pos0()
	p.advance() // return
	if p.at(token.Semicolon) {
		p.advance()
		return &ast.ReturnStmt{Position: pos}, nil
	}
	e, err := p.expr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Semicolon); err != nil {
		return nil, err
	}
	return &ast.ReturnStmt{Position: pos, Value: e}, nil
}

func (p *Parser) printStmt() (ast.Stmt, error) {
	pos := p.pos0()
	p.advance() // print
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	var args []ast.Expr
	for !p.at(token.RParen) {
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		args = append(args, e)
		if p.at(token.Comma) {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Semicolon); err != nil {
		return nil, err
	}
	return &ast.PrintStmt{Position: pos, Args: args}, nil
}

func (p *Parser) readStmt() (ast.Stmt, error) {
	pos := p.pos0()
	p.advance() // hel
	nameTok, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Semicolon); err != nil {
		return nil, err
	}
	return &ast.ReadStmt{Position: pos, Name: nameTok.Value}, nil
}

func (p *Parser) embeddedCStmt() (ast.Stmt, error) {
	pos := p.pos0()
	p.advance() // __C_CODE__
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	codeTok, err := p.expect(token.StringLit)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Semicolon); err != nil {
		return nil, err
	}
	return &ast.EmbeddedCStmt{Position: pos, Code: codeTok.Value}, nil
}

// exprOrAssignStmt parses the statement forms that begin with an expression:
// plain assignment, compound assignment, or a bare expression statement (a
// free-standing call, typically a method call like `xs.append(4);`).
func (p *Parser) exprOrAssignStmt() (ast.Stmt, error) {
	pos := p.pos0()
	lhs, err := p.expr()
	if err != nil {
		return nil, err
	}
	switch p.cur().Kind {
	case token.Assign:
		p.advance()
		rhs, err := p.expr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Semicolon); err != nil {
			return nil, err
		}
		return &ast.Assignment{Position: pos, Target: lhs, Value: rhs}, nil
	case token.PlusAssign, token.MinusAssign:
		op := p.advance().Value
		rhs, err := p.expr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Semicolon); err != nil {
			return nil, err
		}
		return &ast.CompoundAssignment{Position: pos, Op: op, Target: lhs, Value: rhs}, nil
	default:
		if _, err := p.expect(token.Semicolon); err != nil {
			return nil, err
		}
		return &ast.ExprStmt{Position: pos, X: lhs}, nil
	}
}

// ---- expressions: precedence climbing --------------------------------------
//
// weakest to strongest: || , && , equality , relational , additive ,
// multiplicative/modulo , unary , member-access , new , ternary ,
// parens/indexing/call.

func (p *Parser) expr() (ast.Expr, error) {
	return p.ternary()
}

func (p *Parser) ternary() (ast.Expr, error) {
	cond, err := p.orExpr()
	if err != nil {
		return nil, err
	}
	if p.at(token.Question) {
		pos := p.pos0()
		p.advance()
		t, err := p.expr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Colon); err != nil {
			return nil, err
		}
		f, err := p.expr()
		if err != nil {
			return nil, err
		}
		return &ast.Ternary{Position: pos, Cond: cond, True: t, False: f}, nil
	}
	return cond, nil
}

func (p *Parser) orExpr() (ast.Expr, error) {
	left, err := p.andExpr()
	if err != nil {
		return nil, err
	}
	for p.at(token.OrOr) {
		pos := p.pos0()
		p.advance()
		right, err := p.andExpr()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Position: pos, Op: "||", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) andExpr() (ast.Expr, error) {
	left, err := p.equality()
	if err != nil {
		return nil, err
	}
	for p.at(token.AndAnd) {
		pos := p.pos0()
		p.advance()
		right, err := p.equality()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Position: pos, Op: "&&", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) equality() (ast.Expr, error) {
	left, err := p.relational()
	if err != nil {
		return nil, err
	}
	for p.atAny(token.Eq, token.Ne) {
		pos := p.pos0()
		op := p.advance().Value
		right, err := p.relational()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Position: pos, Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) relational() (ast.Expr, error) {
	left, err := p.additive()
	if err != nil {
		return nil, err
	}
	for p.atAny(token.Lt, token.Le, token.Gt, token.Ge) {
		pos := p.pos0()
		op := p.advance().Value
		right, err := p.additive()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Position: pos, Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) additive() (ast.Expr, error) {
	left, err := p.multiplicative()
	if err != nil {
		return nil, err
	}
	for p.atAny(token.Plus, token.Minus) {
		pos := p.pos0()
		op := p.advance().Value
		right, err := p.multiplicative()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Position: pos, Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) multiplicative() (ast.Expr, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.atAny(token.Star, token.Slash, token.Percent) {
		pos := p.pos0()
		op := p.advance().Value
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Position: pos, Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) unary() (ast.Expr, error) {
	if p.atAny(token.Bang, token.Minus) {
		pos := p.pos0()
		op := p.advance().Value
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryOp{Position: pos, Op: op, Operand: operand}, nil
	}
	return p.newExpr()
}

// newExpr handles the postfix `new` keyword that turns a call expression
// into a constructor invocation.
func (p *Parser) newExpr() (ast.Expr, error) {
	e, err := p.postfix()
	if err != nil {
		return nil, err
	}
	if p.at(token.KwNew) {
		call, ok := e.(*ast.Call)
		if !ok || call.Kind != ast.CallFunction {
			t := p.cur()
			return nil, p.errAt(t, "'new' may only follow a constructor-style call expression")
		}
		p.advance()
		call.Kind = ast.CallConstructor
		return call, nil
	}
	return e, nil
}

// postfix parses a primary expression followed by any chain of member
// access, array/dict indexing, and call suffixes.
func (p *Parser) postfix() (ast.Expr, error) {
	e, err := p.primary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.cur().Kind {
		case token.Dot:
			pos := p.pos0()
			p.advance()
			nameTok, err := p.expect(token.Ident)
			if err != nil {
				return nil, err
			}
			if p.at(token.LParen) {
				args, err := p.argList()
				if err != nil {
					return nil, err
				}
				e = &ast.Call{Position: pos, Kind: ast.CallMethod, Name: nameTok.Value, Object: e, Args: args}
			} else {
				e = &ast.MemberAccess{Position: pos, Object: e, Member: nameTok.Value}
			}
		case token.LBracket:
			pos := p.pos0()
			p.advance()
			idx, err := p.expr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.RBracket); err != nil {
				return nil, err
			}
			e = &ast.ArrayIndex{Position: pos, Array: e, Index: idx}
		default:
			return e, nil
		}
	}
}

func (p *Parser) argList() ([]ast.Arg, error) {
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	var args []ast.Arg
	seenNamed := false
	for !p.at(token.RParen) {
		if p.at(token.Ident) && p.peekAt(1).Kind == token.Assign {
			nameTok := p.advance()
			p.advance() // =
			v, err := p.expr()
			if err != nil {
				return nil, err
			}
			args = append(args, ast.Arg{Name: nameTok.Value, Value: v})
			seenNamed = true
		} else {
			if seenNamed {
				t := p.cur()
				return nil, p.errAt(t, "positional argument cannot follow a named argument")
			}
			v, err := p.expr()
			if err != nil {
				return nil, err
			}
			args = append(args, ast.Arg{Value: v})
		}
		if p.at(token.Comma) {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *Parser) primary() (ast.Expr, error) {
	t := p.cur()
	switch t.Kind {
	case token.IntLit:
		p.advance()
		return &ast.IntLit{Position: ast.Position{Filename: t.Filename, Line: t.Line}, Value: parseInt(t.Value)}, nil
	case token.FloatLit:
		p.advance()
		return &ast.FloatLit{Position: ast.Position{Filename: t.Filename, Line: t.Line}, Value: parseFloat(t.Value)}, nil
	case token.StringLit:
		p.advance()
		return &ast.StringLit{Position: ast.Position{Filename: t.Filename, Line: t.Line}, Value: t.Value}, nil
	case token.CharLit:
		p.advance()
		r := rune(0)
		for _, c := range t.Value {
			r = c
			break
		}
		return &ast.CharLit{Position: ast.Position{Filename: t.Filename, Line: t.Line}, Value: r}, nil
	case token.FStringLit:
		p.advance()
		return &ast.FStringLit{Position: ast.Position{Filename: t.Filename, Line: t.Line}, Parts: splitFStringParts(t.Value)}, nil
	case token.KwTrue:
		p.advance()
		return &ast.BoolLit{Position: ast.Position{Filename: t.Filename, Line: t.Line}, Value: true}, nil
	case token.KwFalse:
		p.advance()
		return &ast.BoolLit{Position: ast.Position{Filename: t.Filename, Line: t.Line}, Value: false}, nil
	case token.KwInt, token.KwFloat, token.KwString, token.KwBool, token.KwChar, token.KwVoid, token.KwDict, token.KwArray:
		// either a type literal value (`x == tiro`) or a cast call
		// (`tiro(x)`): decide by whether '(' follows.
		if p.peekAt(1).Kind == token.LParen {
			name := p.advance().Value
			args, err := p.argList()
			if err != nil {
				return nil, err
			}
			return &ast.Call{Position: ast.Position{Filename: t.Filename, Line: t.Line}, Kind: ast.CallFunction, Name: name, Args: args}, nil
		}
		p.advance()
		return &ast.TypeLiteral{Position: ast.Position{Filename: t.Filename, Line: t.Line}, Name: t.Value}, nil
	case token.LBracket:
		return p.arrayLit()
	case token.LParen:
		p.advance()
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RParen); err != nil {
			return nil, err
		}
		return e, nil
	case token.KwCCall:
		return p.embeddedCCall()
	case token.Ident:
		return p.identOrCall()
	default:
		return nil, p.errAt(t, "unexpected token %s %q in expression", t.Kind, t.Value)
	}
}

func (p *Parser) arrayLit() (ast.Expr, error) {
	pos := p.pos0()
	p.advance() // [
	var elems []ast.Expr
	for !p.at(token.RBracket) {
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
		if p.at(token.Comma) {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(token.RBracket); err != nil {
		return nil, err
	}
	return &ast.ArrayLit{Position: pos, Elements: elems}, nil
}

func (p *Parser) embeddedCCall() (ast.Expr, error) {
	pos := p.pos0()
	p.advance() // __C_CALL__
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	nameTok, err := p.expect(token.StringLit)
	if err != nil {
		return nil, err
	}
	var args []ast.Expr
	for p.at(token.Comma) {
		p.advance()
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		args = append(args, e)
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	return &ast.EmbeddedCCall{Position: pos, FuncName: nameTok.Value, Args: args}, nil
}

func (p *Parser) identOrCall() (ast.Expr, error) {
	t := p.advance()
	pos := ast.Position{Filename: t.Filename, Line: t.Line}

	if t.Value == "kan" {
		return &ast.SelfExpr{Position: pos}, nil
	}
	if t.Value == "parent" {
		return &ast.ParentExpr{Position: pos}, nil
	}

	if !p.at(token.LParen) {
		return &ast.Ident{Position: pos, Name: t.Value}, nil
	}

	switch t.Value {
	case "dherer":
		args, err := p.argList()
		if err != nil {
			return nil, err
		}
		if len(args) != 1 {
			return nil, p.errAt(t, "'dherer' takes exactly one argument")
		}
		return &ast.LengthQuery{Position: pos, Arg: args[0].Value}, nil
	case "nooc":
		if p.peekAt(1).Kind == token.Ident && p.peekAt(2).Kind == token.LBracket && p.peekAt(3).Kind == token.RBracket && p.peekAt(4).Kind == token.RParen {
			p.advance() // (
			arrTok := p.advance()
			p.advance() // [
			p.advance() // ]
			p.advance() // )
			return &ast.ArrayElemTypeQuery{Position: pos, Array: &ast.Ident{Position: pos, Name: arrTok.Value}}, nil
		}
		args, err := p.argList()
		if err != nil {
			return nil, err
		}
		if len(args) != 1 {
			return nil, p.errAt(t, "'nooc' takes exactly one argument")
		}
		return &ast.TypeQuery{Position: pos, Arg: args[0].Value}, nil
	default:
		args, err := p.argList()
		if err != nil {
			return nil, err
		}
		return &ast.Call{Position: pos, Kind: ast.CallFunction, Name: t.Value, Args: args}, nil
	}
}
