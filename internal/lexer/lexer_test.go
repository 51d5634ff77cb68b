package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tusmolang/tusmoc/internal/token"
)

func kinds(toks []token.Token) []token.Kind {
	ks := make([]token.Kind, len(toks))
	for i, t := range toks {
		ks[i] = t.Kind
	}
	return ks
}

func Test_All_tokenKindSequence(t *testing.T) {
	testCases := []struct {
		name   string
		input  string
		expect []token.Kind
	}{
		{name: "empty", input: "", expect: []token.Kind{token.EOF}},
		{name: "int literal", input: "42", expect: []token.Kind{token.IntLit, token.EOF}},
		{name: "float literal", input: "3.14", expect: []token.Kind{token.FloatLit, token.EOF}},
		{name: "float with exponent", input: "1e10", expect: []token.Kind{token.FloatLit, token.EOF}},
		{name: "let declaration", input: "let x = 5;", expect: []token.Kind{
			token.KwLet, token.Ident, token.Assign, token.IntLit, token.Semicolon, token.EOF,
		}},
		{name: "primitive type keywords", input: "tiro jajab eray xaraf miyaa waxbo qaamuus", expect: []token.Kind{
			token.KwInt, token.KwFloat, token.KwString, token.KwChar, token.KwBool, token.KwVoid, token.KwDict, token.EOF,
		}},
		{name: "else-if is one token", input: "else-if", expect: []token.Kind{token.KwElseIf, token.EOF}},
		{name: "else-ifier is not else-if", input: "else-ifier", expect: []token.Kind{
			token.KwElse, token.Minus, token.Ident, token.EOF,
		}},
		{name: "string literal", input: `"hello"`, expect: []token.Kind{token.StringLit, token.EOF}},
		{name: "char literal", input: `'a'`, expect: []token.Kind{token.CharLit, token.EOF}},
		{name: "fstring literal", input: `$"hi {name}"`, expect: []token.Kind{token.FStringLit, token.EOF}},
		{name: "line comment is skipped", input: "1 // a comment\n2", expect: []token.Kind{
			token.IntLit, token.IntLit, token.EOF,
		}},
		{name: "two-char operators prefer longest match", input: "== != <= >= && || += -= ..",
			expect: []token.Kind{
				token.Eq, token.Ne, token.Le, token.Ge, token.AndAnd, token.OrOr,
				token.PlusAssign, token.MinusAssign, token.DotDot, token.EOF,
			}},
		{name: "bool synonyms", input: "run haa been maya", expect: []token.Kind{
			token.KwTrue, token.KwTrue, token.KwFalse, token.KwFalse, token.EOF,
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			lx := New("test.tus", tc.input)
			toks := lx.All()
			assert.Equal(t, tc.expect, kinds(toks))
		})
	}
}

func Test_All_unterminatedStringRecordsDiagnostic(t *testing.T) {
	lx := New("test.tus", `"unterminated`)
	lx.All()
	assert.NotEmpty(t, lx.Diagnostics)
}

func Test_All_unrecognisedCharacterRecordsDiagnosticAndContinues(t *testing.T) {
	lx := New("test.tus", "1 ` 2")
	toks := lx.All()
	assert.Len(t, lx.Diagnostics, 1)
	assert.Equal(t, []token.Kind{token.IntLit, token.IntLit, token.EOF}, kinds(toks))
}

func Test_All_stringEscapes(t *testing.T) {
	lx := New("test.tus", `"a\nb\"c"`)
	toks := lx.All()
	assert.Empty(t, lx.Diagnostics)
	assert.Equal(t, "a\nb\"c", toks[0].Value)
}

func Test_All_tripleQuotedStringPreservesNewlines(t *testing.T) {
	lx := New("test.tus", "\"\"\"line1\nline2\"\"\"")
	toks := lx.All()
	assert.Empty(t, lx.Diagnostics)
	assert.Equal(t, "line1\nline2", toks[0].Value)
}

func Test_All_fstringRetainsUnresolvedExprSegment(t *testing.T) {
	lx := New("test.tus", `$"total: {1 + 2}"`)
	toks := lx.All()
	assert.Empty(t, lx.Diagnostics)
	assert.Equal(t, "total: {1 + 2}", toks[0].Value)
}

func Test_All_lineNumbersAdvanceAcrossNewlines(t *testing.T) {
	lx := New("test.tus", "let a = 1;\nlet b = 2;")
	toks := lx.All()
	assert.Equal(t, 1, toks[0].Line)
	// "let" on the second source line
	var secondLet token.Token
	seen := 0
	for _, tok := range toks {
		if tok.Kind == token.KwLet {
			seen++
			if seen == 2 {
				secondLet = tok
			}
		}
	}
	assert.Equal(t, 2, secondLet.Line)
}
