// Package lexer tokenises tusmo source buffers into the token stream the
// parser consumes. It is a hand-rolled scanner rather than a generated one;
// see DESIGN.md for why the generated-lexer route was not taken for this
// particular component.
package lexer

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/tusmolang/tusmoc/internal/token"
)

// Diagnostic is a non-fatal lexical complaint. The lexer never aborts on an
// unrecognised character; it records a Diagnostic and skips one code unit,
// so one bad character never takes down the rest of the scan.
type Diagnostic struct {
	Filename string
	Line     int
	Message  string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%d: %s", d.Filename, d.Line, d.Message)
}

// Lexer scans a single source buffer. A fresh Lexer should be constructed per
// compilation unit; it keeps no package-level state, so concurrent
// compilations never interfere with one another.
type Lexer struct {
	filename string
	src      []rune
	pos      int
	line     int

	Diagnostics []Diagnostic
}

// New creates a Lexer over src, attributed to filename in all emitted tokens
// and diagnostics. The source is normalised to Unicode NFC form first so that
// combining-character sequences compare and count consistently regardless of
// how an editor produced them.
func New(filename, src string) *Lexer {
	normalized := norm.NFC.String(src)
	return &Lexer{
		filename: filename,
		src:      []rune(normalized),
		line:     1,
	}
}

// All scans the entire buffer and returns the resulting tokens, terminated by
// a single token.EOF. Lexical errors are recorded on l.Diagnostics rather than
// returned; scanning always completes to EOF.
func (l *Lexer) All() []token.Token {
	var toks []token.Token
	for {
		t := l.Next()
		toks = append(toks, t)
		if t.Kind == token.EOF {
			return toks
		}
	}
}

func (l *Lexer) peek() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peekAt(off int) rune {
	if l.pos+off >= len(l.src) {
		return 0
	}
	return l.src[l.pos+off]
}

func (l *Lexer) advance() rune {
	r := l.src[l.pos]
	l.pos++
	if r == '\n' {
		l.line++
	}
	return r
}

func (l *Lexer) errorf(format string, a ...interface{}) {
	l.Diagnostics = append(l.Diagnostics, Diagnostic{
		Filename: l.filename,
		Line:     l.line,
		Message:  fmt.Sprintf(format, a...),
	})
}

func (l *Lexer) tok(k token.Kind, v string, line int) token.Token {
	return token.Token{Kind: k, Value: v, Filename: l.filename, Line: line}
}

// Next scans and returns the next token. At end of input it returns a
// token.EOF token and may be called repeatedly without error.
func (l *Lexer) Next() token.Token {
	l.skipWhitespaceAndComments()

	startLine := l.line
	if l.pos >= len(l.src) {
		return l.tok(token.EOF, "", startLine)
	}

	c := l.peek()

	switch {
	case c == '"':
		return l.lexString(startLine)
	case c == '\'':
		return l.lexChar(startLine)
	case c == '$':
		return l.lexFString(startLine)
	case unicode.IsDigit(c):
		return l.lexNumber(startLine)
	case isIdentStart(c):
		return l.lexIdentOrKeyword(startLine)
	default:
		return l.lexOperator(startLine)
	}
}

func (l *Lexer) skipWhitespaceAndComments() {
	for l.pos < len(l.src) {
		c := l.peek()
		if c == ' ' || c == '\t' || c == '\r' || c == '\n' {
			l.advance()
			continue
		}
		if c == '/' && l.peekAt(1) == '/' {
			for l.pos < len(l.src) && l.peek() != '\n' {
				l.advance()
			}
			continue
		}
		break
	}
}

func isIdentStart(c rune) bool {
	return c == '_' || unicode.IsLetter(c)
}

func isIdentCont(c rune) bool {
	return c == '_' || unicode.IsLetter(c) || unicode.IsDigit(c)
}

func (l *Lexer) lexIdentOrKeyword(startLine int) token.Token {
	var sb strings.Builder
	for l.pos < len(l.src) && isIdentCont(l.peek()) {
		sb.WriteRune(l.advance())
	}
	word := sb.String()

	// "else-if" is the one reserved word containing a hyphen; it is only
	// recognised when "else" is immediately followed by "-if" with no
	// further identifier characters, so "else-ifier" still lexes as three
	// tokens rather than silently swallowing a hyphenated identifier.
	if word == "else" && l.peek() == '-' && l.peekAt(1) == 'i' && l.peekAt(2) == 'f' && !isIdentCont(l.peekAt(3)) {
		l.advance()
		l.advance()
		l.advance()
		return l.tok(token.KwElseIf, "else-if", startLine)
	}

	if kind, ok := token.IsKeyword(word); ok {
		return l.tok(kind, word, startLine)
	}
	// the boolean literal spellings alone are recognised case-insensitively,
	// so formatter output pasted back into source ("Run", "BEEN") still
	// lexes as a literal.
	switch strings.ToLower(word) {
	case "true", "run", "haa":
		return l.tok(token.KwTrue, word, startLine)
	case "false", "been", "maya":
		return l.tok(token.KwFalse, word, startLine)
	}
	return l.tok(token.Ident, word, startLine)
}

func (l *Lexer) lexNumber(startLine int) token.Token {
	var sb strings.Builder
	for l.pos < len(l.src) && unicode.IsDigit(l.peek()) {
		sb.WriteRune(l.advance())
	}
	isFloat := false
	if l.peek() == '.' && unicode.IsDigit(l.peekAt(1)) {
		isFloat = true
		sb.WriteRune(l.advance())
		for l.pos < len(l.src) && unicode.IsDigit(l.peek()) {
			sb.WriteRune(l.advance())
		}
	}
	if l.peek() == 'e' || l.peek() == 'E' {
		save := l.pos
		var exp strings.Builder
		exp.WriteRune(l.advance())
		if l.peek() == '-' || l.peek() == '+' {
			exp.WriteRune(l.advance())
		}
		if unicode.IsDigit(l.peek()) {
			isFloat = true
			for l.pos < len(l.src) && unicode.IsDigit(l.peek()) {
				exp.WriteRune(l.advance())
			}
			sb.WriteString(exp.String())
		} else {
			l.pos = save
		}
	}
	if isFloat {
		return l.tok(token.FloatLit, sb.String(), startLine)
	}
	return l.tok(token.IntLit, sb.String(), startLine)
}

func (l *Lexer) decodeEscape() (rune, bool) {
	c := l.advance()
	switch c {
	case 'n':
		return '\n', true
	case 'r':
		return '\r', true
	case 't':
		return '\t', true
	case '"':
		return '"', true
	case '\\':
		return '\\', true
	case '\'':
		return '\'', true
	case '$':
		return '$', true
	default:
		return c, false
	}
}

func (l *Lexer) lexString(startLine int) token.Token {
	l.advance() // opening quote
	triple := l.peek() == '"' && l.peekAt(1) == '"'
	if triple {
		l.advance()
		l.advance()
		return l.lexDelimited(startLine, `"""`, token.StringLit)
	}

	var sb strings.Builder
	for l.pos < len(l.src) && l.peek() != '"' {
		if l.peek() == '\n' {
			l.errorf("unterminated string literal")
			return l.tok(token.StringLit, sb.String(), startLine)
		}
		if l.peek() == '\\' {
			l.advance()
			r, _ := l.decodeEscape()
			sb.WriteRune(r)
			continue
		}
		sb.WriteRune(l.advance())
	}
	if l.pos < len(l.src) {
		l.advance() // closing quote
	} else {
		l.errorf("unterminated string literal")
	}
	return l.tok(token.StringLit, sb.String(), startLine)
}

// lexDelimited scans up to the literal closing delimiter (used for triple
// quoted strings), decoding escapes and preserving embedded newlines.
func (l *Lexer) lexDelimited(startLine int, closing string, kind token.Kind) token.Token {
	var sb strings.Builder
	for l.pos < len(l.src) {
		if l.matchesHere(closing) {
			for i := 0; i < utf8.RuneCountInString(closing); i++ {
				l.advance()
			}
			return l.tok(kind, sb.String(), startLine)
		}
		if l.peek() == '\\' {
			l.advance()
			r, _ := l.decodeEscape()
			sb.WriteRune(r)
			continue
		}
		sb.WriteRune(l.advance())
	}
	l.errorf("unterminated triple-quoted literal")
	return l.tok(kind, sb.String(), startLine)
}

func (l *Lexer) matchesHere(s string) bool {
	runes := []rune(s)
	for i, r := range runes {
		if l.peekAt(i) != r {
			return false
		}
	}
	return true
}

func (l *Lexer) lexChar(startLine int) token.Token {
	l.advance() // opening quote
	var value string
	if l.peek() == '\\' {
		l.advance()
		r, _ := l.decodeEscape()
		value = string(r)
	} else if l.pos < len(l.src) {
		value = string(l.advance())
	}
	if l.peek() == '\'' {
		l.advance()
	} else {
		l.errorf("unterminated char literal")
	}
	return l.tok(token.CharLit, value, startLine)
}

// lexFString scans a formatted string literal. Its Value retains the raw
// inner text (including unresolved {expr} segments); splitting into text/expr
// parts is done by the parser (splitFStringParts), and internal/normalize's
// f-string resolver then re-invokes the parser on each expr segment.
func (l *Lexer) lexFString(startLine int) token.Token {
	l.advance() // '$'
	if l.peek() != '"' {
		l.errorf("expected '\"' after '$' to start a formatted string")
		return l.tok(token.FStringLit, "", startLine)
	}
	l.advance()
	triple := l.peek() == '"' && l.peekAt(1) == '"'
	if triple {
		l.advance()
		l.advance()
		return l.lexFStringDelimited(startLine, `"""`)
	}
	return l.lexFStringDelimited(startLine, `"`)
}

func (l *Lexer) lexFStringDelimited(startLine int, closing string) token.Token {
	var sb strings.Builder
	depth := 0
	for l.pos < len(l.src) {
		if depth == 0 && l.matchesHere(closing) {
			for i := 0; i < utf8.RuneCountInString(closing); i++ {
				l.advance()
			}
			return l.tok(token.FStringLit, sb.String(), startLine)
		}
		c := l.peek()
		if c == '\\' {
			l.advance()
			r, _ := l.decodeEscape()
			sb.WriteRune(r)
			continue
		}
		if c == '{' && l.peekAt(1) == '{' {
			sb.WriteRune('{')
			l.advance()
			l.advance()
			continue
		}
		if c == '}' && l.peekAt(1) == '}' && depth == 0 {
			sb.WriteRune('}')
			l.advance()
			l.advance()
			continue
		}
		if c == '{' {
			depth++
		} else if c == '}' && depth > 0 {
			depth--
		}
		sb.WriteRune(l.advance())
	}
	l.errorf("unterminated formatted string literal")
	return l.tok(token.FStringLit, sb.String(), startLine)
}

type opRule struct {
	text string
	kind token.Kind
}

// ordered longest-match-first so that e.g. "==" is tried before "=".
var operators = []opRule{
	{"..", token.DotDot},
	{"=>", token.Arrow},
	{"==", token.Eq},
	{"!=", token.Ne},
	{"<=", token.Le},
	{">=", token.Ge},
	{"&&", token.AndAnd},
	{"||", token.OrOr},
	{"+=", token.PlusAssign},
	{"-=", token.MinusAssign},
	{"(", token.LParen},
	{")", token.RParen},
	{"{", token.LBrace},
	{"}", token.RBrace},
	{"[", token.LBracket},
	{"]", token.RBracket},
	{",", token.Comma},
	{":", token.Colon},
	{";", token.Semicolon},
	{".", token.Dot},
	{"?", token.Question},
	{"+", token.Plus},
	{"-", token.Minus},
	{"*", token.Star},
	{"/", token.Slash},
	{"%", token.Percent},
	{"!", token.Bang},
	{"=", token.Assign},
	{"<", token.Lt},
	{">", token.Gt},
}

func (l *Lexer) lexOperator(startLine int) token.Token {
	for _, rule := range operators {
		if l.matchesHere(rule.text) {
			for range rule.text {
				l.advance()
			}
			return l.tok(rule.kind, rule.text, startLine)
		}
	}
	bad := l.advance()
	l.errorf("Calaamad aan la aqoon: unrecognised character %q", bad)
	return l.Next()
}
