package parser

import (
	"strconv"
	"strings"

	"github.com/tusmolang/tusmoc/internal/ast"
	"github.com/tusmolang/tusmoc/internal/lexer"
)

// parseInt and parseFloat convert already-validated lexeme text (the lexer
// only ever emits digit/'.'/exponent runs for these token kinds) into Go
// numeric values. A malformed lexeme is a lexer bug, not a user error, so
// these deliberately ignore the error return and fall back to zero.
func parseInt(s string) int64 {
	v, _ := strconv.ParseInt(s, 10, 64)
	return v
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

// splitFStringParts breaks the raw text a formatted-string token carries into
// literal-text and unresolved-expression segments, recognising the `{...}`
// boundaries the lexer preserved verbatim. It does not parse the expression
// segments; that is internal/normalize's job during F-string resolution
//, which re-lexes and re-parses each Raw segment on its own.
func splitFStringParts(raw string) []ast.FStringPart {
	var parts []ast.FStringPart
	var text strings.Builder
	runes := []rune(raw)
	i := 0
	for i < len(runes) {
		c := runes[i]
		if c == '{' {
			if text.Len() > 0 {
				parts = append(parts, ast.FStringPart{Text: text.String()})
				text.Reset()
			}
			depth := 1
			var expr strings.Builder
			i++
			for i < len(runes) && depth > 0 {
				if runes[i] == '{' {
					depth++
				} else if runes[i] == '}' {
					depth--
					if depth == 0 {
						break
					}
				}
				expr.WriteRune(runes[i])
				i++
			}
			i++ // closing '}'
			parts = append(parts, ast.FStringPart{IsExpr: true, Raw: expr.String()})
			continue
		}
		text.WriteRune(c)
		i++
	}
	if text.Len() > 0 {
		parts = append(parts, ast.FStringPart{Text: text.String()})
	}
	return parts
}

// ParseExprSnippet re-lexes and re-parses a raw expression snippet (the text
// of an f-string `{...}` segment), attributing diagnostics to filename/line
// the way the compile pipeline would. It is the one place in this package
// that constructs its own Lexer, since f-string segments arrive as plain
// text rather than as tokens.
func ParseExprSnippet(filename string, line int, snippet string) (ast.Expr, error) {
	lx := lexer.New(filename, snippet)
	toks := lx.All()
	for i := range toks {
		toks[i].Line = line
	}
	if len(lx.Diagnostics) > 0 {
		d := lx.Diagnostics[0]
		return nil, &Error{Filename: filename, Line: line, Message: d.Message}
	}
	return ParseExpr(toks)
}
