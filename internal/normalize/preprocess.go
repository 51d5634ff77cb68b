package normalize

import "strings"

// PreprocessDocLines rewrites compact one-line doc comments of the form
//
//	:waa sharaxaad:
//
// into plain string-literal statements (`"waa sharaxaad";`) before the
// buffer ever reaches the lexer, so docstring attachment (AttachDocstrings)
// sees them as the leading string statements it already folds into a
// declaration's docstring. The rewrite is line-for-line — output line N is
// always derived from input line N — so token line numbers still match the
// author's file.
func PreprocessDocLines(src string) string {
	if !strings.Contains(src, ":") {
		return src
	}
	lines := strings.Split(src, "\n")
	changed := false
	for i, line := range lines {
		text, ok := docLineText(line)
		if !ok {
			continue
		}
		indent := line[:strings.IndexByte(line, ':')]
		lines[i] = indent + `"` + escapeDocText(text) + `";`
		changed = true
	}
	if !changed {
		return src
	}
	return strings.Join(lines, "\n")
}

// docLineText reports whether line is a doc line — nothing but whitespace
// around a single `:text:` run — and returns the inner text if so.
func docLineText(line string) (string, bool) {
	trimmed := strings.TrimSpace(strings.TrimSuffix(line, "\r"))
	if len(trimmed) < 3 || trimmed[0] != ':' || trimmed[len(trimmed)-1] != ':' {
		return "", false
	}
	inner := trimmed[1 : len(trimmed)-1]
	// a line like `: tiro x = f() ? a : b;` is code, not a doc line; inner
	// colons or statement punctuation disqualify it.
	if strings.ContainsAny(inner, ":;{}") {
		return "", false
	}
	return inner, true
}

func escapeDocText(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}
