package scan

import (
	"strconv"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// literal resolves an argument node to a compile-time string value.
// Interpolated strings, variables and other non-literal expressions report
// ok=false; only strings fully known at extraction time become messages.
func (w *walker) literal(node *sitter.Node) (string, bool) {
	if node == nil {
		return "", false
	}
	kind := node.Kind()

	if w.scanner.rules.concatKinds[kind] {
		// Adjacent literal concatenation: "a" "b".
		var b strings.Builder
		found := false
		for i := 0; i < int(node.ChildCount()); i++ {
			child := node.Child(uint(i))
			if child == nil || !w.scanner.rules.stringKinds[child.Kind()] {
				continue
			}
			part, ok := w.stringValue(child)
			if !ok {
				return "", false
			}
			b.WriteString(part)
			found = true
		}
		return b.String(), found
	}

	if w.scanner.rules.stringKinds[kind] {
		return w.stringValue(node)
	}

	// Parenthesized or cast-wrapped literals: descend through single-child
	// wrappers until a string or something else definite appears.
	if int(node.ChildCount()) > 0 {
		var inner *sitter.Node
		for i := 0; i < int(node.ChildCount()); i++ {
			child := node.Child(uint(i))
			if child == nil {
				continue
			}
			switch child.Kind() {
			case "(", ")":
				continue
			}
			if inner != nil {
				return "", false
			}
			inner = child
		}
		if inner != nil && w.scanner.rules.stringKinds[inner.Kind()] {
			return w.stringValue(inner)
		}
	}
	return "", false
}

// stringValue decodes one string-literal node. The content is assembled
// from the grammar's content and escape children; seeing an interpolation
// child rejects the literal.
func (w *walker) stringValue(node *sitter.Node) (string, bool) {
	var b strings.Builder
	sawContent := false

	var visit func(n *sitter.Node) bool
	visit = func(n *sitter.Node) bool {
		for i := 0; i < int(n.ChildCount()); i++ {
			child := n.Child(uint(i))
			if child == nil {
				continue
			}
			kind := child.Kind()
			switch {
			case w.scanner.rules.rejectKinds[kind]:
				return false
			case kind == "string_content" || kind == "string_fragment":
				b.WriteString(nodeText(child, w.source))
				sawContent = true
			case kind == "escape_sequence":
				b.WriteString(decodeEscape(nodeText(child, w.source)))
				sawContent = true
			case w.scanner.rules.stringKinds[kind]:
				if !visit(child) {
					return false
				}
			}
		}
		return true
	}
	if !visit(node) {
		return "", false
	}

	if !sawContent {
		// Grammars without content children (or the empty string): fall
		// back to stripping the quotes off the raw text.
		return stripQuotes(nodeText(node, w.source))
	}
	return b.String(), true
}

// decodeEscape decodes one escape sequence token ("\n", "\x41", "é").
// Unknown sequences are kept with the backslash dropped, which is what the
// gettext tools do for most languages.
func decodeEscape(tok string) string {
	if len(tok) < 2 || tok[0] != '\\' {
		return tok
	}
	switch tok[1] {
	case 'n':
		return "\n"
	case 't':
		return "\t"
	case 'r':
		return "\r"
	case '0':
		return "\x00"
	case 'a':
		return "\a"
	case 'b':
		return "\b"
	case 'f':
		return "\f"
	case 'v':
		return "\v"
	case '\\', '"', '\'', '`', '$':
		return tok[1:2]
	case 'x':
		if n, err := strconv.ParseUint(tok[2:], 16, 32); err == nil {
			return string(rune(n))
		}
	case 'u', 'U':
		hex := strings.Trim(tok[2:], "{}")
		if n, err := strconv.ParseUint(hex, 16, 32); err == nil {
			return string(rune(n))
		}
	}
	return tok[1:]
}

// stripQuotes removes a matched quote pair plus any prefix letters (r"...",
// b'...', R"...") from a raw literal. Literals that do not look like plain
// quoted strings are rejected.
func stripQuotes(raw string) (string, bool) {
	s := raw
	hashes := false
	for len(s) > 0 && s[0] != '"' && s[0] != '\'' && s[0] != '`' {
		c := s[0]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '#' {
			hashes = hashes || c == '#'
			s = s[1:]
			continue
		}
		return "", false
	}
	if hashes {
		// Rust raw strings close with the same hash count: r#"..."#.
		s = strings.TrimRight(s, "#")
	}
	for _, q := range []string{`"""`, "'''", `"`, "'", "`"} {
		if strings.HasPrefix(s, q) && strings.HasSuffix(s, q) && len(s) >= 2*len(q) {
			return unescapeBody(s[len(q) : len(s)-len(q)]), true
		}
	}
	return "", false
}

func unescapeBody(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			b.WriteByte(s[i])
			continue
		}
		i++
		b.WriteString(decodeEscape(s[i-1 : i+1]))
	}
	return b.String()
}
