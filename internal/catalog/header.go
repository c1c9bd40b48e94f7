package catalog

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Header is the PO header entry (the msgstr of the empty-msgid item) as an
// ordered list of key/value pairs. Order is preserved across a load/save
// round trip; Set updates in place and appends new keys at the end.
type Header struct {
	pairs []headerPair
}

type headerPair struct {
	key   string
	value string
}

// Get returns the value for key, or "" when absent. Lookup is
// case-insensitive per RFC 822 conventions; the stored spelling wins on save.
func (h *Header) Get(key string) string {
	for _, p := range h.pairs {
		if strings.EqualFold(p.key, key) {
			return p.value
		}
	}
	return ""
}

// Has reports whether the key is present, even with an empty value.
func (h *Header) Has(key string) bool {
	for _, p := range h.pairs {
		if strings.EqualFold(p.key, key) {
			return true
		}
	}
	return false
}

// Set stores a value, replacing an existing entry in place or appending.
func (h *Header) Set(key, value string) {
	for i, p := range h.pairs {
		if strings.EqualFold(p.key, key) {
			h.pairs[i].value = value
			return
		}
	}
	h.pairs = append(h.pairs, headerPair{key: key, value: value})
}

// Delete removes the key if present.
func (h *Header) Delete(key string) {
	for i, p := range h.pairs {
		if strings.EqualFold(p.key, key) {
			h.pairs = append(h.pairs[:i], h.pairs[i+1:]...)
			return
		}
	}
}

// Keys returns the header keys in stored order.
func (h *Header) Keys() []string {
	keys := make([]string, len(h.pairs))
	for i, p := range h.pairs {
		keys[i] = p.key
	}
	return keys
}

// String renders the header as the msgstr text of the header entry.
func (h *Header) String() string {
	var b strings.Builder
	for _, p := range h.pairs {
		b.WriteString(p.key)
		b.WriteString(": ")
		b.WriteString(p.value)
		b.WriteString("\n")
	}
	return b.String()
}

// parseHeader fills the header from the msgstr text of the header entry.
// Continuation lines (leading whitespace) are folded into the previous value.
func (h *Header) parse(text string) {
	h.pairs = nil
	lines := strings.Split(text, "\n")
	for _, line := range lines {
		if line == "" {
			continue
		}
		if (strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")) && len(h.pairs) > 0 {
			h.pairs[len(h.pairs)-1].value += "\n" + strings.TrimSpace(line)
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		h.pairs = append(h.pairs, headerPair{
			key:   strings.TrimSpace(key),
			value: strings.TrimSpace(value),
		})
	}
}

var (
	charsetRe  = regexp.MustCompile(`charset\s*=\s*([^;\s]+)`)
	npluralsRe = regexp.MustCompile(`nplurals\s*=\s*(\d+)`)
)

// Charset returns the charset declared in Content-Type, or "UTF-8" when the
// header does not declare one. The gettext placeholder "CHARSET" from
// untouched templates also maps to UTF-8.
func (h *Header) Charset() string {
	ct := h.Get("Content-Type")
	m := charsetRe.FindStringSubmatch(ct)
	if m == nil {
		return "UTF-8"
	}
	cs := m[1]
	if strings.EqualFold(cs, "CHARSET") {
		return "UTF-8"
	}
	return cs
}

// SetCharset rewrites the charset inside Content-Type, preserving the rest
// of the value.
func (h *Header) SetCharset(charset string) {
	ct := h.Get("Content-Type")
	if ct == "" {
		h.Set("Content-Type", "text/plain; charset="+charset)
		return
	}
	if charsetRe.MatchString(ct) {
		h.Set("Content-Type", charsetRe.ReplaceAllString(ct, "charset="+charset))
		return
	}
	h.Set("Content-Type", ct+"; charset="+charset)
}

// Language returns the Language header value, e.g. "cs" or "pt_BR".
func (h *Header) Language() string {
	return h.Get("Language")
}

// PluralForms returns the raw Plural-Forms header value.
func (h *Header) PluralForms() string {
	return h.Get("Plural-Forms")
}

// PluralCount parses nplurals out of Plural-Forms. Missing or malformed
// headers report 2.
func (h *Header) PluralCount() int {
	m := npluralsRe.FindStringSubmatch(h.Get("Plural-Forms"))
	if m == nil {
		return 2
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		return 2
	}
	return n
}

// Source-spec headers written by catalog-management tools. Numbered headers
// use a 0-based suffix: X-Poedit-SearchPath-0, X-Poedit-SearchPath-1, ...
const (
	HeaderBasepath           = "X-Poedit-Basepath"
	HeaderSearchPath         = "X-Poedit-SearchPath-"
	HeaderSearchPathExcluded = "X-Poedit-SearchPathExcluded-"
	HeaderKeywordsList       = "X-Poedit-KeywordsList"
	HeaderSourceCharset      = "X-Poedit-SourceCharset"
	HeaderXgettextFlags      = "X-Poedit-Flags-xgettext"
)

// Basepath returns the source-tree base path header value.
func (h *Header) Basepath() string {
	return h.Get(HeaderBasepath)
}

// SearchPaths returns the numbered search-path header values in order.
func (h *Header) SearchPaths() []string {
	return h.numbered(HeaderSearchPath)
}

// ExcludedPaths returns the numbered excluded-path header values in order.
func (h *Header) ExcludedPaths() []string {
	return h.numbered(HeaderSearchPathExcluded)
}

// Keywords returns the keyword list, semicolon-separated in the header.
func (h *Header) Keywords() []string {
	raw := h.Get(HeaderKeywordsList)
	if raw == "" {
		return nil
	}
	var out []string
	for _, k := range strings.Split(raw, ";") {
		k = strings.TrimSpace(k)
		if k != "" {
			out = append(out, k)
		}
	}
	return out
}

// SetSearchPaths replaces the numbered search-path headers.
func (h *Header) SetSearchPaths(paths []string) {
	h.setNumbered(HeaderSearchPath, paths)
}

// SetExcludedPaths replaces the numbered excluded-path headers.
func (h *Header) SetExcludedPaths(paths []string) {
	h.setNumbered(HeaderSearchPathExcluded, paths)
}

// SetKeywords replaces the keyword list header.
func (h *Header) SetKeywords(keywords []string) {
	if len(keywords) == 0 {
		h.Delete(HeaderKeywordsList)
		return
	}
	h.Set(HeaderKeywordsList, strings.Join(keywords, ";"))
}

// XHeaders returns all X- headers that are not source-spec headers, in
// order. These are passed through to extraction tools untouched.
func (h *Header) XHeaders() [][2]string {
	var out [][2]string
	for _, p := range h.pairs {
		if !strings.HasPrefix(p.key, "X-") {
			continue
		}
		if isSpecHeader(p.key) {
			continue
		}
		out = append(out, [2]string{p.key, p.value})
	}
	return out
}

func isSpecHeader(key string) bool {
	switch {
	case strings.EqualFold(key, HeaderBasepath),
		strings.EqualFold(key, HeaderKeywordsList),
		strings.EqualFold(key, HeaderSourceCharset),
		strings.EqualFold(key, HeaderXgettextFlags):
		return true
	}
	return strings.HasPrefix(key, HeaderSearchPath) || strings.HasPrefix(key, HeaderSearchPathExcluded)
}

func (h *Header) numbered(prefix string) []string {
	var out []string
	for i := 0; ; i++ {
		key := fmt.Sprintf("%s%d", prefix, i)
		if !h.Has(key) {
			break
		}
		out = append(out, h.Get(key))
	}
	return out
}

func (h *Header) setNumbered(prefix string, values []string) {
	for i := 0; ; i++ {
		key := fmt.Sprintf("%s%d", prefix, i)
		if !h.Has(key) {
			break
		}
		h.Delete(key)
	}
	for i, v := range values {
		h.Set(fmt.Sprintf("%s%d", prefix, i), v)
	}
}
