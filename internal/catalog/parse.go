package catalog

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/ianaindex"
)

// ErrMalformed is returned when a file cannot be parsed as a PO catalog.
var ErrMalformed = errors.New("malformed catalog file")

// Load reads a PO/POT file and returns the parsed catalog. Files in a
// non-UTF-8 charset (per their Content-Type header) are converted to UTF-8
// and the header is rewritten accordingly. Plural arrays are normalized to
// the catalog plural count.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	cat, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cs := cat.Header.Charset()
	if !strings.EqualFold(cs, "UTF-8") && !strings.EqualFold(cs, "UTF8") {
		if converted := reparseAs(data, cs); converted != nil {
			cat = converted
		}
		cat.Header.SetCharset("UTF-8")
	}

	cat.Path = path
	cat.NormalizePlurals()
	return cat, nil
}

// LoadReference reads a template/reference file for a merge: translations
// present in the file are discarded and duplicate entries (common in
// generated templates) are merged by reference. The header is kept only for
// plural normalization.
func LoadReference(path string) (*Catalog, error) {
	cat, err := Load(path)
	if err != nil {
		return nil, err
	}
	for _, it := range cat.Items {
		it.ClearTranslations()
		it.Fuzzy = false
	}
	if cat.HasDuplicateItems() {
		cat.FixDuplicateItems()
	}
	return cat, nil
}

// reparseAs decodes data from the named charset and reparses. Returns nil
// when the charset is unknown or conversion fails; the caller then keeps the
// byte-preserving parse.
func reparseAs(data []byte, charset string) *Catalog {
	enc, err := ianaindex.IANA.Encoding(charset)
	if err != nil || enc == nil {
		return nil
	}
	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return nil
	}
	cat, err := Parse(decoded)
	if err != nil {
		return nil
	}
	return cat
}

// Parse parses PO/POT file content. The first entry with an empty msgid
// becomes the catalog header.
func Parse(data []byte) (*Catalog, error) {
	p := &parser{cat: &Catalog{}}
	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	for i, line := range lines {
		if err := p.feed(i+1, line); err != nil {
			return nil, err
		}
	}
	if err := p.flush(); err != nil {
		return nil, err
	}
	if !p.sawEntry {
		return nil, fmt.Errorf("%w: no entries found", ErrMalformed)
	}
	return p.cat, nil
}

// parser state per entry. target tracks where continuation string lines go.
const (
	targetNone = iota
	targetContext
	targetID
	targetPluralID
	targetTranslation
	targetOldID
	targetOldContext
)

type parser struct {
	cat      *Catalog
	sawEntry bool

	item       Item
	obsolete   bool
	hasID      bool
	hasMsgstr  bool
	target     int
	slot       int // msgstr[N] index while target == targetTranslation
	rawFlags   string
	entryEmpty bool
}

func (p *parser) feed(lineNo int, line string) error {
	trimmed := strings.TrimRight(line, " \t")
	if trimmed == "" {
		return p.flush()
	}

	obsolete := false
	if strings.HasPrefix(trimmed, "#~") {
		obsolete = true
		trimmed = strings.TrimPrefix(trimmed, "#~")
		trimmed = strings.TrimPrefix(trimmed, " ")
		if trimmed == "" {
			return nil
		}
	}

	// A comment or msgctxt/msgid after the translation block starts the
	// next entry even without a separating blank line.
	if p.hasMsgstr && startsNewEntry(trimmed) {
		if err := p.flush(); err != nil {
			return err
		}
	}
	if obsolete {
		p.obsolete = true
	}

	switch {
	case strings.HasPrefix(trimmed, "#,"):
		p.rawFlags = strings.TrimSpace(trimmed[2:])
	case strings.HasPrefix(trimmed, "#."):
		p.item.ExtractedComments = append(p.item.ExtractedComments, strings.TrimSpace(trimmed[2:]))
	case strings.HasPrefix(trimmed, "#:"):
		p.item.References = append(p.item.References, strings.Fields(trimmed[2:])...)
	case strings.HasPrefix(trimmed, "#|"):
		return p.feedPrevious(lineNo, strings.TrimSpace(trimmed[2:]))
	case strings.HasPrefix(trimmed, "#"):
		p.item.TranslatorComments = append(p.item.TranslatorComments, strings.TrimPrefix(strings.TrimPrefix(trimmed, "#"), " "))
	case strings.HasPrefix(trimmed, "msgctxt"):
		s, err := unquote(lineNo, trimmed[len("msgctxt"):])
		if err != nil {
			return err
		}
		p.item.Context = s
		p.target = targetContext
	case strings.HasPrefix(trimmed, "msgid_plural"):
		if !p.hasID {
			return fmt.Errorf("%w: line %d: msgid_plural without msgid", ErrMalformed, lineNo)
		}
		s, err := unquote(lineNo, trimmed[len("msgid_plural"):])
		if err != nil {
			return err
		}
		p.item.PluralID = s
		p.target = targetPluralID
	case strings.HasPrefix(trimmed, "msgid"):
		if p.hasID {
			// Entries not separated by a blank line.
			if err := p.flush(); err != nil {
				return err
			}
			if obsolete {
				p.obsolete = true
			}
		}
		s, err := unquote(lineNo, trimmed[len("msgid"):])
		if err != nil {
			return err
		}
		p.item.ID = s
		p.item.LineNumber = lineNo
		p.hasID = true
		p.target = targetID
	case strings.HasPrefix(trimmed, "msgstr["):
		end := strings.Index(trimmed, "]")
		if end < 0 {
			return fmt.Errorf("%w: line %d: unterminated msgstr index", ErrMalformed, lineNo)
		}
		n, err := strconv.Atoi(trimmed[len("msgstr["):end])
		if err != nil || n < 0 {
			return fmt.Errorf("%w: line %d: bad msgstr index", ErrMalformed, lineNo)
		}
		s, err := unquote(lineNo, trimmed[end+1:])
		if err != nil {
			return err
		}
		p.item.SetTranslation(n, s)
		p.hasMsgstr = true
		p.target = targetTranslation
		p.slot = n
	case strings.HasPrefix(trimmed, "msgstr"):
		if !p.hasID {
			return fmt.Errorf("%w: line %d: msgstr without msgid", ErrMalformed, lineNo)
		}
		s, err := unquote(lineNo, trimmed[len("msgstr"):])
		if err != nil {
			return err
		}
		p.item.SetTranslation(0, s)
		p.hasMsgstr = true
		p.target = targetTranslation
		p.slot = 0
	case strings.HasPrefix(trimmed, `"`):
		return p.feedContinuation(lineNo, trimmed)
	default:
		return fmt.Errorf("%w: line %d: unexpected content %q", ErrMalformed, lineNo, trimmed)
	}
	return nil
}

// feedPrevious handles "#|" previous-field comments, including their
// continuation lines ("#| \"...\"").
func (p *parser) feedPrevious(lineNo int, rest string) error {
	switch {
	case strings.HasPrefix(rest, "msgctxt"):
		s, err := unquote(lineNo, rest[len("msgctxt"):])
		if err != nil {
			return err
		}
		p.item.OldContext = s
		p.target = targetOldContext
	case strings.HasPrefix(rest, "msgid_plural"):
		// Previous plural is not tracked separately; fold into OldID so
		// nothing is silently dropped on a round trip of hand-edited files.
		p.target = targetNone
	case strings.HasPrefix(rest, "msgid"):
		s, err := unquote(lineNo, rest[len("msgid"):])
		if err != nil {
			return err
		}
		p.item.OldID = s
		p.target = targetOldID
	case strings.HasPrefix(rest, `"`):
		s, err := unquote(lineNo, rest)
		if err != nil {
			return err
		}
		switch p.target {
		case targetOldID:
			p.item.OldID += s
		case targetOldContext:
			p.item.OldContext += s
		}
	}
	return nil
}

func (p *parser) feedContinuation(lineNo int, line string) error {
	s, err := unquote(lineNo, line)
	if err != nil {
		return err
	}
	switch p.target {
	case targetContext:
		p.item.Context += s
	case targetID:
		p.item.ID += s
	case targetPluralID:
		p.item.PluralID += s
	case targetTranslation:
		p.item.SetTranslation(p.slot, p.item.Translation(p.slot)+s)
	default:
		return fmt.Errorf("%w: line %d: stray string continuation", ErrMalformed, lineNo)
	}
	return nil
}

// flush finishes the current entry, if any.
func (p *parser) flush() error {
	if !p.hasID {
		// Comments with no entry attached (e.g. a trailing comment block)
		// are dropped, matching what the gettext tools do.
		p.reset()
		return nil
	}

	item := p.item
	for _, f := range strings.Split(p.rawFlags, ",") {
		f = strings.TrimSpace(f)
		switch f {
		case "":
		case "fuzzy":
			item.Fuzzy = true
		default:
			item.Flags = append(item.Flags, f)
		}
	}

	switch {
	case item.ID == "" && item.Context == "" && !p.obsolete && !p.sawEntry:
		p.cat.Header.parse(item.Translation(0))
		p.cat.HeaderComment = item.TranslatorComments
	case p.obsolete:
		it := item
		p.cat.Obsolete = append(p.cat.Obsolete, &it)
	default:
		it := item
		p.cat.Items = append(p.cat.Items, &it)
	}
	p.sawEntry = true
	p.reset()
	return nil
}

func (p *parser) reset() {
	p.item = Item{}
	p.obsolete = false
	p.hasID = false
	p.hasMsgstr = false
	p.target = targetNone
	p.slot = 0
	p.rawFlags = ""
}

// startsNewEntry reports whether a line begins the next entry when the
// current one already has its translation block.
func startsNewEntry(line string) bool {
	return strings.HasPrefix(line, "#") ||
		strings.HasPrefix(line, "msgctxt") ||
		strings.HasPrefix(line, "msgid")
}

// unquote extracts and unescapes the quoted part of a PO string line.
func unquote(lineNo int, s string) (string, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return "", fmt.Errorf("%w: line %d: expected quoted string", ErrMalformed, lineNo)
	}
	return unescape(s[1 : len(s)-1]), nil
}

func unescape(s string) string {
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
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '"':
			b.WriteByte('"')
		case '\\':
			b.WriteByte('\\')
		case 'a':
			b.WriteByte('\a')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'v':
			b.WriteByte('\v')
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
