package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// referenceWrap is the column budget for "#:" reference lines.
const referenceWrap = 78

// Save writes the catalog to path in PO format. The write goes through a
// temp file in the target directory and a rename, so a crash never leaves a
// half-written catalog behind.
func (c *Catalog) Save(path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".msgforge-*.po")
	if err != nil {
		return fmt.Errorf("creating temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	_, werr := tmp.WriteString(c.String())
	cerr := tmp.Close()
	if werr != nil || cerr != nil {
		os.Remove(tmpName)
		if werr != nil {
			return fmt.Errorf("writing %s: %w", path, werr)
		}
		return fmt.Errorf("writing %s: %w", path, cerr)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

// String renders the catalog in PO format.
func (c *Catalog) String() string {
	var b strings.Builder

	for _, line := range c.HeaderComment {
		writeComment(&b, "", line)
	}
	b.WriteString("msgid \"\"\n")
	b.WriteString("msgstr \"\"\n")
	for _, p := range c.Header.pairs {
		b.WriteString(`"`)
		b.WriteString(escape(p.key + ": " + p.value + "\n"))
		b.WriteString("\"\n")
	}

	for _, it := range c.Items {
		b.WriteString("\n")
		writeItem(&b, it, "")
	}
	for _, it := range c.Obsolete {
		b.WriteString("\n")
		writeItem(&b, it, "#~ ")
	}
	return b.String()
}

func writeItem(b *strings.Builder, it *Item, prefix string) {
	for _, line := range it.TranslatorComments {
		writeComment(b, prefix, line)
	}
	for _, line := range it.ExtractedComments {
		b.WriteString(prefix)
		b.WriteString("#. ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	writeReferences(b, it.References, prefix)
	if flags := joinFlags(it); flags != "" {
		b.WriteString(prefix)
		b.WriteString("#, ")
		b.WriteString(flags)
		b.WriteString("\n")
	}
	if it.OldContext != "" {
		b.WriteString(prefix)
		b.WriteString("#| msgctxt ")
		b.WriteString(quote(it.OldContext))
		b.WriteString("\n")
	}
	if it.OldID != "" {
		b.WriteString(prefix)
		b.WriteString("#| msgid ")
		b.WriteString(quote(it.OldID))
		b.WriteString("\n")
	}

	if it.Context != "" {
		writeString(b, prefix, "msgctxt", it.Context)
	}
	writeString(b, prefix, "msgid", it.ID)
	if it.HasPlural() {
		writeString(b, prefix, "msgid_plural", it.PluralID)
		for i := range it.Translations {
			writeString(b, prefix, fmt.Sprintf("msgstr[%d]", i), it.Translations[i])
		}
		if len(it.Translations) == 0 {
			writeString(b, prefix, "msgstr[0]", "")
			writeString(b, prefix, "msgstr[1]", "")
		}
	} else {
		writeString(b, prefix, "msgstr", it.Translation(0))
	}
}

func writeComment(b *strings.Builder, prefix, line string) {
	b.WriteString(prefix)
	if line == "" {
		b.WriteString("#\n")
		return
	}
	b.WriteString("# ")
	b.WriteString(line)
	b.WriteString("\n")
}

// writeReferences emits "#:" lines wrapped to the column budget, keeping
// each file:line token whole.
func writeReferences(b *strings.Builder, refs []string, prefix string) {
	if len(refs) == 0 {
		return
	}
	line := ""
	flush := func() {
		if line != "" {
			b.WriteString(prefix)
			b.WriteString("#:")
			b.WriteString(line)
			b.WriteString("\n")
			line = ""
		}
	}
	for _, ref := range refs {
		if line != "" && len(prefix)+2+len(line)+1+len(ref) > referenceWrap {
			flush()
		}
		line += " " + ref
	}
	flush()
}

// writeString emits a keyword plus its quoted value. Values with embedded
// newlines use the multi-line form the gettext tools produce: an empty
// first segment, then one quoted segment per line.
func writeString(b *strings.Builder, prefix, keyword, value string) {
	b.WriteString(prefix)
	b.WriteString(keyword)
	b.WriteString(" ")

	if !strings.Contains(value, "\n") {
		b.WriteString(quote(value))
		b.WriteString("\n")
		return
	}

	b.WriteString("\"\"\n")
	rest := value
	for rest != "" {
		var seg string
		if i := strings.IndexByte(rest, '\n'); i >= 0 {
			seg, rest = rest[:i+1], rest[i+1:]
		} else {
			seg, rest = rest, ""
		}
		b.WriteString(prefix)
		b.WriteString(quote(seg))
		b.WriteString("\n")
	}
}

func quote(s string) string {
	return `"` + escape(s) + `"`
}

func escape(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
