// Package catalog implements an in-memory model of gettext PO/POT files
// with a load/save round trip. It preserves entry order, comments,
// references, flags and obsolete entries so that rewriting a file does not
// destroy work done by other tools.
package catalog

import (
	"fmt"
	"sort"
	"strings"
)

// Key identifies an entry inside one catalog. Two entries with the same
// msgid but different msgctxt are distinct.
type Key struct {
	ID      string
	Context string
}

// String renders the key for log and issue messages.
func (k Key) String() string {
	if k.Context == "" {
		return fmt.Sprintf("%q", k.ID)
	}
	return fmt.Sprintf("%q (context %q)", k.ID, k.Context)
}

// Item is a single translatable entry.
type Item struct {
	ID       string // msgid
	PluralID string // msgid_plural, empty when the entry has no plural form
	Context  string // msgctxt, empty when the entry has no context

	// Translations holds msgstr values. Entries without a plural form use
	// index 0 only; plural entries hold one string per plural form of the
	// catalog language.
	Translations []string

	Fuzzy         bool
	PreTranslated bool
	Modified      bool
	Flags         []string // flags other than fuzzy, e.g. "c-format"

	TranslatorComments []string // "# " comments
	ExtractedComments  []string // "#. " comments
	References         []string // "#: " source locations, "file:line"

	OldID      string // "#| msgid" previous source string
	OldContext string // "#| msgctxt" previous context

	LineNumber int // line in the loaded file, 0 when created in memory
}

// Key returns the entry's identity within the catalog.
func (it *Item) Key() Key {
	return Key{ID: it.ID, Context: it.Context}
}

// HasPlural reports whether the entry carries a plural form.
func (it *Item) HasPlural() bool {
	return it.PluralID != ""
}

// IsTranslated reports whether every translation slot is filled in.
func (it *Item) IsTranslated() bool {
	if len(it.Translations) == 0 {
		return false
	}
	for _, t := range it.Translations {
		if t == "" {
			return false
		}
	}
	return true
}

// Translation returns the translation at index i, or "" when absent.
func (it *Item) Translation(i int) string {
	if i < 0 || i >= len(it.Translations) {
		return ""
	}
	return it.Translations[i]
}

// SetTranslation stores a translation at index i, growing the slice as needed.
func (it *Item) SetTranslation(i int, text string) {
	for len(it.Translations) <= i {
		it.Translations = append(it.Translations, "")
	}
	it.Translations[i] = text
}

// ClearTranslations empties all translation slots, keeping their count.
func (it *Item) ClearTranslations() {
	for i := range it.Translations {
		it.Translations[i] = ""
	}
}

// HasFlag reports whether a raw flag (e.g. "c-format") is present.
func (it *Item) HasFlag(flag string) bool {
	for _, f := range it.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the item.
func (it *Item) Clone() *Item {
	c := *it
	c.Translations = append([]string(nil), it.Translations...)
	c.Flags = append([]string(nil), it.Flags...)
	c.TranslatorComments = append([]string(nil), it.TranslatorComments...)
	c.ExtractedComments = append([]string(nil), it.ExtractedComments...)
	c.References = append([]string(nil), it.References...)
	return &c
}

// Catalog is an ordered set of entries plus the PO header. Obsolete entries
// (the "#~" block at the end of a PO file) are kept separately so they
// survive a round trip without appearing in the active item list.
type Catalog struct {
	Header   Header
	Items    []*Item
	Obsolete []*Item

	// HeaderComment holds the free-form comment block above the header
	// entry, kept verbatim for the round trip.
	HeaderComment []string

	// Path is the file the catalog was loaded from, empty for in-memory
	// catalogs.
	Path string
}

// New returns an empty catalog with a minimal UTF-8 header.
func New() *Catalog {
	c := &Catalog{}
	c.Header.Set("MIME-Version", "1.0")
	c.Header.Set("Content-Type", "text/plain; charset=UTF-8")
	c.Header.Set("Content-Transfer-Encoding", "8bit")
	return c
}

// ItemByKey returns the active item with the given key, or nil.
func (c *Catalog) ItemByKey(k Key) *Item {
	for _, it := range c.Items {
		if it.ID == k.ID && it.Context == k.Context {
			return it
		}
	}
	return nil
}

// Append adds an item to the end of the active list.
func (c *Catalog) Append(it *Item) {
	c.Items = append(c.Items, it)
}

// PluralCount returns the number of plural forms of the catalog language,
// taken from the Plural-Forms header. Catalogs without the header report 2,
// the most common count and the safe default for templates.
func (c *Catalog) PluralCount() int {
	return c.Header.PluralCount()
}

// NormalizePlurals resizes every plural entry's translation slice to the
// catalog plural count, truncating extras and padding with empty strings.
// Entries without plurals are resized to a single slot.
func (c *Catalog) NormalizePlurals() {
	n := c.PluralCount()
	for _, it := range c.Items {
		want := 1
		if it.HasPlural() {
			want = n
		}
		for len(it.Translations) < want {
			it.Translations = append(it.Translations, "")
		}
		if len(it.Translations) > want {
			it.Translations = it.Translations[:want]
		}
	}
}

// HasDuplicateItems reports whether two active items share a key. Duplicates
// are invalid PO but common in template files assembled by ad-hoc tooling.
func (c *Catalog) HasDuplicateItems() bool {
	seen := make(map[Key]bool, len(c.Items))
	for _, it := range c.Items {
		k := it.Key()
		if seen[k] {
			return true
		}
		seen[k] = true
	}
	return false
}

// FixDuplicateItems merges items sharing a key into the first occurrence,
// combining their references and extracted comments. Order of first
// occurrences is preserved.
func (c *Catalog) FixDuplicateItems() {
	seen := make(map[Key]*Item, len(c.Items))
	var out []*Item
	for _, it := range c.Items {
		k := it.Key()
		if first, ok := seen[k]; ok {
			first.References = appendUnique(first.References, it.References)
			first.ExtractedComments = appendUnique(first.ExtractedComments, it.ExtractedComments)
			continue
		}
		seen[k] = it
		out = append(out, it)
	}
	c.Items = out
}

// SortedKeys returns all active keys sorted by ID then context. Used by
// reporting code that wants stable output independent of file order.
func (c *Catalog) SortedKeys() []Key {
	keys := make([]Key, 0, len(c.Items))
	for _, it := range c.Items {
		keys = append(keys, it.Key())
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].ID != keys[j].ID {
			return keys[i].ID < keys[j].ID
		}
		return keys[i].Context < keys[j].Context
	})
	return keys
}

func appendUnique(dst []string, add []string) []string {
	for _, s := range add {
		found := false
		for _, d := range dst {
			if d == s {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, s)
		}
	}
	return dst
}

// joinFlags renders the "#," flag line value for an item, fuzzy first.
func joinFlags(it *Item) string {
	var flags []string
	if it.Fuzzy {
		flags = append(flags, "fuzzy")
	}
	flags = append(flags, it.Flags...)
	return strings.Join(flags, ", ")
}
