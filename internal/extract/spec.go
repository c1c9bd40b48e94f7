package extract

import (
	"path/filepath"
	"strings"

	"github.com/mvp-joe/msgforge/internal/catalog"
)

// TypeMapping associates a file mask with an extraction target, e.g.
// {"*.phtml", "gettext:php"} or {"*.tmpl", "scan:python"}. Targets name an
// engine plus the language handed to it.
type TypeMapping struct {
	Mask   string
	Target string
}

// Engine and Lang split the mapping target at the colon. A target without a
// colon names the gettext engine's language.
func (m TypeMapping) Engine() string {
	engine, _, ok := strings.Cut(m.Target, ":")
	if !ok {
		return "gettext"
	}
	return engine
}

func (m TypeMapping) Lang() string {
	engine, lang, ok := strings.Cut(m.Target, ":")
	if !ok {
		return engine
	}
	return lang
}

// SourceSpec describes where and how to extract for one run. It is built
// from the catalog header plus configuration and never mutated afterwards.
type SourceSpec struct {
	// BasePath anchors relative search paths. Always absolute after
	// Normalize.
	BasePath string

	// SearchPaths are files or directories to scan, relative to BasePath
	// unless absolute. Order is preserved.
	SearchPaths []string

	// ExcludedPaths are prefix or glob rules applied to paths relative to
	// BasePath, e.g. "vendor" or "*.min.js".
	ExcludedPaths []string

	// Keywords are raw xgettext-style keyword specs.
	Keywords []string

	// Charset of the source files, default UTF-8.
	Charset string

	// TypeMappings override extraction per file mask, highest precedence.
	TypeMappings []TypeMapping

	// XgettextFlags is the pass-through flags header value, e.g.
	// "--add-comments=NOTE --no-location".
	XgettextFlags string

	// XHeaders are further X- headers carried along for tool consumption.
	XHeaders [][2]string
}

// SpecFromCatalog builds the spec recorded in a catalog's header. BasePath
// resolves relative to the catalog file's directory; a catalog without a
// basepath header uses that directory itself.
func SpecFromCatalog(cat *catalog.Catalog) *SourceSpec {
	return SpecFromCatalogWith(cat, SpecExtras{})
}

// SpecExtras are configuration-sourced additions folded into a
// header-built spec. Keywords and mappings append after the header's own,
// so header entries keep precedence; the charset applies only when the
// header left it unset.
type SpecExtras struct {
	Keywords []string
	Charset  string
	Mappings []TypeMapping
}

// SpecFromCatalogWith builds the spec from the catalog headers and folds
// in the configuration extras.
func SpecFromCatalogWith(cat *catalog.Catalog, extras SpecExtras) *SourceSpec {
	spec := &SourceSpec{
		SearchPaths:   cat.Header.SearchPaths(),
		ExcludedPaths: cat.Header.ExcludedPaths(),
		Keywords:      cat.Header.Keywords(),
		Charset:       cat.Header.Get(catalog.HeaderSourceCharset),
		XgettextFlags: cat.Header.Get(catalog.HeaderXgettextFlags),
		XHeaders:      cat.Header.XHeaders(),
	}

	base := cat.Header.Basepath()
	root := filepath.Dir(cat.Path)
	if cat.Path == "" {
		root = "."
	}
	switch {
	case base == "":
		spec.BasePath = root
	case filepath.IsAbs(base):
		spec.BasePath = base
	default:
		spec.BasePath = filepath.Join(root, base)
	}

	spec.Keywords = append(spec.Keywords, extras.Keywords...)
	spec.TypeMappings = append(spec.TypeMappings, extras.Mappings...)
	if spec.Charset == "" {
		spec.Charset = extras.Charset
	}

	spec.Normalize()
	return spec
}

// Normalize makes BasePath absolute and fills in the charset default.
func (s *SourceSpec) Normalize() {
	if s.BasePath == "" {
		s.BasePath = "."
	}
	if abs, err := filepath.Abs(s.BasePath); err == nil {
		s.BasePath = abs
	}
	if s.Charset == "" {
		s.Charset = "UTF-8"
	}
}

// ResolveSearchPath returns the absolute location of one search path entry.
func (s *SourceSpec) ResolveSearchPath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(s.BasePath, p)
}

// ParsedKeywords returns the keyword list in parsed form, falling back to
// the default marker set when the spec has none.
func (s *SourceSpec) ParsedKeywords() []Keyword {
	if len(s.Keywords) == 0 {
		return DefaultKeywords()
	}
	return ParseKeywords(s.Keywords)
}
