package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/ianaindex"

	"github.com/mvp-joe/msgforge/internal/catalog"
	"github.com/mvp-joe/msgforge/internal/extract/scan"
)

// Default extensions claimed by each embedded scanner. The scan family
// deliberately leaves C++ and friends to xgettext; grammars are registered
// only for what they parse well.
var scanExtensions = map[string][]string{
	"c":          {"c", "h"},
	"python":     {"py"},
	"php":        {"php", "php3", "php4", "phtml", "ctp"},
	"ruby":       {"rb"},
	"rust":       {"rs"},
	"java":       {"java"},
	"typescript": {"ts"},
	"tsx":        {"tsx"},
	"javascript": {"js", "jsx"},
}

const scanOutput = "scan.pot"

// scanExtractor extracts with an embedded tree-sitter scanner instead of an
// external tool.
type scanExtractor struct {
	extractorBase
	scanner *scan.Scanner
}

// NewScanExtractor returns a scanner-backed extractor for the language at
// the given priority, claiming the language's default extensions.
func NewScanExtractor(lang string, priority Priority) (Extractor, error) {
	e, err := newScanExtractor(lang, priority)
	if err != nil {
		return nil, err
	}
	e.addExtensions(scanExtensions[lang]...)
	return e, nil
}

// NewScanMappingExtractor returns a scanner-backed extractor claiming only
// the given mask, for "scan:<lang>" type mappings.
func NewScanMappingExtractor(lang, mask string, priority Priority) (Extractor, error) {
	e, err := newScanExtractor(lang, priority)
	if err != nil {
		return nil, err
	}
	if strings.ContainsAny(mask, "*?[") {
		if err := e.addWildcard(mask); err != nil {
			return nil, err
		}
	} else {
		e.addExtensions(mask)
	}
	return e, nil
}

func newScanExtractor(lang string, priority Priority) (*scanExtractor, error) {
	scanner, err := scan.New(lang)
	if err != nil {
		return nil, err
	}
	return &scanExtractor{
		extractorBase: newExtractorBase("scan-"+lang, priority),
		scanner:       scanner,
	}, nil
}

func (e *scanExtractor) Extract(ctx context.Context, scratchDir string, spec *SourceSpec, files []string) (*Output, error) {
	keywords := toScanKeywords(spec.ParsedKeywords())

	out := catalog.New()
	byKey := make(map[catalog.Key]*catalog.Item)
	var diags []Diagnostic

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		source, err := readSource(f, spec.Charset)
		if err != nil {
			diags = append(diags, Diagnostic{
				Severity: SeverityWarning,
				File:     displayPath(spec, f),
				Line:     -1,
				Message:  err.Error(),
			})
			continue
		}
		msgs, err := e.scanner.ScanFile(displayPath(spec, f), source, keywords)
		if err != nil {
			diags = append(diags, Diagnostic{
				Severity: SeverityWarning,
				File:     displayPath(spec, f),
				Line:     -1,
				Message:  err.Error(),
			})
			continue
		}
		for _, m := range msgs {
			addMessage(out, byKey, m)
		}
	}

	if len(out.Items) == 0 {
		return &Output{Diagnostics: diags}, nil
	}

	potPath := filepath.Join(scratchDir, scanOutput)
	if err := out.Save(potPath); err != nil {
		return &Output{Diagnostics: diags}, err
	}
	return &Output{TemplateFile: potPath, Diagnostics: diags}, nil
}

// addMessage merges one occurrence into the output catalog, combining
// references on repeats.
func addMessage(out *catalog.Catalog, byKey map[catalog.Key]*catalog.Item, m scan.Message) {
	ref := fmt.Sprintf("%s:%d", filepath.ToSlash(m.File), m.Line)
	key := catalog.Key{ID: m.ID, Context: m.Context}
	if it, ok := byKey[key]; ok {
		it.References = append(it.References, ref)
		if it.PluralID == "" && m.PluralID != "" {
			it.PluralID = m.PluralID
		}
		if m.Comment != "" && !contains(it.ExtractedComments, m.Comment) {
			it.ExtractedComments = append(it.ExtractedComments, m.Comment)
		}
		return
	}
	it := &catalog.Item{
		ID:         m.ID,
		PluralID:   m.PluralID,
		Context:    m.Context,
		References: []string{ref},
	}
	if m.Comment != "" {
		it.ExtractedComments = []string{m.Comment}
	}
	byKey[key] = it
	out.Append(it)
}

// readSource loads a file and converts it to UTF-8 when the spec declares a
// different source charset.
func readSource(path, charset string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if charset == "" || strings.EqualFold(charset, "UTF-8") || strings.EqualFold(charset, "UTF8") {
		return data, nil
	}
	enc, err := ianaindex.IANA.Encoding(charset)
	if err != nil || enc == nil {
		return data, nil
	}
	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return data, nil
	}
	return decoded, nil
}

// displayPath renders a file relative to the base path for references.
func displayPath(spec *SourceSpec, path string) string {
	if rel, ok := relativeTo(spec.BasePath, path); ok {
		return rel
	}
	return filepath.ToSlash(path)
}

func toScanKeywords(kws []Keyword) []scan.Keyword {
	out := make([]scan.Keyword, len(kws))
	for i, k := range kws {
		out[i] = scan.Keyword{
			Name:        k.Name,
			SingularArg: k.SingularArg,
			PluralArg:   k.PluralArg,
			ContextArg:  k.ContextArg,
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
