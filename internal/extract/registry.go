package extract

import (
	"fmt"
	"log"
	"sort"
	"strings"
)

// RegistryOptions configure which extractor families are instantiated.
type RegistryOptions struct {
	// Tools is the located xgettext toolchain, nil when not installed.
	Tools *Tools

	// PreferScan registers the embedded scanners ahead of xgettext even
	// when the toolchain is present.
	PreferScan bool

	// Legacy holds user-defined command-template extractors.
	Legacy []LegacyRule
}

// Registry holds the extractor family for one run in registration order
// and partitions collected files among them.
type Registry struct {
	extractors []Extractor
}

// NewRegistry instantiates the applicable extractors for a spec in fixed
// registration order: legacy rules, type-mapping overrides, specialized
// families, then the generic keyword scanners. When xgettext is missing
// the embedded scanners take over its languages.
func NewRegistry(spec *SourceSpec, opts RegistryOptions) (*Registry, error) {
	r := &Registry{}

	for _, rule := range opts.Legacy {
		e, err := NewLegacyExtractor(rule)
		if err != nil {
			return nil, err
		}
		r.Add(e)
	}

	for _, m := range spec.TypeMappings {
		e, err := mappingExtractor(m, opts.Tools)
		if err != nil {
			return nil, err
		}
		r.Add(e)
	}

	useScan := opts.PreferScan || opts.Tools == nil
	if opts.Tools != nil {
		r.Add(NewPHPTemplateExtractor(opts.Tools))
	}
	if useScan {
		for _, lang := range scanLanguages() {
			e, err := NewScanExtractor(lang, PrioritySpecializedDefault)
			if err != nil {
				return nil, err
			}
			r.Add(e)
		}
	}
	if opts.Tools != nil {
		r.Add(NewXGettextExtractor(opts.Tools))
	} else {
		log.Printf("Warning: xgettext not found, falling back to embedded scanners")
	}

	if len(r.extractors) == 0 {
		return nil, fmt.Errorf("no extractors available")
	}
	return r, nil
}

// mappingExtractor builds the extractor for one type mapping.
func mappingExtractor(m TypeMapping, tools *Tools) (Extractor, error) {
	switch m.Engine() {
	case "gettext":
		if tools == nil {
			return nil, fmt.Errorf("mapping %q needs xgettext, which is not installed", m.Mask)
		}
		e := NewCustomXGettextExtractor(tools, m.Lang(), PriorityCustomExtension)
		if strings.ContainsAny(m.Mask, "*?[") {
			if err := e.addWildcard(m.Mask); err != nil {
				return nil, err
			}
		} else {
			e.addExtensions(m.Mask)
		}
		return e, nil
	case "scan":
		return NewScanMappingExtractor(m.Lang(), m.Mask, PriorityCustomExtension)
	default:
		return nil, fmt.Errorf("unknown mapping engine %q in %q", m.Engine(), m.Target)
	}
}

// scanLanguages returns the scanner languages in deterministic
// registration order. The alias languages share claimed extensions with
// their base grammar, so only canonical names register.
func scanLanguages() []string {
	return []string{"c", "python", "php", "ruby", "rust", "java", "typescript", "tsx", "javascript"}
}

// Add appends an extractor, keeping registration order for tie-breaks.
func (r *Registry) Add(e Extractor) {
	r.extractors = append(r.extractors, e)
}

// IsFileSupported reports whether any registered extractor claims the
// path. Watch mode uses this to filter filesystem events down to files an
// update would actually extract.
func (r *Registry) IsFileSupported(path string) bool {
	for _, e := range r.extractors {
		if e.IsFileSupported(path) {
			return true
		}
	}
	return false
}

// Extractors returns the registered extractors ordered by ascending
// priority, registration order breaking ties.
func (r *Registry) Extractors() []Extractor {
	out := make([]Extractor, len(r.extractors))
	copy(out, r.extractors)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority() < out[j].Priority()
	})
	return out
}

// Assignment pairs an extractor with the files it claimed.
type Assignment struct {
	Extractor Extractor
	Files     []string
}

// Partition assigns files to extractors in ascending priority order. Each
// extractor claims from the pool that remains after higher-priority ones
// took theirs, so every file lands with exactly one extractor or none.
// Extractors that claim nothing are dropped from the result.
func (r *Registry) Partition(files []string) []Assignment {
	var out []Assignment
	remaining := files
	for _, e := range r.Extractors() {
		claimed := e.FilterFiles(remaining)
		if len(claimed) == 0 {
			continue
		}
		out = append(out, Assignment{Extractor: e, Files: claimed})
		remaining = subtract(remaining, claimed)
		if len(remaining) == 0 {
			break
		}
	}
	return out
}

// subtract returns files minus claimed, preserving order. Claimed is
// always a subsequence of files, so a single linear pass suffices.
func subtract(files, claimed []string) []string {
	taken := make(map[string]bool, len(claimed))
	for _, f := range claimed {
		taken[f] = true
	}
	var out []string
	for _, f := range files {
		if !taken[f] {
			out = append(out, f)
		}
	}
	return out
}
