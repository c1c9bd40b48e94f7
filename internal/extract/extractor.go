package extract

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// Priority orders extractors when partitioning files. Lower values claim
// files first; ties are broken by registration order.
type Priority int

const (
	PriorityHighest            Priority = 1
	PriorityCustomExtension    Priority = 2
	PriorityHigh               Priority = 10
	PrioritySpecializedDefault Priority = 95
	PriorityDefault            Priority = 100
)

// Output is the result of one extractor invocation or of a whole pipeline
// run. An empty TemplateFile means nothing was extracted; that is a normal
// outcome, not an error.
type Output struct {
	TemplateFile string
	Diagnostics  []Diagnostic
}

// Empty reports whether the output carries no extracted strings.
func (o *Output) Empty() bool {
	return o == nil || o.TemplateFile == ""
}

// Extractor scans source files of one language family and produces a
// template-strings file under the scratch directory. Implementations never
// mutate the spec or the file list and never write outside scratchDir.
// Extract is only called with a non-empty file list.
type Extractor interface {
	ID() string
	Priority() Priority
	IsFileSupported(path string) bool
	FilterFiles(files []string) []string
	Extract(ctx context.Context, scratchDir string, spec *SourceSpec, files []string) (*Output, error)
}

// extractorBase carries identity, priority and the extension/wildcard
// registrations shared by all extractor implementations.
type extractorBase struct {
	id        string
	priority  Priority
	exts      map[string]bool
	suffixes  []string // compound extensions like "appdata.xml"
	wildcards []compiledPattern
}

func newExtractorBase(id string, priority Priority) extractorBase {
	return extractorBase{
		id:       id,
		priority: priority,
		exts:     make(map[string]bool),
	}
}

func (b *extractorBase) ID() string         { return b.id }
func (b *extractorBase) Priority() Priority { return b.priority }

// addExtensions registers extensions without their leading dot. Matching is
// case-sensitive: "c" and "C" are different registrations. Compound
// extensions ("appdata.xml") match as filename suffixes.
func (b *extractorBase) addExtensions(exts ...string) {
	for _, e := range exts {
		e = strings.TrimPrefix(e, ".")
		if strings.Contains(e, ".") {
			b.suffixes = append(b.suffixes, "."+e)
			continue
		}
		b.exts[e] = true
	}
}

// addWildcard registers a file mask. Masks without a path separator match
// the basename; masks with one match the slash-normalized full path, with
// relative masks anchored at any directory depth.
func (b *extractorBase) addWildcard(pattern string) error {
	compiled := pattern
	if strings.Contains(pattern, "/") && !strings.HasPrefix(pattern, "/") {
		compiled = "**/" + pattern
	}
	g, err := glob.Compile(compiled, '/')
	if err != nil {
		return wrapPath(err, pattern)
	}
	b.wildcards = append(b.wildcards, compiledPattern{pattern: pattern, glob: g})
	return nil
}

// IsFileSupported reports whether the path's extension or any registered
// wildcard matches.
func (b *extractorBase) IsFileSupported(path string) bool {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext != "" && b.exts[ext] {
		return true
	}
	base := filepath.Base(path)
	for _, suf := range b.suffixes {
		if strings.HasSuffix(base, suf) {
			return true
		}
	}
	for _, cp := range b.wildcards {
		target := base
		if strings.Contains(cp.pattern, "/") {
			target = filepath.ToSlash(path)
		}
		if cp.glob.Match(target) {
			return true
		}
	}
	return false
}

// FilterFiles returns the subset of files the extractor supports, in input
// order.
func (b *extractorBase) FilterFiles(files []string) []string {
	var out []string
	for _, f := range files {
		if b.IsFileSupported(f) {
			out = append(out, f)
		}
	}
	return out
}

// hasRegistrations reports whether anything was registered at all; an
// extractor with no extensions and no wildcards can never claim a file.
func (b *extractorBase) hasRegistrations() bool {
	return len(b.exts) > 0 || len(b.suffixes) > 0 || len(b.wildcards) > 0
}
