package extract

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/mvp-joe/msgforge/internal/catalog"
)

// PipelineOptions configure one extraction run.
type PipelineOptions struct {
	RegistryOptions

	// Jobs bounds how many extractors run concurrently, 0 means NumCPU.
	Jobs int
}

// ExtractWithAll runs the full extraction pipeline: builds the extractor
// family for the spec, partitions files among it by priority, runs each
// partition, and concatenates the partial outputs into one Output. An
// empty file list or a run where no extractor claims anything yields an
// all-empty Output, not an error.
func ExtractWithAll(ctx context.Context, scratchDir string, spec *SourceSpec, files []string, opts PipelineOptions) (*Output, error) {
	reg, err := NewRegistry(spec, opts.RegistryOptions)
	if err != nil {
		return nil, err
	}
	return reg.Extract(ctx, scratchDir, spec, files, opts.Jobs)
}

// Extract partitions files among the registered extractors and runs each
// non-empty partition, at most jobs at a time. Partial outputs are
// concatenated in partition order. A failed extractor becomes an error
// diagnostic as long as at least one other extractor succeeded; when
// every extractor fails the run fails.
func (r *Registry) Extract(ctx context.Context, scratchDir string, spec *SourceSpec, files []string, jobs int) (*Output, error) {
	assignments := r.Partition(files)
	if len(assignments) == 0 {
		return &Output{}, nil
	}

	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}
	if jobs > len(assignments) {
		jobs = len(assignments)
	}

	// Each extractor gets its own subdirectory so their intermediate
	// files cannot collide.
	dirs := make([]string, len(assignments))
	for i := range assignments {
		dirs[i] = filepath.Join(scratchDir, fmt.Sprintf("part-%d", i))
		if err := os.MkdirAll(dirs[i], 0o755); err != nil {
			return nil, fmt.Errorf("failed to create scratch directory: %w", err)
		}
	}

	type partial struct {
		out *Output
		err error
	}
	results := make([]partial, len(assignments))

	var wg sync.WaitGroup
	sem := make(chan struct{}, jobs)
launch:
	for i, a := range assignments {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break launch
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func(i int, a Assignment) {
			defer wg.Done()
			defer func() { <-sem }()
			out, err := a.Extractor.Extract(ctx, dirs[i], spec, a.Files)
			results[i] = partial{out: out, err: err}
		}(i, a)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	combined := &Output{}
	var (
		outputs  []*Output
		failures int
		firstErr error
	)
	for i, res := range results {
		if res.out != nil {
			combined.Diagnostics = append(combined.Diagnostics, res.out.Diagnostics...)
		}
		if res.err != nil {
			failures++
			if firstErr == nil {
				firstErr = res.err
			}
			id := assignments[i].Extractor.ID()
			log.Printf("Warning: extractor %s failed: %v", id, res.err)
			combined.Diagnostics = append(combined.Diagnostics, Diagnostic{
				Severity: SeverityError,
				Line:     -1,
				Message:  fmt.Sprintf("extractor %s failed: %v", id, res.err),
			})
			continue
		}
		if res.out != nil {
			outputs = append(outputs, res.out)
		}
	}
	if failures == len(assignments) {
		return nil, fmt.Errorf("extraction failed: %w", firstErr)
	}

	tmpl, err := concatTemplates(scratchDir, outputs)
	if err != nil {
		return nil, err
	}
	combined.TemplateFile = tmpl
	return combined, nil
}

// concatTemplates merges the partial template files into one. Entries are
// deduplicated by msgid plus context in first-seen order, with reference
// locations and extracted comments of later duplicates folded into the
// first occurrence. Returns "" when no partial produced any entries.
func concatTemplates(scratchDir string, outputs []*Output) (string, error) {
	var paths []string
	for _, out := range outputs {
		if out.TemplateFile != "" {
			paths = append(paths, out.TemplateFile)
		}
	}
	switch len(paths) {
	case 0:
		return "", nil
	case 1:
		return paths[0], nil
	}

	merged := catalog.New()
	for _, p := range paths {
		part, err := catalog.Load(p)
		if err != nil {
			return "", fmt.Errorf("failed to read extracted template %s: %w", p, err)
		}
		for _, it := range part.Items {
			merged.Append(it.Clone())
		}
	}
	merged.FixDuplicateItems()

	path := filepath.Join(scratchDir, "template.pot")
	if err := merged.Save(path); err != nil {
		return "", fmt.Errorf("failed to write combined template: %w", err)
	}
	return path, nil
}
