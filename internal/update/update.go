// Package update runs the full catalog update: collect source files,
// extract translatable strings, merge the result into the existing
// catalog. Synchronous entry points serve batch callers; Task wraps them
// for asynchronous use with cancellation and exactly-once delivery.
package update

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/mvp-joe/msgforge/internal/catalog"
	"github.com/mvp-joe/msgforge/internal/extract"
	"github.com/mvp-joe/msgforge/internal/merge"
)

// Learner receives the merged catalog's approved entries after a
// successful update.
type Learner interface {
	LearnCatalog(ctx context.Context, cat *catalog.Catalog) (int, error)
}

// Options configures an update run.
type Options struct {
	// Extract configures the extractor registry and the worker pool.
	Extract extract.PipelineOptions

	// Spec carries configuration additions folded into the header-built
	// source spec: extra keywords, mappings, a fallback charset.
	Spec extract.SpecExtras

	// Merge configures the merge behavior and its translation source.
	Merge merge.Options

	// Learn, when set, is fed the merged catalog after a successful run.
	// Learning failures are logged, never fatal.
	Learn Learner

	// Progress receives phase callbacks. Nil means silent.
	Progress ProgressReporter
}

// Result is the outcome of a completed update: the merge result plus the
// diagnostics the extractors reported along the way.
type Result struct {
	*merge.Result
	Diagnostics []extract.Diagnostic
}

// RunFromSources extracts the catalog's configured source tree and merges
// the extracted strings into it. The catalog passed in is never mutated;
// the merged copy is returned.
func RunFromSources(ctx context.Context, cat *catalog.Catalog, opts Options) (*Result, error) {
	if cat == nil {
		return nil, fmt.Errorf("update: no catalog")
	}
	reporter := opts.Progress
	if reporter == nil {
		reporter = &NoOpProgressReporter{}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reporter.OnPhase("Collecting source files...")
	spec := extract.SpecFromCatalogWith(cat, opts.Spec)
	files, err := extract.CollectAllFiles(spec)
	if err != nil {
		return nil, err
	}
	reporter.OnCollectComplete(len(files))

	scratchDir := filepath.Join(os.TempDir(), "msgforge-"+uuid.NewString())
	if err := os.MkdirAll(scratchDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	defer os.RemoveAll(scratchDir)

	reporter.OnPhase(fmt.Sprintf("Extracting translatable strings from %d files...", len(files)))
	out, err := extract.ExtractWithAll(ctx, scratchDir, spec, files, opts.Extract)
	if err != nil {
		return nil, err
	}

	// An empty template file means the sources contained no marked
	// strings; the merge then retires every catalog entry.
	tmpl := catalog.New()
	if out.TemplateFile != "" {
		tmpl, err = catalog.Load(out.TemplateFile)
		if err != nil {
			return nil, fmt.Errorf("failed to parse extracted template: %w", err)
		}
	}

	res, err := mergeInto(ctx, reporter, cat, tmpl, opts)
	if err != nil {
		return nil, err
	}
	return &Result{Result: res, Diagnostics: out.Diagnostics}, nil
}

// RunFromReference parses a reference template or catalog file and merges
// its strings into the catalog, skipping extraction entirely.
func RunFromReference(ctx context.Context, cat *catalog.Catalog, refPath string, opts Options) (*Result, error) {
	if cat == nil {
		return nil, fmt.Errorf("update: no catalog")
	}
	reporter := opts.Progress
	if reporter == nil {
		reporter = &NoOpProgressReporter{}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reporter.OnPhase("Loading reference file...")
	tmpl, err := catalog.LoadReference(refPath)
	if err != nil {
		return nil, fmt.Errorf("failed to parse reference file: %w", err)
	}

	res, err := mergeInto(ctx, reporter, cat, tmpl, opts)
	if err != nil {
		return nil, err
	}
	return &Result{Result: res}, nil
}

// mergeInto is the shared tail of both update flows: preview, merge,
// learn. Cancellation is honored before the merge starts, never mid-merge
// in a way that exposes partial state.
func mergeInto(ctx context.Context, reporter ProgressReporter, old, tmpl *catalog.Catalog, opts Options) (*merge.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reporter.OnPhase("Determining differences...")
	reporter.OnPreview(merge.ComputeStats(old, tmpl))

	reporter.OnPhase("Merging differences...")
	res, err := merge.Merge(ctx, old, tmpl, opts.Merge)
	if err != nil {
		return nil, err
	}

	if opts.Learn != nil {
		if _, err := opts.Learn.LearnCatalog(ctx, res.Catalog); err != nil {
			log.Printf("Warning: failed to update translation memory: %v", err)
		}
	}
	return res, nil
}
