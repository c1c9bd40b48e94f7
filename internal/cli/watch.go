package cli

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/msgforge/internal/catalog"
	"github.com/mvp-joe/msgforge/internal/extract"
	"github.com/mvp-joe/msgforge/internal/update"
	"github.com/mvp-joe/msgforge/internal/watcher"
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch CATALOG",
	Short: "Watch sources and update the catalog on changes",
	Long: `Watch runs an update whenever the catalog's source files change,
debounced so bursts of edits coalesce into one run. The watcher pauses
itself during each update so the update's own writes never retrigger it.

Examples:
  # Keep a catalog continuously in sync
  msgforge watch po/fr.po

  # Watch with a 2 second quiet period
  MSGFORGE_WATCH_DEBOUNCE_MS=2000 msgforge watch po/fr.po
`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext("Interrupted! Stopping watch...")
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	catalogPath := args[0]
	cat, err := catalog.Load(catalogPath)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	reporter := NewCLIProgressReporter(quietFlag)
	opts, closeTM, err := buildUpdateOptions(cfg, reporter)
	if err != nil {
		return err
	}
	defer closeTM()

	// The registry decides which changed files are worth an update.
	spec := extract.SpecFromCatalogWith(cat, cfg.SpecExtras())
	registry, err := extract.NewRegistry(spec, opts.Extract.RegistryOptions)
	if err != nil {
		return err
	}

	roots := watchRoots(spec)
	if len(roots) == 0 {
		return fmt.Errorf("catalog has no watchable source directories")
	}

	w, err := watcher.New(roots, registry.IsFileSupported, cfg.WatchDebounce())
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer w.Stop()

	runOnce := func() {
		w.Pause()
		defer w.Resume()

		current, err := catalog.Load(catalogPath)
		if err != nil {
			log.Printf("Error: failed to load catalog: %v", err)
			return
		}
		res, err := update.RunFromSources(ctx, current, opts)
		reporter.Finish()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("Error: update failed: %v", err)
			return
		}
		printDiagnostics(res.Diagnostics)
		if err := res.Catalog.Save(catalogPath); err != nil {
			log.Printf("Error: failed to write catalog: %v", err)
			return
		}
		if !quietFlag {
			printMergeResult(res)
		}
	}

	// One full pass before settling in to wait for changes.
	runOnce()
	if ctx.Err() != nil {
		return fmt.Errorf("watch cancelled")
	}

	err = w.Start(ctx, func(files []string) {
		if !quietFlag {
			log.Printf("Source changes detected (%d files), updating...", len(files))
		}
		runOnce()
	})
	if err != nil {
		return err
	}

	if !quietFlag {
		log.Println("Watching for source changes. Press Ctrl+C to stop.")
	}
	<-ctx.Done()
	if !quietFlag {
		log.Println("Watch mode stopped")
	}
	return nil
}

// watchRoots resolves the spec's search paths to existing directories,
// deduplicated. A search path naming a file watches its directory.
func watchRoots(spec *extract.SourceSpec) []string {
	var roots []string
	seen := make(map[string]bool)
	for _, p := range spec.SearchPaths {
		abs := spec.ResolveSearchPath(p)
		info, err := os.Stat(abs)
		if err != nil {
			log.Printf("Warning: skipping unwatchable search path %s: %v", abs, err)
			continue
		}
		if !info.IsDir() {
			abs = filepath.Dir(abs)
		}
		if !seen[abs] {
			seen[abs] = true
			roots = append(roots, abs)
		}
	}
	return roots
}
