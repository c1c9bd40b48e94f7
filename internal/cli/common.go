package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mvp-joe/msgforge/internal/config"
	"github.com/mvp-joe/msgforge/internal/extract"
	"github.com/mvp-joe/msgforge/internal/merge"
	"github.com/mvp-joe/msgforge/internal/tm"
	"github.com/mvp-joe/msgforge/internal/update"
)

// signalContext returns a context cancelled on Ctrl+C or SIGTERM,
// printing the message once when that happens.
func signalContext(message string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\n" + message)
		cancel()
	}()

	return ctx, cancel
}

// loadConfig loads configuration from --config-dir, or from the working
// directory when the flag is unset.
func loadConfig() (*config.Config, error) {
	if cfgDir != "" {
		return config.LoadConfigFromDir(cfgDir)
	}
	return config.LoadConfig()
}

// locateTools probes for xgettext. A missing tool is not an error, the
// embedded scanners take over; an explicitly configured path that does
// not work is.
func locateTools(cfg *config.Config) (*extract.Tools, error) {
	tools, err := extract.FindTools(cfg.Tools.XGettext)
	if err != nil {
		if cfg.Tools.XGettext != "" {
			return nil, fmt.Errorf("configured xgettext unusable: %w", err)
		}
		log.Printf("Warning: %v", err)
		return nil, nil
	}
	return tools, nil
}

// buildUpdateOptions assembles an update run from configuration:
// extractor registry inputs, merge behavior, translation memory wiring.
// The returned closer releases the translation memory when one was
// opened.
func buildUpdateOptions(cfg *config.Config, reporter update.ProgressReporter) (update.Options, func(), error) {
	opts := update.Options{
		Spec:     cfg.SpecExtras(),
		Progress: reporter,
	}

	tools, err := locateTools(cfg)
	if err != nil {
		return update.Options{}, nil, err
	}
	opts.Extract = extract.PipelineOptions{
		RegistryOptions: extract.RegistryOptions{
			Tools:      tools,
			PreferScan: cfg.Extract.PreferScan,
			Legacy:     cfg.LegacyRules(),
		},
		Jobs: cfg.Extract.Jobs,
	}

	behavior, err := cfg.MergeBehavior()
	if err != nil {
		return update.Options{}, nil, err
	}
	opts.Merge = merge.Options{
		Behavior:      behavior,
		MinSimilarity: cfg.Merge.MinSimilarity,
	}

	closer := func() {}
	if cfg.TM.Enabled {
		memory, err := tm.Open(tm.Options{
			Location: cfg.TM.Location,
			MinScore: cfg.TM.MinScore,
			Timeout:  cfg.TMTimeout(),
		})
		if err != nil {
			log.Printf("Warning: translation memory unavailable: %v", err)
		} else {
			opts.Merge.TM = memory
			opts.Learn = memory
			closer = func() {
				if err := memory.Close(); err != nil {
					log.Printf("Warning: failed to close translation memory: %v", err)
				}
			}
		}
	} else if behavior == merge.UseTM {
		log.Printf("Warning: merge behavior 'tm' needs the translation memory enabled, falling back to fuzzy matching")
		opts.Merge.Behavior = merge.FuzzyMatch
	}

	return opts, closer, nil
}

// printDiagnostics writes extractor diagnostics to stderr, one per line.
func printDiagnostics(diags []extract.Diagnostic) {
	for _, d := range diags {
		fmt.Fprintln(os.Stderr, d.String())
	}
}

// printMergeResult summarizes a finished merge on stdout.
func printMergeResult(res *update.Result) {
	stats := res.Stats
	fmt.Printf("✓ Merge complete: %d new, %d updated, %d obsoleted, %d pre-filled\n",
		stats.Added, stats.Updated, stats.Obsolete, stats.Fuzzied)
	for _, issue := range res.Issues {
		fmt.Printf("  note: %s: %s\n", issue.Key, issue.Message)
	}
}
