package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/msgforge/internal/catalog"
	"github.com/mvp-joe/msgforge/internal/update"
)

var (
	referenceFlag string
	dryRunFlag    bool
)

// updateCmd represents the update command
var updateCmd = &cobra.Command{
	Use:   "update CATALOG",
	Short: "Update a catalog from its sources",
	Long: `Update extracts translatable strings from the catalog's configured
source paths and merges them into the catalog.

New strings become untranslated entries, entries whose source string
disappeared are kept as obsolete, and close matches to retired entries
are pre-filled and marked fuzzy. With the translation memory enabled,
approved translations are learned after every successful update.

Examples:
  # Update a catalog from the sources its headers point at
  msgforge update po/fr.po

  # Merge against a pre-built template instead of extracting
  msgforge update po/fr.po --reference messages.pot

  # Show what would change without writing the catalog
  msgforge update po/fr.po --dry-run
`,
	Args: cobra.ExactArgs(1),
	RunE: runUpdate,
}

func init() {
	rootCmd.AddCommand(updateCmd)
	updateCmd.Flags().StringVarP(&referenceFlag, "reference", "r", "", "merge against this POT/PO file instead of extracting")
	updateCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "report changes without writing the catalog")
}

func runUpdate(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext("Interrupted! Cancelling update...")
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	cat, err := catalog.Load(args[0])
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	reporter := NewCLIProgressReporter(quietFlag)
	opts, closeTM, err := buildUpdateOptions(cfg, reporter)
	if err != nil {
		return err
	}
	defer closeTM()

	res, err := runUpdateOnce(ctx, cat, referenceFlag, opts)
	reporter.Finish()
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("update cancelled")
		}
		return err
	}

	printDiagnostics(res.Diagnostics)

	if dryRunFlag {
		printMergeResult(res)
		fmt.Println("Dry run, catalog not written")
		return nil
	}

	if err := res.Catalog.Save(args[0]); err != nil {
		return fmt.Errorf("failed to write catalog: %w", err)
	}
	if !quietFlag {
		printMergeResult(res)
	}
	return nil
}

// runUpdateOnce runs one update, against a reference file when given,
// otherwise from the catalog's sources.
func runUpdateOnce(ctx context.Context, cat *catalog.Catalog, reference string, opts update.Options) (*update.Result, error) {
	if reference != "" {
		return update.RunFromReference(ctx, cat, reference, opts)
	}
	return update.RunFromSources(ctx, cat, opts)
}
