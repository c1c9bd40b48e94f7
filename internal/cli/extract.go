package cli

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mvp-joe/msgforge/internal/catalog"
	"github.com/mvp-joe/msgforge/internal/extract"
)

var outputFlag string

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract CATALOG",
	Short: "Extract translatable strings into a template",
	Long: `Extract collects translatable strings from the catalog's configured
source paths and writes them to a POT template. The catalog itself is
left untouched; use update to merge.

Examples:
  # Write the extracted template
  msgforge extract po/fr.po --output messages.pot
`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().StringVarP(&outputFlag, "output", "o", "messages.pot", "template file to write")
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext("Interrupted! Cancelling extraction...")
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	cat, err := catalog.Load(args[0])
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	tools, err := locateTools(cfg)
	if err != nil {
		return err
	}

	reporter := NewCLIProgressReporter(quietFlag)
	defer reporter.Finish()

	reporter.OnPhase("Collecting source files...")
	spec := extract.SpecFromCatalogWith(cat, cfg.SpecExtras())
	files, err := extract.CollectAllFiles(spec)
	if err != nil {
		return err
	}
	reporter.OnCollectComplete(len(files))

	scratchDir := filepath.Join(os.TempDir(), "msgforge-"+uuid.NewString())
	if err := os.MkdirAll(scratchDir, 0755); err != nil {
		return fmt.Errorf("failed to create scratch directory: %w", err)
	}
	defer os.RemoveAll(scratchDir)

	reporter.OnPhase(fmt.Sprintf("Extracting translatable strings from %d files...", len(files)))
	out, err := extract.ExtractWithAll(ctx, scratchDir, spec, files, extract.PipelineOptions{
		RegistryOptions: extract.RegistryOptions{
			Tools:      tools,
			PreferScan: cfg.Extract.PreferScan,
			Legacy:     cfg.LegacyRules(),
		},
		Jobs: cfg.Extract.Jobs,
	})
	reporter.Finish()
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("extraction cancelled")
		}
		return err
	}

	printDiagnostics(out.Diagnostics)

	// An empty result still writes a valid template so CI diffing works.
	tmpl := catalog.New()
	if out.TemplateFile != "" {
		tmpl, err = catalog.Load(out.TemplateFile)
		if err != nil {
			return fmt.Errorf("failed to parse extracted template: %w", err)
		}
	} else {
		log.Printf("Warning: no translatable strings found")
	}

	if err := tmpl.Save(outputFlag); err != nil {
		return fmt.Errorf("failed to write template: %w", err)
	}
	if !quietFlag {
		fmt.Printf("✓ Extracted %d strings to %s\n", len(tmpl.Items), outputFlag)
	}
	return nil
}
