package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/msgforge/internal/tm"
)

// tmCmd represents the tm command group
var tmCmd = &cobra.Command{
	Use:   "tm",
	Short: "Manage the translation memory",
	Long: `Manage the local translation memory.

The translation memory stores approved source/translation pairs per
language and serves them back as suggestions during merges.

Available commands:
  import - Learn pairs from existing PO catalogs
  query  - Look up suggestions for a source string
  stats  - Show stored pair counts per language`,
}

// tmImportCmd learns pairs from catalogs
var tmImportCmd = &cobra.Command{
	Use:   "import FILE...",
	Short: "Learn pairs from existing PO catalogs",
	Long: `Import reads translated PO catalogs and stores their non-fuzzy
singular entries in the translation memory. The catalog's Language
header decides which language the pairs belong to.

Examples:
  msgforge tm import po/fr.po po/de.po`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTMImport,
}

// tmQueryCmd looks up suggestions
var tmQueryCmd = &cobra.Command{
	Use:   "query LANG TEXT",
	Short: "Look up suggestions for a source string",
	Long: `Query prints the stored suggestions for a source string in the
given language, best first.

Examples:
  msgforge tm query fr "Open file"`,
	Args: cobra.ExactArgs(2),
	RunE: runTMQuery,
}

// tmStatsCmd shows stored pair counts
var tmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show stored pair counts per language",
	RunE:  runTMStats,
}

func init() {
	rootCmd.AddCommand(tmCmd)
	tmCmd.AddCommand(tmImportCmd)
	tmCmd.AddCommand(tmQueryCmd)
	tmCmd.AddCommand(tmStatsCmd)
}

// openTM opens the translation memory with the configured location and
// thresholds.
func openTM() (*tm.TM, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	memory, err := tm.Open(tm.Options{
		Location: cfg.TM.Location,
		MinScore: cfg.TM.MinScore,
		Timeout:  cfg.TMTimeout(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open translation memory: %w", err)
	}
	return memory, nil
}

func runTMImport(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext("Interrupted! Stopping import...")
	defer cancel()

	memory, err := openTM()
	if err != nil {
		return err
	}
	defer memory.Close()

	total := 0
	for _, path := range args {
		n, err := memory.ImportCatalog(ctx, path)
		if err != nil {
			return fmt.Errorf("failed to import %s: %w", path, err)
		}
		total += n
		if !quietFlag {
			fmt.Printf("%s: learned %d pairs\n", path, n)
		}
	}
	fmt.Printf("✓ Imported %d translation pairs\n", total)
	return nil
}

func runTMQuery(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext("Interrupted!")
	defer cancel()

	memory, err := openTM()
	if err != nil {
		return err
	}
	defer memory.Close()

	lang, text := args[0], args[1]
	suggestions, err := memory.Suggest(ctx, text, lang)
	if err != nil {
		return fmt.Errorf("lookup failed: %w", err)
	}
	if len(suggestions) == 0 {
		fmt.Println("No suggestions")
		return nil
	}
	for _, s := range suggestions {
		fmt.Printf("%.2f  %s  (%s)\n", s.Score, s.Text, s.Origin)
	}
	return nil
}

func runTMStats(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext("Interrupted!")
	defer cancel()

	memory, err := openTM()
	if err != nil {
		return err
	}
	defer memory.Close()

	stats, err := memory.Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to read stats: %w", err)
	}

	fmt.Printf("Pairs: %d\n", stats.Pairs)
	if len(stats.Languages) > 0 {
		fmt.Println("Languages:")
		for _, l := range stats.Languages {
			fmt.Printf("  %-8s %d\n", l.Lang, l.Pairs)
		}
	}
	return nil
}
