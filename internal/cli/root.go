// Package cli implements the msgforge command line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgDir    string
	quietFlag bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "msgforge",
	Short: "msgforge - translation catalog maintenance",
	Long: `msgforge keeps gettext translation catalogs in sync with their sources.

It extracts translatable strings from source trees, merges them into
existing PO catalogs with fuzzy matching, and fills new entries from a
local translation memory.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgDir, "config-dir", "", "directory containing .msgforge/config.yml (default is the working directory)")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "disable progress output")
}
