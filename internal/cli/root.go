package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set by main from ldflags or "dev". Used for --version / -v.
var Version string

var (
	globalJSON  bool
	globalQuiet bool
	showVersion bool
)

var rootCmd = &cobra.Command{
	Use:   "quantpole",
	Short: "Pick the best model-compression strategy for a target device",
	Long: "quantpole compresses a trained classifier with every strategy in the catalog, benchmarks each candidate against the uncompressed baseline, and selects the smallest build that satisfies your size and accuracy-retention constraints (falling back to a best-effort pick when none does).",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			if Version == "" {
				Version = "dev"
			}
			fmt.Println(Version)
			os.Exit(0)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&globalJSON, "json", false, "Output results as JSON")
	rootCmd.PersistentFlags().BoolVarP(&globalQuiet, "quiet", "q", false, "Suppress pipeline logging")
	rootCmd.PersistentFlags().BoolVarP(&showVersion, "version", "v", false, "Print version and exit")

	rootCmd.AddCommand(runCmd, strategiesCmd, systemCmd, showCmd)
}

// Execute runs the root command. Returns error for exit code handling.
func Execute() error {
	return rootCmd.Execute()
}
