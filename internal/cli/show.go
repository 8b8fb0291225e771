package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/shayne-snap/quantpole/internal/display"
	"github.com/shayne-snap/quantpole/internal/report"
)

var showCmd = &cobra.Command{
	Use:   "show <report.json>",
	Short: "Pretty-print a previously written quantization report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := report.ReadFile(args[0])
		if err != nil {
			return err
		}
		display.Report(os.Stdout, r, globalJSON)
		return nil
	},
}
