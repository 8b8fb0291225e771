package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/shayne-snap/quantpole/internal/display"
	"github.com/shayne-snap/quantpole/internal/quant"
)

var strategiesCmd = &cobra.Command{
	Use:   "strategies",
	Short: "List the compression strategy catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		display.Strategies(os.Stdout, quant.List(), globalJSON)
		return nil
	},
}
