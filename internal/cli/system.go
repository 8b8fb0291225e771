package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/shayne-snap/quantpole/internal/display"
	"github.com/shayne-snap/quantpole/internal/hardware"
)

var systemCmd = &cobra.Command{
	Use:   "system",
	Short: "Show the host profile and suggested deployment constraints",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := hardware.Detect()
		if err != nil {
			return err
		}
		display.System(os.Stdout, p, hardware.SuggestConstraints(p), globalJSON)
		return nil
	},
}
