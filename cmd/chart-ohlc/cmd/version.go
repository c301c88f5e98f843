package cmd

import (
	"fmt"

	"github.com/ironsheep/chart-ohlc/internal/config"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "chart-ohlc %s\n", Version)
		fmt.Fprintf(out, "  Build time: %s\n", BuildTime)
		fmt.Fprintf(out, "  Git commit: %s\n", GitCommit)

		st := config.Default().OCRCapability().Status()
		if st.Available {
			fmt.Fprintf(out, "  OCR: %s %s\n", st.Backend, st.Version)
		} else {
			fmt.Fprintf(out, "  OCR: unavailable (%s)\n", st.Reason)
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
