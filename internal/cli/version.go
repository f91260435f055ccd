package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/andywolf/uprava/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print version information including commit hash and build date.`,
	Run: func(cmd *cobra.Command, args []string) {
		if full, _ := cmd.Flags().GetBool("full"); full {
			fmt.Fprintln(cmd.OutOrStdout(), version.Full())
			return
		}
		fmt.Fprintln(cmd.OutOrStdout(), version.Info())
	},
}

func init() {
	versionCmd.Flags().Bool("full", false, "print build details")
	rootCmd.AddCommand(versionCmd)
}
