package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var shortVersionFlag bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		if shortVersionFlag {
			fmt.Fprintln(out, version)
			return
		}
		fmt.Fprintf(out, "hitchain version %s\n", version)
		fmt.Fprintf(out, "Built: %s\n", buildTime)
		fmt.Fprintf(out, "Go: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	versionCmd.Flags().BoolVar(&shortVersionFlag, "short", false, "Print only the version number")
}
