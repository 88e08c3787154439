package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Set with -ldflags "-X github.com/wonny/sector-rotation/cmd/quant/commands.Version=..."
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "버전 정보",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(out, "quant %s (commit %s, built %s, %s)\n", Version, Commit, BuildDate, runtime.Version())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
