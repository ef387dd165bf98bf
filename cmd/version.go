// =============================================================================
// OC Harvester - Version Command
// =============================================================================
//
// COMMAND USAGE:
//   oc-harvester version
//
// OUTPUT:
//   OC Harvester
//   Version:    1.0.0
//   Build Date: 2025-12-20
//   Go Version: go1.24.11
//
// =============================================================================

package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Version and BuildDate are set at build time:
//
//	go build -ldflags "-X 'github.com/hbsjo/oc-harvester/cmd.Version=1.1.0' -X 'github.com/hbsjo/oc-harvester/cmd.BuildDate=2025-12-20'"
var (
	Version   = "1.0.0"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display the application version",
	Long:  `Display the application version, build date, and Go runtime version.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "OC Harvester")
		fmt.Fprintf(out, "Version:    %s\n", Version)
		fmt.Fprintf(out, "Build Date: %s\n", BuildDate)
		fmt.Fprintf(out, "Go Version: %s\n", runtime.Version())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
