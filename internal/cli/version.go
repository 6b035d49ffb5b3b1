package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Version metadata, stamped by the build via
// -ldflags "-X .../internal/cli.version=v1.2.3".
var (
	version = "dev"
	commit  = "unknown"
)

// NewVersionCommand creates the version command.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "sedifex %s (%s) %s\n", version, commit, runtime.Version())
		},
	}
}
