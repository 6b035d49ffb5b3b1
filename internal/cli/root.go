// Package cli implements the sedifex-admin command tree. Commands read
// the same environment configuration as the server, so pointing the
// CLI at a deployment is a matter of sharing its .env.
package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand creates the root command for the admin CLI.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "sedifex-admin",
		Short:         "Back-office tooling for a Sedifex deployment",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(NewServeCommand())
	cmd.AddCommand(NewMigrateCommand())
	cmd.AddCommand(NewSeedCommand())
	cmd.AddCommand(NewCreateUserCommand())
	cmd.AddCommand(NewExportSalesCommand())
	cmd.AddCommand(NewVersionCommand())

	return cmd
}
