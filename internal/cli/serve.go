package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/runtime"
)

// NewServeCommand creates the serve command. It runs the same server
// as cmd/sedifexd so operators can stay inside one binary.
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Sedifex API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := runtime.NewApplication()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := app.Run(ctx); err != nil {
				return err
			}
			return app.Shutdown(context.Background())
		},
	}
}
