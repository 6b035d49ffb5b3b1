package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"

	"github.com/learngermanghana/sedifexbiz-sub004/internal/config"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/platform/migrations"
)

// NewMigrateCommand creates the migrate command. The server also
// applies the schema on boot; this exists for pipelines that migrate
// before rolling instances.
func NewMigrateCommand() *cobra.Command {
	var driver, dsn string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if driver == "" {
				driver = cfg.Database.Driver
			}
			if dsn == "" {
				dsn = cfg.Database.DSN
			}
			if dsn == "" {
				return fmt.Errorf("no database configured: set DATABASE_DSN or pass --dsn")
			}

			db, err := sqlx.Open(driver, dsn)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				return fmt.Errorf("ping database: %w", err)
			}
			if err := migrations.Apply(ctx, db.DB); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "schema up to date (%s)\n", driver)
			return nil
		},
	}

	cmd.Flags().StringVar(&driver, "driver", "", "database driver (default from DATABASE_DRIVER)")
	cmd.Flags().StringVar(&dsn, "dsn", "", "database DSN (default from DATABASE_DSN)")

	return cmd
}
