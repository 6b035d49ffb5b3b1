package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/runtime"
)

// NewExportSalesCommand creates the export-sales command. The CSV goes
// to stdout so it pipes straight into files or spreadsheets.
func NewExportSalesCommand() *cobra.Command {
	var storeSlug, from, to string

	cmd := &cobra.Command{
		Use:   "export-sales",
		Short: "Export a store's sale lines as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			if storeSlug == "" {
				return fmt.Errorf("--store is required")
			}
			fromT, toT, err := parseDateRange(from, to)
			if err != nil {
				return err
			}

			rt, err := runtime.NewApplication()
			if err != nil {
				return err
			}
			defer rt.Shutdown(context.Background())

			ctx := cmd.Context()
			a := rt.App()

			st, err := a.Stores.GetBySlug(ctx, storeSlug)
			if err != nil {
				return fmt.Errorf("resolve store %q: %w", storeSlug, err)
			}
			return a.Finance.ExportSalesCSV(ctx, st.ID, fromT, toT, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&storeSlug, "store", "", "store slug (required)")
	cmd.Flags().StringVar(&from, "from", "", "start date, YYYY-MM-DD (default unbounded)")
	cmd.Flags().StringVar(&to, "to", "", "end date, YYYY-MM-DD (default unbounded)")

	return cmd
}

// parseDateRange turns optional YYYY-MM-DD bounds into times. The --to
// bound advances to the next midnight so the whole named day is covered.
func parseDateRange(from, to string) (time.Time, time.Time, error) {
	var fromT, toT time.Time
	if from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			return fromT, toT, fmt.Errorf("invalid --from %q: %w", from, err)
		}
		fromT = t
	}
	if to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			return fromT, toT, fmt.Errorf("invalid --to %q: %w", to, err)
		}
		toT = t.Add(24 * time.Hour)
	}
	return fromT, toT, nil
}
