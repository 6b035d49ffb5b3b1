package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/runtime"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/services/customers"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/services/products"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/services/stores"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/services/users"
)

// demoProducts is a small Ghanaian corner-shop catalogue, enough to
// exercise sales, low-stock alerts and receipts out of the box.
var demoProducts = []products.CreateInput{
	{Name: "Voltic Water 750ml", SKU: "VOL-750", Category: "Drinks", PriceCents: 500, CostCents: 320, StockCount: 48, ReorderLevel: 12},
	{Name: "Milo Sachet 20g", SKU: "MIL-020", Category: "Beverages", PriceCents: 250, CostCents: 170, StockCount: 100, ReorderLevel: 24},
	{Name: "Gino Tomato Paste 70g", SKU: "GIN-070", Category: "Groceries", PriceCents: 400, CostCents: 260, StockCount: 36, ReorderLevel: 10},
	{Name: "Key Soap Bar", SKU: "KEY-001", Category: "Household", PriceCents: 700, CostCents: 450, StockCount: 20, ReorderLevel: 6},
	{Name: "Exercise Book 80pg", SKU: "EXB-080", Category: "Stationery", PriceCents: 300, CostCents: 180, StockCount: 60, ReorderLevel: 15},
}

// NewSeedCommand creates the seed command. It provisions a demo owner,
// store, catalogue and customers against whatever storage the
// environment points at.
func NewSeedCommand() *cobra.Command {
	var email, password, storeName string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create a demo store with sample data",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := runtime.NewApplication()
			if err != nil {
				return err
			}
			defer rt.Shutdown(context.Background())

			ctx := cmd.Context()
			a := rt.App()

			owner, err := a.Users.Register(ctx, users.RegisterInput{
				Email:       email,
				Password:    password,
				DisplayName: "Demo Owner",
			})
			if err != nil {
				return fmt.Errorf("create demo owner: %w", err)
			}

			st, _, err := a.Stores.Initialize(ctx, owner.ID, stores.InitializeInput{
				Name:          storeName,
				Currency:      "GHS",
				Address:       "12 Oxford Street, Osu, Accra",
				Phone:         "+233 20 000 0000",
				ReceiptFooter: "Thank you, come again!",
			})
			if err != nil {
				return fmt.Errorf("create demo store: %w", err)
			}

			for _, p := range demoProducts {
				if _, err := a.Products.Create(ctx, st.ID, owner.ID, p); err != nil {
					return fmt.Errorf("create product %s: %w", p.Name, err)
				}
			}
			for _, c := range []customers.CreateInput{
				{Name: "Abena Mensah", Phone: "+233 24 111 2222"},
				{Name: "Kwame Owusu", Phone: "+233 26 333 4444", Notes: "prefers mobile money"},
			} {
				if _, err := a.Customers.Create(ctx, st.ID, c); err != nil {
					return fmt.Errorf("create customer %s: %w", c.Name, err)
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "store:    %s (slug %s)\n", st.Name, st.Slug)
			fmt.Fprintf(out, "owner:    %s / %s\n", email, password)
			fmt.Fprintf(out, "products: %d\n", len(demoProducts))
			fmt.Fprintln(out, "customers: 2")
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "owner@demo.sedifex.com", "demo owner email")
	cmd.Flags().StringVar(&password, "password", "demo-pass-1234", "demo owner password")
	cmd.Flags().StringVar(&storeName, "store", "Demo Corner Shop", "demo store name")

	return cmd
}
