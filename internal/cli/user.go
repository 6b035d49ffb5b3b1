package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/domain/store"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/runtime"
	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/services/users"
)

// NewCreateUserCommand creates the create-user command. With --store it
// also attaches the account to an existing store's team.
func NewCreateUserCommand() *cobra.Command {
	var email, password, name, storeSlug, role string

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Register an account, optionally joining a store team",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" || password == "" {
				return fmt.Errorf("--email and --password are required")
			}

			rt, err := runtime.NewApplication()
			if err != nil {
				return err
			}
			defer rt.Shutdown(context.Background())

			ctx := cmd.Context()
			a := rt.App()

			u, err := a.Users.Register(ctx, users.RegisterInput{
				Email:       email,
				Password:    password,
				DisplayName: name,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user %s created (%s)\n", u.Email, u.ID)

			if storeSlug == "" {
				return nil
			}
			st, err := a.Stores.GetBySlug(ctx, storeSlug)
			if err != nil {
				return fmt.Errorf("resolve store %q: %w", storeSlug, err)
			}
			m, err := a.Stores.AddMember(ctx, st.ID, "", u.Email, store.Role(role))
			if err != nil {
				return fmt.Errorf("add to %s: %w", st.Name, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "joined %s as %s\n", st.Name, m.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email (required)")
	cmd.Flags().StringVar(&password, "password", "", "account password (required)")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&storeSlug, "store", "", "store slug to join")
	cmd.Flags().StringVar(&role, "role", string(store.RoleCashier), "membership role (owner|manager|cashier)")

	return cmd
}
