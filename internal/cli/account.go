package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"storefront/internal/domain"
	"storefront/internal/storefront"
)

type credentials struct {
	email    string
	password string
}

func (c *credentials) bind(cmd *cobra.Command, required bool) {
	cmd.Flags().StringVar(&c.email, "email", "", "Account email")
	cmd.Flags().StringVar(&c.password, "password", "", "Account password")
	if required {
		_ = cmd.MarkFlagRequired("email")
		_ = cmd.MarkFlagRequired("password")
	}
}

func (c *credentials) set() bool { return c.email != "" || c.password != "" }

func (c *credentials) login(ctx context.Context, sf *storefront.Storefront) error {
	if _, err := sf.Session.Login(ctx, c.email, c.password); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	return nil
}

// loginAdmin logs in and refuses accounts without the admin role before any
// catalog change is sent.
func (c *credentials) loginAdmin(ctx context.Context, sf *storefront.Storefront, op string) error {
	if err := c.login(ctx, sf); err != nil {
		return err
	}
	if !sf.Session.IsAdmin() {
		return fmt.Errorf("%s: %w", op, domain.ErrAuthorization)
	}
	return nil
}

func newRegisterCmd(a *app) *cobra.Command {
	var (
		creds    credentials
		fullName string
	)
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a shopper account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sf := a.open()
			defer sf.Close()

			u, err := sf.Session.Register(cmd.Context(), fullName, creds.email, creds.password)
			if err != nil {
				return fmt.Errorf("register: %w", err)
			}
			fmt.Fprintf(a.out, "Registered %s (%s) as %s\n", u.FullName, u.Email, u.Role)
			return nil
		},
	}
	creds.bind(cmd, true)
	cmd.Flags().StringVar(&fullName, "name", "", "Full name")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}
