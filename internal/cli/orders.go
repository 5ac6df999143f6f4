package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"storefront/internal/domain"
	"storefront/internal/orderflow"
)

func newOrdersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Review and manage orders",
	}

	var listCreds credentials
	list := &cobra.Command{
		Use:   "list",
		Short: "List orders; admins see every order, shoppers their own",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sf := a.open()
			defer sf.Close()
			ctx := cmd.Context()

			if err := listCreds.login(ctx, sf); err != nil {
				return err
			}
			if err := sf.Orders.FetchAll(ctx); err != nil {
				return fmt.Errorf("list orders: %w", err)
			}

			admin := sf.Session.IsAdmin()
			user, _ := sf.Session.CurrentUser()
			var visible []domain.Order
			for _, o := range sf.Orders.Items() {
				if admin || o.CustomerInfo.UserID == user.ID {
					visible = append(visible, o)
				}
			}
			printOrders(a, visible, admin)
			return nil
		},
	}
	listCreds.bind(list, true)

	var advanceCreds credentials
	advance := &cobra.Command{
		Use:   "advance <id>",
		Short: "Move a pending order to Order (admin only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sf := a.open()
			defer sf.Close()
			ctx := cmd.Context()

			if err := advanceCreds.login(ctx, sf); err != nil {
				return err
			}
			o, err := sf.Workflow.Advance(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Order %s is now %s\n", o.ID, o.Status)
			return nil
		},
	}
	advanceCreds.bind(advance, true)

	cmd.AddCommand(list, advance)
	return cmd
}

func printOrders(a *app, orders []domain.Order, admin bool) {
	if len(orders) == 0 {
		fmt.Fprintln(a.out, "No orders found.")
		return
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCUSTOMER\tITEMS\tTOTAL\tSTATUS\tCREATED\t")
	for _, o := range orders {
		action := ""
		if admin && orderflow.CanAdvance(o) {
			action = "advance"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
			o.ID, o.CustomerInfo.Name, len(o.Items), o.TotalAmount.StringFixed(0), o.Status,
			o.CreatedAt.Local().Format(time.DateTime), action)
	}
	_ = w.Flush()
}
