package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"storefront/internal/domain"
)

type lineItem struct {
	productID string
	quantity  int
}

// parseItem reads "id:qty"; a bare id means one unit.
func parseItem(raw string) (lineItem, error) {
	id, qty, found := strings.Cut(strings.TrimSpace(raw), ":")
	id = strings.TrimSpace(id)
	if id == "" {
		return lineItem{}, fmt.Errorf("item %q: product id is required", raw)
	}
	if !found {
		return lineItem{productID: id, quantity: 1}, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(qty))
	if err != nil || n < 1 {
		return lineItem{}, fmt.Errorf("item %q: quantity must be a positive integer", raw)
	}
	return lineItem{productID: id, quantity: n}, nil
}

func newCheckoutCmd(a *app) *cobra.Command {
	var (
		creds    credentials
		items    []string
		shipping domain.ShippingInfo
	)
	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Put products in a cart and place an order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			lines := make([]lineItem, 0, len(items))
			for _, raw := range items {
				li, err := parseItem(raw)
				if err != nil {
					return err
				}
				lines = append(lines, li)
			}

			sf := a.open()
			defer sf.Close()
			ctx := cmd.Context()

			if creds.set() {
				if err := creds.login(ctx, sf); err != nil {
					return err
				}
			}

			for _, li := range lines {
				p, err := sf.Products.Fetch(ctx, li.productID)
				if err != nil {
					return fmt.Errorf("product %s: %w", li.productID, err)
				}
				sf.Cart.Add(p)
				if li.quantity > 1 {
					sf.Cart.ChangeQuantity(p.ID, li.quantity-1)
				}
			}

			total := sf.Cart.Total()
			count := sf.Cart.Count()
			id, err := sf.Checkout.Submit(ctx, shipping)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Placed order %s: %d item(s), total %s\n", id, count, total.StringFixed(0))
			return nil
		},
	}
	creds.bind(cmd, false)
	cmd.Flags().StringArrayVar(&items, "item", nil, "Product to buy as id or id:qty (repeatable)")
	cmd.Flags().StringVar(&shipping.Name, "name", "", "Recipient name (defaults to the account name)")
	cmd.Flags().StringVar(&shipping.Address, "address", "", "Shipping address")
	cmd.Flags().StringVar(&shipping.Phone, "phone", "", "Contact phone")
	_ = cmd.MarkFlagRequired("item")
	return cmd
}
