package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"storefront/internal/domain"
)

func newProductsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "products",
		Short: "Browse the catalog",
	}

	var query string
	list := &cobra.Command{
		Use:   "list",
		Short: "List products, optionally filtered by a search term",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sf := a.open()
			defer sf.Close()

			if err := sf.Search.Submit(cmd.Context(), query); err != nil {
				return fmt.Errorf("list products: %w", err)
			}
			printProducts(a, sf.Products.Items())
			return nil
		},
	}
	list.Flags().StringVarP(&query, "query", "q", "", "Search term")

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sf := a.open()
			defer sf.Close()

			p, err := sf.Products.Fetch(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("show product %s: %w", args[0], err)
			}
			fmt.Fprintf(a.out, "%s\n  id:    %s\n  price: %s\n", p.Name, p.ID, p.Price.StringFixed(0))
			if p.Image != "" {
				fmt.Fprintf(a.out, "  image: %s\n", p.Image)
			}
			if p.Description != "" {
				fmt.Fprintf(a.out, "\n%s\n", p.Description)
			}
			return nil
		},
	}

	cmd.AddCommand(list, show, newProductAddCmd(a), newProductEditCmd(a), newProductDeleteCmd(a))
	return cmd
}

// productFields holds the editable catalog fields. Price stays a string
// until validate so a bad value is reported as a validation error.
type productFields struct {
	name        string
	price       string
	image       string
	description string
}

func (f *productFields) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "Product name")
	cmd.Flags().StringVar(&f.price, "price", "", "Unit price")
	cmd.Flags().StringVar(&f.image, "image", "", "Image URL")
	cmd.Flags().StringVar(&f.description, "description", "", "Description")
}

// apply copies the flags the user set onto p and checks the result.
func (f *productFields) apply(cmd *cobra.Command, p *domain.Product) error {
	flags := cmd.Flags()
	if flags.Changed("name") {
		p.Name = strings.TrimSpace(f.name)
	}
	if flags.Changed("price") {
		price, err := decimal.NewFromString(strings.TrimSpace(f.price))
		if err != nil {
			return domain.Validationf("price %q is not a number", f.price)
		}
		p.Price = price
	}
	if flags.Changed("image") {
		p.Image = strings.TrimSpace(f.image)
	}
	if flags.Changed("description") {
		p.Description = strings.TrimSpace(f.description)
	}
	if p.Name == "" {
		return domain.Validationf("product name is required")
	}
	if !p.Price.IsPositive() {
		return domain.Validationf("product price must be positive")
	}
	return nil
}

func newProductAddCmd(a *app) *cobra.Command {
	var (
		creds  credentials
		fields productFields
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a product to the catalog (admin only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sf := a.open()
			defer sf.Close()
			ctx := cmd.Context()

			if err := creds.loginAdmin(ctx, sf, "add product"); err != nil {
				return err
			}
			var p domain.Product
			if err := fields.apply(cmd, &p); err != nil {
				return err
			}
			created, err := sf.Products.Create(ctx, p)
			if err != nil {
				return fmt.Errorf("add product: %w", err)
			}
			fmt.Fprintf(a.out, "Added product %s (%s) at %s\n", created.ID, created.Name, created.Price.StringFixed(0))
			return nil
		},
	}
	creds.bind(cmd, true)
	fields.bind(cmd)
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("price")
	return cmd
}

func newProductEditCmd(a *app) *cobra.Command {
	var (
		creds  credentials
		fields productFields
	)
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of a product (admin only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sf := a.open()
			defer sf.Close()
			ctx := cmd.Context()

			if err := creds.loginAdmin(ctx, sf, "edit product"); err != nil {
				return err
			}
			p, err := sf.Products.Fetch(ctx, args[0])
			if err != nil {
				return fmt.Errorf("edit product %s: %w", args[0], err)
			}
			if err := fields.apply(cmd, &p); err != nil {
				return err
			}
			updated, err := sf.Products.Update(ctx, p)
			if err != nil {
				return fmt.Errorf("edit product %s: %w", args[0], err)
			}
			fmt.Fprintf(a.out, "Updated product %s (%s) at %s\n", updated.ID, updated.Name, updated.Price.StringFixed(0))
			return nil
		},
	}
	creds.bind(cmd, true)
	fields.bind(cmd)
	return cmd
}

func newProductDeleteCmd(a *app) *cobra.Command {
	var creds credentials
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a product from the catalog (admin only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sf := a.open()
			defer sf.Close()
			ctx := cmd.Context()

			if err := creds.loginAdmin(ctx, sf, "delete product"); err != nil {
				return err
			}
			if err := sf.Products.Delete(ctx, args[0]); err != nil {
				return fmt.Errorf("delete product %s: %w", args[0], err)
			}
			fmt.Fprintf(a.out, "Deleted product %s\n", args[0])
			return nil
		},
	}
	creds.bind(cmd, true)
	return cmd
}

func printProducts(a *app, products []domain.Product) {
	if len(products) == 0 {
		fmt.Fprintln(a.out, "No products found.")
		return
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPRICE")
	for _, p := range products {
		fmt.Fprintf(w, "%s\t%s\t%s\n", p.ID, p.Name, p.Price.StringFixed(0))
	}
	_ = w.Flush()
}
