package seed

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

type ProductWriter interface {
	UpsertByName(ctx context.Context, product domain.Product) (*domain.Product, error)
}

type AdminWriter interface {
	EnsureAdmin(ctx context.Context, u domain.User) (*domain.User, error)
}

// DemoProducts is the catalog written by Apply.
var DemoProducts = []domain.Product{
	{
		Name:        "Demo T-Shirt",
		Price:       decimal.NewFromInt(199000),
		Image:       "https://picsum.photos/seed/tshirt/400/400",
		Description: "Soft cotton tee for demo purposes",
	},
	{
		Name:        "Demo Mug",
		Price:       decimal.NewFromInt(129000),
		Image:       "https://picsum.photos/seed/mug/400/400",
		Description: "Ceramic mug with demo logo",
	},
	{
		Name:        "Desk Lamp",
		Price:       decimal.NewFromInt(450000),
		Image:       "https://picsum.photos/seed/lamp/400/400",
		Description: "Adjustable LED desk lamp",
	},
}

// Apply writes the demo catalog and the admin account. It is idempotent:
// products upsert by name and the admin is only created once.
func Apply(ctx context.Context, products ProductWriter, admins AdminWriter, admin domain.User, logger *log.Logger) error {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	for _, p := range DemoProducts {
		if _, err := products.UpsertByName(ctx, p); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.Name, err)
		}
	}
	logger.Printf("seed: products count=%d", len(DemoProducts))

	u, err := admins.EnsureAdmin(ctx, admin)
	if err != nil {
		return fmt.Errorf("ensure admin %s: %w", admin.Email, err)
	}
	logger.Printf("seed: admin id=%s email=%s", u.ID, u.Email)
	return nil
}
