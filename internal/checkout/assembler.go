package checkout

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

// Cart is the cart the assembler reads and clears.
type Cart interface {
	Snapshot() ([]domain.CartItem, decimal.Decimal)
	Clear()
}

// Identity supplies the logged-in user, if any.
type Identity interface {
	CurrentUser() (domain.User, bool)
}

// Orders creates orders; the orders slice satisfies it.
type Orders interface {
	Create(ctx context.Context, in domain.Order) (domain.Order, error)
}

// Assembler turns the cart and a shipping form into a placed order.
type Assembler struct {
	cart     Cart
	identity Identity
	orders   Orders
	now      func() time.Time
	logger   *log.Logger
}

func New(cart Cart, identity Identity, orders Orders, logger *log.Logger) *Assembler {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Assembler{
		cart:     cart,
		identity: identity,
		orders:   orders,
		now:      time.Now,
		logger:   logger,
	}
}

// Submit places an order for the current cart and returns its server id.
// The cart is cleared only after the server accepts the order.
func (a *Assembler) Submit(ctx context.Context, shipping domain.ShippingInfo) (string, error) {
	order, err := a.Build(shipping)
	if err != nil {
		return "", err
	}

	created, err := a.orders.Create(ctx, order)
	if err != nil {
		a.logger.Printf("checkout: submit items=%d total=%s error=%v", len(order.Items), order.TotalAmount, err)
		return "", fmt.Errorf("place order: %w", err)
	}

	a.cart.Clear()
	a.logger.Printf("checkout: placed order id=%s items=%d total=%s", created.ID, len(order.Items), order.TotalAmount)
	return created.ID, nil
}

// Build assembles the order payload without submitting it.
func (a *Assembler) Build(shipping domain.ShippingInfo) (domain.Order, error) {
	items, total := a.cart.Snapshot()
	if len(items) == 0 {
		return domain.Order{}, domain.Validationf("cart is empty")
	}

	shipping = shipping.Trimmed()
	user, loggedIn := a.identity.CurrentUser()
	if shipping.Name == "" && loggedIn {
		shipping.Name = user.FullName
	}
	switch {
	case shipping.Name == "":
		return domain.Order{}, domain.Validationf("name is required")
	case shipping.Address == "":
		return domain.Order{}, domain.Validationf("address is required")
	case shipping.Phone == "":
		return domain.Order{}, domain.Validationf("phone is required")
	}

	info := domain.CustomerInfo{
		Name:    shipping.Name,
		Address: shipping.Address,
		Phone:   shipping.Phone,
	}
	if loggedIn {
		info.UserID = user.ID
	}

	return domain.Order{
		CustomerInfo: info,
		Items:        items,
		TotalAmount:  total,
		Status:       domain.OrderStatusPending,
		CreatedAt:    a.now().UTC(),
	}, nil
}
