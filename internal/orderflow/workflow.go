package orderflow

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"storefront/internal/domain"
)

// Role reports whether the current session may manage orders.
type Role interface {
	IsAdmin() bool
}

// Orders patches orders and refreshes their cached copies; the orders slice
// satisfies it.
type Orders interface {
	Patch(ctx context.Context, id string, fields any) (domain.Order, error)
}

// Workflow moves orders from Pending to Order on behalf of an admin.
type Workflow struct {
	role   Role
	orders Orders
	logger *log.Logger
}

func New(role Role, orders Orders, logger *log.Logger) *Workflow {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Workflow{role: role, orders: orders, logger: logger}
}

// Advance marks the order as Order. Non-admin sessions are rejected before
// any request is sent. Advancing an order that is already Order is allowed.
func (w *Workflow) Advance(ctx context.Context, orderID string) (domain.Order, error) {
	if !w.role.IsAdmin() {
		w.logger.Printf("orderflow: advance id=%s rejected: not admin", orderID)
		return domain.Order{}, fmt.Errorf("advance order: %w", domain.ErrAuthorization)
	}
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return domain.Order{}, domain.Validationf("order id is required")
	}

	updated, err := w.orders.Patch(ctx, orderID, domain.StatusPatch{Status: domain.OrderStatusOrder})
	if err != nil {
		w.logger.Printf("orderflow: advance id=%s error=%v", orderID, err)
		return domain.Order{}, fmt.Errorf("advance order %s: %w", orderID, err)
	}
	w.logger.Printf("orderflow: advanced id=%s status=%s", orderID, updated.Status)
	return updated, nil
}

// CanAdvance reports whether the advance action should be offered for o.
func CanAdvance(o domain.Order) bool {
	return o.Status == domain.OrderStatusPending
}
