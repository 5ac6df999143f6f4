package order

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/events"
	orderrepo "storefront/internal/repository/order"
)

type Service struct {
	repo      orderrepo.Repository
	publisher events.Publisher
	producer  string
	logger    *log.Logger
	now       func() time.Time
}

// New builds the order service. publisher may be nil.
func New(repo orderrepo.Repository, publisher events.Publisher, producer string, logger *log.Logger) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{repo: repo, publisher: publisher, producer: producer, logger: logger, now: time.Now}
}

func (s *Service) List(ctx context.Context) ([]domain.Order, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Order, error) {
	return s.repo.GetByID(ctx, id)
}

// Create stores a new order. Status defaults to Pending and the total is
// recomputed from the line items when the caller left it at zero.
func (s *Service) Create(ctx context.Context, o domain.Order) (*domain.Order, error) {
	if err := validate(o); err != nil {
		return nil, err
	}
	if o.Status == "" {
		o.Status = domain.OrderStatusPending
	}
	if o.Status != domain.OrderStatusPending {
		return nil, domain.Validationf("new orders must be %s", domain.OrderStatusPending)
	}
	if o.TotalAmount.IsZero() {
		o.TotalAmount = domain.ItemsTotal(o.Items)
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = s.now().UTC()
	}
	created, err := s.repo.Create(ctx, o)
	if err != nil {
		return nil, err
	}
	s.logger.Printf("order service: created id=%s items=%d total=%s", created.ID, len(created.Items), created.TotalAmount)
	s.publish(events.EventOrderCreated, created.ID, events.OrderCreatedPayload{
		OrderID:     created.ID,
		UserID:      created.CustomerInfo.UserID,
		ItemCount:   len(created.Items),
		TotalAmount: created.TotalAmount,
	})
	return created, nil
}

// Replace accepts a full order body for id. Orders are immutable once placed,
// so the body must match the stored items, total, customer and creation time;
// only the status may differ, and the move must be allowed.
func (s *Service) Replace(ctx context.Context, id string, o domain.Order) (*domain.Order, error) {
	if err := validate(o); err != nil {
		return nil, err
	}
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if field := changedField(*current, o); field != "" {
		return nil, domain.Validationf("order %s cannot change after it is placed", field)
	}
	if o.Status == "" || o.Status == current.Status {
		return current, nil
	}
	if !domain.CanTransition(current.Status, o.Status) {
		return nil, domain.Validationf("cannot move order from %s to %s", current.Status, o.Status)
	}
	next := *current
	next.Status = o.Status
	updated, err := s.repo.Replace(ctx, next)
	if err != nil {
		return nil, err
	}
	s.statusChanged(updated.ID, current.Status, updated.Status)
	return updated, nil
}

// changedField names the first immutable field where o differs from current.
// A zero createdAt in o means the caller left it out.
func changedField(current, o domain.Order) string {
	switch {
	case o.CustomerInfo != current.CustomerInfo:
		return "customerInfo"
	case !o.TotalAmount.Equal(current.TotalAmount):
		return "totalAmount"
	case !o.CreatedAt.IsZero() && !o.CreatedAt.Equal(current.CreatedAt):
		return "createdAt"
	case !sameItems(o.Items, current.Items):
		return "items"
	}
	return ""
}

func sameItems(a, b []domain.CartItem) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		x, y := a[i], b[i]
		if x.ID != y.ID || x.Name != y.Name || x.Image != y.Image || x.Description != y.Description ||
			x.Quantity != y.Quantity || !x.Price.Equal(y.Price) {
			return false
		}
	}
	return true
}

// UpdateStatus applies a status patch guarded by domain.CanTransition.
func (s *Service) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(current.Status, status) {
		return nil, domain.Validationf("cannot move order from %s to %s", current.Status, status)
	}
	if current.Status == status {
		return current, nil
	}
	updated, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	s.statusChanged(updated.ID, current.Status, updated.Status)
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) statusChanged(id string, from, to domain.OrderStatus) {
	s.logger.Printf("order service: status id=%s from=%s to=%s", id, from, to)
	s.publish(events.EventOrderStatusChanged, id, events.OrderStatusChangedPayload{OrderID: id, From: from, To: to})
}

func (s *Service) publish(eventType, orderID string, payload any) {
	env, err := events.NewEnvelope(s.producer, eventType, orderID, payload)
	if err != nil {
		s.logger.Printf("order service: build event type=%s error=%v", eventType, err)
		return
	}
	s.publisher.Publish(env)
}

func validate(o domain.Order) error {
	if len(o.Items) == 0 {
		return domain.Validationf("order has no items")
	}
	for _, it := range o.Items {
		if it.Quantity < 1 {
			return domain.Validationf("item %s: quantity must be at least 1", it.ID)
		}
	}
	c := o.CustomerInfo
	for _, f := range []struct{ name, value string }{
		{"name", c.Name},
		{"address", c.Address},
		{"phone", c.Phone},
	} {
		if strings.TrimSpace(f.value) == "" {
			return domain.Validationf("customer %s is required", f.name)
		}
	}
	switch o.Status {
	case "", domain.OrderStatusPending, domain.OrderStatusOrder:
		return nil
	}
	return fmt.Errorf("%w: unknown status %q", domain.ErrValidation, o.Status)
}
