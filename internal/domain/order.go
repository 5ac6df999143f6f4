package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending OrderStatus = "Pending"
	// OrderStatusOrder is terminal; orders never leave it.
	OrderStatusOrder OrderStatus = "Order"
)

// CanTransition reports whether an order may move from one status to another.
// Re-applying the terminal status is allowed and idempotent.
func CanTransition(from, to OrderStatus) bool {
	switch from {
	case OrderStatusPending:
		return to == OrderStatusOrder
	case OrderStatusOrder:
		return to == OrderStatusOrder
	}
	return false
}

// ShippingInfo holds the checkout form fields.
type ShippingInfo struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

// Trimmed returns a copy with surrounding whitespace removed from every field.
func (s ShippingInfo) Trimmed() ShippingInfo {
	return ShippingInfo{
		Name:    strings.TrimSpace(s.Name),
		Address: strings.TrimSpace(s.Address),
		Phone:   strings.TrimSpace(s.Phone),
	}
}

type CustomerInfo struct {
	UserID  string `json:"userId,omitempty"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

// Order is a placed order. Only Status changes after creation.
type Order struct {
	ID           string          `json:"id,omitempty"`
	CustomerInfo CustomerInfo    `json:"customerInfo"`
	Items        []CartItem      `json:"items"`
	TotalAmount  decimal.Decimal `json:"totalAmount"`
	Status       OrderStatus     `json:"status"`
	CreatedAt    time.Time       `json:"createdAt"`
}

func (o Order) EntityID() string { return o.ID }

// StatusPatch is the body of a partial order update.
type StatusPatch struct {
	Status OrderStatus `json:"status"`
}
