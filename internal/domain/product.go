package domain

import "github.com/shopspring/decimal"

func init() {
	// json-server and the reference API exchange prices as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// Product is a catalog entry as served by the products collection.
type Product struct {
	ID          string          `json:"id,omitempty"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
	Description string          `json:"description"`
}

func (p Product) EntityID() string { return p.ID }
