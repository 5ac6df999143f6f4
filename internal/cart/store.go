package cart

import (
	"sync"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
	"storefront/internal/notify"
)

// Store is the in-session shopping cart. Each mutation is one atomic
// read-modify-write over the item list, and no item is ever kept with a
// quantity below 1.
type Store struct {
	mu      sync.Mutex
	items   []domain.CartItem
	version uint64
	subs    *notify.Broadcaster[[]domain.CartItem]
}

func New() *Store {
	return &Store{subs: notify.New[[]domain.CartItem]()}
}

// Add puts one unit of product in the cart. Existing items keep their
// position; new ones go to the end.
func (s *Store) Add(product domain.Product) {
	s.mutate(func(items []domain.CartItem) []domain.CartItem {
		for i := range items {
			if items[i].ID == product.ID {
				items[i].Quantity++
				return items
			}
		}
		return append(items, domain.CartItem{Product: product, Quantity: 1})
	})
}

// ChangeQuantity adds delta to the item's quantity and drops the item when
// the result is zero or less. Unknown ids are ignored.
func (s *Store) ChangeQuantity(productID string, delta int) {
	s.mutate(func(items []domain.CartItem) []domain.CartItem {
		out := items[:0]
		for _, it := range items {
			if it.ID == productID {
				it.Quantity += delta
			}
			if it.Quantity > 0 {
				out = append(out, it)
			}
		}
		return out
	})
}

// Remove deletes the item whatever its quantity.
func (s *Store) Remove(productID string) {
	s.mutate(func(items []domain.CartItem) []domain.CartItem {
		out := items[:0]
		for _, it := range items {
			if it.ID != productID {
				out = append(out, it)
			}
		}
		return out
	})
}

// Clear empties the cart.
func (s *Store) Clear() {
	s.mutate(func([]domain.CartItem) []domain.CartItem { return nil })
}

// Items returns a copy of the cart contents in insertion order.
func (s *Store) Items() []domain.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLocked()
}

// Total is Σ price × quantity over the current items.
func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.ItemsTotal(s.items)
}

// Count is the number of units across all items.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, it := range s.items {
		n += it.Quantity
	}
	return n
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *Store) IsEmpty() bool { return s.Len() == 0 }

// Snapshot returns the items and their total as of a single instant.
func (s *Store) Snapshot() ([]domain.CartItem, decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLocked(), domain.ItemsTotal(s.items)
}

// Subscribe registers fn to receive the items after every mutation, in
// mutation order. Superseded snapshots may be skipped.
func (s *Store) Subscribe(fn func([]domain.CartItem)) func() {
	return s.subs.Subscribe(fn)
}

func (s *Store) mutate(fn func([]domain.CartItem) []domain.CartItem) {
	s.mu.Lock()
	s.items = fn(s.copyLocked())
	s.version++
	version := s.version
	snap := s.copyLocked()
	s.mu.Unlock()

	s.subs.Publish(version, snap)
}

func (s *Store) copyLocked() []domain.CartItem {
	out := make([]domain.CartItem, len(s.items))
	copy(out, s.items)
	return out
}
