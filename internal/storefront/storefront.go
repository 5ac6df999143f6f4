package storefront

import (
	"context"
	"io"
	"log"
	"time"

	"storefront/internal/cart"
	"storefront/internal/checkout"
	"storefront/internal/domain"
	"storefront/internal/orderflow"
	"storefront/internal/remote"
	"storefront/internal/search"
	"storefront/internal/session"
	"storefront/internal/slice"
)

// Storefront is one shopper's session state: the cart, the cached
// collections and the workflows over them. Build one per session with New
// and Close it when the session ends.
type Storefront struct {
	Products *slice.Slice[domain.Product]
	Orders   *slice.Slice[domain.Order]
	Session  *session.Session
	Cart     *cart.Store
	Search   *search.Debouncer
	Checkout *checkout.Assembler
	Workflow *orderflow.Workflow

	cancel context.CancelFunc
}

type Options struct {
	Logger      *log.Logger
	QuietPeriod time.Duration
}

// New wires a Storefront over api.
func New(api remote.API, opts Options) *Storefront {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	products := slice.New[domain.Product]("products", remote.NewCollection[domain.Product](api, "products"), logger)
	orders := slice.New[domain.Order]("orders", remote.NewCollection[domain.Order](api, "orders"), logger)
	sess := session.New(remote.NewCollection[domain.User](api, "users"), logger)
	cartStore := cart.New()

	ctx, cancel := context.WithCancel(context.Background())
	debouncer := search.New(ctx, products, search.WithQuietPeriod(opts.QuietPeriod), search.WithLogger(logger))

	return &Storefront{
		Products: products,
		Orders:   orders,
		Session:  sess,
		Cart:     cartStore,
		Search:   debouncer,
		Checkout: checkout.New(cartStore, sess, orders, logger),
		Workflow: orderflow.New(sess, orders, logger),
		cancel:   cancel,
	}
}

// Close ends the session: pending searches are dropped, the cart is emptied
// and the user is logged out.
func (s *Storefront) Close() {
	s.Search.Close()
	s.cancel()
	s.Cart.Clear()
	s.Session.Logout()
}
