package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
)

// shopAPI serves just enough of the storefront API for the commands.
type shopAPI struct {
	mu       sync.Mutex
	products []domain.Product
	users    []domain.User
	orders   []domain.Order
	patch    int
	writes   int
}

func (s *shopAPI) productIndex(path string) int {
	id := strings.TrimPrefix(path, "/products/")
	for i, p := range s.products {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (s *shopAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	q := r.URL.Query()

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/products":
		out := []domain.Product{}
		for _, p := range s.products {
			if term := q.Get("q"); term == "" || strings.Contains(strings.ToLower(p.Name), term) {
				out = append(out, p)
			}
		}
		_ = json.NewEncoder(w).Encode(out)
	case r.Method == http.MethodGet && s.productIndex(r.URL.Path) >= 0:
		_ = json.NewEncoder(w).Encode(s.products[s.productIndex(r.URL.Path)])
	case r.Method == http.MethodPost && r.URL.Path == "/products":
		s.writes++
		var p domain.Product
		_ = json.NewDecoder(r.Body).Decode(&p)
		p.ID = "p" + strconv.Itoa(len(s.products)+1)
		s.products = append(s.products, p)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(p)
	case r.Method == http.MethodPut && s.productIndex(r.URL.Path) >= 0:
		s.writes++
		i := s.productIndex(r.URL.Path)
		var p domain.Product
		_ = json.NewDecoder(r.Body).Decode(&p)
		p.ID = s.products[i].ID
		s.products[i] = p
		_ = json.NewEncoder(w).Encode(p)
	case r.Method == http.MethodDelete && s.productIndex(r.URL.Path) >= 0:
		s.writes++
		i := s.productIndex(r.URL.Path)
		s.products = append(s.products[:i], s.products[i+1:]...)
		_, _ = w.Write([]byte(`{}`))
	case r.Method == http.MethodGet && r.URL.Path == "/users":
		out := []domain.User{}
		for _, u := range s.users {
			if u.Email != q.Get("email") {
				continue
			}
			if q.Has("password") && u.Password != q.Get("password") {
				continue
			}
			u.Password = ""
			out = append(out, u)
		}
		_ = json.NewEncoder(w).Encode(out)
	case r.Method == http.MethodPost && r.URL.Path == "/users":
		var u domain.User
		_ = json.NewDecoder(r.Body).Decode(&u)
		u.ID = "u-new"
		s.users = append(s.users, u)
		u.Password = ""
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(u)
	case r.Method == http.MethodGet && r.URL.Path == "/orders":
		_ = json.NewEncoder(w).Encode(s.orders)
	case r.Method == http.MethodPost && r.URL.Path == "/orders":
		var o domain.Order
		_ = json.NewDecoder(r.Body).Decode(&o)
		o.ID = "o-1"
		s.orders = append(s.orders, o)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(o)
	case r.Method == http.MethodPatch && r.URL.Path == "/orders/o-1":
		s.patch++
		var p domain.StatusPatch
		_ = json.NewDecoder(r.Body).Decode(&p)
		s.orders[0].Status = p.Status
		_ = json.NewEncoder(w).Encode(s.orders[0])
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not found"}`))
	}
}

func newShop(t *testing.T) (*shopAPI, string) {
	t.Helper()
	testChdir(t, t.TempDir())
	api := &shopAPI{products: []domain.Product{
		{ID: "p1", Name: "Lamp", Price: decimal.NewFromInt(100000)},
		{ID: "p2", Name: "Mug", Price: decimal.NewFromInt(50000)},
	}, users: []domain.User{
		{ID: "admin-1", Email: "admin@shop.test", FullName: "Admin", Role: domain.RoleAdmin, Password: "admin123"},
		{ID: "u-1", Email: "ann@shop.test", FullName: "Ann", Role: domain.RoleUser, Password: "secret1"},
	}}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	return api, srv.URL
}

func run(t *testing.T, baseURL string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--base-url", baseURL}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestParseItem(t *testing.T) {
	li, err := parseItem("p1:3")
	require.NoError(t, err)
	assert.Equal(t, lineItem{productID: "p1", quantity: 3}, li)

	li, err = parseItem("p2")
	require.NoError(t, err)
	assert.Equal(t, 1, li.quantity)

	for _, bad := range []string{"", ":2", "p1:0", "p1:x"} {
		_, err := parseItem(bad)
		assert.Error(t, err, bad)
	}
}

func TestProductsList(t *testing.T) {
	_, base := newShop(t)

	out, err := run(t, base, "products", "list", "--query", "lamp")
	require.NoError(t, err)
	assert.Contains(t, out, "Lamp")
	assert.NotContains(t, out, "Mug")
	assert.Contains(t, out, "100000")
}

func TestProductsShowMissing(t *testing.T) {
	_, base := newShop(t)

	_, err := run(t, base, "products", "show", "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRegister(t *testing.T) {
	api, base := newShop(t)

	out, err := run(t, base, "register", "--name", "Bob", "--email", "Bob@Shop.test", "--password", "pw1234")
	require.NoError(t, err)
	assert.Contains(t, out, "bob@shop.test")
	assert.Len(t, api.users, 3)

	_, err = run(t, base, "register", "--name", "Ann", "--email", "ann@shop.test", "--password", "pw1234")
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyUsed)
}

func TestCheckoutAndAdvance(t *testing.T) {
	api, base := newShop(t)

	out, err := run(t, base, "checkout",
		"--item", "p1:2", "--item", "p2",
		"--email", "ann@shop.test", "--password", "secret1",
		"--address", "1 Main St", "--phone", "555")
	require.NoError(t, err)
	assert.Contains(t, out, "Placed order o-1")
	assert.Contains(t, out, "250000")

	require.Len(t, api.orders, 1)
	placed := api.orders[0]
	assert.Equal(t, "Ann", placed.CustomerInfo.Name)
	assert.Equal(t, "u-1", placed.CustomerInfo.UserID)
	assert.Equal(t, domain.OrderStatusPending, placed.Status)
	assert.True(t, placed.TotalAmount.Equal(decimal.NewFromInt(250000)))

	_, err = run(t, base, "orders", "advance", "o-1", "--email", "ann@shop.test", "--password", "secret1")
	assert.ErrorIs(t, err, domain.ErrAuthorization)
	assert.Zero(t, api.patch)

	out, err = run(t, base, "orders", "list", "--email", "admin@shop.test", "--password", "admin123")
	require.NoError(t, err)
	assert.Contains(t, out, "advance")

	out, err = run(t, base, "orders", "advance", "o-1", "--email", "admin@shop.test", "--password", "admin123")
	require.NoError(t, err)
	assert.Contains(t, out, "now Order")
	assert.Equal(t, 1, api.patch)
}

func TestCheckoutRequiresShipping(t *testing.T) {
	api, base := newShop(t)

	_, err := run(t, base, "checkout", "--item", "p1", "--name", "Guest")
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Empty(t, api.orders)
}

func TestOrdersListWrongPassword(t *testing.T) {
	_, base := newShop(t)

	_, err := run(t, base, "orders", "list", "--email", "ann@shop.test", "--password", "nope")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestProductAdminCommands(t *testing.T) {
	api, base := newShop(t)
	admin := []string{"--email", "admin@shop.test", "--password", "admin123"}

	out, err := run(t, base, append([]string{"products", "add", "--name", "Chair", "--price", "750000", "--description", "Oak"}, admin...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Added product p3 (Chair) at 750000")
	require.Len(t, api.products, 3)
	assert.Equal(t, "Oak", api.products[2].Description)

	out, err = run(t, base, append([]string{"products", "edit", "p1", "--price", "120000"}, admin...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Updated product p1 (Lamp) at 120000")
	assert.True(t, api.products[0].Price.Equal(decimal.NewFromInt(120000)))
	assert.Equal(t, "Lamp", api.products[0].Name)

	out, err = run(t, base, append([]string{"products", "delete", "p2"}, admin...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted product p2")
	require.Len(t, api.products, 2)
	assert.Equal(t, "Chair", api.products[1].Name)
	assert.Equal(t, 3, api.writes)
}

func TestProductAdminCommandsRejectShoppers(t *testing.T) {
	api, base := newShop(t)
	shopper := []string{"--email", "ann@shop.test", "--password", "secret1"}

	for _, args := range [][]string{
		{"products", "add", "--name", "Chair", "--price", "1"},
		{"products", "edit", "p1", "--price", "1"},
		{"products", "delete", "p1"},
	} {
		_, err := run(t, base, append(args, shopper...)...)
		assert.ErrorIs(t, err, domain.ErrAuthorization, args[1])
	}
	assert.Zero(t, api.writes)
	assert.Len(t, api.products, 2)
}

func TestProductAddValidatesPrice(t *testing.T) {
	api, base := newShop(t)

	_, err := run(t, base, "products", "add", "--name", "Chair", "--price", "cheap",
		"--email", "admin@shop.test", "--password", "admin123")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = run(t, base, "products", "edit", "p1", "--price=-5",
		"--email", "admin@shop.test", "--password", "admin123")
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Zero(t, api.writes)
}

// testChdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, added in Go 1.24).
func testChdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}
