package order

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
	"storefront/internal/migrate"
)

func TestPostgres_CreateAndAdvance(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	if err := migrate.Apply(ctx, pool, nil); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	resetTables(ctx, t, pool)

	repo := NewPostgres(pool, nil)
	placedAt := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	created, err := repo.Create(ctx, domain.Order{
		CustomerInfo: domain.CustomerInfo{Name: "Ann", Address: "1 Main St", Phone: "555"},
		Items: []domain.CartItem{
			{Product: domain.Product{ID: "p1", Name: "Lamp", Price: decimal.NewFromInt(100000)}, Quantity: 2},
		},
		TotalAmount: decimal.NewFromInt(200000),
		Status:      domain.OrderStatusPending,
		CreatedAt:   placedAt,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == "" || created.CustomerInfo.UserID != "" {
		t.Fatalf("unexpected created order %+v", created)
	}
	if !created.CreatedAt.Equal(placedAt) {
		t.Fatalf("expected createdAt %s, got %s", placedAt, created.CreatedAt)
	}

	got, err := repo.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(got.Items) != 1 || got.Items[0].Quantity != 2 || !got.Items[0].Price.Equal(decimal.NewFromInt(100000)) {
		t.Fatalf("items not round-tripped: %+v", got.Items)
	}
	if !got.TotalAmount.Equal(decimal.NewFromInt(200000)) {
		t.Fatalf("unexpected total %s", got.TotalAmount)
	}

	advanced, err := repo.UpdateStatus(ctx, created.ID, domain.OrderStatusOrder)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if advanced.Status != domain.OrderStatusOrder {
		t.Fatalf("expected status Order, got %s", advanced.Status)
	}

	if _, err := repo.UpdateStatus(ctx, "missing", domain.OrderStatusOrder); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 order, got %d", len(list))
	}

	if err := repo.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := repo.Delete(ctx, created.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestPostgres_CreateUnknownUser(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	if err := migrate.Apply(ctx, pool, nil); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	resetTables(ctx, t, pool)

	_, err := NewPostgres(pool, nil).Create(ctx, domain.Order{
		CustomerInfo: domain.CustomerInfo{UserID: "ghost", Name: "A", Address: "B", Phone: "C"},
		Items:        []domain.CartItem{{Product: domain.Product{ID: "p1"}, Quantity: 1}},
		Status:       domain.OrderStatusPending,
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func testPool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	return pool
}

func resetTables(ctx context.Context, t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	if _, err := pool.Exec(ctx, `TRUNCATE orders, users, products RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}
