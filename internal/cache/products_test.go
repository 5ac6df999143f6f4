package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
)

func TestProductListsInvalidate(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	rdb := NewRedisClient(addr)
	defer rdb.Close()
	require.NoError(t, rdb.Ping(ctx).Err())

	c := NewProductLists(rdb, time.Minute, nil)
	c.Invalidate(ctx)

	_, ok := c.Get(ctx, "lamp")
	assert.False(t, ok)

	c.Set(ctx, " Lamp ", []domain.Product{{ID: "p1", Name: "Lamp", Price: decimal.NewFromInt(10)}})
	got, ok := c.Get(ctx, "lamp")
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.True(t, got[0].Price.Equal(decimal.NewFromInt(10)))

	c.Invalidate(ctx)
	_, ok = c.Get(ctx, "lamp")
	assert.False(t, ok)
}
