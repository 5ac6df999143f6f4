package importer

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
)

type stubProductRepo struct {
	items []domain.Product
}

func (s *stubProductRepo) UpsertByName(_ context.Context, p domain.Product) (*domain.Product, error) {
	s.items = append(s.items, p)
	return &p, nil
}

func TestCSVImporter_Run(t *testing.T) {
	csvData := `name,price,image,description
Desk Lamp,100000,https://example.com/lamp.jpg,Warm light
,,,
Mug, 50000.50 ,,"Ceramic, 300ml"`

	repo := &stubProductRepo{}
	count, err := NewCSVImporter(strings.NewReader(csvData), repo).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, count)
	require.Len(t, repo.items, 2)
	assert.Equal(t, "Desk Lamp", repo.items[0].Name)
	assert.Equal(t, "https://example.com/lamp.jpg", repo.items[0].Image)
	assert.True(t, repo.items[1].Price.Equal(decimal.RequireFromString("50000.50")))
	assert.Equal(t, "Ceramic, 300ml", repo.items[1].Description)
}

func TestCSVImporter_ColumnOrderFromHeader(t *testing.T) {
	csvData := `Description,Price,Name
Soft tee,1999,T-Shirt`

	repo := &stubProductRepo{}
	count, err := NewCSVImporter(strings.NewReader(csvData), repo).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, count)
	assert.Equal(t, "T-Shirt", repo.items[0].Name)
	assert.Equal(t, "Soft tee", repo.items[0].Description)
}

func TestCSVImporter_Errors(t *testing.T) {
	cases := map[string]string{
		"missing price column": "name,image\nLamp,x",
		"bad price":            "name,price\nLamp,abc",
		"negative price":       "name,price\nLamp,-1",
		"empty input":          "",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewCSVImporter(strings.NewReader(data), &stubProductRepo{}).Run(context.Background())
			assert.Error(t, err)
		})
	}
}
