package product

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func catalog() []Product {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return []Product{
		{ID: "w1", Name: "Submariner", Brand: "Rolex", Category: "diver", Price: decimal.NewFromInt(9000), Stock: 2, CreatedAt: base},
		{ID: "w2", Name: "Seamaster", Brand: "Omega", Category: "diver", Price: decimal.NewFromInt(5000), Stock: 0, CreatedAt: base.Add(time.Hour)},
		{ID: "w3", Name: "Datejust", Brand: "Rolex", Category: "dress", Price: decimal.NewFromInt(7000), Stock: 10, CreatedAt: base.Add(2 * time.Hour)},
		{ID: "w4", Name: "Speedmaster", Brand: "Omega", Category: "chrono", Price: decimal.NewFromInt(6000), Stock: 4,
			Description: "Moonwatch", CreatedAt: base.Add(3 * time.Hour)},
	}
}

func ids(ps []Product) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}

func TestSearch(t *testing.T) {
	ps := catalog()
	assert.Equal(t, []string{"w1", "w3"}, ids(Search(ps, "rolex")))
	assert.Equal(t, []string{"w4"}, ids(Search(ps, "  MOON ")))
	assert.Equal(t, []string{"w1", "w2"}, ids(Search(ps, "diver")))
	assert.Len(t, Search(ps, ""), 4)
}

func TestFilterCategory(t *testing.T) {
	ps := catalog()
	assert.Equal(t, []string{"w1", "w2"}, ids(FilterCategory(ps, "diver")))
	assert.Len(t, FilterCategory(ps, AllCategories), 4)
	assert.Len(t, FilterCategory(ps, ""), 4)
}

func TestFilterPrice(t *testing.T) {
	ps := catalog()
	lo, hi := decimal.NewFromInt(6000), decimal.NewFromInt(7000)
	assert.Equal(t, []string{"w3", "w4"}, ids(FilterPrice(ps, &lo, &hi)))
	assert.Equal(t, []string{"w1", "w3", "w4"}, ids(FilterPrice(ps, &lo, nil)))
}

func TestSort(t *testing.T) {
	ps := catalog()
	assert.Equal(t, []string{"w2", "w4", "w3", "w1"}, ids(Sort(ps, "price")))
	assert.Equal(t, []string{"w1", "w3", "w4", "w2"}, ids(Sort(ps, "-price")))
	assert.Equal(t, []string{"w3", "w2", "w4", "w1"}, ids(Sort(ps, "name")))
	assert.Equal(t, []string{"w4", "w3", "w2", "w1"}, ids(Sort(ps, "-created_at")))
	assert.Equal(t, []string{"w1", "w2", "w3", "w4"}, ids(Sort(ps, "unknown")))
	// input untouched
	assert.Equal(t, []string{"w1", "w2", "w3", "w4"}, ids(ps))
}

func TestSimilar(t *testing.T) {
	ps := catalog()
	got := Similar(ps[0], ps, 4)
	// w2 shares category, w3 shares brand; w4 shares neither.
	assert.Equal(t, []string{"w2", "w3"}, ids(got))
	assert.Len(t, Similar(ps[0], ps, 1), 1)
}

func TestStockStatus(t *testing.T) {
	assert.Equal(t, StockOut, Product{Stock: 0}.StockStatus())
	assert.Equal(t, StockLow, Product{Stock: 3}.StockStatus())
	assert.Equal(t, StockIn, Product{Stock: 4}.StockStatus())
}

func TestIsOnSale(t *testing.T) {
	old := decimal.NewFromInt(10000)
	p := Product{Price: decimal.NewFromInt(7500), OldPrice: &old}
	assert.True(t, p.IsOnSale())
	assert.Equal(t, 25, p.DiscountPercent())
	assert.False(t, Product{Price: decimal.NewFromInt(7500)}.IsOnSale())
}
