package domain

import (
	"testing"
	"time"

	productdomain "github.com/smallbiznis/scanprice/internal/product/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func at(d time.Duration) *time.Time {
	t := now.Add(d)
	return &t
}

func TestDerive_LowStockThreshold(t *testing.T) {
	products := []productdomain.Product{
		{ID: "a", Name: "Apple", Stock: 10},
		{ID: "b", Name: "Bread", Stock: 11},
		{ID: "c", Name: "Milk", Stock: 0},
	}

	next, changes := Derive(products, nil, now, DefaultRules())

	require.Len(t, next, 2)
	assert.Equal(t, "low-stock-a", next[0].ID)
	assert.Equal(t, "Low stock for Apple! (10 units left)", next[0].Message)
	assert.Equal(t, "low-stock-c", next[1].ID)
	assert.Len(t, changes.Created, 2)
	assert.Empty(t, changes.Removed)
}

func TestDerive_ExpiringPromoWindow(t *testing.T) {
	cases := []struct {
		name     string
		product  productdomain.Product
		expected bool
	}{
		{"within window", productdomain.Product{Discount: 10, DiscountExpiration: at(3 * 24 * time.Hour)}, true},
		{"partial day rounds up", productdomain.Product{Discount: 10, DiscountExpiration: at(time.Hour)}, true},
		{"exactly seven days", productdomain.Product{Discount: 10, DiscountExpiration: at(7 * 24 * time.Hour)}, true},
		{"beyond window", productdomain.Product{Discount: 10, DiscountExpiration: at(7*24*time.Hour + time.Minute)}, false},
		{"already expired", productdomain.Product{Discount: 10, DiscountExpiration: at(-time.Hour)}, false},
		{"no discount", productdomain.Product{Discount: 0, DiscountExpiration: at(24 * time.Hour)}, false},
		{"no expiration", productdomain.Product{Discount: 10}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := tc.product
			p.ID = "p1"
			p.Name = "Apple"
			p.Stock = 50

			next, _ := Derive([]productdomain.Product{p}, nil, now, DefaultRules())

			if !tc.expected {
				assert.Empty(t, next)
				return
			}
			require.Len(t, next, 1)
			assert.Equal(t, TypeExpiringPromo, next[0].Type)
			assert.Equal(t, "expiring-promo-p1", next[0].ID)
		})
	}
}

func TestDerive_MessageUsesCeilingDays(t *testing.T) {
	p := productdomain.Product{ID: "p1", Name: "Apple", Stock: 50, Discount: 5, DiscountExpiration: at(2*24*time.Hour + time.Minute)}

	next, _ := Derive([]productdomain.Product{p}, nil, now, DefaultRules())

	require.Len(t, next, 1)
	assert.Equal(t, "Promotion for Apple ends in 3 days!", next[0].Message)
}

func TestDerive_IdempotentAndKeepsTimestamp(t *testing.T) {
	products := []productdomain.Product{
		{ID: "a", Name: "Apple", Stock: 2, Discount: 10, DiscountExpiration: at(48 * time.Hour)},
	}

	first, _ := Derive(products, nil, now, DefaultRules())
	second, changes := Derive(products, first, now.Add(time.Minute), DefaultRules())

	assert.Equal(t, first, second)
	assert.True(t, changes.Empty())
	for _, n := range second {
		assert.Equal(t, now, n.Timestamp)
	}
}

func TestDerive_RetractsWhenConditionClears(t *testing.T) {
	products := []productdomain.Product{{ID: "a", Name: "Apple", Stock: 5}}
	existing, _ := Derive(products, nil, now, DefaultRules())
	require.Len(t, existing, 1)

	products[0].Stock = 20
	next, changes := Derive(products, existing, now, DefaultRules())

	assert.Empty(t, next)
	require.Len(t, changes.Removed, 1)
	assert.Equal(t, "low-stock-a", changes.Removed[0].ID)
}

func TestDerive_RetractsForDeletedProducts(t *testing.T) {
	existing, _ := Derive([]productdomain.Product{{ID: "a", Name: "Apple", Stock: 1}}, nil, now, DefaultRules())

	next, changes := Derive(nil, existing, now, DefaultRules())

	assert.Empty(t, next)
	assert.Len(t, changes.Removed, 1)
}

func TestDerive_CustomRules(t *testing.T) {
	rules := Rules{LowStockThreshold: 3, PromoExpiringDays: 14}
	products := []productdomain.Product{
		{ID: "a", Name: "Apple", Stock: 5, Discount: 10, DiscountExpiration: at(10 * 24 * time.Hour)},
	}

	next, _ := Derive(products, nil, now, rules)

	require.Len(t, next, 1)
	assert.Equal(t, TypeExpiringPromo, next[0].Type)
}

func TestTypeStyle(t *testing.T) {
	assert.Equal(t, "red", TypeLowStock.Style().Color)
	assert.Equal(t, "⏳", TypeExpiringPromo.Style().Icon)
}
