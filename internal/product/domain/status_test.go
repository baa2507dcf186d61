package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name  string
		scans int64
		sales int64
		want  Status
	}{
		{name: "fresh product", scans: 0, sales: 0, want: StatusCold},
		{name: "sales without scans", scans: 0, sales: 5, want: StatusCold},
		{name: "rate exactly 25 over 100 scans", scans: 104, sales: 26, want: StatusInteresting},
		{name: "rate above 25 over 100 scans", scans: 101, sales: 31, want: StatusHot},
		{name: "rate 30 at exactly 100 scans", scans: 100, sales: 30, want: StatusInteresting},
		{name: "rate exactly 10", scans: 100, sales: 10, want: StatusCold},
		{name: "rate just above 10", scans: 100, sales: 11, want: StatusInteresting},
		{name: "exactly 150 scans no sales", scans: 150, sales: 0, want: StatusCold},
		{name: "151 scans no sales", scans: 151, sales: 0, want: StatusInteresting},
		{name: "rate exactly 10 at 150 scans", scans: 150, sales: 15, want: StatusCold},
		{name: "high rate few scans", scans: 4, sales: 4, want: StatusInteresting},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Product{ID: "p1", Name: "Apple", Scans: tt.scans, Sales: tt.sales}
			assert.Equal(t, tt.want, DeriveStatus(p))
		})
	}
}

func TestDeriveStatus_IgnoresNonCounterFields(t *testing.T) {
	base := Product{ID: "p1", Name: "Apple", Scans: 200, Sales: 80}
	changed := base
	changed.Price = 99
	changed.Discount = 50
	changed.Stock = 0

	first := DeriveStatus(base)
	assert.Equal(t, StatusHot, first)
	assert.Equal(t, first, DeriveStatus(base))
	assert.Equal(t, first, DeriveStatus(changed))
}

func TestConversionRate(t *testing.T) {
	assert.Zero(t, ConversionRate(Product{Scans: 0, Sales: 3}))
	assert.Equal(t, 25.0, ConversionRate(Product{Scans: 104, Sales: 26}))
}

func TestStatusBadge(t *testing.T) {
	for _, s := range Statuses {
		assert.NotEmpty(t, s.Badge().Label, s)
	}
	assert.Equal(t, StatusCold.Badge(), Status("unknown").Badge())
}
