package discovery_test

import (
	"testing"

	"github.com/niksmo/storefront/internal/core/discovery"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParsePriceBound(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   string
		wantOK bool
	}{
		{name: "Dot", raw: "19.90", want: "19.9", wantOK: true},
		{name: "Comma", raw: "19,90", want: "19.9", wantOK: true},
		{name: "Padded", raw: "  250 ", want: "250", wantOK: true},
		{name: "Blank", raw: "   "},
		{name: "Letters", raw: "abc"},
		{name: "TwoCommas", raw: "1,000,5"},
		{name: "Exponent", raw: "1e3", want: "1000", wantOK: true},
		{name: "HugeExponent", raw: "1e2000000000", want: "1e20", wantOK: true},
		{name: "HugeNegative", raw: "-1e50000000", want: "-1e20", wantOK: true},
		{name: "TinyExponent", raw: "1e-2000000000", want: "0", wantOK: true},
		{name: "ZeroWithExponent", raw: "0e-2000000000", want: "0", wantOK: true},
		{name: "LongFraction", raw: "0,1234567890123456789012345", want: "0.12345678901234567890", wantOK: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := discovery.ParsePriceBound(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
			}
		})
	}
}

func TestPriceCeiling(t *testing.T) {
	fallback := domain.DefaultPriceCeiling()

	t.Run("EmptyKeepsFallback", func(t *testing.T) {
		got := discovery.PriceCeiling(nil, fallback)
		assert.True(t, fallback.Equal(got))
	})

	t.Run("RoundsUpToHundred", func(t *testing.T) {
		ps := []domain.Product{priced(1, "A", "10", 1), priced(2, "B", "1299.99", 1)}
		got := discovery.PriceCeiling(ps, fallback)
		assert.Equal(t, "1300", got.String())
	})

	t.Run("ExactHundred", func(t *testing.T) {
		ps := []domain.Product{priced(1, "A", "700", 1)}
		got := discovery.PriceCeiling(ps, fallback)
		assert.Equal(t, "700", got.String())
	})

	t.Run("SliderRange", func(t *testing.T) {
		ps := []domain.Product{priced(1, "A", "42", 1)}
		r := discovery.SliderRange(ps, fallback)
		assert.True(t, r.Min.IsZero())
		assert.Equal(t, "100", r.Max.String())
	})
}
