package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatPrice(t *testing.T) {
	tests := map[string]string{
		"0":       "R$ 0,00",
		"19.9":    "R$ 19,90",
		"1299.99": "R$ 1299,99",
		"5000":    "R$ 5000,00",
		"0.005":   "R$ 0,01",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, formatPrice(decimal.RequireFromString(in)))
		})
	}
}

func TestReport(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"Unauthenticated", fmt.Errorf("op: %w", domain.ErrUnauthenticated), loginFirstMsg},
		{"Category", domain.ErrCategoryNotFound, categoryMissing},
		{"Product", domain.ErrProductNotFound, productMissing},
		{"Quantity", domain.ErrQuantityBelowMinimum, minQuantityMsg},
		{"Item", domain.ErrCartItemNotFound, missingItemMsg},
		{"Network", errors.New("connection reset by peer"), unreachableMsg},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			newView(&buf).report(tt.err)
			assert.Contains(t, buf.String(), tt.want)
		})
	}

	t.Run("CanceledIsSilent", func(t *testing.T) {
		var buf bytes.Buffer
		newView(&buf).report(fmt.Errorf("op: %w", context.Canceled))
		assert.Empty(t, buf.String())
	})
}

func TestParseID(t *testing.T) {
	id, err := parseID("item", "42")
	assert.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, s := range []string{"", "-1", "0", "x1"} {
		_, err := parseID("item", s)
		assert.Error(t, err, s)
	}
}
