package discovery

import (
	"strings"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/shopspring/decimal"
)

var sliderStep = decimal.NewFromInt(100)

// maxBoundMagnitude bounds the decimal order of a parsed price. Anything
// larger behaves like an infinite bound, anything smaller like zero.
const maxBoundMagnitude = 20

var boundLimit = decimal.New(1, maxBoundMagnitude)

// ParsePriceBound reads a min/max price typed by the user. A decimal comma
// is accepted. Blank or malformed input means "no constraint" and yields
// false; it is never an error.
//
// Exponent notation is accepted but clamped to ±1e20, so "1e999999" as a
// minimum filters everything and as a maximum keeps everything, and the
// pipeline never compares against a number with a huge scale.
func ParsePriceBound(raw string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, false
	}
	s = strings.Replace(s, ",", ".", 1)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return clampBound(d), true
}

func clampBound(d decimal.Decimal) decimal.Decimal {
	if d.IsZero() {
		return decimal.Zero
	}
	magnitude := d.NumDigits() + int(d.Exponent())
	switch {
	case magnitude > maxBoundMagnitude && d.IsNegative():
		return boundLimit.Neg()
	case magnitude > maxBoundMagnitude:
		return boundLimit
	case magnitude < -maxBoundMagnitude:
		return decimal.Zero
	case d.Exponent() < -maxBoundMagnitude:
		return d.Truncate(maxBoundMagnitude)
	}
	return d
}

// PriceCeiling is the slider maximum for a catalog: the highest price
// rounded up to the next hundred. An empty catalog keeps fallback.
func PriceCeiling(products []domain.Product, fallback decimal.Decimal) decimal.Decimal {
	if len(products) == 0 {
		return fallback
	}
	highest := products[0].Price
	for _, p := range products[1:] {
		if p.Price.GreaterThan(highest) {
			highest = p.Price
		}
	}
	return highest.Div(sliderStep).Ceil().Mul(sliderStep)
}

// SliderRange returns the [0, PriceCeiling] range for a loaded catalog.
func SliderRange(products []domain.Product, fallback decimal.Decimal) domain.PriceRange {
	return domain.PriceRange{
		Min: decimal.Zero,
		Max: PriceCeiling(products, fallback),
	}
}
