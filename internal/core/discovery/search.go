package discovery

import (
	"math"
	"sort"
	"strings"

	"github.com/niksmo/storefront/internal/core/domain"
)

// A Key is a searchable product field and its relative weight.
type Key struct {
	Name   string
	Weight float64
	Value  func(domain.Product) string
}

func NameKey(weight float64) Key {
	return Key{"name", weight, func(p domain.Product) string { return p.Name }}
}

func DescriptionKey(weight float64) Key {
	return Key{"description", weight, func(p domain.Product) string { return p.Description }}
}

func CategoryNameKey(weight float64) Key {
	return Key{"category_name", weight, func(p domain.Product) string { return p.CategoryName }}
}

// A SearchProfile configures the fuzzy index for one listing page.
//
// Threshold bounds the per-key score (0 exact, 1 anything). Cutoff, when
// positive, additionally drops results whose combined score is >= Cutoff.
type SearchProfile struct {
	Keys               []Key
	Threshold          float64
	Distance           float64
	IgnoreLocation     bool
	MinMatchCharLength int
	Cutoff             float64
}

var (
	// GlobalSearch is used by the unscoped product listing.
	GlobalSearch = SearchProfile{
		Keys: []Key{
			NameKey(2),
			DescriptionKey(0.5),
			CategoryNameKey(0.3),
		},
		Threshold:          0.4,
		Distance:           100,
		MinMatchCharLength: 2,
	}

	// ScopedSearch is used inside a category page. Its extra cutoff keeps
	// only strong matches; the global listing deliberately has none.
	ScopedSearch = SearchProfile{
		Keys: []Key{
			NameKey(2),
			DescriptionKey(0.1),
		},
		Threshold:          0.4,
		Distance:           50,
		IgnoreLocation:     true,
		MinMatchCharLength: 1,
		Cutoff:             0.35,
	}
)

type Ranked struct {
	Product domain.Product
	Score   float64
}

// Search returns the products matching query, best match first. A blank
// query passes products through untouched.
func Search(products []domain.Product, query string, p SearchProfile) []domain.Product {
	if strings.TrimSpace(query) == "" {
		return products
	}
	ranked := Rank(products, query, p)
	out := make([]domain.Product, len(ranked))
	for i, r := range ranked {
		out[i] = r.Product
	}
	return out
}

// Rank scores every product against query and returns the matches ordered
// by ascending score, ties kept in input order.
func Rank(products []domain.Product, query string, p SearchProfile) []Ranked {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	m := newMatcher(query, p)
	weights := normalizedWeights(p.Keys)

	var ranked []Ranked
	for _, prod := range products {
		score, ok := combinedScore(m, prod, p.Keys, weights)
		if !ok {
			continue
		}
		if p.Cutoff > 0 && score >= p.Cutoff {
			continue
		}
		ranked = append(ranked, Ranked{Product: prod, Score: score})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score < ranked[j].Score
	})
	return ranked
}

func combinedScore(
	m matcher, prod domain.Product, keys []Key, weights []float64,
) (float64, bool) {
	total := 1.0
	matched := false
	for i, k := range keys {
		text := k.Value(prod)
		s, ok := m.score(text)
		if !ok {
			continue
		}
		matched = true
		if s == 0 && weights[i] != 0 {
			s = epsilon
		}
		w := weights[i]
		if w == 0 {
			w = 1
		}
		total *= math.Pow(s, w*fieldNorm(text))
	}
	return total, matched
}

func normalizedWeights(keys []Key) []float64 {
	var sum float64
	for _, k := range keys {
		sum += k.Weight
	}
	ws := make([]float64, len(keys))
	for i, k := range keys {
		if sum > 0 {
			ws[i] = k.Weight / sum
		}
	}
	return ws
}
