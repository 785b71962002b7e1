package discovery

import (
	"sort"
	"strings"

	"github.com/niksmo/storefront/internal/core/domain"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Input is everything a listing page feeds the pipeline.
//
// Range is the price slider; nil leaves prices unbounded. Scope fixes the
// listing to one category; nil is the global listing where State.Categories
// applies instead.
type Input struct {
	State domain.FilterState
	Range *domain.PriceRange
	Scope *domain.Category
}

type Pipeline struct {
	locale language.Tag
	global SearchProfile
	scoped SearchProfile
}

type Opt func(*Pipeline)

// WithLocale sets the collation used by the name orders.
func WithLocale(tag language.Tag) Opt {
	return func(p *Pipeline) {
		p.locale = tag
	}
}

func WithSearchProfiles(global, scoped SearchProfile) Opt {
	return func(p *Pipeline) {
		p.global = global
		p.scoped = scoped
	}
}

func New(opts ...Opt) Pipeline {
	p := Pipeline{
		locale: language.Und,
		global: GlobalSearch,
		scoped: ScopedSearch,
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// Run computes the displayed product list. It never mutates products and
// returns the same sequence for the same input.
//
// Search runs before the remaining filters so that relevance order survives
// them; with the default order nothing re-sorts the result.
func (p Pipeline) Run(products []domain.Product, in Input) []domain.Product {
	working := p.scope(products, in.Scope)

	if q := strings.TrimSpace(in.State.Search); q != "" {
		profile := p.global
		if in.Scope != nil {
			profile = p.scoped
		}
		working = Search(working, q, profile)
	}

	minBound, hasMin := ParsePriceBound(in.State.MinPrice)
	maxBound, hasMax := ParsePriceBound(in.State.MaxPrice)
	filterCategories := in.Scope == nil && len(in.State.Categories) != 0

	out := make([]domain.Product, 0, len(working))
	for _, prod := range working {
		if in.Range != nil && !in.Range.Contains(prod.Price) {
			continue
		}
		if hasMin && prod.Price.LessThan(minBound) {
			continue
		}
		if hasMax && prod.Price.GreaterThan(maxBound) {
			continue
		}
		if filterCategories && !in.State.HasCategory(prod.Category) {
			continue
		}
		out = append(out, prod)
	}

	p.sort(out, in.State.Order)
	return out
}

func (p Pipeline) scope(products []domain.Product, c *domain.Category) []domain.Product {
	if c == nil {
		return products
	}
	var scoped []domain.Product
	for _, prod := range products {
		if prod.Category == c.ID {
			scoped = append(scoped, prod)
		}
	}
	return scoped
}

func (p Pipeline) sort(ps []domain.Product, order domain.SortOrder) {
	var less func(a, b domain.Product) bool

	switch order {
	case domain.OrderPriceAsc:
		less = func(a, b domain.Product) bool { return a.Price.LessThan(b.Price) }
	case domain.OrderPriceDesc:
		less = func(a, b domain.Product) bool { return a.Price.GreaterThan(b.Price) }
	case domain.OrderNameAsc:
		cl := collate.New(p.locale)
		less = func(a, b domain.Product) bool { return cl.CompareString(a.Name, b.Name) < 0 }
	case domain.OrderNameDesc:
		cl := collate.New(p.locale)
		less = func(a, b domain.Product) bool { return cl.CompareString(b.Name, a.Name) < 0 }
	case domain.OrderPopular:
		less = func(a, b domain.Product) bool { return a.PopularityRating() > b.PopularityRating() }
	case domain.OrderNewest:
		less = func(a, b domain.Product) bool { return a.CreatedAt.After(b.CreatedAt) }
	default:
		return
	}

	sort.SliceStable(ps, func(i, j int) bool { return less(ps[i], ps[j]) })
}
