package domain

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

// SearchQueryParam seeds FilterState.Search from a listing URL.
const SearchQueryParam = "search"

const defaultPriceCeiling = 5000

// DefaultPriceCeiling is the slider upper bound before the catalog loads.
func DefaultPriceCeiling() decimal.Decimal {
	return decimal.NewFromInt(defaultPriceCeiling)
}

type SortOrder string

const (
	OrderDefault   SortOrder = ""
	OrderPriceAsc  SortOrder = "price_asc"
	OrderPriceDesc SortOrder = "price_desc"
	OrderNameAsc   SortOrder = "name_asc"
	OrderNameDesc  SortOrder = "name_desc"
	OrderPopular   SortOrder = "popular"
	OrderNewest    SortOrder = "newest"
)

var sortOrders = []SortOrder{
	OrderDefault, OrderPriceAsc, OrderPriceDesc,
	OrderNameAsc, OrderNameDesc, OrderPopular, OrderNewest,
}

// SortOrders lists every accepted order, default first.
func SortOrders() []SortOrder {
	return append([]SortOrder(nil), sortOrders...)
}

// ParseSortOrder accepts the wire names; "default" maps to OrderDefault.
func ParseSortOrder(s string) (SortOrder, error) {
	s = strings.TrimSpace(s)
	if s == "default" {
		return OrderDefault, nil
	}
	for _, o := range sortOrders {
		if string(o) == s {
			return o, nil
		}
	}
	return OrderDefault, fmt.Errorf("unknown sort order %q", s)
}

func (o SortOrder) String() string {
	if o == OrderDefault {
		return "default"
	}
	return string(o)
}

// FilterState is the ephemeral set of user choices driving a listing.
// MinPrice and MaxPrice hold the text as typed.
type FilterState struct {
	Search     string
	Categories map[int64]struct{}
	MinPrice   string
	MaxPrice   string
	Order      SortOrder
}

func NewFilterState() FilterState {
	return FilterState{Categories: make(map[int64]struct{})}
}

// FilterStateFromQuery seeds a state from listing URL parameters.
func FilterStateFromQuery(q url.Values) FilterState {
	fs := NewFilterState()
	fs.Search = q.Get(SearchQueryParam)
	return fs
}

func (fs FilterState) HasCategory(id int64) bool {
	_, ok := fs.Categories[id]
	return ok
}

// ToggleCategory returns a copy with id added or removed.
func (fs FilterState) ToggleCategory(id int64) FilterState {
	next := make(map[int64]struct{}, len(fs.Categories)+1)
	for k := range fs.Categories {
		next[k] = struct{}{}
	}
	if _, ok := next[id]; ok {
		delete(next, id)
	} else {
		next[id] = struct{}{}
	}
	fs.Categories = next
	return fs
}

func (fs FilterState) Reset() FilterState {
	return NewFilterState()
}

type PriceRange struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

func DefaultPriceRange() PriceRange {
	return PriceRange{Min: decimal.Zero, Max: DefaultPriceCeiling()}
}

func (r PriceRange) Contains(price decimal.Decimal) bool {
	return price.GreaterThanOrEqual(r.Min) && price.LessThanOrEqual(r.Max)
}
