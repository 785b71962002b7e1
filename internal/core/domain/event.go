package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// A SearchEvent records that a client found a product through a search.
type SearchEvent struct {
	Query       string
	Username    string
	ProductID   int64
	ProductName string
	Category    string
	Price       decimal.Decimal
	Rank        int
	OccurredAt  time.Time
}
