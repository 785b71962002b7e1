package domain

import "github.com/shopspring/decimal"

// MinCartQuantity is the lowest quantity a cart line may hold.
// Removing the line is the only way to reach zero.
const MinCartQuantity = 1

type CartItem struct {
	ID           int64
	Product      int64
	ProductName  string
	ProductImage string
	ProductPrice decimal.Decimal
	Quantity     int
	Subtotal     decimal.Decimal
}

type Cart struct {
	Items []CartItem
}

// Count is the number of distinct lines, as shown on the header badge.
func (c Cart) Count() int {
	return len(c.Items)
}

// Total sums the subtotals reported by the backend.
func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.Items {
		total = total.Add(it.Subtotal)
	}
	return total
}

func (c Cart) Item(id int64) (CartItem, bool) {
	for _, it := range c.Items {
		if it.ID == id {
			return it, true
		}
	}
	return CartItem{}, false
}
