package domain

import (
	"errors"
	"math"
)

// ErrAmountOverflow means a line subtotal or cart total does not fit in an int64.
var ErrAmountOverflow = errors.New("amount out of range")

// CartLineItem pairs a product snapshot with a quantity. Product is a denormalized
// copy taken when the item was added, not a live reference into the catalog.
type CartLineItem struct {
	ProductID string  `json:"productId" bson:"product_id"`
	Product   Product `json:"product" bson:"product"`
	Quantity  int     `json:"quantity" bson:"quantity"`
}

// Subtotal returns price * quantity for the line item.
func (i CartLineItem) Subtotal() int64 {
	return i.Product.Price * int64(i.Quantity)
}

// TotalAmount sums the subtotals of all items. Every total shown or charged
// (cart, checkout, payment intent, order history) goes through here.
func TotalAmount(items []CartLineItem) int64 {
	var total int64
	for _, item := range items {
		total += item.Subtotal()
	}
	return total
}

// CheckedTotalAmount is TotalAmount for amounts that will be charged. It fails
// instead of wrapping around when a subtotal or the sum exceeds math.MaxInt64,
// and on negative prices or quantities.
func CheckedTotalAmount(items []CartLineItem) (int64, error) {
	var total int64
	for _, item := range items {
		price, qty := item.Product.Price, int64(item.Quantity)
		if price < 0 || qty < 0 {
			return 0, ErrAmountOverflow
		}
		if qty != 0 && price > math.MaxInt64/qty {
			return 0, ErrAmountOverflow
		}
		sub := price * qty
		if total > math.MaxInt64-sub {
			return 0, ErrAmountOverflow
		}
		total += sub
	}
	return total, nil
}

// CloneItems returns a copy of items that shares no backing array with the input.
func CloneItems(items []CartLineItem) []CartLineItem {
	if items == nil {
		return nil
	}
	out := make([]CartLineItem, len(items))
	copy(out, items)
	return out
}
