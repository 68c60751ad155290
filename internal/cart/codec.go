package cart

import (
	"encoding/json"
	"fmt"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

// DecodeError reports a persisted cart snapshot that cannot be used as-is.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode cart snapshot: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("decode cart snapshot: %s", e.Reason)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func decodeSnapshot(data []byte) ([]domain.CartLineItem, error) {
	var items []domain.CartLineItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, &DecodeError{Reason: "not a list of line items", Err: err}
	}

	seen := make(map[string]struct{}, len(items))
	for i, item := range items {
		if item.ProductID == "" {
			return nil, &DecodeError{Reason: fmt.Sprintf("item %d has no productId", i)}
		}
		if item.Product.ID != "" && item.Product.ID != item.ProductID {
			return nil, &DecodeError{Reason: fmt.Sprintf("item %d product snapshot %q does not match productId %q", i, item.Product.ID, item.ProductID)}
		}
		if item.Quantity < 1 || item.Quantity > MaxQuantity {
			return nil, &DecodeError{Reason: fmt.Sprintf("item %d has quantity %d", i, item.Quantity)}
		}
		if _, dup := seen[item.ProductID]; dup {
			return nil, &DecodeError{Reason: fmt.Sprintf("productId %q appears twice", item.ProductID)}
		}
		seen[item.ProductID] = struct{}{}
	}

	if items == nil {
		items = []domain.CartLineItem{}
	}
	return items, nil
}

func encodeSnapshot(items []domain.CartLineItem) ([]byte, error) {
	if items == nil {
		items = []domain.CartLineItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("marshal cart failed: %w", err)
	}
	return data, nil
}
