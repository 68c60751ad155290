// Package order turns carts into order submissions and keeps the per-session
// history of completed orders.
package order

import (
	"fmt"
	"strings"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

// ValidationError reports the first input problem that blocks a submission.
// Field is empty when the cart itself is the problem.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// BuildSubmission validates the cart and customer info and returns the submission
// to send for order creation. It performs no I/O.
func BuildSubmission(items []domain.CartLineItem, info domain.CustomerInfo) (domain.OrderSubmission, error) {
	if len(items) == 0 {
		return domain.OrderSubmission{}, &ValidationError{Message: "cart is empty"}
	}

	fields := []struct {
		name  string
		value string
	}{
		{"name", info.Name},
		{"email", info.Email},
		{"address", info.Address},
		{"city", info.City},
		{"postalCode", info.PostalCode},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return domain.OrderSubmission{}, &ValidationError{Field: f.name, Message: "is required"}
		}
	}

	snapshot := domain.CloneItems(items)
	total, err := domain.CheckedTotalAmount(snapshot)
	if err != nil {
		return domain.OrderSubmission{}, &ValidationError{Field: "items", Message: "total amount is out of range"}
	}
	return domain.OrderSubmission{
		Items:        snapshot,
		TotalAmount:  total,
		CustomerInfo: info,
	}, nil
}

// ValidateSubmission checks a submission received from a client: the same rules
// as BuildSubmission, plus the total must match the items.
func ValidateSubmission(sub domain.OrderSubmission) error {
	rebuilt, err := BuildSubmission(sub.Items, sub.CustomerInfo)
	if err != nil {
		return err
	}
	for _, item := range sub.Items {
		if item.ProductID == "" || item.Quantity < 1 || item.Product.Price < 0 {
			return &ValidationError{Field: "items", Message: "contains an invalid line item"}
		}
	}
	if rebuilt.TotalAmount != sub.TotalAmount {
		return &ValidationError{
			Field:   "totalAmount",
			Message: fmt.Sprintf("expected %d, got %d", rebuilt.TotalAmount, sub.TotalAmount),
		}
	}
	return nil
}
