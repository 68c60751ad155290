package checkout

import (
	"errors"
	"fmt"

	"github.com/fjod/go_cart/storefront/internal/order"
)

var (
	ErrEmptyCart          = errors.New("cart is empty, nothing to checkout")
	ErrIllegalTransition  = errors.New("illegal transition of checkout state")
	ErrCheckoutInProgress = errors.New("a checkout is already in progress for this session")
	ErrNoCheckout         = errors.New("no checkout attempt for this session")
	ErrCheckoutAbandoned  = errors.New("checkout abandoned while awaiting payment")
)

const (
	genericFailureMessage = "An error occurred while processing the payment"
	unknownPaymentError   = "An unknown error occurred"
)

// PersistenceError means the order record could not be created. The record may
// still exist server side.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("create order: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// PaymentIntentError means the processor refused to create an intent after the
// order with OrderID was created.
type PaymentIntentError struct {
	OrderID string
	Err     error
}

func (e *PaymentIntentError) Error() string {
	return fmt.Sprintf("create payment intent for order %s: %v", e.OrderID, e.Err)
}

func (e *PaymentIntentError) Unwrap() error {
	return e.Err
}

// PaymentConfirmationError is a failure reported by payment collection. Message
// is the provider's explanation and may be empty.
type PaymentConfirmationError struct {
	Message string
}

func (e *PaymentConfirmationError) Error() string {
	if e.Message == "" {
		return "payment confirmation failed"
	}
	return "payment confirmation failed: " + e.Message
}

// UserMessage converts a checkout error into the message shown to the shopper.
// Details of persistence and processor failures are not exposed.
func UserMessage(err error) string {
	var vErr *order.ValidationError
	var confirmErr *PaymentConfirmationError

	switch {
	case err == nil:
		return ""
	case errors.As(err, &vErr):
		return vErr.Error()
	case errors.Is(err, ErrEmptyCart):
		return "Your cart is empty"
	case errors.Is(err, ErrCheckoutInProgress):
		return "A checkout is already in progress"
	case errors.As(err, &confirmErr):
		if confirmErr.Message == "" {
			return "Payment failed: " + unknownPaymentError
		}
		return "Payment failed: " + confirmErr.Message
	default:
		return genericFailureMessage
	}
}
