// Package payment talks to the external payment processor.
package payment

import (
	"context"
	"errors"
)

var ErrIntentNotFound = errors.New("payment intent not found")

type IntentStatus string

const (
	IntentStatusRequiresPaymentMethod IntentStatus = "requires_payment_method"
	IntentStatusProcessing            IntentStatus = "processing"
	IntentStatusSucceeded             IntentStatus = "succeeded"
	IntentStatusFailed                IntentStatus = "failed"
	IntentStatusCanceled              IntentStatus = "canceled"
)

// Metadata keys attached to every intent to correlate it with an order.
const (
	MetadataOrderID       = "orderId"
	MetadataCustomerName  = "customerName"
	MetadataCustomerEmail = "customerEmail"
)

type IntentRequest struct {
	Amount        int64
	Currency      string
	OrderID       string
	CustomerName  string
	CustomerEmail string
}

func (r IntentRequest) metadata() map[string]string {
	return map[string]string{
		MetadataOrderID:       r.OrderID,
		MetadataCustomerName:  r.CustomerName,
		MetadataCustomerEmail: r.CustomerEmail,
	}
}

type Intent struct {
	ID           string
	ClientSecret string
	Amount       int64
	Currency     string
	Status       IntentStatus
	Metadata     map[string]string
	// FailureMessage is the processor's explanation for a failed or canceled intent.
	FailureMessage string
}

func (i *Intent) OrderID() string {
	return i.Metadata[MetadataOrderID]
}

// Processor creates and inspects payment intents.
type Processor interface {
	CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error)
	GetIntent(ctx context.Context, id string) (*Intent, error)
	CancelIntent(ctx context.Context, id string) error
}
