package domain

import "time"

// AnonymousUserID is the single identity orders are created for.
const AnonymousUserID = "anonymous"

type CustomerInfo struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
}

// OrderSubmission is the payload sent to create an order before payment.
type OrderSubmission struct {
	Items        []CartLineItem `json:"items"`
	TotalAmount  int64          `json:"totalAmount"`
	CustomerInfo CustomerInfo   `json:"customerInfo"`
}

// NewOrder is an order as handed to the persistence layer: no id, no timestamps.
type NewOrder struct {
	UserID      string
	Items       []CartLineItem
	TotalAmount int64
	Status      OrderStatus
}

type Order struct {
	ID                    string         `json:"id" bson:"_id"`
	UserID                string         `json:"userId" bson:"user_id"`
	Items                 []CartLineItem `json:"items" bson:"items"`
	TotalAmount           int64          `json:"totalAmount" bson:"total_amount"`
	Status                OrderStatus    `json:"status" bson:"status"`
	StripePaymentIntentID string         `json:"stripePaymentIntentId,omitempty" bson:"stripe_payment_intent_id,omitempty"`
	CreatedAt             time.Time      `json:"createdAt" bson:"created_at"`
	UpdatedAt             time.Time      `json:"updatedAt" bson:"updated_at"`
}

// OrderUpdate carries the fields to change on an existing order. Empty fields are left alone.
type OrderUpdate struct {
	Status                OrderStatus
	StripePaymentIntentID string
}

// OrderHistoryEntry is the session-local record of a completed order.
type OrderHistoryEntry struct {
	ID          string         `json:"id"`
	Items       []CartLineItem `json:"items"`
	TotalAmount int64          `json:"totalAmount"`
	Status      OrderStatus    `json:"status"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// OrderPaid announces that the payment for an order was confirmed.
type OrderPaid struct {
	OrderID         string    `json:"orderId"`
	PaymentIntentID string    `json:"paymentIntentId"`
	TotalAmount     int64     `json:"totalAmount"`
	PaidAt          time.Time `json:"paidAt"`
}
