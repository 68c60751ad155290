// Package events carries order payment confirmations from checkout to the order store.
package events

import (
	"context"
	"errors"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/repository"
	"go.uber.org/zap"
)

const (
	EventTypeOrderPaid = "order_paid"
	headerEventType    = "event_type"
	DefaultTopic       = "order-events"
)

type OrderUpdater interface {
	UpdateOrder(ctx context.Context, id string, update domain.OrderUpdate) error
}

// OrderPaidHandler marks the persisted order paid and records its payment intent.
type OrderPaidHandler struct {
	orders OrderUpdater
	logger *zap.Logger
}

func NewOrderPaidHandler(orders OrderUpdater, logger *zap.Logger) *OrderPaidHandler {
	return &OrderPaidHandler{orders: orders, logger: logger}
}

// Handle is safe to repeat for the same event. An order that no longer exists
// is logged and skipped.
func (h *OrderPaidHandler) Handle(ctx context.Context, event domain.OrderPaid) error {
	if event.OrderID == "" {
		return errors.New("order paid event without order id")
	}

	err := h.orders.UpdateOrder(ctx, event.OrderID, domain.OrderUpdate{
		Status:                domain.OrderStatusPaid,
		StripePaymentIntentID: event.PaymentIntentID,
	})
	if errors.Is(err, repository.ErrOrderNotFound) {
		h.logger.Warn("order paid for unknown order, skipping", zap.String("order_id", event.OrderID))
		return nil
	}
	if err != nil {
		return err
	}

	h.logger.Info("order marked paid",
		zap.String("order_id", event.OrderID),
		zap.String("payment_intent_id", event.PaymentIntentID))
	return nil
}

// DirectNotifier applies order paid events in-process when no broker is configured.
type DirectNotifier struct {
	handler *OrderPaidHandler
}

func NewDirectNotifier(handler *OrderPaidHandler) *DirectNotifier {
	return &DirectNotifier{handler: handler}
}

func (n *DirectNotifier) NotifyOrderPaid(ctx context.Context, event domain.OrderPaid) error {
	return n.handler.Handle(ctx, event)
}
