package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/order"
	"github.com/fjod/go_cart/storefront/internal/repository"
	"github.com/fjod/go_cart/storefront/internal/storage"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type OrderReader interface {
	GetOrderByID(ctx context.Context, id string) (*domain.Order, error)
}

type OrdersHandler struct {
	orders  OrderReader
	kv      storage.KeyValueStore
	timeout time.Duration
	logger  *zap.Logger
}

func NewOrdersHandler(orders OrderReader, kv storage.KeyValueStore, timeout time.Duration, logger *zap.Logger) *OrdersHandler {
	return &OrdersHandler{
		orders:  orders,
		kv:      kv,
		timeout: timeout,
		logger:  logger,
	}
}

type OrderResponseDTO struct {
	ID                    string                `json:"id"`
	Items                 []domain.CartLineItem `json:"items"`
	TotalAmount           int64                 `json:"totalAmount"`
	Status                domain.OrderStatus    `json:"status"`
	StatusLabel           string                `json:"statusLabel"`
	StatusTag             domain.StatusTag      `json:"statusTag"`
	StripePaymentIntentID string                `json:"stripePaymentIntentId,omitempty"`
	CreatedAt             time.Time             `json:"createdAt"`
	UpdatedAt             time.Time             `json:"updatedAt"`
}

func convertHistoryEntry(e domain.OrderHistoryEntry) OrderResponseDTO {
	display := e.Status.Display()
	return OrderResponseDTO{
		ID:          e.ID,
		Items:       nonNilItems(e.Items),
		TotalAmount: e.TotalAmount,
		Status:      e.Status,
		StatusLabel: display.Label,
		StatusTag:   display.Tag,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

func convertOrder(o *domain.Order) OrderResponseDTO {
	display := o.Status.Display()
	return OrderResponseDTO{
		ID:                    o.ID,
		Items:                 nonNilItems(o.Items),
		TotalAmount:           o.TotalAmount,
		Status:                o.Status,
		StatusLabel:           display.Label,
		StatusTag:             display.Tag,
		StripePaymentIntentID: o.StripePaymentIntentID,
		CreatedAt:             o.CreatedAt,
		UpdatedAt:             o.UpdatedAt,
	}
}

func nonNilItems(items []domain.CartLineItem) []domain.CartLineItem {
	if items == nil {
		return make([]domain.CartLineItem, 0)
	}
	return items
}

// GET /api/v1/orders
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	entries, err := order.NewHistory(h.kv, getSessionID(r.Context())).List(ctx)
	if err != nil {
		requestLogger(r, h.logger).Error("list order history failed",
			zap.String("session_id", getSessionID(r.Context())),
			zap.Error(err))
		handleSessionStoreError(w, err)
		return
	}

	dtos := make([]OrderResponseDTO, 0, len(entries))
	for _, e := range entries {
		dtos = append(dtos, convertHistoryEntry(e))
	}

	respondJSON(w, http.StatusOK, dtos)
}

// GET /api/v1/orders/{order_id}
// Reads the persisted order; an order the store no longer knows is served from
// the session's history when it was recorded there.
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID := chi.URLParam(r, "order_id")
	o, err := h.orders.GetOrderByID(ctx, orderID)
	if err == nil {
		respondJSON(w, http.StatusOK, convertOrder(o))
		return
	}
	if !errors.Is(err, repository.ErrOrderNotFound) {
		requestLogger(r, h.logger).Error("get order failed", zap.String("order_id", orderID), zap.Error(err))
		respondError(w, http.StatusServiceUnavailable, "orders_unavailable", "failed to load order")
		return
	}

	entry, ok, err := order.NewHistory(h.kv, getSessionID(r.Context())).Find(ctx, orderID)
	if err != nil || !ok {
		respondError(w, http.StatusNotFound, "order_not_found", "order not found")
		return
	}
	respondJSON(w, http.StatusOK, convertHistoryEntry(entry))
}
