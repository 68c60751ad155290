package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/storage"
)

// ErrCorruptHistory is returned when the stored history record cannot be decoded.
var ErrCorruptHistory = errors.New("order history record is malformed")

// History is the append-only log of a session's completed orders.
type History struct {
	kv  storage.KeyValueStore
	key string
	now func() time.Time
}

func NewHistory(kv storage.KeyValueStore, sessionID string) *History {
	return &History{
		kv:  kv,
		key: storage.SessionKey(sessionID, storage.RecordOrderHistory),
		now: time.Now,
	}
}

// List returns the entries in the order they were recorded.
func (h *History) List(ctx context.Context) ([]domain.OrderHistoryEntry, error) {
	data, err := h.kv.Get(ctx, h.key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return []domain.OrderHistoryEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load order history: %w", err)
	}

	var entries []domain.OrderHistoryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptHistory, err)
	}
	if entries == nil {
		entries = []domain.OrderHistoryEntry{}
	}
	return entries, nil
}

// Find returns the entry recorded for orderID, if any.
func (h *History) Find(ctx context.Context, orderID string) (domain.OrderHistoryEntry, bool, error) {
	entries, err := h.List(ctx)
	if err != nil {
		return domain.OrderHistoryEntry{}, false, err
	}
	for _, e := range entries {
		if e.ID == orderID {
			return e, true, nil
		}
	}
	return domain.OrderHistoryEntry{}, false, nil
}

// RecordCompletedOrder appends a paid entry for orderID. It reports false without
// writing when an entry for orderID already exists.
func (h *History) RecordCompletedOrder(ctx context.Context, orderID string, items []domain.CartLineItem, totalAmount int64) (bool, error) {
	if orderID == "" {
		return false, errors.New("order id is required")
	}

	entries, err := h.List(ctx)
	if err != nil {
		return false, err
	}
	for _, e := range entries {
		if e.ID == orderID {
			return false, nil
		}
	}

	now := h.now().UTC()
	entries = append(entries, domain.OrderHistoryEntry{
		ID:          orderID,
		Items:       domain.CloneItems(items),
		TotalAmount: totalAmount,
		Status:      domain.OrderStatusPaid,
		CreatedAt:   now,
		UpdatedAt:   now,
	})

	data, err := json.Marshal(entries)
	if err != nil {
		return false, fmt.Errorf("marshal order history failed: %w", err)
	}
	if err := h.kv.Set(ctx, h.key, data); err != nil {
		return false, fmt.Errorf("save order history: %w", err)
	}
	return true, nil
}
