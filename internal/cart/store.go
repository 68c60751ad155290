// Package cart keeps a session's cart snapshot in a key-value store.
package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/storage"
)

// MaxQuantity caps the quantity of a single line item.
const MaxQuantity = 99

var (
	ErrInvalidQuantity = errors.New("quantity must be greater than 0")
	ErrInvalidProduct  = errors.New("product id is required")
	ErrQuantityLimit   = fmt.Errorf("quantity must not exceed %d", MaxQuantity)
)

// Store owns one session's cart. Every mutation loads the current snapshot,
// applies the change and writes the whole snapshot back before returning.
type Store struct {
	kv  storage.KeyValueStore
	key string
}

func NewStore(kv storage.KeyValueStore, sessionID string) *Store {
	return &Store{
		kv:  kv,
		key: storage.SessionKey(sessionID, storage.RecordCart),
	}
}

// Load returns the persisted snapshot, or an empty one when nothing is stored.
// A malformed record yields a *DecodeError; Clear resets it.
func (s *Store) Load(ctx context.Context) ([]domain.CartLineItem, error) {
	data, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return []domain.CartLineItem{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return decodeSnapshot(data)
}

// Add merges quantity into the line item for product, appending a new one if absent.
// The merged quantity may not exceed MaxQuantity; the store does not bound it
// against stock.
func (s *Store) Add(ctx context.Context, product domain.Product, quantity int) ([]domain.CartLineItem, error) {
	if product.ID == "" {
		return nil, ErrInvalidProduct
	}
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	if quantity > MaxQuantity {
		return nil, ErrQuantityLimit
	}

	items, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}

	if i := indexOf(items, product.ID); i >= 0 {
		if items[i].Quantity+quantity > MaxQuantity {
			return nil, ErrQuantityLimit
		}
		items[i].Quantity += quantity
	} else {
		items = append(items, domain.CartLineItem{
			ProductID: product.ID,
			Product:   product,
			Quantity:  quantity,
		})
	}

	return s.persist(ctx, items)
}

// SetQuantity overwrites the quantity in place. A quantity of zero or less removes the item.
func (s *Store) SetQuantity(ctx context.Context, productID string, quantity int) ([]domain.CartLineItem, error) {
	if quantity <= 0 {
		return s.Remove(ctx, productID)
	}
	if quantity > MaxQuantity {
		return nil, ErrQuantityLimit
	}

	items, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}

	i := indexOf(items, productID)
	if i < 0 {
		return items, nil
	}
	items[i].Quantity = quantity

	return s.persist(ctx, items)
}

// Remove deletes the line item for productID. Removing an absent item is a no-op.
func (s *Store) Remove(ctx context.Context, productID string) ([]domain.CartLineItem, error) {
	items, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}

	i := indexOf(items, productID)
	if i < 0 {
		return items, nil
	}
	items = append(items[:i], items[i+1:]...)

	return s.persist(ctx, items)
}

// Clear drops the persisted record entirely instead of writing an empty list.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.kv.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

func (s *Store) persist(ctx context.Context, items []domain.CartLineItem) ([]domain.CartLineItem, error) {
	data, err := encodeSnapshot(items)
	if err != nil {
		return nil, err
	}
	if err := s.kv.Set(ctx, s.key, data); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return items, nil
}

func indexOf(items []domain.CartLineItem, productID string) int {
	for i := range items {
		if items[i].ProductID == productID {
			return i
		}
	}
	return -1
}
