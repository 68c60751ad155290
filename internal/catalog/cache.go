package catalog

import (
	"context"
	"errors"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

type Cache interface {
	GetProducts(ctx context.Context) ([]domain.Product, error)
	SetProducts(ctx context.Context, products []domain.Product) error
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	SetProduct(ctx context.Context, product *domain.Product) error
	Invalidate(ctx context.Context, productIDs ...string) error
}

var ErrCacheMiss = errors.New("cache miss")
