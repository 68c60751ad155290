// Package repository persists the catalog and server-side order records.
package repository

import (
	"context"
	"errors"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrOrderNotFound   = errors.New("order not found")
)

// ProductRepository is the catalog reader, plus the write used by seeding.
type ProductRepository interface {
	// GetAllProducts returns the catalog newest first.
	GetAllProducts(ctx context.Context) ([]domain.Product, error)
	GetProductByID(ctx context.Context, id string) (*domain.Product, error)
	// AddProduct inserts or replaces a product and returns its id.
	AddProduct(ctx context.Context, product domain.Product) (string, error)
}

type OrderRepository interface {
	// CreateOrder assigns an id and timestamps and returns the id.
	CreateOrder(ctx context.Context, order domain.NewOrder) (string, error)
	GetOrderByID(ctx context.Context, id string) (*domain.Order, error)
	UpdateOrder(ctx context.Context, id string, update domain.OrderUpdate) error
}

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}
