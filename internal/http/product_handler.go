package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/repository"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ProductCatalog is the read side of the catalog.
type ProductCatalog interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
}

type ProductHandler struct {
	catalog ProductCatalog
	timeout time.Duration
	logger  *zap.Logger
}

func NewProductHandler(catalog ProductCatalog, timeout time.Duration, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		catalog: catalog,
		timeout: timeout,
		logger:  logger,
	}
}

type ProductsResponse struct {
	Products []domain.Product `json:"products"`
}

// GET /api/v1/products
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	products, err := h.catalog.ListProducts(ctx)
	if err != nil {
		requestLogger(r, h.logger).Error("list products failed", zap.Error(err))
		respondError(w, http.StatusServiceUnavailable, "catalog_unavailable", "failed to load products")
		return
	}
	if products == nil {
		products = []domain.Product{}
	}

	respondJSON(w, http.StatusOK, &ProductsResponse{Products: products})
}

// GET /api/v1/products/{product_id}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID := chi.URLParam(r, "product_id")
	product, err := h.catalog.GetProduct(ctx, productID)
	if err != nil {
		respondCatalogError(w, requestLogger(r, h.logger), err)
		return
	}

	respondJSON(w, http.StatusOK, product)
}

func respondCatalogError(w http.ResponseWriter, logger *zap.Logger, err error) {
	if errors.Is(err, repository.ErrProductNotFound) {
		respondError(w, http.StatusNotFound, "product_not_found", "product not found")
		return
	}
	logger.Error("catalog read failed", zap.Error(err))
	respondError(w, http.StatusServiceUnavailable, "catalog_unavailable", "failed to load product")
}
