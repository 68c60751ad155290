package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/storage"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// maxAddQuantity caps a single add, together with the product's stock.
const maxAddQuantity = 10

type CartHandler struct {
	kv      storage.KeyValueStore
	catalog ProductCatalog
	timeout time.Duration
	logger  *zap.Logger
}

func NewCartHandler(kv storage.KeyValueStore, catalog ProductCatalog, timeout time.Duration, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		kv:      kv,
		catalog: catalog,
		timeout: timeout,
		logger:  logger,
	}
}

type AddItemRequestDTO struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type CartResponse struct {
	Items       []domain.CartLineItem `json:"items"`
	TotalAmount int64                 `json:"totalAmount"`
}

func newCartResponse(items []domain.CartLineItem) CartResponse {
	if items == nil {
		items = []domain.CartLineItem{}
	}
	return CartResponse{Items: items, TotalAmount: domain.TotalAmount(items)}
}

func (h *CartHandler) store(r *http.Request) *cart.Store {
	return cart.NewStore(h.kv, getSessionID(r.Context()))
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	items, err := h.store(r).Load(ctx)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, newCartResponse(items))
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "productId is required")
		return
	}

	product, err := h.catalog.GetProduct(ctx, req.ProductID)
	if err != nil {
		respondCatalogError(w, requestLogger(r, h.logger), err)
		return
	}
	if product.Stock <= 0 {
		respondError(w, http.StatusConflict, "out_of_stock", "product is out of stock")
		return
	}
	limit := min(maxAddQuantity, product.Stock)
	if req.Quantity < 1 || req.Quantity > limit {
		respondError(w, http.StatusBadRequest, "invalid_quantity",
			fmt.Sprintf("quantity must be between 1 and %d", limit))
		return
	}

	store := h.store(r)
	current, err := store.Load(ctx)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	if inCart := quantityOf(current, product.ID); inCart+req.Quantity > product.Stock {
		respondError(w, http.StatusBadRequest, "invalid_quantity",
			fmt.Sprintf("only %d more available", max(product.Stock-inCart, 0)))
		return
	}

	items, err := store.Add(ctx, *product, req.Quantity)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, newCartResponse(items))
}

// PUT /api/v1/cart/items/{product_id}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID := chi.URLParam(r, "product_id")

	var req UpdateQuantityRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	// quantity <= 0 removes the line item
	if req.Quantity > 0 {
		product, err := h.catalog.GetProduct(ctx, productID)
		if err != nil {
			respondCatalogError(w, requestLogger(r, h.logger), err)
			return
		}
		if req.Quantity > product.Stock {
			respondError(w, http.StatusBadRequest, "invalid_quantity",
				fmt.Sprintf("quantity must be between 1 and %d", product.Stock))
			return
		}
	}

	items, err := h.store(r).SetQuantity(ctx, productID, req.Quantity)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, newCartResponse(items))
}

// DELETE /api/v1/cart/items/{product_id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	items, err := h.store(r).Remove(ctx, chi.URLParam(r, "product_id"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, newCartResponse(items))
}

// DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.store(r).Clear(ctx); err != nil {
		h.handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, newCartResponse(nil))
}

func quantityOf(items []domain.CartLineItem, productID string) int {
	for _, item := range items {
		if item.ProductID == productID {
			return item.Quantity
		}
	}
	return 0
}

func (h *CartHandler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, cart.ErrInvalidQuantity), errors.Is(err, cart.ErrQuantityLimit):
		respondError(w, http.StatusBadRequest, "invalid_quantity", err.Error())
	case errors.Is(err, cart.ErrInvalidProduct):
		respondError(w, http.StatusBadRequest, "invalid_product_id", err.Error())
	default:
		requestLogger(r, h.logger).Error("cart operation failed",
			zap.String("session_id", getSessionID(r.Context())),
			zap.Error(err))
		handleSessionStoreError(w, err)
	}
}
