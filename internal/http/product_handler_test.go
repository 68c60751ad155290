package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestListProducts_Success(t *testing.T) {
	srv := newTestServer(t, nil)

	recorder := srv.do(t, http.MethodGet, "/api/v1/products", "", "")

	require.Equal(t, http.StatusOK, recorder.Code)
	resp := decodeBody[ProductsResponse](t, recorder)
	require.Len(t, resp.Products, 3)
	assert.Equal(t, "Laptop", resp.Products[0].Title)
	assert.Equal(t, int64(120000), resp.Products[0].Price)
}

func TestListProducts_EmptyList(t *testing.T) {
	handler := NewProductHandler(CatalogMock{}, 5*time.Second, zap.NewNop())
	recorder := httptest.NewRecorder()

	handler.List(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"products":[]}`, recorder.Body.String())
}

func TestListProducts_CatalogError(t *testing.T) {
	handler := NewProductHandler(CatalogMock{err: errors.New("connection refused")}, 5*time.Second, zap.NewNop())
	recorder := httptest.NewRecorder()

	handler.List(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)
	resp := decodeBody[ErrorResponse](t, recorder)
	assert.Equal(t, "catalog_unavailable", resp.Code)
	assert.NotContains(t, resp.Error, "connection refused")
}

func TestGetProduct(t *testing.T) {
	srv := newTestServer(t, nil)

	recorder := srv.do(t, http.MethodGet, "/api/v1/products/p-mouse", "", "")
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "Mouse", decodeBody[domain.Product](t, recorder).Title)

	recorder = srv.do(t, http.MethodGet, "/api/v1/products/missing", "", "")
	assert.Equal(t, http.StatusNotFound, recorder.Code)
	assert.Equal(t, "product_not_found", decodeBody[ErrorResponse](t, recorder).Code)
}
