package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/repository"
	"github.com/fjod/go_cart/storefront/internal/storage"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type CatalogMock struct {
	products []domain.Product
	err      error
}

func (m CatalogMock) ListProducts(context.Context) ([]domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.products, nil
}

func (m CatalogMock) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, p := range m.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, repository.ErrProductNotFound
}

type IntentCreatorMock struct {
	mu    sync.Mutex
	resp  *checkout.IntentResponse
	err   error
	calls []domain.OrderSubmission
}

func (m *IntentCreatorMock) CreatePaymentIntent(_ context.Context, sub domain.OrderSubmission) (*checkout.IntentResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, sub)
	if m.err != nil {
		return nil, m.err
	}
	resp := *m.resp
	return &resp, nil
}

type OrderReaderMock struct {
	orders map[string]*domain.Order
	err    error
}

func (m OrderReaderMock) GetOrderByID(_ context.Context, id string) (*domain.Order, error) {
	if m.err != nil {
		return nil, m.err
	}
	if o, ok := m.orders[id]; ok {
		return o, nil
	}
	return nil, repository.ErrOrderNotFound
}

var (
	laptop = domain.Product{ID: "p-laptop", Title: "Laptop", Price: 120000, Stock: 30}
	mouse  = domain.Product{ID: "p-mouse", Title: "Mouse", Price: 3000, Stock: 4}
	poster = domain.Product{ID: "p-poster", Title: "Poster", Price: 1500, Stock: 0}
)

var testCustomer = domain.CustomerInfo{
	Name:       "Taro Yamada",
	Email:      "taro@example.com",
	Address:    "1-2-3 Shibuya",
	City:       "Tokyo",
	PostalCode: "150-0002",
}

type testServer struct {
	kv      *storage.MemoryStore
	intents *IntentCreatorMock
	handler http.Handler
}

func newTestServer(t *testing.T, orders OrderReader) *testServer {
	t.Helper()

	kv := storage.NewMemoryStore()
	intents := &IntentCreatorMock{resp: &checkout.IntentResponse{
		ClientSecret:    "pi_1_secret_abc",
		OrderID:         "order-1",
		PaymentIntentID: "pi_1",
	}}
	if orders == nil {
		orders = OrderReaderMock{}
	}
	logger := zap.NewNop()
	catalog := CatalogMock{products: []domain.Product{laptop, mouse, poster}}
	flow := checkout.NewOrchestrator(checkout.NewAttempts(time.Minute), intents, nil, nil, logger)

	handler := NewRouter(Handlers{
		Products:       NewProductHandler(catalog, 5*time.Second, logger),
		Cart:           NewCartHandler(kv, catalog, 5*time.Second, logger),
		Checkout:       NewCheckoutHandler(flow, kv, 5*time.Second, logger),
		Orders:         NewOrdersHandler(orders, kv, 5*time.Second, logger),
		PaymentIntents: NewPaymentIntentHandler(intents, 5*time.Second, logger),
	}, RouterConfig{RequestTimeout: 10 * time.Second, MaxRequestBodySize: 1 << 20})

	return &testServer{kv: kv, intents: intents, handler: handler}
}

func (s *testServer) do(t *testing.T, method, path, body, sessionID string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if sessionID != "" {
		req.Header.Set(SessionHeader, sessionID)
	}
	recorder := httptest.NewRecorder()
	s.handler.ServeHTTP(recorder, req)
	return recorder
}

func decodeBody[T any](t *testing.T, recorder *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&v), "body: %s", recorder.Body.String())
	return v
}

func mustJSON(t *testing.T, v interface{}) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}
