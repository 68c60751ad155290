package checkout

import (
	"context"
	"fmt"
	"sync"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/payment"
)

// MockIntentCreator implements IntentCreator for testing
type MockIntentCreator struct {
	Response *IntentResponse
	Err      error
	Calls    []domain.OrderSubmission
}

func (m *MockIntentCreator) CreatePaymentIntent(_ context.Context, sub domain.OrderSubmission) (*IntentResponse, error) {
	m.Calls = append(m.Calls, sub)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Response, nil
}

// MockVerifier implements PaymentVerifier for testing
type MockVerifier struct {
	Err      error
	IntentID string
	OrderID  string
}

func (m *MockVerifier) VerifyPayment(_ context.Context, paymentIntentID, orderID string) error {
	m.IntentID = paymentIntentID
	m.OrderID = orderID
	return m.Err
}

// MockNotifier implements OrderNotifier for testing
type MockNotifier struct {
	Events []domain.OrderPaid
	Err    error
}

func (m *MockNotifier) NotifyOrderPaid(_ context.Context, event domain.OrderPaid) error {
	m.Events = append(m.Events, event)
	return m.Err
}

// MockOrderRepository implements repository.OrderRepository for testing
type MockOrderRepository struct {
	mu        sync.Mutex
	Orders    map[string]*domain.Order
	Created   []domain.NewOrder
	Updates   map[string][]domain.OrderUpdate
	CreateErr error
	UpdateErr error
	nextID    int
}

func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		Orders:  map[string]*domain.Order{},
		Updates: map[string][]domain.OrderUpdate{},
	}
}

func (m *MockOrderRepository) CreateOrder(_ context.Context, o domain.NewOrder) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Created = append(m.Created, o)
	if m.CreateErr != nil {
		return "", m.CreateErr
	}
	m.nextID++
	id := fmt.Sprintf("o%d", m.nextID)
	m.Orders[id] = &domain.Order{
		ID:          id,
		UserID:      o.UserID,
		Items:       o.Items,
		TotalAmount: o.TotalAmount,
		Status:      o.Status,
	}
	return id, nil
}

func (m *MockOrderRepository) GetOrderByID(_ context.Context, id string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.Orders[id]
	if !ok {
		return nil, fmt.Errorf("order %s not found", id)
	}
	copied := *o
	return &copied, nil
}

func (m *MockOrderRepository) UpdateOrder(_ context.Context, id string, u domain.OrderUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Updates[id] = append(m.Updates[id], u)
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	o, ok := m.Orders[id]
	if !ok {
		return fmt.Errorf("order %s not found", id)
	}
	if u.Status != "" {
		o.Status = u.Status
	}
	if u.StripePaymentIntentID != "" {
		o.StripePaymentIntentID = u.StripePaymentIntentID
	}
	return nil
}

// MockProcessor implements payment.Processor for testing
type MockProcessor struct {
	Intent    *payment.Intent
	CreateErr error
	GetErr    error
	CancelErr error
	Requests  []payment.IntentRequest
	Cancelled []string
}

func (m *MockProcessor) CreateIntent(_ context.Context, req payment.IntentRequest) (*payment.Intent, error) {
	m.Requests = append(m.Requests, req)
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	return &payment.Intent{
		ID:           "pi_1",
		ClientSecret: "pi_1_secret",
		Amount:       req.Amount,
		Currency:     req.Currency,
		Status:       payment.IntentStatusRequiresPaymentMethod,
		Metadata:     map[string]string{payment.MetadataOrderID: req.OrderID},
	}, nil
}

func (m *MockProcessor) GetIntent(context.Context, string) (*payment.Intent, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	return m.Intent, nil
}

func (m *MockProcessor) CancelIntent(_ context.Context, id string) error {
	m.Cancelled = append(m.Cancelled, id)
	return m.CancelErr
}
