package checkout

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/cucumber/godog"
	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/order"
	"github.com/fjod/go_cart/storefront/internal/payment"
	"github.com/fjod/go_cart/storefront/internal/storage"
	"go.uber.org/zap"
)

type checkoutTestContext struct {
	products  map[string]domain.Product
	kv        *storage.MemoryStore
	cart      *cart.Store
	history   *order.History
	orders    *MockOrderRepository
	processor payment.Processor
	orch      *Orchestrator
	attempt   Attempt
	lastErr   error
}

func (c *checkoutTestContext) reset() {
	c.products = map[string]domain.Product{}
	c.kv = storage.NewMemoryStore()
	c.cart = cart.NewStore(c.kv, "shopper")
	c.history = order.NewHistory(c.kv, "shopper")
	c.orders = NewMockOrderRepository()
	c.processor = payment.NewFakeProcessor(payment.FixedStatus{Succeeded: true})
	c.orch = nil
	c.attempt = Attempt{}
	c.lastErr = nil
}

func (c *checkoutTestContext) session() Session {
	return Session{ID: "shopper", Cart: c.cart, History: c.history}
}

func (c *checkoutTestContext) orchestrator() *Orchestrator {
	if c.orch == nil {
		intents := NewPaymentIntentService(c.orders, c.processor, "jpy", time.Second, zap.NewNop())
		c.orch = NewOrchestrator(NewAttempts(time.Minute), intents, intents, nil, zap.NewNop())
	}
	return c.orch
}

func (c *checkoutTestContext) theCatalogContainsProductPriced(id string, price int) error {
	c.products[id] = domain.Product{ID: id, Title: "Product " + id, Price: int64(price), Stock: 10}
	return nil
}

func (c *checkoutTestContext) theCartContainsOfProduct(qty int, id string) error {
	p, ok := c.products[id]
	if !ok {
		return fmt.Errorf("unknown product %q", id)
	}
	_, err := c.cart.Add(context.Background(), p, qty)
	return err
}

func (c *checkoutTestContext) theQuantityOfProductIsSetTo(id string, qty int) error {
	_, err := c.cart.SetQuantity(context.Background(), id, qty)
	return err
}

func (c *checkoutTestContext) thePaymentProcessorIsUnavailable() error {
	c.processor = &MockProcessor{CreateErr: errors.New("processor unavailable")}
	return nil
}

func (c *checkoutTestContext) thePaymentProcessorApprovesPayments() error {
	c.processor = payment.NewFakeProcessor(payment.FixedStatus{Succeeded: true})
	return nil
}

func (c *checkoutTestContext) thePaymentProcessorDeclinesPayments() error {
	c.processor = payment.NewFakeProcessor(payment.FixedStatus{Refusal: payment.RefusalCardDeclined})
	return nil
}

func validCustomerInfo() domain.CustomerInfo {
	return domain.CustomerInfo{
		Name:       "Taro Suzuki",
		Email:      "taro@example.com",
		Address:    "4-5-6 Umeda",
		City:       "Osaka",
		PostalCode: "530-0001",
	}
}

func (c *checkoutTestContext) theShopperSubmitsCheckout() error {
	c.attempt, c.lastErr = c.orchestrator().Submit(context.Background(), c.session(), validCustomerInfo())
	return nil
}

func (c *checkoutTestContext) theShopperSubmitsCheckoutWithoutAName() error {
	info := validCustomerInfo()
	info.Name = ""
	c.attempt, c.lastErr = c.orchestrator().Submit(context.Background(), c.session(), info)
	return nil
}

func (c *checkoutTestContext) thePaymentIsConfirmed() error {
	c.attempt, c.lastErr = c.orchestrator().Confirm(context.Background(), c.session(), PaymentReport{})
	return nil
}

func (c *checkoutTestContext) theCartTotalIs(total int) error {
	items, err := c.cart.Load(context.Background())
	if err != nil {
		return err
	}
	if got := domain.TotalAmount(items); got != int64(total) {
		return fmt.Errorf("expected total %d, got %d", total, got)
	}
	return nil
}

func (c *checkoutTestContext) theCartHasLineItems(n int) error {
	items, err := c.cart.Load(context.Background())
	if err != nil {
		return err
	}
	if len(items) != n {
		return fmt.Errorf("expected %d line items, got %d", n, len(items))
	}
	return nil
}

func (c *checkoutTestContext) theQuantityOfProductIs(id string, qty int) error {
	items, err := c.cart.Load(context.Background())
	if err != nil {
		return err
	}
	for _, item := range items {
		if item.ProductID == id {
			if item.Quantity != qty {
				return fmt.Errorf("expected quantity %d, got %d", qty, item.Quantity)
			}
			return nil
		}
	}
	return fmt.Errorf("product %q not in cart", id)
}

func (c *checkoutTestContext) theCartIsEmpty() error {
	return c.theCartHasLineItems(0)
}

func (c *checkoutTestContext) checkoutFailsValidationOnField(field string) error {
	var vErr *order.ValidationError
	if !errors.As(c.lastErr, &vErr) {
		return fmt.Errorf("expected validation error, got %v", c.lastErr)
	}
	if vErr.Field != field {
		return fmt.Errorf("expected field %q, got %q", field, vErr.Field)
	}
	return nil
}

func (c *checkoutTestContext) theCheckoutStateIs(state string) error {
	if string(c.attempt.State) != state {
		return fmt.Errorf("expected state %s, got %s (err: %v)", state, c.attempt.State, c.lastErr)
	}
	return nil
}

func (c *checkoutTestContext) noOrderWasCreated() error {
	if len(c.orders.Created) != 0 {
		return fmt.Errorf("expected no orders, got %d", len(c.orders.Created))
	}
	return nil
}

func (c *checkoutTestContext) currentOrder() (*domain.Order, error) {
	if c.attempt.OrderID == "" {
		return nil, errors.New("attempt has no order id")
	}
	return c.orders.GetOrderByID(context.Background(), c.attempt.OrderID)
}

func (c *checkoutTestContext) theOrderIs(status string) error {
	o, err := c.currentOrder()
	if err != nil {
		return err
	}
	if string(o.Status) != status {
		return fmt.Errorf("expected order status %s, got %s", status, o.Status)
	}
	return nil
}

func (c *checkoutTestContext) theOrderIsWithTotal(status string, total int) error {
	if err := c.theOrderIs(status); err != nil {
		return err
	}
	o, _ := c.currentOrder()
	if o.TotalAmount != int64(total) {
		return fmt.Errorf("expected order total %d, got %d", total, o.TotalAmount)
	}
	return nil
}

func (c *checkoutTestContext) thePaymentIntentReferencesTheOrder() error {
	intent, err := c.processor.GetIntent(context.Background(), c.attempt.PaymentIntentID)
	if err != nil {
		return err
	}
	if intent.OrderID() != c.attempt.OrderID {
		return fmt.Errorf("intent references order %q, attempt has %q", intent.OrderID(), c.attempt.OrderID)
	}
	return nil
}

func (c *checkoutTestContext) theOrderHistoryIsEmpty() error {
	entries, err := c.history.List(context.Background())
	if err != nil {
		return err
	}
	if len(entries) != 0 {
		return fmt.Errorf("expected empty history, got %d entries", len(entries))
	}
	return nil
}

func (c *checkoutTestContext) theOrderHistoryHasEntryWithStatusAndTotal(n int, status string, total int) error {
	entries, err := c.history.List(context.Background())
	if err != nil {
		return err
	}
	if len(entries) != n {
		return fmt.Errorf("expected %d entries, got %d", n, len(entries))
	}
	last := entries[len(entries)-1]
	if string(last.Status) != status || last.TotalAmount != int64(total) {
		return fmt.Errorf("unexpected entry: status %s total %d", last.Status, last.TotalAmount)
	}
	return nil
}

func (c *checkoutTestContext) theShopperSees(message string) error {
	if got := UserMessage(c.lastErr); got != message {
		return fmt.Errorf("expected message %q, got %q", message, got)
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &checkoutTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^the catalog contains product "([^"]*)" priced (\d+)$`, tc.theCatalogContainsProductPriced)
	ctx.Step(`^the cart contains (\d+) of product "([^"]*)"$`, tc.theCartContainsOfProduct)
	ctx.Step(`^the payment processor is unavailable$`, tc.thePaymentProcessorIsUnavailable)
	ctx.Step(`^the payment processor approves payments$`, tc.thePaymentProcessorApprovesPayments)
	ctx.Step(`^the payment processor declines payments$`, tc.thePaymentProcessorDeclinesPayments)

	// When steps
	ctx.Step(`^the quantity of product "([^"]*)" is set to (-?\d+)$`, tc.theQuantityOfProductIsSetTo)
	ctx.Step(`^the shopper submits checkout$`, tc.theShopperSubmitsCheckout)
	ctx.Step(`^the shopper submits checkout without a name$`, tc.theShopperSubmitsCheckoutWithoutAName)
	ctx.Step(`^the payment is confirmed$`, tc.thePaymentIsConfirmed)

	// Then steps
	ctx.Step(`^the cart total is (\d+)$`, tc.theCartTotalIs)
	ctx.Step(`^the cart has (\d+) line items?$`, tc.theCartHasLineItems)
	ctx.Step(`^the quantity of product "([^"]*)" is (\d+)$`, tc.theQuantityOfProductIs)
	ctx.Step(`^the cart is empty$`, tc.theCartIsEmpty)
	ctx.Step(`^checkout fails validation on field "([^"]*)"$`, tc.checkoutFailsValidationOnField)
	ctx.Step(`^the checkout state is "([^"]*)"$`, tc.theCheckoutStateIs)
	ctx.Step(`^no order was created$`, tc.noOrderWasCreated)
	ctx.Step(`^the order is "([^"]*)"$`, tc.theOrderIs)
	ctx.Step(`^the order is "([^"]*)" with total (\d+)$`, tc.theOrderIsWithTotal)
	ctx.Step(`^the payment intent references the order$`, tc.thePaymentIntentReferencesTheOrder)
	ctx.Step(`^the order history is empty$`, tc.theOrderHistoryIsEmpty)
	ctx.Step(`^the order history has (\d+) entry with status "([^"]*)" and total (\d+)$`, tc.theOrderHistoryHasEntryWithStatusAndTotal)
	ctx.Step(`^the shopper sees "([^"]*)"$`, tc.theShopperSees)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features/checkout.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
