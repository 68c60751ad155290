package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/payment"
	"github.com/fjod/go_cart/storefront/internal/repository"
	"go.uber.org/zap"
)

const compensationTimeout = 5 * time.Second

type IntentResponse struct {
	ClientSecret    string `json:"clientSecret"`
	OrderID         string `json:"orderId"`
	PaymentIntentID string `json:"-"`
}

// PaymentIntentService creates the pending order and the processor intent for it.
type PaymentIntentService struct {
	orders    repository.OrderRepository
	processor payment.Processor
	currency  string
	timeout   time.Duration
	logger    *zap.Logger
}

func NewPaymentIntentService(orders repository.OrderRepository, processor payment.Processor, currency string, timeout time.Duration, logger *zap.Logger) *PaymentIntentService {
	return &PaymentIntentService{
		orders:    orders,
		processor: processor,
		currency:  currency,
		timeout:   timeout,
		logger:    logger,
	}
}

// CreatePaymentIntent persists a pending order, then asks the processor for an
// intent carrying the order id in its metadata. When the processor fails the
// order is marked cancelled before the error is returned.
func (s *PaymentIntentService) CreatePaymentIntent(ctx context.Context, sub domain.OrderSubmission) (*IntentResponse, error) {
	orderID, err := s.orders.CreateOrder(ctx, domain.NewOrder{
		UserID:      domain.AnonymousUserID,
		Items:       sub.Items,
		TotalAmount: sub.TotalAmount,
		Status:      domain.OrderStatusPending,
	})
	if err != nil {
		return nil, &PersistenceError{Err: err}
	}

	paymentCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	intent, err := s.processor.CreateIntent(paymentCtx, payment.IntentRequest{
		Amount:        sub.TotalAmount,
		Currency:      s.currency,
		OrderID:       orderID,
		CustomerName:  sub.CustomerInfo.Name,
		CustomerEmail: sub.CustomerInfo.Email,
	})
	if err != nil {
		s.cancelOrder(ctx, orderID, err)
		return nil, &PaymentIntentError{OrderID: orderID, Err: err}
	}

	if err := s.orders.UpdateOrder(ctx, orderID, domain.OrderUpdate{StripePaymentIntentID: intent.ID}); err != nil {
		s.logger.Warn("failed to attach payment intent to order",
			zap.String("order_id", orderID),
			zap.String("payment_intent_id", intent.ID),
			zap.Error(err))
	}

	s.logger.Info("payment intent created",
		zap.String("order_id", orderID),
		zap.String("payment_intent_id", intent.ID),
		zap.Int64("amount", sub.TotalAmount))

	return &IntentResponse{
		ClientSecret:    intent.ClientSecret,
		OrderID:         orderID,
		PaymentIntentID: intent.ID,
	}, nil
}

// VerifyPayment checks with the processor that the intent belongs to orderID and
// that its payment went through. A declined or abandoned payment yields a
// *PaymentConfirmationError.
func (s *PaymentIntentService) VerifyPayment(ctx context.Context, paymentIntentID, orderID string) error {
	paymentCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	intent, err := s.processor.GetIntent(paymentCtx, paymentIntentID)
	if err != nil {
		return fmt.Errorf("get payment intent %s: %w", paymentIntentID, err)
	}
	if intent.OrderID() != orderID {
		return &PaymentConfirmationError{Message: "payment does not match the order"}
	}

	switch intent.Status {
	case payment.IntentStatusSucceeded, payment.IntentStatusProcessing:
		return nil
	case payment.IntentStatusRequiresPaymentMethod:
		return &PaymentConfirmationError{Message: "payment has not been completed"}
	default:
		return &PaymentConfirmationError{Message: intent.FailureMessage}
	}
}

func (s *PaymentIntentService) cancelOrder(ctx context.Context, orderID string, cause error) {
	// the caller's context may already be done; compensation still has to run
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	log := s.logger.With(zap.String("order_id", orderID), zap.NamedError("cause", cause))
	if err := s.orders.UpdateOrder(cctx, orderID, domain.OrderUpdate{Status: domain.OrderStatusCancelled}); err != nil {
		log.Error("failed to cancel order", zap.Error(err))
		return
	}
	log.Warn("order cancelled")
}

// CancelAbandoned closes the payment intent of an attempt dropped while awaiting
// payment and cancels its order. When the processor refuses to cancel the intent
// it may already be paid, so the order is left pending.
func (s *PaymentIntentService) CancelAbandoned(attempt Attempt) {
	if attempt.OrderID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), compensationTimeout)
	defer cancel()

	if attempt.PaymentIntentID != "" {
		if err := s.processor.CancelIntent(ctx, attempt.PaymentIntentID); err != nil {
			s.logger.Warn("failed to cancel abandoned payment intent, order left pending",
				zap.String("order_id", attempt.OrderID),
				zap.String("payment_intent_id", attempt.PaymentIntentID),
				zap.Error(err))
			return
		}
	}
	s.cancelOrder(ctx, attempt.OrderID, ErrCheckoutAbandoned)
}
