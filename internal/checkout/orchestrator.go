// Package checkout sequences a checkout attempt: create the order and its payment
// intent, wait for the payment to be collected, then record the order and clear
// the cart.
package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/order"
	"go.uber.org/zap"
)

type CartStore interface {
	Load(ctx context.Context) ([]domain.CartLineItem, error)
	Clear(ctx context.Context) error
}

type OrderHistory interface {
	RecordCompletedOrder(ctx context.Context, orderID string, items []domain.CartLineItem, totalAmount int64) (bool, error)
}

type IntentCreator interface {
	CreatePaymentIntent(ctx context.Context, sub domain.OrderSubmission) (*IntentResponse, error)
}

// PaymentVerifier confirms server side that a reported payment went through.
type PaymentVerifier interface {
	VerifyPayment(ctx context.Context, paymentIntentID, orderID string) error
}

type OrderNotifier interface {
	NotifyOrderPaid(ctx context.Context, event domain.OrderPaid) error
}

// Session bundles the per-session stores an attempt works against.
type Session struct {
	ID      string
	Cart    CartStore
	History OrderHistory
}

// PaymentReport is what the payment collection widget reported. A non-empty
// Error means the payment failed.
type PaymentReport struct {
	Error string
}

type Orchestrator struct {
	attempts *Attempts
	intents  IntentCreator
	verifier PaymentVerifier
	notifier OrderNotifier
	logger   *zap.Logger
	now      func() time.Time
}

// NewOrchestrator wires the collaborators. verifier and notifier may be nil.
func NewOrchestrator(attempts *Attempts, intents IntentCreator, verifier PaymentVerifier, notifier OrderNotifier, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		attempts: attempts,
		intents:  intents,
		verifier: verifier,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// Submit starts an attempt for the session's cart. Validation failures leave the
// attempt Idle without calling any collaborator. Once the order and intent exist
// the attempt waits in AwaitingPayment for Confirm.
func (o *Orchestrator) Submit(ctx context.Context, s Session, info domain.CustomerInfo) (Attempt, error) {
	attempt, err := o.attempts.Begin(s.ID)
	if err != nil {
		return Attempt{}, err
	}
	defer func() { o.attempts.Release(attempt) }()

	log := o.logger.With(zap.String("session_id", s.ID), zap.String("attempt_id", attempt.ID))

	items, err := s.Cart.Load(ctx)
	if err != nil {
		return o.fail(log, &attempt, err)
	}
	if len(items) == 0 {
		attempt.Err = ErrEmptyCart
		return attempt, ErrEmptyCart
	}

	sub, err := order.BuildSubmission(items, info)
	if err != nil {
		attempt.Err = err
		return attempt, err
	}

	if err := attempt.transition(domain.CheckoutStateSubmitting, o.now()); err != nil {
		return attempt, err
	}
	attempt.Submission = sub
	attempt.Err = nil

	resp, err := o.intents.CreatePaymentIntent(ctx, sub)
	if err != nil {
		var intentErr *PaymentIntentError
		if errors.As(err, &intentErr) {
			attempt.OrderID = intentErr.OrderID
		}
		return o.fail(log, &attempt, err)
	}
	attempt.OrderID = resp.OrderID
	attempt.PaymentIntentID = resp.PaymentIntentID
	attempt.ClientSecret = resp.ClientSecret

	if err := ctx.Err(); err != nil {
		return o.fail(log, &attempt, err)
	}

	if err := attempt.transition(domain.CheckoutStateAwaitingPayment, o.now()); err != nil {
		return attempt, err
	}
	log.Info("checkout awaiting payment",
		zap.String("order_id", attempt.OrderID),
		zap.Int64("total_amount", sub.TotalAmount))
	return attempt, nil
}

// Confirm is driven by the payment widget's completion callback. A reported
// failure, or a payment the processor does not confirm, fails the attempt
// without touching the cart or history.
func (o *Orchestrator) Confirm(ctx context.Context, s Session, report PaymentReport) (Attempt, error) {
	attempt, err := o.attempts.Acquire(s.ID)
	if err != nil {
		return Attempt{}, err
	}
	defer func() { o.attempts.Release(attempt) }()

	log := o.logger.With(
		zap.String("session_id", s.ID),
		zap.String("attempt_id", attempt.ID),
		zap.String("order_id", attempt.OrderID))

	if attempt.State != domain.CheckoutStateAwaitingPayment {
		return attempt, attempt.transition(domain.CheckoutStateFinalizing, o.now())
	}

	if report.Error != "" {
		return o.fail(log, &attempt, &PaymentConfirmationError{Message: report.Error})
	}

	if o.verifier != nil {
		if err := o.verifier.VerifyPayment(ctx, attempt.PaymentIntentID, attempt.OrderID); err != nil {
			var confirmErr *PaymentConfirmationError
			if errors.As(err, &confirmErr) {
				return o.fail(log, &attempt, err)
			}
			// the processor could not be asked; the shopper may retry the confirmation
			log.Warn("payment verification unavailable", zap.Error(err))
			return attempt, err
		}
	}
	if err := ctx.Err(); err != nil {
		return o.fail(log, &attempt, err)
	}

	if err := attempt.transition(domain.CheckoutStateFinalizing, o.now()); err != nil {
		return attempt, err
	}

	sub := attempt.Submission
	if _, err := s.History.RecordCompletedOrder(ctx, attempt.OrderID, sub.Items, sub.TotalAmount); err != nil {
		return o.fail(log, &attempt, err)
	}
	// the payment is collected and recorded; a cart left behind must not hide that
	if err := s.Cart.Clear(ctx); err != nil {
		log.Error("failed to clear cart after payment", zap.Error(err))
	}

	if o.notifier != nil {
		event := domain.OrderPaid{
			OrderID:         attempt.OrderID,
			PaymentIntentID: attempt.PaymentIntentID,
			TotalAmount:     sub.TotalAmount,
			PaidAt:          o.now().UTC(),
		}
		if err := o.notifier.NotifyOrderPaid(ctx, event); err != nil {
			log.Error("failed to publish order paid", zap.Error(err))
		}
	}

	if err := attempt.transition(domain.CheckoutStateSucceeded, o.now()); err != nil {
		return attempt, err
	}
	log.Info("checkout succeeded", zap.Int64("total_amount", sub.TotalAmount))
	return attempt, nil
}

// Status returns the session's latest attempt.
func (o *Orchestrator) Status(sessionID string) (Attempt, error) {
	attempt, ok := o.attempts.Get(sessionID)
	if !ok {
		return Attempt{}, ErrNoCheckout
	}
	return attempt, nil
}

func (o *Orchestrator) fail(log *zap.Logger, attempt *Attempt, cause error) (Attempt, error) {
	from := attempt.State
	if err := attempt.transition(domain.CheckoutStateFailed, o.now()); err != nil {
		return *attempt, errors.Join(cause, err)
	}
	attempt.Err = cause
	log.Warn("checkout failed",
		zap.String("from_state", from.String()),
		zap.Error(cause))
	return *attempt, cause
}
