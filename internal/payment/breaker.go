package payment

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

type BreakerSettings struct {
	Name                string
	MaxHalfOpenRequests uint32
	Interval            time.Duration
	OpenTimeout         time.Duration
	ConsecutiveFailures uint32
}

func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		Name:                "payment-processor",
		MaxHalfOpenRequests: 1,
		Interval:            time.Minute,
		OpenTimeout:         30 * time.Second,
		ConsecutiveFailures: 5,
	}
}

// BreakerProcessor stops calling the processor after repeated failures.
// While open, calls fail fast with gobreaker.ErrOpenState.
type BreakerProcessor struct {
	next Processor
	cb   *gobreaker.CircuitBreaker[*Intent]
}

func NewBreakerProcessor(next Processor, s BreakerSettings, logger *zap.Logger) *BreakerProcessor {
	cb := gobreaker.NewCircuitBreaker[*Intent](gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: s.MaxHalfOpenRequests,
		Interval:    s.Interval,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
		// Lookups of unknown intents and caller cancellation say nothing about processor health.
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, ErrIntentNotFound) ||
				errors.Is(err, context.Canceled)
		},
	})
	return &BreakerProcessor{next: next, cb: cb}
}

func (b *BreakerProcessor) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	return b.cb.Execute(func() (*Intent, error) {
		return b.next.CreateIntent(ctx, req)
	})
}

func (b *BreakerProcessor) GetIntent(ctx context.Context, id string) (*Intent, error) {
	return b.cb.Execute(func() (*Intent, error) {
		return b.next.GetIntent(ctx, id)
	})
}

func (b *BreakerProcessor) CancelIntent(ctx context.Context, id string) error {
	_, err := b.cb.Execute(func() (*Intent, error) {
		return nil, b.next.CancelIntent(ctx, id)
	})
	return err
}

func (b *BreakerProcessor) State() gobreaker.State {
	return b.cb.State()
}
