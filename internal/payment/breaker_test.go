package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// countingProcessor fails with err and counts calls
type countingProcessor struct {
	err   error
	calls int
}

func (c *countingProcessor) CreateIntent(context.Context, IntentRequest) (*Intent, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return &Intent{ID: "pi_ok"}, nil
}

func (c *countingProcessor) GetIntent(context.Context, string) (*Intent, error) {
	c.calls++
	return nil, c.err
}

func (c *countingProcessor) CancelIntent(context.Context, string) error {
	c.calls++
	return c.err
}

func testBreakerSettings() BreakerSettings {
	s := DefaultBreakerSettings()
	s.ConsecutiveFailures = 3
	s.OpenTimeout = time.Hour
	return s
}

func TestBreakerProcessor_PassesThrough(t *testing.T) {
	next := &countingProcessor{}
	b := NewBreakerProcessor(next, testBreakerSettings(), zap.NewNop())

	intent, err := b.CreateIntent(context.Background(), IntentRequest{Amount: 1})
	require.NoError(t, err)
	assert.Equal(t, "pi_ok", intent.ID)
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestBreakerProcessor_OpensAfterConsecutiveFailures(t *testing.T) {
	next := &countingProcessor{err: errors.New("processor unavailable")}
	b := NewBreakerProcessor(next, testBreakerSettings(), zap.NewNop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := b.CreateIntent(ctx, IntentRequest{Amount: 1})
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, b.State())

	_, err := b.CreateIntent(ctx, IntentRequest{Amount: 1})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 3, next.calls)
}

func TestBreakerProcessor_NotFoundDoesNotTrip(t *testing.T) {
	next := &countingProcessor{err: ErrIntentNotFound}
	b := NewBreakerProcessor(next, testBreakerSettings(), zap.NewNop())

	for i := 0; i < 5; i++ {
		_, err := b.GetIntent(context.Background(), "pi_missing")
		assert.ErrorIs(t, err, ErrIntentNotFound)
	}
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestBreakerProcessor_CancelIntent(t *testing.T) {
	next := &countingProcessor{}
	b := NewBreakerProcessor(next, testBreakerSettings(), zap.NewNop())

	require.NoError(t, b.CancelIntent(context.Background(), "pi_1"))
	assert.Equal(t, 1, next.calls)
}
