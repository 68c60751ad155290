package checkout

import (
	"fmt"
	"sync"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/google/uuid"
)

// Attempt is one pass through the checkout state machine for a session.
type Attempt struct {
	ID              string
	SessionID       string
	State           domain.CheckoutState
	Submission      domain.OrderSubmission
	OrderID         string
	PaymentIntentID string
	ClientSecret    string
	Err             error
	StartedAt       time.Time
	UpdatedAt       time.Time
}

func (a *Attempt) transition(to domain.CheckoutState, now time.Time) error {
	if !domain.CanTransitionTo(a.State, to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, a.State, to)
	}
	a.State = to
	a.UpdatedAt = now
	return nil
}

type attemptEntry struct {
	attempt Attempt
	busy    bool
}

// Attempts tracks the latest checkout attempt of every session and allows one
// operation per session at a time.
type Attempts struct {
	mu        sync.Mutex
	bySession map[string]*attemptEntry
	// awaitTTL bounds how long an attempt may sit in AwaitingPayment before a
	// new submission is allowed to replace it.
	awaitTTL  time.Duration
	now       func() time.Time
	onAbandon func(Attempt)
}

func NewAttempts(awaitTTL time.Duration) *Attempts {
	return &Attempts{
		bySession: make(map[string]*attemptEntry),
		awaitTTL:  awaitTTL,
		now:       time.Now,
	}
}

// OnAbandon registers fn to be called, outside the lock, with every attempt that
// is dropped while still waiting for payment: replaced by a new submission after
// the await TTL, or pruned.
func (a *Attempts) OnAbandon(fn func(Attempt)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onAbandon = fn
}

// Begin starts a new Idle attempt for the session and reserves it for the caller.
func (a *Attempts) Begin(sessionID string) (Attempt, error) {
	attempt, abandoned, err := a.begin(sessionID)
	if err != nil {
		return Attempt{}, err
	}
	a.abandon(abandoned)
	return attempt, nil
}

func (a *Attempts) begin(sessionID string) (Attempt, []Attempt, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()
	var abandoned []Attempt
	if e, ok := a.bySession[sessionID]; ok {
		if e.busy {
			return Attempt{}, nil, ErrCheckoutInProgress
		}
		if e.attempt.State == domain.CheckoutStateAwaitingPayment && now.Sub(e.attempt.UpdatedAt) < a.awaitTTL {
			return Attempt{}, nil, ErrCheckoutInProgress
		}
		if e.attempt.State.InFlight() {
			abandoned = append(abandoned, e.attempt)
		}
	}

	attempt := Attempt{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		State:     domain.CheckoutStateIdle,
		StartedAt: now,
		UpdatedAt: now,
	}
	a.bySession[sessionID] = &attemptEntry{attempt: attempt, busy: true}
	return attempt, abandoned, nil
}

// Acquire reserves the session's current attempt for the caller.
func (a *Attempts) Acquire(sessionID string) (Attempt, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	e, ok := a.bySession[sessionID]
	if !ok {
		return Attempt{}, ErrNoCheckout
	}
	if e.busy {
		return Attempt{}, ErrCheckoutInProgress
	}
	e.busy = true
	return e.attempt, nil
}

// Release stores the caller's copy of the attempt and frees the session. A release
// for an attempt that has since been replaced is ignored.
func (a *Attempts) Release(attempt Attempt) {
	a.mu.Lock()
	defer a.mu.Unlock()

	e, ok := a.bySession[attempt.SessionID]
	if !ok || e.attempt.ID != attempt.ID {
		return
	}
	e.attempt = attempt
	e.busy = false
}

// Get returns the session's latest attempt.
func (a *Attempts) Get(sessionID string) (Attempt, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	e, ok := a.bySession[sessionID]
	if !ok {
		return Attempt{}, false
	}
	return e.attempt, true
}

// Prune drops idle entries last touched before cutoff.
func (a *Attempts) Prune(cutoff time.Time) int {
	a.mu.Lock()
	removed := 0
	var abandoned []Attempt
	for id, e := range a.bySession {
		if !e.busy && e.attempt.UpdatedAt.Before(cutoff) {
			// a released attempt still in flight can only be awaiting payment
			if e.attempt.State.InFlight() {
				abandoned = append(abandoned, e.attempt)
			}
			delete(a.bySession, id)
			removed++
		}
	}
	a.mu.Unlock()

	a.abandon(abandoned)
	return removed
}

func (a *Attempts) abandon(attempts []Attempt) {
	a.mu.Lock()
	fn := a.onAbandon
	a.mu.Unlock()

	if fn == nil {
		return
	}
	for _, attempt := range attempts {
		fn(attempt)
	}
}
