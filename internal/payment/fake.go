package payment

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/google/uuid"
)

// Refusal is the reason a simulated charge was declined.
type Refusal int

const (
	RefusalUnknown Refusal = iota
	RefusalInsufficientFunds
	RefusalCardDeclined
	RefusalExpiredCard
	RefusalFraudSuspected
	RefusalLimitExceeded
)

func (r Refusal) String() string {
	switch r {
	case RefusalInsufficientFunds:
		return "insufficient funds"
	case RefusalCardDeclined:
		return "card declined"
	case RefusalExpiredCard:
		return "expired card"
	case RefusalFraudSuspected:
		return "fraud suspected"
	case RefusalLimitExceeded:
		return "limit exceeded"
	default:
		return "unknown"
	}
}

// StatusSource decides the outcome of a simulated charge. otherReason, when set,
// takes precedence over refusal.
type StatusSource interface {
	GetStatus() (succeeded bool, refusal Refusal, otherReason string)
}

// RandomStatus succeeds about 95% of the time.
type RandomStatus struct{}

func (RandomStatus) GetStatus() (bool, Refusal, string) {
	return calcStatus(rand.Intn(101))
}

func calcStatus(roll int) (bool, Refusal, string) {
	if roll < 95 {
		return true, RefusalUnknown, ""
	}
	reason := roll - 95
	if reason == 0 || reason > 5 {
		return false, RefusalUnknown, "unknown reason"
	}
	return false, Refusal(reason), ""
}

// FixedStatus always returns the same outcome.
type FixedStatus struct {
	Succeeded   bool
	Refusal     Refusal
	OtherReason string
}

func (f FixedStatus) GetStatus() (bool, Refusal, string) {
	return f.Succeeded, f.Refusal, f.OtherReason
}

// FakeProcessor keeps intents in memory. An intent's outcome is settled the first
// time it is read back, the way a real intent is settled once the payment widget
// has collected a payment method.
type FakeProcessor struct {
	mu      sync.Mutex
	intents map[string]*Intent
	status  StatusSource
}

func NewFakeProcessor(status StatusSource) *FakeProcessor {
	return &FakeProcessor{
		intents: make(map[string]*Intent),
		status:  status,
	}
}

func (f *FakeProcessor) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Amount < 0 {
		return nil, fmt.Errorf("invalid amount %d", req.Amount)
	}

	id := "pi_" + uuid.NewString()
	intent := &Intent{
		ID:           id,
		ClientSecret: id + "_secret_" + uuid.NewString(),
		Amount:       req.Amount,
		Currency:     req.Currency,
		Status:       IntentStatusRequiresPaymentMethod,
		Metadata:     req.metadata(),
	}

	f.mu.Lock()
	f.intents[id] = intent
	f.mu.Unlock()

	return copyIntent(intent), nil
}

func (f *FakeProcessor) GetIntent(ctx context.Context, id string) (*Intent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	intent, ok := f.intents[id]
	if !ok {
		return nil, ErrIntentNotFound
	}
	if intent.Status == IntentStatusRequiresPaymentMethod {
		succeeded, refusal, other := f.status.GetStatus()
		if succeeded {
			intent.Status = IntentStatusSucceeded
		} else {
			intent.Status = IntentStatusFailed
			intent.FailureMessage = refusalMessage(refusal, other)
		}
	}
	return copyIntent(intent), nil
}

func (f *FakeProcessor) CancelIntent(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	intent, ok := f.intents[id]
	if !ok {
		return ErrIntentNotFound
	}
	if intent.Status == IntentStatusSucceeded {
		return fmt.Errorf("payment intent %s already succeeded", id)
	}
	intent.Status = IntentStatusCanceled
	intent.FailureMessage = "abandoned"
	return nil
}

func refusalMessage(refusal Refusal, other string) string {
	if other != "" {
		return other
	}
	return refusal.String()
}

func copyIntent(i *Intent) *Intent {
	out := *i
	out.Metadata = make(map[string]string, len(i.Metadata))
	for k, v := range i.Metadata {
		out.Metadata[k] = v
	}
	return &out
}
