package domain

// CheckoutState is the state of a single checkout attempt.
type CheckoutState string

const (
	CheckoutStateIdle            CheckoutState = "IDLE"
	CheckoutStateSubmitting      CheckoutState = "SUBMITTING"
	CheckoutStateAwaitingPayment CheckoutState = "AWAITING_PAYMENT"
	CheckoutStateFinalizing      CheckoutState = "FINALIZING"
	CheckoutStateSucceeded       CheckoutState = "SUCCEEDED"
	CheckoutStateFailed          CheckoutState = "FAILED"
)

var checkoutTransitions = map[CheckoutState][]CheckoutState{
	CheckoutStateIdle:            {CheckoutStateSubmitting, CheckoutStateFailed},
	CheckoutStateSubmitting:      {CheckoutStateAwaitingPayment, CheckoutStateFailed},
	CheckoutStateAwaitingPayment: {CheckoutStateFinalizing, CheckoutStateFailed},
	CheckoutStateFinalizing:      {CheckoutStateSucceeded, CheckoutStateFailed},
}

func (s CheckoutState) IsTerminal() bool {
	return s == CheckoutStateSucceeded || s == CheckoutStateFailed
}

// InFlight reports whether an attempt in this state still waits on a collaborator.
func (s CheckoutState) InFlight() bool {
	return s == CheckoutStateSubmitting || s == CheckoutStateAwaitingPayment || s == CheckoutStateFinalizing
}

func CanTransitionTo(from, to CheckoutState) bool {
	for _, next := range checkoutTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// String representation (for logging)
func (s CheckoutState) String() string {
	return string(s)
}
