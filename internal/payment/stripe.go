package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// intentsAPI is the subset of the stripe payment intent client in use.
type intentsAPI interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	Get(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	Cancel(id string, params *stripe.PaymentIntentCancelParams) (*stripe.PaymentIntent, error)
}

type StripeProcessor struct {
	intents intentsAPI
}

func NewStripeProcessor(secretKey string) *StripeProcessor {
	sc := &client.API{}
	sc.Init(secretKey, nil)
	return &StripeProcessor{intents: sc.PaymentIntents}
}

func (p *StripeProcessor) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.Amount),
		Currency: stripe.String(req.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	for k, v := range req.metadata() {
		params.AddMetadata(k, v)
	}

	pi, err := p.intents.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe create payment intent: %w", err)
	}
	return fromStripe(pi), nil
}

func (p *StripeProcessor) GetIntent(ctx context.Context, id string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := p.intents.Get(id, params)
	if err != nil {
		return nil, mapStripeError("get", err)
	}
	return fromStripe(pi), nil
}

func (p *StripeProcessor) CancelIntent(ctx context.Context, id string) error {
	params := &stripe.PaymentIntentCancelParams{}
	params.Context = ctx

	if _, err := p.intents.Cancel(id, params); err != nil {
		return mapStripeError("cancel", err)
	}
	return nil
}

func mapStripeError(op string, err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.Code == stripe.ErrorCodeResourceMissing {
		return ErrIntentNotFound
	}
	return fmt.Errorf("stripe %s payment intent: %w", op, err)
}

func fromStripe(pi *stripe.PaymentIntent) *Intent {
	intent := &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		Metadata:     pi.Metadata,
	}

	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		intent.Status = IntentStatusSucceeded
	case stripe.PaymentIntentStatusProcessing:
		intent.Status = IntentStatusProcessing
	case stripe.PaymentIntentStatusCanceled:
		intent.Status = IntentStatusCanceled
	default:
		intent.Status = IntentStatusRequiresPaymentMethod
	}

	// A declined attempt sends the intent back to requires_payment_method with the decline attached.
	if pi.LastPaymentError != nil {
		intent.FailureMessage = pi.LastPaymentError.Msg
		if intent.Status == IntentStatusRequiresPaymentMethod {
			intent.Status = IntentStatusFailed
		}
	}
	if intent.Status == IntentStatusCanceled && pi.CancellationReason != "" {
		intent.FailureMessage = string(pi.CancellationReason)
	}
	return intent
}
