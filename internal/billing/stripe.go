package billing

import (
	"context"
	"fmt"
	"strings"

	"github.com/ErlanBelekov/account-model/internal/domain"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

var _ domain.StripeCharger = (*StripeCharger)(nil)

// paymentIntents is satisfied by *paymentintent.Client.
type paymentIntents interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

// StripeCharger creates and confirms a PaymentIntent for a saved payment method.
type StripeCharger struct {
	intents paymentIntents
}

func NewStripeCharger(secretKey string) *StripeCharger {
	sc := &client.API{}
	sc.Init(secretKey, nil)
	return &StripeCharger{intents: sc.PaymentIntents}
}

func (c *StripeCharger) ChargeStripe(ctx context.Context, id string, amount domain.Money) (domain.Charge, error) {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(amount.Amount),
		Currency:           stripe.String(strings.ToLower(amount.Currency)),
		PaymentMethod:      stripe.String(id),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Confirm:            stripe.Bool(true),
	}
	params.Context = ctx
	params.SetIdempotencyKey(idempotencyKey(ctx))

	pi, err := c.intents.New(params)
	if err != nil {
		return domain.Charge{}, fmt.Errorf("create payment intent: %w", err)
	}
	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return domain.Charge{}, fmt.Errorf("%w: stripe payment intent %s is %s", ErrChargeNotCompleted, pi.ID, pi.Status)
	}

	return domain.Charge{
		Provider:  domain.ProviderStripe,
		Status:    domain.ChargeCaptured,
		Reference: pi.ID,
		Amount:    domain.Money{Amount: pi.Amount, Currency: strings.ToUpper(string(pi.Currency))},
	}, nil
}
