// Package billing holds the payment gateway adapters behind
// domain.PayPalCharger and domain.StripeCharger.
package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ErlanBelekov/account-model/internal/domain"
	"github.com/ErlanBelekov/account-model/internal/reqctx"
	"github.com/google/uuid"
)

// ErrChargeNotCompleted means the gateway accepted the request but did not
// capture the funds.
var ErrChargeNotCompleted = errors.New("charge not completed")

var (
	_ domain.PayPalCharger = (*LogCharger)(nil)
	_ domain.StripeCharger = (*LogCharger)(nil)
)

// LogCharger pretends every charge succeeds. Used when no gateway
// credentials are configured in ENV=local.
type LogCharger struct {
	logger *slog.Logger
}

func NewLogCharger(logger *slog.Logger) *LogCharger {
	return &LogCharger{logger: logger.With("component", "billing")}
}

func (c *LogCharger) ChargePayPal(ctx context.Context, id string, amount domain.Money) (domain.Charge, error) {
	return c.charge(ctx, domain.ProviderPayPal, id, amount), nil
}

func (c *LogCharger) ChargeStripe(ctx context.Context, id string, amount domain.Money) (domain.Charge, error) {
	return c.charge(ctx, domain.ProviderStripe, id, amount), nil
}

func (c *LogCharger) charge(ctx context.Context, provider domain.Provider, id string, amount domain.Money) domain.Charge {
	ref := uuid.NewString()
	c.logger.InfoContext(ctx, "charge (local dev)",
		"provider", provider,
		"payment_id", id,
		"amount", FormatAmount(amount),
		"currency", amount.Currency,
		"reference", ref,
	)
	return domain.Charge{
		Provider:  provider,
		Status:    domain.ChargeCaptured,
		Reference: ref,
		Amount:    amount,
	}
}

var zeroDecimalCurrencies = map[string]bool{
	"JPY": true,
	"KRW": true,
	"HUF": true,
	"TWD": true,
	"VND": true,
}

// FormatAmount renders minor units as a decimal string, e.g. 1050 USD -> "10.50".
func FormatAmount(m domain.Money) string {
	if zeroDecimalCurrencies[strings.ToUpper(m.Currency)] {
		return fmt.Sprintf("%d", m.Amount)
	}
	sign := ""
	v := m.Amount
	if v < 0 {
		sign, v = "-", -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// idempotencyKey is the key a gateway uses to deduplicate retries of one
// charge. Calls without a client key or request id get a fresh one.
func idempotencyKey(ctx context.Context) string {
	if key := reqctx.IdempotencyKey(ctx); key != "" {
		return key
	}
	return uuid.NewString()
}
