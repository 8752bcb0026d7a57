package domain

import (
	"context"
	"time"
)

type Channel string

const (
	ChannelSMS   Channel = "sms"
	ChannelEmail Channel = "email"
)

// Delivery is what a transport reports after accepting a message.
type Delivery struct {
	Channel   Channel
	Recipient string
	MessageID string
	SentAt    time.Time
}

type Provider string

const (
	ProviderInvoice Provider = "invoice"
	ProviderPayPal  Provider = "paypal"
	ProviderStripe  Provider = "stripe"
)

type ChargeStatus string

const (
	// ChargeDeferred means nothing was collected now; billing happens out of band.
	ChargeDeferred ChargeStatus = "deferred"
	ChargeCaptured ChargeStatus = "captured"
)

// Charge is what a gateway reports after a successful charge.
type Charge struct {
	Provider  Provider
	Status    ChargeStatus
	Reference string
	Amount    Money
}

// Money is an amount in minor units (cents) of Currency.
type Money struct {
	Amount   int64
	Currency string
}

// SMSSender delivers a text message to a phone number.
type SMSSender interface {
	SendSMS(ctx context.Context, number, message string) (Delivery, error)
}

// MailSender delivers mail. It only accepts a VerifiedEmail.
type MailSender interface {
	SendMail(ctx context.Context, to VerifiedEmail, message string) (Delivery, error)
}

type PayPalCharger interface {
	ChargePayPal(ctx context.Context, id string, amount Money) (Charge, error)
}

type StripeCharger interface {
	ChargeStripe(ctx context.Context, id string, amount Money) (Charge, error)
}

// Transports are the delivery capabilities injected by the application.
// A nil field makes that channel unavailable.
type Transports struct {
	SMS  SMSSender
	Mail MailSender
}

// Gateways are the billing capabilities injected by the application.
type Gateways struct {
	PayPal PayPalCharger
	Stripe StripeCharger
}
