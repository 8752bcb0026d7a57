package domain

import (
	"context"
	"fmt"
)

type PaymentKind string

const (
	PaymentInvoice PaymentKind = "invoice"
	PaymentPayPal  PaymentKind = "paypal"
	PaymentStripe  PaymentKind = "stripe"
)

// PaymentMethod is exactly one of Invoice, PayPal or Stripe. Each variant
// carries only its own fields.
type PaymentMethod interface {
	Kind() PaymentKind
	acceptPayment(paymentVisitor)
}

// Invoice is billed out of band.
type Invoice struct{}

type PayPal struct {
	ID string
}

type Stripe struct {
	ID string
}

func (Invoice) Kind() PaymentKind { return PaymentInvoice }
func (PayPal) Kind() PaymentKind  { return PaymentPayPal }
func (Stripe) Kind() PaymentKind  { return PaymentStripe }

// ParsePaymentMethod builds a PaymentMethod from its kind tag and provider id.
// It is meant for decoding at the edges (HTTP bodies, database rows).
func ParsePaymentMethod(kind PaymentKind, id string) (PaymentMethod, error) {
	switch kind {
	case PaymentInvoice:
		return Invoice{}, nil
	case PaymentPayPal:
		return PayPal{ID: id}, nil
	case PaymentStripe:
		return Stripe{ID: id}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownPaymentMethod, kind)
}

// PaymentMethodVisitor handles every PaymentMethod variant.
type PaymentMethodVisitor[T any] interface {
	VisitInvoice(Invoice) T
	VisitPayPal(PayPal) T
	VisitStripe(Stripe) T
}

type paymentVisitor interface {
	visitInvoice(Invoice)
	visitPayPal(PayPal)
	visitStripe(Stripe)
}

func (p Invoice) acceptPayment(v paymentVisitor) { v.visitInvoice(p) }
func (p PayPal) acceptPayment(v paymentVisitor)  { v.visitPayPal(p) }
func (p Stripe) acceptPayment(v paymentVisitor)  { v.visitStripe(p) }

type paymentMatcher[T any] struct {
	cases PaymentMethodVisitor[T]
	out   T
}

func (m *paymentMatcher[T]) visitInvoice(p Invoice) { m.out = m.cases.VisitInvoice(p) }
func (m *paymentMatcher[T]) visitPayPal(p PayPal)   { m.out = m.cases.VisitPayPal(p) }
func (m *paymentMatcher[T]) visitStripe(p Stripe)   { m.out = m.cases.VisitStripe(p) }

// MatchPaymentMethod calls the visitor method for pm's variant and returns its result.
func MatchPaymentMethod[T any](pm PaymentMethod, cases PaymentMethodVisitor[T]) T {
	m := &paymentMatcher[T]{cases: cases}
	pm.acceptPayment(m)
	return m.out
}

// PaymentID returns the provider identifier, empty for Invoice.
func PaymentID(pm PaymentMethod) string {
	return MatchPaymentMethod[string](pm, paymentIDVisitor{})
}

type paymentIDVisitor struct{}

func (paymentIDVisitor) VisitInvoice(Invoice) string { return "" }
func (paymentIDVisitor) VisitPayPal(p PayPal) string { return p.ID }
func (paymentIDVisitor) VisitStripe(s Stripe) string { return s.ID }

type charged struct {
	charge Charge
	err    error
}

type chargeDispatch struct {
	ctx      context.Context
	gateways Gateways
	amount   Money
}

func (d chargeDispatch) VisitInvoice(Invoice) charged {
	return charged{charge: Charge{
		Provider: ProviderInvoice,
		Status:   ChargeDeferred,
		Amount:   d.amount,
	}}
}

func (d chargeDispatch) VisitPayPal(p PayPal) charged {
	if d.gateways.PayPal == nil {
		return charged{err: ErrGatewayUnavailable}
	}
	res, err := d.gateways.PayPal.ChargePayPal(d.ctx, p.ID, d.amount)
	return charged{charge: res, err: err}
}

func (d chargeDispatch) VisitStripe(s Stripe) charged {
	if d.gateways.Stripe == nil {
		return charged{err: ErrGatewayUnavailable}
	}
	res, err := d.gateways.Stripe.ChargeStripe(d.ctx, s.ID, d.amount)
	return charged{charge: res, err: err}
}

// ChargePayment routes a charge to the gateway for pm's variant. Invoice
// returns a deferred charge without calling anything. Gateways are called at
// most once and their errors are returned unmodified.
func ChargePayment(ctx context.Context, pm PaymentMethod, gateways Gateways, amount Money) (Charge, error) {
	if pm == nil {
		return Charge{}, ErrMissingPaymentMethod
	}
	out := MatchPaymentMethod[charged](pm, chargeDispatch{ctx: ctx, gateways: gateways, amount: amount})
	return out.charge, out.err
}
