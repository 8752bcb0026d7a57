package domain_test

import (
	"context"

	"github.com/ErlanBelekov/account-model/internal/domain"
)

// ---- fakes ----

type fakeSMS struct {
	calls   int
	sendSMS func(ctx context.Context, number, message string) (domain.Delivery, error)
}

func (f *fakeSMS) SendSMS(ctx context.Context, number, message string) (domain.Delivery, error) {
	f.calls++
	return f.sendSMS(ctx, number, message)
}

type fakeMail struct {
	calls    int
	sendMail func(ctx context.Context, to domain.VerifiedEmail, message string) (domain.Delivery, error)
}

func (f *fakeMail) SendMail(ctx context.Context, to domain.VerifiedEmail, message string) (domain.Delivery, error) {
	f.calls++
	return f.sendMail(ctx, to, message)
}

type fakePayPal struct {
	calls  int
	charge func(ctx context.Context, id string, amount domain.Money) (domain.Charge, error)
}

func (f *fakePayPal) ChargePayPal(ctx context.Context, id string, amount domain.Money) (domain.Charge, error) {
	f.calls++
	return f.charge(ctx, id, amount)
}

type fakeStripe struct {
	calls  int
	charge func(ctx context.Context, id string, amount domain.Money) (domain.Charge, error)
}

func (f *fakeStripe) ChargeStripe(ctx context.Context, id string, amount domain.Money) (domain.Charge, error) {
	f.calls++
	return f.charge(ctx, id, amount)
}

func unexpectedMail() *fakeMail {
	return &fakeMail{sendMail: func(context.Context, domain.VerifiedEmail, string) (domain.Delivery, error) {
		panic("mail sender must not be called")
	}}
}

func unexpectedSMS() *fakeSMS {
	return &fakeSMS{sendSMS: func(context.Context, string, string) (domain.Delivery, error) {
		panic("sms sender must not be called")
	}}
}
