package domain

import (
	"context"
	"strings"
)

// User owns exactly one ContactInfo and one PaymentMethod. It is a value:
// every change returns a new User and leaves the receiver untouched.
type User struct {
	username string
	name     *string
	contact  ContactInfo
	payment  PaymentMethod
}

func NewUser(username string, contact ContactInfo, payment PaymentMethod) (User, error) {
	if strings.TrimSpace(username) == "" {
		return User{}, ErrEmptyUsername
	}
	if !validContact(contact) {
		return User{}, ErrMissingContactInfo
	}
	if payment == nil {
		return User{}, ErrMissingPaymentMethod
	}
	return User{username: username, contact: contact, payment: payment}, nil
}

func (u User) Username() string { return u.username }

// Name returns the display name, if one was set.
func (u User) Name() (string, bool) {
	if u.name == nil {
		return "", false
	}
	return *u.name, true
}

func (u User) ContactInfo() ContactInfo     { return u.contact }
func (u User) PaymentMethod() PaymentMethod { return u.payment }

// Equal reports whether u and o hold the same state. Verification state is
// part of the contact, so an email and its verified form differ.
func (u User) Equal(o User) bool {
	un, uok := u.Name()
	on, ook := o.Name()
	return u.username == o.username &&
		un == on && uok == ook &&
		u.contact == o.contact &&
		u.payment == o.payment
}

// WithName sets the display name. An empty name clears it.
func (u User) WithName(name string) User {
	if name == "" {
		u.name = nil
		return u
	}
	u.name = &name
	return u
}

// SetEmail switches the contact method to an unverified email, whatever the
// previous method or verification state was.
func (u User) SetEmail(address string) User {
	u.contact = NewEmailContact(NewEmail(address))
	return u
}

func (u User) SetPhone(number string) User {
	u.contact = NewPhone(number)
	return u
}

// VerifyEmail marks the current email verified. It fails with
// ErrNotAnEmailContact when the contact method is a phone.
func (u User) VerifyEmail() (User, error) {
	if u.contact == nil {
		return u, ErrMissingContactInfo
	}
	out := MatchContactInfo[verifyResult](u.contact, verifyContact{})
	if out.err != nil {
		return u, out.err
	}
	u.contact = out.contact
	return u, nil
}

// SetPaymentMethod replaces the payment method. It only fails for nil.
func (u User) SetPaymentMethod(pm PaymentMethod) (User, error) {
	if pm == nil {
		return u, ErrMissingPaymentMethod
	}
	u.payment = pm
	return u, nil
}

func (u User) Contact(ctx context.Context, transports Transports, message string) (Delivery, error) {
	return Contact(ctx, u.contact, transports, message)
}

func (u User) Charge(ctx context.Context, gateways Gateways, amount Money) (Charge, error) {
	return ChargePayment(ctx, u.payment, gateways, amount)
}

type verifyResult struct {
	contact ContactInfo
	err     error
}

type verifyContact struct{}

func (verifyContact) VisitPhone(Phone) verifyResult {
	return verifyResult{err: ErrNotAnEmailContact}
}

func (verifyContact) VisitEmail(c EmailContact) verifyResult {
	if c.email == nil {
		return verifyResult{err: ErrMissingContactInfo}
	}
	return verifyResult{contact: NewEmailContact(c.email.Verify())}
}

type contactPresence struct{}

func (contactPresence) VisitPhone(Phone) bool          { return true }
func (contactPresence) VisitEmail(c EmailContact) bool { return c.email != nil }

func validContact(c ContactInfo) bool {
	return c != nil && MatchContactInfo[bool](c, contactPresence{})
}
