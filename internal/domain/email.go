package domain

import "context"

// Email is either an UnverifiedEmail or a VerifiedEmail.
type Email interface {
	Address() string
	Verify() VerifiedEmail
	acceptEmail(emailVisitor)
}

// UnverifiedEmail is the only state an address can be created in.
type UnverifiedEmail struct {
	address string
}

// VerifiedEmail can only be obtained by calling Verify. It is the only type
// that can send mail.
type VerifiedEmail struct {
	address  string
	verified bool
}

// NewEmail wraps a raw address. Syntax is not checked.
func NewEmail(address string) UnverifiedEmail {
	return UnverifiedEmail{address: address}
}

func (e UnverifiedEmail) Address() string { return e.address }

func (e UnverifiedEmail) Verify() VerifiedEmail {
	return VerifiedEmail{address: e.address, verified: true}
}

func (e VerifiedEmail) Address() string { return e.address }

// Verify on an already verified email returns it unchanged.
func (e VerifiedEmail) Verify() VerifiedEmail { return e }

// IsZero reports whether e was declared rather than obtained from Verify.
// An empty address that went through Verify is not zero.
func (e VerifiedEmail) IsZero() bool { return !e.verified }

// SendMail delivers message through sender. The sender's result is returned
// as is.
func (e VerifiedEmail) SendMail(ctx context.Context, sender MailSender, message string) (Delivery, error) {
	if e.IsZero() {
		return Delivery{}, ErrEmailNotVerified
	}
	if sender == nil {
		return Delivery{}, ErrChannelUnavailable
	}
	return sender.SendMail(ctx, e, message)
}

// Verify is the package-level form of e.Verify().
func Verify(e Email) VerifiedEmail {
	return e.Verify()
}

// EmailVisitor handles every Email state.
type EmailVisitor[T any] interface {
	VisitUnverified(UnverifiedEmail) T
	VisitVerified(VerifiedEmail) T
}

type emailVisitor interface {
	visitUnverified(UnverifiedEmail)
	visitVerified(VerifiedEmail)
}

func (e UnverifiedEmail) acceptEmail(v emailVisitor) { v.visitUnverified(e) }
func (e VerifiedEmail) acceptEmail(v emailVisitor)   { v.visitVerified(e) }

type emailMatcher[T any] struct {
	cases EmailVisitor[T]
	out   T
}

func (m *emailMatcher[T]) visitUnverified(e UnverifiedEmail) { m.out = m.cases.VisitUnverified(e) }
func (m *emailMatcher[T]) visitVerified(e VerifiedEmail)     { m.out = m.cases.VisitVerified(e) }

// MatchEmail calls the visitor method for e's state and returns its result.
func MatchEmail[T any](e Email, cases EmailVisitor[T]) T {
	m := &emailMatcher[T]{cases: cases}
	e.acceptEmail(m)
	return m.out
}
