package domain

import "context"

type ContactKind string

const (
	ContactPhone ContactKind = "phone"
	ContactEmail ContactKind = "email"
)

// ContactInfo is either a Phone or an EmailContact. A user always has exactly one.
type ContactInfo interface {
	Kind() ContactKind
	acceptContact(contactVisitor)
}

type Phone struct {
	Number string
}

// EmailContact carries an Email in whichever state it is in.
type EmailContact struct {
	email Email
}

func NewPhone(number string) Phone {
	return Phone{Number: number}
}

func NewEmailContact(e Email) EmailContact {
	return EmailContact{email: e}
}

func (Phone) Kind() ContactKind        { return ContactPhone }
func (EmailContact) Kind() ContactKind { return ContactEmail }

// Email returns the wrapped email; nil only for the zero EmailContact.
func (c EmailContact) Email() Email { return c.email }

// ContactVisitor handles every ContactInfo variant.
type ContactVisitor[T any] interface {
	VisitPhone(Phone) T
	VisitEmail(EmailContact) T
}

type contactVisitor interface {
	visitPhone(Phone)
	visitEmail(EmailContact)
}

func (c Phone) acceptContact(v contactVisitor)        { v.visitPhone(c) }
func (c EmailContact) acceptContact(v contactVisitor) { v.visitEmail(c) }

type contactMatcher[T any] struct {
	cases ContactVisitor[T]
	out   T
}

func (m *contactMatcher[T]) visitPhone(c Phone)        { m.out = m.cases.VisitPhone(c) }
func (m *contactMatcher[T]) visitEmail(c EmailContact) { m.out = m.cases.VisitEmail(c) }

// MatchContactInfo calls the visitor method for c's variant and returns its result.
func MatchContactInfo[T any](c ContactInfo, cases ContactVisitor[T]) T {
	m := &contactMatcher[T]{cases: cases}
	c.acceptContact(m)
	return m.out
}

type delivered struct {
	delivery Delivery
	err      error
}

type contactDispatch struct {
	ctx        context.Context
	transports Transports
	message    string
}

func (d contactDispatch) VisitPhone(p Phone) delivered {
	if d.transports.SMS == nil {
		return delivered{err: ErrChannelUnavailable}
	}
	res, err := d.transports.SMS.SendSMS(d.ctx, p.Number, d.message)
	return delivered{delivery: res, err: err}
}

func (d contactDispatch) VisitEmail(c EmailContact) delivered {
	if c.email == nil {
		return delivered{err: ErrMissingContactInfo}
	}
	return MatchEmail[delivered](c.email, d)
}

// An unverified address is never escalated to verified here.
func (d contactDispatch) VisitUnverified(UnverifiedEmail) delivered {
	return delivered{err: ErrEmailNotVerified}
}

func (d contactDispatch) VisitVerified(e VerifiedEmail) delivered {
	res, err := e.SendMail(d.ctx, d.transports.Mail, d.message)
	return delivered{delivery: res, err: err}
}

// Contact routes message to the transport for c's variant. The transport is
// called at most once and its error is returned unmodified.
func Contact(ctx context.Context, c ContactInfo, transports Transports, message string) (Delivery, error) {
	if c == nil {
		return Delivery{}, ErrMissingContactInfo
	}
	out := MatchContactInfo[delivered](c, contactDispatch{ctx: ctx, transports: transports, message: message})
	return out.delivery, out.err
}
