package postgres

import (
	"fmt"

	"github.com/ErlanBelekov/account-model/internal/domain"
)

// userRow is the flat column layout of the users table.
type userRow struct {
	Username      string
	Name          *string
	ContactKind   string
	ContactValue  string
	EmailVerified bool
	PaymentKind   string
	PaymentID     *string
}

type contactColumns struct{}

func (contactColumns) VisitPhone(p domain.Phone) userRow {
	return userRow{ContactKind: string(domain.ContactPhone), ContactValue: p.Number}
}

func (contactColumns) VisitEmail(c domain.EmailContact) userRow {
	return domain.MatchEmail[userRow](c.Email(), contactColumns{})
}

func (contactColumns) VisitUnverified(e domain.UnverifiedEmail) userRow {
	return userRow{ContactKind: string(domain.ContactEmail), ContactValue: e.Address()}
}

func (contactColumns) VisitVerified(e domain.VerifiedEmail) userRow {
	return userRow{ContactKind: string(domain.ContactEmail), ContactValue: e.Address(), EmailVerified: true}
}

func toRow(u domain.User) userRow {
	row := domain.MatchContactInfo[userRow](u.ContactInfo(), contactColumns{})
	row.Username = u.Username()
	if name, ok := u.Name(); ok {
		row.Name = &name
	}
	row.PaymentKind = string(u.PaymentMethod().Kind())
	row.PaymentID = domain.MatchPaymentMethod[*string](u.PaymentMethod(), paymentColumn{})
	return row
}

// paymentColumn decides NULL by variant: invoice has no id column, gateway
// methods always store theirs, even when empty.
type paymentColumn struct{}

func (paymentColumn) VisitInvoice(domain.Invoice) *string { return nil }
func (paymentColumn) VisitPayPal(p domain.PayPal) *string { return &p.ID }
func (paymentColumn) VisitStripe(s domain.Stripe) *string { return &s.ID }

// toUser rebuilds the User through the same operations a caller would use,
// so a verified email is only ever reached via VerifyEmail.
func (r userRow) toUser() (domain.User, error) {
	var paymentID string
	if r.PaymentID != nil {
		paymentID = *r.PaymentID
	}
	pm, err := domain.ParsePaymentMethod(domain.PaymentKind(r.PaymentKind), paymentID)
	if err != nil {
		return domain.User{}, err
	}

	var contact domain.ContactInfo
	switch domain.ContactKind(r.ContactKind) {
	case domain.ContactPhone:
		contact = domain.NewPhone(r.ContactValue)
	case domain.ContactEmail:
		contact = domain.NewEmailContact(domain.NewEmail(r.ContactValue))
	default:
		return domain.User{}, fmt.Errorf("unknown contact kind %q", r.ContactKind)
	}

	u, err := domain.NewUser(r.Username, contact, pm)
	if err != nil {
		return domain.User{}, err
	}
	if r.Name != nil {
		u = u.WithName(*r.Name)
	}
	if r.EmailVerified {
		if u, err = u.VerifyEmail(); err != nil {
			return domain.User{}, err
		}
	}
	return u, nil
}
