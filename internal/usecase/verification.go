package usecase

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"time"

	"github.com/ErlanBelekov/account-model/internal/domain"
	"github.com/ErlanBelekov/account-model/internal/metrics"
	"github.com/ErlanBelekov/account-model/internal/repository"
)

const (
	defaultVerificationTTL = 15 * time.Minute
	verificationSubject    = "Confirm your email address"
)

// VerificationMailer delivers the verification code to an address that is not
// verified yet.
type VerificationMailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// VerificationUsecase proves that a user controls their email address before
// the address is marked verified.
type VerificationUsecase struct {
	accounts  *AccountUsecase
	tokens    repository.VerificationRepository
	mailer    VerificationMailer
	verifyURL string
	ttl       time.Duration
	logger    *slog.Logger
}

// NewVerificationUsecase builds the flow. A non-positive ttl uses the default.
func NewVerificationUsecase(
	accounts *AccountUsecase,
	tokens repository.VerificationRepository,
	mailer VerificationMailer,
	verifyURL string,
	ttl time.Duration,
	logger *slog.Logger,
) *VerificationUsecase {
	if ttl <= 0 {
		ttl = defaultVerificationTTL
	}
	return &VerificationUsecase{
		accounts:  accounts,
		tokens:    tokens,
		mailer:    mailer,
		verifyURL: verifyURL,
		ttl:       ttl,
		logger:    logger.With("component", "verification"),
	}
}

// RequestEmailVerification emails a single-use token to the user's current
// address. It is a no-op for an address that is already verified.
func (u *VerificationUsecase) RequestEmailVerification(ctx context.Context, username string) (err error) {
	defer func() {
		metrics.VerificationsTotal.WithLabelValues("request", metrics.Outcome(err)).Inc()
	}()

	rec, err := u.accounts.repo.Get(ctx, username)
	if err != nil {
		return fmt.Errorf("request verification: %w", err)
	}

	target, err := currentEmail(rec.User)
	if err != nil {
		return fmt.Errorf("request verification: %w", err)
	}
	if target.verified {
		u.logger.InfoContext(ctx, "email already verified", "username", username)
		return nil
	}

	raw := make([]byte, 32)
	if _, err = io.ReadFull(rand.Reader, raw); err != nil {
		return fmt.Errorf("generate token: %w", err)
	}
	rawToken := hex.EncodeToString(raw)

	expiresAt := time.Now().Add(u.ttl)
	if err = u.tokens.CreateToken(ctx, username, target.address, hashToken(rawToken), expiresAt); err != nil {
		return fmt.Errorf("store verification token: %w", err)
	}

	if err = u.mailer.Send(ctx, target.address, verificationSubject, u.body(rawToken)); err != nil {
		return fmt.Errorf("send verification email: %w", err)
	}

	u.logger.InfoContext(ctx, "verification email sent", "username", username, "expires_at", expiresAt)
	return nil
}

// ConfirmEmailVerification claims rawToken and marks the email verified. The
// token must have been issued for the address the user has now; changing the
// email in between makes it stale.
func (u *VerificationUsecase) ConfirmEmailVerification(ctx context.Context, username, rawToken string) (rec *repository.UserRecord, err error) {
	defer func() {
		metrics.VerificationsTotal.WithLabelValues("confirm", metrics.Outcome(err)).Inc()
	}()

	tok, err := u.tokens.ClaimToken(ctx, username, hashToken(rawToken))
	if err != nil {
		return nil, fmt.Errorf("confirm verification: %w", err)
	}

	return u.accounts.mutate(ctx, "verify_email", username, func(user domain.User) (domain.User, error) {
		target, err := currentEmail(user)
		if err != nil {
			return user, err
		}
		if target.address != tok.Address {
			return user, domain.ErrTokenInvalid
		}
		return user.VerifyEmail()
	})
}

func (u *VerificationUsecase) body(rawToken string) string {
	link := u.verifyURL + "?token=" + url.QueryEscape(rawToken)
	return fmt.Sprintf(
		"Use this code to confirm your email address (expires in %s):\n\n%s\n\nOr open %s",
		u.ttl, rawToken, link,
	)
}

func hashToken(raw string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(raw)))
}

type emailTarget struct {
	address  string
	verified bool
}

type emailTargetResult struct {
	target emailTarget
	err    error
}

// emailOf reads the current address and state of an email contact.
type emailOf struct{}

func (emailOf) VisitPhone(domain.Phone) emailTargetResult {
	return emailTargetResult{err: domain.ErrNotAnEmailContact}
}

func (emailOf) VisitEmail(c domain.EmailContact) emailTargetResult {
	if c.Email() == nil {
		return emailTargetResult{err: domain.ErrMissingContactInfo}
	}
	return domain.MatchEmail(c.Email(), emailOf{})
}

func (emailOf) VisitUnverified(e domain.UnverifiedEmail) emailTargetResult {
	return emailTargetResult{target: emailTarget{address: e.Address()}}
}

func (emailOf) VisitVerified(e domain.VerifiedEmail) emailTargetResult {
	return emailTargetResult{target: emailTarget{address: e.Address(), verified: true}}
}

func currentEmail(u domain.User) (emailTarget, error) {
	if u.ContactInfo() == nil {
		return emailTarget{}, domain.ErrMissingContactInfo
	}
	res := domain.MatchContactInfo(u.ContactInfo(), emailOf{})
	return res.target, res.err
}
