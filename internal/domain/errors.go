package domain

import "errors"

var (
	ErrEmptyUsername        = errors.New("username is required")
	ErrMissingContactInfo   = errors.New("contact info is required")
	ErrMissingPaymentMethod = errors.New("payment method is required")
	ErrUnknownPaymentMethod = errors.New("unknown payment method")

	// ErrNotAnEmailContact is returned by VerifyEmail when the active contact
	// method is a phone number.
	ErrNotAnEmailContact = errors.New("contact info is not an email")
	// ErrEmailNotVerified is returned when delivery is requested to an email
	// address that has not been verified. No transport is called.
	ErrEmailNotVerified = errors.New("email is not verified")

	ErrChannelUnavailable = errors.New("no transport configured for contact channel")
	ErrGatewayUnavailable = errors.New("no gateway configured for payment method")

	ErrUserNotFound    = errors.New("user not found")
	ErrUserExists      = errors.New("user already exists")
	ErrVersionConflict = errors.New("user was modified concurrently")
	ErrUserBusy        = errors.New("user is locked by another update")

	// ErrTokenInvalid covers unknown, used, expired and stale verification
	// tokens alike, so callers learn nothing about which it was.
	ErrTokenInvalid = errors.New("verification token is invalid or expired")
)
