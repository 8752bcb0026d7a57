package repository

import (
	"context"
	"time"
)

// VerificationToken proves control of Address for Username. Only the sha256
// hash of the emailed token is stored.
type VerificationToken struct {
	Username  string
	Address   string
	TokenHash string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}

type VerificationRepository interface {
	CreateToken(ctx context.Context, username, address, tokenHash string, expiresAt time.Time) error
	// ClaimToken marks an unused, unexpired token of username as used and
	// returns it. Anything else fails with domain.ErrTokenInvalid.
	ClaimToken(ctx context.Context, username, tokenHash string) (*VerificationToken, error)
}
