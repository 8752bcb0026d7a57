package repository

import (
	"context"
	"time"

	"github.com/ErlanBelekov/account-model/internal/domain"
)

// UserRecord is a stored User snapshot. Version increases by one on every
// successful Update and is the compare-and-swap token.
type UserRecord struct {
	User      domain.User
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

type UserRepository interface {
	// Create fails with domain.ErrUserExists if the username is taken.
	Create(ctx context.Context, user domain.User) (*UserRecord, error)
	// Get fails with domain.ErrUserNotFound.
	Get(ctx context.Context, username string) (*UserRecord, error)
	// Update replaces the stored snapshot only if its version still equals
	// expectedVersion; otherwise it fails with domain.ErrVersionConflict.
	Update(ctx context.Context, user domain.User, expectedVersion int64) (*UserRecord, error)
}
