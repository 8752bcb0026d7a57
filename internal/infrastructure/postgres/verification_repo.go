package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ErlanBelekov/account-model/internal/domain"
	"github.com/ErlanBelekov/account-model/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type VerificationRepository struct {
	pool *pgxpool.Pool
}

func NewVerificationRepository(pool *pgxpool.Pool) *VerificationRepository {
	return &VerificationRepository{pool: pool}
}

func (r *VerificationRepository) CreateToken(ctx context.Context, username, address, tokenHash string, expiresAt time.Time) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO email_verification_tokens (username, address, token_hash, expires_at)
		VALUES ($1, $2, $3, $4)`,
		username, address, tokenHash, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("create verification token: %w", err)
	}
	return nil
}

// ClaimToken uses a single UPDATE so two concurrent claims cannot both win.
func (r *VerificationRepository) ClaimToken(ctx context.Context, username, tokenHash string) (*repository.VerificationToken, error) {
	var t repository.VerificationToken
	err := r.pool.QueryRow(ctx, `
		UPDATE email_verification_tokens
		SET    used_at = NOW()
		WHERE  username = $1
		  AND  token_hash = $2
		  AND  used_at IS NULL
		  AND  expires_at > NOW()
		RETURNING username, address, token_hash, expires_at, used_at, created_at`,
		username, tokenHash,
	).Scan(&t.Username, &t.Address, &t.TokenHash, &t.ExpiresAt, &t.UsedAt, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTokenInvalid
		}
		return nil, fmt.Errorf("claim verification token: %w", err)
	}
	return &t, nil
}
