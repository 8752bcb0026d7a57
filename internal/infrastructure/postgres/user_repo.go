package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/ErlanBelekov/account-model/internal/domain"
	"github.com/ErlanBelekov/account-model/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `username, name, contact_kind, contact_value, email_verified,
	payment_kind, payment_id, version, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(ctx context.Context, u domain.User) (*repository.UserRecord, error) {
	row := toRow(u)
	query := `
		INSERT INTO users (username, name, contact_kind, contact_value, email_verified, payment_kind, payment_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + userColumns

	rec, err := scanUser(r.pool.QueryRow(ctx, query,
		row.Username, row.Name, row.ContactKind, row.ContactValue,
		row.EmailVerified, row.PaymentKind, row.PaymentID,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrUserExists
		}
		return nil, err
	}
	return rec, nil
}

func (r *UserRepository) Get(ctx context.Context, username string) (*repository.UserRecord, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return scanUser(r.pool.QueryRow(ctx, query, username))
}

func (r *UserRepository) Update(ctx context.Context, u domain.User, expectedVersion int64) (*repository.UserRecord, error) {
	row := toRow(u)
	query := `
		UPDATE users
		SET    name           = $3,
		       contact_kind   = $4,
		       contact_value  = $5,
		       email_verified = $6,
		       payment_kind   = $7,
		       payment_id     = $8,
		       version        = version + 1,
		       updated_at     = NOW()
		WHERE  username = $1 AND version = $2
		RETURNING ` + userColumns

	rec, err := scanUser(r.pool.QueryRow(ctx, query,
		row.Username, expectedVersion, row.Name, row.ContactKind, row.ContactValue,
		row.EmailVerified, row.PaymentKind, row.PaymentID,
	))
	if errors.Is(err, domain.ErrUserNotFound) {
		// Either the user is gone or the version moved on; tell them apart.
		if _, getErr := r.Get(ctx, u.Username()); getErr != nil {
			return nil, getErr
		}
		return nil, domain.ErrVersionConflict
	}
	return rec, err
}

func scanUser(row pgx.Row) (*repository.UserRecord, error) {
	var ur userRow
	var rec repository.UserRecord
	err := row.Scan(
		&ur.Username, &ur.Name, &ur.ContactKind, &ur.ContactValue, &ur.EmailVerified,
		&ur.PaymentKind, &ur.PaymentID, &rec.Version, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	u, err := ur.toUser()
	if err != nil {
		return nil, fmt.Errorf("restore user %q: %w", ur.Username, err)
	}
	rec.User = u
	return &rec, nil
}
