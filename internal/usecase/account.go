package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ErlanBelekov/account-model/internal/domain"
	"github.com/ErlanBelekov/account-model/internal/metrics"
	"github.com/ErlanBelekov/account-model/internal/pkg/distlock"
	"github.com/ErlanBelekov/account-model/internal/repository"
)

// Locker serialises updates to one user across processes.
type Locker interface {
	Acquire(ctx context.Context, key string) (func(context.Context) error, error)
}

type AccountUsecase struct {
	repo       repository.UserRepository
	locker     Locker
	transports domain.Transports
	gateways   domain.Gateways
	currency   string
	logger     *slog.Logger
}

// NewAccountUsecase wires the account operations. locker may be nil, in
// which case concurrent updates are still caught by the repository's
// version check.
func NewAccountUsecase(
	repo repository.UserRepository,
	locker Locker,
	transports domain.Transports,
	gateways domain.Gateways,
	currency string,
	logger *slog.Logger,
) *AccountUsecase {
	return &AccountUsecase{
		repo:       repo,
		locker:     locker,
		transports: transports,
		gateways:   gateways,
		currency:   strings.ToUpper(currency),
		logger:     logger.With("component", "account"),
	}
}

type RegisterInput struct {
	Username    string
	Name        string
	Phone       string
	Email       string
	PaymentKind domain.PaymentKind
	PaymentID   string
}

func (u *AccountUsecase) Register(ctx context.Context, input RegisterInput) (*repository.UserRecord, error) {
	var contact domain.ContactInfo
	switch {
	case input.Phone != "":
		contact = domain.NewPhone(input.Phone)
	case input.Email != "":
		contact = domain.NewEmailContact(domain.NewEmail(input.Email))
	}

	pm, err := domain.ParsePaymentMethod(input.PaymentKind, input.PaymentID)
	if err != nil {
		return nil, fmt.Errorf("register user: %w", err)
	}

	user, err := domain.NewUser(input.Username, contact, pm)
	if err != nil {
		return nil, fmt.Errorf("register user: %w", err)
	}
	user = user.WithName(input.Name)

	rec, err := u.repo.Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("register user: %w", err)
	}

	u.logger.InfoContext(ctx, "user registered", "username", rec.User.Username())
	return rec, nil
}

func (u *AccountUsecase) Get(ctx context.Context, username string) (*repository.UserRecord, error) {
	rec, err := u.repo.Get(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return rec, nil
}

func (u *AccountUsecase) Rename(ctx context.Context, username, name string) (*repository.UserRecord, error) {
	return u.mutate(ctx, "rename", username, func(user domain.User) (domain.User, error) {
		return user.WithName(name), nil
	})
}

// ChangeEmail replaces the contact info with an unverified address.
func (u *AccountUsecase) ChangeEmail(ctx context.Context, username, address string) (*repository.UserRecord, error) {
	return u.mutate(ctx, "change_email", username, func(user domain.User) (domain.User, error) {
		return user.SetEmail(address), nil
	})
}

func (u *AccountUsecase) ChangePhone(ctx context.Context, username, number string) (*repository.UserRecord, error) {
	return u.mutate(ctx, "change_phone", username, func(user domain.User) (domain.User, error) {
		return user.SetPhone(number), nil
	})
}

func (u *AccountUsecase) ChangePaymentMethod(ctx context.Context, username string, kind domain.PaymentKind, id string) (*repository.UserRecord, error) {
	pm, err := domain.ParsePaymentMethod(kind, id)
	if err != nil {
		return nil, fmt.Errorf("change_payment_method %s: %w", username, err)
	}
	return u.mutate(ctx, "change_payment_method", username, func(user domain.User) (domain.User, error) {
		return user.SetPaymentMethod(pm)
	})
}

// Contact delivers message over the user's current contact channel.
func (u *AccountUsecase) Contact(ctx context.Context, username, message string) (domain.Delivery, error) {
	rec, err := u.repo.Get(ctx, username)
	if err != nil {
		return domain.Delivery{}, fmt.Errorf("contact user: %w", err)
	}

	channel := string(rec.User.ContactInfo().Kind())
	delivery, err := rec.User.Contact(ctx, u.transports, message)
	metrics.ContactAttemptsTotal.WithLabelValues(channel, metrics.Outcome(err)).Inc()
	if err != nil {
		u.logger.WarnContext(ctx, "contact failed", "username", username, "channel", channel, "error", err)
		return domain.Delivery{}, fmt.Errorf("contact user: %w", err)
	}

	u.logger.InfoContext(ctx, "user contacted",
		"username", username,
		"channel", delivery.Channel,
		"message_id", delivery.MessageID,
	)
	return delivery, nil
}

// Charge bills amount minor units via the user's payment method. An empty
// currency falls back to the configured default.
func (u *AccountUsecase) Charge(ctx context.Context, username string, amount int64, currency string) (domain.Charge, error) {
	rec, err := u.repo.Get(ctx, username)
	if err != nil {
		return domain.Charge{}, fmt.Errorf("charge user: %w", err)
	}

	if currency == "" {
		currency = u.currency
	}
	money := domain.Money{Amount: amount, Currency: strings.ToUpper(currency)}

	method := string(rec.User.PaymentMethod().Kind())
	charge, err := rec.User.Charge(ctx, u.gateways, money)
	metrics.ChargesTotal.WithLabelValues(method, metrics.Outcome(err)).Inc()
	if err != nil {
		u.logger.WarnContext(ctx, "charge failed", "username", username, "method", method, "error", err)
		return domain.Charge{}, fmt.Errorf("charge user: %w", err)
	}

	u.logger.InfoContext(ctx, "user charged",
		"username", username,
		"provider", charge.Provider,
		"status", charge.Status,
		"reference", charge.Reference,
		"amount", charge.Amount.Amount,
		"currency", charge.Amount.Currency,
	)
	return charge, nil
}

// mutate runs op against the stored user under the per-user lock and saves
// the result if the version is unchanged.
func (u *AccountUsecase) mutate(ctx context.Context, op, username string, apply func(domain.User) (domain.User, error)) (rec *repository.UserRecord, err error) {
	defer func() {
		metrics.UserMutationsTotal.WithLabelValues(op, metrics.Outcome(err)).Inc()
	}()

	if u.locker != nil {
		release, err := u.locker.Acquire(ctx, username)
		if errors.Is(err, distlock.ErrNotAcquired) {
			return nil, fmt.Errorf("%s %s: %w", op, username, domain.ErrUserBusy)
		}
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", op, username, err)
		}
		defer func() {
			// ctx may already be cancelled; the lock would then only expire by TTL.
			if relErr := release(context.WithoutCancel(ctx)); relErr != nil {
				u.logger.WarnContext(ctx, "release user lock", "username", username, "error", relErr)
			}
		}()
	}

	current, err := u.repo.Get(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", op, username, err)
	}

	next, err := apply(current.User)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", op, username, err)
	}
	if next.Equal(current.User) {
		return current, nil
	}

	saved, err := u.repo.Update(ctx, next, current.Version)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", op, username, err)
	}

	u.logger.InfoContext(ctx, "user updated", "username", username, "op", op, "version", saved.Version)
	return saved, nil
}
