package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/ErlanBelekov/account-model/internal/domain"
	"github.com/ErlanBelekov/account-model/internal/repository"
	"github.com/ErlanBelekov/account-model/internal/reqctx"
	"github.com/ErlanBelekov/account-model/internal/transport/http/middleware"
	"github.com/ErlanBelekov/account-model/internal/usecase"
	"github.com/gin-gonic/gin"
)

// accountUsecaser is the subset of AccountUsecase the handler needs.
type accountUsecaser interface {
	Register(ctx context.Context, input usecase.RegisterInput) (*repository.UserRecord, error)
	Get(ctx context.Context, username string) (*repository.UserRecord, error)
	Rename(ctx context.Context, username, name string) (*repository.UserRecord, error)
	ChangeEmail(ctx context.Context, username, address string) (*repository.UserRecord, error)
	ChangePhone(ctx context.Context, username, number string) (*repository.UserRecord, error)
	ChangePaymentMethod(ctx context.Context, username string, kind domain.PaymentKind, id string) (*repository.UserRecord, error)
	Contact(ctx context.Context, username, message string) (domain.Delivery, error)
	Charge(ctx context.Context, username string, amount int64, currency string) (domain.Charge, error)
}

type AccountHandler struct {
	accounts accountUsecaser
	verifier emailVerifier
	logger   *slog.Logger
}

func NewAccountHandler(accounts accountUsecaser, verifier emailVerifier, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{
		accounts: accounts,
		verifier: verifier,
		logger:   logger.With("component", "account_handler"),
	}
}

type paymentMethodRequest struct {
	Kind domain.PaymentKind `json:"kind" binding:"required,oneof=invoice paypal stripe"`
	ID   string             `json:"id"   binding:"required_unless=Kind invoice"`
}

type registerRequest struct {
	Username      string               `json:"username"       binding:"required,max=64"`
	Name          string               `json:"name"           binding:"max=200"`
	Phone         string               `json:"phone"          binding:"required_without=Email,excluded_with=Email,max=32"`
	Email         string               `json:"email"          binding:"required_without=Phone,omitempty,email"`
	PaymentMethod paymentMethodRequest `json:"payment_method"`
}

type nameRequest struct {
	Name string `json:"name" binding:"max=200"`
}

type emailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type phoneRequest struct {
	Phone string `json:"phone" binding:"required,max=32"`
}

type contactRequest struct {
	Message string `json:"message" binding:"required,max=1600"`
}

type chargeRequest struct {
	Amount   int64  `json:"amount"   binding:"required,gt=0"`
	Currency string `json:"currency" binding:"omitempty,len=3,alpha"`
}

type contactResponse struct {
	Kind     domain.ContactKind `json:"kind"`
	Value    string             `json:"value"`
	Verified *bool              `json:"verified,omitempty"`
}

type paymentMethodResponse struct {
	Kind domain.PaymentKind `json:"kind"`
	ID   string             `json:"id,omitempty"`
}

type userResponse struct {
	Username      string                `json:"username"`
	Name          *string               `json:"name,omitempty"`
	Contact       contactResponse       `json:"contact"`
	PaymentMethod paymentMethodResponse `json:"payment_method"`
	Version       int64                 `json:"version"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

type deliveryResponse struct {
	Channel   domain.Channel `json:"channel"`
	Recipient string         `json:"recipient"`
	MessageID string         `json:"message_id,omitempty"`
	SentAt    time.Time      `json:"sent_at"`
}

type chargeResponse struct {
	Provider  domain.Provider     `json:"provider"`
	Status    domain.ChargeStatus `json:"status"`
	Reference string              `json:"reference,omitempty"`
	Amount    int64               `json:"amount"`
	Currency  string              `json:"currency"`
}

// POST /users
func (h *AccountHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Username != c.GetString(middleware.SubjectKey) {
		c.JSON(http.StatusForbidden, gin.H{"error": errForbidden})
		return
	}

	rec, err := h.accounts.Register(c.Request.Context(), usecase.RegisterInput{
		Username:    req.Username,
		Name:        req.Name,
		Phone:       req.Phone,
		Email:       req.Email,
		PaymentKind: req.PaymentMethod.Kind,
		PaymentID:   req.PaymentMethod.ID,
	})
	if err != nil {
		h.fail(c, "register user", err, http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusCreated, toUserResponse(rec))
}

// GET /users/:username
func (h *AccountHandler) Get(c *gin.Context) {
	rec, err := h.accounts.Get(c.Request.Context(), c.Param("username"))
	if err != nil {
		h.fail(c, "get user", err, http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(rec))
}

// PUT /users/:username/name
// An empty name clears it.
func (h *AccountHandler) Rename(c *gin.Context) {
	var req nameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.respondRecord(c, "rename user", func(ctx context.Context, username string) (*repository.UserRecord, error) {
		return h.accounts.Rename(ctx, username, req.Name)
	})
}

// PUT /users/:username/email
// The new address always starts unverified.
func (h *AccountHandler) ChangeEmail(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.respondRecord(c, "change email", func(ctx context.Context, username string) (*repository.UserRecord, error) {
		return h.accounts.ChangeEmail(ctx, username, req.Email)
	})
}

// PUT /users/:username/phone
func (h *AccountHandler) ChangePhone(c *gin.Context) {
	var req phoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.respondRecord(c, "change phone", func(ctx context.Context, username string) (*repository.UserRecord, error) {
		return h.accounts.ChangePhone(ctx, username, req.Phone)
	})
}

// PUT /users/:username/payment-method
func (h *AccountHandler) ChangePaymentMethod(c *gin.Context) {
	var req paymentMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.respondRecord(c, "change payment method", func(ctx context.Context, username string) (*repository.UserRecord, error) {
		return h.accounts.ChangePaymentMethod(ctx, username, req.Kind, req.ID)
	})
}

// POST /users/:username/contact
// Provider failures are answered with 502.
func (h *AccountHandler) Contact(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	d, err := h.accounts.Contact(c.Request.Context(), c.Param("username"), req.Message)
	if err != nil {
		h.fail(c, "contact user", err, http.StatusBadGateway)
		return
	}

	c.JSON(http.StatusOK, deliveryResponse{
		Channel:   d.Channel,
		Recipient: d.Recipient,
		MessageID: d.MessageID,
		SentAt:    d.SentAt,
	})
}

// POST /users/:username/charge
// Invoice users get 202: nothing is captured now. An Idempotency-Key header
// (or, failing that, X-Request-ID) is forwarded to the gateway so a retried
// request is not charged twice.
func (h *AccountHandler) Charge(c *gin.Context) {
	var req chargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	if key := c.GetHeader("Idempotency-Key"); key != "" {
		ctx = reqctx.WithIdempotencyKey(ctx, key)
	}

	ch, err := h.accounts.Charge(ctx, c.Param("username"), req.Amount, req.Currency)
	if err != nil {
		h.fail(c, "charge user", err, http.StatusBadGateway)
		return
	}

	status := http.StatusOK
	if ch.Status == domain.ChargeDeferred {
		status = http.StatusAccepted
	}
	c.JSON(status, chargeResponse{
		Provider:  ch.Provider,
		Status:    ch.Status,
		Reference: ch.Reference,
		Amount:    ch.Amount.Amount,
		Currency:  ch.Amount.Currency,
	})
}

func (h *AccountHandler) respondRecord(c *gin.Context, op string, call func(ctx context.Context, username string) (*repository.UserRecord, error)) {
	rec, err := call(c.Request.Context(), c.Param("username"))
	if err != nil {
		h.fail(c, op, err, http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(rec))
}

// fail answers with the mapped status for known errors. Anything else is
// logged and answered with fallback.
func (h *AccountHandler) fail(c *gin.Context, op string, err error, fallback int) {
	if status, msg, ok := errorStatus(err); ok {
		c.JSON(status, gin.H{"error": msg})
		return
	}

	h.logger.ErrorContext(c.Request.Context(), op, "error", err)
	msg := errInternalServer
	if fallback == http.StatusBadGateway {
		msg = errProviderFailure
	}
	c.JSON(fallback, gin.H{"error": msg})
}

func toUserResponse(rec *repository.UserRecord) userResponse {
	resp := userResponse{
		Username:  rec.User.Username(),
		Contact:   domain.MatchContactInfo(rec.User.ContactInfo(), contactView{}),
		Version:   rec.Version,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
		PaymentMethod: paymentMethodResponse{
			Kind: rec.User.PaymentMethod().Kind(),
			ID:   domain.PaymentID(rec.User.PaymentMethod()),
		},
	}
	if name, ok := rec.User.Name(); ok {
		resp.Name = &name
	}
	return resp
}

type contactView struct{}

func (contactView) VisitPhone(p domain.Phone) contactResponse {
	return contactResponse{Kind: domain.ContactPhone, Value: p.Number}
}

func (contactView) VisitEmail(c domain.EmailContact) contactResponse {
	return domain.MatchEmail(c.Email(), emailView{})
}

type emailView struct{}

func (emailView) VisitUnverified(e domain.UnverifiedEmail) contactResponse {
	verified := false
	return contactResponse{Kind: domain.ContactEmail, Value: e.Address(), Verified: &verified}
}

func (emailView) VisitVerified(e domain.VerifiedEmail) contactResponse {
	verified := true
	return contactResponse{Kind: domain.ContactEmail, Value: e.Address(), Verified: &verified}
}
