package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/ErlanBelekov/account-model/internal/domain"
	"github.com/ErlanBelekov/account-model/internal/repository"
	"github.com/ErlanBelekov/account-model/internal/reqctx"
	"github.com/ErlanBelekov/account-model/internal/transport/http/handler"
	"github.com/ErlanBelekov/account-model/internal/transport/http/middleware"
	"github.com/ErlanBelekov/account-model/internal/usecase"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeAccounts implements the unexported accountUsecaser and emailVerifier
// interfaces via method matching.
type fakeAccounts struct {
	register            func(ctx context.Context, input usecase.RegisterInput) (*repository.UserRecord, error)
	get                 func(ctx context.Context, username string) (*repository.UserRecord, error)
	rename              func(ctx context.Context, username, name string) (*repository.UserRecord, error)
	changeEmail         func(ctx context.Context, username, address string) (*repository.UserRecord, error)
	changePhone         func(ctx context.Context, username, number string) (*repository.UserRecord, error)
	requestVerification func(ctx context.Context, username string) error
	confirmVerification func(ctx context.Context, username, rawToken string) (*repository.UserRecord, error)
	changePaymentMethod func(ctx context.Context, username string, kind domain.PaymentKind, id string) (*repository.UserRecord, error)
	contact             func(ctx context.Context, username, message string) (domain.Delivery, error)
	charge              func(ctx context.Context, username string, amount int64, currency string) (domain.Charge, error)
}

func (f *fakeAccounts) Register(ctx context.Context, input usecase.RegisterInput) (*repository.UserRecord, error) {
	return f.register(ctx, input)
}

func (f *fakeAccounts) Get(ctx context.Context, username string) (*repository.UserRecord, error) {
	return f.get(ctx, username)
}

func (f *fakeAccounts) Rename(ctx context.Context, username, name string) (*repository.UserRecord, error) {
	return f.rename(ctx, username, name)
}

func (f *fakeAccounts) ChangeEmail(ctx context.Context, username, address string) (*repository.UserRecord, error) {
	return f.changeEmail(ctx, username, address)
}

func (f *fakeAccounts) ChangePhone(ctx context.Context, username, number string) (*repository.UserRecord, error) {
	return f.changePhone(ctx, username, number)
}

func (f *fakeAccounts) RequestEmailVerification(ctx context.Context, username string) error {
	return f.requestVerification(ctx, username)
}

func (f *fakeAccounts) ConfirmEmailVerification(ctx context.Context, username, rawToken string) (*repository.UserRecord, error) {
	return f.confirmVerification(ctx, username, rawToken)
}

func (f *fakeAccounts) ChangePaymentMethod(ctx context.Context, username string, kind domain.PaymentKind, id string) (*repository.UserRecord, error) {
	return f.changePaymentMethod(ctx, username, kind, id)
}

func (f *fakeAccounts) Contact(ctx context.Context, username, message string) (domain.Delivery, error) {
	return f.contact(ctx, username, message)
}

func (f *fakeAccounts) Charge(ctx context.Context, username string, amount int64, currency string) (domain.Charge, error) {
	return f.charge(ctx, username, amount, currency)
}

// newTestEngine mounts the handler behind a stub that authenticates every
// request as alice.
func newTestEngine(f *fakeAccounts) *gin.Engine {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	h := handler.NewAccountHandler(f, f, logger)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.SubjectKey, "alice")
		c.Next()
	})
	r.POST("/users", h.Register)
	r.GET("/users/:username", h.Get)
	r.PUT("/users/:username/name", h.Rename)
	r.PUT("/users/:username/email", h.ChangeEmail)
	r.POST("/users/:username/email/verification", h.RequestEmailVerification)
	r.POST("/users/:username/email/verify", h.ConfirmEmailVerification)
	r.PUT("/users/:username/phone", h.ChangePhone)
	r.PUT("/users/:username/payment-method", h.ChangePaymentMethod)
	r.POST("/users/:username/contact", h.Contact)
	r.POST("/users/:username/charge", h.Charge)
	return r
}

func do(t *testing.T, f *fakeAccounts, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	newTestEngine(f).ServeHTTP(w, req)
	return w
}

func record(t *testing.T, contact domain.ContactInfo, pm domain.PaymentMethod) *repository.UserRecord {
	t.Helper()
	u, err := domain.NewUser("alice", contact, pm)
	if err != nil {
		t.Fatalf("new user: %v", err)
	}
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return &repository.UserRecord{User: u, Version: 1, CreatedAt: now, UpdatedAt: now}
}

func phoneRecord(t *testing.T) *repository.UserRecord {
	return record(t, domain.NewPhone("555-0100"), domain.Invoice{})
}

// ---- Register ----

func TestRegister_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{bad json}`},
		{"no contact", `{"username":"alice","payment_method":{"kind":"invoice"}}`},
		{"both contacts", `{"username":"alice","phone":"1","email":"a@example.com","payment_method":{"kind":"invoice"}}`},
		{"bad email", `{"username":"alice","email":"nope","payment_method":{"kind":"invoice"}}`},
		{"unknown payment kind", `{"username":"alice","phone":"1","payment_method":{"kind":"cash"}}`},
		{"paypal without id", `{"username":"alice","phone":"1","payment_method":{"kind":"paypal"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeAccounts{} // register must not be reached
			w := do(t, f, http.MethodPost, "/users", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400; body %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestRegister_OtherSubject_Returns403(t *testing.T) {
	w := do(t, &fakeAccounts{}, http.MethodPost, "/users",
		`{"username":"mallory","phone":"1","payment_method":{"kind":"invoice"}}`)
	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
}

func TestRegister_Success_Returns201(t *testing.T) {
	var got usecase.RegisterInput
	f := &fakeAccounts{
		register: func(_ context.Context, in usecase.RegisterInput) (*repository.UserRecord, error) {
			got = in
			return phoneRecord(t), nil
		},
	}
	w := do(t, f, http.MethodPost, "/users",
		`{"username":"alice","phone":"555-0100","payment_method":{"kind":"invoice"}}`)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body %s", w.Code, w.Body.String())
	}
	if got.Phone != "555-0100" || got.PaymentKind != domain.PaymentInvoice {
		t.Errorf("input = %+v", got)
	}

	var resp struct {
		Username string `json:"username"`
		Contact  struct {
			Kind     string `json:"kind"`
			Value    string `json:"value"`
			Verified *bool  `json:"verified"`
		} `json:"contact"`
		PaymentMethod struct {
			Kind string `json:"kind"`
		} `json:"payment_method"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Username != "alice" || resp.Contact.Kind != "phone" || resp.Contact.Value != "555-0100" {
		t.Errorf("resp = %+v", resp)
	}
	if resp.Contact.Verified != nil {
		t.Error("phone contact should not carry a verified flag")
	}
	if resp.PaymentMethod.Kind != "invoice" {
		t.Errorf("payment kind = %q", resp.PaymentMethod.Kind)
	}
}

func TestRegister_Exists_Returns409(t *testing.T) {
	f := &fakeAccounts{
		register: func(context.Context, usecase.RegisterInput) (*repository.UserRecord, error) {
			return nil, fmt.Errorf("register user: %w", domain.ErrUserExists)
		},
	}
	w := do(t, f, http.MethodPost, "/users",
		`{"username":"alice","phone":"1","payment_method":{"kind":"invoice"}}`)
	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", w.Code)
	}
	if !strings.Contains(w.Body.String(), domain.ErrUserExists.Error()) {
		t.Errorf("body = %s", w.Body.String())
	}
}

// ---- Get ----

func TestGet_NotFound_Returns404(t *testing.T) {
	f := &fakeAccounts{
		get: func(context.Context, string) (*repository.UserRecord, error) {
			return nil, domain.ErrUserNotFound
		},
	}
	w := do(t, f, http.MethodGet, "/users/alice", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestGet_RendersEmailVerification(t *testing.T) {
	tests := []struct {
		name  string
		email domain.Email
		want  bool
	}{
		{"unverified", domain.NewEmail("alice@example.com"), false},
		{"verified", domain.NewEmail("alice@example.com").Verify(), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := record(t, domain.NewEmailContact(tt.email), domain.Stripe{ID: "pm_1"})
			f := &fakeAccounts{
				get: func(context.Context, string) (*repository.UserRecord, error) { return rec, nil },
			}
			w := do(t, f, http.MethodGet, "/users/alice", "")
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d", w.Code)
			}
			want := fmt.Sprintf(`"contact":{"kind":"email","value":"alice@example.com","verified":%v}`, tt.want)
			if !strings.Contains(w.Body.String(), want) {
				t.Errorf("body = %s, want it to contain %s", w.Body.String(), want)
			}
			if !strings.Contains(w.Body.String(), `"payment_method":{"kind":"stripe","id":"pm_1"}`) {
				t.Errorf("body = %s", w.Body.String())
			}
		})
	}
}

// ---- mutations ----

func TestRequestEmailVerification_Returns202(t *testing.T) {
	var gotUser string
	f := &fakeAccounts{
		requestVerification: func(_ context.Context, username string) error {
			gotUser = username
			return nil
		},
	}
	w := do(t, f, http.MethodPost, "/users/alice/email/verification", "")
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", w.Code, w.Body.String())
	}
	if gotUser != "alice" {
		t.Errorf("username = %q", gotUser)
	}
}

func TestRequestEmailVerification_OnPhone_Returns422(t *testing.T) {
	f := &fakeAccounts{
		requestVerification: func(context.Context, string) error {
			return fmt.Errorf("request verification: %w", domain.ErrNotAnEmailContact)
		},
	}
	w := do(t, f, http.MethodPost, "/users/alice/email/verification", "")
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", w.Code)
	}
}

func TestConfirmEmailVerification_PassesToken(t *testing.T) {
	var gotUser, gotToken string
	f := &fakeAccounts{
		confirmVerification: func(_ context.Context, username, rawToken string) (*repository.UserRecord, error) {
			gotUser, gotToken = username, rawToken
			return record(t, domain.NewEmailContact(domain.NewEmail("a@example.com").Verify()), domain.Invoice{}), nil
		},
	}
	w := do(t, f, http.MethodPost, "/users/alice/email/verify", `{"token":"abc123"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	if gotUser != "alice" || gotToken != "abc123" {
		t.Errorf("confirm(%q, %q)", gotUser, gotToken)
	}
	if !strings.Contains(w.Body.String(), `"verified":true`) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestConfirmEmailVerification_MissingToken_Returns400(t *testing.T) {
	f := &fakeAccounts{
		confirmVerification: func(context.Context, string, string) (*repository.UserRecord, error) {
			t.Fatal("usecase must not be called without a token")
			return nil, nil
		},
	}
	for _, body := range []string{"", `{}`, `{"token":""}`} {
		w := do(t, f, http.MethodPost, "/users/alice/email/verify", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, w.Code)
		}
	}
}

// Wrong, expired, used and stale tokens all surface as ErrTokenInvalid.
func TestConfirmEmailVerification_ErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrTokenInvalid, http.StatusUnprocessableEntity},
		{domain.ErrNotAnEmailContact, http.StatusUnprocessableEntity},
		{domain.ErrVersionConflict, http.StatusConflict},
		{domain.ErrUserBusy, http.StatusConflict},
		{errors.New("db exploded"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		f := &fakeAccounts{
			confirmVerification: func(context.Context, string, string) (*repository.UserRecord, error) {
				return nil, fmt.Errorf("verify_email alice: %w", tt.err)
			},
		}
		w := do(t, f, http.MethodPost, "/users/alice/email/verify", `{"token":"stale"}`)
		if w.Code != tt.want {
			t.Errorf("%v: status = %d, want %d", tt.err, w.Code, tt.want)
		}
		if strings.Contains(w.Body.String(), "alice:") {
			t.Errorf("%v: wrapping context leaked: %s", tt.err, w.Body.String())
		}
	}
}

func TestChangeEmail_InvalidAddress_Returns400(t *testing.T) {
	w := do(t, &fakeAccounts{}, http.MethodPut, "/users/alice/email", `{"email":"not-an-email"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestChangePaymentMethod_PassesKindAndID(t *testing.T) {
	var gotKind domain.PaymentKind
	var gotID string
	f := &fakeAccounts{
		changePaymentMethod: func(_ context.Context, _ string, kind domain.PaymentKind, id string) (*repository.UserRecord, error) {
			gotKind, gotID = kind, id
			return record(t, domain.NewPhone("1"), domain.PayPal{ID: id}), nil
		},
	}
	w := do(t, f, http.MethodPut, "/users/alice/payment-method", `{"kind":"paypal","id":"pp-1"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; body %s", w.Code, w.Body.String())
	}
	if gotKind != domain.PaymentPayPal || gotID != "pp-1" {
		t.Errorf("got %s/%s", gotKind, gotID)
	}
}

func TestRename_EmptyNameClears(t *testing.T) {
	f := &fakeAccounts{
		rename: func(_ context.Context, _, name string) (*repository.UserRecord, error) {
			if name != "" {
				t.Errorf("name = %q, want empty", name)
			}
			return phoneRecord(t), nil
		},
	}
	w := do(t, f, http.MethodPut, "/users/alice/name", `{"name":""}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if strings.Contains(w.Body.String(), `"name"`) {
		t.Errorf("cleared name should be omitted: %s", w.Body.String())
	}
}

// ---- Contact ----

func TestContact_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unverified", domain.ErrEmailNotVerified, http.StatusUnprocessableEntity},
		{"no transport", domain.ErrChannelUnavailable, http.StatusServiceUnavailable},
		{"provider failure", errors.New("twilio: 21211 invalid number"), http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeAccounts{
				contact: func(context.Context, string, string) (domain.Delivery, error) {
					return domain.Delivery{}, fmt.Errorf("contact user: %w", tt.err)
				},
			}
			w := do(t, f, http.MethodPost, "/users/alice/contact", `{"message":"hi"}`)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestContact_Success(t *testing.T) {
	f := &fakeAccounts{
		contact: func(_ context.Context, username, msg string) (domain.Delivery, error) {
			return domain.Delivery{Channel: domain.ChannelSMS, Recipient: "555-0100", MessageID: "SM1"}, nil
		},
	}
	w := do(t, f, http.MethodPost, "/users/alice/contact", `{"message":"hi"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"channel":"sms"`) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestContact_MissingMessage_Returns400(t *testing.T) {
	w := do(t, &fakeAccounts{}, http.MethodPost, "/users/alice/contact", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

// ---- Charge ----

func TestCharge_StatusByOutcome(t *testing.T) {
	tests := []struct {
		name   string
		charge domain.Charge
		want   int
	}{
		{"invoice deferred", domain.Charge{Provider: domain.ProviderInvoice, Status: domain.ChargeDeferred}, http.StatusAccepted},
		{"stripe captured", domain.Charge{Provider: domain.ProviderStripe, Status: domain.ChargeCaptured, Reference: "pi_1"}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotAmount int64
			var gotCurrency string
			f := &fakeAccounts{
				charge: func(_ context.Context, _ string, amount int64, currency string) (domain.Charge, error) {
					gotAmount, gotCurrency = amount, currency
					c := tt.charge
					c.Amount = domain.Money{Amount: amount, Currency: "EUR"}
					return c, nil
				},
			}
			w := do(t, f, http.MethodPost, "/users/alice/charge", `{"amount":1250,"currency":"eur"}`)
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d", w.Code, tt.want)
			}
			if gotAmount != 1250 || gotCurrency != "eur" {
				t.Errorf("charged %d %s", gotAmount, gotCurrency)
			}
		})
	}
}

func TestCharge_BadRequests(t *testing.T) {
	for _, body := range []string{`{"amount":0}`, `{"amount":-5}`, `{"amount":10,"currency":"dollars"}`} {
		w := do(t, &fakeAccounts{}, http.MethodPost, "/users/alice/charge", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", body, w.Code)
		}
	}
}

func TestCharge_GatewayFailure_Returns502(t *testing.T) {
	f := &fakeAccounts{
		charge: func(context.Context, string, int64, string) (domain.Charge, error) {
			return domain.Charge{}, errors.New("card_declined")
		},
	}
	w := do(t, f, http.MethodPost, "/users/alice/charge", `{"amount":100}`)
	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", w.Code)
	}
	if strings.Contains(w.Body.String(), "card_declined") {
		t.Errorf("provider detail leaked: %s", w.Body.String())
	}
}

func TestCharge_ForwardsIdempotencyKey(t *testing.T) {
	var gotKey string
	f := &fakeAccounts{
		charge: func(ctx context.Context, _ string, amount int64, _ string) (domain.Charge, error) {
			gotKey = reqctx.IdempotencyKey(ctx)
			return domain.Charge{Provider: domain.ProviderStripe, Status: domain.ChargeCaptured}, nil
		},
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/users/alice/charge", strings.NewReader(`{"amount":100}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", "order-77")
	newTestEngine(f).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if gotKey != "order-77" {
		t.Errorf("idempotency key = %q, want order-77", gotKey)
	}
}
