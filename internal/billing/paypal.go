package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ErlanBelekov/account-model/internal/domain"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

var _ domain.PayPalCharger = (*PayPalCharger)(nil)

// PayPalCharger captures an order against a vaulted PayPal payment source
// (Orders v2 API). The HTTP client fetches and refreshes its OAuth2 token.
type PayPalCharger struct {
	client  *http.Client
	baseURL string
}

func NewPayPalCharger(ctx context.Context, baseURL, clientID, clientSecret string) *PayPalCharger {
	baseURL = strings.TrimRight(baseURL, "/")
	cc := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     baseURL + "/v1/oauth2/token",
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	return &PayPalCharger{client: cc.Client(ctx), baseURL: baseURL}
}

// PayPalError is a non-2xx answer from the Orders API.
type PayPalError struct {
	StatusCode int
	Name       string `json:"name"`
	Message    string `json:"message"`
	DebugID    string `json:"debug_id"`
}

func (e *PayPalError) Error() string {
	return fmt.Sprintf("paypal: status %d %s: %s (debug_id %s)", e.StatusCode, e.Name, e.Message, e.DebugID)
}

type paypalAmount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type paypalPurchaseUnit struct {
	Amount paypalAmount `json:"amount"`
}

type paypalVault struct {
	VaultID string `json:"vault_id"`
}

type paypalSource struct {
	PayPal paypalVault `json:"paypal"`
}

type paypalOrderRequest struct {
	Intent        string               `json:"intent"`
	PurchaseUnits []paypalPurchaseUnit `json:"purchase_units"`
	PaymentSource paypalSource         `json:"payment_source"`
}

type paypalOrderResponse struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	PurchaseUnits []struct {
		Payments struct {
			Captures []struct {
				ID     string `json:"id"`
				Status string `json:"status"`
			} `json:"captures"`
		} `json:"payments"`
	} `json:"purchase_units"`
}

func (c *PayPalCharger) ChargePayPal(ctx context.Context, id string, amount domain.Money) (domain.Charge, error) {
	order := paypalOrderRequest{
		Intent: "CAPTURE",
		PurchaseUnits: []paypalPurchaseUnit{{Amount: paypalAmount{
			CurrencyCode: strings.ToUpper(amount.Currency),
			Value:        FormatAmount(amount),
		}}},
		PaymentSource: paypalSource{PayPal: paypalVault{VaultID: id}},
	}

	payload, err := json.Marshal(order)
	if err != nil {
		return domain.Charge{}, fmt.Errorf("encode order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/checkout/orders", bytes.NewReader(payload))
	if err != nil {
		return domain.Charge{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("PayPal-Request-Id", idempotencyKey(ctx))

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.Charge{}, fmt.Errorf("create order: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.Charge{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		ppErr := &PayPalError{StatusCode: resp.StatusCode}
		_ = json.Unmarshal(body, ppErr)
		return domain.Charge{}, ppErr
	}

	var out paypalOrderResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return domain.Charge{}, fmt.Errorf("decode order: %w", err)
	}
	if out.Status != "COMPLETED" {
		return domain.Charge{}, fmt.Errorf("%w: paypal order %s is %s", ErrChargeNotCompleted, out.ID, out.Status)
	}

	ref := out.ID
	if len(out.PurchaseUnits) > 0 && len(out.PurchaseUnits[0].Payments.Captures) > 0 {
		ref = out.PurchaseUnits[0].Payments.Captures[0].ID
	}
	return domain.Charge{
		Provider:  domain.ProviderPayPal,
		Status:    domain.ChargeCaptured,
		Reference: ref,
		Amount:    amount,
	}, nil
}
