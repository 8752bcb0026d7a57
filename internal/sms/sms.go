package sms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ErlanBelekov/account-model/internal/domain"
	"github.com/google/uuid"
)

var (
	_ domain.SMSSender = (*LogSender)(nil)
	_ domain.SMSSender = (*TwilioSender)(nil)
)

// LogSender logs text messages instead of sending them. Used when no SMS
// account is configured.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger.With("component", "sms")}
}

func (s *LogSender) SendSMS(ctx context.Context, number, message string) (domain.Delivery, error) {
	id := uuid.NewString()
	s.logger.InfoContext(ctx, "sms (local dev)", "to", number, "message_id", id, "body", message)
	return delivery(number, id), nil
}

// APIError is a non-2xx answer from the Messages API.
type APIError struct {
	StatusCode int
	Code       int    `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("sms api: status %d, code %d: %s", e.StatusCode, e.Code, e.Message)
}

// TwilioSender sends through a Twilio-compatible Messages REST API.
type TwilioSender struct {
	client     *http.Client
	baseURL    string
	accountSID string
	authToken  string
	from       string
}

func NewTwilioSender(client *http.Client, baseURL, accountSID, authToken, from string) *TwilioSender {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &TwilioSender{
		client:     client,
		baseURL:    strings.TrimRight(baseURL, "/"),
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
	}
}

type messageResponse struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

func (s *TwilioSender) SendSMS(ctx context.Context, number, message string) (domain.Delivery, error) {
	form := url.Values{}
	form.Set("To", number)
	form.Set("From", s.from)
	form.Set("Body", message)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", s.baseURL, url.PathEscape(s.accountSID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return domain.Delivery{}, fmt.Errorf("build request: %w", err)
	}
	req.SetBasicAuth(s.accountSID, s.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return domain.Delivery{}, fmt.Errorf("send sms: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.Delivery{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		_ = json.Unmarshal(body, apiErr)
		return domain.Delivery{}, apiErr
	}

	var msg messageResponse
	if err := json.Unmarshal(body, &msg); err != nil {
		return domain.Delivery{}, fmt.Errorf("decode response: %w", err)
	}
	return delivery(number, msg.SID), nil
}

// NewSender returns a TwilioSender when accountSID is set, a LogSender otherwise.
func NewSender(baseURL, accountSID, authToken, from string, logger *slog.Logger) domain.SMSSender {
	if accountSID == "" {
		return NewLogSender(logger)
	}
	return NewTwilioSender(nil, baseURL, accountSID, authToken, from)
}

func delivery(number, id string) domain.Delivery {
	return domain.Delivery{
		Channel:   domain.ChannelSMS,
		Recipient: number,
		MessageID: id,
		SentAt:    time.Now(),
	}
}
