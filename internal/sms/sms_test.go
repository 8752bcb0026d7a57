package sms_test

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ErlanBelekov/account-model/internal/sms"
)

func TestTwilioSender_PostsForm(t *testing.T) {
	var gotPath, gotUser, gotPass, gotTo, gotFrom, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser, gotPass, _ = r.BasicAuth()
		_ = r.ParseForm()
		gotTo, gotFrom, gotBody = r.PostForm.Get("To"), r.PostForm.Get("From"), r.PostForm.Get("Body")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"SM123","status":"queued"}`))
	}))
	defer srv.Close()

	s := sms.NewTwilioSender(srv.Client(), srv.URL+"/", "AC1", "secret", "+15550000")
	d, err := s.SendSMS(context.Background(), "555-0100", "hi")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/2010-04-01/Accounts/AC1/Messages.json" {
		t.Errorf("path = %q", gotPath)
	}
	if gotUser != "AC1" || gotPass != "secret" {
		t.Errorf("basic auth = (%q, %q)", gotUser, gotPass)
	}
	if gotTo != "555-0100" || gotFrom != "+15550000" || gotBody != "hi" {
		t.Errorf("form = (%q, %q, %q)", gotTo, gotFrom, gotBody)
	}
	if d.MessageID != "SM123" || d.Recipient != "555-0100" {
		t.Errorf("delivery = %+v", d)
	}
}

func TestTwilioSender_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":21211,"message":"invalid 'To' phone number","status":400}`))
	}))
	defer srv.Close()

	s := sms.NewTwilioSender(srv.Client(), srv.URL, "AC1", "secret", "+15550000")
	_, err := s.SendSMS(context.Background(), "nope", "hi")

	var apiErr *sms.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("want *APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest || apiErr.Code != 21211 {
		t.Errorf("apiErr = %+v", apiErr)
	}
}

func TestNewSender_FallsBackToLog(t *testing.T) {
	s := sms.NewSender("https://api.twilio.com", "", "", "", slog.Default())
	if _, ok := s.(*sms.LogSender); !ok {
		t.Fatalf("got %T, want *sms.LogSender", s)
	}

	d, err := s.SendSMS(context.Background(), "555-0100", "hi")
	if err != nil || d.MessageID == "" {
		t.Errorf("SendSMS = (%+v, %v)", d, err)
	}
}
