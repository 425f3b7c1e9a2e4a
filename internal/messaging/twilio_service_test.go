package messaging

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestNewTwilioServiceValidation(t *testing.T) {
	if _, err := NewTwilioService("", "token", "+15550001111"); err == nil {
		t.Error("NewTwilioService without account SID did not fail")
	}
	if _, err := NewTwilioService("AC123", "", "+15550001111"); err == nil {
		t.Error("NewTwilioService without auth token did not fail")
	}
	if _, err := NewTwilioService("AC123", "token", ""); err == nil {
		t.Error("NewTwilioService without sender number did not fail")
	}
	if _, err := NewTwilioService("AC123", "token", "+15550001111"); err != nil {
		t.Errorf("NewTwilioService with full credentials failed: %v", err)
	}
}

func TestValidateAndCanonicalizeRecipient(t *testing.T) {
	svc, err := NewTwilioService("AC123", "token", "+15550001111")
	if err != nil {
		t.Fatalf("NewTwilioService failed: %v", err)
	}

	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"already canonical", "+15551234567", "+15551234567", false},
		{"formatting stripped", "+1 (555) 123-4567", "+15551234567", false},
		{"bare digits", "5551234567", "5551234567", false},
		{"empty", "", "", true},
		{"too short", "+123", "", true},
		{"letters only", "not-a-number", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.ValidateAndCanonicalizeRecipient(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("canonical = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTwilioServiceSendAfterStop(t *testing.T) {
	svc, err := NewTwilioService("AC123", "token", "+15550001111")
	if err != nil {
		t.Fatalf("NewTwilioService failed: %v", err)
	}
	if err := svc.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if err := svc.SendMessage(context.Background(), "+15551234567", "hello"); err != ErrServiceStopped {
		t.Errorf("SendMessage after Stop = %v, want ErrServiceStopped", err)
	}
	// Stop is idempotent.
	if err := svc.Stop(); err != nil {
		t.Errorf("second Stop failed: %v", err)
	}
}

func TestWebhookHandlerEmitsResponse(t *testing.T) {
	svc, err := NewTwilioService("AC123", "token", "+15550001111")
	if err != nil {
		t.Fatalf("NewTwilioService failed: %v", err)
	}
	defer svc.Stop()

	form := url.Values{"From": {"+15551234567"}, "Body": {"my answer"}}
	req := httptest.NewRequest(http.MethodPost, "/sms/webhook", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	svc.WebhookHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	select {
	case resp := <-svc.Responses():
		if resp.From != "+15551234567" || resp.Body != "my answer" {
			t.Errorf("response = %+v", resp)
		}
	case <-time.After(time.Second):
		t.Fatal("no response emitted")
	}
}

func TestWebhookHandlerRejectsMissingFields(t *testing.T) {
	svc, err := NewTwilioService("AC123", "token", "+15550001111")
	if err != nil {
		t.Fatalf("NewTwilioService failed: %v", err)
	}
	defer svc.Stop()

	form := url.Values{"From": {"+15551234567"}}
	req := httptest.NewRequest(http.MethodPost, "/sms/webhook", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	svc.WebhookHandler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestMockServiceRoundTrip(t *testing.T) {
	mock := NewMockService()

	if err := mock.SendMessage(context.Background(), "+15551234567", "question one"); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	if sent := mock.Sent(); len(sent) != 1 || sent[0] != "question one" {
		t.Errorf("Sent() = %v", sent)
	}

	mock.InjectResponse("+15551234567", "answer one")
	select {
	case resp := <-mock.Responses():
		if resp.Body != "answer one" {
			t.Errorf("response body = %q", resp.Body)
		}
	case <-time.After(time.Second):
		t.Fatal("injected response not delivered")
	}

	if err := mock.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if err := mock.SendMessage(context.Background(), "+15551234567", "late"); err != ErrServiceStopped {
		t.Errorf("SendMessage after Stop = %v, want ErrServiceStopped", err)
	}
	if _, ok := <-mock.Responses(); ok {
		t.Error("Responses channel not closed after Stop")
	}
}
