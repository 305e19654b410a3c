package messaging

import (
	"context"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/Courtneyezra/FixPipe/internal/twiliowhatsapp"
)

func TestTwilioServiceSendMessageCanonicalizes(t *testing.T) {
	mock := twiliowhatsapp.NewMockClient()
	svc := NewTwilioService(mock)

	if err := svc.SendMessage(context.Background(), "+1 (555) 123-4567", "Check the stopcock."); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	if len(mock.SentMessages) != 1 {
		t.Fatalf("expected 1 sent message, got %d", len(mock.SentMessages))
	}
	if mock.SentMessages[0].To != "15551234567" {
		t.Errorf("expected canonicalized recipient, got %s", mock.SentMessages[0].To)
	}

	select {
	case receipt := <-svc.Receipts():
		if receipt.To != "15551234567" {
			t.Errorf("unexpected receipt recipient: %s", receipt.To)
		}
	default:
		t.Error("expected a sent receipt to be emitted")
	}
}

func TestTwilioServiceSendAfterStop(t *testing.T) {
	svc := NewTwilioService(twiliowhatsapp.NewMockClient())
	if err := svc.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if err := svc.SendMessage(context.Background(), "+15551234567", "hello"); err != ErrServiceStopped {
		t.Errorf("expected ErrServiceStopped, got %v", err)
	}
}

func TestTwilioWebhookHandlerEmitsResponse(t *testing.T) {
	svc := NewTwilioService(twiliowhatsapp.NewMockClient())

	form := url.Values{}
	form.Set("From", "whatsapp:+15551234567")
	form.Set("Body", "the tap is still dripping")
	form.Set("NumMedia", "1")
	form.Set("MediaUrl0", "https://api.twilio.com/media/abc.jpg")

	req := httptest.NewRequest("POST", "/webhook/twilio", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	svc.TwilioWebhookHandler(rec, req)

	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	select {
	case resp := <-svc.Responses():
		if resp.From != "whatsapp:+15551234567" {
			t.Errorf("unexpected sender: %s", resp.From)
		}
		if resp.Body != "the tap is still dripping" {
			t.Errorf("unexpected body: %s", resp.Body)
		}
		if len(resp.MediaURLs) != 1 || resp.MediaURLs[0] != "https://api.twilio.com/media/abc.jpg" {
			t.Errorf("unexpected media URLs: %v", resp.MediaURLs)
		}
	default:
		t.Fatal("expected response to be emitted")
	}
}

func TestTwilioWebhookHandlerRejectsEmpty(t *testing.T) {
	svc := NewTwilioService(twiliowhatsapp.NewMockClient())

	form := url.Values{}
	form.Set("From", "")
	form.Set("Body", "")

	req := httptest.NewRequest("POST", "/webhook/twilio", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	svc.TwilioWebhookHandler(rec, req)

	if rec.Code != 400 {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}
