package twiliowhatsapp

import (
	"context"
	"testing"
)

func TestNewClientRequiresCredentials(t *testing.T) {
	t.Setenv("TWILIO_ACCOUNT_SID", "")
	t.Setenv("TWILIO_AUTH_TOKEN", "")
	t.Setenv("TWILIO_FROM_NUMBER", "")

	if _, err := NewClient(); err == nil {
		t.Error("expected error when credentials are missing")
	}

	if _, err := NewClient(WithAccountSID("AC123"), WithAuthToken("tok")); err == nil {
		t.Error("expected error when from number is missing")
	}

	if _, err := NewClient(WithAccountSID("AC123"), WithAuthToken("tok"), WithFromWhats("whatsapp:+15550001111")); err != nil {
		t.Errorf("unexpected error with full credentials: %v", err)
	}
}

func TestMockClientRecordsMessages(t *testing.T) {
	mock := NewMockClient()
	if err := mock.SendMessage(context.Background(), "+15551234567", "Turn the isolation valve clockwise."); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	if len(mock.SentMessages) != 1 || mock.SentMessages[0].To != "+15551234567" {
		t.Errorf("unexpected recorded messages: %+v", mock.SentMessages)
	}
}
