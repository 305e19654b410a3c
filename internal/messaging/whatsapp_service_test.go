package messaging

import (
	"context"
	"testing"

	"github.com/Courtneyezra/FixPipe/internal/whatsapp"
)

func TestWhatsAppServiceValidateAndCanonicalizeRecipient(t *testing.T) {
	svc := NewWhatsAppService(whatsapp.NewMockClient())

	cases := []struct {
		name      string
		recipient string
		want      string
		wantErr   bool
	}{
		{"plain number", "15551234567", "15551234567", false},
		{"e164 format", "+15551234567", "15551234567", false},
		{"formatted", "+1 (555) 123-4567", "15551234567", false},
		{"empty", "", "", true},
		{"no digits", "abc", "", true},
		{"too short", "12345", "", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := svc.ValidateAndCanonicalizeRecipient(tc.recipient)
			if tc.wantErr {
				if err == nil {
					t.Errorf("expected error for %q", tc.recipient)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestWhatsAppServiceSendMessageEmitsReceipt(t *testing.T) {
	mock := whatsapp.NewMockClient()
	svc := NewWhatsAppService(mock)

	if err := svc.SendMessage(context.Background(), "+15551234567", "Locate the stopcock under the sink."); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	if len(mock.Sent) != 1 || mock.Sent[0].To != "15551234567" {
		t.Errorf("unexpected sent messages: %+v", mock.Sent)
	}

	select {
	case receipt := <-svc.Receipts():
		if receipt.To != "15551234567" {
			t.Errorf("unexpected receipt recipient: %s", receipt.To)
		}
	default:
		t.Error("expected a sent receipt")
	}
}
