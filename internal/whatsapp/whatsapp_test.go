package whatsapp

import (
	"context"
	"testing"
)

func TestMockClientRecordsMessages(t *testing.T) {
	mock := NewMockClient()
	ctx := context.Background()

	if err := mock.SendMessage(ctx, "+15551234567", "Check the boiler display."); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	if err := mock.SendMessage(ctx, "+15551234567", "What does it show?"); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	if len(mock.Sent) != 2 {
		t.Fatalf("expected 2 recorded messages, got %d", len(mock.Sent))
	}
	if mock.Sent[0].To != "+15551234567" {
		t.Errorf("unexpected recipient: %s", mock.Sent[0].To)
	}
	if mock.Sent[1].Body != "What does it show?" {
		t.Errorf("unexpected body: %s", mock.Sent[1].Body)
	}
}

func TestClientSendMessageValidation(t *testing.T) {
	var c Client
	ctx := context.Background()

	if err := c.SendMessage(ctx, "+15551234567", "hello"); err == nil {
		t.Error("expected error for uninitialized client")
	}
}
