package genai

import (
	"testing"
	"time"

	"github.com/openai/openai-go"
)

func TestNewClientRequiresAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := NewClient(); err == nil {
		t.Error("NewClient without an API key should fail")
	}
}

func TestNewClientEnvFallback(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	client, err := NewClient()
	if err != nil {
		t.Fatalf("NewClient with env key failed: %v", err)
	}
	if client.model != openai.ChatModelGPT4oMini {
		t.Errorf("expected default model, got %s", client.model)
	}
	if client.timeout != DefaultRequestTimeout {
		t.Errorf("expected default timeout, got %s", client.timeout)
	}
	if client.limiter == nil {
		t.Error("rate limiter should be configured")
	}
}

func TestNewClientOptions(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	client, err := NewClient(
		WithAPIKey("sk-test"),
		WithModel(openai.ChatModelGPT4o),
		WithTimeout(5*time.Second),
		WithRequestsPerMinute(10),
	)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if client.model != openai.ChatModelGPT4o {
		t.Errorf("model option not applied, got %s", client.model)
	}
	if client.timeout != 5*time.Second {
		t.Errorf("timeout option not applied, got %s", client.timeout)
	}
}
