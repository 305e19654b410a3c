// Package genai provides GenAI-enhanced operations using the OpenAI API.
//
// The troubleshooting interpreter uses it as a classifier, so requests run
// at low temperature and may demand a JSON object response. The client is
// rate limited so a burst of inbound chat messages cannot breach provider
// rate limits.
package genai

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"golang.org/x/time/rate"
)

// Default configuration for the GenAI client.
const (
	// DefaultRequestTimeout bounds every completion call so a hung provider
	// can never block a session indefinitely.
	DefaultRequestTimeout = 20 * time.Second
	// DefaultRequestsPerMinute is the classifier-side rate limit.
	DefaultRequestsPerMinute = 60
	// ClassifierTemperature keeps classification near-deterministic.
	ClassifierTemperature = 0.1
)

// ClientInterface abstracts the GenAI client so the interpreter and engine
// are unit-testable with a deterministic stub.
type ClientInterface interface {
	// GeneratePrompt generates free-text output for the given prompts.
	GeneratePrompt(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	// GenerateJSON generates output constrained to a single JSON object,
	// at classification temperature.
	GenerateJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Opts holds configuration options for the GenAI client.
type Opts struct {
	APIKey            string
	Model             shared.ChatModel
	Timeout           time.Duration
	RequestsPerMinute int
}

// Option defines a configuration option for the GenAI client.
type Option func(*Opts)

// WithAPIKey sets the OpenAI API key (overrides $OPENAI_API_KEY).
func WithAPIKey(key string) Option {
	return func(o *Opts) { o.APIKey = key }
}

// WithModel sets the chat model used for completions.
func WithModel(model shared.ChatModel) Option {
	return func(o *Opts) { o.Model = model }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *Opts) { o.Timeout = d }
}

// WithRequestsPerMinute sets the client-side rate limit.
func WithRequestsPerMinute(n int) Option {
	return func(o *Opts) { o.RequestsPerMinute = n }
}

// Client wraps the OpenAI chat completion API for FixPipe.
type Client struct {
	client  openai.Client
	model   shared.ChatModel
	timeout time.Duration
	limiter *rate.Limiter
}

// NewClient initializes a new GenAI client, falling back to the
// OPENAI_API_KEY environment variable when no key option is provided.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}
	if cfg.Model == "" {
		cfg.Model = openai.ChatModelGPT4oMini
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultRequestTimeout
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = DefaultRequestsPerMinute
	}

	slog.Debug("GenAI NewClient configured", "model", cfg.Model, "timeout", cfg.Timeout, "rpm", cfg.RequestsPerMinute)
	return &Client{
		client:  openai.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:   cfg.Model,
		timeout: cfg.Timeout,
		limiter: rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), cfg.RequestsPerMinute),
	}, nil
}

// GeneratePrompt generates a free-text response for the given prompts.
func (c *Client) GeneratePrompt(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return c.complete(ctx, systemPrompt, userPrompt, false)
}

// GenerateJSON generates a response constrained to a single JSON object.
func (c *Client) GenerateJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return c.complete(ctx, systemPrompt, userPrompt, true)
}

func (c *Client) complete(ctx context.Context, systemPrompt, userPrompt string, jsonMode bool) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter wait: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
		Temperature: openai.Float(ClassifierTemperature),
	}
	if jsonMode {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		slog.Error("GenAI completion failed", "error", err, "json_mode", jsonMode)
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}

	slog.Debug("GenAI completion succeeded", "json_mode", jsonMode, "length", len(resp.Choices[0].Message.Content))
	return resp.Choices[0].Message.Content, nil
}
