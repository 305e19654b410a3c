// Package interpret maps free-text tenant messages onto the expected
// responses of a troubleshooting step.
//
// Interpretation is two-tier: a fast deterministic pattern tier that runs
// synchronously on every message, and a GenAI classification tier used only
// when no pattern matches. Interpret never returns an error; every failure
// path resolves to a safe "needs clarification" default so the flow engine
// always has a well-formed result to act on.
package interpret

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/Courtneyezra/FixPipe/internal/genai"
	"github.com/Courtneyezra/FixPipe/internal/models"
)

// PatternMatchConfidence is the fixed confidence assigned to any
// deterministic pattern-tier match.
const PatternMatchConfidence = 0.95

// DefaultClassifierTimeout bounds the semantic tier call.
const DefaultClassifierTimeout = 15 * time.Second

// Opts holds configuration options for the interpreter.
type Opts struct {
	Timeout time.Duration
}

// Option defines a configuration option for the interpreter.
type Option func(*Opts)

// WithTimeout sets the semantic-tier timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *Opts) { o.Timeout = d }
}

// Interpreter classifies tenant messages against step expectations.
type Interpreter struct {
	client  genai.ClientInterface
	timeout time.Duration
}

// NewInterpreter creates an interpreter. A nil client disables the semantic
// tier; unmatched messages then resolve to the safe default.
func NewInterpreter(client genai.ClientInterface, opts ...Option) *Interpreter {
	cfg := Opts{Timeout: DefaultClassifierTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Interpreter{client: client, timeout: cfg.Timeout}
}

// Interpret maps one tenant message, in the context of one step, onto a
// ResponseInterpretation. It never returns an error.
func (i *Interpreter) Interpret(ctx context.Context, message string, step models.Step, sessionContext map[string]string) models.ResponseInterpretation {
	normalized := strings.ToLower(strings.TrimSpace(message))
	slog.Debug("Interpreter.Interpret invoked", "stepID", step.ID, "message_length", len(message))

	// Tier 1: deterministic pattern match, first match wins in
	// response-then-pattern declaration order.
	for _, er := range step.ExpectedResponses {
		for _, pattern := range er.Patterns {
			if matchPattern(pattern, normalized) {
				slog.Debug("Interpreter pattern tier matched", "stepID", step.ID, "responseID", er.ID, "pattern", pattern)
				return models.ResponseInterpretation{
					MatchedResponseID: er.ID,
					Confidence:        PatternMatchConfidence,
					ExtractedData:     map[string]string{},
					Sentiment:         models.SentimentNeutral,
				}
			}
		}
	}

	// Tier 2: semantic classification via GenAI.
	if i.client == nil {
		slog.Debug("Interpreter semantic tier unavailable, returning safe default", "stepID", step.ID)
		return safeDefault()
	}
	return i.classify(ctx, message, step, sessionContext)
}

// matchPattern tries the pattern as a case-insensitive regular expression,
// degrading to substring containment when compilation fails. Each pattern
// is wrapped individually so one malformed pattern cannot take down the
// whole interpretation call.
func matchPattern(pattern, normalizedMessage string) bool {
	re, err := regexp.Compile(`(?i)` + pattern)
	if err != nil {
		slog.Warn("Interpreter pattern failed to compile, using substring fallback", "pattern", pattern, "error", err)
		return strings.Contains(normalizedMessage, strings.ToLower(pattern))
	}
	return re.MatchString(normalizedMessage)
}

// classifierResult is the JSON shape demanded from the GenAI classifier.
type classifierResult struct {
	MatchedResponseID  *string           `json:"matched_response_id"`
	Confidence         float64           `json:"confidence"`
	ExtractedData      map[string]string `json:"extracted_data"`
	Sentiment          string            `json:"sentiment"`
	NeedsClarification bool              `json:"needs_clarification"`
	Reasoning          string            `json:"reasoning"`
}

func (i *Interpreter) classify(ctx context.Context, message string, step models.Step, sessionContext map[string]string) models.ResponseInterpretation {
	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	raw, err := i.client.GenerateJSON(ctx, classifierSystemPrompt, buildClassifierPrompt(message, step, sessionContext))
	if err != nil {
		slog.Error("Interpreter semantic tier call failed", "error", err, "stepID", step.ID)
		return safeDefault()
	}

	var result classifierResult
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &result); err != nil {
		slog.Error("Interpreter semantic tier returned malformed JSON", "error", err, "stepID", step.ID)
		return safeDefault()
	}

	interpretation := models.ResponseInterpretation{
		Confidence:         clampConfidence(result.Confidence),
		ExtractedData:      result.ExtractedData,
		Sentiment:          models.Sentiment(result.Sentiment),
		NeedsClarification: result.NeedsClarification,
		Reasoning:          result.Reasoning,
	}
	if interpretation.ExtractedData == nil {
		interpretation.ExtractedData = map[string]string{}
	}
	if !models.IsValidSentiment(interpretation.Sentiment) {
		interpretation.Sentiment = models.SentimentNeutral
	}
	if result.MatchedResponseID != nil {
		// Guard against the classifier inventing a response ID.
		if _, ok := findExpectedResponse(step, *result.MatchedResponseID); ok {
			interpretation.MatchedResponseID = *result.MatchedResponseID
		} else {
			slog.Warn("Interpreter classifier returned unknown response ID", "stepID", step.ID, "responseID", *result.MatchedResponseID)
			interpretation.NeedsClarification = true
		}
	}

	slog.Debug("Interpreter semantic tier result",
		"stepID", step.ID,
		"matched", interpretation.MatchedResponseID,
		"confidence", interpretation.Confidence,
		"sentiment", interpretation.Sentiment,
		"reasoning", result.Reasoning)
	return interpretation
}

const classifierSystemPrompt = `You classify a tenant's chat reply against the expected responses for the current step of a home-repair troubleshooting flow.

Respond with ONLY a JSON object of this exact shape:
{
  "matched_response_id": "<id of the best matching expected response, or null if none fits>",
  "confidence": <number between 0 and 1>,
  "extracted_data": {"<key>": "<value>"},
  "sentiment": "positive" | "neutral" | "negative" | "frustrated",
  "needs_clarification": <true if the reply is too ambiguous to act on>,
  "reasoning": "<one sentence explaining your choice>"
}

Rules:
- Only use the expected response IDs you are given; never invent one.
- Use "frustrated" when the tenant sounds annoyed, impatient, or angry.
- Put any concrete readings the tenant mentions (pressure, temperature, room) into extracted_data.
- If nothing fits, set matched_response_id to null and needs_clarification to true.`

// buildClassifierPrompt describes the step and its expected responses in
// natural language. Raw regex patterns are deliberately not included.
func buildClassifierPrompt(message string, step models.Step, sessionContext map[string]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The tenant was asked:\n%s\n\nExpected responses:\n", step.Template)
	for _, er := range step.ExpectedResponses {
		fmt.Fprintf(&b, "- id=%q: %s", er.ID, er.SemanticMatch)
		if len(er.Examples) > 0 {
			fmt.Fprintf(&b, " (examples: %s)", strings.Join(er.Examples, "; "))
		}
		b.WriteString("\n")
	}
	if len(sessionContext) > 0 {
		b.WriteString("\nKnown session context:\n")
		for k, v := range sessionContext {
			fmt.Fprintf(&b, "- %s: %s\n", k, v)
		}
	}
	fmt.Fprintf(&b, "\nThe tenant replied:\n%s\n", message)
	return b.String()
}

// safeDefault is the interpretation used for every semantic-tier failure:
// the engine treats it identically to genuine user ambiguity.
func safeDefault() models.ResponseInterpretation {
	return models.ResponseInterpretation{
		Confidence:         0,
		ExtractedData:      map[string]string{},
		Sentiment:          models.SentimentNeutral,
		NeedsClarification: true,
	}
}

func findExpectedResponse(step models.Step, id string) (models.ExpectedResponse, bool) {
	for _, er := range step.ExpectedResponses {
		if er.ID == id {
			return er, true
		}
	}
	return models.ExpectedResponse{}, false
}

// extractJSONObject trims any prose or code fences the model wrapped around
// the JSON object.
func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}

func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
