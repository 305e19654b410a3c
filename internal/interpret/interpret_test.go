package interpret

import (
	"context"
	"errors"
	"testing"

	"github.com/Courtneyezra/FixPipe/internal/models"
)

// stubGenAI returns a canned JSON payload or error from GenerateJSON.
type stubGenAI struct {
	response string
	err      error
	calls    int
}

func (s *stubGenAI) GeneratePrompt(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return s.response, s.err
}

func (s *stubGenAI) GenerateJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	s.calls++
	return s.response, s.err
}

func powerStep() models.Step {
	return models.Step{
		ID:       "check_power",
		Type:     models.StepTypeQuestion,
		Template: "Is the display on?",
		ExpectedResponses: []models.ExpectedResponse{
			{
				ID:            "power_yes",
				Patterns:      []string{`\byes\b`, `display is on`},
				SemanticMatch: "The boiler has power",
			},
			{
				ID:            "power_no",
				Patterns:      []string{`\bno\b`, `\bblank\b`},
				SemanticMatch: "The boiler has no power",
			},
		},
	}
}

func TestInterpretPatternTier(t *testing.T) {
	interp := NewInterpreter(nil)
	step := powerStep()

	cases := []struct {
		message string
		want    string
	}{
		{"yes", "power_yes"},
		{"YES it is", "power_yes"},
		{"the display is on now", "power_yes"},
		{"no", "power_no"},
		{"screen's completely blank", "power_no"},
	}
	for _, tc := range cases {
		got := interp.Interpret(context.Background(), tc.message, step, nil)
		if got.MatchedResponseID != tc.want {
			t.Errorf("Interpret(%q) matched %q, want %q", tc.message, got.MatchedResponseID, tc.want)
		}
		if got.Confidence != PatternMatchConfidence {
			t.Errorf("pattern match should have fixed confidence, got %f", got.Confidence)
		}
		if got.Sentiment != models.SentimentNeutral {
			t.Errorf("pattern tier should report neutral sentiment, got %s", got.Sentiment)
		}
	}
}

func TestInterpretDeclarationOrderWins(t *testing.T) {
	// "yes" also appears in a later response's patterns; the first declared
	// response must win.
	step := models.Step{
		ID: "s",
		ExpectedResponses: []models.ExpectedResponse{
			{ID: "first", Patterns: []string{`\byes\b`}},
			{ID: "second", Patterns: []string{`\byes\b`}},
		},
	}
	got := NewInterpreter(nil).Interpret(context.Background(), "yes", step, nil)
	if got.MatchedResponseID != "first" {
		t.Errorf("expected first declared response, got %q", got.MatchedResponseID)
	}
}

func TestInterpretNoClientSafeDefault(t *testing.T) {
	interp := NewInterpreter(nil)
	got := interp.Interpret(context.Background(), "the thingy is doing the thing", powerStep(), nil)

	if got.MatchedResponseID != "" {
		t.Errorf("expected no match, got %q", got.MatchedResponseID)
	}
	if !got.NeedsClarification {
		t.Error("unmatched message without a classifier should need clarification")
	}
	if got.Confidence != 0 {
		t.Errorf("safe default should have zero confidence, got %f", got.Confidence)
	}
	if got.ExtractedData == nil {
		t.Error("ExtractedData must never be nil")
	}
}

func TestInterpretSemanticTier(t *testing.T) {
	stub := &stubGenAI{response: `{"matched_response_id":"power_no","confidence":0.82,"extracted_data":{"display":"blank"},"sentiment":"frustrated","needs_clarification":false,"reasoning":"tenant says nothing lights up"}`}
	interp := NewInterpreter(stub)

	got := interp.Interpret(context.Background(), "nothing lights up at all mate", powerStep(), map[string]string{"boiler_make": "Worcester"})

	if stub.calls != 1 {
		t.Fatalf("expected one classifier call, got %d", stub.calls)
	}
	if got.MatchedResponseID != "power_no" {
		t.Errorf("expected power_no, got %q", got.MatchedResponseID)
	}
	if got.Confidence != 0.82 {
		t.Errorf("expected confidence 0.82, got %f", got.Confidence)
	}
	if got.Sentiment != models.SentimentFrustrated {
		t.Errorf("expected frustrated sentiment, got %s", got.Sentiment)
	}
	if got.ExtractedData["display"] != "blank" {
		t.Errorf("extracted data lost: %v", got.ExtractedData)
	}
}

func TestInterpretSemanticTierSkippedOnPatternMatch(t *testing.T) {
	stub := &stubGenAI{response: `{}`}
	interp := NewInterpreter(stub)

	interp.Interpret(context.Background(), "yes", powerStep(), nil)
	if stub.calls != 0 {
		t.Errorf("classifier must not be called when a pattern matches, got %d calls", stub.calls)
	}
}

func TestInterpretClassifierFenceStripping(t *testing.T) {
	stub := &stubGenAI{response: "Here you go:\n```json\n{\"matched_response_id\":\"power_yes\",\"confidence\":0.9,\"sentiment\":\"neutral\"}\n```"}
	interp := NewInterpreter(stub)

	got := interp.Interpret(context.Background(), "illuminated I suppose", powerStep(), nil)
	if got.MatchedResponseID != "power_yes" {
		t.Errorf("code-fenced JSON should still parse, got %q", got.MatchedResponseID)
	}
}

func TestInterpretClassifierFailures(t *testing.T) {
	cases := []struct {
		name string
		stub *stubGenAI
	}{
		{"call error", &stubGenAI{err: errors.New("rate limited")}},
		{"malformed JSON", &stubGenAI{response: "{not json at all"}},
		{"empty response", &stubGenAI{response: ""}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NewInterpreter(tc.stub).Interpret(context.Background(), "hmm", powerStep(), nil)
			if !got.NeedsClarification {
				t.Error("classifier failure should resolve to the safe default")
			}
			if got.MatchedResponseID != "" {
				t.Errorf("safe default must not carry a match, got %q", got.MatchedResponseID)
			}
		})
	}
}

func TestInterpretClassifierInventedResponseID(t *testing.T) {
	stub := &stubGenAI{response: `{"matched_response_id":"made_up","confidence":0.99,"sentiment":"neutral"}`}
	got := NewInterpreter(stub).Interpret(context.Background(), "whatever", powerStep(), nil)

	if got.MatchedResponseID != "" {
		t.Errorf("invented response ID must be discarded, got %q", got.MatchedResponseID)
	}
	if !got.NeedsClarification {
		t.Error("invented response ID should flag clarification")
	}
}

func TestInterpretClassifierSanitization(t *testing.T) {
	stub := &stubGenAI{response: `{"matched_response_id":"power_yes","confidence":3.5,"sentiment":"ecstatic"}`}
	got := NewInterpreter(stub).Interpret(context.Background(), "gleaming", powerStep(), nil)

	if got.Confidence != 1 {
		t.Errorf("confidence should clamp to 1, got %f", got.Confidence)
	}
	if got.Sentiment != models.SentimentNeutral {
		t.Errorf("unknown sentiment should normalize to neutral, got %s", got.Sentiment)
	}
	if got.ExtractedData == nil {
		t.Error("ExtractedData must never be nil")
	}
}

func TestMatchPatternBadRegexFallsBackToSubstring(t *testing.T) {
	if !matchPattern("count(", "recount( the items") {
		t.Error("malformed regex should degrade to substring match")
	}
	if matchPattern("count(", "nothing here") {
		t.Error("substring fallback should still miss non-matches")
	}
}
