package engine

import (
	"testing"

	"github.com/Courtneyezra/FixPipe/internal/models"
)

func testStep() models.Step {
	return models.Step{
		ID:   "step_1",
		Type: models.StepTypeQuestion,
		Transitions: []models.Transition{
			{
				Condition: models.TransitionCondition{Type: models.ConditionResponseMatches, ResponseID: "yes"},
				Action:    models.TransitionAction{Type: models.ActionGotoStep, StepID: "step_2"},
			},
			{
				Condition: models.TransitionCondition{Type: models.ConditionMediaReceived, MediaType: models.MediaTypePhoto},
				Action:    models.TransitionAction{Type: models.ActionGotoStep, StepID: "step_photo"},
			},
		},
		FallbackTransition: models.Transition{
			Action: models.TransitionAction{Type: models.ActionEscalate, Reason: "fallback"},
		},
	}
}

func TestDetermineTransition(t *testing.T) {
	step := testStep()

	cases := []struct {
		name           string
		interpretation models.ResponseInterpretation
		attempt        int
		maxAttempts    int
		wantType       models.ActionType
		wantStep       string
	}{
		{
			name:           "confident match fires declared transition",
			interpretation: models.ResponseInterpretation{MatchedResponseID: "yes", Confidence: 0.9},
			attempt:        1, maxAttempts: 3,
			wantType: models.ActionGotoStep, wantStep: "step_2",
		},
		{
			name:           "match below confidence gate falls through to fallback",
			interpretation: models.ResponseInterpretation{MatchedResponseID: "yes", Confidence: 0.65},
			attempt:        1, maxAttempts: 3,
			wantType: models.ActionEscalate,
		},
		{
			name:           "match below clarification floor retries",
			interpretation: models.ResponseInterpretation{MatchedResponseID: "yes", Confidence: 0.5},
			attempt:        1, maxAttempts: 3,
			wantType: models.ActionRetryStep,
		},
		{
			name:           "media match fires media transition",
			interpretation: models.ResponseInterpretation{Confidence: 0.9, Media: &models.MediaInfo{Type: models.MediaTypePhoto, URL: "http://x/1.jpg"}},
			attempt:        1, maxAttempts: 3,
			wantType: models.ActionGotoStep, wantStep: "step_photo",
		},
		{
			name:           "wrong media type is inert",
			interpretation: models.ResponseInterpretation{Confidence: 0.9, Media: &models.MediaInfo{Type: models.MediaTypeVideo, URL: "http://x/1.mp4"}},
			attempt:        1, maxAttempts: 3,
			wantType: models.ActionEscalate,
		},
		{
			name:           "exhausted budget takes fallback",
			interpretation: models.ResponseInterpretation{NeedsClarification: true},
			attempt:        3, maxAttempts: 3,
			wantType: models.ActionEscalate,
		},
		{
			name:           "exhausted budget beats frustration override",
			interpretation: models.ResponseInterpretation{Sentiment: models.SentimentFrustrated},
			attempt:        3, maxAttempts: 3,
			wantType: models.ActionEscalate,
		},
		{
			name:           "frustration on repeat attempt escalates",
			interpretation: models.ResponseInterpretation{Sentiment: models.SentimentFrustrated, Confidence: 0.3},
			attempt:        2, maxAttempts: 3,
			wantType: models.ActionEscalate,
		},
		{
			name:           "frustration on first attempt still retries",
			interpretation: models.ResponseInterpretation{Sentiment: models.SentimentFrustrated, Confidence: 0.3},
			attempt:        1, maxAttempts: 3,
			wantType: models.ActionRetryStep,
		},
		{
			name:           "needs clarification retries",
			interpretation: models.ResponseInterpretation{Confidence: 0.8, NeedsClarification: true},
			attempt:        1, maxAttempts: 3,
			wantType: models.ActionRetryStep,
		},
		{
			name:           "no match with decent confidence takes fallback",
			interpretation: models.ResponseInterpretation{Confidence: 0.8},
			attempt:        1, maxAttempts: 3,
			wantType: models.ActionEscalate,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			action := determineTransition(step, tc.interpretation, tc.attempt, tc.maxAttempts)
			if action.Type != tc.wantType {
				t.Errorf("expected action %s, got %s", tc.wantType, action.Type)
			}
			if tc.wantStep != "" && action.StepID != tc.wantStep {
				t.Errorf("expected step %s, got %s", tc.wantStep, action.StepID)
			}
		})
	}
}

func TestDeclaredTransitionsBeatSafetyNets(t *testing.T) {
	// A declared attempt_count_exceeds transition fires even when the
	// interpretation would otherwise trigger a retry.
	step := models.Step{
		ID: "step_1",
		Transitions: []models.Transition{
			{
				Condition: models.TransitionCondition{Type: models.ConditionAttemptCountExceeds, Threshold: 1},
				Action:    models.TransitionAction{Type: models.ActionEndFlow, Outcome: models.OutcomeNeedsCallout},
			},
		},
		FallbackTransition: models.Transition{
			Action: models.TransitionAction{Type: models.ActionEscalate},
		},
	}

	action := determineTransition(step, models.ResponseInterpretation{NeedsClarification: true}, 2, 5)
	if action.Type != models.ActionEndFlow {
		t.Errorf("declared transition should win, got %s", action.Type)
	}
}

func TestEvaluateCondition(t *testing.T) {
	cases := []struct {
		name           string
		cond           models.TransitionCondition
		interpretation models.ResponseInterpretation
		attempt        int
		want           bool
	}{
		{"always", models.TransitionCondition{Type: models.ConditionAlways}, models.ResponseInterpretation{}, 1, true},
		{"attempt exceeds", models.TransitionCondition{Type: models.ConditionAttemptCountExceeds, Threshold: 2}, models.ResponseInterpretation{}, 3, true},
		{"attempt at threshold", models.TransitionCondition{Type: models.ConditionAttemptCountExceeds, Threshold: 2}, models.ResponseInterpretation{}, 2, false},
		{"expression confidence high", models.TransitionCondition{Type: models.ConditionExpression, Expression: "confidence > 0.8"}, models.ResponseInterpretation{Confidence: 0.85}, 1, true},
		{"expression confidence low", models.TransitionCondition{Type: models.ConditionExpression, Expression: "confidence > 0.8"}, models.ResponseInterpretation{Confidence: 0.5}, 1, false},
		{"expression unrecognized", models.TransitionCondition{Type: models.ConditionExpression, Expression: "weather == sunny"}, models.ResponseInterpretation{Confidence: 1}, 1, false},
		{"unknown condition type", models.TransitionCondition{Type: "bogus"}, models.ResponseInterpretation{Confidence: 1}, 1, false},
		{"media nil", models.TransitionCondition{Type: models.ConditionMediaReceived, MediaType: models.MediaTypePhoto}, models.ResponseInterpretation{}, 1, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := evaluateCondition(tc.cond, tc.interpretation, tc.attempt); got != tc.want {
				t.Errorf("expected %v, got %v", tc.want, got)
			}
		})
	}
}
