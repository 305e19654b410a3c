package models

import (
	"errors"
	"strings"
	"testing"
)

func TestStartSessionRequestValidate(t *testing.T) {
	cases := []struct {
		name    string
		req     StartSessionRequest
		wantErr error
	}{
		{"valid", StartSessionRequest{FlowID: "boiler_no_heat"}, nil},
		{"valid with message", StartSessionRequest{FlowID: "boiler_no_heat", InitialMessage: "no heat"}, nil},
		{"empty flow ID", StartSessionRequest{}, ErrEmptyFlowID},
		{"whitespace flow ID", StartSessionRequest{FlowID: "   "}, ErrEmptyFlowID},
		{"oversized message", StartSessionRequest{FlowID: "f", InitialMessage: strings.Repeat("x", MaxMessageLength+1)}, ErrMessageTooLong},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.req.Validate(); !errors.Is(err, tc.wantErr) {
				t.Errorf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestProcessMessageRequestValidate(t *testing.T) {
	cases := []struct {
		name    string
		req     ProcessMessageRequest
		wantErr error
	}{
		{"valid", ProcessMessageRequest{Message: "yes"}, nil},
		{"media only", ProcessMessageRequest{MediaURLs: []string{"http://m/1.jpg"}}, nil},
		{"empty", ProcessMessageRequest{}, ErrEmptyMessage},
		{"whitespace only", ProcessMessageRequest{Message: "   "}, ErrEmptyMessage},
		{"oversized", ProcessMessageRequest{Message: strings.Repeat("x", MaxMessageLength+1)}, ErrMessageTooLong},
		{"too many attachments", ProcessMessageRequest{Message: "look", MediaURLs: make([]string, MaxMediaURLCount+1)}, ErrTooManyMediaURLs},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.req.Validate(); !errors.Is(err, tc.wantErr) {
				t.Errorf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestSessionStatusIsTerminal(t *testing.T) {
	terminal := []SessionStatus{SessionStatusCompleted, SessionStatusEscalated, SessionStatusAbandoned}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []SessionStatus{SessionStatusActive, SessionStatusPaused} {
		if s.IsTerminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestIsValidSentiment(t *testing.T) {
	for _, s := range []Sentiment{SentimentPositive, SentimentNeutral, SentimentNegative, SentimentFrustrated} {
		if !IsValidSentiment(s) {
			t.Errorf("%s should be valid", s)
		}
	}
	if IsValidSentiment("ecstatic") {
		t.Error("unknown sentiment should be invalid")
	}
}

func TestFlowStepLookup(t *testing.T) {
	flow := Flow{
		ID:    "f",
		Steps: []Step{{ID: "a"}, {ID: "b"}},
	}

	if step, ok := flow.StepByID("b"); !ok || step.ID != "b" {
		t.Errorf("StepByID failed: %v %v", step, ok)
	}
	if _, ok := flow.StepByID("missing"); ok {
		t.Error("unknown step should not resolve")
	}

	if first, ok := flow.FirstStep(); !ok || first.ID != "a" {
		t.Errorf("FirstStep failed: %v %v", first, ok)
	}
	empty := Flow{ID: "empty"}
	if _, ok := empty.FirstStep(); ok {
		t.Error("empty flow should have no first step")
	}
}

func TestAPIResponseEnvelopes(t *testing.T) {
	ok := Success(map[string]int{"n": 1})
	if ok.Status != string(APIStatusOK) || ok.Result == nil || ok.Message != "" {
		t.Errorf("unexpected success envelope: %+v", ok)
	}

	withMsg := SuccessWithMessage("created", nil)
	if withMsg.Status != string(APIStatusOK) || withMsg.Message != "created" {
		t.Errorf("unexpected envelope: %+v", withMsg)
	}

	fail := Error("boom")
	if fail.Status != string(APIStatusError) || fail.Message != "boom" || fail.Result != nil {
		t.Errorf("unexpected error envelope: %+v", fail)
	}
}
