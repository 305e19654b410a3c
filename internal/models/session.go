// Package models defines session state structures for FixPipe flows.
package models

import "time"

// SessionStatus represents the lifecycle state of a troubleshooting session.
type SessionStatus string

const (
	// SessionStatusActive accepts new tenant input.
	SessionStatusActive SessionStatus = "active"
	// SessionStatusPaused is reserved for the external timeout collaborator.
	SessionStatusPaused SessionStatus = "paused"
	// SessionStatusCompleted is terminal: the flow ended in a resolution.
	SessionStatusCompleted SessionStatus = "completed"
	// SessionStatusEscalated is terminal: the session was handed to a human.
	SessionStatusEscalated SessionStatus = "escalated"
	// SessionStatusAbandoned is terminal: the tenant went silent.
	SessionStatusAbandoned SessionStatus = "abandoned"
)

// IsTerminal reports whether the status accepts no further input.
func (s SessionStatus) IsTerminal() bool {
	switch s {
	case SessionStatusCompleted, SessionStatusEscalated, SessionStatusAbandoned:
		return true
	default:
		return false
	}
}

// StepHistoryEntry is one record in a session's append-only audit trail.
type StepHistoryEntry struct {
	StepID        string    `json:"step_id"`
	Timestamp     time.Time `json:"timestamp"`
	UserResponse  string    `json:"user_response"`
	InterpretedAs string    `json:"interpreted_as,omitempty"`
	ActionTaken   string    `json:"action_taken"`
}

// Session is one stateful, persisted execution of a Flow for one Issue.
// Sessions are never deleted; terminal sessions are retained for analytics.
type Session struct {
	ID            string             `json:"id"`
	IssueID       string             `json:"issue_id,omitempty"` // external reference, may be empty
	FlowID        string             `json:"flow_id"`
	CurrentStepID string             `json:"current_step_id,omitempty"`
	StepHistory   []StepHistoryEntry `json:"step_history"`
	Status        SessionStatus      `json:"status"`
	// AttemptCount is the retries consumed on the current step. It resets to
	// zero on every step advance so it is never compared against MaxAttempts
	// for a stale step.
	AttemptCount int `json:"attempt_count"`
	// MaxAttempts is copied from the Flow at session creation, allowing a
	// per-session override of the flow default.
	MaxAttempts int `json:"max_attempts"`
	// CollectedData accumulates extracted key/value pairs across the whole
	// session. Keys are merged, never removed.
	CollectedData map[string]string      `json:"collected_data,omitempty"`
	Outcome       TroubleshootingOutcome `json:"outcome,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

// Sentiment labels the emotional tone of a tenant message.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
	// SentimentFrustrated triggers the engine's escalation override on
	// repeat attempts.
	SentimentFrustrated Sentiment = "frustrated"
)

// IsValidSentiment checks if the given sentiment label is supported.
func IsValidSentiment(s Sentiment) bool {
	switch s {
	case SentimentPositive, SentimentNeutral, SentimentNegative, SentimentFrustrated:
		return true
	default:
		return false
	}
}

// MediaInfo describes a media attachment received with a message.
type MediaInfo struct {
	Type MediaType `json:"type"`
	URL  string    `json:"url"`
}

// Attachment is a raw inbound attachment before media classification.
type Attachment struct {
	ContentType string `json:"content_type"`
	URL         string `json:"url"`
}

// ResponseInterpretation is the structured result of classifying one tenant
// message against one step's expected responses. It is ephemeral; only its
// fields feed into session updates.
type ResponseInterpretation struct {
	// MatchedResponseID is empty when no confident match was found.
	MatchedResponseID string `json:"matched_response_id,omitempty"`
	// Confidence is in [0,1].
	Confidence float64 `json:"confidence"`
	// ExtractedData is merged into the session's CollectedData.
	ExtractedData      map[string]string `json:"extracted_data,omitempty"`
	Media              *MediaInfo        `json:"media,omitempty"`
	Sentiment          Sentiment         `json:"sentiment"`
	NeedsClarification bool              `json:"needs_clarification"`
	// Reasoning is the classifier's free-text rationale. Logged, never shown
	// to the tenant.
	Reasoning string `json:"reasoning,omitempty"`
}

// ResultStatus is the caller-facing summary of a session after an engine call.
type ResultStatus string

const (
	ResultStatusActive    ResultStatus = "active"
	ResultStatusResolved  ResultStatus = "resolved"
	ResultStatusEscalated ResultStatus = "escalated"
)

// EngineResult is what the flow engine returns to the chat transport for a
// single start or process call. Response is renderable plain text.
type EngineResult struct {
	Response      string                 `json:"response"`
	SessionID     string                 `json:"session_id,omitempty"`
	SessionStatus ResultStatus           `json:"session_status"`
	NextStepID    string                 `json:"next_step_id,omitempty"`
	Outcome       TroubleshootingOutcome `json:"outcome,omitempty"`
	DataToCollect []string               `json:"data_to_collect,omitempty"`
}

// DeflectionMetric is a write-only analytics record created once per
// completed session.
type DeflectionMetric struct {
	IssueID            string        `json:"issue_id,omitempty"`
	SessionID          string        `json:"session_id"`
	FlowID             string        `json:"flow_id"`
	Category           IssueCategory `json:"category"`
	WasDeflected       bool          `json:"was_deflected"`
	DeflectionType     string        `json:"deflection_type,omitempty"`
	StepsCompleted     int           `json:"steps_completed"`
	TotalSteps         int           `json:"total_steps"`
	TimeToResolutionMs int64         `json:"time_to_resolution_ms"`
	RecordedAt         time.Time     `json:"recorded_at"`
}

// DeflectionStats is an aggregate over recorded deflection metrics.
type DeflectionStats struct {
	TotalSessions     int     `json:"total_sessions"`
	DeflectedSessions int     `json:"deflected_sessions"`
	DeflectionRate    float64 `json:"deflection_rate"`
}
