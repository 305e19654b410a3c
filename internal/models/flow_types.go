// Package models defines the troubleshooting flow schema.
//
// A Flow is a static directed graph of Steps loaded once at startup. Steps
// reference each other by ID through transition actions, so a flow is a
// graph rather than a sequence and steps may be revisited.
package models

// IssueCategory classifies the kind of household issue a flow resolves.
type IssueCategory string

const (
	CategoryPlumbing   IssueCategory = "plumbing"
	CategoryHeating    IssueCategory = "heating"
	CategoryDrainage   IssueCategory = "drainage"
	CategoryElectrical IssueCategory = "electrical"
	CategoryGeneral    IssueCategory = "general"
)

// StepType describes how a step interacts with the tenant.
type StepType string

const (
	// StepTypeQuestion asks the tenant something and expects an answer.
	StepTypeQuestion StepType = "question"
	// StepTypeInstruction tells the tenant to do something.
	StepTypeInstruction StepType = "instruction"
	// StepTypeConfirmation asks the tenant to confirm an outcome.
	StepTypeConfirmation StepType = "confirmation"
	// StepTypeMediaRequest asks the tenant for a photo or video.
	StepTypeMediaRequest StepType = "media_request"
	// StepTypeBranch routes without presenting new content.
	StepTypeBranch StepType = "branch"
)

// ConditionType identifies the kind of transition condition.
type ConditionType string

const (
	// ConditionAlways is true unconditionally.
	ConditionAlways ConditionType = "always"
	// ConditionResponseMatches is true when the interpreter matched a given
	// expected response with sufficient confidence.
	ConditionResponseMatches ConditionType = "response_matches"
	// ConditionAttemptCountExceeds is true when the current attempt number
	// exceeds a threshold.
	ConditionAttemptCountExceeds ConditionType = "attempt_count_exceeds"
	// ConditionMediaReceived is true when media of a given type arrived.
	ConditionMediaReceived ConditionType = "media_received"
	// ConditionExpression evaluates a restricted expression. Only a
	// confidence check is recognized; anything else is inert.
	ConditionExpression ConditionType = "expression"
)

// ActionType identifies the kind of transition action.
type ActionType string

const (
	// ActionGotoStep advances the session to another step.
	ActionGotoStep ActionType = "goto_step"
	// ActionResolve completes the session as resolved by the tenant.
	ActionResolve ActionType = "resolve"
	// ActionEscalate hands the session to a human with a reason.
	ActionEscalate ActionType = "escalate"
	// ActionRetryStep re-asks the current step.
	ActionRetryStep ActionType = "retry_step"
	// ActionEndFlow terminates the session with an explicit outcome.
	ActionEndFlow ActionType = "end_flow"
)

// TroubleshootingOutcome is the terminal classification of a session.
type TroubleshootingOutcome string

const (
	OutcomeResolvedDIY      TroubleshootingOutcome = "resolved_diy"
	OutcomeNeedsCallout     TroubleshootingOutcome = "needs_callout"
	OutcomeEscalatedComplex TroubleshootingOutcome = "escalated_complex"
	OutcomeEscalatedSafety  TroubleshootingOutcome = "escalated_safety"
	OutcomeAbandoned        TroubleshootingOutcome = "abandoned"
)

// MediaType classifies a media attachment.
type MediaType string

const (
	MediaTypePhoto MediaType = "photo"
	MediaTypeVideo MediaType = "video"
)

// TransitionCondition is a tagged union over ConditionType. Only the fields
// relevant to the declared type are read.
type TransitionCondition struct {
	Type       ConditionType `json:"type"`
	ResponseID string        `json:"response_id,omitempty"` // response_matches
	Threshold  int           `json:"threshold,omitempty"`   // attempt_count_exceeds
	MediaType  MediaType     `json:"media_type,omitempty"`  // media_received
	Expression string        `json:"expression,omitempty"`  // expression
}

// TransitionAction is a tagged union over ActionType. Only the fields
// relevant to the declared type are read.
type TransitionAction struct {
	Type        ActionType             `json:"type"`
	StepID      string                 `json:"step_id,omitempty"`      // goto_step
	Resolution  string                 `json:"resolution,omitempty"`   // resolve
	Reason      string                 `json:"reason,omitempty"`       // escalate
	CollectData []string               `json:"collect_data,omitempty"` // escalate
	Message     string                 `json:"message,omitempty"`      // retry_step
	Outcome     TroubleshootingOutcome `json:"outcome,omitempty"`      // end_flow
}

// Transition pairs a condition with the action fired when it holds.
type Transition struct {
	Condition TransitionCondition `json:"condition"`
	Action    TransitionAction    `json:"action"`
}

// ExpectedResponse is one recognized answer shape for a step.
type ExpectedResponse struct {
	ID string `json:"id"`
	// Patterns are tried as case-insensitive regular expressions; a pattern
	// that fails to compile degrades to substring containment.
	Patterns []string `json:"patterns"`
	// SemanticMatch is a natural-language description fed to the classifier
	// when no pattern matches.
	SemanticMatch string `json:"semantic_match"`
	// Examples are sample phrasings given to the classifier as few-shot context.
	Examples []string `json:"examples,omitempty"`
}

// Step is one node in a flow graph.
type Step struct {
	ID                string             `json:"id"`
	Type              StepType           `json:"type"`
	Template          string             `json:"template"`
	ExpectedResponses []ExpectedResponse `json:"expected_responses,omitempty"`
	// Transitions are evaluated in declared order; the first condition that
	// holds fires its action.
	Transitions []Transition `json:"transitions,omitempty"`
	// FallbackTransition applies when no declared transition fires and the
	// engine's own safety nets do not intervene. Its condition is ignored.
	FallbackTransition Transition `json:"fallback_transition"`
}

// Flow is an immutable issue-resolution procedure loaded at startup.
type Flow struct {
	ID                   string        `json:"id"`
	Name                 string        `json:"name"`
	Description          string        `json:"description"`
	Category             IssueCategory `json:"category"`
	TriggerKeywords      []string      `json:"trigger_keywords"`
	SafeForDIY           bool          `json:"safe_for_diy"`
	SafetyWarning        string        `json:"safety_warning,omitempty"`
	MaxAttempts          int           `json:"max_attempts"`
	EstimatedTimeMinutes int           `json:"estimated_time_minutes"`
	Steps                []Step        `json:"steps"`
	EscalationDataNeeded []string      `json:"escalation_data_needed,omitempty"`
}

// StepByID looks up a step within the flow graph.
func (f *Flow) StepByID(id string) (Step, bool) {
	for _, s := range f.Steps {
		if s.ID == id {
			return s, true
		}
	}
	return Step{}, false
}

// FirstStep returns the flow's entry step.
func (f *Flow) FirstStep() (Step, bool) {
	if len(f.Steps) == 0 {
		return Step{}, false
	}
	return f.Steps[0], true
}
