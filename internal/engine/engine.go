// Package engine implements the troubleshooting flow engine: the stateful
// orchestrator that owns session lifecycle, evaluates transitions against
// interpretation results, and persists state after every step.
//
// Every failure path produces a conversational EngineResult rather than an
// error; the tenant is never left without a reply.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Courtneyezra/FixPipe/internal/flows"
	"github.com/Courtneyezra/FixPipe/internal/interpret"
	"github.com/Courtneyezra/FixPipe/internal/models"
	"github.com/Courtneyezra/FixPipe/internal/util"
)

// Confidence thresholds used by transition evaluation.
const (
	// MatchConfidenceThreshold is the hard gate for response_matches
	// conditions: a nominal match below it does not count.
	MatchConfidenceThreshold = 0.7
	// ClarificationThreshold is the floor below which the engine retries
	// with a clarification prompt.
	ClarificationThreshold = 0.6
	// ExpressionConfidenceThreshold backs the restricted expression
	// condition evaluator.
	ExpressionConfidenceThreshold = 0.8
)

// Issue tracker statuses pushed by the engine. The status strings are owned
// by the external issue system.
const (
	IssueStatusAIHelping       = "ai_helping"
	IssueStatusResolvedDIY     = "resolved_diy"
	IssueStatusAwaitingDetails = "awaiting_details"
)

// SessionStore is the persistence boundary for sessions.
type SessionStore interface {
	CreateSession(s models.Session) error
	GetSession(id string) (*models.Session, error)
	UpdateSession(s models.Session) error
}

// MetricSink receives write-only deflection analytics records.
type MetricSink interface {
	AddDeflectionMetric(m models.DeflectionMetric) error
}

// IssueTracker mirrors session milestones onto the external issue record.
type IssueTracker interface {
	SetIssueStatus(ctx context.Context, issueID, status string, fields map[string]string) error
}

// Interpreter classifies a tenant message against a step's expectations.
type Interpreter interface {
	Interpret(ctx context.Context, message string, step models.Step, sessionContext map[string]string) models.ResponseInterpretation
}

// Engine drives troubleshooting sessions through their flow graphs.
type Engine struct {
	store   SessionStore
	metrics MetricSink
	issues  IssueTracker
	interp  Interpreter

	// mu guards locks. Each session has its own mutex so messages for one
	// session are strictly serialized while different sessions proceed
	// concurrently.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewEngine creates a flow engine. metrics and issues may be nil, in which
// case those notifications are skipped.
func NewEngine(store SessionStore, metrics MetricSink, issues IssueTracker, interp Interpreter) *Engine {
	slog.Debug("Engine created")
	return &Engine{
		store:   store,
		metrics: metrics,
		issues:  issues,
		interp:  interp,
		locks:   make(map[string]*sync.Mutex),
	}
}

// sessionLock returns the mutex serializing work for one session ID.
func (e *Engine) sessionLock(sessionID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[sessionID]
	if !ok {
		l = &sync.Mutex{}
		e.locks[sessionID] = l
	}
	return l
}

// releaseLock drops the per-session mutex once a session is terminal so the
// lock table does not grow without bound.
func (e *Engine) releaseLock(sessionID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.locks, sessionID)
}

// StartSession creates and persists a new session for the given flow and
// returns the opening message.
func (e *Engine) StartSession(ctx context.Context, issueID, flowID, initialMessage string) models.EngineResult {
	slog.Debug("Engine.StartSession invoked", "issueID", issueID, "flowID", flowID)

	flow, ok := flows.GetFlowByID(flowID)
	if !ok {
		slog.Error("Engine.StartSession flow not found", "flowID", flowID)
		return escalatedResult("", models.OutcomeEscalatedComplex, msgNoFlow)
	}
	firstStep, ok := flow.FirstStep()
	if !ok {
		slog.Error("Engine.StartSession flow has no steps", "flowID", flowID)
		return escalatedResult("", models.OutcomeEscalatedComplex, msgNoFlow)
	}

	now := time.Now()
	session := models.Session{
		ID:            util.GenerateSessionID(),
		IssueID:       issueID,
		FlowID:        flow.ID,
		CurrentStepID: firstStep.ID,
		StepHistory:   []models.StepHistoryEntry{},
		Status:        models.SessionStatusActive,
		AttemptCount:  0,
		MaxAttempts:   flow.MaxAttempts,
		CollectedData: map[string]string{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := e.store.CreateSession(session); err != nil {
		slog.Error("Engine.StartSession persistence failed", "error", err, "flowID", flowID)
		return escalatedResult("", models.OutcomeEscalatedComplex, msgStartFailed)
	}
	slog.Info("Engine.StartSession session created", "sessionID", session.ID, "flowID", flow.ID, "issueID", issueID)

	e.notifyIssue(ctx, issueID, IssueStatusAIHelping, map[string]string{"session_id": session.ID})

	var b strings.Builder
	if flow.EstimatedTimeMinutes > 0 {
		fmt.Fprintf(&b, "This usually takes about %d minutes to sort out. ⏱\n\n", flow.EstimatedTimeMinutes)
	}
	if flow.SafetyWarning != "" {
		b.WriteString(flow.SafetyWarning)
		b.WriteString("\n\n")
	}
	b.WriteString(firstStep.Template)

	return models.EngineResult{
		Response:      b.String(),
		SessionID:     session.ID,
		SessionStatus: models.ResultStatusActive,
		NextStepID:    firstStep.ID,
	}
}

// ProcessResponse feeds one tenant message into a session and returns the
// next outbound message. Calls for the same session are serialized.
func (e *Engine) ProcessResponse(ctx context.Context, sessionID, userMessage string, mediaURLs []string) models.EngineResult {
	lock := e.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	slog.Debug("Engine.ProcessResponse invoked", "sessionID", sessionID, "message_length", len(userMessage), "media_count", len(mediaURLs))

	session, err := e.store.GetSession(sessionID)
	if err != nil {
		slog.Error("Engine.ProcessResponse load failed", "error", err, "sessionID", sessionID)
		return escalatedResult(sessionID, models.OutcomeAbandoned, msgSessionLost)
	}
	if session == nil {
		slog.Warn("Engine.ProcessResponse session not found", "sessionID", sessionID)
		// Unknown IDs must not leave entries behind in the lock table.
		defer e.releaseLock(sessionID)
		return escalatedResult(sessionID, models.OutcomeAbandoned, msgSessionLost)
	}

	// Terminal sessions reject input without mutating anything.
	if session.Status != models.SessionStatusActive {
		slog.Debug("Engine.ProcessResponse session not active", "sessionID", sessionID, "status", session.Status)
		if session.Status == models.SessionStatusCompleted {
			return models.EngineResult{
				Response:      msgAlreadyCompleted,
				SessionID:     session.ID,
				SessionStatus: models.ResultStatusResolved,
				Outcome:       session.Outcome,
			}
		}
		return models.EngineResult{
			Response:      msgAlreadyEscalated,
			SessionID:     session.ID,
			SessionStatus: models.ResultStatusEscalated,
			Outcome:       session.Outcome,
		}
	}

	flow, ok := flows.GetFlowByID(session.FlowID)
	if !ok {
		slog.Error("Engine.ProcessResponse flow missing for active session", "sessionID", sessionID, "flowID", session.FlowID)
		return e.failSession(ctx, session, "flow definition missing")
	}
	step, ok := flow.StepByID(session.CurrentStepID)
	if !ok {
		slog.Error("Engine.ProcessResponse current step missing", "sessionID", sessionID, "stepID", session.CurrentStepID)
		return e.failSession(ctx, session, "current step missing from flow")
	}

	interpretation := e.interp.Interpret(ctx, userMessage, step, session.CollectedData)

	// Transport-layer media detection takes precedence over the
	// interpreter's own media field.
	if len(mediaURLs) > 0 {
		interpretation.Media = interpret.MediaFromURL(mediaURLs[0])
	}

	currentAttempt := session.AttemptCount + 1
	action := determineTransition(step, interpretation, currentAttempt, session.MaxAttempts)
	slog.Debug("Engine.ProcessResponse transition selected",
		"sessionID", sessionID,
		"stepID", step.ID,
		"action", action.Type,
		"matched", interpretation.MatchedResponseID,
		"confidence", interpretation.Confidence,
		"attempt", currentAttempt)

	return e.executeTransition(ctx, session, flow, step, action, userMessage, interpretation)
}

// failSession marks a session escalated after a configuration error. The
// tenant gets a hand-off message either way; persistence failures here are
// logged and absorbed.
func (e *Engine) failSession(ctx context.Context, session *models.Session, reason string) models.EngineResult {
	session.Status = models.SessionStatusEscalated
	session.Outcome = models.OutcomeEscalatedComplex
	session.UpdatedAt = time.Now()
	if err := e.store.UpdateSession(*session); err != nil {
		slog.Error("Engine.failSession persistence failed", "error", err, "sessionID", session.ID, "reason", reason)
	}
	e.notifyIssue(ctx, session.IssueID, IssueStatusAwaitingDetails, map[string]string{"reason": reason})
	e.releaseLock(session.ID)
	return models.EngineResult{
		Response:      msgHandedOff,
		SessionID:     session.ID,
		SessionStatus: models.ResultStatusEscalated,
		Outcome:       models.OutcomeEscalatedComplex,
	}
}

// notifyIssue pushes a status onto the external issue record, skipping
// silently when there is no issue reference or no tracker configured.
func (e *Engine) notifyIssue(ctx context.Context, issueID, status string, fields map[string]string) {
	if e.issues == nil || issueID == "" {
		return
	}
	if err := e.issues.SetIssueStatus(ctx, issueID, status, fields); err != nil {
		slog.Error("Engine issue notification failed", "error", err, "issueID", issueID, "status", status)
	}
}

// recordMetric emits the once-per-completed-session deflection record.
func (e *Engine) recordMetric(session *models.Session, flow models.Flow, wasDeflected bool, deflectionType string) {
	if e.metrics == nil {
		return
	}
	start := session.CreatedAt
	if len(session.StepHistory) > 0 {
		start = session.StepHistory[0].Timestamp
	}
	metric := models.DeflectionMetric{
		IssueID:            session.IssueID,
		SessionID:          session.ID,
		FlowID:             flow.ID,
		Category:           flow.Category,
		WasDeflected:       wasDeflected,
		DeflectionType:     deflectionType,
		StepsCompleted:     len(session.StepHistory),
		TotalSteps:         len(flow.Steps),
		TimeToResolutionMs: time.Since(start).Milliseconds(),
		RecordedAt:         time.Now(),
	}
	if err := e.metrics.AddDeflectionMetric(metric); err != nil {
		slog.Error("Engine deflection metric failed", "error", err, "sessionID", session.ID)
	}
}

// escalatedResult builds a terminal result for failures that happen before
// or outside a persisted session.
func escalatedResult(sessionID string, outcome models.TroubleshootingOutcome, response string) models.EngineResult {
	return models.EngineResult{
		Response:      response,
		SessionID:     sessionID,
		SessionStatus: models.ResultStatusEscalated,
		Outcome:       outcome,
	}
}
