package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Courtneyezra/FixPipe/internal/models"
)

// Conversational messages for engine-level outcomes. All failure behavior
// is uniformly conversational; the tenant never sees an error code.
const (
	msgNoFlow           = "Sorry — I don't have a walkthrough for that issue yet. I'm passing this to our team and someone will be in touch shortly."
	msgStartFailed      = "Sorry, something went wrong on our side starting the walkthrough. I've flagged it to our team — someone will pick this up shortly."
	msgSessionLost      = "Sorry, I've lost track of where we were. Could you describe the problem again and we'll start fresh?"
	msgAlreadyCompleted = "This issue is already marked as resolved. If something's still wrong, just describe the problem and we'll start a fresh walkthrough."
	msgAlreadyEscalated = "This one is with our team now — someone will be in touch shortly. If it's urgent, give us a call."
	msgHandedOff        = "Sorry, I've run into a problem on my end. I'm handing this to our team and someone will be in touch shortly."
	msgDidNotUnderstand = "Sorry, I didn't quite catch that. Let me ask again:"
	msgSaveFailed       = "Sorry, I had trouble saving that — could you send your last message again?"
	msgClosingLine      = "If anything else comes up, just message us here. 👋"
)

// outcomeMessages maps each terminal outcome onto one canned sentence.
var outcomeMessages = map[models.TroubleshootingOutcome]string{
	models.OutcomeResolvedDIY:      "Glad we could get that sorted together! 🎉 " + msgClosingLine,
	models.OutcomeNeedsCallout:     "This one needs a professional. I'll arrange for one of our tradespeople to come out — we'll be in touch shortly to book a time.",
	models.OutcomeEscalatedComplex: "This looks like one for our specialists. I've passed the details along and someone will be in touch soon.",
	models.OutcomeEscalatedSafety:  "For safety reasons please stop there. I'm alerting our team now and someone will contact you urgently.",
	models.OutcomeAbandoned:        "No problem — we'll leave it here for now. Message us any time to pick this back up.",
}

// executeTransition applies one transition action to a session: it appends
// the audit entry, merges extracted data, persists the mutation, and
// composes the outward response. The persisted state and the response must
// always agree; no branch returns a response describing a transition that
// was not durably recorded.
func (e *Engine) executeTransition(ctx context.Context, session *models.Session, flow models.Flow, step models.Step, action models.TransitionAction, userMessage string, interpretation models.ResponseInterpretation) models.EngineResult {
	switch action.Type {
	case models.ActionGotoStep:
		return e.executeGoto(ctx, session, flow, step, action, userMessage, interpretation)
	case models.ActionResolve:
		return e.executeResolve(ctx, session, flow, step, action, userMessage, interpretation)
	case models.ActionEscalate:
		return e.executeEscalate(ctx, session, flow, step, action, userMessage, interpretation)
	case models.ActionRetryStep:
		return e.executeRetry(ctx, session, step, action, userMessage, interpretation)
	case models.ActionEndFlow:
		return e.executeEndFlow(ctx, session, flow, step, action, userMessage, interpretation)
	default:
		// An unknown action type is an authoring bug; it must never
		// silently no-op.
		slog.Error("executeTransition unknown action type", "sessionID", session.ID, "action", action.Type)
		synthesized := models.TransitionAction{Type: models.ActionEscalate, Reason: "unknown action type"}
		return e.executeEscalate(ctx, session, flow, step, synthesized, userMessage, interpretation)
	}
}

// recordStep appends the audit entry and merges extracted data into the
// session's accumulated context.
func recordStep(session *models.Session, step models.Step, action models.TransitionAction, userMessage string, interpretation models.ResponseInterpretation) {
	session.StepHistory = append(session.StepHistory, models.StepHistoryEntry{
		StepID:        step.ID,
		Timestamp:     time.Now(),
		UserResponse:  userMessage,
		InterpretedAs: interpretation.MatchedResponseID,
		ActionTaken:   string(action.Type),
	})
	if session.CollectedData == nil {
		session.CollectedData = map[string]string{}
	}
	for k, v := range interpretation.ExtractedData {
		session.CollectedData[k] = v
	}
	session.UpdatedAt = time.Now()
}

func (e *Engine) executeGoto(ctx context.Context, session *models.Session, flow models.Flow, step models.Step, action models.TransitionAction, userMessage string, interpretation models.ResponseInterpretation) models.EngineResult {
	target, ok := flow.StepByID(action.StepID)
	if !ok {
		// Authoring bug in the flow data; must never crash.
		slog.Error("executeGoto target step not found", "sessionID", session.ID, "flowID", flow.ID, "stepID", action.StepID)
		synthesized := models.TransitionAction{Type: models.ActionEscalate, Reason: "step not found"}
		return e.executeEscalate(ctx, session, flow, step, synthesized, userMessage, interpretation)
	}

	recordStep(session, step, action, userMessage, interpretation)
	session.CurrentStepID = target.ID
	session.AttemptCount = 0

	if err := e.store.UpdateSession(*session); err != nil {
		// The advance did not durably happen, so the reply must not claim
		// it did; ask the tenant to resend instead.
		slog.Error("executeGoto persistence failed", "error", err, "sessionID", session.ID, "targetStep", target.ID)
		return models.EngineResult{
			Response:      msgSaveFailed,
			SessionID:     session.ID,
			SessionStatus: models.ResultStatusActive,
			NextStepID:    step.ID,
		}
	}

	slog.Info("Session advanced", "sessionID", session.ID, "from", step.ID, "to", target.ID)
	return models.EngineResult{
		Response:      target.Template,
		SessionID:     session.ID,
		SessionStatus: models.ResultStatusActive,
		NextStepID:    target.ID,
	}
}

func (e *Engine) executeResolve(ctx context.Context, session *models.Session, flow models.Flow, step models.Step, action models.TransitionAction, userMessage string, interpretation models.ResponseInterpretation) models.EngineResult {
	recordStep(session, step, action, userMessage, interpretation)
	session.Status = models.SessionStatusCompleted
	session.Outcome = models.OutcomeResolvedDIY

	if err := e.store.UpdateSession(*session); err != nil {
		slog.Error("executeResolve persistence failed", "error", err, "sessionID", session.ID)
	}
	e.recordMetric(session, flow, true, "diy_resolved")
	e.notifyIssue(ctx, session.IssueID, IssueStatusResolvedDIY, map[string]string{"session_id": session.ID})
	e.releaseLock(session.ID)

	slog.Info("Session resolved", "sessionID", session.ID, "flowID", flow.ID)
	return models.EngineResult{
		Response:      action.Resolution + "\n\n" + msgClosingLine,
		SessionID:     session.ID,
		SessionStatus: models.ResultStatusResolved,
		Outcome:       models.OutcomeResolvedDIY,
	}
}

func (e *Engine) executeEscalate(ctx context.Context, session *models.Session, flow models.Flow, step models.Step, action models.TransitionAction, userMessage string, interpretation models.ResponseInterpretation) models.EngineResult {
	recordStep(session, step, action, userMessage, interpretation)
	session.Status = models.SessionStatusEscalated
	session.Outcome = models.OutcomeEscalatedComplex

	if err := e.store.UpdateSession(*session); err != nil {
		slog.Error("executeEscalate persistence failed", "error", err, "sessionID", session.ID)
	}
	e.recordMetric(session, flow, false, "")
	e.notifyIssue(ctx, session.IssueID, IssueStatusAwaitingDetails, map[string]string{
		"session_id": session.ID,
		"reason":     action.Reason,
	})
	e.releaseLock(session.ID)

	slog.Info("Session escalated", "sessionID", session.ID, "reason", action.Reason, "dataNeeded", len(action.CollectData))
	return models.EngineResult{
		Response:      composeEscalationMessage(action.CollectData),
		SessionID:     session.ID,
		SessionStatus: models.ResultStatusEscalated,
		Outcome:       models.OutcomeEscalatedComplex,
		DataToCollect: action.CollectData,
	}
}

func (e *Engine) executeRetry(ctx context.Context, session *models.Session, step models.Step, action models.TransitionAction, userMessage string, interpretation models.ResponseInterpretation) models.EngineResult {
	recordStep(session, step, action, userMessage, interpretation)
	// Same step, so the attempt counter is NOT reset.
	session.AttemptCount++

	if err := e.store.UpdateSession(*session); err != nil {
		slog.Error("executeRetry persistence failed", "error", err, "sessionID", session.ID)
	}

	response := action.Message
	if response == "" {
		response = msgDidNotUnderstand + "\n\n" + step.Template
	}
	slog.Debug("Session retrying step", "sessionID", session.ID, "stepID", step.ID, "attemptCount", session.AttemptCount)
	return models.EngineResult{
		Response:      response,
		SessionID:     session.ID,
		SessionStatus: models.ResultStatusActive,
		NextStepID:    step.ID,
	}
}

func (e *Engine) executeEndFlow(ctx context.Context, session *models.Session, flow models.Flow, step models.Step, action models.TransitionAction, userMessage string, interpretation models.ResponseInterpretation) models.EngineResult {
	outcome := action.Outcome
	if outcome == "" {
		outcome = models.OutcomeNeedsCallout
	}
	resolvedDIY := outcome == models.OutcomeResolvedDIY

	recordStep(session, step, action, userMessage, interpretation)
	session.Outcome = outcome
	if resolvedDIY {
		session.Status = models.SessionStatusCompleted
	} else {
		session.Status = models.SessionStatusEscalated
	}

	if err := e.store.UpdateSession(*session); err != nil {
		slog.Error("executeEndFlow persistence failed", "error", err, "sessionID", session.ID)
	}
	e.recordMetric(session, flow, resolvedDIY, deflectionTypeFor(outcome))
	if resolvedDIY {
		e.notifyIssue(ctx, session.IssueID, IssueStatusResolvedDIY, map[string]string{"session_id": session.ID})
	} else {
		e.notifyIssue(ctx, session.IssueID, string(outcome), map[string]string{"session_id": session.ID})
	}
	e.releaseLock(session.ID)

	message, ok := outcomeMessages[outcome]
	if !ok {
		message = outcomeMessages[models.OutcomeEscalatedComplex]
	}
	status := models.ResultStatusEscalated
	if resolvedDIY {
		status = models.ResultStatusResolved
	}

	slog.Info("Session ended", "sessionID", session.ID, "outcome", outcome)
	return models.EngineResult{
		Response:      message,
		SessionID:     session.ID,
		SessionStatus: status,
		Outcome:       outcome,
	}
}

// composeEscalationMessage lists the requested data points as a numbered
// request, or a generic hand-off line when there are none.
func composeEscalationMessage(collectData []string) string {
	if len(collectData) == 0 {
		return "Thanks for bearing with me — I'm connecting you with our team now. Someone will be in touch shortly."
	}
	var b strings.Builder
	b.WriteString("I'm going to get one of our team to take a look at this. To speed things up, could you reply with:\n")
	for i, item := range collectData {
		fmt.Fprintf(&b, "%d. %s\n", i+1, item)
	}
	return strings.TrimRight(b.String(), "\n")
}

func deflectionTypeFor(outcome models.TroubleshootingOutcome) string {
	if outcome == models.OutcomeResolvedDIY {
		return "diy_resolved"
	}
	return ""
}
