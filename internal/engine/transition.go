package engine

import (
	"log/slog"
	"strings"

	"github.com/Courtneyezra/FixPipe/internal/models"
)

// determineTransition selects the action for one interpreted tenant reply.
//
// Priority order, first applicable wins:
//  1. the step's declared transitions, in declared order
//  2. the step's fallback when the attempt budget is exhausted
//  3. an engine-synthesized escalation when the tenant sounds frustrated on
//     a repeat attempt
//  4. an engine-synthesized retry when the reply needs clarification or the
//     confidence is low
//  5. the step's fallback
//
// Author-declared transitions therefore always take precedence; the
// engine's generic safety nets only apply when none of them matched.
func determineTransition(step models.Step, interpretation models.ResponseInterpretation, currentAttempt, maxAttempts int) models.TransitionAction {
	for _, t := range step.Transitions {
		if evaluateCondition(t.Condition, interpretation, currentAttempt) {
			return t.Action
		}
	}

	if currentAttempt >= maxAttempts {
		slog.Debug("determineTransition attempt budget exhausted", "stepID", step.ID, "attempt", currentAttempt, "maxAttempts", maxAttempts)
		return step.FallbackTransition.Action
	}

	if interpretation.Sentiment == models.SentimentFrustrated && currentAttempt > 1 {
		slog.Info("determineTransition frustration override", "stepID", step.ID, "attempt", currentAttempt)
		return models.TransitionAction{
			Type:   models.ActionEscalate,
			Reason: "user appears frustrated",
		}
	}

	if interpretation.NeedsClarification || interpretation.Confidence < ClarificationThreshold {
		return models.TransitionAction{Type: models.ActionRetryStep}
	}

	return step.FallbackTransition.Action
}

// evaluateCondition evaluates one transition condition against an
// interpretation. Unknown condition types are inert.
func evaluateCondition(cond models.TransitionCondition, interpretation models.ResponseInterpretation, currentAttempt int) bool {
	switch cond.Type {
	case models.ConditionAlways:
		return true
	case models.ConditionResponseMatches:
		// The confidence threshold is a hard gate: a nominal match at low
		// confidence does not count.
		return interpretation.MatchedResponseID == cond.ResponseID &&
			interpretation.Confidence >= MatchConfidenceThreshold
	case models.ConditionAttemptCountExceeds:
		return currentAttempt > cond.Threshold
	case models.ConditionMediaReceived:
		return interpretation.Media != nil && interpretation.Media.Type == cond.MediaType
	case models.ConditionExpression:
		return evaluateExpression(cond.Expression, interpretation)
	default:
		return false
	}
}

// evaluateExpression is a minimal safe evaluator, not an expression
// language. It only recognizes a confidence check; anything else is inert.
// Broader needs should go through a real sandboxed evaluator, not here.
func evaluateExpression(expr string, interpretation models.ResponseInterpretation) bool {
	if strings.Contains(expr, "confidence") {
		return interpretation.Confidence >= ExpressionConfidenceThreshold
	}
	return false
}
