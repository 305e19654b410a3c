package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/Courtneyezra/FixPipe/internal/flows"
	"github.com/Courtneyezra/FixPipe/internal/models"
	"github.com/Courtneyezra/FixPipe/internal/util"
)

// FlowEngine is the subset of the flow engine the triage router drives.
type FlowEngine interface {
	StartSession(ctx context.Context, issueID, flowID, initialMessage string) models.EngineResult
	ProcessResponse(ctx context.Context, sessionID, userMessage string, mediaURLs []string) models.EngineResult
}

// defaultTriageMessage is sent when no troubleshooting flow matches an
// inbound message and no session is active for the sender.
const defaultTriageMessage = "Thanks for your message. We couldn't match it to a guided fix, so a member of our repairs team will be in touch shortly."

// Triage routes inbound chat messages to troubleshooting sessions. It keeps
// a map of canonical sender number to active session ID: senders with an
// active session feed that session, everyone else goes through flow
// selection on their message text.
type Triage struct {
	// sessions maps canonicalized phone numbers to active session IDs
	sessions map[string]string
	// mu protects concurrent access to the sessions map
	mu         sync.RWMutex
	msgService Service
	engine     FlowEngine
}

// NewTriage creates a triage router over the given messaging service and
// flow engine.
func NewTriage(msgService Service, engine FlowEngine) *Triage {
	return &Triage{
		sessions:   make(map[string]string),
		msgService: msgService,
		engine:     engine,
	}
}

// RegisterSession binds a sender to an active session, so that their next
// messages feed that session. Used when a session is started out of band
// (e.g., via the HTTP API).
func (t *Triage) RegisterSession(recipient, sessionID string) error {
	canonical, err := t.msgService.ValidateAndCanonicalizeRecipient(recipient)
	if err != nil {
		slog.Error("Triage RegisterSession validation failed", "error", err, "recipient", recipient)
		return fmt.Errorf("invalid recipient: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessions[canonical] = sessionID

	slog.Debug("Triage session registered", "recipient", canonical, "sessionID", sessionID)
	return nil
}

// ActiveSessionID returns the session bound to a sender, if any.
func (t *Triage) ActiveSessionID(recipient string) (string, bool) {
	canonical, err := t.msgService.ValidateAndCanonicalizeRecipient(recipient)
	if err != nil {
		return "", false
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	id, ok := t.sessions[canonical]
	return id, ok
}

// ActiveSessionCount returns the number of senders with a bound session.
func (t *Triage) ActiveSessionCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.sessions)
}

// ProcessResponse routes one inbound message: to the sender's active
// session if one exists, otherwise through flow selection to start a new
// session. The engine's reply is sent back over the messaging service.
func (t *Triage) ProcessResponse(ctx context.Context, response models.Response) error {
	canonicalFrom, err := t.msgService.ValidateAndCanonicalizeRecipient(response.From)
	if err != nil {
		slog.Error("Triage ProcessResponse validation failed", "error", err, "from", response.From)
		return fmt.Errorf("invalid sender: %w", err)
	}

	slog.Debug("Triage processing response", "from", canonicalFrom, "body_length", len(response.Body))

	t.mu.RLock()
	sessionID, hasSession := t.sessions[canonicalFrom]
	t.mu.RUnlock()

	var result models.EngineResult
	if hasSession {
		result = t.engine.ProcessResponse(ctx, sessionID, response.Body, response.MediaURLs)
	} else {
		flowID := flows.SelectFlowForIssue(inferCategory(response.Body), response.Body)
		if flowID == "" {
			slog.Info("Triage no matching flow, sending fallback", "from", canonicalFrom)
			if err := t.msgService.SendMessage(ctx, canonicalFrom, defaultTriageMessage); err != nil {
				slog.Error("Triage failed to send fallback message", "error", err, "from", canonicalFrom)
				return fmt.Errorf("failed to send fallback message: %w", err)
			}
			return nil
		}
		result = t.engine.StartSession(ctx, util.GenerateIssueID(), flowID, response.Body)
		if result.SessionID != "" {
			t.mu.Lock()
			t.sessions[canonicalFrom] = result.SessionID
			t.mu.Unlock()
			slog.Info("Triage started session", "from", canonicalFrom, "flowID", flowID, "sessionID", result.SessionID)
		}
	}

	if result.SessionStatus != models.ResultStatusActive {
		t.mu.Lock()
		delete(t.sessions, canonicalFrom)
		t.mu.Unlock()
		slog.Debug("Triage session unbound", "from", canonicalFrom, "status", result.SessionStatus)
	}

	if result.Response == "" {
		return nil
	}
	if err := t.msgService.SendMessage(ctx, canonicalFrom, result.Response); err != nil {
		slog.Error("Triage failed to send engine reply", "error", err, "from", canonicalFrom)
		return fmt.Errorf("failed to send reply: %w", err)
	}

	slog.Info("Triage reply sent", "from", canonicalFrom, "status", result.SessionStatus)
	return nil
}

// Start begins processing responses from the messaging service.
// This should be called once to start the response processing loop.
func (t *Triage) Start(ctx context.Context) {
	slog.Info("Triage starting response processing")

	go func() {
		defer slog.Info("Triage stopped response processing")

		for {
			select {
			case response, ok := <-t.msgService.Responses():
				if !ok {
					slog.Debug("Triage responses channel closed")
					return
				}

				if err := t.ProcessResponse(ctx, response); err != nil {
					slog.Error("Triage failed to process response", "error", err, "from", response.From)
				}

			case <-ctx.Done():
				slog.Debug("Triage stopping due to context cancellation")
				return
			}
		}
	}()
}

// categoryKeywords maps issue categories to the words that suggest them in a
// free-text report. Checked in declaration order.
var categoryKeywords = []struct {
	category models.IssueCategory
	words    []string
}{
	{models.CategoryHeating, []string{"boiler", "heating", "radiator", "hot water", "thermostat"}},
	{models.CategoryDrainage, []string{"drain", "blocked", "sink", "toilet", "gully"}},
	{models.CategoryPlumbing, []string{"tap", "leak", "drip", "pipe", "washer"}},
	{models.CategoryElectrical, []string{"socket", "light", "fuse", "power", "electric"}},
}

// inferCategory guesses an issue category from free-text, defaulting to
// general when nothing matches.
func inferCategory(description string) models.IssueCategory {
	lowered := strings.ToLower(description)
	for _, ck := range categoryKeywords {
		for _, w := range ck.words {
			if strings.Contains(lowered, w) {
				return ck.category
			}
		}
	}
	return models.CategoryGeneral
}
