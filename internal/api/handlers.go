// Package api provides HTTP handlers for FixPipe endpoints.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Courtneyezra/FixPipe/internal/flows"
	"github.com/Courtneyezra/FixPipe/internal/models"
	"github.com/Courtneyezra/FixPipe/internal/util"
)

// flowSummary is the catalog listing projection of a Flow.
type flowSummary struct {
	ID                   string               `json:"id"`
	Name                 string               `json:"name"`
	Description          string               `json:"description"`
	Category             models.IssueCategory `json:"category"`
	SafeForDIY           bool                 `json:"safe_for_diy"`
	EstimatedTimeMinutes int                  `json:"estimated_time_minutes"`
	StepCount            int                  `json:"step_count"`
}

// sessionsHandler routes /sessions and /sessions/{id}[/messages|/history].
func (s *Server) sessionsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("sessionsHandler invoked", "method", r.Method, "path", r.URL.Path)

	path := strings.TrimPrefix(r.URL.Path, "/sessions")
	path = strings.TrimPrefix(path, "/")
	segments := strings.Split(path, "/")

	if len(segments) == 0 || segments[0] == "" {
		// /sessions
		switch r.Method {
		case http.MethodPost:
			s.startSessionHandler(w, r)
		case http.MethodGet:
			s.listSessionsHandler(w, r)
		default:
			w.Header().Set("Allow", "GET, POST")
			writeJSONResponse(w, http.StatusMethodNotAllowed, models.Error("Method not allowed"))
		}
		return
	}

	sessionID := segments[0]

	if len(segments) == 1 {
		// /sessions/{id}
		switch r.Method {
		case http.MethodGet:
			s.getSessionHandler(w, r, sessionID)
		default:
			w.Header().Set("Allow", http.MethodGet)
			writeJSONResponse(w, http.StatusMethodNotAllowed, models.Error("Method not allowed"))
		}
		return
	}

	if len(segments) == 2 {
		switch segments[1] {
		case "messages":
			// /sessions/{id}/messages
			if r.Method != http.MethodPost {
				w.Header().Set("Allow", http.MethodPost)
				writeJSONResponse(w, http.StatusMethodNotAllowed, models.Error("Method not allowed"))
				return
			}
			s.processMessageHandler(w, r, sessionID)
			return
		case "history":
			// /sessions/{id}/history
			if r.Method != http.MethodGet {
				w.Header().Set("Allow", http.MethodGet)
				writeJSONResponse(w, http.StatusMethodNotAllowed, models.Error("Method not allowed"))
				return
			}
			s.sessionHistoryHandler(w, r, sessionID)
			return
		}
	}

	writeJSONResponse(w, http.StatusNotFound, models.Error("Unknown session endpoint"))
}

// startSessionHandler handles POST /sessions.
func (s *Server) startSessionHandler(w http.ResponseWriter, r *http.Request) {
	var req models.StartSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("startSessionHandler failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}

	if err := req.Validate(); err != nil {
		slog.Warn("startSessionHandler validation failed", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	if _, ok := flows.GetFlowByID(req.FlowID); !ok {
		slog.Warn("startSessionHandler unknown flow", "flowID", req.FlowID)
		writeJSONResponse(w, http.StatusNotFound, models.Error("Unknown flow: "+req.FlowID))
		return
	}

	issueID := req.IssueID
	if issueID == "" {
		issueID = util.GenerateIssueID()
	}

	result := s.flowEngine.StartSession(r.Context(), issueID, req.FlowID, req.InitialMessage)

	slog.Info("startSessionHandler session started", "sessionID", result.SessionID, "flowID", req.FlowID, "status", result.SessionStatus)
	writeJSONResponse(w, http.StatusCreated, models.Success(result))
}

// processMessageHandler handles POST /sessions/{id}/messages.
func (s *Server) processMessageHandler(w http.ResponseWriter, r *http.Request, sessionID string) {
	var req models.ProcessMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("processMessageHandler failed to decode JSON", "error", err, "sessionID", sessionID)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}

	if err := req.Validate(); err != nil {
		slog.Warn("processMessageHandler validation failed", "error", err, "sessionID", sessionID)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	result := s.flowEngine.ProcessResponse(r.Context(), sessionID, req.Message, req.MediaURLs)

	slog.Info("processMessageHandler message processed", "sessionID", sessionID, "status", result.SessionStatus, "next_step", result.NextStepID)
	writeJSONResponse(w, http.StatusOK, models.Success(result))
}

// getSessionHandler handles GET /sessions/{id}.
func (s *Server) getSessionHandler(w http.ResponseWriter, r *http.Request, sessionID string) {
	session, err := s.st.GetSession(sessionID)
	if err != nil {
		slog.Error("getSessionHandler store error", "error", err, "sessionID", sessionID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load session"))
		return
	}
	if session == nil {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Session not found"))
		return
	}

	slog.Debug("getSessionHandler session fetched", "sessionID", sessionID, "status", session.Status)
	writeJSONResponse(w, http.StatusOK, models.Success(session))
}

// sessionHistoryHandler handles GET /sessions/{id}/history.
func (s *Server) sessionHistoryHandler(w http.ResponseWriter, r *http.Request, sessionID string) {
	session, err := s.st.GetSession(sessionID)
	if err != nil {
		slog.Error("sessionHistoryHandler store error", "error", err, "sessionID", sessionID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load session"))
		return
	}
	if session == nil {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Session not found"))
		return
	}

	writeJSONResponse(w, http.StatusOK, models.Success(map[string]interface{}{
		"session_id": session.ID,
		"history":    session.StepHistory,
		"count":      len(session.StepHistory),
	}))
}

// listSessionsHandler handles GET /sessions?issue_id={id}.
func (s *Server) listSessionsHandler(w http.ResponseWriter, r *http.Request) {
	issueID := r.URL.Query().Get("issue_id")
	if issueID == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Missing required query parameter: issue_id"))
		return
	}

	sessions, err := s.st.ListSessionsByIssue(issueID)
	if err != nil {
		slog.Error("listSessionsHandler store error", "error", err, "issueID", issueID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to list sessions"))
		return
	}

	slog.Debug("listSessionsHandler sessions fetched", "issueID", issueID, "count", len(sessions))
	writeJSONResponse(w, http.StatusOK, models.Success(sessions))
}

// flowsHandler routes /flows and /flows/{id}.
func (s *Server) flowsHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("flowsHandler invoked", "method", r.Method, "path", r.URL.Path)
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeJSONResponse(w, http.StatusMethodNotAllowed, models.Error("Method not allowed"))
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/flows")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		all := flows.All()
		summaries := make([]flowSummary, 0, len(all))
		for _, f := range all {
			summaries = append(summaries, flowSummary{
				ID:                   f.ID,
				Name:                 f.Name,
				Description:          f.Description,
				Category:             f.Category,
				SafeForDIY:           f.SafeForDIY,
				EstimatedTimeMinutes: f.EstimatedTimeMinutes,
				StepCount:            len(f.Steps),
			})
		}
		writeJSONResponse(w, http.StatusOK, models.Success(summaries))
		return
	}

	flow, ok := flows.GetFlowByID(path)
	if !ok {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Unknown flow: "+path))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(flow))
}

// deflectionStatsHandler handles GET /stats/deflection.
func (s *Server) deflectionStatsHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("deflectionStatsHandler invoked", "method", r.Method, "path", r.URL.Path)
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeJSONResponse(w, http.StatusMethodNotAllowed, models.Error("Method not allowed"))
		return
	}

	stats, err := s.st.GetDeflectionStats()
	if err != nil {
		slog.Error("deflectionStatsHandler store error", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to fetch deflection stats"))
		return
	}

	slog.Debug("deflectionStatsHandler stats computed", "total", stats.TotalSessions, "deflected", stats.DeflectedSessions)
	writeJSONResponse(w, http.StatusOK, models.Success(stats))
}

// healthHandler provides a health check endpoint for monitoring and load balancing
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	healthData := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"flows":     len(flows.All()),
	}

	if s.triage != nil {
		healthData["active_chat_sessions"] = s.triage.ActiveSessionCount()
	}

	writeJSONResponse(w, http.StatusOK, healthData)
}
