package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Courtneyezra/FixPipe/internal/engine"
	"github.com/Courtneyezra/FixPipe/internal/interpret"
	"github.com/Courtneyezra/FixPipe/internal/models"
	"github.com/Courtneyezra/FixPipe/internal/store"
)

// newTestServer builds a server over an in-memory store and a pattern-only
// interpreter, with no chat transport.
func newTestServer(t *testing.T) (*Server, *store.InMemoryStore) {
	t.Helper()
	st := store.NewInMemoryStore()
	eng := engine.NewEngine(st, st, st, interpret.NewInterpreter(nil))
	return NewServer(st, eng, nil), st
}

func decodeAPIResponse(t *testing.T, rec *httptest.ResponseRecorder) models.APIResponse {
	t.Helper()
	var resp models.APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode API response: %v (body: %s)", err, rec.Body.String())
	}
	return resp
}

func startSession(t *testing.T, handler http.Handler, flowID string) models.EngineResult {
	t.Helper()
	body, _ := json.Marshal(models.StartSessionRequest{FlowID: flowID})
	req := httptest.NewRequest(http.MethodPost, "/sessions", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeAPIResponse(t, rec)
	raw, _ := json.Marshal(resp.Result)
	var result models.EngineResult
	if err := json.Unmarshal(raw, &result); err != nil {
		t.Fatalf("failed to decode engine result: %v", err)
	}
	return result
}

func TestStartSessionEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	handler := srv.Handler()

	result := startSession(t, handler, "boiler_no_heat")
	if result.SessionID == "" {
		t.Error("expected a session ID")
	}
	if result.SessionStatus != models.ResultStatusActive {
		t.Errorf("expected active session, got %s", result.SessionStatus)
	}
	if result.NextStepID != "check_power" {
		t.Errorf("expected first step check_power, got %s", result.NextStepID)
	}
}

func TestStartSessionUnknownFlow(t *testing.T) {
	srv, _ := newTestServer(t)
	body, _ := json.Marshal(models.StartSessionRequest{FlowID: "no_such_flow"})
	req := httptest.NewRequest(http.MethodPost, "/sessions", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestStartSessionInvalidPayload(t *testing.T) {
	srv, _ := newTestServer(t)
	cases := []struct {
		name string
		body string
	}{
		{"malformed json", `{`},
		{"empty flow id", `{"flow_id": ""}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/sessions", bytes.NewReader([]byte(tc.body)))
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestProcessMessageEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	handler := srv.Handler()

	started := startSession(t, handler, "boiler_no_heat")

	body, _ := json.Marshal(models.ProcessMessageRequest{Message: "yes the display is on"})
	req := httptest.NewRequest(http.MethodPost, "/sessions/"+started.SessionID+"/messages", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeAPIResponse(t, rec)
	raw, _ := json.Marshal(resp.Result)
	var result models.EngineResult
	if err := json.Unmarshal(raw, &result); err != nil {
		t.Fatalf("failed to decode engine result: %v", err)
	}
	if result.NextStepID != "check_pressure" {
		t.Errorf("expected advance to check_pressure, got %s", result.NextStepID)
	}
}

func TestGetSessionEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	handler := srv.Handler()
	started := startSession(t, handler, "boiler_no_heat")

	req := httptest.NewRequest(http.MethodGet, "/sessions/"+started.SessionID, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/sessions/ts_missing", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for missing session, got %d", rec.Code)
	}
}

func TestSessionHistoryEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	handler := srv.Handler()
	started := startSession(t, handler, "boiler_no_heat")

	body, _ := json.Marshal(models.ProcessMessageRequest{Message: "yes"})
	req := httptest.NewRequest(http.MethodPost, "/sessions/"+started.SessionID+"/messages", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 processing message, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/sessions/"+started.SessionID+"/history", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	resp := decodeAPIResponse(t, rec)
	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatalf("unexpected result shape: %T", resp.Result)
	}
	if count, _ := result["count"].(float64); count != 1 {
		t.Errorf("expected 1 history entry, got %v", result["count"])
	}
}

func TestListFlowsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/flows", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decodeAPIResponse(t, rec)
	list, ok := resp.Result.([]interface{})
	if !ok {
		t.Fatalf("unexpected result shape: %T", resp.Result)
	}
	if len(list) < 3 {
		t.Errorf("expected at least 3 registered flows, got %d", len(list))
	}
}

func TestGetFlowEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	handler := srv.Handler()

	req := httptest.NewRequest(http.MethodGet, "/flows/boiler_no_heat", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/flows/no_such_flow", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestDeflectionStatsEndpoint(t *testing.T) {
	srv, st := newTestServer(t)
	if err := st.AddDeflectionMetric(models.DeflectionMetric{SessionID: "ts_1", FlowID: "boiler_no_heat", WasDeflected: true}); err != nil {
		t.Fatalf("AddDeflectionMetric failed: %v", err)
	}
	if err := st.AddDeflectionMetric(models.DeflectionMetric{SessionID: "ts_2", FlowID: "boiler_no_heat", WasDeflected: false}); err != nil {
		t.Fatalf("AddDeflectionMetric failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/stats/deflection", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decodeAPIResponse(t, rec)
	raw, _ := json.Marshal(resp.Result)
	var stats models.DeflectionStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		t.Fatalf("failed to decode stats: %v", err)
	}
	if stats.TotalSessions != 2 || stats.DeflectedSessions != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if stats.DeflectionRate != 0.5 {
		t.Errorf("expected deflection rate 0.5, got %f", stats.DeflectionRate)
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var health map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &health); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}
	if health["status"] != "healthy" {
		t.Errorf("expected healthy status, got %v", health["status"])
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t)
	handler := srv.Handler()

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodDelete, "/sessions"},
		{http.MethodPost, "/flows"},
		{http.MethodPost, "/stats/deflection"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s %s: expected 405, got %d", tc.method, tc.path, rec.Code)
		}
	}
}
