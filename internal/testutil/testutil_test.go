package testutil

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Courtneyezra/FixPipe/internal/models"
)

func TestNewSession(t *testing.T) {
	s := NewSession("issue-1", "boiler_no_heat")
	if s.ID == "" {
		t.Error("session ID should be generated")
	}
	if s.IssueID != "issue-1" || s.FlowID != "boiler_no_heat" {
		t.Errorf("unexpected identifiers: %q %q", s.IssueID, s.FlowID)
	}
	if s.Status != models.SessionStatusActive {
		t.Errorf("expected active status, got %s", s.Status)
	}
	if s.CreatedAt.IsZero() || s.UpdatedAt.IsZero() {
		t.Error("timestamps should be set")
	}
}

func TestCreateHTTPRequest(t *testing.T) {
	req := CreateHTTPRequest(t, http.MethodPost, "/sessions", map[string]string{"flow_id": "f1"})
	if req.Method != http.MethodPost {
		t.Errorf("expected POST, got %s", req.Method)
	}
	var body map[string]string
	MustUnmarshalJSON(t, MustMarshalJSON(t, map[string]string{"flow_id": "f1"}), &body)
	if body["flow_id"] != "f1" {
		t.Errorf("round-trip lost data: %v", body)
	}
}

func TestAssertJSONResponse(t *testing.T) {
	rr := httptest.NewRecorder()
	rr.Body.WriteString(`{"status":"ok","result":{"n":1}}`)

	resp := AssertJSONResponse(t, rr, "ok")
	if _, ok := resp["result"]; !ok {
		t.Error("expected result field in decoded response")
	}
}
