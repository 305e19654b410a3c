// Package testutil provides common test helpers shared across FixPipe tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Courtneyezra/FixPipe/internal/models"
	"github.com/Courtneyezra/FixPipe/internal/util"
)

// SessionSeeder is satisfied by any store that can create sessions.
type SessionSeeder interface {
	CreateSession(s models.Session) error
}

// NewSession builds a minimal active session for use as test fixture data.
func NewSession(issueID, flowID string) models.Session {
	now := time.Now().UTC()
	return models.Session{
		ID:            util.GenerateSessionID(),
		IssueID:       issueID,
		FlowID:        flowID,
		Status:        models.SessionStatusActive,
		MaxAttempts:   3,
		CollectedData: map[string]string{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// SeedSessions creates n active sessions for issueID and returns them.
func SeedSessions(t *testing.T, seeder SessionSeeder, issueID, flowID string, n int) []models.Session {
	t.Helper()
	sessions := make([]models.Session, 0, n)
	for i := 0; i < n; i++ {
		s := NewSession(issueID, flowID)
		if err := seeder.CreateSession(s); err != nil {
			t.Fatalf("failed to seed session %d: %v", i, err)
		}
		sessions = append(sessions, s)
	}
	return sessions
}

// AssertHTTPStatus checks the HTTP status code and fails the test if it doesn't match.
func AssertHTTPStatus(t *testing.T, expected, actual int, context string) {
	t.Helper()
	if actual != expected {
		t.Errorf("%s: expected status %d, got %d", context, expected, actual)
	}
}

// AssertJSONResponse decodes a JSON API response and validates the status field.
func AssertJSONResponse(t *testing.T, rr *httptest.ResponseRecorder, expectedStatus string) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON response: %v", err)
	}

	if status, ok := response["status"].(string); ok {
		if status != expectedStatus {
			t.Errorf("expected status '%s', got '%s'", expectedStatus, status)
		}
	} else {
		t.Error("response missing or invalid 'status' field")
	}

	return response
}

// CreateHTTPRequest creates an HTTP request with optional JSON body for testing.
func CreateHTTPRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	t.Helper()
	var reqBody *bytes.Buffer
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		t.Fatalf("failed to create HTTP request: %v", err)
	}
	return req
}

// MustMarshalJSON marshals an object to JSON and fails the test on error.
func MustMarshalJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal JSON: %v", err)
	}
	return data
}

// MustUnmarshalJSON unmarshals JSON data into target and fails the test on error.
func MustUnmarshalJSON(t *testing.T, data []byte, target interface{}) {
	t.Helper()
	if err := json.Unmarshal(data, target); err != nil {
		t.Fatalf("failed to unmarshal JSON: %v", err)
	}
}
