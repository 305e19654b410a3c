package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Courtneyezra/FixPipe/internal/models"
)

// DSNType identifies which backend a connection string addresses.
type DSNType string

const (
	DSNTypeSQLite   DSNType = "sqlite"
	DSNTypePostgres DSNType = "postgres"
	DSNTypeRedis    DSNType = "redis"
)

// DetectDSNType inspects a DSN and picks the backend it belongs to.
// Postgres URLs and key=value connection strings map to Postgres, redis
// URLs to Redis, everything else (including an empty DSN) to SQLite.
func DetectDSNType(dsn string) DSNType {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return DSNTypePostgres
	case strings.Contains(dsn, "host=") || strings.Contains(dsn, "dbname="):
		return DSNTypePostgres
	case strings.HasPrefix(dsn, "redis://"), strings.HasPrefix(dsn, "rediss://"):
		return DSNTypeRedis
	default:
		return DSNTypeSQLite
	}
}

// nilIfEmpty returns nil if s is empty, otherwise returns s.
// Used for nullable database columns.
func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// marshalJSONColumn serializes a value for a JSON text column. Empty maps
// and slices serialize to the empty string so the column stays NULL-able.
func marshalJSONColumn(v interface{}) (string, error) {
	switch t := v.(type) {
	case map[string]string:
		if len(t) == 0 {
			return "", nil
		}
	case []models.StepHistoryEntry:
		if len(t) == 0 {
			return "", nil
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON column: %w", err)
	}
	return string(b), nil
}

// scanSession scans a Session from sql.Rows. The column order must match
// sessionColumns in the backend queries.
func scanSession(rows *sql.Rows) (models.Session, error) {
	var s models.Session
	var issueID, currentStep, historyJSON, dataJSON, outcome sql.NullString
	err := rows.Scan(
		&s.ID, &issueID, &s.FlowID, &currentStep, &historyJSON, &s.Status,
		&s.AttemptCount, &s.MaxAttempts, &dataJSON, &outcome, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return s, fmt.Errorf("scan session failed: %w", err)
	}
	s.IssueID = issueID.String
	s.CurrentStepID = currentStep.String
	s.Outcome = models.TroubleshootingOutcome(outcome.String)
	decodeSessionJSON(&s, historyJSON.String, dataJSON.String)
	return s, nil
}

// scanSessionRow scans a Session from a single sql.Row.
func scanSessionRow(row *sql.Row) (models.Session, error) {
	var s models.Session
	var issueID, currentStep, historyJSON, dataJSON, outcome sql.NullString
	err := row.Scan(
		&s.ID, &issueID, &s.FlowID, &currentStep, &historyJSON, &s.Status,
		&s.AttemptCount, &s.MaxAttempts, &dataJSON, &outcome, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return s, err
	}
	s.IssueID = issueID.String
	s.CurrentStepID = currentStep.String
	s.Outcome = models.TroubleshootingOutcome(outcome.String)
	decodeSessionJSON(&s, historyJSON.String, dataJSON.String)
	return s, nil
}

// decodeSessionJSON fills the JSON-backed session fields. A corrupt column
// is logged and replaced with an empty value rather than failing the read.
func decodeSessionJSON(s *models.Session, historyJSON, dataJSON string) {
	s.StepHistory = []models.StepHistoryEntry{}
	if historyJSON != "" {
		if err := json.Unmarshal([]byte(historyJSON), &s.StepHistory); err != nil {
			slog.Error("Failed to decode step history column", "error", err, "sessionID", s.ID)
			s.StepHistory = []models.StepHistoryEntry{}
		}
	}
	s.CollectedData = make(map[string]string)
	if dataJSON != "" {
		if err := json.Unmarshal([]byte(dataJSON), &s.CollectedData); err != nil {
			slog.Error("Failed to decode collected data column", "error", err, "sessionID", s.ID)
			s.CollectedData = make(map[string]string)
		}
	}
}
