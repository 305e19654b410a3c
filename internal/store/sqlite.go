// SQLite-backed store for sessions, deflection metrics, and issue status
// events. This is the default backend when the DSN is a file path.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	"github.com/Courtneyezra/FixPipe/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// Constants for SQLite store configuration
const (
	// DefaultDirPermissions defines the default permissions for database directories
	DefaultDirPermissions = 0755
)

//go:embed migrations_sqlite.sql
var sqliteMigrations string

const sessionColumns = `id, issue_id, flow_id, current_step_id, step_history, status, attempt_count, max_attempts, collected_data, outcome, created_at, updated_at`

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN should be a file path to the SQLite database file.
// If the directory doesn't exist, it will be created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	// Ensure the directory exists
	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	slog.Debug("SQLite database directory verified/created", "dir", dir)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}

	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	// Run migrations to ensure tables exist
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully")

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) CreateSession(sess models.Session) error {
	historyJSON, err := marshalJSONColumn(sess.StepHistory)
	if err != nil {
		slog.Error("SQLiteStore CreateSession marshal failed", "error", err, "sessionID", sess.ID)
		return err
	}
	dataJSON, err := marshalJSONColumn(sess.CollectedData)
	if err != nil {
		slog.Error("SQLiteStore CreateSession marshal failed", "error", err, "sessionID", sess.ID)
		return err
	}
	_, err = s.db.Exec(`INSERT INTO sessions (`+sessionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, nilIfEmpty(sess.IssueID), sess.FlowID, nilIfEmpty(sess.CurrentStepID), nilIfEmpty(historyJSON),
		string(sess.Status), sess.AttemptCount, sess.MaxAttempts, nilIfEmpty(dataJSON),
		nilIfEmpty(string(sess.Outcome)), sess.CreatedAt, sess.UpdatedAt)
	if err != nil {
		slog.Error("SQLiteStore CreateSession failed", "error", err, "sessionID", sess.ID)
		return fmt.Errorf("failed to insert session %s: %w", sess.ID, err)
	}
	slog.Debug("SQLiteStore CreateSession succeeded", "sessionID", sess.ID, "flowID", sess.FlowID)
	return nil
}

func (s *SQLiteStore) GetSession(id string) (*models.Session, error) {
	row := s.db.QueryRow(`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	sess, err := scanSessionRow(row)
	if err == sql.ErrNoRows {
		slog.Debug("SQLiteStore GetSession not found", "sessionID", id)
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetSession failed", "error", err, "sessionID", id)
		return nil, fmt.Errorf("failed to load session %s: %w", id, err)
	}
	slog.Debug("SQLiteStore GetSession found", "sessionID", id, "status", sess.Status)
	return &sess, nil
}

func (s *SQLiteStore) UpdateSession(sess models.Session) error {
	historyJSON, err := marshalJSONColumn(sess.StepHistory)
	if err != nil {
		slog.Error("SQLiteStore UpdateSession marshal failed", "error", err, "sessionID", sess.ID)
		return err
	}
	dataJSON, err := marshalJSONColumn(sess.CollectedData)
	if err != nil {
		slog.Error("SQLiteStore UpdateSession marshal failed", "error", err, "sessionID", sess.ID)
		return err
	}
	res, err := s.db.Exec(`UPDATE sessions SET issue_id = ?, flow_id = ?, current_step_id = ?, step_history = ?, status = ?, attempt_count = ?, max_attempts = ?, collected_data = ?, outcome = ?, updated_at = ? WHERE id = ?`,
		nilIfEmpty(sess.IssueID), sess.FlowID, nilIfEmpty(sess.CurrentStepID), nilIfEmpty(historyJSON),
		string(sess.Status), sess.AttemptCount, sess.MaxAttempts, nilIfEmpty(dataJSON),
		nilIfEmpty(string(sess.Outcome)), sess.UpdatedAt, sess.ID)
	if err != nil {
		slog.Error("SQLiteStore UpdateSession failed", "error", err, "sessionID", sess.ID)
		return fmt.Errorf("failed to update session %s: %w", sess.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		slog.Error("SQLiteStore UpdateSession no rows affected", "sessionID", sess.ID)
		return fmt.Errorf("session %s not found", sess.ID)
	}
	slog.Debug("SQLiteStore UpdateSession succeeded", "sessionID", sess.ID, "status", sess.Status, "step", sess.CurrentStepID)
	return nil
}

func (s *SQLiteStore) ListSessionsByIssue(issueID string) ([]models.Session, error) {
	rows, err := s.db.Query(`SELECT `+sessionColumns+` FROM sessions WHERE issue_id = ? ORDER BY created_at`, issueID)
	if err != nil {
		slog.Error("SQLiteStore ListSessionsByIssue query failed", "error", err, "issueID", issueID)
		return nil, fmt.Errorf("failed to query sessions for issue %s: %w", issueID, err)
	}
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			slog.Error("SQLiteStore ListSessionsByIssue scan failed", "error", err)
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		slog.Error("SQLiteStore ListSessionsByIssue rows iteration failed", "error", err)
		return nil, fmt.Errorf("failed to iterate session rows: %w", err)
	}
	slog.Debug("SQLiteStore ListSessionsByIssue succeeded", "issueID", issueID, "count", len(sessions))
	return sessions, nil
}

func (s *SQLiteStore) AbandonStaleSessions(olderThan time.Time) (int, error) {
	res, err := s.db.Exec(`UPDATE sessions SET status = ?, outcome = ?, updated_at = ? WHERE status = ? AND updated_at < ?`,
		string(models.SessionStatusAbandoned), string(models.OutcomeAbandoned), time.Now(),
		string(models.SessionStatusActive), olderThan)
	if err != nil {
		slog.Error("SQLiteStore AbandonStaleSessions failed", "error", err)
		return 0, fmt.Errorf("failed to abandon stale sessions: %w", err)
	}
	n, _ := res.RowsAffected()
	slog.Debug("SQLiteStore AbandonStaleSessions succeeded", "count", n)
	return int(n), nil
}

func (s *SQLiteStore) AddDeflectionMetric(m models.DeflectionMetric) error {
	_, err := s.db.Exec(`INSERT INTO deflection_metrics (issue_id, session_id, flow_id, category, was_deflected, deflection_type, steps_completed, total_steps, time_to_resolution_ms, recorded_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		nilIfEmpty(m.IssueID), m.SessionID, m.FlowID, string(m.Category), m.WasDeflected,
		nilIfEmpty(m.DeflectionType), m.StepsCompleted, m.TotalSteps, m.TimeToResolutionMs, m.RecordedAt)
	if err != nil {
		slog.Error("SQLiteStore AddDeflectionMetric failed", "error", err, "sessionID", m.SessionID)
		return fmt.Errorf("failed to insert deflection metric for %s: %w", m.SessionID, err)
	}
	slog.Debug("SQLiteStore AddDeflectionMetric succeeded", "sessionID", m.SessionID, "deflected", m.WasDeflected)
	return nil
}

func (s *SQLiteStore) GetDeflectionStats() (models.DeflectionStats, error) {
	var stats models.DeflectionStats
	err := s.db.QueryRow(`SELECT COUNT(*), COALESCE(SUM(CASE WHEN was_deflected THEN 1 ELSE 0 END), 0) FROM deflection_metrics`).
		Scan(&stats.TotalSessions, &stats.DeflectedSessions)
	if err != nil {
		slog.Error("SQLiteStore GetDeflectionStats failed", "error", err)
		return stats, fmt.Errorf("failed to aggregate deflection stats: %w", err)
	}
	if stats.TotalSessions > 0 {
		stats.DeflectionRate = float64(stats.DeflectedSessions) / float64(stats.TotalSessions)
	}
	slog.Debug("SQLiteStore GetDeflectionStats succeeded", "total", stats.TotalSessions, "deflected", stats.DeflectedSessions)
	return stats, nil
}

func (s *SQLiteStore) SetIssueStatus(ctx context.Context, issueID, status string, fields map[string]string) error {
	fieldsJSON, err := marshalJSONColumn(fields)
	if err != nil {
		slog.Error("SQLiteStore SetIssueStatus marshal failed", "error", err, "issueID", issueID)
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO issue_status_events (issue_id, status, fields, recorded_at) VALUES (?, ?, ?, ?)`,
		issueID, status, nilIfEmpty(fieldsJSON), time.Now())
	if err != nil {
		slog.Error("SQLiteStore SetIssueStatus failed", "error", err, "issueID", issueID, "status", status)
		return fmt.Errorf("failed to record issue status for %s: %w", issueID, err)
	}
	slog.Debug("SQLiteStore SetIssueStatus succeeded", "issueID", issueID, "status", status)
	return nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	slog.Debug("Closing SQLite database connection")
	err := s.db.Close()
	if err != nil {
		slog.Error("Failed to close SQLite database", "error", err)
	}
	return err
}
