// PostgreSQL-backed store. Selected when the DSN is a postgres URL or a
// key=value connection string.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/Courtneyezra/FixPipe/internal/models"
	_ "github.com/lib/pq"
)

//go:embed migrations_postgres.sql
var postgresMigrations string

type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL store with the given DSN.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewPostgresStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}

	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) CreateSession(sess models.Session) error {
	historyJSON, err := marshalJSONColumn(sess.StepHistory)
	if err != nil {
		slog.Error("PostgresStore CreateSession marshal failed", "error", err, "sessionID", sess.ID)
		return err
	}
	dataJSON, err := marshalJSONColumn(sess.CollectedData)
	if err != nil {
		slog.Error("PostgresStore CreateSession marshal failed", "error", err, "sessionID", sess.ID)
		return err
	}
	_, err = s.db.Exec(`INSERT INTO sessions (`+sessionColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		sess.ID, nilIfEmpty(sess.IssueID), sess.FlowID, nilIfEmpty(sess.CurrentStepID), nilIfEmpty(historyJSON),
		string(sess.Status), sess.AttemptCount, sess.MaxAttempts, nilIfEmpty(dataJSON),
		nilIfEmpty(string(sess.Outcome)), sess.CreatedAt, sess.UpdatedAt)
	if err != nil {
		slog.Error("PostgresStore CreateSession failed", "error", err, "sessionID", sess.ID)
		return fmt.Errorf("failed to insert session %s: %w", sess.ID, err)
	}
	slog.Debug("PostgresStore CreateSession succeeded", "sessionID", sess.ID, "flowID", sess.FlowID)
	return nil
}

func (s *PostgresStore) GetSession(id string) (*models.Session, error) {
	row := s.db.QueryRow(`SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id)
	sess, err := scanSessionRow(row)
	if err == sql.ErrNoRows {
		slog.Debug("PostgresStore GetSession not found", "sessionID", id)
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetSession failed", "error", err, "sessionID", id)
		return nil, fmt.Errorf("failed to load session %s: %w", id, err)
	}
	slog.Debug("PostgresStore GetSession found", "sessionID", id, "status", sess.Status)
	return &sess, nil
}

func (s *PostgresStore) UpdateSession(sess models.Session) error {
	historyJSON, err := marshalJSONColumn(sess.StepHistory)
	if err != nil {
		slog.Error("PostgresStore UpdateSession marshal failed", "error", err, "sessionID", sess.ID)
		return err
	}
	dataJSON, err := marshalJSONColumn(sess.CollectedData)
	if err != nil {
		slog.Error("PostgresStore UpdateSession marshal failed", "error", err, "sessionID", sess.ID)
		return err
	}
	res, err := s.db.Exec(`UPDATE sessions SET issue_id = $1, flow_id = $2, current_step_id = $3, step_history = $4, status = $5, attempt_count = $6, max_attempts = $7, collected_data = $8, outcome = $9, updated_at = $10 WHERE id = $11`,
		nilIfEmpty(sess.IssueID), sess.FlowID, nilIfEmpty(sess.CurrentStepID), nilIfEmpty(historyJSON),
		string(sess.Status), sess.AttemptCount, sess.MaxAttempts, nilIfEmpty(dataJSON),
		nilIfEmpty(string(sess.Outcome)), sess.UpdatedAt, sess.ID)
	if err != nil {
		slog.Error("PostgresStore UpdateSession failed", "error", err, "sessionID", sess.ID)
		return fmt.Errorf("failed to update session %s: %w", sess.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		slog.Error("PostgresStore UpdateSession no rows affected", "sessionID", sess.ID)
		return fmt.Errorf("session %s not found", sess.ID)
	}
	slog.Debug("PostgresStore UpdateSession succeeded", "sessionID", sess.ID, "status", sess.Status, "step", sess.CurrentStepID)
	return nil
}

func (s *PostgresStore) ListSessionsByIssue(issueID string) ([]models.Session, error) {
	rows, err := s.db.Query(`SELECT `+sessionColumns+` FROM sessions WHERE issue_id = $1 ORDER BY created_at`, issueID)
	if err != nil {
		slog.Error("PostgresStore ListSessionsByIssue query failed", "error", err, "issueID", issueID)
		return nil, fmt.Errorf("failed to query sessions for issue %s: %w", issueID, err)
	}
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			slog.Error("PostgresStore ListSessionsByIssue scan failed", "error", err)
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		slog.Error("PostgresStore ListSessionsByIssue rows iteration failed", "error", err)
		return nil, fmt.Errorf("failed to iterate session rows: %w", err)
	}
	slog.Debug("PostgresStore ListSessionsByIssue succeeded", "issueID", issueID, "count", len(sessions))
	return sessions, nil
}

func (s *PostgresStore) AbandonStaleSessions(olderThan time.Time) (int, error) {
	res, err := s.db.Exec(`UPDATE sessions SET status = $1, outcome = $2, updated_at = $3 WHERE status = $4 AND updated_at < $5`,
		string(models.SessionStatusAbandoned), string(models.OutcomeAbandoned), time.Now(),
		string(models.SessionStatusActive), olderThan)
	if err != nil {
		slog.Error("PostgresStore AbandonStaleSessions failed", "error", err)
		return 0, fmt.Errorf("failed to abandon stale sessions: %w", err)
	}
	n, _ := res.RowsAffected()
	slog.Debug("PostgresStore AbandonStaleSessions succeeded", "count", n)
	return int(n), nil
}

func (s *PostgresStore) AddDeflectionMetric(m models.DeflectionMetric) error {
	_, err := s.db.Exec(`INSERT INTO deflection_metrics (issue_id, session_id, flow_id, category, was_deflected, deflection_type, steps_completed, total_steps, time_to_resolution_ms, recorded_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		nilIfEmpty(m.IssueID), m.SessionID, m.FlowID, string(m.Category), m.WasDeflected,
		nilIfEmpty(m.DeflectionType), m.StepsCompleted, m.TotalSteps, m.TimeToResolutionMs, m.RecordedAt)
	if err != nil {
		slog.Error("PostgresStore AddDeflectionMetric failed", "error", err, "sessionID", m.SessionID)
		return fmt.Errorf("failed to insert deflection metric for %s: %w", m.SessionID, err)
	}
	slog.Debug("PostgresStore AddDeflectionMetric succeeded", "sessionID", m.SessionID, "deflected", m.WasDeflected)
	return nil
}

func (s *PostgresStore) GetDeflectionStats() (models.DeflectionStats, error) {
	var stats models.DeflectionStats
	err := s.db.QueryRow(`SELECT COUNT(*), COALESCE(SUM(CASE WHEN was_deflected THEN 1 ELSE 0 END), 0) FROM deflection_metrics`).
		Scan(&stats.TotalSessions, &stats.DeflectedSessions)
	if err != nil {
		slog.Error("PostgresStore GetDeflectionStats failed", "error", err)
		return stats, fmt.Errorf("failed to aggregate deflection stats: %w", err)
	}
	if stats.TotalSessions > 0 {
		stats.DeflectionRate = float64(stats.DeflectedSessions) / float64(stats.TotalSessions)
	}
	slog.Debug("PostgresStore GetDeflectionStats succeeded", "total", stats.TotalSessions, "deflected", stats.DeflectedSessions)
	return stats, nil
}

func (s *PostgresStore) SetIssueStatus(ctx context.Context, issueID, status string, fields map[string]string) error {
	fieldsJSON, err := marshalJSONColumn(fields)
	if err != nil {
		slog.Error("PostgresStore SetIssueStatus marshal failed", "error", err, "issueID", issueID)
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO issue_status_events (issue_id, status, fields, recorded_at) VALUES ($1, $2, $3, $4)`,
		issueID, status, nilIfEmpty(fieldsJSON), time.Now())
	if err != nil {
		slog.Error("PostgresStore SetIssueStatus failed", "error", err, "issueID", issueID, "status", status)
		return fmt.Errorf("failed to record issue status for %s: %w", issueID, err)
	}
	slog.Debug("PostgresStore SetIssueStatus succeeded", "issueID", issueID, "status", status)
	return nil
}

// Close closes the PostgreSQL database connection.
func (s *PostgresStore) Close() error {
	slog.Debug("Closing Postgres database connection")
	err := s.db.Close()
	if err != nil {
		slog.Error("Failed to close Postgres database", "error", err)
	}
	return err
}
