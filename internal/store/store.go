// Package store provides storage backends for FixPipe.
//
// It persists troubleshooting sessions, deflection metrics, and the mirror
// of issue status pushes. SQLite is the default backend; PostgreSQL and
// Redis backends implement the same interface, plus an in-memory store for
// tests.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Courtneyezra/FixPipe/internal/models"
)

// Store is the persistence boundary shared by all backends. It satisfies
// the engine's SessionStore, MetricSink, and IssueTracker interfaces.
type Store interface {
	CreateSession(s models.Session) error
	GetSession(id string) (*models.Session, error)
	UpdateSession(s models.Session) error
	ListSessionsByIssue(issueID string) ([]models.Session, error)
	// AbandonStaleSessions marks active sessions idle since the cutoff as
	// abandoned, returning how many were updated. Used by the timeout
	// sweeper, never by the engine itself.
	AbandonStaleSessions(olderThan time.Time) (int, error)

	AddDeflectionMetric(m models.DeflectionMetric) error
	GetDeflectionStats() (models.DeflectionStats, error)

	// SetIssueStatus records a status push for the external issue record.
	SetIssueStatus(ctx context.Context, issueID, status string, fields map[string]string) error

	Close() error
}

// Opts holds configuration options for store backends.
type Opts struct {
	DSN string
}

// Option defines a configuration option for a store backend.
type Option func(*Opts)

// WithDSN sets the database connection string.
func WithDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// NewStore selects and opens a backend based on the DSN: postgres DSNs open
// PostgreSQL, redis DSNs open Redis, anything else is treated as a SQLite
// file path. An empty DSN yields a non-durable in-memory store.
func NewStore(opts ...Option) (Store, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.DSN == "" {
		slog.Debug("No store DSN provided, using in-memory store")
		return NewInMemoryStore(), nil
	}
	switch DetectDSNType(cfg.DSN) {
	case DSNTypePostgres:
		return NewPostgresStore(opts...)
	case DSNTypeRedis:
		return NewRedisStore(opts...)
	default:
		return NewSQLiteStore(opts...)
	}
}

// InMemoryStore is a non-durable Store used in tests and as a fallback.
type InMemoryStore struct {
	mu           sync.RWMutex
	sessions     map[string]models.Session
	metrics      []models.DeflectionMetric
	issueStatus  map[string][]string
	failUpdates  bool
	failCreation bool
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		sessions:    make(map[string]models.Session),
		issueStatus: make(map[string][]string),
	}
}

// FailWrites makes subsequent session writes fail. Test hook for exercising
// the engine's persistence-failure paths.
func (s *InMemoryStore) FailWrites(creates, updates bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failCreation = creates
	s.failUpdates = updates
}

func (s *InMemoryStore) CreateSession(sess models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreation {
		return fmt.Errorf("simulated create failure")
	}
	if _, exists := s.sessions[sess.ID]; exists {
		return fmt.Errorf("session %s already exists", sess.ID)
	}
	s.sessions[sess.ID] = cloneSession(sess)
	return nil
}

func (s *InMemoryStore) GetSession(id string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	c := cloneSession(sess)
	return &c, nil
}

func (s *InMemoryStore) UpdateSession(sess models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failUpdates {
		return fmt.Errorf("simulated update failure")
	}
	if _, ok := s.sessions[sess.ID]; !ok {
		return fmt.Errorf("session %s not found", sess.ID)
	}
	s.sessions[sess.ID] = cloneSession(sess)
	return nil
}

func (s *InMemoryStore) ListSessionsByIssue(issueID string) ([]models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Session
	for _, sess := range s.sessions {
		if sess.IssueID == issueID {
			out = append(out, cloneSession(sess))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) AbandonStaleSessions(olderThan time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for id, sess := range s.sessions {
		if sess.Status == models.SessionStatusActive && sess.UpdatedAt.Before(olderThan) {
			sess.Status = models.SessionStatusAbandoned
			sess.Outcome = models.OutcomeAbandoned
			sess.UpdatedAt = time.Now()
			s.sessions[id] = sess
			count++
		}
	}
	return count, nil
}

func (s *InMemoryStore) AddDeflectionMetric(m models.DeflectionMetric) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics = append(s.metrics, m)
	return nil
}

// GetDeflectionMetrics returns a copy of recorded metrics. Test helper.
func (s *InMemoryStore) GetDeflectionMetrics() []models.DeflectionMetric {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.DeflectionMetric, len(s.metrics))
	copy(out, s.metrics)
	return out
}

func (s *InMemoryStore) GetDeflectionStats() (models.DeflectionStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := models.DeflectionStats{TotalSessions: len(s.metrics)}
	for _, m := range s.metrics {
		if m.WasDeflected {
			stats.DeflectedSessions++
		}
	}
	if stats.TotalSessions > 0 {
		stats.DeflectionRate = float64(stats.DeflectedSessions) / float64(stats.TotalSessions)
	}
	return stats, nil
}

func (s *InMemoryStore) SetIssueStatus(ctx context.Context, issueID, status string, fields map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issueStatus[issueID] = append(s.issueStatus[issueID], status)
	slog.Debug("InMemoryStore issue status recorded", "issueID", issueID, "status", status)
	return nil
}

// IssueStatuses returns the recorded status pushes for an issue. Test helper.
func (s *InMemoryStore) IssueStatuses(issueID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.issueStatus[issueID]))
	copy(out, s.issueStatus[issueID])
	return out
}

func (s *InMemoryStore) Close() error { return nil }

// cloneSession deep-copies the mutable session fields so callers cannot
// alias the stored state.
func cloneSession(s models.Session) models.Session {
	c := s
	c.StepHistory = make([]models.StepHistoryEntry, len(s.StepHistory))
	copy(c.StepHistory, s.StepHistory)
	c.CollectedData = make(map[string]string, len(s.CollectedData))
	for k, v := range s.CollectedData {
		c.CollectedData[k] = v
	}
	return c
}
