// Redis-backed store. Sessions are stored as JSON values with secondary
// index sets for active sessions and per-issue lookup. Metrics use atomic
// counters, so stats reads never scan.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Courtneyezra/FixPipe/internal/models"
	"github.com/go-redis/redis/v8"
)

const (
	redisKeySessionPrefix = "fixpipe:session:"
	redisKeyActiveSet     = "fixpipe:sessions:active"
	redisKeyIssuePrefix   = "fixpipe:sessions:issue:"
	redisKeyMetricsList   = "fixpipe:metrics"
	redisKeyMetricsTotal  = "fixpipe:metrics:total"
	redisKeyMetricsDefl   = "fixpipe:metrics:deflected"
	redisKeyIssueStatus   = "fixpipe:issue:status:"

	redisOpTimeout = 5 * time.Second
)

type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new Redis store with the given DSN (a redis://
// URL).
func NewRedisStore(opts ...Option) (*RedisStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewRedisStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("RedisStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	redisOpts, err := redis.ParseURL(dsn)
	if err != nil {
		slog.Error("Failed to parse Redis URL", "error", err)
		return nil, fmt.Errorf("failed to parse redis DSN: %w", err)
	}
	client := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		slog.Error("Redis ping failed", "error", err)
		return nil, err
	}
	slog.Debug("Redis connection established")

	return &RedisStore{client: client}, nil
}

func (s *RedisStore) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), redisOpTimeout)
}

func (s *RedisStore) writeSession(ctx context.Context, sess models.Session, create bool) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session %s: %w", sess.ID, err)
	}
	key := redisKeySessionPrefix + sess.ID
	if create {
		ok, err := s.client.SetNX(ctx, key, data, 0).Result()
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("session %s already exists", sess.ID)
		}
	} else {
		exists, err := s.client.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if exists == 0 {
			return fmt.Errorf("session %s not found", sess.ID)
		}
		if err := s.client.Set(ctx, key, data, 0).Err(); err != nil {
			return err
		}
	}
	if sess.Status == models.SessionStatusActive {
		if err := s.client.SAdd(ctx, redisKeyActiveSet, sess.ID).Err(); err != nil {
			return err
		}
	} else {
		if err := s.client.SRem(ctx, redisKeyActiveSet, sess.ID).Err(); err != nil {
			return err
		}
	}
	if sess.IssueID != "" {
		if err := s.client.SAdd(ctx, redisKeyIssuePrefix+sess.IssueID, sess.ID).Err(); err != nil {
			return err
		}
	}
	return nil
}

func (s *RedisStore) CreateSession(sess models.Session) error {
	ctx, cancel := s.opContext()
	defer cancel()
	if err := s.writeSession(ctx, sess, true); err != nil {
		slog.Error("RedisStore CreateSession failed", "error", err, "sessionID", sess.ID)
		return err
	}
	slog.Debug("RedisStore CreateSession succeeded", "sessionID", sess.ID, "flowID", sess.FlowID)
	return nil
}

func (s *RedisStore) GetSession(id string) (*models.Session, error) {
	ctx, cancel := s.opContext()
	defer cancel()
	data, err := s.client.Get(ctx, redisKeySessionPrefix+id).Bytes()
	if err == redis.Nil {
		slog.Debug("RedisStore GetSession not found", "sessionID", id)
		return nil, nil
	}
	if err != nil {
		slog.Error("RedisStore GetSession failed", "error", err, "sessionID", id)
		return nil, fmt.Errorf("failed to load session %s: %w", id, err)
	}
	var sess models.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		slog.Error("RedisStore GetSession unmarshal failed", "error", err, "sessionID", id)
		return nil, fmt.Errorf("failed to decode session %s: %w", id, err)
	}
	slog.Debug("RedisStore GetSession found", "sessionID", id, "status", sess.Status)
	return &sess, nil
}

func (s *RedisStore) UpdateSession(sess models.Session) error {
	ctx, cancel := s.opContext()
	defer cancel()
	if err := s.writeSession(ctx, sess, false); err != nil {
		slog.Error("RedisStore UpdateSession failed", "error", err, "sessionID", sess.ID)
		return err
	}
	slog.Debug("RedisStore UpdateSession succeeded", "sessionID", sess.ID, "status", sess.Status, "step", sess.CurrentStepID)
	return nil
}

func (s *RedisStore) ListSessionsByIssue(issueID string) ([]models.Session, error) {
	ctx, cancel := s.opContext()
	defer cancel()
	ids, err := s.client.SMembers(ctx, redisKeyIssuePrefix+issueID).Result()
	if err != nil {
		slog.Error("RedisStore ListSessionsByIssue failed", "error", err, "issueID", issueID)
		return nil, fmt.Errorf("failed to list sessions for issue %s: %w", issueID, err)
	}
	var sessions []models.Session
	for _, id := range ids {
		sess, err := s.GetSession(id)
		if err != nil {
			return nil, err
		}
		if sess != nil {
			sessions = append(sessions, *sess)
		}
	}
	slog.Debug("RedisStore ListSessionsByIssue succeeded", "issueID", issueID, "count", len(sessions))
	return sessions, nil
}

func (s *RedisStore) AbandonStaleSessions(olderThan time.Time) (int, error) {
	ctx, cancel := s.opContext()
	defer cancel()
	ids, err := s.client.SMembers(ctx, redisKeyActiveSet).Result()
	if err != nil {
		slog.Error("RedisStore AbandonStaleSessions failed", "error", err)
		return 0, fmt.Errorf("failed to list active sessions: %w", err)
	}
	count := 0
	for _, id := range ids {
		sess, err := s.GetSession(id)
		if err != nil {
			return count, err
		}
		if sess == nil {
			// Stale index entry, drop it.
			s.client.SRem(ctx, redisKeyActiveSet, id)
			continue
		}
		if sess.Status != models.SessionStatusActive || !sess.UpdatedAt.Before(olderThan) {
			continue
		}
		sess.Status = models.SessionStatusAbandoned
		sess.Outcome = models.OutcomeAbandoned
		sess.UpdatedAt = time.Now()
		if err := s.UpdateSession(*sess); err != nil {
			return count, err
		}
		count++
	}
	slog.Debug("RedisStore AbandonStaleSessions succeeded", "count", count)
	return count, nil
}

func (s *RedisStore) AddDeflectionMetric(m models.DeflectionMetric) error {
	ctx, cancel := s.opContext()
	defer cancel()
	data, err := json.Marshal(m)
	if err != nil {
		slog.Error("RedisStore AddDeflectionMetric marshal failed", "error", err, "sessionID", m.SessionID)
		return fmt.Errorf("failed to marshal deflection metric: %w", err)
	}
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, redisKeyMetricsList, data)
	pipe.Incr(ctx, redisKeyMetricsTotal)
	if m.WasDeflected {
		pipe.Incr(ctx, redisKeyMetricsDefl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		slog.Error("RedisStore AddDeflectionMetric failed", "error", err, "sessionID", m.SessionID)
		return fmt.Errorf("failed to record deflection metric for %s: %w", m.SessionID, err)
	}
	slog.Debug("RedisStore AddDeflectionMetric succeeded", "sessionID", m.SessionID, "deflected", m.WasDeflected)
	return nil
}

func (s *RedisStore) GetDeflectionStats() (models.DeflectionStats, error) {
	ctx, cancel := s.opContext()
	defer cancel()
	var stats models.DeflectionStats
	total, err := s.client.Get(ctx, redisKeyMetricsTotal).Int()
	if err != nil && err != redis.Nil {
		slog.Error("RedisStore GetDeflectionStats failed", "error", err)
		return stats, fmt.Errorf("failed to read metrics total: %w", err)
	}
	deflected, err := s.client.Get(ctx, redisKeyMetricsDefl).Int()
	if err != nil && err != redis.Nil {
		slog.Error("RedisStore GetDeflectionStats failed", "error", err)
		return stats, fmt.Errorf("failed to read metrics deflected: %w", err)
	}
	stats.TotalSessions = total
	stats.DeflectedSessions = deflected
	if total > 0 {
		stats.DeflectionRate = float64(deflected) / float64(total)
	}
	slog.Debug("RedisStore GetDeflectionStats succeeded", "total", total, "deflected", deflected)
	return stats, nil
}

func (s *RedisStore) SetIssueStatus(ctx context.Context, issueID, status string, fields map[string]string) error {
	event := struct {
		Status     string            `json:"status"`
		Fields     map[string]string `json:"fields,omitempty"`
		RecordedAt time.Time         `json:"recorded_at"`
	}{Status: status, Fields: fields, RecordedAt: time.Now()}
	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("RedisStore SetIssueStatus marshal failed", "error", err, "issueID", issueID)
		return fmt.Errorf("failed to marshal issue status event: %w", err)
	}
	if err := s.client.RPush(ctx, redisKeyIssueStatus+issueID, data).Err(); err != nil {
		slog.Error("RedisStore SetIssueStatus failed", "error", err, "issueID", issueID, "status", status)
		return fmt.Errorf("failed to record issue status for %s: %w", issueID, err)
	}
	slog.Debug("RedisStore SetIssueStatus succeeded", "issueID", issueID, "status", status)
	return nil
}

// Close closes the Redis client connection.
func (s *RedisStore) Close() error {
	slog.Debug("Closing Redis connection")
	err := s.client.Close()
	if err != nil {
		slog.Error("Failed to close Redis connection", "error", err)
	}
	return err
}
