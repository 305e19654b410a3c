// Package scheduler provides scheduling logic for FixPipe.
//
// It runs periodic maintenance jobs, such as abandoning troubleshooting
// sessions whose tenants have gone silent, using cron expressions.
package scheduler

import (
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultSweepSchedule runs the stale-session sweep every 10 minutes.
const DefaultSweepSchedule = "*/10 * * * *"

// DefaultSessionTimeout is how long an active session may sit idle before
// the sweeper marks it abandoned.
const DefaultSessionTimeout = 30 * time.Minute

// SessionSweeper is the store capability the stale-session job needs.
type SessionSweeper interface {
	AbandonStaleSessions(olderThan time.Time) (int, error)
}

// Scheduler provides cron-based job scheduling.
type Scheduler struct {
	cron *cron.Cron
}

// NewScheduler creates and starts a cron scheduler.
func NewScheduler() *Scheduler {
	// Use standard 5-field cron parser (min, hour, dom, month, dow) and enable recovery
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	c := cron.New(cron.WithParser(parser), cron.WithChain(cron.Recover(cron.DefaultLogger)))
	c.Start()
	return &Scheduler{cron: c}
}

// AddJob schedules a task using the provided cron expression.
// It returns an error if the expression is invalid.
func (s *Scheduler) AddJob(expr string, task func()) error {
	_, err := s.cron.AddFunc(expr, task)
	return err
}

// AddSessionSweep schedules the stale-session sweep: any active session idle
// longer than timeout is marked abandoned.
func (s *Scheduler) AddSessionSweep(expr string, sweeper SessionSweeper, timeout time.Duration) error {
	return s.AddJob(expr, func() {
		cutoff := time.Now().Add(-timeout)
		count, err := sweeper.AbandonStaleSessions(cutoff)
		if err != nil {
			slog.Error("Session sweep failed", "error", err)
			return
		}
		if count > 0 {
			slog.Info("Session sweep abandoned stale sessions", "count", count, "idle_timeout", timeout)
		}
	})
}

// Stop stops the cron scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}
