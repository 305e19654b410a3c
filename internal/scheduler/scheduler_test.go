package scheduler

import (
	"testing"
	"time"
)

type fakeSweeper struct {
	calls   int
	lastCut time.Time
}

func (f *fakeSweeper) AbandonStaleSessions(olderThan time.Time) (int, error) {
	f.calls++
	f.lastCut = olderThan
	return 0, nil
}

func TestSchedulerAddJob(t *testing.T) {
	s := NewScheduler()
	defer s.Stop()
	// Should add a valid cron job without error
	if err := s.AddJob("* * * * *", func() {}); err != nil {
		t.Errorf("Expected no error adding job, got %v", err)
	}
}

func TestSchedulerAddJobInvalidExpression(t *testing.T) {
	s := NewScheduler()
	defer s.Stop()
	if err := s.AddJob("not a cron expr", func() {}); err == nil {
		t.Error("Expected error for invalid cron expression")
	}
}

func TestSchedulerAddSessionSweep(t *testing.T) {
	s := NewScheduler()
	defer s.Stop()
	sweeper := &fakeSweeper{}
	if err := s.AddSessionSweep(DefaultSweepSchedule, sweeper, DefaultSessionTimeout); err != nil {
		t.Errorf("Expected no error adding session sweep, got %v", err)
	}
}
