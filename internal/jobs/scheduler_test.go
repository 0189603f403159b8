package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"randomchallenge/api/internal/models"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeRefresher struct {
	calls atomic.Int32
	err   error
}

func (f *fakeRefresher) Refresh(context.Context) (*models.GeneralStats, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return &models.GeneralStats{}, nil
}

type fakeSweeper struct {
	removed int
	calls   atomic.Int32
}

func (f *fakeSweeper) Cleanup() int {
	f.calls.Add(1)
	return f.removed
}

func TestStartRefreshesImmediately(t *testing.T) {
	stats := &fakeRefresher{}
	s := NewScheduler(stats, nil, Config{StatsSchedule: "@every 1h"}, zap.NewNop())

	if err := s.Start(); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	defer s.Stop()

	if got := stats.calls.Load(); got != 1 {
		t.Fatalf("expected one refresh on start, got %d", got)
	}
}

func TestStartRejectsInvalidSchedule(t *testing.T) {
	s := NewScheduler(&fakeRefresher{}, nil, Config{StatsSchedule: "not a schedule"}, zap.NewNop())
	if err := s.Start(); err == nil {
		t.Fatal("expected error for invalid schedule")
	}
}

func TestStartRejectsInvalidCleanupSchedule(t *testing.T) {
	s := NewScheduler(nil, []Sweeper{&fakeSweeper{}}, Config{CleanupSchedule: "every now and then"}, zap.NewNop())
	if err := s.Start(); err == nil {
		t.Fatal("expected error for invalid cleanup schedule")
	}
}

func TestScheduledRefreshRuns(t *testing.T) {
	stats := &fakeRefresher{}
	s := NewScheduler(stats, nil, Config{StatsSchedule: "@every 1s"}, zap.NewNop())
	if err := s.Start(); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for stats.calls.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	s.Stop()

	if got := stats.calls.Load(); got < 2 {
		t.Fatalf("expected scheduled refresh to run, got %d calls", got)
	}
}

func TestRefreshStatsLogsFailure(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	stats := &fakeRefresher{err: errors.New("store down")}
	s := NewScheduler(stats, nil, Config{}, zap.New(core))

	s.RefreshStats()

	if logs.FilterMessage("stats refresh failed").Len() != 1 {
		t.Fatalf("expected failure to be logged, got %v", logs.All())
	}
}

func TestSweepCallsEverySweeper(t *testing.T) {
	a, b := &fakeSweeper{removed: 2}, &fakeSweeper{removed: 1}
	core, logs := observer.New(zap.DebugLevel)
	s := NewScheduler(nil, []Sweeper{a, b}, Config{}, zap.New(core))

	s.Sweep()

	if a.calls.Load() != 1 || b.calls.Load() != 1 {
		t.Fatalf("expected each sweeper to run once, got %d and %d", a.calls.Load(), b.calls.Load())
	}
	entries := logs.FilterMessage("rate limiter clients swept").All()
	if len(entries) != 1 || entries[0].ContextMap()["removed"] != int64(3) {
		t.Fatalf("expected removed=3 to be logged, got %v", logs.All())
	}
}

func TestStopWithoutJobs(t *testing.T) {
	s := NewScheduler(nil, nil, Config{}, zap.NewNop())
	if err := s.Start(); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	s.Stop()
}
