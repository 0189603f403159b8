package jobs

import (
	"context"
	"fmt"
	"time"

	"randomchallenge/api/internal/models"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// StatsRefresher rebuilds the general stats snapshot.
type StatsRefresher interface {
	Refresh(ctx context.Context) (*models.GeneralStats, error)
}

// Sweeper drops idle per-client state and reports how much it removed.
type Sweeper interface {
	Cleanup() int
}

// Config contains configuration for the scheduler
type Config struct {
	StatsSchedule   string        // Cron spec for the stats refresh (e.g., "@every 5m")
	CleanupSchedule string        // Cron spec for sweeping rate limiter state
	RunTimeout      time.Duration // Upper bound for a single stats refresh
}

// Scheduler runs the periodic maintenance jobs.
type Scheduler struct {
	stats    StatsRefresher
	sweepers []Sweeper
	config   Config
	cron     *cron.Cron
	logger   *zap.Logger
}

func NewScheduler(stats StatsRefresher, sweepers []Sweeper, config Config, logger *zap.Logger) *Scheduler {
	if config.RunTimeout <= 0 {
		config.RunTimeout = 30 * time.Second
	}
	if config.CleanupSchedule == "" {
		config.CleanupSchedule = "@every 10m"
	}
	return &Scheduler{
		stats:    stats,
		sweepers: sweepers,
		config:   config,
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger:   logger,
	}
}

// Start schedules the jobs and refreshes the stats once up front.
func (s *Scheduler) Start() error {
	if s.stats != nil && s.config.StatsSchedule != "" {
		if _, err := s.cron.AddFunc(s.config.StatsSchedule, s.RefreshStats); err != nil {
			return fmt.Errorf("failed to schedule stats refresh: %w", err)
		}
		s.RefreshStats()
	}
	if len(s.sweepers) > 0 {
		if _, err := s.cron.AddFunc(s.config.CleanupSchedule, s.Sweep); err != nil {
			return fmt.Errorf("failed to schedule rate limiter cleanup: %w", err)
		}
	}
	s.cron.Start()
	s.logger.Info("scheduler started",
		zap.String("stats_schedule", s.config.StatsSchedule),
		zap.String("cleanup_schedule", s.config.CleanupSchedule))
	return nil
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// RefreshStats performs a single stats refresh. Failures are logged; the
// previous snapshot keeps being served.
func (s *Scheduler) RefreshStats() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.RunTimeout)
	defer cancel()

	start := time.Now()
	stats, err := s.stats.Refresh(ctx)
	if err != nil {
		s.logger.Warn("stats refresh failed", zap.Error(err))
		return
	}
	s.logger.Debug("stats refreshed",
		zap.Int64("challenges", stats.Overview.TotalChallenges),
		zap.Duration("took", time.Since(start)))
}

func (s *Scheduler) Sweep() {
	removed := 0
	for _, sw := range s.sweepers {
		removed += sw.Cleanup()
	}
	if removed > 0 {
		s.logger.Debug("rate limiter clients swept", zap.Int("removed", removed))
	}
}
