// Package sweeper runs the periodic background jobs: finalizing study
// sessions nobody touched for a while and, optionally, re-syncing deck
// sources.
package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// SessionSweeper finalizes sessions idle for longer than the given duration.
type SessionSweeper interface {
	SweepAbandoned(ctx context.Context, idle time.Duration) (int, error)
}

// SourceSyncer reconciles deck sources.
type SourceSyncer interface {
	RunSync(ctx context.Context) error
}

// SyncFunc adapts a plain function to SourceSyncer.
type SyncFunc func(ctx context.Context) error

// RunSync calls f(ctx).
func (f SyncFunc) RunSync(ctx context.Context) error { return f(ctx) }

// Config controls the job intervals. A zero SyncEvery disables source sync.
type Config struct {
	AbandonAfter time.Duration
	SweepEvery   time.Duration
	SyncEvery    time.Duration
}

// Scheduler manages scheduled tasks for the application.
type Scheduler struct {
	scheduler *gocron.Scheduler
	sessions  SessionSweeper
	sources   SourceSyncer
	cfg       Config
	logger    *slog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
}

// New creates a scheduler. sources may be nil.
func New(sessions SessionSweeper, sources SourceSyncer, cfg Config, logger *slog.Logger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		scheduler: s,
		sessions:  sessions,
		sources:   sources,
		cfg:       cfg,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start registers the jobs and runs them in the background.
func (s *Scheduler) Start() error {
	if s.cfg.SweepEvery <= 0 || s.cfg.AbandonAfter <= 0 {
		return fmt.Errorf("invalid sweep schedule: every %s, abandon after %s", s.cfg.SweepEvery, s.cfg.AbandonAfter)
	}
	if _, err := s.scheduler.Every(s.cfg.SweepEvery).WaitForSchedule().Do(s.SweepOnce); err != nil {
		return fmt.Errorf("failed to schedule session sweep: %w", err)
	}
	if s.sources != nil && s.cfg.SyncEvery > 0 {
		if _, err := s.scheduler.Every(s.cfg.SyncEvery).WaitForSchedule().Do(s.SyncOnce); err != nil {
			return fmt.Errorf("failed to schedule source sync: %w", err)
		}
	}

	s.scheduler.StartAsync()
	s.logger.Info("background jobs started",
		"sweep_every", s.cfg.SweepEvery,
		"abandon_after", s.cfg.AbandonAfter,
		"sync_every", s.cfg.SyncEvery,
	)
	return nil
}

// Stop terminates all scheduled tasks and cancels any running job.
func (s *Scheduler) Stop() {
	s.cancel()
	s.scheduler.Stop()
}

// SweepOnce finalizes abandoned sessions. It logs instead of returning errors
// because it runs as a scheduled job.
func (s *Scheduler) SweepOnce() {
	n, err := s.sessions.SweepAbandoned(s.ctx, s.cfg.AbandonAfter)
	if err != nil {
		s.logger.Error("session sweep failed", "finalized", n, "error", err)
		return
	}
	if n > 0 {
		s.logger.Info("abandoned sessions finalized", "count", n)
	}
}

// SyncOnce reconciles every deck source.
func (s *Scheduler) SyncOnce() {
	if err := s.sources.RunSync(s.ctx); err != nil {
		s.logger.Error("scheduled source sync failed", "error", err)
	}
}
