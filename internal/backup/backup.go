// Package backup runs scheduled backups of the CSV ledger file.
package backup

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/recoup/coupon-engine/internal/metrics"
)

// Archiver is the slice of the CSV store the scheduler needs.
type Archiver interface {
	Backup() (string, error)
	PruneBackups(keep int) (int, error)
}

// Scheduler manages the cron-driven backup task.
type Scheduler struct {
	cron     *cron.Cron
	archiver Archiver
	keep     int
}

// NewScheduler creates a backup scheduler. keep is the number of
// timestamped backups retained after each run.
func NewScheduler(archiver Archiver, keep int) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		archiver: archiver,
		keep:     keep,
	}
}

// Register schedules the backup task. spec is a six-field cron
// expression (with seconds).
func (s *Scheduler) Register(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return fmt.Errorf("register backup task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	slog.Info("backup scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	slog.Info("backup scheduler stopped")
}

// RunNow executes the backup task immediately (for manual trigger).
func (s *Scheduler) RunNow() {
	s.run()
}

func (s *Scheduler) run() {
	runID := uuid.New().String()

	path, err := s.archiver.Backup()
	if err != nil {
		metrics.Backups.WithLabelValues("error").Inc()
		slog.Error("ledger backup failed", "run_id", runID, "error", err)
		return
	}
	if path == "" {
		// Nothing to back up yet.
		metrics.Backups.WithLabelValues("skipped").Inc()
		slog.Info("ledger backup skipped, no ledger file", "run_id", runID)
		return
	}

	pruned, err := s.archiver.PruneBackups(s.keep)
	if err != nil {
		metrics.Backups.WithLabelValues("error").Inc()
		slog.Error("backup pruning failed", "run_id", runID, "backup", path, "error", err)
		return
	}

	metrics.Backups.WithLabelValues("ok").Inc()
	slog.Info("ledger backed up", "run_id", runID, "backup", path, "pruned", pruned, "keep", s.keep)
}
