// Package scheduler runs the periodic maintenance jobs: the promotion sweep
// and the weekly class snapshot.
package scheduler

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/pavelanni/pacer/internal/model"
	"github.com/pavelanni/pacer/internal/progress"
)

// Store is the persistence the jobs need.
type Store interface {
	Snapshot() (model.Snapshot, error)
	ApplyPromotions(profiles []model.Profile) error
	SaveWeeklySnapshot(weekStart, takenAt time.Time, summary any) (int64, error)
}

// Config holds the cron specs. An empty spec disables the job.
type Config struct {
	PromotionSpec string // e.g. "0 3 * * *", daily at 03:00
	SnapshotSpec  string // e.g. "0 22 * * 6", Saturday at 22:00
}

type Scheduler struct {
	cron    *cron.Cron
	store   Store
	tracker *progress.Tracker
}

// New registers the configured jobs. Cron times follow the tracker's calendar
// location.
func New(s Store, t *progress.Tracker, cfg Config) (*Scheduler, error) {
	loc := t.Calendar().Location
	if loc == nil {
		loc = time.UTC
	}
	sch := &Scheduler{
		cron:    cron.New(cron.WithLocation(loc)),
		store:   s,
		tracker: t,
	}

	if cfg.PromotionSpec != "" {
		if _, err := sch.cron.AddFunc(cfg.PromotionSpec, func() {
			if _, err := sch.RunPromotions(); err != nil {
				slog.Error("promotion sweep failed", "error", err)
			}
		}); err != nil {
			return nil, fmt.Errorf("add promotion job %q: %w", cfg.PromotionSpec, err)
		}
	}
	if cfg.SnapshotSpec != "" {
		if _, err := sch.cron.AddFunc(cfg.SnapshotSpec, func() {
			if _, err := sch.RunWeeklySnapshot(); err != nil {
				slog.Error("weekly snapshot failed", "error", err)
			}
		}); err != nil {
			return nil, fmt.Errorf("add snapshot job %q: %w", cfg.SnapshotSpec, err)
		}
	}
	return sch, nil
}

// Start runs the jobs in the background.
func (s *Scheduler) Start() {
	slog.Info("starting scheduler", "jobs", len(s.cron.Entries()))
	s.cron.Start()
}

// Stop stops scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	slog.Info("scheduler stopped")
}

// RunPromotions moves every student who finished their module to the queued
// next module and returns the promotions applied.
func (s *Scheduler) RunPromotions() ([]progress.Promotion, error) {
	snap, err := s.store.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	promos := progress.Promotions(snap)
	if len(promos) == 0 {
		slog.Debug("no students to promote")
		return nil, nil
	}

	profiles := make([]model.Profile, len(promos))
	for i, p := range promos {
		profiles[i] = p.Profile
	}
	if err := s.store.ApplyPromotions(profiles); err != nil {
		return nil, fmt.Errorf("apply promotions: %w", err)
	}
	for _, p := range promos {
		slog.Info("promoted student", "id", p.Profile.ID, "from", p.FromModule, "to", p.Profile.ModuleID)
	}
	return promos, nil
}

// RunWeeklySnapshot stores the current week's class summary.
func (s *Scheduler) RunWeeklySnapshot() (int64, error) {
	snap, err := s.store.Snapshot()
	if err != nil {
		return 0, fmt.Errorf("load snapshot: %w", err)
	}
	sum := s.tracker.ClassWeek(snap, 0)
	id, err := s.store.SaveWeeklySnapshot(sum.WeekStart, s.tracker.Now(), sum)
	if err != nil {
		return 0, fmt.Errorf("save snapshot: %w", err)
	}
	slog.Info("saved weekly snapshot", "id", id, "week", sum.WeekStart.Format(time.DateOnly), "students", len(sum.Students))
	return id, nil
}
