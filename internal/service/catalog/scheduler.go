package catalog

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"querypilot/internal/domain"
)

const scheduledReloadTimeout = 2 * time.Minute

// Reloader rebuilds the catalog state.
type Reloader interface {
	Reload(ctx context.Context) (*domain.CatalogState, error)
}

// Scheduler reloads the catalog on a cron schedule.
type Scheduler struct {
	cron     *cron.Cron
	reloader Reloader
	spec     string
	logger   *slog.Logger
}

// NewScheduler validates the cron spec and registers the reload job.
func NewScheduler(reloader Reloader, spec string, logger *slog.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:     cron.New(),
		reloader: reloader,
		spec:     spec,
		logger:   logger.With("component", "catalog-scheduler"),
	}
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return nil, domain.ErrValidation("invalid schema reload schedule %q: %v", spec, err)
	}
	return s, nil
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), scheduledReloadTimeout)
	defer cancel()
	if _, err := s.reloader.Reload(ctx); err != nil {
		s.logger.Warn("scheduled catalog reload failed", "error", err)
		return
	}
	s.logger.Debug("scheduled catalog reload done")
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("catalog scheduler started", "schedule", s.spec)
}

// Stop stops the scheduler and waits for a running reload to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("catalog scheduler stopped")
}

// Next reports the next scheduled reload time.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}
