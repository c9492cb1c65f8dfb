// Package scheduler runs the two administrator-invoked background jobs
// that rebuild or prune state no individual request is responsible for:
// the §4.9 morpheme cross-reference rebuild and the §4.11 backup
// retention sweep. Both run on a robfig/cron schedule rather than in
// response to any HTTP request.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/dativebase/old/pkg/observability"
	"github.com/dativebase/old/pkg/store"
)

// Scheduler wraps a cron.Cron configured with the jobs this instance
// runs. Stop is safe to call even if Start was never called.
type Scheduler struct {
	cron   *cron.Cron
	logger *observability.Logger
}

// New builds a Scheduler and registers its jobs, but does not start
// them; call Start to begin running on schedule.
func New(forms *store.FormStore, backups *store.Store, morphemeRebuildSchedule, backupSweepSchedule string,
	backupRetention time.Duration, delimiters []string, logger *observability.Logger) (*Scheduler, error) {

	c := cron.New()

	if _, err := c.AddFunc(morphemeRebuildSchedule, func() {
		ctx := context.Background()
		logger.Info("starting scheduled morpheme reference rebuild")
		updated, err := forms.RebuildMorphemeReferences(ctx, delimiters)
		if err != nil {
			logger.WithError(err).Error("morpheme reference rebuild failed")
			return
		}
		logger.WithField("forms_updated", updated).Info("morpheme reference rebuild completed")
	}); err != nil {
		return nil, err
	}

	if _, err := c.AddFunc(backupSweepSchedule, func() {
		ctx := context.Background()
		logger.Info("starting scheduled backup retention sweep")
		removed, err := backups.PruneBackups(ctx, backupRetention)
		if err != nil {
			logger.WithError(err).Error("backup retention sweep failed")
			return
		}
		logger.WithField("rows_removed", removed).Info("backup retention sweep completed")
	}); err != nil {
		return nil, err
	}

	return &Scheduler{cron: c, logger: logger}, nil
}

// Start begins running registered jobs on their schedules.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler")
	s.cron.Start()
}

// Stop halts the scheduler, waiting for any in-flight job to finish or
// ctx to expire, whichever comes first.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.logger.Info("stopping scheduler")
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
