package scheduler

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/robfig/cron/v3"

	"UniJobBoard-backend/internal/logger"
)

// Start runs RunScheduledTasks on the cron spec until ctx is done. Overlapping
// runs inside one process are skipped. The returned channel is closed once the
// scheduler has stopped and the running sweep, if any, finished.
func (e *Enforcer) Start(ctx context.Context, spec string) (<-chan struct{}, error) {
	log := logger.Component("scheduler")
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(spec, func() {
		if err := e.RunScheduledTasks(ctx); err != nil {
			log.Error().Err(err).Msg("scheduled sweep failed")
		}
	}); err != nil {
		return nil, errors.Wrapf(err, "invalid schedule %q", spec)
	}
	c.Start()
	log.Info().Str("spec", spec).Msg("deadline scheduler started")

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		<-c.Stop().Done()
		log.Info().Msg("deadline scheduler stopped")
	}()
	return done, nil
}
