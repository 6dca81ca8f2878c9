// Package scheduler runs the periodic deadline sweep: closing job postings
// past their deadline and flagging applications left pending too long.
package scheduler

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"UniJobBoard-backend/internal/model"
)

const sweepLockKey = "unijobboard:scheduler:sweep"

// JobCloser closes postings whose deadline has passed.
type JobCloser interface {
	CloseExpired(ctx context.Context) (int64, error)
}

// AttentionFinder finds applications left pending too long.
type AttentionFinder interface {
	NeedingAttention(ctx context.Context) ([]model.Application, error)
}

// Locker keeps two instances from sweeping at the same time. Acquire reports
// false when another holder has the lock.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), acquired bool, err error)
}

// Enforcer is the deadline enforcer.
type Enforcer struct {
	Jobs         JobCloser
	Applications AttentionFinder

	// Locker is optional. Without it every instance sweeps; closing is
	// idempotent so duplicate sweeps only waste work.
	Locker  Locker
	LockTTL time.Duration
}

// NewEnforcer creates an enforcer without a lock.
func NewEnforcer(jobs JobCloser, applications AttentionFinder) *Enforcer {
	return &Enforcer{
		Jobs:         jobs,
		Applications: applications,
		LockTTL:      5 * time.Minute,
	}
}

// RunDeadlineEnforcement closes every expired posting and returns how many
// were closed.
func (e *Enforcer) RunDeadlineEnforcement(ctx context.Context) (int64, error) {
	closed, err := e.Jobs.CloseExpired(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "closing expired job postings")
	}
	log.Info().Int64("closed", closed).Msg("deadline enforcement finished")
	return closed, nil
}

// CheckApplicationsNeedingAttention logs every application pending past the
// threshold and returns their ids.
// TODO: send a deadline_reminder to the job owner for each flagged application.
func (e *Enforcer) CheckApplicationsNeedingAttention(ctx context.Context) ([]uuid.UUID, error) {
	apps, err := e.Applications.NeedingAttention(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "finding applications needing attention")
	}

	ids := make([]uuid.UUID, 0, len(apps))
	for _, app := range apps {
		log.Info().
			Str("application_id", app.ID.String()).
			Str("job_id", app.JobID.String()).
			Time("applied_at", app.AppliedAt).
			Msg("application needs attention")
		ids = append(ids, app.ID)
	}
	return ids, nil
}

// RunScheduledTasks runs the deadline enforcement and then the attention check.
// An error in the first step skips the second.
func (e *Enforcer) RunScheduledTasks(ctx context.Context) error {
	if e.Locker != nil {
		release, acquired, err := e.Locker.Acquire(ctx, sweepLockKey, e.LockTTL)
		if err != nil {
			return errors.Wrap(err, "acquiring sweep lock")
		}
		if !acquired {
			log.Info().Msg("another instance is sweeping, skipping this cycle")
			return nil
		}
		defer release()
	}

	if _, err := e.RunDeadlineEnforcement(ctx); err != nil {
		return err
	}
	if _, err := e.CheckApplicationsNeedingAttention(ctx); err != nil {
		return err
	}
	return nil
}
