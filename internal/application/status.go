package application

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"UniJobBoard-backend/internal/apperror"
	"UniJobBoard-backend/internal/auth"
	"UniJobBoard-backend/internal/model"
	"UniJobBoard-backend/internal/utilities"
)

// UpdateStatus moves an application to status and returns the updated record.
// Only the owner of the job, or an admin, may change it. The applicant is
// notified for every status but pending; a failed notification does not fail
// the call. Setting the current status again changes nothing. The write only
// lands if the status is still the one that was checked.
func (w *Workflow) UpdateStatus(ctx context.Context, id uuid.UUID, status model.ApplicationStatus) (*model.Application, error) {
	if !status.Valid() {
		return nil, apperror.Validation(errors.Newf("unknown status %q", status))
	}
	actor, err := auth.CurrentActor(ctx)
	if err != nil {
		return nil, err
	}

	app, err := w.load(ctx, id)
	if err != nil {
		return nil, err
	}
	var job model.JobPosting
	if err := w.DB.WithContext(ctx).
		Select("id", "title", "posted_by").
		Where("id = ?", app.JobID).
		Take(&job).Error; err != nil {
		return nil, apperror.Database(err, "loading job posting")
	}
	if job.PostedBy != actor.ID && !actor.IsAdmin() {
		return nil, apperror.ErrPermissionDenied
	}
	if app.Status == status {
		return app, nil
	}
	if !app.Status.CanTransitionTo(status) {
		return nil, errors.Wrapf(apperror.ErrInvalidState, "cannot move application from %s to %s", app.Status, status)
	}

	now := w.now()
	result := w.DB.WithContext(ctx).
		Model(&model.Application{}).
		Where("id = ? AND status = ?", id, app.Status).
		Updates(map[string]interface{}{"status": status, "updated_at": now})
	if result.Error != nil {
		return nil, apperror.Database(result.Error, "updating application status")
	}
	if result.RowsAffected == 0 {
		return nil, errors.Wrapf(apperror.ErrInvalidState, "application is no longer %s", app.Status)
	}
	app.Status = status
	app.UpdatedAt = now
	w.Cache.InvalidateApplications(app.JobID)

	if status != model.ApplicationStatusPending && w.Notifier != nil {
		err := utilities.BestEffort(ctx, w.SideEffectTimeout, func(ctx context.Context) error {
			return w.Notifier.StatusUpdate(ctx, app, job.Title)
		})
		if err != nil {
			log.Warn().Err(err).Str("application_id", app.ID.String()).Msg("status notification failed")
		}
	}

	return app, nil
}

// BulkUpdateStatus moves every listed application to status in one write and
// returns how many rows changed. No notifications are sent. Either all
// applications pass the ownership and transition checks or nothing is written.
func (w *Workflow) BulkUpdateStatus(ctx context.Context, ids []uuid.UUID, status model.ApplicationStatus) (int64, error) {
	if !status.Valid() {
		return 0, apperror.Validation(errors.Newf("unknown status %q", status))
	}
	actor, err := auth.CurrentActor(ctx)
	if err != nil {
		return 0, err
	}

	unique := make(map[uuid.UUID]struct{}, len(ids))
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, seen := unique[id]; seen {
			continue
		}
		unique[id] = struct{}{}
		keys = append(keys, id.String())
	}
	if len(keys) == 0 {
		return 0, nil
	}
	idArray := pq.Array(keys)

	var apps []model.Application
	if err := w.DB.WithContext(ctx).
		Preload("Job").
		Where("id = ANY(?::uuid[])", idArray).
		Find(&apps).Error; err != nil {
		return 0, apperror.Database(err, "loading applications")
	}
	if len(apps) != len(keys) {
		return 0, apperror.NotFoundf("%d of %d applications", len(keys)-len(apps), len(keys))
	}

	jobs := map[uuid.UUID]struct{}{}
	for _, app := range apps {
		if app.Job == nil || (app.Job.PostedBy != actor.ID && !actor.IsAdmin()) {
			return 0, apperror.ErrPermissionDenied
		}
		if !app.Status.CanTransitionTo(status) {
			return 0, errors.Wrapf(apperror.ErrInvalidState, "cannot move application %s from %s to %s", app.ID, app.Status, status)
		}
		jobs[app.JobID] = struct{}{}
	}

	var updated int64
	err = w.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Application{}).
			Where("id = ANY(?::uuid[]) AND status IN ?", idArray, model.TransitionSources(status)).
			Updates(map[string]interface{}{"status": status, "updated_at": w.now()})
		if result.Error != nil {
			return apperror.Database(result.Error, "updating application statuses")
		}
		if result.RowsAffected != int64(len(keys)) {
			return errors.Wrapf(apperror.ErrInvalidState, "%d of %d applications changed status concurrently", int64(len(keys))-result.RowsAffected, len(keys))
		}
		updated = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	for jobID := range jobs {
		w.Cache.InvalidateApplications(jobID)
	}
	return updated, nil
}
