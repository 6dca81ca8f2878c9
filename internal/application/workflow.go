// Package application runs the application lifecycle: gated submission with
// duplicate prevention, résumé attachment, owner driven status changes and
// withdrawal by the applicant.
//
// Side effects (résumé upload, notifications) happen after the row is written.
// They are logged when they fail and never fail the call.
package application

import (
	"context"
	"io"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm/clause"

	"UniJobBoard-backend/internal/apperror"
	"UniJobBoard-backend/internal/auth"
	"UniJobBoard-backend/internal/cache"
	"UniJobBoard-backend/internal/database"
	"UniJobBoard-backend/internal/model"
	"UniJobBoard-backend/internal/storage"
	"UniJobBoard-backend/internal/utilities"
)

// DefaultAttentionThreshold is how long an application may stay pending
// before NeedingAttention reports it.
const DefaultAttentionThreshold = 7 * 24 * time.Hour

// Notifier tells job owners and applicants about application events.
type Notifier interface {
	ApplicationReceived(ctx context.Context, job *model.JobPosting, app *model.Application) error
	StatusUpdate(ctx context.Context, app *model.Application, jobTitle string) error
}

// Workflow is the application workflow.
type Workflow struct {
	DB       *database.DBinstanceStruct
	Cache    *cache.Cache
	Storage  storage.ObjectStore
	Notifier Notifier

	TTL                time.Duration
	AttentionThreshold time.Duration
	SideEffectTimeout  time.Duration
	Now                func() time.Time
}

// NewWorkflow creates a workflow. objects and notifier may be nil, which
// disables résumé storage and notifications respectively.
func NewWorkflow(db *database.DBinstanceStruct, c *cache.Cache, objects storage.ObjectStore, notifier Notifier) *Workflow {
	return &Workflow{
		DB:                 db,
		Cache:              c,
		Storage:            objects,
		Notifier:           notifier,
		AttentionThreshold: DefaultAttentionThreshold,
		Now:                time.Now,
	}
}

func (w *Workflow) now() time.Time {
	if w.Now == nil {
		return time.Now()
	}
	return w.Now()
}

// ResumeFile is an uploaded résumé.
type ResumeFile struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// CreateInput is a new application. ApplicantID defaults to the current actor.
type CreateInput struct {
	JobID       uuid.UUID
	ApplicantID uuid.UUID
	CoverLetter string
	Resume      *ResumeFile
}

// Create submits an application. Authentication, duplicate, activity and
// deadline checks all run before anything is written. Once the row is
// inserted the call succeeds; the résumé upload and the owner notification
// that follow are best effort.
func (w *Workflow) Create(ctx context.Context, in CreateInput) (*model.Application, error) {
	actor, err := auth.CurrentActor(ctx)
	if err != nil {
		return nil, err
	}
	if in.ApplicantID == uuid.Nil {
		in.ApplicantID = actor.ID
	}
	if in.ApplicantID != actor.ID {
		return nil, apperror.ErrPermissionDenied
	}

	var existing model.Application
	err = w.DB.WithContext(ctx).
		Select("id").
		Where("job_id = ? AND applicant_id = ?", in.JobID, in.ApplicantID).
		Take(&existing).Error
	switch {
	case err == nil:
		return nil, apperror.ErrDuplicateApplication
	case !database.IsNotFound(err):
		return nil, apperror.Database(err, "checking existing application")
	}

	var job model.JobPosting
	if err := w.DB.WithContext(ctx).
		Select("id", "title", "is_active", "application_deadline", "posted_by").
		Where("id = ?", in.JobID).
		Take(&job).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, apperror.NotFoundf("job posting %s", in.JobID)
		}
		return nil, apperror.Database(err, "loading job posting")
	}
	now := w.now()
	if !job.IsActive {
		return nil, apperror.ErrJobInactive
	}
	if job.DeadlinePassed(now) {
		return nil, apperror.ErrDeadlinePassed
	}

	app := &model.Application{
		JobID:       in.JobID,
		ApplicantID: in.ApplicantID,
		CoverLetter: in.CoverLetter,
		Status:      model.ApplicationStatusPending,
		AppliedAt:   now,
		UpdatedAt:   now,
	}
	if err := w.DB.WithContext(ctx).Omit(clause.Associations).Create(app).Error; err != nil {
		switch {
		case database.IsUniqueViolation(err):
			// lost the race against a concurrent submission of the same pair
			return nil, apperror.ErrDuplicateApplication
		case database.IsForeignKeyViolation(err):
			return nil, apperror.NotFoundf("job posting %s or profile %s", in.JobID, in.ApplicantID)
		}
		return nil, apperror.Database(err, "creating application")
	}
	w.Cache.InvalidateApplications(app.JobID)

	logger := log.With().
		Str("application_id", app.ID.String()).
		Str("job_id", app.JobID.String()).
		Logger()

	if in.Resume != nil {
		err := utilities.BestEffort(ctx, w.SideEffectTimeout, func(ctx context.Context) error {
			return w.attachResume(ctx, app, in.Resume)
		})
		if err != nil {
			logger.Warn().Err(err).Msg("résumé attachment failed")
		}
	}

	if w.Notifier != nil {
		err := utilities.BestEffort(ctx, w.SideEffectTimeout, func(ctx context.Context) error {
			return w.Notifier.ApplicationReceived(ctx, &job, app)
		})
		if err != nil {
			logger.Warn().Err(err).Msg("owner notification failed")
		}
	}

	return app, nil
}

// attachResume uploads the file and records its URL on the application.
func (w *Workflow) attachResume(ctx context.Context, app *model.Application, file *ResumeFile) error {
	if w.Storage == nil {
		return errors.Mark(errors.New("no object store configured"), apperror.ErrAttachmentFailure)
	}

	key := storage.ResumeObjectName(app.ApplicantID, app.ID, file.Filename)
	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if err := w.Storage.Upload(ctx, key, file.Body, contentType); err != nil {
		return errors.Mark(errors.Wrap(err, "uploading résumé"), apperror.ErrAttachmentFailure)
	}

	url := w.Storage.PublicURL(key)
	if err := w.DB.WithContext(ctx).
		Model(&model.Application{}).
		Where("id = ?", app.ID).
		Update("resume_url", url).Error; err != nil {
		return errors.Mark(errors.Wrap(err, "saving résumé url"), apperror.ErrAttachmentFailure)
	}
	app.ResumeURL = &url
	return nil
}

// Delete withdraws an application. Only its applicant may do so, and only
// while it is still pending. Stored résumé objects are removed best effort.
func (w *Workflow) Delete(ctx context.Context, id uuid.UUID) error {
	actor, err := auth.CurrentActor(ctx)
	if err != nil {
		return err
	}

	app, err := w.load(ctx, id)
	if err != nil {
		return err
	}
	if app.ApplicantID != actor.ID {
		return apperror.ErrPermissionDenied
	}
	if app.Status != model.ApplicationStatusPending {
		return errors.Wrapf(apperror.ErrInvalidState, "application is %s", app.Status)
	}

	if w.Storage != nil {
		err := utilities.BestEffort(ctx, w.SideEffectTimeout, func(ctx context.Context) error {
			_, err := w.Storage.DeletePrefix(ctx, storage.ResumePrefix(app.ApplicantID, app.ID))
			return err
		})
		if err != nil {
			log.Warn().
				Err(errors.Mark(err, apperror.ErrAttachmentFailure)).
				Str("application_id", app.ID.String()).
				Msg("résumé removal failed")
		}
	}

	result := w.DB.WithContext(ctx).
		Where("id = ? AND status = ?", id, model.ApplicationStatusPending).
		Delete(&model.Application{})
	if result.Error != nil {
		return apperror.Database(result.Error, "deleting application")
	}
	if result.RowsAffected == 0 {
		return errors.Wrap(apperror.ErrInvalidState, "application is no longer pending")
	}
	w.Cache.InvalidateApplications(app.JobID)
	return nil
}

func (w *Workflow) load(ctx context.Context, id uuid.UUID) (*model.Application, error) {
	var app model.Application
	if err := w.DB.WithContext(ctx).Where("id = ?", id).Take(&app).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, apperror.NotFoundf("application %s", id)
		}
		return nil, apperror.Database(err, "loading application")
	}
	return &app, nil
}
