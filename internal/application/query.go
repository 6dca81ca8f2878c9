package application

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"UniJobBoard-backend/internal/apperror"
	"UniJobBoard-backend/internal/auth"
	"UniJobBoard-backend/internal/cache"
	"UniJobBoard-backend/internal/database"
	"UniJobBoard-backend/internal/model"
)

func (w *Workflow) withProjections(ctx context.Context) *gorm.DB {
	return w.DB.WithContext(ctx).
		Preload("Applicant").
		Preload("Job").
		Preload("Job.Poster")
}

// Get returns one application with its applicant and its job and job owner.
func (w *Workflow) Get(ctx context.Context, id uuid.UUID) (*model.Application, error) {
	var app model.Application
	if err := w.withProjections(ctx).Where("id = ?", id).First(&app).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, apperror.NotFoundf("application %s", id)
		}
		return nil, apperror.Database(err, "loading application")
	}
	return &app, nil
}

// ListByJob returns the applications to a job, newest first.
func (w *Workflow) ListByJob(ctx context.Context, jobID uuid.UUID) ([]model.Application, error) {
	return w.list(ctx, "job_id = ?", jobID)
}

// ListByApplicant returns the applications of one applicant, newest first.
func (w *Workflow) ListByApplicant(ctx context.Context, applicantID uuid.UUID) ([]model.Application, error) {
	return w.list(ctx, "applicant_id = ?", applicantID)
}

func (w *Workflow) list(ctx context.Context, where string, arg interface{}) ([]model.Application, error) {
	apps := []model.Application{}
	if err := w.withProjections(ctx).
		Where(where, arg).
		Order("applied_at DESC").
		Find(&apps).Error; err != nil {
		return nil, apperror.Database(err, "listing applications")
	}
	return apps, nil
}

// HasApplied reports whether applicantID already applied to jobID. A nil
// applicantID means the current actor. It never fails: an anonymous caller, a
// missing application and a backend error all answer false.
func (w *Workflow) HasApplied(ctx context.Context, jobID uuid.UUID, applicantID *uuid.UUID) bool {
	var applicant uuid.UUID
	if applicantID != nil {
		applicant = *applicantID
	} else {
		actor, err := auth.CurrentActor(ctx)
		if err != nil {
			return false
		}
		applicant = actor.ID
	}

	var app model.Application
	err := w.DB.WithContext(ctx).
		Select("id").
		Where("job_id = ? AND applicant_id = ?", jobID, applicant).
		Take(&app).Error
	if err != nil {
		if !database.IsNotFound(err) {
			log.Error().
				Err(err).
				Str("job_id", jobID.String()).
				Str("applicant_id", applicant.String()).
				Msg("has applied probe failed")
		}
		return false
	}
	return true
}

// Stats counts the applications of a job per status.
func (w *Workflow) Stats(ctx context.Context, jobID uuid.UUID) (model.ApplicationStats, error) {
	return cache.Fetch(w.Cache, cache.ApplicationStatsKey(jobID), w.TTL, func() (model.ApplicationStats, error) {
		var rows []struct {
			Status model.ApplicationStatus
			Count  int64
		}
		if err := w.DB.WithContext(ctx).
			Model(&model.Application{}).
			Select("status, count(*) AS count").
			Where("job_id = ?", jobID).
			Group("status").
			Scan(&rows).Error; err != nil {
			return model.ApplicationStats{}, apperror.Database(err, "counting applications")
		}

		var st model.ApplicationStats
		for _, r := range rows {
			switch r.Status {
			case model.ApplicationStatusPending:
				st.Pending = r.Count
			case model.ApplicationStatusReviewed:
				st.Reviewed = r.Count
			case model.ApplicationStatusAccepted:
				st.Accepted = r.Count
			case model.ApplicationStatusRejected:
				st.Rejected = r.Count
			}
			st.Total += r.Count
		}
		return st, nil
	})
}

// NeedingAttention returns the applications still pending after the attention
// threshold, oldest first.
func (w *Workflow) NeedingAttention(ctx context.Context) ([]model.Application, error) {
	threshold := w.AttentionThreshold
	if threshold <= 0 {
		threshold = DefaultAttentionThreshold
	}
	cutoff := w.now().Add(-threshold)

	apps := []model.Application{}
	if err := w.DB.WithContext(ctx).
		Where("status = ? AND applied_at < ?", model.ApplicationStatusPending, cutoff).
		Order("applied_at ASC").
		Find(&apps).Error; err != nil {
		return nil, apperror.Database(err, "finding applications needing attention")
	}
	return apps, nil
}
