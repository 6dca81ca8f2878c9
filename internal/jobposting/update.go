package jobposting

import (
	"context"
	"time"

	"github.com/google/uuid"

	"UniJobBoard-backend/internal/apperror"
	"UniJobBoard-backend/internal/auth"
	"UniJobBoard-backend/internal/model"
)

// Patch holds the fields of a partial update. Nil fields are left unchanged.
type Patch struct {
	Title               *string        `json:"title,omitempty"`
	Description         *string        `json:"description,omitempty"`
	Requirements        *string        `json:"requirements,omitempty"`
	Compensation        *string        `json:"compensation,omitempty"`
	Duration            *string        `json:"duration,omitempty"`
	JobType             *model.JobType `json:"job_type,omitempty"`
	Department          *string        `json:"department,omitempty"`
	ApplicationDeadline *time.Time     `json:"application_deadline,omitempty"`
	// ClearDeadline removes the deadline. It wins over ApplicationDeadline.
	ClearDeadline bool  `json:"clear_deadline,omitempty"`
	IsActive      *bool `json:"is_active,omitempty"`
}

// Update merges patch into the posting, stamps updated_at and returns the new
// record. Only the owner or an admin may update a posting.
func (s *Store) Update(ctx context.Context, id uuid.UUID, patch Patch) (*model.JobPosting, error) {
	actor, err := auth.CurrentActor(ctx)
	if err != nil {
		return nil, err
	}

	job, err := s.load(ctx, s.DB.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	if job.PostedBy != actor.ID && !actor.IsAdmin() {
		return nil, apperror.ErrPermissionDenied
	}

	merged := job.EditableJobPostingInfo
	changes := map[string]interface{}{}
	if patch.Title != nil {
		merged.Title = *patch.Title
		changes["title"] = *patch.Title
	}
	if patch.Description != nil {
		merged.Description = *patch.Description
		changes["description"] = *patch.Description
	}
	if patch.Requirements != nil {
		merged.Requirements = patch.Requirements
		changes["requirements"] = *patch.Requirements
	}
	if patch.Compensation != nil {
		merged.Compensation = patch.Compensation
		changes["compensation"] = *patch.Compensation
	}
	if patch.Duration != nil {
		merged.Duration = patch.Duration
		changes["duration"] = *patch.Duration
	}
	if patch.JobType != nil {
		merged.JobType = *patch.JobType
		changes["job_type"] = *patch.JobType
	}
	if patch.Department != nil {
		merged.Department = *patch.Department
		changes["department"] = *patch.Department
	}
	if patch.ClearDeadline {
		merged.ApplicationDeadline = nil
		changes["application_deadline"] = nil
	} else if patch.ApplicationDeadline != nil {
		merged.ApplicationDeadline = patch.ApplicationDeadline
		changes["application_deadline"] = *patch.ApplicationDeadline
	}
	if patch.IsActive != nil {
		changes["is_active"] = *patch.IsActive
	}

	if err := s.validator().Struct(merged); err != nil {
		return nil, apperror.Validation(err)
	}
	changes["updated_at"] = s.now()

	if err := s.DB.WithContext(ctx).
		Model(&model.JobPosting{}).
		Where("id = ?", id).
		Updates(changes).Error; err != nil {
		return nil, apperror.Database(err, "updating job posting")
	}
	s.Cache.InvalidateJobPosting(job.ID, job.PostedBy)

	updated, err := s.load(ctx, s.DB.WithContext(ctx).Preload("Poster"), id)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// SoftDelete retires a posting. Postings are never removed, deleting is the
// same transition as Deactivate.
func (s *Store) SoftDelete(ctx context.Context, id uuid.UUID) (*model.JobPosting, error) {
	return s.Deactivate(ctx, id)
}

// Activate reopens a posting.
func (s *Store) Activate(ctx context.Context, id uuid.UUID) (*model.JobPosting, error) {
	active := true
	return s.Update(ctx, id, Patch{IsActive: &active})
}

// Deactivate closes a posting for new applications.
func (s *Store) Deactivate(ctx context.Context, id uuid.UUID) (*model.JobPosting, error) {
	active := false
	return s.Update(ctx, id, Patch{IsActive: &active})
}
