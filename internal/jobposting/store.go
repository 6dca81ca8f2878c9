// Package jobposting stores job postings: creation, cached reads, filtered
// listings, owner edits and the deadline driven closure.
package jobposting

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"UniJobBoard-backend/internal/apperror"
	"UniJobBoard-backend/internal/auth"
	"UniJobBoard-backend/internal/cache"
	"UniJobBoard-backend/internal/database"
	"UniJobBoard-backend/internal/model"
)

// Notifier announces new postings. AnnounceJob must not block on delivery.
type Notifier interface {
	AnnounceJob(ctx context.Context, job *model.JobPosting)
}

// Stats counts one owner's postings.
type Stats struct {
	Active   int64 `json:"active"`
	Inactive int64 `json:"inactive"`
	Total    int64 `json:"total"`
}

// Store is the job posting store. Reads go through Cache, every write
// invalidates the keys that could hold the written posting.
type Store struct {
	DB       *database.DBinstanceStruct
	Cache    *cache.Cache
	Notifier Notifier

	// TTL of cached reads. Zero uses the cache default.
	TTL time.Duration
	Now func() time.Time

	validate *validator.Validate
}

// NewStore creates a store. notifier may be nil.
func NewStore(db *database.DBinstanceStruct, c *cache.Cache, notifier Notifier) *Store {
	return &Store{
		DB:       db,
		Cache:    c,
		Notifier: notifier,
		Now:      time.Now,
		validate: validator.New(),
	}
}

func (s *Store) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *Store) validator() *validator.Validate {
	if s.validate == nil {
		s.validate = validator.New()
	}
	return s.validate
}

// Create inserts a posting owned by the current actor. The posting always
// starts active. Students matching the department are notified afterwards;
// a failed broadcast does not fail the call.
func (s *Store) Create(ctx context.Context, info model.EditableJobPostingInfo) (*model.JobPosting, error) {
	actor, err := auth.CurrentActor(ctx)
	if err != nil {
		return nil, err
	}
	if !actor.CanPostJobs() {
		return nil, apperror.ErrPermissionDenied
	}
	if err := s.validator().Struct(info); err != nil {
		return nil, apperror.Validation(err)
	}

	job := &model.JobPosting{
		EditableJobPostingInfo: info,
		IsActive:               true,
		PostedBy:               actor.ID,
	}
	if err := s.DB.WithContext(ctx).Omit(clause.Associations).Create(job).Error; err != nil {
		if database.IsForeignKeyViolation(err) {
			return nil, apperror.NotFoundf("profile %s", actor.ID)
		}
		return nil, apperror.Database(err, "creating job posting")
	}
	s.Cache.InvalidateJobPosting(job.ID, job.PostedBy)

	if s.Notifier != nil {
		s.Notifier.AnnounceJob(ctx, job)
	}

	return job, nil
}

// Get returns a posting with a live count of its applications.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*model.JobPostingDetail, error) {
	job, err := cache.Fetch(s.Cache, cache.JobDetailKey(id), s.TTL, func() (model.JobPosting, error) {
		return s.load(ctx, s.DB.WithContext(ctx).Preload("Poster"), id)
	})
	if err != nil {
		return nil, err
	}

	var count int64
	if err := s.DB.WithContext(ctx).
		Model(&model.Application{}).
		Where("job_id = ?", id).
		Count(&count).Error; err != nil {
		return nil, apperror.Database(err, "counting applications")
	}

	return &model.JobPostingDetail{JobPosting: job, ApplicationCount: count}, nil
}

func (s *Store) load(ctx context.Context, q *gorm.DB, id uuid.UUID) (model.JobPosting, error) {
	var job model.JobPosting
	if err := q.Where("id = ?", id).First(&job).Error; err != nil {
		if database.IsNotFound(err) {
			return job, apperror.NotFoundf("job posting %s", id)
		}
		return job, apperror.Database(err, "loading job posting")
	}
	return job, nil
}

// Stats counts the active and inactive postings of owner.
func (s *Store) Stats(ctx context.Context, owner uuid.UUID) (Stats, error) {
	return cache.Fetch(s.Cache, cache.JobStatsKey(owner), s.TTL, func() (Stats, error) {
		var rows []struct {
			IsActive bool
			Count    int64
		}
		if err := s.DB.WithContext(ctx).
			Model(&model.JobPosting{}).
			Select("is_active, count(*) AS count").
			Where("posted_by = ?", owner).
			Group("is_active").
			Scan(&rows).Error; err != nil {
			return Stats{}, apperror.Database(err, "counting job postings")
		}

		var st Stats
		for _, r := range rows {
			if r.IsActive {
				st.Active = r.Count
			} else {
				st.Inactive = r.Count
			}
		}
		st.Total = st.Active + st.Inactive
		return st, nil
	})
}

// Departments lists the distinct departments of active postings.
func (s *Store) Departments(ctx context.Context) ([]string, error) {
	return cache.Fetch(s.Cache, cache.JobDepartmentsKey, s.TTL, func() ([]string, error) {
		departments := []string{}
		if err := s.DB.WithContext(ctx).
			Model(&model.JobPosting{}).
			Where("is_active = ?", true).
			Distinct("department").
			Order("department").
			Pluck("department", &departments).Error; err != nil {
			return nil, apperror.Database(err, "listing departments")
		}
		return departments, nil
	})
}

// CloseExpired deactivates every active posting whose deadline lies strictly
// before now and returns how many were closed. Nothing is written when none
// qualify.
func (s *Store) CloseExpired(ctx context.Context) (int64, error) {
	now := s.now()

	var expired []model.JobPosting
	if err := s.DB.WithContext(ctx).
		Select("id", "posted_by").
		Where("is_active = ? AND application_deadline IS NOT NULL AND application_deadline < ?", true, now).
		Find(&expired).Error; err != nil {
		return 0, apperror.Database(err, "finding expired job postings")
	}
	if len(expired) == 0 {
		return 0, nil
	}

	ids := make([]uuid.UUID, 0, len(expired))
	for _, j := range expired {
		ids = append(ids, j.ID)
	}

	result := s.DB.WithContext(ctx).
		Model(&model.JobPosting{}).
		Where("id IN ? AND is_active = ?", ids, true).
		Updates(map[string]interface{}{"is_active": false, "updated_at": now})
	if result.Error != nil {
		return 0, apperror.Database(result.Error, "closing expired job postings")
	}

	for _, j := range expired {
		s.Cache.InvalidateJobPosting(j.ID, j.PostedBy)
	}
	return result.RowsAffected, nil
}
