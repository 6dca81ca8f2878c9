package jobposting

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"UniJobBoard-backend/internal/apperror"
	"UniJobBoard-backend/internal/cache"
	"UniJobBoard-backend/internal/model"
)

// Pagination defaults.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// SortField is a column listings can be ordered by.
type SortField string

// Sortable fields
const (
	SortCreatedAt    SortField = "created_at"
	SortTitle        SortField = "title"
	SortDepartment   SortField = "department"
	SortCompensation SortField = "compensation"
	SortDeadline     SortField = "deadline"
)

var sortColumns = map[SortField]string{
	SortCreatedAt:    "created_at",
	SortTitle:        "title",
	SortDepartment:   "department",
	SortCompensation: "compensation",
	SortDeadline:     "application_deadline",
}

// ListQuery is the full filter and pagination tuple of a listing. Its JSON
// form is the cache key.
type ListQuery struct {
	Search       string        `json:"search,omitempty"`
	Department   string        `json:"department,omitempty"`
	JobType      model.JobType `json:"job_type,omitempty"`
	IsActive     *bool         `json:"is_active,omitempty"`
	PostedBy     *uuid.UUID    `json:"posted_by,omitempty"`
	DeadlineFrom *time.Time    `json:"deadline_from,omitempty"`
	DeadlineTo   *time.Time    `json:"deadline_to,omitempty"`
	SortBy       SortField     `json:"sort_by,omitempty"`
	Descending   bool          `json:"desc,omitempty"`
	Page         int           `json:"page"`
	Limit        int           `json:"limit"`
}

// ListResult is one page of postings.
type ListResult struct {
	Jobs        []model.JobPosting `json:"jobs"`
	Total       int64              `json:"total"`
	CurrentPage int                `json:"current_page"`
	Limit       int                `json:"limit"`
	TotalPages  int                `json:"total_pages"`
}

func (q ListQuery) normalized() (ListQuery, error) {
	q.Search = strings.TrimSpace(q.Search)
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	if q.SortBy == "" {
		q.SortBy = SortCreatedAt
		q.Descending = true
	}
	if _, ok := sortColumns[q.SortBy]; !ok {
		return q, apperror.Validation(errors.Newf("unknown sort field %q", q.SortBy))
	}
	if q.DeadlineFrom != nil && q.DeadlineTo != nil && q.DeadlineTo.Before(*q.DeadlineFrom) {
		return q, apperror.Validation(errors.New("deadline_to is before deadline_from"))
	}
	return q, nil
}

// List returns one page of postings matching query.
func (s *Store) List(ctx context.Context, query ListQuery) (*ListResult, error) {
	query, err := query.normalized()
	if err != nil {
		return nil, err
	}

	result, err := cache.Fetch(s.Cache, cache.JobListKey(query), s.TTL, func() (ListResult, error) {
		return s.list(ctx, query)
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *Store) list(ctx context.Context, query ListQuery) (ListResult, error) {
	result := ListResult{
		Jobs:        []model.JobPosting{},
		CurrentPage: query.Page,
		Limit:       query.Limit,
	}

	if err := applyFilters(s.DB.WithContext(ctx).Model(&model.JobPosting{}), query).
		Count(&result.Total).Error; err != nil {
		return result, apperror.Database(err, "counting job postings")
	}
	result.TotalPages = int((result.Total + int64(query.Limit) - 1) / int64(query.Limit))
	if result.Total == 0 {
		return result, nil
	}

	if err := applyFilters(s.DB.WithContext(ctx).Preload("Poster"), query).
		Order(orderClause(query)).
		Order("id").
		Offset((query.Page - 1) * query.Limit).
		Limit(query.Limit).
		Find(&result.Jobs).Error; err != nil {
		return result, apperror.Database(err, "listing job postings")
	}
	return result, nil
}

func applyFilters(db *gorm.DB, query ListQuery) *gorm.DB {
	if query.Search != "" {
		like := "%" + escapeLike(query.Search) + "%"
		db = db.Where(
			"(title ILIKE ? OR description ILIKE ? OR requirements ILIKE ? OR department ILIKE ?)",
			like, like, like, like,
		)
	}
	if query.Department != "" {
		db = db.Where("department = ?", query.Department)
	}
	if query.JobType != "" {
		db = db.Where("job_type = ?", query.JobType)
	}
	if query.IsActive != nil {
		db = db.Where("is_active = ?", *query.IsActive)
	}
	if query.PostedBy != nil {
		db = db.Where("posted_by = ?", *query.PostedBy)
	}
	if query.DeadlineFrom != nil {
		db = db.Where("application_deadline >= ?", *query.DeadlineFrom)
	}
	if query.DeadlineTo != nil {
		db = db.Where("application_deadline <= ?", *query.DeadlineTo)
	}
	return db
}

// orderClause only ever interpolates whitelisted column names.
func orderClause(query ListQuery) string {
	order := sortColumns[query.SortBy]
	if query.Descending {
		order += " DESC"
	} else {
		order += " ASC"
	}
	if query.SortBy == SortDeadline || query.SortBy == SortCompensation {
		order += " NULLS LAST"
	}
	return order
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
