package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// JobType enumerates the kinds of position a posting can advertise.
type JobType string

// Job types
const (
	JobTypeResearchAssistant JobType = "research_assistant"
	JobTypeTeachingAssistant JobType = "teaching_assistant"
	JobTypeWorkStudy         JobType = "work_study"
	JobTypeInternship        JobType = "internship"
	JobTypeOther             JobType = "other"
)

// EditableJobPostingInfo is the part of a job posting its owner can write.
type EditableJobPostingInfo struct {
	Title               string     `gorm:"type:text;not null" json:"title" validate:"required"`
	Description         string     `gorm:"type:text;not null" json:"description" validate:"required"`
	Requirements        *string    `gorm:"type:text" json:"requirements,omitempty"`
	Compensation        *string    `gorm:"type:text" json:"compensation,omitempty"`
	Duration            *string    `gorm:"type:text" json:"duration,omitempty"`
	JobType             JobType    `gorm:"type:text;not null;index" json:"job_type" validate:"required,oneof=research_assistant teaching_assistant work_study internship other"`
	Department          string     `gorm:"type:text;not null;index" json:"department" validate:"required"`
	ApplicationDeadline *time.Time `gorm:"type:date;index" json:"application_deadline,omitempty"`
}

// JobPosting is gorm model for store job posting data in DB
type JobPosting struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	EditableJobPostingInfo
	IsActive  bool      `gorm:"not null;index" json:"is_active"`
	PostedBy  uuid.UUID `gorm:"type:uuid;not null;index;<-:create" json:"posted_by"`
	Poster    *Profile  `gorm:"foreignKey:PostedBy;references:ID" json:"poster,omitempty"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns a new id when none was given.
func (j *JobPosting) BeforeCreate(_ *gorm.DB) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	return nil
}

// DeadlinePassed reports whether the application deadline lies strictly before now.
// A posting without a deadline never expires.
func (j *JobPosting) DeadlinePassed(now time.Time) bool {
	return j.ApplicationDeadline != nil && j.ApplicationDeadline.Before(now)
}

// JobPostingDetail is a job posting together with a live count of its applications.
type JobPostingDetail struct {
	JobPosting
	ApplicationCount int64 `json:"application_count"`
}
