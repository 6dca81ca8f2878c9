package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ApplicationStatus is the review state of an application.
type ApplicationStatus string

// Application statuses
const (
	// ApplicationStatusPending indicates that the application is waiting for review
	ApplicationStatusPending ApplicationStatus = "pending"
	// ApplicationStatusReviewed indicates that the job owner has looked at the application
	ApplicationStatusReviewed ApplicationStatus = "reviewed"
	ApplicationStatusAccepted ApplicationStatus = "accepted"
	ApplicationStatusRejected ApplicationStatus = "rejected"
)

var applicationTransitions = map[ApplicationStatus][]ApplicationStatus{
	ApplicationStatusPending:  {ApplicationStatusReviewed, ApplicationStatusAccepted, ApplicationStatusRejected},
	ApplicationStatusReviewed: {ApplicationStatusAccepted, ApplicationStatusRejected},
}

// Valid reports whether s is one of the known statuses.
func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationStatusPending, ApplicationStatusReviewed, ApplicationStatusAccepted, ApplicationStatusRejected:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed out of s.
func (s ApplicationStatus) Terminal() bool {
	return s == ApplicationStatusAccepted || s == ApplicationStatusRejected
}

// CanTransitionTo reports whether an application in status s may move to next.
// Setting the current status again is always allowed.
func (s ApplicationStatus) CanTransitionTo(next ApplicationStatus) bool {
	if s == next {
		return true
	}
	if s.Terminal() {
		return false
	}
	for _, allowed := range applicationTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// TransitionSources lists every status that may move to next.
func TransitionSources(next ApplicationStatus) []ApplicationStatus {
	var out []ApplicationStatus
	for _, s := range []ApplicationStatus{ApplicationStatusPending, ApplicationStatusReviewed, ApplicationStatusAccepted, ApplicationStatusRejected} {
		if s.CanTransitionTo(next) {
			out = append(out, s)
		}
	}
	return out
}

// Application represents a job application record
type Application struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	// At most one application per (job, applicant), enforced by the composite unique index.
	JobID uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_application_job_applicant" json:"job_id"`
	Job   *JobPosting `gorm:"foreignKey:JobID;references:ID;constraint:OnDelete:CASCADE" json:"job,omitempty"`

	ApplicantID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_application_job_applicant;index" json:"applicant_id"`
	Applicant   *Profile  `gorm:"foreignKey:ApplicantID;references:ID" json:"applicant,omitempty"`

	CoverLetter string            `gorm:"type:text;not null" json:"cover_letter"`
	ResumeURL   *string           `gorm:"type:text" json:"resume_url,omitempty"`
	Status      ApplicationStatus `gorm:"type:text;not null;index" json:"status"`
	AppliedAt   time.Time         `gorm:"not null;index" json:"applied_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// BeforeCreate assigns a new id when none was given.
func (a *Application) BeforeCreate(_ *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// ApplicationStats counts the applications of one job per status.
type ApplicationStats struct {
	Pending  int64 `json:"pending"`
	Reviewed int64 `json:"reviewed"`
	Accepted int64 `json:"accepted"`
	Rejected int64 `json:"rejected"`
	Total    int64 `json:"total"`
}
