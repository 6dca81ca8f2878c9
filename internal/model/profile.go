// Package model contain gorm model for recording data to database
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Profile roles
const (
	RoleStudent = "student"
	RoleFaculty = "faculty"
	RoleAdmin   = "admin"
)

// Profile is a user of the job board. Authentication lives with the external
// identity provider, this row only holds what the engine needs: role, contact
// address and the department used for new job broadcasts.
type Profile struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email       string    `gorm:"type:text;uniqueIndex" json:"email"`
	FullName    string    `gorm:"type:text" json:"full_name"`
	Role        string    `gorm:"type:text;not null;index" json:"role"`
	Department  *string   `gorm:"type:text;index" json:"department,omitempty"`
	EmailOptOut bool      `gorm:"not null" json:"email_opt_out"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BeforeCreate assigns a new id when none was given.
func (p *Profile) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

