package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationType tags both the persisted notification and the mail template.
type NotificationType string

// Notification types
const (
	NotificationApplicationReceived NotificationType = "application_received"
	NotificationStatusUpdate        NotificationType = "status_update"
	NotificationNewJob              NotificationType = "new_job"
	NotificationDeadlineReminder    NotificationType = "deadline_reminder"
)

// Notification is an in-app message. Only its read flag changes after creation.
type Notification struct {
	ID        uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID        `gorm:"type:uuid;not null;index" json:"user_id"`
	Title     string           `gorm:"type:text;not null" json:"title"`
	Message   string           `gorm:"type:text;not null" json:"message"`
	Type      NotificationType `gorm:"type:text;not null" json:"type"`
	Read      bool             `gorm:"not null;index" json:"read"`
	CreatedAt time.Time        `gorm:"index" json:"created_at"`
}

// BeforeCreate assigns a new id when none was given.
func (n *Notification) BeforeCreate(_ *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
