package notification

import (
	"context"

	"github.com/google/uuid"

	"UniJobBoard-backend/internal/apperror"
	"UniJobBoard-backend/internal/auth"
	"UniJobBoard-backend/internal/database"
	"UniJobBoard-backend/internal/model"
)

const (
	defaultInboxLimit = 20
	maxInboxLimit     = 100
)

// Inbox reads and toggles the read state of persisted notifications.
type Inbox struct {
	DB *database.DBinstanceStruct
}

// NewInbox creates an inbox over db.
func NewInbox(db *database.DBinstanceStruct) *Inbox {
	return &Inbox{DB: db}
}

// List returns the newest notifications of userID.
func (i *Inbox) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]model.Notification, error) {
	if limit <= 0 {
		limit = defaultInboxLimit
	}
	if limit > maxInboxLimit {
		limit = maxInboxLimit
	}

	q := i.DB.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("read = ?", false)
	}

	notifications := []model.Notification{}
	if err := q.Order("created_at DESC").Limit(limit).Find(&notifications).Error; err != nil {
		return nil, apperror.Database(err, "listing notifications")
	}
	return notifications, nil
}

// UnreadCount counts the unread notifications of userID.
func (i *Inbox) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	if err := i.DB.WithContext(ctx).
		Model(&model.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Count(&count).Error; err != nil {
		return 0, apperror.Database(err, "counting unread notifications")
	}
	return count, nil
}

// MarkRead marks one notification read. Only its recipient may do so.
func (i *Inbox) MarkRead(ctx context.Context, id uuid.UUID) error {
	actor, err := auth.CurrentActor(ctx)
	if err != nil {
		return err
	}

	var n model.Notification
	if err := i.DB.WithContext(ctx).Where("id = ?", id).First(&n).Error; err != nil {
		if database.IsNotFound(err) {
			return apperror.NotFoundf("notification %s", id)
		}
		return apperror.Database(err, "loading notification")
	}
	if n.UserID != actor.ID {
		return apperror.ErrPermissionDenied
	}
	if n.Read {
		return nil
	}

	return apperror.Database(
		i.DB.WithContext(ctx).Model(&n).Update("read", true).Error,
		"marking notification read",
	)
}

// MarkAllRead marks every unread notification of the current actor read and
// returns how many changed.
func (i *Inbox) MarkAllRead(ctx context.Context) (int64, error) {
	actor, err := auth.CurrentActor(ctx)
	if err != nil {
		return 0, err
	}

	result := i.DB.WithContext(ctx).
		Model(&model.Notification{}).
		Where("user_id = ? AND read = ?", actor.ID, false).
		Update("read", true)
	if result.Error != nil {
		return 0, apperror.Database(result.Error, "marking notifications read")
	}
	return result.RowsAffected, nil
}
