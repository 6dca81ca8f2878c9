// Package notification provides HTTP handlers for the in-app notification inbox.
package notification

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"UniJobBoard-backend/internal/apperror"
	"UniJobBoard-backend/internal/notification"
	"UniJobBoard-backend/internal/utilities"
)

// InboxController handles notification endpoints of the signed in user.
type InboxController struct {
	Inbox *notification.Inbox
}

// NewInboxController creates a new instance of InboxController
func NewInboxController(inbox *notification.Inbox) *InboxController {
	return &InboxController{Inbox: inbox}
}

// UnreadCountResponse carries the number of unread notifications.
type UnreadCountResponse struct {
	Unread int64 `json:"unread"`
}

// MarkAllReadResponse carries the number of notifications marked read.
type MarkAllReadResponse struct {
	Updated int64 `json:"updated"`
}

// List returns the newest notifications of the signed in user.
// @Summary Get own notifications
// @Tags Notification
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param unread query boolean false "Only unread notifications"
// @Param limit query int false "At most this many, default 20, max 100"
// @Success 200 {array} model.Notification "Notifications"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Router /notifications [get]
func (ic *InboxController) List(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	notifications, err := ic.Inbox.List(c.Request.Context(), user.ID, strings.EqualFold(c.Query("unread"), "true"), limit)
	if err != nil {
		utilities.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, notifications)
}

// UnreadCount returns the number of unread notifications.
// @Summary Count unread notifications
// @Tags Notification
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 200 {object} UnreadCountResponse "Unread count"
// @Router /notifications/unread-count [get]
func (ic *InboxController) UnreadCount(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	n, err := ic.Inbox.UnreadCount(c.Request.Context(), user.ID)
	if err != nil {
		utilities.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, UnreadCountResponse{Unread: n})
}

// MarkRead marks one notification read.
// @Summary Mark notification read
// @Tags Notification
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path string true "Notification ID"
// @Success 200 {object} utilities.MessageResponse "Marked read"
// @Failure 403 {object} utilities.ErrorResponse "Not the recipient"
// @Failure 404 {object} utilities.ErrorResponse "Notification not found"
// @Router /notifications/{id}/read [patch]
func (ic *InboxController) MarkRead(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: "Invalid notification ID",
			Code:  apperror.Code(apperror.ErrValidationFailed),
		})
		return
	}

	if err := ic.Inbox.MarkRead(c.Request.Context(), id); err != nil {
		utilities.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, utilities.MessageResponse{Message: "Notification marked as read"})
}

// MarkAllRead marks every notification of the signed in user read.
// @Summary Mark all notifications read
// @Tags Notification
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 200 {object} MarkAllReadResponse "Number marked read"
// @Router /notifications/read-all [patch]
func (ic *InboxController) MarkAllRead(c *gin.Context) {
	n, err := ic.Inbox.MarkAllRead(c.Request.Context())
	if err != nil {
		utilities.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, MarkAllReadResponse{Updated: n})
}
