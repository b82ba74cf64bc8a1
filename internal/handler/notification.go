package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eventup/api/internal/middleware"
	"github.com/eventup/api/internal/model"
)

// NotificationService is the part of the notification service the handler uses
type NotificationService interface {
	List(ctx context.Context, userID string, filter model.NotificationFilter, page model.Page) (*model.PageResult[*model.Notification], int, error)
	MarkRead(ctx context.Context, userID, id string) (*model.Notification, error)
	MarkAllRead(ctx context.Context, userID string) (int, error)
	Delete(ctx context.Context, userID, id string) error
}

// NotificationHandler handles /api/notifications endpoints
type NotificationHandler struct {
	notifications NotificationService
	logger        *zap.Logger
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notifications NotificationService, logger *zap.Logger) *NotificationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationHandler{notifications: notifications, logger: logger}
}

// NotificationList is one page of notifications plus the unread total
type NotificationList struct {
	CollectionResponse
	UnreadCount int `json:"unreadCount"`
}

// List handles GET /api/notifications
func (h *NotificationHandler) List(c *gin.Context) {
	var filter model.NotificationFilter
	if raw := c.Query("isRead"); raw != "" {
		isRead, err := strconv.ParseBool(raw)
		if err != nil {
			WriteError(c, model.NewValidationError([]model.FieldError{{Field: "isRead", Message: "isRead must be true or false"}}))
			return
		}
		filter.IsRead = &isRead
	}

	result, unread, err := h.notifications.List(c.Request.Context(), middleware.GetUserID(c), filter, pageFromQuery(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	items := result.Items
	if items == nil {
		items = []*model.Notification{}
	}
	c.JSON(http.StatusOK, NotificationList{
		CollectionResponse: CollectionResponse{
			Success: true,
			Count:   len(items),
			Total:   result.Total,
			Page:    result.Page.Page,
			Pages:   result.Page.Pages(result.Total),
			Data:    items,
		},
		UnreadCount: unread,
	})
}

// MarkRead handles PUT /api/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	n, err := h.notifications.MarkRead(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	WriteData(c, http.StatusOK, n)
}

// MarkAllRead handles PUT /api/notifications/read-all
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	updated, err := h.notifications.MarkAllRead(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	WriteMessage(c, http.StatusOK, "all notifications marked as read", gin.H{"updated": updated})
}

// Delete handles DELETE /api/notifications/:id
func (h *NotificationHandler) Delete(c *gin.Context) {
	if err := h.notifications.Delete(c.Request.Context(), middleware.GetUserID(c), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	WriteMessage(c, http.StatusOK, "notification deleted", nil)
}
