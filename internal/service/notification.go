package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/eventup/api/internal/metrics"
	"github.com/eventup/api/internal/model"
)

// NotificationRepository defines the interface for notification storage
type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	GetByID(ctx context.Context, id string) (*model.Notification, error)
	List(ctx context.Context, userID string, filter model.NotificationFilter, page model.Page) (*model.PageResult[*model.Notification], int, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context, userID string) (int, error)
	Delete(ctx context.Context, id string) error
}

// NotificationInput describes a notification to deliver
type NotificationInput struct {
	UserID       string
	Type         model.NotificationType
	Title        string
	Content      string
	RelatedID    string
	RelatedModel model.RelatedModel
	Metadata     map[string]interface{}
}

// Notifier delivers in-app notifications
type Notifier interface {
	Notify(ctx context.Context, in NotificationInput) (*model.Notification, error)
}

// NotificationService stores notifications and pushes them to connected clients
type NotificationService struct {
	repo    NotificationRepository
	hub     *NotificationHub
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NotificationServiceConfig holds configuration for the notification service
type NotificationServiceConfig struct {
	Repo    NotificationRepository
	Hub     *NotificationHub
	Metrics *metrics.Metrics
	Logger  *zap.Logger
}

// NewNotificationService creates a new notification service
func NewNotificationService(cfg NotificationServiceConfig) *NotificationService {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		repo:    cfg.Repo,
		hub:     cfg.Hub,
		metrics: cfg.Metrics,
		logger:  logger,
	}
}

// Notify stores a notification and pushes it to the user's open connections
func (s *NotificationService) Notify(ctx context.Context, in NotificationInput) (*model.Notification, error) {
	n := &model.Notification{
		UserID:   in.UserID,
		Type:     in.Type,
		Title:    in.Title,
		Content:  in.Content,
		Metadata: in.Metadata,
	}
	if in.RelatedID != "" {
		id := in.RelatedID
		n.RelatedID = &id
	}
	if in.RelatedModel != "" {
		rm := in.RelatedModel
		n.RelatedModel = &rm
	}

	if err := s.repo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("creating notification: %w", err)
	}
	s.metrics.NotificationSent(string(n.Type))

	if s.hub != nil {
		s.hub.SendToUser(n.UserID, &Message{Type: MessageNotification, Data: n})
	}
	return n, nil
}

// List returns a page of the user's notifications and their unread count
func (s *NotificationService) List(ctx context.Context, userID string, filter model.NotificationFilter, page model.Page) (*model.PageResult[*model.Notification], int, error) {
	return s.repo.List(ctx, userID, filter, page)
}

func (s *NotificationService) owned(ctx context.Context, userID, id string) (*model.Notification, error) {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n == nil || n.UserID != userID {
		return nil, ErrNotificationNotFound
	}
	return n, nil
}

// MarkRead marks one of the user's notifications as read
func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) (*model.Notification, error) {
	n, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if n.IsRead {
		return n, nil
	}
	if err := s.repo.MarkRead(ctx, id); err != nil {
		return nil, err
	}
	n.IsRead = true
	return n, nil
}

// MarkAllRead marks every notification of the user as read
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int, error) {
	return s.repo.MarkAllRead(ctx, userID)
}

// Delete removes one of the user's notifications
func (s *NotificationService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// notifyQuietly delivers a notification as a side effect. A failure is
// logged and never fails the operation that triggered it.
func notifyQuietly(ctx context.Context, n Notifier, logger *zap.Logger, in NotificationInput) {
	if n == nil {
		return
	}
	if _, err := n.Notify(ctx, in); err != nil {
		logger.Warn("notification failed",
			zap.String("user_id", in.UserID),
			zap.String("type", string(in.Type)),
			zap.Error(err))
	}
}
