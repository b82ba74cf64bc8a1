package repository

import (
	"context"
	"fmt"

	"github.com/eventup/api/internal/database"
	"github.com/eventup/api/internal/model"
)

// NotificationRepository handles notification data access
type NotificationRepository struct {
	db database.Database
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db database.Database) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create stores an unread notification
func (r *NotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	query := `
		CREATE notification CONTENT {
			user_id: $user_id,
			type: $type,
			title: $title,
			content: $content,
			is_read: false,
			related_id: $related_id,
			related_model: $related_model,
			metadata: $metadata,
			created_on: time::now()
		}
	`
	metadata := n.Metadata
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	raw, err := r.db.QueryOne(ctx, query, map[string]interface{}{
		"user_id":       n.UserID,
		"type":          n.Type,
		"title":         n.Title,
		"content":       n.Content,
		"related_id":    optional(n.RelatedID),
		"related_model": optional(n.RelatedModel),
		"metadata":      metadata,
	})
	if err != nil {
		return fmt.Errorf("creating notification: %w", err)
	}
	created, err := decodeRecord[model.Notification](raw)
	if err != nil {
		return err
	}
	*n = *created
	return nil
}

// GetByID retrieves a notification by ID
func (r *NotificationRepository) GetByID(ctx context.Context, id string) (*model.Notification, error) {
	return decodeOne[model.Notification](r.db.QueryOne(ctx, `SELECT * FROM type::record($id)`, map[string]interface{}{"id": id}))
}

// List returns a page of a user's notifications plus the unread count
func (r *NotificationRepository) List(ctx context.Context, userID string, filter model.NotificationFilter, page model.Page) (*model.PageResult[*model.Notification], int, error) {
	where := "user_id = $user_id"
	vars := map[string]interface{}{"user_id": userID, "limit": page.Limit, "start": page.Offset()}
	if filter.IsRead != nil {
		where += " AND is_read = $is_read"
		vars["is_read"] = *filter.IsRead
	}
	query := `SELECT * FROM notification WHERE ` + where + ` ORDER BY created_on DESC LIMIT $limit START $start;
		SELECT count() FROM notification WHERE ` + where + ` GROUP ALL;
		SELECT count() FROM notification WHERE user_id = $user_id AND is_read = false GROUP ALL;`
	results, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, 0, fmt.Errorf("listing notifications: %w", err)
	}
	items, err := decodeList[model.Notification](results, 0)
	if err != nil {
		return nil, 0, err
	}
	return &model.PageResult[*model.Notification]{Items: items, Total: extractCount(results, 1), Page: page}, extractCount(results, 2), nil
}

// MarkRead marks one notification read
func (r *NotificationRepository) MarkRead(ctx context.Context, id string) error {
	return r.db.Execute(ctx, `UPDATE type::record($id) SET is_read = true`, map[string]interface{}{"id": id})
}

// MarkAllRead marks every unread notification of a user read
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string) (int, error) {
	results, err := r.db.Query(ctx, `UPDATE notification SET is_read = true WHERE user_id = $user_id AND is_read = false RETURN id`,
		map[string]interface{}{"user_id": userID})
	if err != nil {
		return 0, fmt.Errorf("marking notifications read: %w", err)
	}
	return len(statementResult(results, 0)), nil
}

// Delete removes a notification
func (r *NotificationRepository) Delete(ctx context.Context, id string) error {
	return r.db.Execute(ctx, `DELETE type::record($id)`, map[string]interface{}{"id": id})
}
