package model

import "time"

// NotificationType classifies a notification
type NotificationType string

const (
	NotificationApplication NotificationType = "APPLICATION"
	NotificationApproval    NotificationType = "APPROVAL"
	NotificationRejection   NotificationType = "REJECTION"
	NotificationReminder    NotificationType = "REMINDER"
	NotificationReview      NotificationType = "REVIEW"
	NotificationPayment     NotificationType = "PAYMENT"
	NotificationSystem      NotificationType = "SYSTEM"
	NotificationCompletion  NotificationType = "COMPLETION"
	NotificationViolation   NotificationType = "VIOLATION"
)

// RelatedModel names the collection a notification points at
type RelatedModel string

const (
	RelatedEvent       RelatedModel = "Event"
	RelatedApplication RelatedModel = "Application"
	RelatedPayment     RelatedModel = "Payment"
	RelatedReview      RelatedModel = "Review"
)

// Notification is an in-app message for a user
type Notification struct {
	ID           string                 `json:"id"`
	UserID       string                 `json:"user_id"`
	Type         NotificationType       `json:"type"`
	Title        string                 `json:"title"`
	Content      string                 `json:"content"`
	IsRead       bool                   `json:"is_read"`
	RelatedID    *string                `json:"related_id,omitempty"`
	RelatedModel *RelatedModel          `json:"related_model,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	CreatedOn    time.Time              `json:"created_on"`
}

// NotificationFilter narrows a notification listing
type NotificationFilter struct {
	IsRead *bool
}
