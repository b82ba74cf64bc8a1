package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eventup/api/internal/metrics"
	"github.com/eventup/api/internal/model"
)

func TestNotify_StoresAndPushes(t *testing.T) {
	repo := newFakeNotificationRepo()
	hub := NewNotificationHub(time.Hour)
	defer hub.Close()
	sub := hub.Subscribe("user:1", "conn-1")

	svc := NewNotificationService(NotificationServiceConfig{Repo: repo, Hub: hub, Metrics: metrics.New()})

	n, err := svc.Notify(context.Background(), NotificationInput{
		UserID:       "user:1",
		Type:         model.NotificationApproval,
		Title:        "Approved",
		Content:      "You are in",
		RelatedID:    "application:9",
		RelatedModel: model.RelatedApplication,
	})
	require.NoError(t, err)

	assert.Equal(t, "application:9", *n.RelatedID)
	assert.Equal(t, model.RelatedApplication, *n.RelatedModel)
	assert.Contains(t, repo.items, n.ID)

	select {
	case msg := <-sub.Messages:
		assert.Equal(t, MessageNotification, msg.Type)
		assert.Equal(t, n, msg.Data)
	case <-time.After(time.Second):
		t.Fatal("notification was not pushed")
	}
}

func TestNotify_WithoutRelation(t *testing.T) {
	svc := NewNotificationService(NotificationServiceConfig{Repo: newFakeNotificationRepo()})

	n, err := svc.Notify(context.Background(), NotificationInput{UserID: "user:1", Type: model.NotificationSystem, Title: "Hi"})
	require.NoError(t, err)
	assert.Nil(t, n.RelatedID)
	assert.Nil(t, n.RelatedModel)
}

func TestNotifications_Ownership(t *testing.T) {
	repo := newFakeNotificationRepo()
	svc := NewNotificationService(NotificationServiceConfig{Repo: repo})
	mine, err := svc.Notify(context.Background(), NotificationInput{UserID: "user:1", Type: model.NotificationSystem, Title: "a"})
	require.NoError(t, err)
	_, err = svc.Notify(context.Background(), NotificationInput{UserID: "user:1", Type: model.NotificationSystem, Title: "b"})
	require.NoError(t, err)

	_, err = svc.MarkRead(context.Background(), "user:2", mine.ID)
	assert.ErrorIs(t, err, ErrNotificationNotFound)
	assert.ErrorIs(t, svc.Delete(context.Background(), "user:2", mine.ID), ErrNotificationNotFound)

	read, err := svc.MarkRead(context.Background(), "user:1", mine.ID)
	require.NoError(t, err)
	assert.True(t, read.IsRead)

	unreadOnly := false
	list, unread, err := svc.List(context.Background(), "user:1", model.NotificationFilter{IsRead: &unreadOnly}, model.NewPage(1, 10))
	require.NoError(t, err)
	assert.Equal(t, 1, unread)
	assert.Equal(t, 1, list.Total)

	n, err := svc.MarkAllRead(context.Background(), "user:1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, svc.Delete(context.Background(), "user:1", mine.ID))
	assert.NotContains(t, repo.items, mine.ID)
}

func TestNotifyQuietly_SwallowsErrors(t *testing.T) {
	n := &recordingNotifier{err: assert.AnError}

	assert.NotPanics(t, func() {
		notifyQuietly(context.Background(), n, zap.NewNop(), NotificationInput{UserID: "user:1"})
		notifyQuietly(context.Background(), nil, zap.NewNop(), NotificationInput{UserID: "user:1"})
	})
}
