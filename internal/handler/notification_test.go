package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventup/api/internal/model"
)

func newNotificationRouter(svc NotificationService, user *model.User) *gin.Engine {
	h := NewNotificationHandler(svc, nil)
	r := gin.New()
	g := r.Group("/notifications", as(user))
	g.GET("", h.List)
	g.PUT("/read-all", h.MarkAllRead)
	g.PUT("/:id/read", h.MarkRead)
	g.DELETE("/:id", h.Delete)
	return r
}

func TestNotificationList_UnreadCount(t *testing.T) {
	user := ctvUser()
	svc := &mockNotificationService{
		listFunc: func(_ context.Context, userID string, filter model.NotificationFilter, page model.Page) (*model.PageResult[*model.Notification], int, error) {
			assert.Equal(t, user.ID, userID)
			require.NotNil(t, filter.IsRead)
			assert.False(t, *filter.IsRead)
			return &model.PageResult[*model.Notification]{
				Items: []*model.Notification{{ID: "notification:1"}},
				Total: 1,
				Page:  page,
			}, 4, nil
		},
	}

	rr := serve(newNotificationRouter(svc, user), jsonRequest(http.MethodGet, "/notifications?isRead=false", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	env := decodeEnvelope(t, rr.Body)
	assert.Equal(t, 4, env.UnreadCount)
	assert.Equal(t, 1, env.Count)
}

func TestNotificationList_BadFilter(t *testing.T) {
	rr := serve(newNotificationRouter(&mockNotificationService{}, ctvUser()), jsonRequest(http.MethodGet, "/notifications?isRead=maybe", nil))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestNotification_ReadAndDelete(t *testing.T) {
	r := newNotificationRouter(&mockNotificationService{}, ctvUser())

	rr := serve(r, jsonRequest(http.MethodPut, "/notifications/read-all", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"updated":3}`, string(decodeEnvelope(t, rr.Body).Data))

	rr = serve(r, jsonRequest(http.MethodPut, "/notifications/notification:9/read", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = serve(r, jsonRequest(http.MethodDelete, "/notifications/notification:9", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
