package repository_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventup/api/internal/database"
	"github.com/eventup/api/internal/model"
	"github.com/eventup/api/internal/testing/fixtures"
	"github.com/eventup/api/internal/testing/testdb"
)

// ============================================================================
// Users
// ============================================================================

func TestUserRepository_GetByEmail(t *testing.T) {
	tdb := testdb.New(t)
	f := fixtures.New(tdb.DB)

	ctv := f.CreateCollaborator(t, fixtures.WithEmail("lan@test.local"))

	got, err := f.Users.GetByEmail(tdb.Ctx(), "lan@test.local")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, ctv.ID, got.ID)
	assert.Equal(t, model.UserRoleCTV, got.Role)

	missing, err := f.Users.GetByEmail(tdb.Ctx(), "nobody@test.local")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUserRepository_UsageAndDowngrade(t *testing.T) {
	tdb := testdb.New(t)
	f := fixtures.New(tdb.DB)

	btc := f.CreateOrganizer(t)
	require.NoError(t, f.Users.IncrementUsage(tdb.Ctx(), btc.ID, true))

	got, err := f.Users.GetByID(tdb.Ctx(), btc.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Subscription.PostUsed)
	assert.Equal(t, 1, got.Subscription.UrgentUsed)

	_, err = f.Users.ResetMonthlyUsage(tdb.Ctx())
	require.NoError(t, err)
	got, err = f.Users.GetByID(tdb.Ctx(), btc.ID)
	require.NoError(t, err)
	assert.Zero(t, got.Subscription.PostUsed)

	expiry := time.Now().Add(-time.Hour)
	require.NoError(t, f.Users.ActivatePlan(tdb.Ctx(), btc.ID, model.PlanPremium, expiry))
	n, err := f.Users.DowngradeExpired(tdb.Ctx(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err = f.Users.GetByID(tdb.Ctx(), btc.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PlanFree, got.Subscription.Plan)
}

func TestUserRepository_DeleteRemovesProfile(t *testing.T) {
	tdb := testdb.New(t)
	f := fixtures.New(tdb.DB)

	ctv := f.CreateCollaborator(t)
	require.NoError(t, f.Users.Delete(tdb.Ctx(), ctv.ID))

	user, err := f.Users.GetByID(tdb.Ctx(), ctv.ID)
	require.NoError(t, err)
	assert.Nil(t, user)

	profile, err := f.Profiles.GetCTVByUserID(tdb.Ctx(), ctv.ID)
	require.NoError(t, err)
	assert.Nil(t, profile)
}

// ============================================================================
// Events
// ============================================================================

func TestEventRepository_IncrementApprovedStopsAtCapacity(t *testing.T) {
	tdb := testdb.New(t)
	f := fixtures.New(tdb.DB)

	event := f.CreateEvent(t, f.CreateOrganizer(t), fixtures.WithQuantity(2))

	require.NoError(t, f.Events.IncrementApproved(tdb.Ctx(), event.ID, 2))
	require.NoError(t, f.Events.IncrementApproved(tdb.Ctx(), event.ID, 2))

	err := f.Events.IncrementApproved(tdb.Ctx(), event.ID, 2)
	assert.True(t, errors.Is(err, database.ErrConflict))

	require.NoError(t, f.Events.ReleaseApproved(tdb.Ctx(), event.ID))
	got, err := f.Events.GetByID(tdb.Ctx(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ApprovedCount)
}

func TestEventRepository_AdjustAppliedNeverNegative(t *testing.T) {
	tdb := testdb.New(t)
	f := fixtures.New(tdb.DB)

	event := f.CreateEvent(t, f.CreateOrganizer(t))
	require.NoError(t, f.Events.AdjustApplied(tdb.Ctx(), event.ID, -3))

	got, err := f.Events.GetByID(tdb.Ctx(), event.ID)
	require.NoError(t, err)
	assert.Zero(t, got.AppliedCount)
}

func TestEventRepository_StatusSweep(t *testing.T) {
	tdb := testdb.New(t)
	f := fixtures.New(tdb.DB)
	btc := f.CreateOrganizer(t)

	now := time.Now()
	running := f.CreateEvent(t, btc, fixtures.WithSchedule(now.Add(-time.Hour), now.Add(time.Hour)))
	finished := f.CreateEvent(t, btc, fixtures.WithSchedule(now.Add(-5*time.Hour), now.Add(-time.Hour)))

	_, err := f.Events.MarkStarted(tdb.Ctx(), now)
	require.NoError(t, err)
	_, err = f.Events.MarkEnded(tdb.Ctx(), now)
	require.NoError(t, err)

	got, err := f.Events.GetByID(tdb.Ctx(), running.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EventStatusPreparing, got.Status)

	got, err = f.Events.GetByID(tdb.Ctx(), finished.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EventStatusCompleted, got.Status)
}

// ============================================================================
// Applications
// ============================================================================

func TestApplicationRepository_TransitionGuardsStatus(t *testing.T) {
	tdb := testdb.New(t)
	f := fixtures.New(tdb.DB)

	event := f.CreateEvent(t, f.CreateOrganizer(t))
	app := f.CreateApplication(t, event, f.CreateCollaborator(t))

	reason := "Schedule conflict"
	rejected, err := f.Applications.Transition(tdb.Ctx(), app.ID, model.ApplicationPending, model.ApplicationRejected,
		model.TransitionFields{RejectionReason: &reason})
	require.NoError(t, err)
	assert.Equal(t, model.ApplicationRejected, rejected.Status)
	require.NotNil(t, rejected.RejectionReason)
	assert.Equal(t, reason, *rejected.RejectionReason)

	_, err = f.Applications.Transition(tdb.Ctx(), app.ID, model.ApplicationPending, model.ApplicationApproved, model.TransitionFields{})
	assert.ErrorIs(t, err, database.ErrConflict)
}

func TestApplicationRepository_GetByEventAndCTV(t *testing.T) {
	tdb := testdb.New(t)
	f := fixtures.New(tdb.DB)

	event := f.CreateEvent(t, f.CreateOrganizer(t))
	ctv := f.CreateCollaborator(t)
	app := f.CreateApplication(t, event, ctv)

	got, err := f.Applications.GetByEventAndCTV(tdb.Ctx(), event.ID, ctv.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, app.ID, got.ID)

	count, err := f.Applications.CountByEvent(tdb.Ctx(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

// ============================================================================
// Notifications
// ============================================================================

func TestNotificationRepository_MarkAllRead(t *testing.T) {
	tdb := testdb.New(t)
	f := fixtures.New(tdb.DB)

	user := f.CreateCollaborator(t)
	f.CreateNotification(t, user, model.NotificationApproval)
	f.CreateNotification(t, user, model.NotificationRejection)

	_, unread, err := f.Notifications.List(tdb.Ctx(), user.ID, model.NotificationFilter{}, model.NewPage(1, 10))
	require.NoError(t, err)
	assert.Equal(t, 2, unread)

	n, err := f.Notifications.MarkAllRead(tdb.Ctx(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, unread, err = f.Notifications.List(tdb.Ctx(), user.ID, model.NotificationFilter{}, model.NewPage(1, 10))
	require.NoError(t, err)
	assert.Zero(t, unread)
}
