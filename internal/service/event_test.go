package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventup/api/internal/model"
)

func newEventFixture(t *testing.T) (*EventService, *fakeEventRepo, *fakeAppRepo, *fakeUserRepo, time.Time) {
	t.Helper()
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	events := newFakeEventRepo()
	apps := newFakeAppRepo()
	users := newFakeUserRepo(newOrganizer("user:btc"), newCollaborator("user:ctv"))
	profiles := newFakeProfileRepo()
	profiles.btc["user:btc"] = &model.BTCProfile{ID: "b1", UserID: "user:btc", AgencyName: "Sun Agency"}

	svc := NewEventService(EventServiceConfig{
		EventRepo:   events,
		AppRepo:     apps,
		UserRepo:    users,
		ProfileRepo: profiles,
		Plans:       DefaultPlanConfig(),
	})
	svc.now = func() time.Time { return now }
	return svc, events, apps, users, now
}

func validCreateRequest(now time.Time) CreateEventRequest {
	return CreateEventRequest{
		Title:       "Night Run",
		Description: "Volunteers for the water stations",
		Location:    "Thu Duc",
		EventType:   model.EventTypeSports,
		Salary:      "300.000 VND",
		Deadline:    now.Add(24 * time.Hour),
		StartTime:   now.Add(72 * time.Hour),
		EndTime:     now.Add(76 * time.Hour),
		Quantity:    5,
	}
}

// ============================================================================
// Create
// ============================================================================

func TestCreateEvent_Success(t *testing.T) {
	svc, events, _, users, now := newEventFixture(t)

	req := validCreateRequest(now)
	req.Title = "  <b>Night Run</b>  "
	req.Requirements = []string{"Friendly", " ", "<i>Punctual</i>"}

	event, err := svc.Create(context.Background(), "user:btc", req)
	require.NoError(t, err)

	assert.Equal(t, "Night Run", event.Title)
	assert.Equal(t, []string{"Friendly", "Punctual"}, event.Requirements)
	assert.Equal(t, model.EventStatusRecruiting, event.Status)
	assert.Contains(t, events.events, event.ID)
	assert.Equal(t, 1, users.users["user:btc"].Subscription.PostUsed)
}

func TestCreateEvent_OrganizerOnly(t *testing.T) {
	svc, _, _, _, now := newEventFixture(t)

	_, err := svc.Create(context.Background(), "user:ctv", validCreateRequest(now))
	assert.ErrorIs(t, err, ErrOrganizerOnly)
}

func TestCreateEvent_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *CreateEventRequest)
		field  string
	}{
		{"missing title", func(r *CreateEventRequest) { r.Title = "" }, "title"},
		{"unknown type", func(r *CreateEventRequest) { r.EventType = "Party" }, "event_type"},
		{"end before start", func(r *CreateEventRequest) { r.EndTime = r.StartTime.Add(-time.Hour) }, "end_time"},
		{"deadline after start", func(r *CreateEventRequest) { r.Deadline = r.StartTime.Add(time.Hour) }, "deadline"},
		{"job without role", func(r *CreateEventRequest) {
			r.JobDetailItems = []model.JobDetail{{Role: "", Quantity: 2}}
		}, "job_details_items"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _, _, now := newEventFixture(t)
			req := validCreateRequest(now)
			tt.mutate(&req)

			_, err := svc.Create(context.Background(), "user:btc", req)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			fields := make([]string, 0, len(verr.Fields))
			for _, f := range verr.Fields {
				fields = append(fields, f.Field)
			}
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestCreateEvent_PostLimit(t *testing.T) {
	svc, events, _, _, now := newEventFixture(t)
	events.createdCount = 3

	_, err := svc.Create(context.Background(), "user:btc", validCreateRequest(now))

	assert.ErrorIs(t, err, ErrPostLimitReached)
	var lerr *LimitError
	require.True(t, errors.As(err, &lerr))
	assert.Equal(t, 3, lerr.Limit)
	assert.Equal(t, 3, lerr.Current)
}

func TestCreateEvent_Urgent(t *testing.T) {
	svc, events, _, users, now := newEventFixture(t)
	req := validCreateRequest(now)
	req.Urgent = true

	_, err := svc.Create(context.Background(), "user:btc", req)
	assert.ErrorIs(t, err, ErrUrgentRequiresPremium)

	makePremium(users.users["user:btc"], now)
	events.urgentCount = 3
	_, err = svc.Create(context.Background(), "user:btc", req)
	assert.ErrorIs(t, err, ErrUrgentLimitReached)

	events.urgentCount = 1
	event, err := svc.Create(context.Background(), "user:btc", req)
	require.NoError(t, err)
	assert.True(t, event.Urgent)
	assert.Equal(t, 1, users.users["user:btc"].Subscription.UrgentUsed)
}

// ============================================================================
// Update / Delete
// ============================================================================

func TestUpdateEvent(t *testing.T) {
	svc, events, _, _, now := newEventFixture(t)
	events.events["event:1"] = recruitingEvent("event:1", "user:btc", now, 4)
	events.events["event:1"].Description = "Help at the gate"
	events.events["event:1"].ApprovedCount = 3

	_, err := svc.Update(context.Background(), "user:other", "event:1", UpdateEventRequest{Title: ptr("x")})
	assert.ErrorIs(t, err, ErrNotEventOwner)

	_, err = svc.Update(context.Background(), "user:btc", "event:1", UpdateEventRequest{Quantity: ptr(2)})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "quantity", verr.Fields[0].Field)

	_, err = svc.Update(context.Background(), "user:btc", "event:1", UpdateEventRequest{Urgent: ptr(true)})
	assert.ErrorIs(t, err, ErrUrgentRequiresPremium)

	updated, err := svc.Update(context.Background(), "user:btc", "event:1", UpdateEventRequest{
		Title:    ptr("Gate staff"),
		Quantity: ptr(6),
	})
	require.NoError(t, err)
	assert.Equal(t, "Gate staff", updated.Title)
	assert.Equal(t, 6, events.events["event:1"].Quantity)
}

func TestDeleteEvent(t *testing.T) {
	svc, events, apps, _, now := newEventFixture(t)
	events.events["event:1"] = recruitingEvent("event:1", "user:btc", now, 2)
	apps.apps["application:1"] = &model.Application{ID: "application:1", EventID: "event:1", CTVID: "user:ctv", Status: model.ApplicationPending}

	err := svc.Delete(context.Background(), "user:btc", "event:1")
	assert.ErrorIs(t, err, ErrEventHasApplications)

	delete(apps.apps, "application:1")
	require.NoError(t, svc.Delete(context.Background(), "user:btc", "event:1"))
	assert.NotContains(t, events.events, "event:1")

	err = svc.Delete(context.Background(), "user:btc", "event:1")
	assert.ErrorIs(t, err, ErrEventNotFound)
}

// ============================================================================
// Reads
// ============================================================================

func TestGetDetail(t *testing.T) {
	svc, events, apps, _, now := newEventFixture(t)
	events.events["event:1"] = recruitingEvent("event:1", "user:btc", now, 2)
	done := recruitingEvent("event:2", "user:btc", now, 2)
	done.Status = model.EventStatusCompleted
	events.events["event:2"] = done
	apps.apps["application:1"] = &model.Application{ID: "application:1", EventID: "event:1", CTVID: "user:ctv", Status: model.ApplicationPending}

	detail, err := svc.GetDetail(context.Background(), "event:1", &Viewer{UserID: "user:ctv", Role: model.UserRoleCTV})
	require.NoError(t, err)

	assert.Equal(t, 1, detail.Views)
	assert.True(t, detail.IsApplied)
	assert.Equal(t, 1, detail.SuccessfulEventsCount)
	require.NotNil(t, detail.Organizer)
	assert.Equal(t, "Sun Agency", detail.Organizer.AgencyName)

	anon, err := svc.GetDetail(context.Background(), "event:1", nil)
	require.NoError(t, err)
	assert.False(t, anon.IsApplied)
	assert.Equal(t, 2, events.events["event:1"].Views)
}

func TestOrganizerDashboard(t *testing.T) {
	svc, events, apps, _, now := newEventFixture(t)
	e := recruitingEvent("event:1", "user:btc", now, 2)
	e.Views = 12
	events.events["event:1"] = e
	apps.apps["application:1"] = &model.Application{
		ID: "application:1", EventID: "event:1", CTVID: "user:ctv",
		Status: model.ApplicationPending, CreatedOn: now.Add(-time.Hour),
	}

	stats, err := svc.Dashboard(context.Background(), "user:btc")
	require.NoError(t, err)

	assert.Equal(t, 1, stats.ActiveEvents)
	assert.Equal(t, 12, stats.TotalViews)
	assert.Equal(t, 1, stats.PendingApplications)
	require.Len(t, stats.Chart, 7)
	assert.Equal(t, 1, stats.Chart[6].Value)
}
