package fixtures

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/eventup/api/internal/database"
	"github.com/eventup/api/internal/model"
	"github.com/eventup/api/internal/repository"
)

// DefaultPassword is the password of every fixture account
const DefaultPassword = "testpass123"

// Factory creates test entities in the database
type Factory struct {
	Users         *repository.UserRepository
	Profiles      *repository.ProfileRepository
	Events        *repository.EventRepository
	Applications  *repository.ApplicationRepository
	Reviews       *repository.ReviewRepository
	Notifications *repository.NotificationRepository
	Payments      *repository.PaymentRepository
}

// New creates a new fixture factory
func New(db database.Database) *Factory {
	return &Factory{
		Users:         repository.NewUserRepository(db),
		Profiles:      repository.NewProfileRepository(db),
		Events:        repository.NewEventRepository(db),
		Applications:  repository.NewApplicationRepository(db),
		Reviews:       repository.NewReviewRepository(db),
		Notifications: repository.NewNotificationRepository(db),
		Payments:      repository.NewPaymentRepository(db),
	}
}

func randomID() string {
	b := make([]byte, 6)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func ctx(t *testing.T) context.Context {
	c, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return c
}

// ============================================================================
// User Fixtures
// ============================================================================

// UserOpts customizes user creation
type UserOpts struct {
	Email    string
	Password string
	Status   model.UserStatus
	Verified bool
	Plan     model.Plan
	Name     string
}

// WithEmail sets the account email
func WithEmail(email string) func(*UserOpts) {
	return func(o *UserOpts) { o.Email = email }
}

// WithStatus sets the account status
func WithStatus(status model.UserStatus) func(*UserOpts) {
	return func(o *UserOpts) {
		o.Status = status
		o.Verified = status != model.UserStatusPending
	}
}

// WithPremium puts the account on an active premium plan
func WithPremium() func(*UserOpts) {
	return func(o *UserOpts) { o.Plan = model.PlanPremium }
}

func (f *Factory) createUser(t *testing.T, role model.UserRole, opts []func(*UserOpts)) (*model.User, *UserOpts) {
	t.Helper()

	o := &UserOpts{
		Email:    fmt.Sprintf("%s_%s@test.local", role, randomID()),
		Password: DefaultPassword,
		Status:   model.UserStatusActive,
		Verified: true,
		Plan:     model.PlanFree,
	}
	for _, fn := range opts {
		fn(o)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(o.Password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("fixtures: failed to hash password: %v", err)
	}
	pw := string(hash)

	user := &model.User{
		Email:           o.Email,
		PasswordHash:    &pw,
		Role:            role,
		Status:          o.Status,
		IsEmailVerified: o.Verified,
	}
	if err := f.Users.Create(ctx(t), user); err != nil {
		t.Fatalf("fixtures: failed to create user: %v", err)
	}

	if o.Plan == model.PlanPremium {
		expiry := time.Now().Add(30 * 24 * time.Hour)
		if err := f.Users.ActivatePlan(ctx(t), user.ID, model.PlanPremium, expiry); err != nil {
			t.Fatalf("fixtures: failed to activate plan: %v", err)
		}
		user.Subscription.Plan = model.PlanPremium
		user.Subscription.ExpiredAt = &expiry
	}
	return user, o
}

// CreateOrganizer creates a BTC account with its profile
func (f *Factory) CreateOrganizer(t *testing.T, opts ...func(*UserOpts)) *model.User {
	t.Helper()
	user, o := f.createUser(t, model.UserRoleBTC, opts)

	name := o.Name
	if name == "" {
		name = "Agency " + randomID()
	}
	if err := f.Profiles.CreateBTC(ctx(t), &model.BTCProfile{UserID: user.ID, AgencyName: name}); err != nil {
		t.Fatalf("fixtures: failed to create organizer profile: %v", err)
	}
	return user
}

// CreateCollaborator creates a CTV account with its profile
func (f *Factory) CreateCollaborator(t *testing.T, opts ...func(*UserOpts)) *model.User {
	t.Helper()
	user, o := f.createUser(t, model.UserRoleCTV, opts)

	name := o.Name
	if name == "" {
		name = "Collaborator " + randomID()
	}
	if err := f.Profiles.CreateCTV(ctx(t), &model.CTVProfile{
		UserID:     user.ID,
		FullName:   name,
		Gender:     model.GenderOther,
		TrustScore: model.TrustScoreDefault,
	}); err != nil {
		t.Fatalf("fixtures: failed to create collaborator profile: %v", err)
	}
	return user
}

// ============================================================================
// Event Fixtures
// ============================================================================

// WithUrgent marks the event urgent
func WithUrgent() func(*model.Event) {
	return func(e *model.Event) { e.Urgent = true }
}

// WithEventStatus sets the event status
func WithEventStatus(status model.EventStatus) func(*model.Event) {
	return func(e *model.Event) { e.Status = status }
}

// WithSchedule sets start and end; the deadline moves to a day before start
func WithSchedule(start, end time.Time) func(*model.Event) {
	return func(e *model.Event) {
		e.StartTime = start
		e.EndTime = end
		e.Deadline = start.Add(-24 * time.Hour)
	}
}

// WithQuantity sets a flat headcount and drops job items
func WithQuantity(n int) func(*model.Event) {
	return func(e *model.Event) {
		e.Quantity = n
		e.JobDetailItems = nil
	}
}

// CreateEvent creates a recruiting event a week from now owned by btc
func (f *Factory) CreateEvent(t *testing.T, btc *model.User, opts ...func(*model.Event)) *model.Event {
	t.Helper()

	start := time.Now().Add(7 * 24 * time.Hour).Truncate(time.Minute)
	event := &model.Event{
		BTCID:       btc.ID,
		Title:       "Event " + randomID(),
		Description: "Fixture event",
		Location:    "Ho Chi Minh City",
		EventType:   model.EventTypeConcert,
		Salary:      "500000 VND",
		StartTime:   start,
		EndTime:     start.Add(6 * time.Hour),
		Deadline:    start.Add(-24 * time.Hour),
		JobDetailItems: []model.JobDetail{
			{Role: "Usher", Quantity: 3, Salary: "400000 VND"},
			{Role: "Check-in", Quantity: 2, Salary: "450000 VND"},
		},
		Status:       model.EventStatusRecruiting,
		Requirements: []string{},
	}
	for _, fn := range opts {
		fn(event)
	}
	if event.Quantity == 0 {
		event.Quantity = event.TotalQuantity()
	}

	if err := f.Events.Create(ctx(t), event); err != nil {
		t.Fatalf("fixtures: failed to create event: %v", err)
	}
	return event
}

// ============================================================================
// Application Fixtures
// ============================================================================

// CreateApplication creates a pending application and bumps the applied count
func (f *Factory) CreateApplication(t *testing.T, event *model.Event, ctv *model.User) *model.Application {
	t.Helper()

	app := &model.Application{
		EventID:     event.ID,
		CTVID:       ctv.ID,
		CoverLetter: "Fixture application",
		Status:      model.ApplicationPending,
	}
	if err := f.Applications.Create(ctx(t), app); err != nil {
		t.Fatalf("fixtures: failed to create application: %v", err)
	}
	if err := f.Events.AdjustApplied(ctx(t), event.ID, 1); err != nil {
		t.Fatalf("fixtures: failed to adjust applied count: %v", err)
	}
	return app
}

// CreateApprovedApplication creates an application and approves it
func (f *Factory) CreateApprovedApplication(t *testing.T, event *model.Event, ctv *model.User) *model.Application {
	t.Helper()

	app := f.CreateApplication(t, event, ctv)
	if err := f.Events.IncrementApproved(ctx(t), event.ID, event.TotalQuantity()); err != nil {
		t.Fatalf("fixtures: failed to take a slot: %v", err)
	}
	approved, err := f.Applications.Transition(ctx(t), app.ID, model.ApplicationPending, model.ApplicationApproved, model.TransitionFields{})
	if err != nil {
		t.Fatalf("fixtures: failed to approve application: %v", err)
	}
	return approved
}

// ============================================================================
// Notification and Payment Fixtures
// ============================================================================

// CreateNotification stores an unread notification for user
func (f *Factory) CreateNotification(t *testing.T, user *model.User, kind model.NotificationType) *model.Notification {
	t.Helper()

	n := &model.Notification{
		UserID:  user.ID,
		Type:    kind,
		Title:   "Fixture " + string(kind),
		Content: "Fixture notification",
	}
	if err := f.Notifications.Create(ctx(t), n); err != nil {
		t.Fatalf("fixtures: failed to create notification: %v", err)
	}
	return n
}

// CreatePendingPayment stores a pending premium payment for user
func (f *Factory) CreatePendingPayment(t *testing.T, user *model.User, method model.PaymentMethod) *model.Payment {
	t.Helper()

	p := &model.Payment{
		UserID:           user.ID,
		Amount:           decimal.NewFromInt(499000),
		Method:           method,
		Status:           model.PaymentPending,
		TransactionID:    "TXN" + randomID(),
		Description:      "Fixture premium upgrade",
		SubscriptionData: &model.SubscriptionData{Plan: model.PlanPremium, DurationDays: 30},
	}
	if err := f.Payments.Create(ctx(t), p); err != nil {
		t.Fatalf("fixtures: failed to create payment: %v", err)
	}
	return p
}
