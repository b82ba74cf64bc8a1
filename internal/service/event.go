package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eventup/api/internal/model"
)

// EventRepository defines the interface for event storage
type EventRepository interface {
	Create(ctx context.Context, e *model.Event) error
	Save(ctx context.Context, e *model.Event) error
	GetByID(ctx context.Context, id string) (*model.Event, error)
	Delete(ctx context.Context, id string) error
	IncrementViews(ctx context.Context, id string) error
	AdjustApplied(ctx context.Context, id string, delta int) error
	IncrementApproved(ctx context.Context, id string, capacity int) error
	ReleaseApproved(ctx context.Context, id string) error
	Search(ctx context.Context, f *model.EventSearchFilters, page model.Page) (*model.PageResult[*model.Event], error)
	ListByBTC(ctx context.Context, btcID string, status model.EventStatus, page model.Page) (*model.PageResult[*model.Event], error)
	AllByBTC(ctx context.Context, btcID string) ([]*model.Event, error)
	ListByIDs(ctx context.Context, ids []string) ([]*model.Event, error)
	CountCreatedThisMonth(ctx context.Context, btcID string, now time.Time, urgentOnly bool) (int, error)
	CountByStatus(ctx context.Context, btcID string, status model.EventStatus) (int, error)
	EndedBetween(ctx context.Context, from, to time.Time) ([]*model.Event, error)
	EndedBefore(ctx context.Context, cutoff time.Time) ([]*model.Event, error)
	StartingBetween(ctx context.Context, from, to time.Time) ([]*model.Event, error)
	MarkStarted(ctx context.Context, now time.Time) (int, error)
	MarkEnded(ctx context.Context, now time.Time) (int, error)
}

// EventService handles event posting, search and organizer dashboards
type EventService struct {
	eventRepo   EventRepository
	appRepo     ApplicationRepository
	userRepo    UserRepository
	profileRepo ProfileRepository
	plans       PlanConfig
	logger      *zap.Logger
	now         func() time.Time
}

// EventServiceConfig holds configuration for the event service
type EventServiceConfig struct {
	EventRepo   EventRepository
	AppRepo     ApplicationRepository
	UserRepo    UserRepository
	ProfileRepo ProfileRepository
	Plans       PlanConfig
	Logger      *zap.Logger
}

// NewEventService creates a new event service
func NewEventService(cfg EventServiceConfig) *EventService {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &EventService{
		eventRepo:   cfg.EventRepo,
		appRepo:     cfg.AppRepo,
		userRepo:    cfg.UserRepo,
		profileRepo: cfg.ProfileRepo,
		plans:       cfg.Plans,
		logger:      cfg.Logger,
		now:         time.Now,
	}
}

// CreateEventRequest represents a new event posting
type CreateEventRequest struct {
	Title          string
	Description    string
	Location       string
	EventType      model.EventType
	Salary         string
	Benefits       string
	StartTime      time.Time
	EndTime        time.Time
	Deadline       time.Time
	Quantity       int
	JobDetailItems []model.JobDetail
	Poster         *string
	Urgent         bool
	Requirements   []string
}

// UpdateEventRequest is a partial update; nil fields are left unchanged
type UpdateEventRequest struct {
	Title          *string
	Description    *string
	Location       *string
	EventType      *model.EventType
	Salary         *string
	Benefits       *string
	StartTime      *time.Time
	EndTime        *time.Time
	Deadline       *time.Time
	Quantity       *int
	JobDetailItems []model.JobDetail
	Poster         *string
	Urgent         *bool
	Status         *model.EventStatus
	Requirements   []string
}

// Viewer identifies an optional signed in caller
type Viewer struct {
	UserID string
	Role   model.UserRole
}

// Search lists recruiting events matching the filters
func (s *EventService) Search(ctx context.Context, f *model.EventSearchFilters, page model.Page) (*model.PageResult[*model.Event], error) {
	if f == nil {
		f = &model.EventSearchFilters{}
	}
	f.Keyword = strings.TrimSpace(f.Keyword)
	f.Location = strings.TrimSpace(f.Location)
	return s.eventRepo.Search(ctx, f, page)
}

// GetDetail returns the public view of an event and counts the view
func (s *EventService) GetDetail(ctx context.Context, eventID string, viewer *Viewer) (*model.EventDetail, error) {
	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if err := s.eventRepo.IncrementViews(ctx, eventID); err != nil {
		s.logger.Warn("incrementing event views", zap.String("event_id", eventID), zap.Error(err))
	} else {
		event.Views++
	}

	detail := &model.EventDetail{Event: event}
	detail.Organizer, err = s.profileRepo.GetBTCByUserID(ctx, event.BTCID)
	if err != nil {
		return nil, err
	}
	detail.SuccessfulEventsCount, err = s.eventRepo.CountByStatus(ctx, event.BTCID, model.EventStatusCompleted)
	if err != nil {
		return nil, err
	}

	if viewer != nil && viewer.Role == model.UserRoleCTV {
		app, err := s.appRepo.GetByEventAndCTV(ctx, eventID, viewer.UserID)
		if err != nil {
			return nil, err
		}
		detail.IsApplied = app != nil
	}
	return detail, nil
}

// Create posts a new recruiting event within the organizer's monthly limits
func (s *EventService) Create(ctx context.Context, btcID string, req CreateEventRequest) (*model.Event, error) {
	user, err := s.userRepo.GetByID(ctx, btcID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if user.Role != model.UserRoleBTC {
		return nil, ErrOrganizerOnly
	}

	event := &model.Event{
		BTCID:          btcID,
		Title:          sanitizeText(req.Title),
		Description:    sanitizeText(req.Description),
		Location:       sanitizeText(req.Location),
		EventType:      req.EventType,
		Salary:         sanitizeText(req.Salary),
		Benefits:       sanitizeText(req.Benefits),
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		Deadline:       req.Deadline,
		Quantity:       req.Quantity,
		JobDetailItems: sanitizeJobDetails(req.JobDetailItems),
		Poster:         req.Poster,
		Urgent:         req.Urgent,
		Status:         model.EventStatusRecruiting,
		Requirements:   sanitizeList(req.Requirements),
	}
	if err := NewValidationError(validateEvent(event)); err != nil {
		return nil, err
	}

	if err := s.checkPostLimits(ctx, user, req.Urgent); err != nil {
		return nil, err
	}

	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, err
	}
	if err := s.userRepo.IncrementUsage(ctx, btcID, event.Urgent); err != nil {
		s.logger.Warn("incrementing post usage", zap.String("user_id", btcID), zap.Error(err))
	}
	return event, nil
}

func (s *EventService) checkPostLimits(ctx context.Context, user *model.User, urgent bool) error {
	now := s.now()
	plan := s.plans.Details(EffectivePlan(user, now))

	if urgent && plan.Name != model.PlanPremium {
		return ErrUrgentRequiresPremium
	}

	posted, err := s.eventRepo.CountCreatedThisMonth(ctx, user.ID, now, false)
	if err != nil {
		return err
	}
	if posted >= plan.PostLimit {
		return &LimitError{Err: ErrPostLimitReached, Limit: plan.PostLimit, Current: posted}
	}

	if urgent {
		urgentPosted, err := s.eventRepo.CountCreatedThisMonth(ctx, user.ID, now, true)
		if err != nil {
			return err
		}
		if urgentPosted >= plan.UrgentLimit {
			return &LimitError{Err: ErrUrgentLimitReached, Limit: plan.UrgentLimit, Current: urgentPosted}
		}
	}
	return nil
}

// Update applies a partial update to an owned event
func (s *EventService) Update(ctx context.Context, btcID, eventID string, req UpdateEventRequest) (*model.Event, error) {
	event, err := s.ownedEvent(ctx, btcID, eventID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		event.Title = sanitizeText(*req.Title)
	}
	if req.Description != nil {
		event.Description = sanitizeText(*req.Description)
	}
	if req.Location != nil {
		event.Location = sanitizeText(*req.Location)
	}
	if req.EventType != nil {
		event.EventType = *req.EventType
	}
	if req.Salary != nil {
		event.Salary = sanitizeText(*req.Salary)
	}
	if req.Benefits != nil {
		event.Benefits = sanitizeText(*req.Benefits)
	}
	if req.StartTime != nil {
		event.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		event.EndTime = *req.EndTime
	}
	if req.Deadline != nil {
		event.Deadline = *req.Deadline
	}
	if req.Quantity != nil {
		event.Quantity = *req.Quantity
	}
	if req.JobDetailItems != nil {
		event.JobDetailItems = sanitizeJobDetails(req.JobDetailItems)
	}
	if req.Poster != nil {
		event.Poster = req.Poster
	}
	if req.Status != nil {
		event.Status = *req.Status
	}
	if req.Requirements != nil {
		event.Requirements = sanitizeList(req.Requirements)
	}
	if req.Urgent != nil && *req.Urgent != event.Urgent {
		if *req.Urgent {
			user, err := s.userRepo.GetByID(ctx, btcID)
			if err != nil {
				return nil, err
			}
			if user == nil || !user.IsPremium(s.now()) {
				return nil, ErrUrgentRequiresPremium
			}
		}
		event.Urgent = *req.Urgent
	}

	errs := validateEvent(event)
	if event.TotalQuantity() < event.ApprovedCount {
		errs = append(errs, model.FieldError{Field: "quantity", Message: "quantity cannot be lower than the number of approved collaborators"})
	}
	if err := NewValidationError(errs); err != nil {
		return nil, err
	}

	if err := s.eventRepo.Save(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// Delete removes an owned event that has no applications
func (s *EventService) Delete(ctx context.Context, btcID, eventID string) error {
	if _, err := s.ownedEvent(ctx, btcID, eventID); err != nil {
		return err
	}
	count, err := s.appRepo.CountByEvent(ctx, eventID)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrEventHasApplications
	}
	return s.eventRepo.Delete(ctx, eventID)
}

// MyEvents lists the organizer's events
func (s *EventService) MyEvents(ctx context.Context, btcID string, status model.EventStatus, page model.Page) (*model.PageResult[*model.Event], error) {
	return s.eventRepo.ListByBTC(ctx, btcID, status, page)
}

// Dashboard summarizes the organizer's events and the applications of the last seven days
func (s *EventService) Dashboard(ctx context.Context, btcID string) (*model.BTCDashboardStats, error) {
	events, err := s.eventRepo.AllByBTC(ctx, btcID)
	if err != nil {
		return nil, err
	}

	stats := &model.BTCDashboardStats{}
	ids := make([]string, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
		stats.TotalViews += e.Views
		if e.Status == model.EventStatusRecruiting {
			stats.ActiveEvents++
		}
	}

	now := s.now()
	if len(ids) > 0 {
		stats.PendingApplications, err = s.appRepo.CountPendingForEvents(ctx, ids)
		if err != nil {
			return nil, err
		}
	}

	var stamps []time.Time
	if len(ids) > 0 {
		stamps, err = s.appRepo.CreatedSinceForEvents(ctx, ids, chartStart(now))
		if err != nil {
			return nil, err
		}
	}
	stats.Chart = model.WeekChart(now, stamps)
	return stats, nil
}

func (s *EventService) getEvent(ctx context.Context, eventID string) (*model.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrEventNotFound
	}
	return event, nil
}

func (s *EventService) ownedEvent(ctx context.Context, btcID, eventID string) (*model.Event, error) {
	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.BTCID != btcID {
		return nil, ErrNotEventOwner
	}
	return event, nil
}

// chartStart is midnight six days before now, the first bucket of a week chart
func chartStart(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location()).AddDate(0, 0, -6)
}

func sanitizeJobDetails(items []model.JobDetail) []model.JobDetail {
	if items == nil {
		return nil
	}
	out := make([]model.JobDetail, 0, len(items))
	for _, item := range items {
		out = append(out, model.JobDetail{
			Role:     sanitizeText(item.Role),
			Task:     sanitizeText(item.Task),
			WorkTime: sanitizeText(item.WorkTime),
			Quantity: item.Quantity,
			Salary:   sanitizeText(item.Salary),
		})
	}
	return out
}

func validEventType(t model.EventType) bool {
	for _, known := range model.EventTypes {
		if t == known {
			return true
		}
	}
	return false
}

func validEventStatus(st model.EventStatus) bool {
	switch st {
	case model.EventStatusPreparing, model.EventStatusRecruiting, model.EventStatusCompleted, model.EventStatusCancelled:
		return true
	}
	return false
}

func validateEvent(e *model.Event) []model.FieldError {
	var errs []model.FieldError
	if e.Title == "" {
		errs = append(errs, model.FieldError{Field: "title", Message: "title is required"})
	} else if len([]rune(e.Title)) > model.MaxEventTitleLength {
		errs = append(errs, model.FieldError{Field: "title", Message: "title must be at most 200 characters"})
	}
	if e.Description == "" {
		errs = append(errs, model.FieldError{Field: "description", Message: "description is required"})
	}
	if e.Location == "" {
		errs = append(errs, model.FieldError{Field: "location", Message: "location is required"})
	}
	if !validEventType(e.EventType) {
		errs = append(errs, model.FieldError{Field: "event_type", Message: "unknown event type"})
	}
	if !validEventStatus(e.Status) {
		errs = append(errs, model.FieldError{Field: "status", Message: "unknown event status"})
	}
	if e.Quantity < 0 {
		errs = append(errs, model.FieldError{Field: "quantity", Message: "quantity cannot be negative"})
	}
	for _, item := range e.JobDetailItems {
		if item.Role == "" || item.Quantity < 1 {
			errs = append(errs, model.FieldError{Field: "job_details_items", Message: "each job needs a role and a quantity of at least 1"})
			break
		}
	}
	return append(errs, e.ValidateSchedule()...)
}
