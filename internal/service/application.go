package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/eventup/api/internal/database"
	"github.com/eventup/api/internal/email"
	"github.com/eventup/api/internal/model"
)

// upcomingLimit caps the upcoming events on the collaborator dashboard
const upcomingLimit = 5

// defaultJoinedRole is recorded when an approved collaborator had no assigned role
const defaultJoinedRole = "Collaborator"

// ApplicationRepository defines the interface for application storage
type ApplicationRepository interface {
	Create(ctx context.Context, app *model.Application) error
	GetByID(ctx context.Context, id string) (*model.Application, error)
	GetByEventAndCTV(ctx context.Context, eventID, ctvID string) (*model.Application, error)
	ListByIDs(ctx context.Context, ids []string) ([]*model.Application, error)
	Transition(ctx context.Context, id string, from, to model.ApplicationStatus, fields model.TransitionFields) (*model.Application, error)
	ListByCTV(ctx context.Context, ctvID string, status model.ApplicationStatus, page model.Page) (*model.PageResult[*model.Application], error)
	AllByCTV(ctx context.Context, ctvID string) ([]*model.Application, error)
	ListByEvent(ctx context.Context, eventID string) ([]*model.Application, error)
	ListByEventAndStatus(ctx context.Context, eventID string, status model.ApplicationStatus) ([]*model.Application, error)
	CountByEvent(ctx context.Context, eventID string) (int, error)
	CountPendingForEvents(ctx context.Context, eventIDs []string) (int, error)
	CreatedSinceForEvents(ctx context.Context, eventIDs []string, since time.Time) ([]time.Time, error)
}

// ApplicationService handles the application workflow between collaborators and organizers
type ApplicationService struct {
	appRepo     ApplicationRepository
	eventRepo   EventRepository
	userRepo    UserRepository
	profileRepo ProfileRepository
	notifier    Notifier
	mailer      email.Sender
	logger      *zap.Logger
	now         func() time.Time
}

// ApplicationServiceConfig holds configuration for the application service
type ApplicationServiceConfig struct {
	AppRepo     ApplicationRepository
	EventRepo   EventRepository
	UserRepo    UserRepository
	ProfileRepo ProfileRepository
	Notifier    Notifier
	Mailer      email.Sender
	Logger      *zap.Logger
}

// NewApplicationService creates a new application service
func NewApplicationService(cfg ApplicationServiceConfig) *ApplicationService {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &ApplicationService{
		appRepo:     cfg.AppRepo,
		eventRepo:   cfg.EventRepo,
		userRepo:    cfg.UserRepo,
		profileRepo: cfg.ProfileRepo,
		notifier:    cfg.Notifier,
		mailer:      cfg.Mailer,
		logger:      cfg.Logger,
		now:         time.Now,
	}
}

// ============================================================================
// Collaborator side
// ============================================================================

// Apply submits a collaborator's application to a recruiting event
func (s *ApplicationService) Apply(ctx context.Context, ctvID, eventID, coverLetter string) (*model.Application, error) {
	coverLetter = sanitizeText(coverLetter)
	if len([]rune(coverLetter)) > model.MaxCoverLetter {
		return nil, NewValidationError([]model.FieldError{{Field: "cover_letter", Message: "cover letter must be at most 1000 characters"}})
	}

	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !event.CanApply(s.now()) {
		return nil, ErrCannotApply
	}

	existing, err := s.appRepo.GetByEventAndCTV(ctx, eventID, ctvID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyApplied
	}

	app := &model.Application{
		EventID:     eventID,
		CTVID:       ctvID,
		CoverLetter: coverLetter,
		Status:      model.ApplicationPending,
	}
	if err := s.appRepo.Create(ctx, app); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrAlreadyApplied
		}
		return nil, err
	}
	if err := s.eventRepo.AdjustApplied(ctx, eventID, 1); err != nil {
		s.logger.Warn("incrementing applied count", zap.String("event_id", eventID), zap.Error(err))
	}

	applicant := s.displayName(ctx, ctvID)
	notifyQuietly(ctx, s.notifier, s.logger, NotificationInput{
		UserID:       event.BTCID,
		Type:         model.NotificationApplication,
		Title:        "New application",
		Content:      fmt.Sprintf("%s applied to %s", applicant, event.Title),
		RelatedID:    app.ID,
		RelatedModel: model.RelatedApplication,
		Metadata:     map[string]interface{}{"event_id": eventID},
	})
	if organizer, err := s.userRepo.GetByID(ctx, event.BTCID); err == nil && organizer != nil {
		s.sendMail(ctx, email.ApplicationReceived(organizer.Email, s.organizerName(ctx, organizer.ID), applicant, event.Title))
	}
	return app, nil
}

// MyApplications lists the collaborator's applications with their events
func (s *ApplicationService) MyApplications(ctx context.Context, ctvID string, status model.ApplicationStatus, page model.Page) (*model.PageResult[*model.ApplicationWithEvent], error) {
	result, err := s.appRepo.ListByCTV(ctx, ctvID, status, page)
	if err != nil {
		return nil, err
	}
	items, err := s.withEvents(ctx, result.Items)
	if err != nil {
		return nil, err
	}
	return &model.PageResult[*model.ApplicationWithEvent]{Items: items, Total: result.Total, Page: result.Page}, nil
}

// Cancel withdraws a pending application
func (s *ApplicationService) Cancel(ctx context.Context, ctvID, appID string) (*model.Application, error) {
	app, err := s.getApplication(ctx, appID)
	if err != nil {
		return nil, err
	}
	if app.CTVID != ctvID {
		return nil, ErrNotApplicationOwner
	}

	updated, err := s.transition(ctx, app, model.ApplicationCancelled, model.TransitionFields{})
	if err != nil {
		return nil, err
	}
	if err := s.eventRepo.AdjustApplied(ctx, app.EventID, -1); err != nil {
		s.logger.Warn("decrementing applied count", zap.String("event_id", app.EventID), zap.Error(err))
	}
	return updated, nil
}

// Dashboard summarizes the collaborator's applications
func (s *ApplicationService) Dashboard(ctx context.Context, ctvID string) (*model.CTVDashboardStats, error) {
	apps, err := s.appRepo.AllByCTV(ctx, ctvID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	stats := &model.CTVDashboardStats{
		Total:    len(apps),
		ByStatus: make(map[model.ApplicationStatus]int, len(model.ApplicationStatuses)),
	}
	for _, st := range model.ApplicationStatuses {
		stats.ByStatus[st] = 0
	}

	var approved []*model.Application
	stamps := make([]time.Time, 0, len(apps))
	for _, app := range apps {
		stats.ByStatus[app.Status]++
		stamps = append(stamps, app.CreatedOn)
		if app.Status == model.ApplicationApproved {
			approved = append(approved, app)
		}
	}
	stats.EventsJoined = stats.ByStatus[model.ApplicationCompleted]
	stats.Chart = model.WeekChart(now, stamps)

	withEvents, err := s.withEvents(ctx, approved)
	if err != nil {
		return nil, err
	}
	upcoming := make([]*model.ApplicationWithEvent, 0, upcomingLimit)
	for _, item := range withEvents {
		if item.Event != nil && item.Event.StartTime.After(now) {
			upcoming = append(upcoming, item)
		}
	}
	sort.Slice(upcoming, func(i, j int) bool {
		return upcoming[i].Event.StartTime.Before(upcoming[j].Event.StartTime)
	})
	if len(upcoming) > upcomingLimit {
		upcoming = upcoming[:upcomingLimit]
	}
	stats.UpcomingEvents = upcoming
	return stats, nil
}

// ============================================================================
// Organizer side
// ============================================================================

// EventApplications lists the applications of an owned event with applicant details
func (s *ApplicationService) EventApplications(ctx context.Context, btcID, eventID string, status model.ApplicationStatus) ([]*model.ApplicationWithProfile, error) {
	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.BTCID != btcID {
		return nil, ErrNotEventOwner
	}

	var apps []*model.Application
	if status != "" {
		apps, err = s.appRepo.ListByEventAndStatus(ctx, eventID, status)
	} else {
		apps, err = s.appRepo.ListByEvent(ctx, eventID)
	}
	if err != nil {
		return nil, err
	}

	ctvIDs := make([]string, 0, len(apps))
	for _, app := range apps {
		ctvIDs = append(ctvIDs, app.CTVID)
	}
	profiles, err := s.profileRepo.ListCTVByUserIDs(ctx, ctvIDs)
	if err != nil {
		return nil, err
	}
	users, err := s.userRepo.ListByIDs(ctx, ctvIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*model.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	out := make([]*model.ApplicationWithProfile, 0, len(apps))
	for _, app := range apps {
		item := &model.ApplicationWithProfile{Application: app}
		if p := profiles[app.CTVID]; p != nil {
			item.Profile = p.Summary()
		}
		if u := byID[app.CTVID]; u != nil {
			item.Email = u.Email
			item.Phone = u.Phone
		}
		out = append(out, item)
	}
	return out, nil
}

// Approve accepts a pending application and takes one slot of the event
func (s *ApplicationService) Approve(ctx context.Context, btcID, appID string, assignedRole *string) (*model.Application, error) {
	app, event, err := s.ownedApplication(ctx, btcID, appID)
	if err != nil {
		return nil, err
	}
	return s.approve(ctx, app, event, sanitizePtr(assignedRole))
}

func (s *ApplicationService) approve(ctx context.Context, app *model.Application, event *model.Event, assignedRole *string) (*model.Application, error) {
	if app.Status != model.ApplicationPending {
		return nil, ErrInvalidTransition
	}

	if err := s.eventRepo.IncrementApproved(ctx, event.ID, event.TotalQuantity()); err != nil {
		if errors.Is(err, database.ErrConflict) {
			return nil, ErrEventFull
		}
		return nil, err
	}
	updated, err := s.transition(ctx, app, model.ApplicationApproved, model.TransitionFields{AssignedRole: assignedRole})
	if err != nil {
		if relErr := s.eventRepo.ReleaseApproved(ctx, event.ID); relErr != nil {
			s.logger.Error("releasing approved slot", zap.String("event_id", event.ID), zap.Error(relErr))
		}
		return nil, err
	}
	event.ApprovedCount++

	notifyQuietly(ctx, s.notifier, s.logger, NotificationInput{
		UserID:       app.CTVID,
		Type:         model.NotificationApproval,
		Title:        "Application approved",
		Content:      fmt.Sprintf("Your application to %s was approved", event.Title),
		RelatedID:    app.ID,
		RelatedModel: model.RelatedApplication,
		Metadata:     map[string]interface{}{"event_id": event.ID},
	})
	if user, err := s.userRepo.GetByID(ctx, app.CTVID); err == nil && user != nil {
		s.sendMail(ctx, email.ApplicationApproved(user.Email, s.displayName(ctx, app.CTVID), event.Title,
			stringValue(assignedRole), event.StartTime, event.Location))
	}
	return updated, nil
}

// Reject declines a pending application
func (s *ApplicationService) Reject(ctx context.Context, btcID, appID string, reason *string) (*model.Application, error) {
	app, event, err := s.ownedApplication(ctx, btcID, appID)
	if err != nil {
		return nil, err
	}
	return s.reject(ctx, app, event, sanitizePtr(reason))
}

func (s *ApplicationService) reject(ctx context.Context, app *model.Application, event *model.Event, reason *string) (*model.Application, error) {
	updated, err := s.transition(ctx, app, model.ApplicationRejected, model.TransitionFields{RejectionReason: reason})
	if err != nil {
		return nil, err
	}

	content := fmt.Sprintf("Your application to %s was not accepted", event.Title)
	if reason != nil && *reason != "" {
		content += ": " + *reason
	}
	notifyQuietly(ctx, s.notifier, s.logger, NotificationInput{
		UserID:       app.CTVID,
		Type:         model.NotificationRejection,
		Title:        "Application rejected",
		Content:      content,
		RelatedID:    app.ID,
		RelatedModel: model.RelatedApplication,
		Metadata:     map[string]interface{}{"event_id": event.ID},
	})
	return updated, nil
}

// BulkApprove approves several pending applications at once (premium organizers)
func (s *ApplicationService) BulkApprove(ctx context.Context, btcID string, ids []string, assignedRole *string) (*model.BulkResult, error) {
	apps, events, err := s.bulkTargets(ctx, btcID, ids)
	if err != nil {
		return nil, err
	}

	// Refuse up front rather than approving part of the selection
	wanted := make(map[string]int)
	for _, app := range apps {
		wanted[app.EventID]++
	}
	for eventID, n := range wanted {
		e := events[eventID]
		if e.ApprovedCount+n > e.TotalQuantity() {
			return nil, ErrEventFull
		}
	}

	role := sanitizePtr(assignedRole)
	result := &model.BulkResult{IDs: []string{}}
	for _, app := range apps {
		if _, err := s.approve(ctx, app, events[app.EventID], role); err != nil {
			s.logger.Warn("bulk approve skipped application", zap.String("application_id", app.ID), zap.Error(err))
			continue
		}
		result.Updated++
		result.IDs = append(result.IDs, app.ID)
	}
	return result, nil
}

// BulkReject rejects several pending applications at once (premium organizers)
func (s *ApplicationService) BulkReject(ctx context.Context, btcID string, ids []string, reason *string) (*model.BulkResult, error) {
	apps, events, err := s.bulkTargets(ctx, btcID, ids)
	if err != nil {
		return nil, err
	}

	clean := sanitizePtr(reason)
	result := &model.BulkResult{IDs: []string{}}
	for _, app := range apps {
		if _, err := s.reject(ctx, app, events[app.EventID], clean); err != nil {
			s.logger.Warn("bulk reject skipped application", zap.String("application_id", app.ID), zap.Error(err))
			continue
		}
		result.Updated++
		result.IDs = append(result.IDs, app.ID)
	}
	return result, nil
}

// bulkTargets loads the selection and checks that the caller is premium,
// owns every event and that every application is still pending
func (s *ApplicationService) bulkTargets(ctx context.Context, btcID string, ids []string) ([]*model.Application, map[string]*model.Event, error) {
	ids = uniqueStrings(ids)
	if len(ids) == 0 {
		return nil, nil, ErrEmptySelection
	}

	user, err := s.userRepo.GetByID(ctx, btcID)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, ErrUserNotFound
	}
	if !user.IsPremium(s.now()) {
		return nil, nil, ErrPremiumRequired
	}

	apps, err := s.appRepo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	if len(apps) != len(ids) {
		return nil, nil, ErrApplicationNotFound
	}

	eventIDs := make([]string, 0, len(apps))
	for _, app := range apps {
		if app.Status != model.ApplicationPending {
			return nil, nil, ErrInvalidTransition
		}
		eventIDs = append(eventIDs, app.EventID)
	}
	list, err := s.eventRepo.ListByIDs(ctx, uniqueStrings(eventIDs))
	if err != nil {
		return nil, nil, err
	}
	events := make(map[string]*model.Event, len(list))
	for _, e := range list {
		events[e.ID] = e
	}
	for _, app := range apps {
		e := events[app.EventID]
		if e == nil {
			return nil, nil, ErrEventNotFound
		}
		if e.BTCID != btcID {
			return nil, nil, ErrNotEventOwner
		}
	}
	return apps, events, nil
}

// Complete marks an approved collaborator as having worked the event
func (s *ApplicationService) Complete(ctx context.Context, btcID, appID string) (*model.Application, error) {
	app, event, err := s.ownedApplication(ctx, btcID, appID)
	if err != nil {
		return nil, err
	}
	return s.complete(ctx, app, event)
}

func (s *ApplicationService) complete(ctx context.Context, app *model.Application, event *model.Event) (*model.Application, error) {
	updated, err := s.transition(ctx, app, model.ApplicationCompleted, model.TransitionFields{})
	if err != nil {
		return nil, err
	}

	role := stringValue(app.AssignedRole)
	if role == "" {
		role = defaultJoinedRole
	}
	s.recordParticipation(ctx, app.CTVID, event.ID, role, model.TrustDeltaCompleted)

	notifyQuietly(ctx, s.notifier, s.logger, NotificationInput{
		UserID:       app.CTVID,
		Type:         model.NotificationCompletion,
		Title:        "Event completed",
		Content:      fmt.Sprintf("You completed %s. Thank you for your work!", event.Title),
		RelatedID:    event.ID,
		RelatedModel: model.RelatedEvent,
	})
	return updated, nil
}

// Report marks an approved collaborator as a no-show
func (s *ApplicationService) Report(ctx context.Context, btcID, appID string, reason *string) (*model.Application, error) {
	app, event, err := s.ownedApplication(ctx, btcID, appID)
	if err != nil {
		return nil, err
	}

	notes := stringValue(sanitizePtr(reason))
	if notes == "" {
		notes = model.DefaultViolationNote
	}
	updated, err := s.transition(ctx, app, model.ApplicationNoShow, model.TransitionFields{Notes: &notes})
	if err != nil {
		return nil, err
	}

	s.recordParticipation(ctx, app.CTVID, event.ID, model.NoShowRole, model.TrustDeltaNoShow)

	notifyQuietly(ctx, s.notifier, s.logger, NotificationInput{
		UserID:       app.CTVID,
		Type:         model.NotificationViolation,
		Title:        "Violation reported",
		Content:      fmt.Sprintf("The organizer of %s reported: %s", event.Title, notes),
		RelatedID:    app.ID,
		RelatedModel: model.RelatedApplication,
		Metadata:     map[string]interface{}{"event_id": event.ID},
	})
	return updated, nil
}

// recordParticipation adjusts trust and appends the event to the collaborator's joined events once
func (s *ApplicationService) recordParticipation(ctx context.Context, ctvID, eventID, role string, trustDelta float64) {
	profile, err := s.profileRepo.GetCTVByUserID(ctx, ctvID)
	if err != nil || profile == nil {
		s.logger.Warn("loading collaborator profile", zap.String("user_id", ctvID), zap.Error(err))
		return
	}
	profile.AdjustTrust(trustDelta)
	if !profile.HasJoined(eventID) {
		profile.JoinedEvents = append(profile.JoinedEvents, model.JoinedEvent{
			EventID:  eventID,
			Role:     role,
			JoinedAt: s.now(),
		})
	}
	if err := s.profileRepo.SaveCTV(ctx, profile); err != nil {
		s.logger.Error("saving collaborator profile", zap.String("user_id", ctvID), zap.Error(err))
	}
}

// ============================================================================
// Scheduled work
// ============================================================================

// AutoCompleteEnded completes the approved applications of events that ended before cutoff
func (s *ApplicationService) AutoCompleteEnded(ctx context.Context, cutoff time.Time) (int, error) {
	events, err := s.eventRepo.EndedBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	completed := 0
	for _, event := range events {
		apps, err := s.appRepo.ListByEventAndStatus(ctx, event.ID, model.ApplicationApproved)
		if err != nil {
			s.logger.Error("listing approved applications", zap.String("event_id", event.ID), zap.Error(err))
			continue
		}
		for _, app := range apps {
			if _, err := s.complete(ctx, app, event); err != nil {
				s.logger.Warn("auto-completing application", zap.String("application_id", app.ID), zap.Error(err))
				continue
			}
			completed++
		}
		if len(apps) > 0 {
			s.recordSuccessfulEvent(ctx, event)
		}
	}
	return completed, nil
}

func (s *ApplicationService) recordSuccessfulEvent(ctx context.Context, event *model.Event) {
	profile, err := s.profileRepo.GetBTCByUserID(ctx, event.BTCID)
	if err != nil || profile == nil {
		return
	}
	for _, id := range profile.SuccessfulEvents {
		if id == event.ID {
			return
		}
	}
	profile.SuccessfulEvents = append(profile.SuccessfulEvents, event.ID)
	if err := s.profileRepo.SaveBTC(ctx, profile); err != nil {
		s.logger.Warn("recording successful event", zap.String("event_id", event.ID), zap.Error(err))
	}
}

// ============================================================================
// Helpers
// ============================================================================

func (s *ApplicationService) transition(ctx context.Context, app *model.Application, to model.ApplicationStatus, fields model.TransitionFields) (*model.Application, error) {
	if !app.Status.CanTransition(to) {
		return nil, ErrInvalidTransition
	}
	updated, err := s.appRepo.Transition(ctx, app.ID, app.Status, to, fields)
	if err != nil {
		if errors.Is(err, database.ErrConflict) {
			return nil, ErrInvalidTransition
		}
		return nil, err
	}
	return updated, nil
}

func (s *ApplicationService) getApplication(ctx context.Context, appID string) (*model.Application, error) {
	app, err := s.appRepo.GetByID(ctx, appID)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, ErrApplicationNotFound
	}
	return app, nil
}

func (s *ApplicationService) getEvent(ctx context.Context, eventID string) (*model.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrEventNotFound
	}
	return event, nil
}

func (s *ApplicationService) ownedApplication(ctx context.Context, btcID, appID string) (*model.Application, *model.Event, error) {
	app, err := s.getApplication(ctx, appID)
	if err != nil {
		return nil, nil, err
	}
	event, err := s.getEvent(ctx, app.EventID)
	if err != nil {
		return nil, nil, err
	}
	if event.BTCID != btcID {
		return nil, nil, ErrNotEventOwner
	}
	return app, event, nil
}

func (s *ApplicationService) withEvents(ctx context.Context, apps []*model.Application) ([]*model.ApplicationWithEvent, error) {
	ids := make([]string, 0, len(apps))
	for _, app := range apps {
		ids = append(ids, app.EventID)
	}
	byID := make(map[string]*model.Event, len(ids))
	if len(ids) > 0 {
		events, err := s.eventRepo.ListByIDs(ctx, uniqueStrings(ids))
		if err != nil {
			return nil, err
		}
		for _, e := range events {
			byID[e.ID] = e
		}
	}
	out := make([]*model.ApplicationWithEvent, 0, len(apps))
	for _, app := range apps {
		out = append(out, &model.ApplicationWithEvent{Application: app, Event: byID[app.EventID]})
	}
	return out, nil
}

func (s *ApplicationService) displayName(ctx context.Context, ctvID string) string {
	if p, err := s.profileRepo.GetCTVByUserID(ctx, ctvID); err == nil && p != nil && p.FullName != "" {
		return p.FullName
	}
	return "A collaborator"
}

func (s *ApplicationService) organizerName(ctx context.Context, btcID string) string {
	if p, err := s.profileRepo.GetBTCByUserID(ctx, btcID); err == nil && p != nil && p.AgencyName != "" {
		return p.AgencyName
	}
	return "Organizer"
}

func (s *ApplicationService) sendMail(ctx context.Context, msg email.Message) {
	if s.mailer == nil {
		return
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.Warn("sending email", zap.String("to", msg.To), zap.String("subject", msg.Subject), zap.Error(err))
	}
}

// uniqueStrings drops duplicates and empty values, keeping the first occurrence order
func uniqueStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
