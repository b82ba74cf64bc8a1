package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/eventup/api/internal/email"
	"github.com/eventup/api/internal/model"
)

// ReminderService sends time based event reminders and moves events through their lifecycle
type ReminderService struct {
	eventRepo   EventRepository
	appRepo     ApplicationRepository
	userRepo    UserRepository
	profileRepo ProfileRepository
	notifier    Notifier
	mailer      email.Sender
	logger      *zap.Logger
}

// ReminderServiceConfig holds configuration for the reminder service
type ReminderServiceConfig struct {
	EventRepo   EventRepository
	AppRepo     ApplicationRepository
	UserRepo    UserRepository
	ProfileRepo ProfileRepository
	Notifier    Notifier
	Mailer      email.Sender
	Logger      *zap.Logger
}

// NewReminderService creates a new reminder service
func NewReminderService(cfg ReminderServiceConfig) *ReminderService {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &ReminderService{
		eventRepo:   cfg.EventRepo,
		appRepo:     cfg.AppRepo,
		userRepo:    cfg.UserRepo,
		profileRepo: cfg.ProfileRepo,
		notifier:    cfg.Notifier,
		mailer:      cfg.Mailer,
		logger:      cfg.Logger,
	}
}

// RemindCompletion asks organizers of events that ended in [from, to) to
// mark their approved collaborators complete
func (s *ReminderService) RemindCompletion(ctx context.Context, from, to time.Time) (int, error) {
	events, err := s.eventRepo.EndedBetween(ctx, from, to)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, event := range events {
		apps, err := s.appRepo.ListByEventAndStatus(ctx, event.ID, model.ApplicationApproved)
		if err != nil {
			s.logger.Error("listing approved applications", zap.String("event_id", event.ID), zap.Error(err))
			continue
		}
		if len(apps) == 0 {
			continue
		}
		notifyQuietly(ctx, s.notifier, s.logger, NotificationInput{
			UserID:       event.BTCID,
			Type:         model.NotificationReminder,
			Title:        "Confirm completion",
			Content:      fmt.Sprintf("%s has ended. Please confirm completion for %d collaborators.", event.Title, len(apps)),
			RelatedID:    event.ID,
			RelatedModel: model.RelatedEvent,
			Metadata:     map[string]interface{}{"pending_completions": len(apps)},
		})
		sent++
	}
	return sent, nil
}

// RemindUpcoming notifies the organizer and approved collaborators of events
// starting in [from, to). It returns the number of people reminded.
func (s *ReminderService) RemindUpcoming(ctx context.Context, from, to time.Time) (int, error) {
	events, err := s.eventRepo.StartingBetween(ctx, from, to)
	if err != nil {
		return 0, err
	}

	reminded := 0
	for _, event := range events {
		apps, err := s.appRepo.ListByEventAndStatus(ctx, event.ID, model.ApplicationApproved)
		if err != nil {
			s.logger.Error("listing approved applications", zap.String("event_id", event.ID), zap.Error(err))
			continue
		}

		recipients := make([]string, 0, len(apps)+1)
		recipients = append(recipients, event.BTCID)
		for _, app := range apps {
			recipients = append(recipients, app.CTVID)
		}
		recipients = uniqueStrings(recipients)

		names := s.names(ctx, event.BTCID, recipients)
		users, err := s.userRepo.ListByIDs(ctx, recipients)
		if err != nil {
			s.logger.Warn("loading reminder recipients", zap.String("event_id", event.ID), zap.Error(err))
		}

		for _, userID := range recipients {
			notifyQuietly(ctx, s.notifier, s.logger, NotificationInput{
				UserID:       userID,
				Type:         model.NotificationReminder,
				Title:        "Event tomorrow",
				Content:      fmt.Sprintf("%s starts at %s at %s", event.Title, event.StartTime.Format("15:04 02/01/2006"), event.Location),
				RelatedID:    event.ID,
				RelatedModel: model.RelatedEvent,
			})
			reminded++
		}
		for _, user := range users {
			s.sendMail(ctx, email.EventReminder(user.Email, names[user.ID], event.Title, event.StartTime, event.Location))
		}
	}
	return reminded, nil
}

// UpdateStatuses starts recruiting events whose start passed and completes
// events whose end passed
func (s *ReminderService) UpdateStatuses(ctx context.Context, now time.Time) (started, ended int, err error) {
	started, err = s.eventRepo.MarkStarted(ctx, now)
	if err != nil {
		return 0, 0, fmt.Errorf("marking started events: %w", err)
	}
	ended, err = s.eventRepo.MarkEnded(ctx, now)
	if err != nil {
		return started, 0, fmt.Errorf("marking ended events: %w", err)
	}
	return started, ended, nil
}

// names resolves display names for organizer and collaborators
func (s *ReminderService) names(ctx context.Context, btcID string, userIDs []string) map[string]string {
	names := make(map[string]string, len(userIDs))
	if btc, err := s.profileRepo.GetBTCByUserID(ctx, btcID); err == nil && btc != nil {
		names[btcID] = btc.AgencyName
	}
	ctvs, err := s.profileRepo.ListCTVByUserIDs(ctx, userIDs)
	if err == nil {
		for id, p := range ctvs {
			names[id] = p.FullName
		}
	}
	return names
}

func (s *ReminderService) sendMail(ctx context.Context, msg email.Message) {
	if s.mailer == nil {
		return
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.Warn("sending reminder", zap.String("to", msg.To), zap.Error(err))
	}
}
