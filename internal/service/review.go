package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/eventup/api/internal/database"
	"github.com/eventup/api/internal/email"
	"github.com/eventup/api/internal/model"
)

// ReviewRepository defines the interface for review storage
type ReviewRepository interface {
	Create(ctx context.Context, review *model.Review) error
	Update(ctx context.Context, review *model.Review) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*model.Review, error)
	Find(ctx context.Context, eventID, from, to string, reviewType model.ReviewType) (*model.Review, error)
	ListReceived(ctx context.Context, userID string, reviewType model.ReviewType, page model.Page) (*model.PageResult[*model.Review], error)
}

// ReviewService handles reviews and keeps ratings, reputation and trust in step with them
type ReviewService struct {
	reviewRepo  ReviewRepository
	eventRepo   EventRepository
	appRepo     ApplicationRepository
	userRepo    UserRepository
	profileRepo ProfileRepository
	notifier    Notifier
	mailer      email.Sender
	logger      *zap.Logger
	now         func() time.Time
}

// ReviewServiceConfig holds configuration for the review service
type ReviewServiceConfig struct {
	ReviewRepo  ReviewRepository
	EventRepo   EventRepository
	AppRepo     ApplicationRepository
	UserRepo    UserRepository
	ProfileRepo ProfileRepository
	Notifier    Notifier
	Mailer      email.Sender
	Logger      *zap.Logger
}

// NewReviewService creates a new review service
func NewReviewService(cfg ReviewServiceConfig) *ReviewService {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &ReviewService{
		reviewRepo:  cfg.ReviewRepo,
		eventRepo:   cfg.EventRepo,
		appRepo:     cfg.AppRepo,
		userRepo:    cfg.UserRepo,
		profileRepo: cfg.ProfileRepo,
		notifier:    cfg.Notifier,
		mailer:      cfg.Mailer,
		logger:      cfg.Logger,
		now:         time.Now,
	}
}

// ReviewBTCRequest is a collaborator rating an organizer
type ReviewBTCRequest struct {
	EventID string
	Rating  int
	Comment string
}

// ReviewCTVRequest is an organizer rating a collaborator
type ReviewCTVRequest struct {
	EventID  string
	CTVID    string
	Skill    int
	Attitude int
	Comment  string
}

// UpdateReviewRequest changes the scores or comment of a review
type UpdateReviewRequest struct {
	Rating   *int
	Skill    *int
	Attitude *int
	Comment  *string
}

// ReviewBTC lets a collaborator who finished an event rate its organizer
func (s *ReviewService) ReviewBTC(ctx context.Context, ctvID string, req ReviewBTCRequest) (*model.Review, error) {
	event, err := s.getEvent(ctx, req.EventID)
	if err != nil {
		return nil, err
	}
	app, err := s.appRepo.GetByEventAndCTV(ctx, event.ID, ctvID)
	if err != nil {
		return nil, err
	}
	if app == nil || !app.Status.IsFinished() {
		return nil, ErrReviewNotAllowed
	}

	rating := req.Rating
	review := &model.Review{
		EventID:    event.ID,
		FromUser:   ctvID,
		ToUser:     event.BTCID,
		ReviewType: model.ReviewCTVToBTC,
		Rating:     &rating,
		Comment:    sanitizeText(req.Comment),
	}
	if err := s.create(ctx, review); err != nil {
		return nil, err
	}

	profile, err := s.profileRepo.GetBTCByUserID(ctx, event.BTCID)
	if err != nil {
		return nil, err
	}
	if profile != nil {
		profile.AddReview(review.Score())
		if err := s.profileRepo.SaveBTC(ctx, profile); err != nil {
			return nil, err
		}
	}

	s.announce(ctx, review, event)
	return review, nil
}

// ReviewCTV lets the organizer of an event rate a collaborator who finished it
func (s *ReviewService) ReviewCTV(ctx context.Context, btcID string, req ReviewCTVRequest) (*model.Review, error) {
	event, err := s.getEvent(ctx, req.EventID)
	if err != nil {
		return nil, err
	}
	if event.BTCID != btcID {
		return nil, ErrNotEventOwner
	}
	app, err := s.appRepo.GetByEventAndCTV(ctx, event.ID, req.CTVID)
	if err != nil {
		return nil, err
	}
	if app == nil || !app.Status.IsFinished() {
		return nil, ErrReviewRequiresCompletion
	}

	skill, attitude := req.Skill, req.Attitude
	review := &model.Review{
		EventID:    event.ID,
		FromUser:   btcID,
		ToUser:     req.CTVID,
		ReviewType: model.ReviewBTCToCTV,
		Skill:      &skill,
		Attitude:   &attitude,
		Comment:    sanitizeText(req.Comment),
	}
	if err := s.create(ctx, review); err != nil {
		return nil, err
	}

	profile, err := s.profileRepo.GetCTVByUserID(ctx, req.CTVID)
	if err != nil {
		return nil, err
	}
	if profile != nil {
		profile.AddReview(review.Score())
		if review.IsLow() {
			profile.AdjustTrust(model.TrustDeltaLowReview)
		}
		if err := s.profileRepo.SaveCTV(ctx, profile); err != nil {
			return nil, err
		}
	}

	s.announce(ctx, review, event)
	return review, nil
}

func (s *ReviewService) create(ctx context.Context, review *model.Review) error {
	if err := NewValidationError(review.Validate()); err != nil {
		return err
	}
	existing, err := s.reviewRepo.Find(ctx, review.EventID, review.FromUser, review.ToUser, review.ReviewType)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrAlreadyReviewed
	}
	if err := s.reviewRepo.Create(ctx, review); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return ErrAlreadyReviewed
		}
		return err
	}
	return nil
}

// announce tells the reviewee about a new review
func (s *ReviewService) announce(ctx context.Context, review *model.Review, event *model.Event) {
	score := review.Score()
	notifyQuietly(ctx, s.notifier, s.logger, NotificationInput{
		UserID:       review.ToUser,
		Type:         model.NotificationReview,
		Title:        "New review",
		Content:      fmt.Sprintf("You received a %.1f/5 review for %s", score, event.Title),
		RelatedID:    review.ID,
		RelatedModel: model.RelatedReview,
		Metadata:     map[string]interface{}{"event_id": event.ID, "score": score},
	})

	if s.mailer == nil {
		return
	}
	user, err := s.userRepo.GetByID(ctx, review.ToUser)
	if err != nil || user == nil {
		return
	}
	if err := s.mailer.Send(ctx, email.ReviewReceived(user.Email, user.Email, event.Title, score)); err != nil {
		s.logger.Warn("sending review email", zap.String("user_id", user.ID), zap.Error(err))
	}
}

// ListReceived returns a page of reviews a user received
func (s *ReviewService) ListReceived(ctx context.Context, userID string, reviewType model.ReviewType, page model.Page) (*model.PageResult[*model.ReviewWithAuthor], error) {
	result, err := s.reviewRepo.ListReceived(ctx, userID, reviewType, page)
	if err != nil {
		return nil, err
	}
	items, err := withAuthors(ctx, s.profileRepo, s.eventRepo, result.Items)
	if err != nil {
		return nil, err
	}
	return &model.PageResult[*model.ReviewWithAuthor]{Items: items, Total: result.Total, Page: result.Page}, nil
}

// Check reports whether fromUser already reviewed toUser for the event
func (s *ReviewService) Check(ctx context.Context, fromUser, eventID, toUser string, reviewType model.ReviewType) (*model.ReviewCheck, error) {
	review, err := s.reviewRepo.Find(ctx, eventID, fromUser, toUser, reviewType)
	if err != nil {
		return nil, err
	}
	return &model.ReviewCheck{HasReviewed: review != nil, Review: review}, nil
}

// Update changes an authored review and re-weights the reviewee's average
func (s *ReviewService) Update(ctx context.Context, userID, reviewID string, req UpdateReviewRequest) (*model.Review, error) {
	review, err := s.authored(ctx, userID, reviewID)
	if err != nil {
		return nil, err
	}

	oldScore := review.Score()
	wasLow := review.IsLow()

	switch review.ReviewType {
	case model.ReviewCTVToBTC:
		if req.Rating != nil {
			v := *req.Rating
			review.Rating = &v
		}
	case model.ReviewBTCToCTV:
		if req.Skill != nil {
			v := *req.Skill
			review.Skill = &v
		}
		if req.Attitude != nil {
			v := *req.Attitude
			review.Attitude = &v
		}
	}
	if req.Comment != nil {
		review.Comment = sanitizeText(*req.Comment)
	}
	if err := NewValidationError(review.Validate()); err != nil {
		return nil, err
	}
	if err := s.reviewRepo.Update(ctx, review); err != nil {
		return nil, err
	}

	newScore := review.Score()
	switch review.ReviewType {
	case model.ReviewCTVToBTC:
		profile, err := s.profileRepo.GetBTCByUserID(ctx, review.ToUser)
		if err != nil {
			return nil, err
		}
		if profile != nil {
			profile.ReplaceReview(oldScore, newScore)
			if err := s.profileRepo.SaveBTC(ctx, profile); err != nil {
				return nil, err
			}
		}
	case model.ReviewBTCToCTV:
		profile, err := s.profileRepo.GetCTVByUserID(ctx, review.ToUser)
		if err != nil {
			return nil, err
		}
		if profile != nil {
			profile.ReplaceReview(oldScore, newScore)
			switch isLow := review.IsLow(); {
			case !wasLow && isLow:
				profile.AdjustTrust(model.TrustDeltaLowReview)
			case wasLow && !isLow:
				profile.AdjustTrust(-model.TrustDeltaLowReview)
			}
			if err := s.profileRepo.SaveCTV(ctx, profile); err != nil {
				return nil, err
			}
		}
	}
	return review, nil
}

// Delete removes an authored review and takes it out of the reviewee's average
func (s *ReviewService) Delete(ctx context.Context, userID, reviewID string) error {
	review, err := s.authored(ctx, userID, reviewID)
	if err != nil {
		return err
	}
	if err := s.reviewRepo.Delete(ctx, review.ID); err != nil {
		return err
	}

	score := review.Score()
	switch review.ReviewType {
	case model.ReviewCTVToBTC:
		profile, err := s.profileRepo.GetBTCByUserID(ctx, review.ToUser)
		if err != nil {
			return err
		}
		if profile != nil {
			profile.RemoveReview(score)
			return s.profileRepo.SaveBTC(ctx, profile)
		}
	case model.ReviewBTCToCTV:
		profile, err := s.profileRepo.GetCTVByUserID(ctx, review.ToUser)
		if err != nil {
			return err
		}
		if profile != nil {
			profile.RemoveReview(score)
			if review.IsLow() {
				profile.AdjustTrust(-model.TrustDeltaLowReview)
			}
			return s.profileRepo.SaveCTV(ctx, profile)
		}
	}
	return nil
}

func (s *ReviewService) authored(ctx context.Context, userID, reviewID string) (*model.Review, error) {
	review, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if review == nil {
		return nil, ErrReviewNotFound
	}
	if review.FromUser != userID {
		return nil, ErrNotReviewAuthor
	}
	return review, nil
}

func (s *ReviewService) getEvent(ctx context.Context, eventID string) (*model.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrEventNotFound
	}
	return event, nil
}

// withAuthors attaches author names and event titles to reviews
func withAuthors(ctx context.Context, profiles ProfileRepository, events EventRepository, reviews []*model.Review) ([]*model.ReviewWithAuthor, error) {
	var ctvAuthors, btcAuthors, eventIDs []string
	for _, r := range reviews {
		if r.ReviewType == model.ReviewCTVToBTC {
			ctvAuthors = append(ctvAuthors, r.FromUser)
		} else {
			btcAuthors = append(btcAuthors, r.FromUser)
		}
		eventIDs = append(eventIDs, r.EventID)
	}

	ctvProfiles, err := profiles.ListCTVByUserIDs(ctx, uniqueStrings(ctvAuthors))
	if err != nil {
		return nil, err
	}
	btcProfiles, err := profiles.ListBTCByUserIDs(ctx, uniqueStrings(btcAuthors))
	if err != nil {
		return nil, err
	}
	titles := make(map[string]string)
	if len(eventIDs) > 0 {
		list, err := events.ListByIDs(ctx, uniqueStrings(eventIDs))
		if err != nil {
			return nil, err
		}
		for _, e := range list {
			titles[e.ID] = e.Title
		}
	}

	out := make([]*model.ReviewWithAuthor, 0, len(reviews))
	for _, r := range reviews {
		item := &model.ReviewWithAuthor{Review: r, EventTitle: titles[r.EventID]}
		if p := ctvProfiles[r.FromUser]; p != nil {
			item.AuthorName, item.AuthorAvatar = p.FullName, p.Avatar
		} else if p := btcProfiles[r.FromUser]; p != nil {
			item.AuthorName, item.AuthorAvatar = p.AgencyName, p.Logo
		}
		out = append(out, item)
	}
	return out, nil
}
