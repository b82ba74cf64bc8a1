package service

import (
	"context"
	"time"

	"github.com/eventup/api/internal/model"
)

// publicReviewLimit caps the reviews shown on a public profile
const publicReviewLimit = 20

// ProfileRepository defines the interface for profile storage
type ProfileRepository interface {
	CreateCTV(ctx context.Context, p *model.CTVProfile) error
	SaveCTV(ctx context.Context, p *model.CTVProfile) error
	GetCTVByUserID(ctx context.Context, userID string) (*model.CTVProfile, error)
	ListCTVByUserIDs(ctx context.Context, userIDs []string) (map[string]*model.CTVProfile, error)
	CreateBTC(ctx context.Context, p *model.BTCProfile) error
	SaveBTC(ctx context.Context, p *model.BTCProfile) error
	GetBTCByUserID(ctx context.Context, userID string) (*model.BTCProfile, error)
	ListBTCByUserIDs(ctx context.Context, userIDs []string) (map[string]*model.BTCProfile, error)
}

// ProfileService handles accounts and the role specific profiles
type ProfileService struct {
	userRepo    UserRepository
	profileRepo ProfileRepository
	eventRepo   EventRepository
	reviewRepo  ReviewRepository
	now         func() time.Time
}

// ProfileServiceConfig holds configuration for the profile service
type ProfileServiceConfig struct {
	UserRepo    UserRepository
	ProfileRepo ProfileRepository
	EventRepo   EventRepository
	ReviewRepo  ReviewRepository
}

// NewProfileService creates a new profile service
func NewProfileService(cfg ProfileServiceConfig) *ProfileService {
	return &ProfileService{
		userRepo:    cfg.UserRepo,
		profileRepo: cfg.ProfileRepo,
		eventRepo:   cfg.EventRepo,
		reviewRepo:  cfg.ReviewRepo,
		now:         time.Now,
	}
}

// Me is the caller's account together with the profile of its role
type Me struct {
	User       *model.User       `json:"user"`
	CTVProfile *model.CTVProfile `json:"ctvProfile,omitempty"`
	BTCProfile *model.BTCProfile `json:"btcProfile,omitempty"`
}

// CVInput is a partial update of a collaborator profile; nil fields are left unchanged
type CVInput struct {
	FullName    *string
	Avatar      *string
	Gender      *model.Gender
	Address     *string
	DateOfBirth *time.Time
	Skills      []string
	Experiences []string
}

// BTCProfileInput is a partial update of an organizer profile
type BTCProfileInput struct {
	AgencyName  *string
	Logo        *string
	Address     *string
	Website     *string
	Fanpage     *string
	Description *string
}

// UpdateMeRequest updates the account and the profile of its role
type UpdateMeRequest struct {
	Phone *string
	CV    *CVInput
	BTC   *BTCProfileInput
}

// GetMe returns the caller with their profile
func (s *ProfileService) GetMe(ctx context.Context, userID string) (*Me, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	me := &Me{User: user}
	switch user.Role {
	case model.UserRoleCTV:
		me.CTVProfile, err = s.profileRepo.GetCTVByUserID(ctx, userID)
	case model.UserRoleBTC:
		me.BTCProfile, err = s.profileRepo.GetBTCByUserID(ctx, userID)
	}
	if err != nil {
		return nil, err
	}
	return me, nil
}

// UpdateMe changes the phone and the fields of the caller's role profile
func (s *ProfileService) UpdateMe(ctx context.Context, userID string, req UpdateMeRequest) (*Me, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if req.Phone != nil {
		if err := s.userRepo.UpdatePhone(ctx, userID, sanitizePtr(req.Phone)); err != nil {
			return nil, err
		}
	}
	switch {
	case user.Role == model.UserRoleCTV && req.CV != nil:
		if _, err := s.UpsertCV(ctx, userID, *req.CV); err != nil {
			return nil, err
		}
	case user.Role == model.UserRoleBTC && req.BTC != nil:
		if _, err := s.UpsertBTCProfile(ctx, userID, *req.BTC); err != nil {
			return nil, err
		}
	}
	return s.GetMe(ctx, userID)
}

// GetCV returns the collaborator profile of the caller
func (s *ProfileService) GetCV(ctx context.Context, userID string) (*model.CTVProfile, error) {
	p, err := s.profileRepo.GetCTVByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrProfileNotFound
	}
	return p, nil
}

// UpsertCV applies the input to the collaborator profile, creating it when missing
func (s *ProfileService) UpsertCV(ctx context.Context, userID string, in CVInput) (*model.CTVProfile, error) {
	p, err := s.profileRepo.GetCTVByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	created := p == nil
	if created {
		p = &model.CTVProfile{UserID: userID, Gender: model.GenderOther, TrustScore: model.TrustScoreDefault}
	}

	if in.FullName != nil {
		p.FullName = sanitizeText(*in.FullName)
	}
	if in.Avatar != nil {
		p.Avatar = in.Avatar
	}
	if in.Gender != nil {
		p.Gender = *in.Gender
	}
	if in.Address != nil {
		p.Address = sanitizePtr(in.Address)
	}
	if in.DateOfBirth != nil {
		p.DateOfBirth = in.DateOfBirth
	}
	if in.Skills != nil {
		p.Skills = sanitizeList(in.Skills)
	}
	if in.Experiences != nil {
		p.Experiences = sanitizeList(in.Experiences)
	}

	if created {
		err = s.profileRepo.CreateCTV(ctx, p)
	} else {
		err = s.profileRepo.SaveCTV(ctx, p)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetBTCProfile returns the organizer profile of the caller
func (s *ProfileService) GetBTCProfile(ctx context.Context, userID string) (*model.BTCProfile, error) {
	p, err := s.profileRepo.GetBTCByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrProfileNotFound
	}
	return p, nil
}

// UpsertBTCProfile applies the input to the organizer profile, creating it when missing
func (s *ProfileService) UpsertBTCProfile(ctx context.Context, userID string, in BTCProfileInput) (*model.BTCProfile, error) {
	p, err := s.profileRepo.GetBTCByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	created := p == nil
	if created {
		p = &model.BTCProfile{UserID: userID}
	}

	if in.AgencyName != nil {
		p.AgencyName = sanitizeText(*in.AgencyName)
	}
	if in.Logo != nil {
		p.Logo = in.Logo
	}
	if in.Address != nil {
		p.Address = sanitizePtr(in.Address)
	}
	if in.Website != nil {
		p.Website = in.Website
	}
	if in.Fanpage != nil {
		p.Fanpage = in.Fanpage
	}
	if in.Description != nil {
		p.Description = sanitizePtr(in.Description)
	}

	if created {
		err = s.profileRepo.CreateBTC(ctx, p)
	} else {
		err = s.profileRepo.SaveBTC(ctx, p)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// PublicBTCProfile is what anyone can see about an organizer
type PublicBTCProfile struct {
	Profile *model.BTCProfile         `json:"profile"`
	Reviews []*model.ReviewWithAuthor `json:"reviews"`
	Events  model.EventsByPhase       `json:"events"`
}

// PublicCTVProfile is what anyone can see about a collaborator
type PublicCTVProfile struct {
	Profile *model.CTVProfile         `json:"profile"`
	Reviews []*model.ReviewWithAuthor `json:"reviews"`
	Events  model.EventsByPhase       `json:"events"`
}

// GetPublicBTC returns an organizer's profile, received reviews and events
func (s *ProfileService) GetPublicBTC(ctx context.Context, userID string) (*PublicBTCProfile, error) {
	p, err := s.profileRepo.GetBTCByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrProfileNotFound
	}

	reviews, err := s.publicReviews(ctx, userID, model.ReviewCTVToBTC)
	if err != nil {
		return nil, err
	}
	events, err := s.eventRepo.AllByBTC(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &PublicBTCProfile{
		Profile: p,
		Reviews: reviews,
		Events:  model.GroupByPhase(events, s.now()),
	}, nil
}

// GetPublicCTV returns a collaborator's profile, received reviews and joined events
func (s *ProfileService) GetPublicCTV(ctx context.Context, userID string) (*PublicCTVProfile, error) {
	p, err := s.profileRepo.GetCTVByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrProfileNotFound
	}

	reviews, err := s.publicReviews(ctx, userID, model.ReviewBTCToCTV)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(p.JoinedEvents))
	for _, je := range p.JoinedEvents {
		ids = append(ids, je.EventID)
	}
	var events []*model.Event
	if len(ids) > 0 {
		events, err = s.eventRepo.ListByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
	}

	return &PublicCTVProfile{
		Profile: p,
		Reviews: reviews,
		Events:  model.GroupByPhase(events, s.now()),
	}, nil
}

func (s *ProfileService) publicReviews(ctx context.Context, userID string, reviewType model.ReviewType) ([]*model.ReviewWithAuthor, error) {
	page, err := s.reviewRepo.ListReceived(ctx, userID, reviewType, model.NewPage(1, publicReviewLimit))
	if err != nil {
		return nil, err
	}
	return withAuthors(ctx, s.profileRepo, s.eventRepo, page.Items)
}
