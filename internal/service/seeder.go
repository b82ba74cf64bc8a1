package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	mrand "math/rand/v2"
	"time"

	"github.com/eventup/api/internal/model"

	"golang.org/x/crypto/bcrypt"
)

// SeederService generates sample organizers, collaborators, events and
// applications for local development
type SeederService struct {
	userRepo    UserRepository
	profileRepo ProfileRepository
	eventRepo   EventRepository
	appRepo     ApplicationRepository
	now         func() time.Time
}

// SeederServiceConfig holds the repositories the seeder writes to
type SeederServiceConfig struct {
	UserRepo    UserRepository
	ProfileRepo ProfileRepository
	EventRepo   EventRepository
	AppRepo     ApplicationRepository
}

// NewSeederService creates a new seeder service
func NewSeederService(cfg SeederServiceConfig) *SeederService {
	return &SeederService{
		userRepo:    cfg.UserRepo,
		profileRepo: cfg.ProfileRepo,
		eventRepo:   cfg.EventRepo,
		appRepo:     cfg.AppRepo,
		now:         time.Now,
	}
}

// SeedRequest configures a seeding run
type SeedRequest struct {
	Organizers           int
	Collaborators        int
	EventsPerOrganizer   int
	ApplicationsPerEvent int
	// Prefix marks seeded emails so they are easy to find
	Prefix   string
	Password string
}

// SeedResult contains the results of a seeding run
type SeedResult struct {
	Organizers    []string      `json:"organizers"`
	Collaborators []string      `json:"collaborators"`
	Events        int           `json:"events"`
	Applications  int           `json:"applications"`
	Password      string        `json:"password"`
	Duration      time.Duration `json:"duration"`
}

// Sample data
var (
	seedAgencies = []string{
		"Saigon Stage Co.", "Hanoi Live", "Blue Lotus Events", "Mekong Productions",
		"Sunrise Agency", "Red River Media", "Golden Bell Entertainment", "Lantern Works",
	}
	seedFirstNames = []string{
		"An", "Binh", "Chi", "Dung", "Giang", "Hanh", "Khoa", "Linh",
		"Minh", "Nam", "Ngoc", "Phuong", "Quan", "Thao", "Trang", "Vy",
	}
	seedLastNames = []string{
		"Nguyen", "Tran", "Le", "Pham", "Hoang", "Phan", "Vu", "Dang", "Bui", "Do",
	}
	seedCities = []string{
		"Ho Chi Minh City", "Hanoi", "Da Nang", "Hue", "Can Tho", "Nha Trang",
	}
	seedSkills = []string{
		"MC", "Check-in", "Logistics", "Photography", "Sound", "Ushering",
		"First aid", "Social media", "Translation", "Stage setup",
	}
	seedEvents = []struct {
		title string
		kind  model.EventType
	}{
		{"Summer Music Night", model.EventTypeConcert},
		{"Street Food Festival", model.EventTypeFestival},
		{"Startup Pitch Day", model.EventTypeConference},
		{"Pottery Workshop", model.EventTypeWorkshop},
		{"City Marathon", model.EventTypeSports},
		{"Contemporary Art Fair", model.EventTypeExhibition},
		{"Lantern Night Market", model.EventTypeOther},
	}
	seedRoles = []string{"Usher", "Check-in staff", "Backstage crew", "Photographer", "Guide"}
)

// Seed creates organizers, collaborators, their events and pending applications
func (s *SeederService) Seed(ctx context.Context, req SeedRequest) (*SeedResult, error) {
	start := time.Now()

	if req.Organizers < 1 || req.Organizers > 100 {
		return nil, fmt.Errorf("organizers must be between 1 and 100")
	}
	if req.Collaborators < 0 || req.Collaborators > 1000 {
		return nil, fmt.Errorf("collaborators must be between 0 and 1000")
	}
	if req.EventsPerOrganizer < 0 || req.EventsPerOrganizer > 50 {
		return nil, fmt.Errorf("events per organizer must be between 0 and 50")
	}
	if req.Prefix == "" {
		req.Prefix = "seed_"
	}
	if req.Password == "" {
		req.Password = "eventup123"
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.MinCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	pw := string(hash)

	result := &SeedResult{Password: req.Password}

	orgIDs := make([]string, 0, req.Organizers)
	for i := 0; i < req.Organizers; i++ {
		user, err := s.seedUser(ctx, req.Prefix+"btc_", pw, model.UserRoleBTC)
		if err != nil {
			return nil, err
		}
		agency := seedAgencies[i%len(seedAgencies)]
		if err := s.profileRepo.CreateBTC(ctx, &model.BTCProfile{
			UserID:      user.ID,
			AgencyName:  agency,
			Address:     textPtr(pick(seedCities)),
			Description: textPtr(agency + " organizes events across Vietnam."),
		}); err != nil {
			return nil, fmt.Errorf("failed to create organizer profile: %w", err)
		}
		orgIDs = append(orgIDs, user.ID)
		result.Organizers = append(result.Organizers, user.Email)
	}

	ctvIDs := make([]string, 0, req.Collaborators)
	for i := 0; i < req.Collaborators; i++ {
		user, err := s.seedUser(ctx, req.Prefix+"ctv_", pw, model.UserRoleCTV)
		if err != nil {
			return nil, err
		}
		if err := s.profileRepo.CreateCTV(ctx, &model.CTVProfile{
			UserID:     user.ID,
			FullName:   pick(seedLastNames) + " " + pick(seedFirstNames),
			Gender:     []model.Gender{model.GenderMale, model.GenderFemale, model.GenderOther}[mrand.IntN(3)],
			Address:    textPtr(pick(seedCities)),
			Skills:     sample(seedSkills, 3),
			TrustScore: model.TrustScoreDefault,
		}); err != nil {
			return nil, fmt.Errorf("failed to create collaborator profile: %w", err)
		}
		ctvIDs = append(ctvIDs, user.ID)
		result.Collaborators = append(result.Collaborators, user.Email)
	}

	for _, btcID := range orgIDs {
		for j := 0; j < req.EventsPerOrganizer; j++ {
			event, err := s.seedEvent(ctx, btcID)
			if err != nil {
				return nil, err
			}
			result.Events++

			applied, err := s.seedApplications(ctx, event.ID, sample(ctvIDs, req.ApplicationsPerEvent))
			if err != nil {
				return nil, err
			}
			result.Applications += applied
		}
	}

	result.Duration = time.Since(start)
	return result, nil
}

func (s *SeederService) seedUser(ctx context.Context, prefix, hash string, role model.UserRole) (*model.User, error) {
	user := &model.User{
		Email:           fmt.Sprintf("%s%s@eventup.test", prefix, randomID()),
		PasswordHash:    &hash,
		Role:            role,
		Phone:           textPtr(fmt.Sprintf("09%08d", mrand.IntN(100000000))),
		IsEmailVerified: true,
		Status:          model.UserStatusActive,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (s *SeederService) seedEvent(ctx context.Context, btcID string) (*model.Event, error) {
	tmpl := seedEvents[mrand.IntN(len(seedEvents))]
	startTime := s.now().Add(time.Duration(3+mrand.IntN(28)) * 24 * time.Hour).Truncate(time.Hour)

	items := make([]model.JobDetail, 0, 2)
	for _, role := range sample(seedRoles, 2) {
		items = append(items, model.JobDetail{
			Role:     role,
			Task:     "Support the " + role + " team",
			WorkTime: "08:00 - 17:00",
			Quantity: 2 + mrand.IntN(5),
			Salary:   fmt.Sprintf("%d VND", (3+mrand.IntN(8))*100000),
		})
	}

	event := &model.Event{
		BTCID:          btcID,
		Title:          tmpl.title,
		Description:    "Join the crew for " + tmpl.title + ". Training and meals are provided.",
		Location:       pick(seedCities),
		EventType:      tmpl.kind,
		Salary:         fmt.Sprintf("%d VND", (3+mrand.IntN(8))*100000),
		StartTime:      startTime,
		EndTime:        startTime.Add(time.Duration(4+mrand.IntN(8)) * time.Hour),
		Deadline:       startTime.Add(-48 * time.Hour),
		JobDetailItems: items,
		Urgent:         mrand.IntN(5) == 0,
		Status:         model.EventStatusRecruiting,
		Requirements:   []string{"18 years or older", "Punctual"},
	}
	event.Quantity = event.TotalQuantity()
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	return event, nil
}

func (s *SeederService) seedApplications(ctx context.Context, eventID string, ctvIDs []string) (int, error) {
	created := 0
	for _, ctvID := range ctvIDs {
		app := &model.Application{
			EventID:     eventID,
			CTVID:       ctvID,
			CoverLetter: "I would love to help out at this event.",
			Status:      model.ApplicationPending,
		}
		if err := s.appRepo.Create(ctx, app); err != nil {
			return created, fmt.Errorf("failed to create application: %w", err)
		}
		if err := s.eventRepo.AdjustApplied(ctx, eventID, 1); err != nil {
			return created, fmt.Errorf("failed to update applied count: %w", err)
		}
		created++
	}
	return created, nil
}

func randomID() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func pick(items []string) string {
	return items[mrand.IntN(len(items))]
}

// sample returns up to n distinct items in random order
func sample(items []string, n int) []string {
	if n > len(items) {
		n = len(items)
	}
	if n <= 0 {
		return nil
	}
	shuffled := append([]string(nil), items...)
	mrand.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	return shuffled[:n]
}

func textPtr(s string) *string {
	return &s
}
