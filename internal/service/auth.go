package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/eventup/api/internal/cache"
	"github.com/eventup/api/internal/database"
	"github.com/eventup/api/internal/email"
	"github.com/eventup/api/internal/model"
)

const (
	// bcrypt cost factor (10-14 recommended for production)
	bcryptCost = 12

	minPasswordLength = 6
	maxPasswordLength = 72 // bcrypt ignores anything longer

	otpDigits = 6
)

// UserRepository defines the interface for user storage
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*model.User, error)
	ListByIDs(ctx context.Context, ids []string) ([]*model.User, error)
	UpdatePhone(ctx context.Context, userID string, phone *string) error
	SetOTP(ctx context.Context, userID string, otp model.OTP) error
	MarkVerified(ctx context.Context, userID string) error
	LinkGoogle(ctx context.Context, userID, googleID string) error
	IncrementUsage(ctx context.Context, userID string, urgent bool) error
	ActivatePlan(ctx context.Context, userID string, plan model.Plan, expiredAt time.Time) error
	SetAutoRenew(ctx context.Context, userID string, autoRenew bool) error
	ResetMonthlyUsage(ctx context.Context) (int, error)
	DowngradeExpired(ctx context.Context, now time.Time) (int, error)
	Delete(ctx context.Context, id string) error
}

// AuthService handles registration, email verification and sign in
type AuthService struct {
	userRepo       UserRepository
	profileRepo    ProfileRepository
	tokenService   *TokenService
	google         GoogleUserInfoFetcher
	mailer         email.Sender
	throttle       cache.Store
	otpTTL         time.Duration
	resendInterval time.Duration
	logger         *zap.Logger
	now            func() time.Time
}

// AuthServiceConfig holds configuration for the auth service
type AuthServiceConfig struct {
	UserRepo       UserRepository
	ProfileRepo    ProfileRepository
	TokenService   *TokenService
	Google         GoogleUserInfoFetcher
	Mailer         email.Sender
	Cache          cache.Store
	OTPTTL         time.Duration // Default: 5 minutes
	ResendInterval time.Duration // Default: 60 seconds
	Logger         *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(cfg AuthServiceConfig) *AuthService {
	if cfg.OTPTTL == 0 {
		cfg.OTPTTL = 5 * time.Minute
	}
	if cfg.ResendInterval == 0 {
		cfg.ResendInterval = time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &AuthService{
		userRepo:       cfg.UserRepo,
		profileRepo:    cfg.ProfileRepo,
		tokenService:   cfg.TokenService,
		google:         cfg.Google,
		mailer:         cfg.Mailer,
		throttle:       cfg.Cache,
		otpTTL:         cfg.OTPTTL,
		resendInterval: cfg.ResendInterval,
		logger:         cfg.Logger,
		now:            time.Now,
	}
}

// RegisterCTVRequest represents a collaborator sign up
type RegisterCTVRequest struct {
	Email    string
	Password string
	FullName string
	Phone    *string
	Gender   model.Gender
	Address  *string
}

// RegisterBTCRequest represents an organizer sign up
type RegisterBTCRequest struct {
	Email      string
	Password   string
	AgencyName string
	Phone      *string
	Address    *string
	Logo       *string
}

// RegisterResult is returned once the account waits for email verification
type RegisterResult struct {
	UserID  string `json:"userId"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// AuthResult represents a successful sign in
type AuthResult struct {
	User      *model.User
	TokenPair *TokenPair
}

// RegisterCTV creates a pending collaborator account and emails a verification code
func (s *AuthService) RegisterCTV(ctx context.Context, req RegisterCTVRequest) (*RegisterResult, error) {
	gender := req.Gender
	if gender == "" {
		gender = model.GenderOther
	}
	profile := &model.CTVProfile{
		FullName:   sanitizeText(req.FullName),
		Gender:     gender,
		Address:    sanitizePtr(req.Address),
		TrustScore: model.TrustScoreDefault,
	}
	return s.register(ctx, req.Email, req.Password, req.Phone, model.UserRoleCTV, profile.FullName,
		func(userID string) error {
			profile.UserID = userID
			return s.profileRepo.CreateCTV(ctx, profile)
		})
}

// RegisterBTC creates a pending organizer account and emails a verification code
func (s *AuthService) RegisterBTC(ctx context.Context, req RegisterBTCRequest) (*RegisterResult, error) {
	profile := &model.BTCProfile{
		AgencyName: sanitizeText(req.AgencyName),
		Address:    sanitizePtr(req.Address),
		Logo:       req.Logo,
	}
	return s.register(ctx, req.Email, req.Password, req.Phone, model.UserRoleBTC, profile.AgencyName,
		func(userID string) error {
			profile.UserID = userID
			return s.profileRepo.CreateBTC(ctx, profile)
		})
}

func (s *AuthService) register(ctx context.Context, rawEmail, password string, phone *string, role model.UserRole, name string, createProfile func(userID string) error) (*RegisterResult, error) {
	addr := normalizeEmail(rawEmail)
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.GetByEmail(ctx, addr)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailAlreadyExists
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}
	otp, err := s.newOTP()
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:        addr,
		PasswordHash: &hash,
		Role:         role,
		Phone:        phone,
		Status:       model.UserStatusPending,
		OTP:          otp,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, err
	}

	if err := createProfile(user.ID); err != nil {
		// Without a profile the account is unusable
		if delErr := s.userRepo.Delete(ctx, user.ID); delErr != nil {
			s.logger.Error("removing user after failed profile creation", zap.String("user_id", user.ID), zap.Error(delErr))
		}
		return nil, fmt.Errorf("creating profile: %w", err)
	}

	s.sendOTP(ctx, user.Email, name, otp.Code)

	return &RegisterResult{
		UserID:  user.ID,
		Email:   user.Email,
		Message: "Registration successful. Please check your email for the verification code.",
	}, nil
}

// SendOTP issues a new verification code for an unverified account
func (s *AuthService) SendOTP(ctx context.Context, rawEmail string) error {
	addr := normalizeEmail(rawEmail)
	user, err := s.userRepo.GetByEmail(ctx, addr)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if user.IsEmailVerified {
		return ErrAlreadyVerified
	}

	if s.throttle != nil {
		ok, err := s.throttle.Throttle(ctx, "otp:"+addr, s.resendInterval)
		if err != nil {
			// Fail open: a cache outage must not block verification
			s.logger.Warn("otp throttle unavailable", zap.Error(err))
		} else if !ok {
			return ErrOTPThrottled
		}
	}

	otp, err := s.newOTP()
	if err != nil {
		return err
	}
	if err := s.userRepo.SetOTP(ctx, user.ID, *otp); err != nil {
		return err
	}
	s.sendOTP(ctx, user.Email, user.Email, otp.Code)
	return nil
}

// VerifyOTP checks the code, activates the account and signs the user in
func (s *AuthService) VerifyOTP(ctx context.Context, rawEmail, code string) (*AuthResult, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(rawEmail))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if user.OTP == nil || user.OTP.Code == "" {
		return nil, ErrOTPNotFound
	}
	if user.OTP.Expired(s.now()) {
		return nil, ErrOTPExpired
	}
	if strings.TrimSpace(code) != user.OTP.Code {
		return nil, ErrOTPInvalid
	}

	if err := s.userRepo.MarkVerified(ctx, user.ID); err != nil {
		return nil, err
	}
	user.IsEmailVerified = true
	user.Status = model.UserStatusActive
	user.OTP = nil

	return s.signIn(ctx, user)
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string
	Password string
	Role     model.UserRole // optional; when set the account must have it
}

// Login authenticates a user with email/password
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	// Accounts created through Google have no password
	if user.PasswordHash == nil || *user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if !checkPassword(req.Password, *user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	if req.Role != "" && req.Role != user.Role {
		return nil, ErrRoleMismatch
	}
	switch user.Status {
	case model.UserStatusBlocked:
		return nil, ErrAccountBlocked
	case model.UserStatusPending:
		return nil, ErrAccountPending
	}

	return s.signIn(ctx, user)
}

// RefreshTokens exchanges a refresh token for a new pair
func (s *AuthService) RefreshTokens(ctx context.Context, refreshToken string) (*AuthResult, error) {
	userID, err := s.tokenService.ConsumeRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if user.Status == model.UserStatusBlocked {
		return nil, ErrAccountBlocked
	}
	return s.signIn(ctx, user)
}

// GoogleLogin signs in with a Google access token. Unknown accounts are
// created active and verified, which requires a role.
func (s *AuthService) GoogleLogin(ctx context.Context, accessToken string, role model.UserRole) (*AuthResult, error) {
	if s.google == nil {
		return nil, ErrGoogleAuthFailed
	}
	info, err := s.google.FetchUserInfo(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByGoogleID(ctx, info.ID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		user, err = s.userRepo.GetByEmail(ctx, normalizeEmail(info.Email))
		if err != nil {
			return nil, err
		}
		if user != nil {
			if err := s.linkGoogle(ctx, user, info.ID); err != nil {
				return nil, err
			}
		}
	}
	if user == nil {
		user, err = s.createGoogleUser(ctx, info, role)
		if err != nil {
			return nil, err
		}
	}

	if user.Status == model.UserStatusBlocked {
		return nil, ErrAccountBlocked
	}
	return s.signIn(ctx, user)
}

func (s *AuthService) linkGoogle(ctx context.Context, user *model.User, googleID string) error {
	if err := s.userRepo.LinkGoogle(ctx, user.ID, googleID); err != nil {
		return err
	}
	user.GoogleID = &googleID
	user.IsEmailVerified = true
	if user.Status == model.UserStatusPending {
		// Google already proved ownership of the address
		if err := s.userRepo.MarkVerified(ctx, user.ID); err != nil {
			return err
		}
		user.Status = model.UserStatusActive
		user.OTP = nil
	}
	return nil
}

func (s *AuthService) createGoogleUser(ctx context.Context, info *GoogleUserInfo, role model.UserRole) (*model.User, error) {
	if role == "" {
		return nil, ErrRoleRequired
	}
	if role != model.UserRoleCTV && role != model.UserRoleBTC {
		return nil, ErrInvalidRole
	}

	googleID := info.ID
	user := &model.User{
		Email:           normalizeEmail(info.Email),
		Role:            role,
		Status:          model.UserStatusActive,
		IsEmailVerified: true,
		GoogleID:        &googleID,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, err
	}

	var picture *string
	if info.Picture != "" {
		picture = &info.Picture
	}
	name := sanitizeText(info.Name)
	if name == "" {
		name = user.Email
	}

	var err error
	if role == model.UserRoleCTV {
		err = s.profileRepo.CreateCTV(ctx, &model.CTVProfile{
			UserID:     user.ID,
			FullName:   name,
			Avatar:     picture,
			Gender:     model.GenderOther,
			TrustScore: model.TrustScoreDefault,
		})
	} else {
		err = s.profileRepo.CreateBTC(ctx, &model.BTCProfile{
			UserID:     user.ID,
			AgencyName: name,
			Logo:       picture,
		})
	}
	if err != nil {
		if delErr := s.userRepo.Delete(ctx, user.ID); delErr != nil {
			s.logger.Error("removing user after failed profile creation", zap.String("user_id", user.ID), zap.Error(delErr))
		}
		return nil, fmt.Errorf("creating profile: %w", err)
	}
	return user, nil
}

// Logout revokes the user's refresh tokens
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	return s.tokenService.RevokeAllUserTokens(ctx, userID)
}

// GetUserByID retrieves a user by ID
func (s *AuthService) GetUserByID(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *AuthService) signIn(ctx context.Context, user *model.User) (*AuthResult, error) {
	pair, err := s.tokenService.GenerateTokenPair(ctx, user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, TokenPair: pair}, nil
}

func (s *AuthService) newOTP() (*model.OTP, error) {
	code, err := generateOTP()
	if err != nil {
		return nil, err
	}
	return &model.OTP{Code: code, ExpiresAt: s.now().Add(s.otpTTL)}, nil
}

// sendOTP emails the code. Delivery problems are logged; the user can ask for a new code.
func (s *AuthService) sendOTP(ctx context.Context, to, name, code string) {
	if s.mailer == nil {
		return
	}
	if err := s.mailer.Send(ctx, email.VerificationOTP(to, name, code, s.otpTTL)); err != nil {
		s.logger.Warn("sending verification email", zap.String("email", to), zap.Error(err))
	}
}

// generateOTP returns a zero padded random 6 digit code
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", otpDigits, n.Int64()), nil
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// validatePassword checks password length bounds
func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return NewValidationError([]model.FieldError{{Field: "password", Message: "password must be at least 6 characters"}})
	}
	if len(password) > maxPasswordLength {
		return NewValidationError([]model.FieldError{{Field: "password", Message: "password must be at most 72 characters"}})
	}
	return nil
}

// hashPassword creates a bcrypt hash of the password
func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// checkPassword compares a password with a bcrypt hash
func checkPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
