package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/eventup/api/internal/database"
	"github.com/eventup/api/internal/model"
	"github.com/eventup/api/pkg/jwt"
)

// TokenRepository defines the interface for refresh token storage
type TokenRepository interface {
	Create(ctx context.Context, token *model.RefreshToken) error
	GetByHash(ctx context.Context, hash string) (*model.RefreshToken, error)
	MarkUsed(ctx context.Context, id string) error
	RevokeAllForUser(ctx context.Context, userID string) error
	DeleteExpired(ctx context.Context, cutoff time.Time) error
}

// TokenService issues access tokens and rotates refresh tokens
type TokenService struct {
	jwtService *jwt.Service
	tokenRepo  TokenRepository
	logger     *zap.Logger
	now        func() time.Time
}

// TokenServiceConfig holds configuration for the token service
type TokenServiceConfig struct {
	JWTService *jwt.Service
	TokenRepo  TokenRepository
	Logger     *zap.Logger
}

// NewTokenService creates a new token service
func NewTokenService(cfg TokenServiceConfig) *TokenService {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &TokenService{
		jwtService: cfg.JWTService,
		tokenRepo:  cfg.TokenRepo,
		logger:     cfg.Logger,
		now:        time.Now,
	}
}

// TokenPair represents an access token and refresh token pair
type TokenPair struct {
	AccessToken  string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int    `json:"expiresIn"` // seconds
}

func subjectOf(user *model.User) jwt.Subject {
	return jwt.Subject{UserID: user.ID, Email: user.Email, Role: string(user.Role)}
}

// GenerateTokenPair signs an access token and stores the hash of a new refresh token
func (s *TokenService) GenerateTokenPair(ctx context.Context, user *model.User) (*TokenPair, error) {
	sub := subjectOf(user)
	access, err := s.jwtService.GenerateAccess(sub)
	if err != nil {
		return nil, fmt.Errorf("signing access token: %w", err)
	}
	refresh, expiresAt, err := s.jwtService.GenerateRefresh(sub)
	if err != nil {
		return nil, fmt.Errorf("signing refresh token: %w", err)
	}

	stored := &model.RefreshToken{
		UserID:    user.ID,
		TokenHash: hashToken(refresh),
		ExpiresOn: expiresAt,
	}
	if err := s.tokenRepo.Create(ctx, stored); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int(s.jwtService.AccessTTL().Seconds()),
	}, nil
}

// ConsumeRefreshToken validates a refresh token and marks it used.
// Presenting a token that was already used or revoked revokes every token of its owner.
// It returns the user ID the token was issued to.
func (s *TokenService) ConsumeRefreshToken(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.jwtService.ValidateRefresh(refreshToken)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrRefreshTokenExpired
		}
		return "", ErrInvalidRefreshToken
	}

	stored, err := s.tokenRepo.GetByHash(ctx, hashToken(refreshToken))
	if err != nil {
		return "", err
	}
	if stored == nil || stored.UserID != claims.UserID {
		return "", ErrInvalidRefreshToken
	}

	if stored.UsedOn != nil || stored.RevokedOn != nil {
		// Token reuse detected - revoke all tokens for this user
		s.revokeAll(ctx, stored.UserID, "refresh token reuse")
		return "", ErrRefreshTokenRevoked
	}
	if !s.now().Before(stored.ExpiresOn) {
		return "", ErrRefreshTokenExpired
	}

	if err := s.tokenRepo.MarkUsed(ctx, stored.ID); err != nil {
		if errors.Is(err, database.ErrConflict) {
			// Lost a race with another exchange of the same token
			s.revokeAll(ctx, stored.UserID, "concurrent refresh token exchange")
			return "", ErrRefreshTokenRevoked
		}
		return "", err
	}
	return stored.UserID, nil
}

// revokeAll revokes every refresh token of the user. The caller still rejects
// the presented token when this fails.
func (s *TokenService) revokeAll(ctx context.Context, userID, reason string) {
	if err := s.tokenRepo.RevokeAllForUser(ctx, userID); err != nil {
		s.logger.Error("revoking refresh tokens",
			zap.String("user_id", userID), zap.String("reason", reason), zap.Error(err))
	}
}

// ValidateAccessToken validates an access token and returns the claims
func (s *TokenService) ValidateAccessToken(token string) (*jwt.Claims, error) {
	return s.jwtService.ValidateAccess(token)
}

// AccessTTL is the lifetime of issued access tokens
func (s *TokenService) AccessTTL() time.Duration {
	return s.jwtService.AccessTTL()
}

// RevokeAllUserTokens revokes all refresh tokens for a user (logout from all devices)
func (s *TokenService) RevokeAllUserTokens(ctx context.Context, userID string) error {
	return s.tokenRepo.RevokeAllForUser(ctx, userID)
}

// PurgeExpired deletes refresh tokens that expired before now
func (s *TokenService) PurgeExpired(ctx context.Context) error {
	return s.tokenRepo.DeleteExpired(ctx, s.now())
}

// hashToken creates a SHA-256 hash of the token for storage
func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// stringValue safely dereferences a string pointer
func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
