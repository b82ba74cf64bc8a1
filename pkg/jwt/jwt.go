package jwt

import (
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrTokenExpired     = errors.New("token expired")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrInvalidKey       = errors.New("invalid key")
	ErrWrongTokenType   = errors.New("wrong token type")
)

// TokenType separates access tokens from refresh tokens
type TokenType string

const (
	TokenAccess  TokenType = "access"
	TokenRefresh TokenType = "refresh"
)

// Claims represents JWT claims
type Claims struct {
	gojwt.RegisteredClaims

	UserID string    `json:"user_id"`
	Email  string    `json:"email,omitempty"`
	Role   string    `json:"role,omitempty"` // CTV, BTC, ADMIN
	Type   TokenType `json:"typ"`
}

// IsAdmin returns true if the claims indicate admin role
func (c *Claims) IsAdmin() bool {
	return c.Role == "ADMIN"
}

// Service signs and validates HS256 tokens. Access and refresh tokens use
// different secrets so one can never be replayed as the other.
type Service struct {
	accessSecret  []byte
	refreshSecret []byte
	issuer        string
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// Config holds JWT service configuration
type Config struct {
	AccessSecret  string
	RefreshSecret string
	Issuer        string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// NewService creates a new JWT service
func NewService(cfg Config) (*Service, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, ErrInvalidKey
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, fmt.Errorf("token lifetimes must be positive")
	}
	return &Service{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		issuer:        cfg.Issuer,
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		now:           time.Now,
	}, nil
}

// Subject identifies the user a token is issued for
type Subject struct {
	UserID string
	Email  string
	Role   string
}

// GenerateAccess signs an access token for sub
func (s *Service) GenerateAccess(sub Subject) (string, error) {
	return s.sign(sub, TokenAccess, s.accessSecret, s.accessTTL)
}

// GenerateRefresh signs a refresh token for sub. Every token carries a
// unique ID so two tokens issued in the same second still differ.
func (s *Service) GenerateRefresh(sub Subject) (string, time.Time, error) {
	token, err := s.sign(sub, TokenRefresh, s.refreshSecret, s.refreshTTL)
	return token, s.now().Add(s.refreshTTL), err
}

func (s *Service) sign(sub Subject, typ TokenType, secret []byte, ttl time.Duration) (string, error) {
	now := s.now()
	claims := Claims{
		RegisteredClaims: gojwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   sub.UserID,
			ID:        uuid.NewString(),
			IssuedAt:  gojwt.NewNumericDate(now),
			NotBefore: gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: sub.UserID,
		Email:  sub.Email,
		Role:   sub.Role,
		Type:   typ,
	}
	signed, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign: %w", err)
	}
	return signed, nil
}

// ValidateAccess parses an access token and returns its claims
func (s *Service) ValidateAccess(token string) (*Claims, error) {
	return s.validate(token, TokenAccess, s.accessSecret)
}

// ValidateRefresh parses a refresh token and returns its claims
func (s *Service) ValidateRefresh(token string) (*Claims, error) {
	return s.validate(token, TokenRefresh, s.refreshSecret)
}

func (s *Service) validate(token string, typ TokenType, secret []byte) (*Claims, error) {
	var claims Claims
	opts := []gojwt.ParserOption{
		gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}),
		gojwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, gojwt.WithIssuer(s.issuer))
	}
	_, err := gojwt.ParseWithClaims(token, &claims, func(*gojwt.Token) (interface{}, error) {
		return secret, nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, gojwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, gojwt.ErrTokenSignatureInvalid):
			return nil, ErrInvalidSignature
		default:
			return nil, ErrInvalidToken
		}
	}
	if claims.Type != typ {
		return nil, ErrWrongTokenType
	}
	if claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

// AccessTTL returns the access token lifetime
func (s *Service) AccessTTL() time.Duration {
	return s.accessTTL
}

// RefreshTTL returns the refresh token lifetime
func (s *Service) RefreshTTL() time.Duration {
	return s.refreshTTL
}

// NewTestService creates a service with fixed secrets for tests
func NewTestService(issuer string, accessTTL time.Duration) *Service {
	return &Service{
		accessSecret:  []byte("test-access-secret"),
		refreshSecret: []byte("test-refresh-secret"),
		issuer:        issuer,
		accessTTL:     accessTTL,
		refreshTTL:    30 * 24 * time.Hour,
		now:           time.Now,
	}
}
