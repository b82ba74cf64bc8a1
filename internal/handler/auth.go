package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eventup/api/internal/middleware"
	"github.com/eventup/api/internal/model"
	"github.com/eventup/api/internal/service"
)

// AuthService is the part of the auth service the handler uses
type AuthService interface {
	RegisterCTV(ctx context.Context, req service.RegisterCTVRequest) (*service.RegisterResult, error)
	RegisterBTC(ctx context.Context, req service.RegisterBTCRequest) (*service.RegisterResult, error)
	SendOTP(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, email, code string) (*service.AuthResult, error)
	Login(ctx context.Context, req service.LoginRequest) (*service.AuthResult, error)
	RefreshTokens(ctx context.Context, refreshToken string) (*service.AuthResult, error)
	GoogleLogin(ctx context.Context, accessToken string, role model.UserRole) (*service.AuthResult, error)
	Logout(ctx context.Context, userID string) error
}

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService  AuthService
	cookieTTL    time.Duration
	secureCookie bool
	logger       *zap.Logger
}

// AuthHandlerConfig holds the dependencies of the auth handler
type AuthHandlerConfig struct {
	AuthService  AuthService
	CookieTTL    time.Duration
	SecureCookie bool
	Logger       *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(cfg AuthHandlerConfig) *AuthHandler {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.CookieTTL <= 0 {
		cfg.CookieTTL = 7 * 24 * time.Hour
	}
	return &AuthHandler{
		authService:  cfg.AuthService,
		cookieTTL:    cfg.CookieTTL,
		secureCookie: cfg.SecureCookie,
		logger:       cfg.Logger,
	}
}

// RegisterCTVRequest is the collaborator sign up body
type RegisterCTVRequest struct {
	Email    string  `json:"email" binding:"required,email"`
	Password string  `json:"password" binding:"required,min=6,max=128"`
	FullName string  `json:"fullName" binding:"required,max=100"`
	Phone    *string `json:"phone" binding:"omitempty,max=20"`
	Gender   string  `json:"gender" binding:"omitempty,gender"`
	Address  *string `json:"address" binding:"omitempty,max=255"`
}

// RegisterBTCRequest is the organizer sign up body
type RegisterBTCRequest struct {
	Email      string  `json:"email" binding:"required,email"`
	Password   string  `json:"password" binding:"required,min=6,max=128"`
	AgencyName string  `json:"agencyName" binding:"required,max=200"`
	Phone      *string `json:"phone" binding:"omitempty,max=20"`
	Address    *string `json:"address" binding:"omitempty,max=255"`
	LogoURL    *string `json:"logoUrl" binding:"omitempty,url"`
}

// EmailRequest carries only an email
type EmailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// VerifyOTPRequest confirms an email with its code
type VerifyOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
	OTP   string `json:"otp" binding:"required,len=6,numeric"`
}

// LoginRequest is the login body
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"omitempty,role"`
}

// RefreshRequest carries a refresh token
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// GoogleRequest carries a Google access token
type GoogleRequest struct {
	AccessToken string `json:"accessToken" binding:"required"`
	Role        string `json:"role" binding:"omitempty,role"`
}

// TokenResponse is returned by every successful sign in
type TokenResponse struct {
	Token        string            `json:"token"`
	RefreshToken string            `json:"refreshToken"`
	ExpiresIn    int               `json:"expiresIn"`
	User         model.UserSummary `json:"user"`
}

// RegisterCTV handles POST /api/auth/register/ctv
func (h *AuthHandler) RegisterCTV(c *gin.Context) {
	var req RegisterCTVRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.authService.RegisterCTV(c.Request.Context(), service.RegisterCTVRequest{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Phone:    req.Phone,
		Gender:   model.Gender(req.Gender),
		Address:  req.Address,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	WriteMessage(c, http.StatusCreated, result.Message, result)
}

// RegisterBTC handles POST /api/auth/register/btc
func (h *AuthHandler) RegisterBTC(c *gin.Context) {
	var req RegisterBTCRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.authService.RegisterBTC(c.Request.Context(), service.RegisterBTCRequest{
		Email:      req.Email,
		Password:   req.Password,
		AgencyName: req.AgencyName,
		Phone:      req.Phone,
		Address:    req.Address,
		Logo:       req.LogoURL,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	WriteMessage(c, http.StatusCreated, result.Message, result)
}

// SendOTP handles POST /api/auth/send-otp
func (h *AuthHandler) SendOTP(c *gin.Context) {
	var req EmailRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.authService.SendOTP(c.Request.Context(), req.Email); err != nil {
		respondError(c, h.logger, err)
		return
	}
	WriteMessage(c, http.StatusOK, "verification code sent", gin.H{"email": req.Email})
}

// VerifyOTP handles POST /api/auth/verify-otp
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req VerifyOTPRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.authService.VerifyOTP(c.Request.Context(), req.Email, req.OTP)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.signedIn(c, result)
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.authService.Login(c.Request.Context(), service.LoginRequest{
		Email:    req.Email,
		Password: req.Password,
		Role:     model.UserRole(req.Role),
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.signedIn(c, result)
}

// RefreshToken handles POST /api/auth/refresh-token
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.authService.RefreshTokens(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.signedIn(c, result)
}

// Google handles POST /api/auth/google
func (h *AuthHandler) Google(c *gin.Context) {
	var req GoogleRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.authService.GoogleLogin(c.Request.Context(), req.AccessToken, model.UserRole(req.Role))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.signedIn(c, result)
}

// Logout handles POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.authService.Logout(c.Request.Context(), middleware.GetUserID(c)); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.TokenCookie, "", -1, "/", "", h.secureCookie, true)
	WriteMessage(c, http.StatusOK, "logged out", nil)
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	WriteData(c, http.StatusOK, middleware.GetUser(c))
}

func (h *AuthHandler) signedIn(c *gin.Context, result *service.AuthResult) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.TokenCookie, result.TokenPair.AccessToken, int(h.cookieTTL.Seconds()), "/", "", h.secureCookie, true)
	WriteData(c, http.StatusOK, TokenResponse{
		Token:        result.TokenPair.AccessToken,
		RefreshToken: result.TokenPair.RefreshToken,
		ExpiresIn:    result.TokenPair.ExpiresIn,
		User:         result.User.Summary(),
	})
}
