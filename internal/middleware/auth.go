package middleware

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/eventup/api/internal/model"
	"github.com/eventup/api/pkg/jwt"
)

// TokenCookie is the cookie set on login
const TokenCookie = "token"

// TokenValidator validates access tokens
type TokenValidator interface {
	ValidateAccessToken(token string) (*jwt.Claims, error)
}

// UserLoader loads the account behind a token
type UserLoader interface {
	GetUserByID(ctx context.Context, userID string) (*model.User, error)
}

// Auth authenticates requests and guards routes by role and plan
type Auth struct {
	tokens TokenValidator
	users  UserLoader
	now    func() time.Time
}

// NewAuth creates the authentication middleware set
func NewAuth(tokens TokenValidator, users UserLoader) *Auth {
	return &Auth{tokens: tokens, users: users, now: time.Now}
}

// Authenticate resolves a raw access token to an active user
func (a *Auth) Authenticate(ctx context.Context, token string) (*model.User, *jwt.Claims, *model.ProblemDetails) {
	if token == "" {
		return nil, nil, model.NewUnauthorizedError("not authorized, no token")
	}

	claims, err := a.tokens.ValidateAccessToken(token)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, nil, model.NewTokenError("token expired", model.ErrCodeTokenExpired)
		case errors.Is(err, jwt.ErrInvalidSignature):
			return nil, nil, model.NewTokenError("invalid token signature", model.ErrCodeTokenInvalid)
		default:
			return nil, nil, model.NewTokenError("invalid token", model.ErrCodeTokenInvalid)
		}
	}

	user, err := a.users.GetUserByID(ctx, claims.UserID)
	if err != nil || user == nil {
		return nil, nil, model.NewUnauthorizedError("user no longer exists")
	}
	if user.Status == model.UserStatusBlocked {
		return nil, nil, model.NewForbiddenErrorCode("account has been blocked", model.ErrCodeAccountBlocked)
	}
	return user, claims, nil
}

// Protect requires a valid token from the Authorization header or the token cookie
func (a *Auth) Protect() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, claims, problem := a.Authenticate(c.Request.Context(), extractToken(c))
		if problem != nil {
			abort(c, problem)
			return
		}
		SetUser(c, user, claims)
		c.Next()
	}
}

// OptionalAuth sets the caller when a valid token is present and continues either way
func (a *Auth) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token != "" {
			if user, claims, problem := a.Authenticate(c.Request.Context(), token); problem == nil {
				SetUser(c, user, claims)
			}
		}
		c.Next()
	}
}

// Authorize allows only the given roles. It must run after Protect.
func Authorize(roles ...model.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := GetUser(c)
		if user == nil {
			abort(c, model.NewUnauthorizedError("not authorized"))
			return
		}
		for _, role := range roles {
			if user.Role == role {
				c.Next()
				return
			}
		}
		abort(c, model.NewForbiddenError("role "+string(user.Role)+" is not allowed to access this resource"))
	}
}

// RequireCTV allows collaborators only
func RequireCTV() gin.HandlerFunc {
	return Authorize(model.UserRoleCTV)
}

// RequireBTC allows organizers only
func RequireBTC() gin.HandlerFunc {
	return Authorize(model.UserRoleBTC)
}

// RequirePremium allows callers with an active premium plan
func (a *Auth) RequirePremium() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := GetUser(c)
		if user == nil {
			abort(c, model.NewUnauthorizedError("not authorized"))
			return
		}
		if !user.IsPremium(a.now()) {
			abort(c, model.NewForbiddenErrorCode("this feature requires a premium subscription", model.ErrCodePremiumRequired))
			return
		}
		c.Next()
	}
}

// extractToken reads a Bearer token, falling back to the token cookie
func extractToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookie, err := c.Cookie(TokenCookie); err == nil {
		return cookie
	}
	return ""
}

// SetUser stores the authenticated caller on the request
func SetUser(c *gin.Context, user *model.User, claims *jwt.Claims) {
	c.Set(userKey, user)
	c.Set(claimsKey, claims)
}

// GetUser returns the authenticated user, or nil
func GetUser(c *gin.Context) *model.User {
	if v, ok := c.Get(userKey); ok {
		if user, ok := v.(*model.User); ok {
			return user
		}
	}
	return nil
}

// GetUserID returns the authenticated user's ID, or ""
func GetUserID(c *gin.Context) string {
	if user := GetUser(c); user != nil {
		return user.ID
	}
	return ""
}

// GetClaims returns the validated token claims, or nil
func GetClaims(c *gin.Context) *jwt.Claims {
	if v, ok := c.Get(claimsKey); ok {
		if claims, ok := v.(*jwt.Claims); ok {
			return claims
		}
	}
	return nil
}
