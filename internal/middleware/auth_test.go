package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/eventup/api/internal/model"
	"github.com/eventup/api/pkg/jwt"
)

// ============================================================================
// Stubs
// ============================================================================

type stubTokens struct {
	claims *jwt.Claims
	err    error
	seen   string
}

func (s *stubTokens) ValidateAccessToken(token string) (*jwt.Claims, error) {
	s.seen = token
	return s.claims, s.err
}

type stubUsers map[string]*model.User

func (s stubUsers) GetUserByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, errors.New("user not found")
}

func newTestAuth(user *model.User) (*Auth, *stubTokens) {
	tokens := &stubTokens{claims: &jwt.Claims{UserID: user.ID, Role: string(user.Role)}}
	return NewAuth(tokens, stubUsers{user.ID: user}), tokens
}

func organizer() *model.User {
	return &model.User{ID: "user:btc", Role: model.UserRoleBTC, Status: model.UserStatusActive}
}

func bearer(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

// ============================================================================
// Protect
// ============================================================================

func TestProtect_BearerToken(t *testing.T) {
	auth, tokens := newTestAuth(organizer())
	var got *model.User
	r := newRouter(auth.Protect(), func(c *gin.Context) { got = GetUser(c) })

	rr := serve(r, bearer(httptest.NewRequest(http.MethodGet, "/test", nil), "abc"))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "abc", tokens.seen)
	if assert.NotNil(t, got) {
		assert.Equal(t, "user:btc", got.ID)
	}
}

func TestProtect_CookieToken(t *testing.T) {
	auth, tokens := newTestAuth(organizer())
	r := newRouter(auth.Protect())
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookie, Value: "from-cookie"})

	rr := serve(r, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "from-cookie", tokens.seen)
}

func TestProtect_Rejections(t *testing.T) {
	blocked := organizer()
	blocked.Status = model.UserStatusBlocked

	tests := []struct {
		name       string
		header     string
		tokenErr   error
		user       *model.User
		wantStatus int
		wantCode   model.ErrorCode
	}{
		{"missing token", "", nil, organizer(), http.StatusUnauthorized, model.ErrCodeUnauthorized},
		{"wrong scheme", "Basic abc", nil, organizer(), http.StatusUnauthorized, model.ErrCodeUnauthorized},
		{"expired", "Bearer abc", jwt.ErrTokenExpired, organizer(), http.StatusUnauthorized, model.ErrCodeTokenExpired},
		{"bad signature", "Bearer abc", jwt.ErrInvalidSignature, organizer(), http.StatusUnauthorized, model.ErrCodeTokenInvalid},
		{"blocked", "Bearer abc", nil, blocked, http.StatusForbidden, model.ErrCodeAccountBlocked},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth, tokens := newTestAuth(tt.user)
			tokens.err = tt.tokenErr
			r := newRouter(auth.Protect())
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			rr := serve(r, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantCode, decodeProblem(t, rr.Body).Code)
		})
	}
}

func TestProtect_DeletedUser(t *testing.T) {
	tokens := &stubTokens{claims: &jwt.Claims{UserID: "user:gone"}}
	r := newRouter(NewAuth(tokens, stubUsers{}).Protect())

	rr := serve(r, bearer(httptest.NewRequest(http.MethodGet, "/test", nil), "abc"))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

// ============================================================================
// OptionalAuth
// ============================================================================

func TestOptionalAuth(t *testing.T) {
	auth, tokens := newTestAuth(organizer())
	var got string
	r := newRouter(auth.OptionalAuth(), func(c *gin.Context) { got = GetUserID(c) })

	rr := serve(r, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, got)

	rr = serve(r, bearer(httptest.NewRequest(http.MethodGet, "/test", nil), "abc"))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "user:btc", got)

	got = ""
	tokens.err = jwt.ErrInvalidToken
	rr = serve(r, bearer(httptest.NewRequest(http.MethodGet, "/test", nil), "bad"))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, got)
}

// ============================================================================
// Role and plan guards
// ============================================================================

func TestAuthorize(t *testing.T) {
	auth, _ := newTestAuth(organizer())

	rr := serve(newRouter(auth.Protect(), RequireBTC()), bearer(httptest.NewRequest(http.MethodGet, "/test", nil), "abc"))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = serve(newRouter(auth.Protect(), RequireCTV()), bearer(httptest.NewRequest(http.MethodGet, "/test", nil), "abc"))
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = serve(newRouter(Authorize(model.UserRoleBTC)), httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRequirePremium(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	user := organizer()
	auth, _ := newTestAuth(user)
	auth.now = func() time.Time { return now }
	r := newRouter(auth.Protect(), auth.RequirePremium())

	rr := serve(r, bearer(httptest.NewRequest(http.MethodGet, "/test", nil), "abc"))
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, model.ErrCodePremiumRequired, decodeProblem(t, rr.Body).Code)

	exp := now.Add(24 * time.Hour)
	user.Subscription = model.Subscription{Plan: model.PlanPremium, ExpiredAt: &exp}
	rr = serve(r, bearer(httptest.NewRequest(http.MethodGet, "/test", nil), "abc"))
	assert.Equal(t, http.StatusOK, rr.Code)

	past := now.Add(-time.Hour)
	user.Subscription.ExpiredAt = &past
	rr = serve(r, bearer(httptest.NewRequest(http.MethodGet, "/test", nil), "abc"))
	assert.Equal(t, http.StatusForbidden, rr.Code)
}
