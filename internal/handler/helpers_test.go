package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/eventup/api/internal/middleware"
	"github.com/eventup/api/internal/model"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := RegisterValidators(); err != nil {
		panic(err)
	}
}

func ctvUser() *model.User {
	return &model.User{ID: "user:ctv", Email: "ctv@example.com", Role: model.UserRoleCTV, Status: model.UserStatusActive}
}

func btcUser() *model.User {
	return &model.User{ID: "user:btc", Email: "btc@example.com", Role: model.UserRoleBTC, Status: model.UserStatusActive}
}

// as injects an authenticated caller the way Protect does
func as(user *model.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user != nil {
			middleware.SetUser(c, user, nil)
		}
		c.Next()
	}
}

func jsonRequest(method, path string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

// envelope decodes a success response, keeping data raw
type envelope struct {
	Success     bool            `json:"success"`
	Message     string          `json:"message"`
	Count       int             `json:"count"`
	Total       int             `json:"total"`
	Page        int             `json:"page"`
	Pages       int             `json:"pages"`
	UnreadCount int             `json:"unreadCount"`
	Data        json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, body io.Reader) *envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.NewDecoder(body).Decode(&env))
	return &env
}

func decodeProblem(t *testing.T, body io.Reader) *model.ProblemDetails {
	t.Helper()
	var p model.ProblemDetails
	require.NoError(t, json.NewDecoder(body).Decode(&p))
	return &p
}

func fieldNames(p *model.ProblemDetails) []string {
	names := make([]string, 0, len(p.Errors))
	for _, e := range p.Errors {
		names = append(names, e.Field)
	}
	return names
}
