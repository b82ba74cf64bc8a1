package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/eventup/api/internal/metrics"
)

// ============================================================================
// RequestID
// ============================================================================

func TestRequestID_GeneratesWhenMissing(t *testing.T) {
	var seen string
	r := newRouter(RequestID(), func(c *gin.Context) { seen = GetRequestID(c) })

	rr := serve(r, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rr.Header().Get(RequestIDHeader))
}

func TestRequestID_KeepsClientValue(t *testing.T) {
	r := newRouter(RequestID())
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(RequestIDHeader, "req-123")

	rr := serve(r, req)

	assert.Equal(t, "req-123", rr.Header().Get(RequestIDHeader))
}

// ============================================================================
// Logger and Recovery
// ============================================================================

func TestLogger_IncludesRequestID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := newRouter(RequestID(), Logger(zap.New(core)))
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(RequestIDHeader, "req-log")

	serve(r, req)

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "req-log", entries[0].ContextMap()["request_id"])
		assert.Equal(t, int64(http.StatusOK), entries[0].ContextMap()["status"])
	}
}

func TestRecovery_Returns500Problem(t *testing.T) {
	r := gin.New()
	r.Use(Recovery(zap.NewNop()))
	r.GET("/panic", func(c *gin.Context) { panic("boom") })

	rr := serve(r, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	p := decodeProblem(t, rr.Body)
	assert.False(t, p.Success)
	assert.Equal(t, "/panic", p.Instance)
}

// ============================================================================
// Metrics
// ============================================================================

func TestMetrics_RecordsRouteTemplate(t *testing.T) {
	m := metrics.New()
	r := gin.New()
	r.Use(Metrics(m))
	r.GET("/api/events/:eventId", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	serve(r, httptest.NewRequest(http.MethodGet, "/api/events/event:1", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/api/events/event:2", nil))

	expected := `
# HELP http_requests_total Total HTTP requests processed
# TYPE http_requests_total counter
http_requests_total{method="GET",path="/api/events/:eventId",status="204"} 2
`
	assert.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "http_requests_total"))
}
