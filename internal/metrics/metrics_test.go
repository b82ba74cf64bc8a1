package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.ObserveRequest("GET", "/api/events", 200, 20*time.Millisecond)
	m.ObserveRequest("GET", "/api/events", 200, 30*time.Millisecond)
	m.PaymentSettled("VNPAY", "SUCCESS")
	m.NotificationSent("APPROVAL")
	m.JobRun("auto_complete", nil)
	m.JobRun("auto_complete", errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/events", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.payments.WithLabelValues("VNPAY", "SUCCESS")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notificationsSent.WithLabelValues("APPROVAL")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.jobRuns.WithLabelValues("auto_complete", "error")))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRequest("GET", "/", 200, time.Millisecond)
		m.PaymentSettled("MOMO", "FAILED")
		m.JobRun("x", nil)
		m.WebsocketOpened()
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.PaymentSettled("PAYOS", "SUCCESS")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `payments_total{provider="PAYOS",status="SUCCESS"} 1`)
}
