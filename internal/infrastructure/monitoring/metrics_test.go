package monitoring

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/StreamChat/internal/infrastructure/resilience"
)

func TestMetricsIndependentRegistries(t *testing.T) {
	// Two collectors in one process must not collide
	a := NewMetrics()
	b := NewMetrics()

	a.RecordSessionEvent("created")
	assert.Equal(t, 1.0, testutil.ToFloat64(a.SessionEvents.WithLabelValues("created")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.SessionEvents.WithLabelValues("created")))
}

func TestStreamMetrics(t *testing.T) {
	m := NewMetrics()

	m.RecordStreamStart("bedrock", "amazon.nova-pro-v1:0")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StreamsActive.WithLabelValues("bedrock")))
	assert.Equal(t, int64(1), m.Snapshot().ActiveStreams)

	m.RecordFragment("bedrock")
	m.RecordFragment("bedrock")
	m.RecordStreamEnd("bedrock", "amazon.nova-pro-v1:0", time.Second, nil)

	assert.Equal(t, 0.0, testutil.ToFloat64(m.StreamsActive.WithLabelValues("bedrock")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.StreamFragments.WithLabelValues("bedrock")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StreamsTotal.WithLabelValues("bedrock", "amazon.nova-pro-v1:0", "ok")))
	assert.Equal(t, int64(0), m.Snapshot().ActiveStreams)
}

func TestStreamStatus(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{fmt.Errorf("wrapped: %w", context.Canceled), "canceled"},
		{context.DeadlineExceeded, "timeout"},
		{resilience.ErrCircuitOpen, "circuit_open"},
		{errors.New("boom"), "error"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, StreamStatus(tt.err))
		})
	}
}

func TestMiddlewareUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics()

	router := gin.New()
	router.Use(Middleware(m))
	router.GET("/api/items/:id", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	for _, path := range []string{"/api/items/1", "/api/items/2", "/nope"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/api/items/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "unmatched", "404")))

	snap := m.Snapshot()
	assert.Equal(t, int64(3), snap.TotalRequests)
	assert.Equal(t, int64(1), snap.TotalErrors)
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := NewMetrics()
	m.RecordSessionEvent("saved")
	m.IncWSConnections()

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `streamchat_session_events_total{event="saved"} 1`)
	assert.Contains(t, body, "streamchat_ws_connections 1")
	assert.Contains(t, body, "streamchat_uptime_seconds")
}
