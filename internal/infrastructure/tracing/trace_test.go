package tracing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestStartSpanNewTrace(t *testing.T) {
	tracer := New("test", nil)
	defer tracer.Close()

	span, ctx := tracer.StartSpan(context.Background(), "op")

	assert.True(t, strings.HasPrefix(string(span.TraceID), "req_"))
	assert.True(t, strings.HasPrefix(string(span.SpanID), "span_"))
	assert.Empty(t, span.ParentID)
	assert.Equal(t, span.TraceID, GetTraceID(ctx))
	assert.Equal(t, span.SpanID, GetSpanID(ctx))
}

func TestStartSpanChild(t *testing.T) {
	tracer := New("test", nil)
	defer tracer.Close()

	parent, ctx := tracer.StartSpan(context.Background(), "parent")
	child, _ := tracer.StartSpan(ctx, "child")

	assert.Equal(t, parent.TraceID, child.TraceID)
	assert.Equal(t, parent.SpanID, child.ParentID)
}

func TestInjectExtractRoundTrip(t *testing.T) {
	ctx := WithTrace(context.Background(), "req_abc", "span_def")
	headers := map[string]string{}
	InjectTraceContext(ctx, headers)

	traceID, spanID := ExtractTraceContext(headers)
	assert.Equal(t, TraceID("req_abc"), traceID)
	assert.Equal(t, SpanID("span_def"), spanID)
}

func TestCloseDrainsSpans(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	tracer := New("test", zap.New(core))

	span, _ := tracer.StartSpan(context.Background(), "op")
	span.SetTag("session_id", "3f2504e0")
	span.SetError(errors.New("boom"))
	span.Finish()
	tracer.Submit(span)
	tracer.Close()

	entries := logs.FilterMessage("span completed with error").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "3f2504e0", entries[0].ContextMap()["session_id"])

	// Submitting after Close must not panic
	tracer.Submit(span)
	tracer.Close()
}

func TestHTTPMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tracer := New("test", nil)
	defer tracer.Close()

	var seen TraceID
	router := gin.New()
	router.Use(HTTPMiddleware(tracer))
	router.GET("/ping", func(c *gin.Context) {
		seen = GetTraceID(c.Request.Context())
		c.String(http.StatusOK, "pong")
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(TraceHeader, "req_upstream")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, TraceID("req_upstream"), seen)
	assert.Equal(t, "req_upstream", w.Header().Get(TraceHeader))
	assert.NotEmpty(t, w.Header().Get(SpanHeader))
}

func TestExtractDropsOversizedIDs(t *testing.T) {
	traceID, spanID := ExtractTraceContext(map[string]string{
		TraceHeader: strings.Repeat("x", maxHeaderID+1),
		SpanHeader:  "span_ok",
	})
	assert.Empty(t, traceID)
	assert.Equal(t, SpanID("span_ok"), spanID)
}

func TestSubmitConcurrentWithClose(t *testing.T) {
	tracer := New("test", nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				span, _ := tracer.StartSpan(context.Background(), "ws.chat")
				span.Finish()
				tracer.Submit(span)
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		tracer.Close()
	}()
	wg.Wait()

	tracer.Close()
}
