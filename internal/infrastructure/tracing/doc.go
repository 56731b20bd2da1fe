/*
Package tracing provides lightweight request tracing for debugging production issues.

# Overview

Every HTTP request and every WebSocket message gets a span. Trace IDs are
accepted from and echoed in headers, so a browser or load balancer log line
can be matched with the backend log for the same chat exchange.

# Features

- Trace context propagation via HTTP headers
- Span creation with parent-child relationships
- Prefixed ULID trace and span IDs (req_..., span_...)
- Gin middleware for automatic instrumentation
- Spans written to the structured log by a buffered collector

# Usage

	tracer := tracing.New("streamchat", logger)
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))

	span, ctx := tracer.StartSpan(ctx, "ws.chat")
	defer func() {
		span.Finish()
		tracer.Submit(span)
	}()
	span.SetTag("session_id", shortID)

# Trace Format

- X-Trace-ID: Unique identifier for entire request flow
- X-Span-ID: Identifier for current operation
*/
package tracing
