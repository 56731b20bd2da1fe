/*
Package monitoring provides performance monitoring and metrics collection.

# Overview

This package implements Prometheus-based metrics collection for the chat
backend, tracking HTTP requests, session lifecycle, completion streams and
WebSocket connections. Each Metrics value owns its registry.

# Features

- HTTP request metrics labelled by route template (latency, throughput, size)
- Session events: created, restored, saved, reset, corrupt
- Completion streams: active, outcome, duration, fragment count
- WebSocket connection and message metrics
- Uptime and Go runtime collectors

# Usage

	// Create metrics collector
	metrics := monitoring.NewMetrics()

	// Add middleware to Gin router
	router.Use(monitoring.Middleware(metrics))

	// Hand it to components as their recorder
	manager := session.NewManager(store, logger).WithMetrics(metrics)
	client := completion.NewClient(provider, completion.Options{Metrics: metrics})

# Metrics Endpoint

	router.GET("/metrics", gin.WrapH(metrics.Handler()))
*/
package monitoring
