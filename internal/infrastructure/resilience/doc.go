/*
Package resilience provides circuit breaker implementation for graceful degradation.

# Overview

This package implements the circuit breaker pattern used in front of the
model backend. When the backend keeps failing to open streams, new chat
requests fail immediately instead of each waiting on a timeout.

# Features

- Three-state circuit breaker (Closed, Open, Half-Open)
- Consecutive-failure threshold and open timeout
- Context cancellation is not counted as a backend failure
- State change callbacks for logging and metrics
- No retries: a failed call is reported to the caller as-is

# Usage

	// Create a circuit breaker
	breaker := resilience.New("bedrock", resilience.Settings{
		MaxFailures: 5,
		Timeout:     30 * time.Second,
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Warn("circuit breaker", zap.String("from", from.String()), zap.String("to", to.String()))
		},
	})

	// Execute request through breaker
	err := breaker.Execute(func() error {
		reader, err = provider.Open(ctx, req)
		return err
	})

# States

- Closed: Normal operation, requests pass through
- Open: Service unavailable, requests fail immediately
- Half-Open: Testing if service recovered, limited requests allowed

# Pattern

The circuit breaker transitions between states based on success/failure rates:

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                           |
	                                    [failure]
	                                           |
	                                           v
	                                         Open
*/
package resilience
