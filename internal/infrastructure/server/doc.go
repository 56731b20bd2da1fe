// Package server wires the StreamChat components into one HTTP server.
//
// Server Lifecycle:
//  1. Build the logger from configuration
//  2. Open the session directory and the session manager
//  3. Load the model catalog (file or key list) and the completion provider
//  4. Wrap the provider in a circuit breaker
//  5. Mount middleware, REST/SSE routes, the WebSocket endpoint and /metrics
//  6. Serve until Shutdown, then drain in-flight requests and release resources
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	srv, err := server.NewServer(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	go srv.Run()
//	defer srv.Shutdown(ctx)
package server
