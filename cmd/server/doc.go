// Package main is the entry point for the StreamChat server.
//
// StreamChat keeps one conversation per browser session on local disk and
// streams model replies fragment by fragment.
//
// Architecture:
//
//	Browser → Go Backend (REST/SSE, WebSocket) → Bedrock / OpenAI / Anthropic
//	                                           → session files on disk
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	# Production mode
//	AWS_REGION=us-east-1 ./server -port 8000
//
//	# Development mode (console logs, debug level, no network)
//	./server -dev -provider echo
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
