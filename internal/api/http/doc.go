// Package http provides the REST and server-sent-event API.
//
// The caller's session is identified by a cookie (with the X-Session-ID
// header accepted as a fallback and always echoed back). Chat replies are
// streamed as SSE: one "session" event, a "token" event per fragment, then
// "done" or "error". A session is saved only once a reply is complete.
//
// Endpoints:
//   - Health: / and /health
//   - Models: GET /api/models
//   - Session: GET /api/session, PUT /api/session/model, DELETE /api/session
//   - Chat: POST /api/chat
//
// Example Usage:
//
//	handlers := http.NewHandlers(sessions, chatService, http.Options{Metrics: metrics})
//	handlers.Register(router)
package http
