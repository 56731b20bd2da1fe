// Package ws provides the WebSocket chat endpoint.
//
// A socket stands in for browser local storage: the client announces the
// session ID it remembers and the server tells it which ID to keep or drop.
//
// Message Types (Client → Server):
//   - hello: {session_id?} resolve a session and receive its history
//   - chat: {message, model?} run one exchange
//   - model: {model} change the session's model
//   - reset: delete the session
//   - ping: keep-alive
//
// Message Types (Server → Client):
//   - session: the ID to store, plus model and (for hello) history
//   - session_cleared: forget the stored ID
//   - token: one reply fragment
//   - complete: the full reply, after it was saved
//   - error: the exchange failed; nothing was saved
//   - pong
//
// Example Usage:
//
//	handler := ws.NewHandler(sessions, chatService, ws.Options{})
//	router.GET("/ws", handler.HandleConnection)
package ws
