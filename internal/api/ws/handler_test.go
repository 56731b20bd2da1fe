package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/StreamChat/internal/completion"
	"github.com/GriffinCanCode/StreamChat/internal/completion/completiontest"
	"github.com/GriffinCanCode/StreamChat/internal/domain/chat"
	"github.com/GriffinCanCode/StreamChat/internal/domain/models"
	"github.com/GriffinCanCode/StreamChat/internal/domain/session"
	"github.com/GriffinCanCode/StreamChat/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/StreamChat/internal/infrastructure/tracing"
)

type wsFixture struct {
	url      string
	store    *session.FileStore
	provider *completiontest.Provider
}

func newFixture(t *testing.T, provider *completiontest.Provider) *wsFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := session.NewFileStore(t.TempDir(), session.FileStoreOptions{})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	metrics := monitoring.NewMetrics()
	tracer := tracing.New("test", nil)
	t.Cleanup(tracer.Close)

	manager := session.NewManager(store, nil).WithMetrics(metrics)
	client := completion.NewClient(provider, completion.Options{Metrics: metrics})
	service := chat.NewService(client, models.Default(), nil)

	router := gin.New()
	router.GET("/ws", NewHandler(manager, service, Options{Metrics: metrics, Tracer: tracer}).HandleConnection)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &wsFixture{
		url:      "ws" + strings.TrimPrefix(server.URL, "http") + "/ws",
		store:    store,
		provider: provider,
	}
}

func (f *wsFixture) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(f.url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msg Message) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(msg))
}

func recv(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var out map[string]any
	require.NoError(t, conn.ReadJSON(&out))
	return out
}

func TestHelloCreatesSession(t *testing.T) {
	f := newFixture(t, &completiontest.Provider{})
	conn := f.dial(t)

	send(t, conn, Message{Type: TypeHello})
	msg := recv(t, conn)

	assert.Equal(t, TypeSession, msg["type"])
	assert.Equal(t, true, msg["is_new"])
	assert.Equal(t, "nova-pro", msg["model_name"])
	assert.Empty(t, msg["messages"])

	_, ok, err := f.store.Load(t.Context(), msg["session_id"].(string))
	require.NoError(t, err)
	assert.True(t, ok, "hello should persist a new session")
}

func TestChatScenario(t *testing.T) {
	f := newFixture(t, &completiontest.Provider{Fragments: []string{"Hel", "lo!"}})
	conn := f.dial(t)

	send(t, conn, Message{Type: TypeChat, Message: "Hi"})

	announced := recv(t, conn)
	require.Equal(t, TypeSession, announced["type"])
	sessionID := announced["session_id"].(string)

	first := recv(t, conn)
	assert.Equal(t, TypeToken, first["type"])
	assert.Equal(t, "Hel", first["content"])
	second := recv(t, conn)
	assert.Equal(t, "lo!", second["content"])

	done := recv(t, conn)
	assert.Equal(t, TypeComplete, done["type"])
	assert.Equal(t, "Hello!", done["content"])

	// A second socket restores the history
	other := f.dial(t)
	send(t, other, Message{Type: TypeHello, SessionID: sessionID})
	restored := recv(t, other)
	assert.Equal(t, sessionID, restored["session_id"])
	assert.Equal(t, false, restored["is_new"])
	messages := restored["messages"].([]any)
	require.Len(t, messages, 2)
	assert.Equal(t, "Hi", messages[0].(map[string]any)["content"])
	assert.Equal(t, "Hello!", messages[1].(map[string]any)["content"])
}

func TestChatReusesSessionWithoutAnnouncing(t *testing.T) {
	f := newFixture(t, &completiontest.Provider{Fragments: []string{"ok"}})
	conn := f.dial(t)

	send(t, conn, Message{Type: TypeHello})
	recv(t, conn)

	send(t, conn, Message{Type: TypeChat, Message: "one"})
	assert.Equal(t, TypeToken, recv(t, conn)["type"])
	assert.Equal(t, TypeComplete, recv(t, conn)["type"])

	send(t, conn, Message{Type: TypeChat, Message: "two"})
	assert.Equal(t, TypeToken, recv(t, conn)["type"])
	assert.Equal(t, TypeComplete, recv(t, conn)["type"])

	req, ok := f.provider.LastRequest()
	require.True(t, ok)
	assert.Len(t, req.Messages, 3)
}

func TestChatErrorNotSaved(t *testing.T) {
	f := newFixture(t, &completiontest.Provider{OpenErr: assert.AnError})
	conn := f.dial(t)

	send(t, conn, Message{Type: TypeHello})
	hello := recv(t, conn)

	send(t, conn, Message{Type: TypeChat, Message: "Hi"})
	msg := recv(t, conn)
	assert.Equal(t, TypeError, msg["type"])

	state, ok, err := f.store.Load(t.Context(), hello["session_id"].(string))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Empty(t, state.Messages)
}

func TestChatRejectsEmptyPrompt(t *testing.T) {
	f := newFixture(t, &completiontest.Provider{})
	conn := f.dial(t)

	send(t, conn, Message{Type: TypeChat, Message: ""})
	msg := recv(t, conn)

	assert.Equal(t, TypeError, msg["type"])
	assert.Empty(t, f.provider.Requests())
}

func TestModelChange(t *testing.T) {
	f := newFixture(t, &completiontest.Provider{})
	conn := f.dial(t)

	send(t, conn, Message{Type: TypeHello})
	hello := recv(t, conn)

	send(t, conn, Message{Type: TypeModel, Model: "nova-lite"})
	msg := recv(t, conn)
	assert.Equal(t, TypeModel, msg["type"])
	assert.Equal(t, "nova-lite", msg["model_name"])

	state, _, err := f.store.Load(t.Context(), hello["session_id"].(string))
	require.NoError(t, err)
	assert.Equal(t, "nova-lite", state.ModelName)

	send(t, conn, Message{Type: TypeModel, Model: "unknown"})
	assert.Equal(t, TypeError, recv(t, conn)["type"])
}

func TestModelOnFreshSocketAnnouncesNewSession(t *testing.T) {
	f := newFixture(t, &completiontest.Provider{})
	conn := f.dial(t)

	send(t, conn, Message{Type: TypeModel, Model: "nova-lite"})
	msg := recv(t, conn)

	assert.Equal(t, TypeSession, msg["type"])
	assert.Equal(t, true, msg["is_new"])
	assert.Equal(t, "nova-lite", msg["model_name"])

	state, ok, err := f.store.Load(t.Context(), msg["session_id"].(string))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "nova-lite", state.ModelName)
}

func TestResetScenario(t *testing.T) {
	f := newFixture(t, &completiontest.Provider{Fragments: []string{"ok"}})
	conn := f.dial(t)

	send(t, conn, Message{Type: TypeChat, Message: "Hi"})
	first := recv(t, conn)
	oldID := first["session_id"].(string)
	recv(t, conn)
	recv(t, conn)

	send(t, conn, Message{Type: TypeReset})
	assert.Equal(t, TypeSessionCleared, recv(t, conn)["type"])

	_, ok, err := f.store.Load(t.Context(), oldID)
	require.NoError(t, err)
	assert.False(t, ok)

	send(t, conn, Message{Type: TypeChat, Message: "again"})
	fresh := recv(t, conn)
	assert.Equal(t, TypeSession, fresh["type"])
	assert.Equal(t, true, fresh["is_new"])
	assert.NotEqual(t, oldID, fresh["session_id"])
	recv(t, conn)
	assert.Equal(t, TypeComplete, recv(t, conn)["type"])

	req, ok := f.provider.LastRequest()
	require.True(t, ok)
	assert.Len(t, req.Messages, 1, "history must start over after reset")
}

func TestPingAndUnknown(t *testing.T) {
	f := newFixture(t, &completiontest.Provider{})
	conn := f.dial(t)

	send(t, conn, Message{Type: TypePing})
	assert.Equal(t, TypePong, recv(t, conn)["type"])

	send(t, conn, Message{Type: "bogus"})
	msg := recv(t, conn)
	assert.Equal(t, TypeError, msg["type"])
	assert.Contains(t, msg["message"], "bogus")
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://chat.example.com"})

	req := func(origin string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}

	assert.True(t, check(req("https://chat.example.com")))
	assert.True(t, check(req("")))
	assert.False(t, check(req("https://evil.example.com")))
	assert.True(t, originChecker(nil)(req("https://anything")))
	assert.True(t, originChecker([]string{"*"})(req("https://anything")))
}
