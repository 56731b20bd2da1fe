package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/StreamChat/internal/shared/id"
)

// ClientStore is the browser-side place a session ID is kept between page
// loads (a cookie, local storage mirrored over a socket, ...)
type ClientStore interface {
	Get() (string, bool)
	Set(id string)
	Delete()
}

// MetricsRecorder receives session lifecycle events
type MetricsRecorder interface {
	RecordSessionEvent(event string)
}

// Session lifecycle events reported to MetricsRecorder
const (
	EventCreated  = "created"
	EventRestored = "restored"
	EventSaved    = "saved"
	EventReset    = "reset"
	EventCorrupt  = "corrupt"
)

// Resolution is the outcome of resolving a session hint
type Resolution struct {
	ID    string
	State State
	IsNew bool
}

// Manager resolves, persists and resets sessions on top of a Store
type Manager struct {
	store   Store
	logger  *zap.Logger
	metrics MetricsRecorder
	strict  bool
	newID   func() string

	created  atomic.Int64
	restored atomic.Int64
	saved    atomic.Int64
	reset    atomic.Int64
	corrupt  atomic.Int64

	mu           sync.RWMutex
	lastSaved    *time.Time
	lastRestored *time.Time
}

// NewManager creates a new session manager
func NewManager(store Store, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		store:  store,
		logger: logger,
		newID:  id.NewSessionID,
	}
}

// WithMetrics attaches a metrics recorder
func (m *Manager) WithMetrics(metrics MetricsRecorder) *Manager {
	m.metrics = metrics
	return m
}

// WithStrict makes Resolve return corrupt-state errors instead of starting a
// fresh session
func (m *Manager) WithStrict(strict bool) *Manager {
	m.strict = strict
	return m
}

// WithIDGenerator overrides session ID generation
func (m *Manager) WithIDGenerator(gen func() string) *Manager {
	m.newID = gen
	return m
}

// Resolve maps a client-supplied hint to a session. A hint that is empty,
// malformed or refers to no stored blob yields a brand new session ID; stale
// IDs are never reused.
func (m *Manager) Resolve(ctx context.Context, hint string) (Resolution, error) {
	if hint != "" && id.ValidSessionID(hint) {
		state, ok, err := m.store.Load(ctx, hint)
		switch {
		case err == nil && ok:
			m.restored.Add(1)
			m.record(EventRestored)
			now := time.Now()
			m.mu.Lock()
			m.lastRestored = &now
			m.mu.Unlock()

			if state.Messages == nil {
				state.Messages = []Turn{}
			}
			return Resolution{ID: hint, State: state, IsNew: false}, nil

		case err == nil:
			m.logger.Debug("Session hint has no stored state",
				zap.String("session_id", id.ShortSessionID(hint)))

		case IsCorrupt(err):
			m.corrupt.Add(1)
			m.record(EventCorrupt)
			if m.strict {
				return Resolution{}, err
			}
			m.logger.Warn("Discarding corrupt session state",
				zap.String("session_id", id.ShortSessionID(hint)),
				zap.Error(err))

		default:
			return Resolution{}, fmt.Errorf("failed to load session: %w", err)
		}
	}

	m.created.Add(1)
	m.record(EventCreated)
	return Resolution{
		ID:    m.newID(),
		State: State{Messages: []Turn{}},
		IsNew: true,
	}, nil
}

// ResolveClient resolves the ID held by the client store and always writes
// the resolved ID back, so a replaced stale ID is overwritten client-side.
func (m *Manager) ResolveClient(ctx context.Context, client ClientStore) (Resolution, error) {
	hint, _ := client.Get()
	res, err := m.Resolve(ctx, hint)
	if err != nil {
		return Resolution{}, err
	}
	client.Set(res.ID)
	return res, nil
}

// Persist writes the full state of a session
func (m *Manager) Persist(ctx context.Context, sessionID string, state State) error {
	if err := m.store.Save(ctx, sessionID, state); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}

	m.saved.Add(1)
	m.record(EventSaved)
	now := time.Now()
	m.mu.Lock()
	m.lastSaved = &now
	m.mu.Unlock()
	return nil
}

// Reset deletes the stored session and removes the client's reference to it.
// client may be nil.
func (m *Manager) Reset(ctx context.Context, sessionID string, client ClientStore) error {
	if id.ValidSessionID(sessionID) {
		if err := m.store.Delete(ctx, sessionID); err != nil {
			return fmt.Errorf("failed to reset session: %w", err)
		}
	}
	if client != nil {
		client.Delete()
	}

	m.reset.Add(1)
	m.record(EventReset)
	m.logger.Info("Session reset", zap.String("session_id", id.ShortSessionID(sessionID)))
	return nil
}

// List returns stored sessions when the store supports enumeration
func (m *Manager) List(ctx context.Context) ([]Info, error) {
	lister, ok := m.store.(Lister)
	if !ok {
		return nil, nil
	}
	return lister.List(ctx)
}

// Count returns the number of stored sessions
func (m *Manager) Count(ctx context.Context) (int, error) {
	infos, err := m.List(ctx)
	if err != nil {
		return 0, err
	}
	return len(infos), nil
}

// Stats returns session manager statistics
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	lastSaved := m.lastSaved
	lastRestored := m.lastRestored
	m.mu.RUnlock()

	return Stats{
		Created:      m.created.Load(),
		Restored:     m.restored.Load(),
		Saved:        m.saved.Load(),
		Reset:        m.reset.Load(),
		Corrupt:      m.corrupt.Load(),
		LastSaved:    lastSaved,
		LastRestored: lastRestored,
	}
}

func (m *Manager) record(event string) {
	if m.metrics != nil {
		m.metrics.RecordSessionEvent(event)
	}
}
