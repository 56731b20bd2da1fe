package session

import (
	"context"
)

// Interaction carries one resolved session through a single request.
// It is not safe for concurrent use.
type Interaction struct {
	manager *Manager
	client  ClientStore
	id      string
	isNew   bool
	state   State
	reset   bool
}

// Begin resolves the session referenced by client and starts an interaction
func (m *Manager) Begin(ctx context.Context, client ClientStore) (*Interaction, error) {
	res, err := m.ResolveClient(ctx, client)
	if err != nil {
		return nil, err
	}
	return &Interaction{
		manager: m,
		client:  client,
		id:      res.ID,
		isNew:   res.IsNew,
		state:   res.State,
	}, nil
}

// ID returns the session ID
func (i *Interaction) ID() string { return i.id }

// IsNew reports whether the session was created by this interaction
func (i *Interaction) IsNew() bool { return i.isNew }

// IsReset reports whether Reset has been called
func (i *Interaction) IsReset() bool { return i.reset }

// State returns the working state. Mutations are persisted by Commit.
func (i *Interaction) State() *State { return &i.state }

// SetModel records the model key used for later turns
func (i *Interaction) SetModel(key string) {
	i.state.ModelName = key
}

// Reset deletes the session and clears the client reference
func (i *Interaction) Reset(ctx context.Context) error {
	if err := i.manager.Reset(ctx, i.id, i.client); err != nil {
		return err
	}
	i.reset = true
	i.state = State{Messages: []Turn{}}
	return nil
}

// Commit persists the working state
func (i *Interaction) Commit(ctx context.Context) error {
	if i.reset {
		return ErrSessionReset
	}
	if err := i.manager.Persist(ctx, i.id, i.state); err != nil {
		return err
	}
	i.isNew = false
	return nil
}
