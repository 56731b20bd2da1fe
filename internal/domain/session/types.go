package session

import "time"

// Role identifies the author of a turn
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Turn is a single chat message
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// State is the persisted conversation state of one browser session.
// Messages only ever grow during a conversation; a reset deletes the whole
// session instead of truncating it.
type State struct {
	ModelName string `json:"model_name,omitempty"`
	Messages  []Turn `json:"messages"`
}

// Append adds a turn to the end of the conversation
func (s *State) Append(role Role, content string) {
	s.Messages = append(s.Messages, Turn{Role: role, Content: content})
}

// Clone returns a deep copy of the state
func (s State) Clone() State {
	out := State{ModelName: s.ModelName}
	if s.Messages != nil {
		out.Messages = make([]Turn, len(s.Messages))
		copy(out.Messages, s.Messages)
	}
	return out
}

// Info summarises a stored session without decoding it
type Info struct {
	ID      string    `json:"id"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// Stats contains session manager statistics
type Stats struct {
	Created  int64 `json:"created"`
	Restored int64 `json:"restored"`
	Saved    int64 `json:"saved"`
	Reset    int64 `json:"reset"`
	Corrupt  int64 `json:"corrupt"`

	LastSaved    *time.Time `json:"last_saved,omitempty"`
	LastRestored *time.Time `json:"last_restored,omitempty"`
}
