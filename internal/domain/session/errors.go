package session

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidID is returned when a session ID is not a canonical UUID
	ErrInvalidID = errors.New("invalid session id")

	// ErrSessionReset is returned when persisting a session that was reset
	// earlier in the same interaction
	ErrSessionReset = errors.New("session has been reset")
)

// CorruptStateError reports a session file that exists but cannot be decoded
type CorruptStateError struct {
	ID   string
	Path string
	Err  error
}

func (e *CorruptStateError) Error() string {
	return fmt.Sprintf("corrupt session state %s (%s): %v", e.ID, e.Path, e.Err)
}

func (e *CorruptStateError) Unwrap() error {
	return e.Err
}

// IsCorrupt reports whether err is or wraps a CorruptStateError
func IsCorrupt(err error) bool {
	var corrupt *CorruptStateError
	return errors.As(err, &corrupt)
}
