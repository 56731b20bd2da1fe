// Package id provides centralized ID generation for the backend.
//
// Two formats are in use:
//   - Session IDs are random UUIDv4 strings. They double as the browser-side
//     cookie/local-storage value and as the on-disk file name, so they must be
//     unguessable and safe to embed in a path.
//   - Request and span IDs are prefixed ULIDs (req_01H...). They sort by time,
//     which keeps trace logs readable.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// RequestID identifies an API request or a trace span
type RequestID string

const (
	RequestPrefix = "req"
	SpanPrefix    = "span"
)

// sessionIDLength is the length of a canonical UUID string (8-4-4-4-12).
const sessionIDLength = 36

// ============================================================================
// Session IDs
// ============================================================================

// NewSessionID returns a fresh 128-bit random session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// ValidSessionID reports whether s is a canonical UUID string.
//
// uuid.Parse also accepts the urn and braced forms and upper-case hex; those
// are rejected here so that only one spelling of an ID can ever map to a file,
// including on case-insensitive filesystems.
func ValidSessionID(s string) bool {
	if len(s) != sessionIDLength || s != strings.ToLower(s) {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

// ShortSessionID returns the first group of a session ID for display.
func ShortSessionID(s string) string {
	if i := strings.IndexByte(s, '-'); i > 0 {
		return s[:i]
	}
	return s
}

// ============================================================================
// ULID Generator
// ============================================================================

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a new ULID generator backed by crypto/rand
func NewGenerator() *Generator {
	return &Generator{
		entropy: rand.Reader,
	}
}

// NewGeneratorWithEntropy creates a generator with a custom entropy source.
// Tests use it for deterministic output.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{
		entropy: entropy,
	}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.Generate().String())
}

// NewRequestID generates a new request ID
func NewRequestID() RequestID {
	return RequestID(Default().GenerateWithPrefix(RequestPrefix))
}

// NewSpanID generates a new span ID
func NewSpanID() RequestID {
	return RequestID(Default().GenerateWithPrefix(SpanPrefix))
}

func (id RequestID) String() string { return string(id) }

// IsValid checks if an ID string is a valid ULID
func IsValid(id string) bool {
	_, err := ulid.Parse(id)
	return err == nil
}
