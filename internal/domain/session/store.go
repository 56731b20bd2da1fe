package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/klauspost/compress/zstd"

	"github.com/GriffinCanCode/StreamChat/internal/shared/id"
)

// Store persists session state keyed by session ID
type Store interface {
	// Load returns ok=false without error when nothing is stored for id.
	Load(ctx context.Context, id string) (state State, ok bool, err error)
	Save(ctx context.Context, id string, state State) error
	Delete(ctx context.Context, id string) error
}

// Lister is implemented by stores that can enumerate their sessions
type Lister interface {
	List(ctx context.Context) ([]Info, error)
}

const (
	fileExt  = ".session"
	fileMode = 0o600
	dirMode  = 0o750
)

// zstdMagic is the frame header every zstd stream starts with.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// FileStoreOptions configures a FileStore
type FileStoreOptions struct {
	// Compress writes zstd-compressed blobs. Plain and compressed files can be
	// read regardless of this setting.
	Compress bool
}

// FileStore keeps one file per session in a directory that may be shared by
// several server instances. Writes go to a temp file in the same directory and
// are renamed into place, so readers only ever see complete blobs.
type FileStore struct {
	dir      string
	compress bool
	encoder  *zstd.Encoder
	decoder  *zstd.Decoder
}

// NewFileStore creates the storage directory if needed and returns a store
func NewFileStore(dir string, opts FileStoreOptions) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("session directory is required")
	}
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	return &FileStore{
		dir:      dir,
		compress: opts.Compress,
		encoder:  encoder,
		decoder:  decoder,
	}, nil
}

// Dir returns the storage directory
func (s *FileStore) Dir() string {
	return s.dir
}

// Load reads and decodes the blob stored for id
func (s *FileStore) Load(ctx context.Context, sessionID string) (State, bool, error) {
	if err := ctx.Err(); err != nil {
		return State{}, false, err
	}
	if !id.ValidSessionID(sessionID) {
		return State{}, false, ErrInvalidID
	}

	path := s.path(sessionID)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return State{}, false, nil
		}
		return State{}, false, fmt.Errorf("failed to read session %s: %w", sessionID, err)
	}

	state, err := s.decode(data)
	if err != nil {
		return State{}, false, &CorruptStateError{ID: sessionID, Path: path, Err: err}
	}
	return state, true, nil
}

// Save atomically replaces the blob stored for id
func (s *FileStore) Save(ctx context.Context, sessionID string, state State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !id.ValidSessionID(sessionID) {
		return ErrInvalidID
	}

	data, err := s.encode(state)
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", sessionID, err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+sessionID+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	// No-op once the rename has succeeded.
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write session %s: %w", sessionID, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync session %s: %w", sessionID, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close session %s: %w", sessionID, err)
	}
	if err := os.Chmod(tmpPath, fileMode); err != nil {
		return fmt.Errorf("failed to chmod session %s: %w", sessionID, err)
	}

	if err := os.Rename(tmpPath, s.path(sessionID)); err != nil {
		return fmt.Errorf("failed to replace session %s: %w", sessionID, err)
	}
	return nil
}

// Delete removes the blob stored for id. Missing files are not an error.
func (s *FileStore) Delete(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !id.ValidSessionID(sessionID) {
		return ErrInvalidID
	}

	if err := os.Remove(s.path(sessionID)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}
	return nil
}

// List returns every session file in the directory. Temp files and foreign
// files are skipped.
func (s *FileStore) List(ctx context.Context) ([]Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	infos := make([]Info, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, fileExt) {
			continue
		}
		sessionID := strings.TrimSuffix(name, fileExt)
		if !id.ValidSessionID(sessionID) {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			// Deleted between ReadDir and Info.
			continue
		}
		infos = append(infos, Info{
			ID:      sessionID,
			Size:    fi.Size(),
			ModTime: fi.ModTime(),
		})
	}
	return infos, nil
}

// Close releases the compression codecs
func (s *FileStore) Close() error {
	s.decoder.Close()
	return s.encoder.Close()
}

func (s *FileStore) encode(state State) ([]byte, error) {
	data, err := sonic.Marshal(state)
	if err != nil {
		return nil, err
	}
	if s.compress {
		return s.encoder.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
	}
	return data, nil
}

func (s *FileStore) decode(data []byte) (State, error) {
	if len(data) == 0 {
		return State{}, errors.New("empty session file")
	}
	if bytes.HasPrefix(data, zstdMagic) {
		raw, err := s.decoder.DecodeAll(data, nil)
		if err != nil {
			return State{}, fmt.Errorf("zstd: %w", err)
		}
		data = raw
	}

	var state State
	if err := sonic.Unmarshal(data, &state); err != nil {
		return State{}, err
	}
	for i, turn := range state.Messages {
		if !turn.Role.Valid() {
			return State{}, fmt.Errorf("message %d has unknown role %q", i, turn.Role)
		}
	}
	return state, nil
}

// path generates the filesystem path for a session
func (s *FileStore) path(sessionID string) string {
	return filepath.Join(s.dir, sessionID+fileExt)
}
