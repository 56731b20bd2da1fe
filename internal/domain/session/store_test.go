package session

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/StreamChat/internal/shared/id"
)

func newTestStore(t *testing.T, opts FileStoreOptions) *FileStore {
	t.Helper()
	store, err := NewFileStore(t.TempDir(), opts)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleState() State {
	return State{
		ModelName: "nova-pro",
		Messages: []Turn{
			{Role: RoleUser, Content: "Hi"},
			{Role: RoleAssistant, Content: "Hello!"},
		},
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	for _, compress := range []bool{false, true} {
		store := newTestStore(t, FileStoreOptions{Compress: compress})
		ctx := context.Background()
		sid := id.NewSessionID()

		require.NoError(t, store.Save(ctx, sid, sampleState()))

		got, ok, err := store.Load(ctx, sid)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, sampleState(), got, "compress=%v", compress)
	}
}

func TestFileStoreCompressedFileIsZstd(t *testing.T) {
	store := newTestStore(t, FileStoreOptions{Compress: true})
	sid := id.NewSessionID()
	require.NoError(t, store.Save(context.Background(), sid, sampleState()))

	raw, err := os.ReadFile(filepath.Join(store.Dir(), sid+fileExt))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, zstdMagic))
}

func TestFileStoreReadsEitherEncoding(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	sid := id.NewSessionID()

	plain, err := NewFileStore(dir, FileStoreOptions{})
	require.NoError(t, err)
	defer plain.Close()
	compressed, err := NewFileStore(dir, FileStoreOptions{Compress: true})
	require.NoError(t, err)
	defer compressed.Close()

	require.NoError(t, compressed.Save(ctx, sid, sampleState()))
	got, ok, err := plain.Load(ctx, sid)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sampleState(), got)
}

func TestFileStoreLoadMissing(t *testing.T) {
	store := newTestStore(t, FileStoreOptions{})

	_, ok, err := store.Load(context.Background(), id.NewSessionID())
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestFileStoreDelete(t *testing.T) {
	store := newTestStore(t, FileStoreOptions{})
	ctx := context.Background()
	sid := id.NewSessionID()

	require.NoError(t, store.Save(ctx, sid, sampleState()))
	require.NoError(t, store.Delete(ctx, sid))

	_, ok, err := store.Load(ctx, sid)
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting again is a no-op
	assert.NoError(t, store.Delete(ctx, sid))
}

func TestFileStoreSaveOverwrites(t *testing.T) {
	store := newTestStore(t, FileStoreOptions{})
	ctx := context.Background()
	sid := id.NewSessionID()

	require.NoError(t, store.Save(ctx, sid, sampleState()))
	require.NoError(t, store.Save(ctx, sid, State{ModelName: "nova-lite", Messages: []Turn{}}))

	got, ok, err := store.Load(ctx, sid)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "nova-lite", got.ModelName)
	assert.Empty(t, got.Messages)

	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestFileStoreFileMode(t *testing.T) {
	store := newTestStore(t, FileStoreOptions{})
	sid := id.NewSessionID()
	require.NoError(t, store.Save(context.Background(), sid, sampleState()))

	fi, err := os.Stat(filepath.Join(store.Dir(), sid+fileExt))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(fileMode), fi.Mode().Perm())
}

func TestFileStoreCorrupt(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
	}{
		{"garbage", []byte("not json {")},
		{"empty", []byte{}},
		{"bad role", []byte(`{"messages":[{"role":"system","content":"x"}]}`)},
		{"bad zstd", append(append([]byte{}, zstdMagic...), 0x00, 0x01)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(t, FileStoreOptions{})
			sid := id.NewSessionID()
			path := filepath.Join(store.Dir(), sid+fileExt)
			require.NoError(t, os.WriteFile(path, tt.content, 0o600))

			_, ok, err := store.Load(context.Background(), sid)
			assert.False(t, ok)
			require.Error(t, err)

			var corrupt *CorruptStateError
			require.ErrorAs(t, err, &corrupt)
			assert.Equal(t, sid, corrupt.ID)
			assert.Equal(t, path, corrupt.Path)
		})
	}
}

func TestFileStoreIgnoresUnknownKeys(t *testing.T) {
	store := newTestStore(t, FileStoreOptions{})
	sid := id.NewSessionID()
	blob := `{"model_name":"nova-micro","messages":[{"role":"user","content":"a"}],"extra":42}`
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), sid+fileExt), []byte(blob), 0o600))

	got, ok, err := store.Load(context.Background(), sid)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "nova-micro", got.ModelName)
	assert.Len(t, got.Messages, 1)
}

func TestFileStoreRejectsInvalidID(t *testing.T) {
	store := newTestStore(t, FileStoreOptions{})
	ctx := context.Background()

	for _, bad := range []string{"", "../escape", "abc"} {
		_, _, err := store.Load(ctx, bad)
		assert.ErrorIs(t, err, ErrInvalidID)
		assert.ErrorIs(t, store.Save(ctx, bad, State{}), ErrInvalidID)
		assert.ErrorIs(t, store.Delete(ctx, bad), ErrInvalidID)
	}
}

func TestFileStoreList(t *testing.T) {
	store := newTestStore(t, FileStoreOptions{})
	ctx := context.Background()

	ids := []string{id.NewSessionID(), id.NewSessionID()}
	for _, sid := range ids {
		require.NoError(t, store.Save(ctx, sid, sampleState()))
	}
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "README.txt"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "nope.session"), []byte("x"), 0o600))

	infos, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 2)

	var listed []string
	for _, info := range infos {
		listed = append(listed, info.ID)
		assert.Positive(t, info.Size)
	}
	assert.ElementsMatch(t, ids, listed)
}

func TestFileStoreCanceledContext(t *testing.T) {
	store := newTestStore(t, FileStoreOptions{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.Save(ctx, id.NewSessionID(), sampleState())
	assert.ErrorIs(t, err, context.Canceled)
}
