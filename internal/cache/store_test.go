package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tekacs/scriptr/internal/fingerprint"
)

func testEntry() *Entry {
	return &Entry{
		Fingerprint: fingerprint.Fingerprint{
			Mtime: 1717243845,
			Hash:  "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08",
		},
		Artifact: "/home/user/.cache/cargo-target/release/script",
	}
}

func TestStore_LookupMiss(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	entry, err := store.Lookup(fingerprint.PathKey("/home/user/a.rs"))
	require.NoError(t, err)
	assert.Nil(t, entry, "absent entry should be a miss, not an error")
}

func TestStore_StoreAndLookup(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	key := fingerprint.PathKey("/home/user/a.rs")
	want := testEntry()

	err = store.Store(key, want)
	require.NoError(t, err)

	got, err := store.Lookup(key)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want.Fingerprint, got.Fingerprint)
	assert.Equal(t, want.Artifact, got.Artifact)
}

func TestStore_NoTempResidue(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir)
	require.NoError(t, err)

	key := fingerprint.PathKey("/home/user/a.rs")
	err = store.Store(key, testEntry())
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, key+".json", entries[0].Name())
}

func TestStore_CorruptEntryIsMiss(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir)
	require.NoError(t, err)

	key := fingerprint.PathKey("/home/user/a.rs")

	tests := []struct {
		name    string
		content string
	}{
		{"truncated json", `{"fingerprint":{"mtime":171`},
		{"empty file", ""},
		{"wrong shape", `[1,2,3]`},
		{"missing fields", `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := os.WriteFile(store.EntryPath(key), []byte(tt.content), 0o644)
			require.NoError(t, err)

			entry, err := store.Lookup(key)
			require.NoError(t, err, "corrupt entry must never surface as an error")
			assert.Nil(t, entry)
		})
	}
}

func TestStore_Overwrite(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	key := fingerprint.PathKey("/home/user/a.rs")

	first := testEntry()
	err = store.Store(key, first)
	require.NoError(t, err)

	second := testEntry()
	second.Fingerprint.Hash = "acbd18db4cc2f85cedef654fccc4a4d8acbd18db4cc2f85cedef654fccc4a4d8"
	second.Artifact = "/home/user/.cache/cargo-target/debug/script"
	err = store.Store(key, second)
	require.NoError(t, err)

	got, err := store.Lookup(key)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, second.Artifact, got.Artifact)
	assert.Equal(t, second.Fingerprint.Hash, got.Fingerprint.Hash)
}

func TestStore_Remove(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	key := fingerprint.PathKey("/home/user/a.rs")

	// Removing an absent entry is not an error
	err = store.Remove(key)
	require.NoError(t, err)

	err = store.Store(key, testEntry())
	require.NoError(t, err)

	err = store.Remove(key)
	require.NoError(t, err)

	entry, err := store.Lookup(key)
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestStore_KeyIsolation(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	// Two distinct paths, identical entry content
	keyA := fingerprint.PathKey("/home/user/a.rs")
	keyB := fingerprint.PathKey("/home/user/b.rs")

	err = store.Store(keyA, testEntry())
	require.NoError(t, err)

	entry, err := store.Lookup(keyB)
	require.NoError(t, err)
	assert.Nil(t, entry, "entries must never be shared across paths")
}

func TestStore_Stats(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	count, size, err := store.Stats()
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Equal(t, int64(0), size)

	for _, path := range []string{"/a.rs", "/b.rs", "/c.rs"} {
		err = store.Store(fingerprint.PathKey(path), testEntry())
		require.NoError(t, err)
	}

	count, size, err = store.Stats()
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Greater(t, size, int64(0))
}

func TestStore_EntryIsHumanReadableJSON(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	key := fingerprint.PathKey("/home/user/a.rs")
	err = store.Store(key, testEntry())
	require.NoError(t, err)

	data, err := os.ReadFile(store.EntryPath(key))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"fingerprint"`)
	assert.Contains(t, string(data), `"artifact"`)
}

func TestNew_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "cache")
	_, err := New(dir)
	require.NoError(t, err)
	assert.DirExists(t, dir)
}
