// Package cache persists build metadata between runs.
//
// Each script path gets exactly one JSON entry file in a shared cache
// directory, named by a hash of the script's absolute path. Entries are
// plain JSON so they stay human-inspectable, and updates go through a
// write-to-temp, lock, rename protocol: a concurrent reader observes either
// the previous entry or the complete new one, never a torn write. The lock
// covers only the entry write, not the build itself; two concurrent first
// runs of the same script may both build, and the last writer wins.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// Store maps script path keys to persisted cache entries, one file per key.
type Store struct {
	dir string
}

// New creates a store rooted at dir, creating the directory if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	return &Store{dir: dir}, nil
}

// Dir returns the cache directory the store is rooted at.
func (s *Store) Dir() string {
	return s.dir
}

// EntryPath returns the path of the entry file for a key.
func (s *Store) EntryPath(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Lookup returns the entry for key, or nil on a miss. A missing entry file
// and an entry file that fails to parse are both misses, never errors: a
// corrupt entry from a partial write is silently superseded by the rebuild
// that follows.
func (s *Store) Lookup(key string) (*Entry, error) {
	data, err := os.ReadFile(s.EntryPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to read cache entry: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, nil // corrupt entry, treat as miss
	}

	if entry.Artifact == "" || entry.Fingerprint.Hash == "" {
		return nil, nil
	}

	return &entry, nil
}

// Store writes the entry for key atomically: the JSON is written to a
// temporary file in the same directory under an exclusive lock, synced,
// then renamed onto the final entry path.
func (s *Store) Store(key string, entry *Entry) error {
	final := s.EntryPath(key)
	tmp := final + ".tmp"

	lock := flock.New(tmp)
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock cache entry: %w", err)
	}

	if err := s.writeEntry(tmp, entry); err != nil {
		lock.Unlock()
		os.Remove(tmp)
		return err
	}

	if err := lock.Unlock(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to unlock cache entry: %w", err)
	}

	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to commit cache entry: %w", err)
	}

	return nil
}

func (s *Store) writeEntry(path string, entry *Entry) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create cache entry: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entry); err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	if err := f.Sync(); err != nil {
		return fmt.Errorf("failed to sync cache entry: %w", err)
	}

	return nil
}

// Remove deletes the entry for key. Absence of the entry is not an error.
func (s *Store) Remove(key string) error {
	err := os.Remove(s.EntryPath(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove cache entry: %w", err)
	}

	return nil
}

// Stats returns the number of entry files and their total size in bytes.
func (s *Store) Stats() (int, int64, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read cache directory: %w", err)
	}

	var count int
	var totalSize int64

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue // entry removed concurrently
		}

		count++
		totalSize += info.Size()
	}

	return count, totalSize, nil
}
