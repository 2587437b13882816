// Package history keeps an append-only log of scriptr runs in a BoltDB
// database inside the cache directory. It backs the stats command and is
// never consulted on the cache-hit launch path.
package history

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

const (
	// dbName is the history database file name inside the cache directory
	dbName = "history.db"

	// bucketName is the BoltDB bucket holding run records
	bucketName = "runs"
)

// Record is one logged build. Cache hits are never logged: a hit replaces
// the process image, and the fast path must not pay for a database write.
type Record struct {
	// Time is when the build happened
	Time time.Time `json:"time"`

	// Script is the absolute path of the script that was built
	Script string `json:"script"`

	// Artifact is the binary the build produced; empty on failure
	Artifact string `json:"artifact"`

	// BuildMillis is the build duration
	BuildMillis int64 `json:"build_millis"`

	// Success indicates whether the build succeeded
	Success bool `json:"success"`
}

// Stats aggregates the build log.
type Stats struct {
	Builds    int
	Failures  int
	LastBuild time.Time
}

// Log is a BoltDB-backed run history.
type Log struct {
	db *bbolt.DB
}

// Open opens (creating if needed) the history database in cacheDir.
func Open(cacheDir string) (*Log, error) {
	dbPath := filepath.Join(cacheDir, dbName)

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create history bucket: %w", err)
	}

	return &Log{db: db}, nil
}

// Close closes the history database.
func (l *Log) Close() error {
	if l.db != nil {
		return l.db.Close()
	}

	return nil
}

// Append logs one build, keyed by its timestamp.
func (l *Log) Append(rec Record) error {
	return l.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))

		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}

		return b.Put([]byte(rec.Time.Format(time.RFC3339Nano)), data)
	})
}

// Summary aggregates all logged builds.
func (l *Log) Summary() (Stats, error) {
	var stats Stats

	err := l.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))

		return b.ForEach(func(_, v []byte) error {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return nil // skip unreadable records
			}

			stats.Builds++
			if !rec.Success {
				stats.Failures++
			}

			if rec.Time.After(stats.LastBuild) {
				stats.LastBuild = rec.Time
			}

			return nil
		})
	})
	if err != nil {
		return Stats{}, err
	}

	return stats, nil
}
