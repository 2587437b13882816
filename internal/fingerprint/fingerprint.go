// Package fingerprint computes the identity of a script file.
//
// A script's identity has two parts: the modification time (cheap, a single
// stat) and a SHA-256 digest of its content (authoritative, requires reading
// the whole file). The modification time is truncated to whole seconds, so
// two writes within the same second are indistinguishable by mtime alone and
// the hash is the fallback check.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// chunkSize is the read buffer size used when hashing file content.
const chunkSize = 64 * 1024

// Fingerprint is the persisted identity of a script file at a point in time.
// Two fingerprints are equal only if both fields match.
type Fingerprint struct {
	// Mtime is the file's modification time in whole seconds since epoch
	Mtime int64 `json:"mtime"`

	// Hash is the hex-encoded SHA-256 digest of the file content
	Hash string `json:"hash"`
}

// File computes the full fingerprint of the file at path.
func File(path string) (Fingerprint, error) {
	mtime, err := Mtime(path)
	if err != nil {
		return Fingerprint{}, err
	}

	hash, err := HashFile(path)
	if err != nil {
		return Fingerprint{}, err
	}

	return Fingerprint{Mtime: mtime, Hash: hash}, nil
}

// Mtime returns the file's modification time truncated to whole seconds.
func Mtime(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	return info.ModTime().Unix(), nil
}

// HashFile streams the file content through SHA-256 in fixed-size chunks
// and returns the hex digest. The whole file is never held in memory.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, chunkSize)

	for {
		n, err := f.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}

		if err == io.EOF {
			break
		}

		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", path, err)
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// PathKey derives the cache key for an absolute script path by hashing the
// path string itself, not the file content. Moving different content to the
// same path still hits the same entry; identical content at a different
// path never does.
func PathKey(absPath string) string {
	sum := sha256.Sum256([]byte(absPath))
	return hex.EncodeToString(sum[:])
}
