package cache

import "github.com/tekacs/scriptr/internal/fingerprint"

// Entry represents the cached build result for one script path.
type Entry struct {
	// Fingerprint is the identity of the script at the last successful build
	Fingerprint fingerprint.Fingerprint `json:"fingerprint"`

	// Artifact is the absolute path of the binary cargo produced
	Artifact string `json:"artifact"`
}
