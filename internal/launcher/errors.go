package launcher

import "fmt"

// PathError reports a script path that does not exist or cannot be
// canonicalized.
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("cannot resolve script path %s: %v", e.Path, e.Err)
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// LaunchError reports a failed process handoff. By construction exec never
// returns on success, so any return is a failure; the artifact vanished or
// is not executable. There is no fallback rebuild at this point.
type LaunchError struct {
	Artifact string
	Err      error
}

func (e *LaunchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("failed to exec %s", e.Artifact)
	}

	return fmt.Sprintf("failed to exec %s: %v", e.Artifact, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}
