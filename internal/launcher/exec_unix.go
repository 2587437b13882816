//go:build unix

package launcher

import "syscall"

// defaultExec replaces the current process image via exec(2). It only
// returns on error.
func defaultExec(argv0 string, argv, envv []string) error {
	return syscall.Exec(argv0, argv, envv)
}
