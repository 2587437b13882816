//go:build !unix

package launcher

import "fmt"

func defaultExec(argv0 string, argv, envv []string) error {
	return fmt.Errorf("process handoff via exec is not supported on this platform")
}
