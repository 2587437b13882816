// Package log configures apex/log for scriptr. Everything goes to stderr:
// stdout belongs to the launched script binary.
package log

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/apex/log"
)

// Init sets up apex with the stderr handler. Verbose enables debug-level
// trace output; otherwise only warnings and errors are emitted.
func Init(verbose bool) {
	log.SetHandler(&Handler{})

	if verbose {
		log.SetLevel(log.DebugLevel)
		return
	}

	log.SetLevel(log.WarnLevel)
}

// Handler formats log messages and writes them to stderr.
type Handler struct{}

// HandleLog implements the log.Handler interface.
func (h *Handler) HandleLog(e *log.Entry) error {
	timestamp := time.Now().Format("15:04:05")
	level := strings.ToUpper(e.Level.String())
	fmt.Fprintf(os.Stderr, "%s %.1s %s\n", timestamp, level, e.Message)
	return nil
}
