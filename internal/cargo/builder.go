// Package cargo drives the external cargo toolchain in script-build mode
// and extracts the produced executable from its JSON message stream.
package cargo

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"
)

// ErrNoArtifact is returned when cargo exits 0 without reporting an
// executable. A zero exit status alone is not evidence of success.
var ErrNoArtifact = fmt.Errorf("cargo reported success but produced no executable artifact")

// BuildError reports a failed cargo invocation. It carries the rendered
// diagnostics in emission order and whatever stderr output was captured;
// both have already been surfaced verbatim by the time the error returns.
type BuildError struct {
	ExitCode    int
	Diagnostics []string
	Stderr      string
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("cargo build failed (exit code %d): %s", e.ExitCode, Describe(e.ExitCode))
}

// Builder invokes cargo's script-build mode against a single source file.
type Builder struct {
	cargoPath string
	toolchain string

	// seam for tests
	execCommand func(name string, args ...string) *exec.Cmd
}

// NewBuilder creates a builder that invokes cargoPath with the given
// toolchain selector (e.g. "+nightly"; empty to use the default toolchain).
func NewBuilder(cargoPath, toolchain string) *Builder {
	return &Builder{
		cargoPath:   cargoPath,
		toolchain:   toolchain,
		execCommand: exec.Command,
	}
}

// Build compiles the script and returns the path of the produced binary.
//
// Cargo is asked for line-delimited JSON on stdout; each line is an
// independent record discriminated by "reason". "compiler-artifact" records
// carry the executable path (the last one observed wins), and
// "compiler-message" records carry rendered diagnostics. Unrecognized or
// malformed lines are ignored for forward compatibility. When verbose,
// cargo's stderr is inherited; otherwise it is captured and replayed only
// on failure, together with the collected diagnostics.
func (b *Builder) Build(source string, release, verbose bool) (string, error) {
	args := b.buildArgs(source, release, verbose)
	cmd := b.execCommand(b.cargoPath, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("failed to pipe cargo stdout: %w", err)
	}

	var stderrBuf bytes.Buffer
	var stderr io.ReadCloser
	if verbose {
		cmd.Stderr = os.Stderr
	} else {
		stderr, err = cmd.StderrPipe()
		if err != nil {
			return "", fmt.Errorf("failed to pipe cargo stderr: %w", err)
		}
	}

	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("failed to spawn cargo: %w", err)
	}

	// Both pipes must be drained concurrently or cargo can deadlock
	// blocking on whichever one fills up first.
	var artifact string
	var diagnostics []string

	var g errgroup.Group
	g.Go(func() error {
		artifact, diagnostics = consumeMessages(stdout)
		return nil
	})

	if stderr != nil {
		g.Go(func() error {
			_, err := io.Copy(&stderrBuf, stderr)
			return err
		})
	}

	drainErr := g.Wait()
	waitErr := cmd.Wait()

	if waitErr != nil {
		exitCode := -1
		if exitErr, ok := waitErr.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}

		for _, diag := range diagnostics {
			fmt.Fprint(os.Stderr, diag)
		}

		if stderrBuf.Len() > 0 {
			os.Stderr.Write(stderrBuf.Bytes())
		}

		return "", &BuildError{
			ExitCode:    exitCode,
			Diagnostics: diagnostics,
			Stderr:      stderrBuf.String(),
		}
	}

	if drainErr != nil {
		return "", fmt.Errorf("failed to read cargo output: %w", drainErr)
	}

	if artifact == "" {
		return "", ErrNoArtifact
	}

	return artifact, nil
}

func (b *Builder) buildArgs(source string, release, verbose bool) []string {
	var args []string

	if b.toolchain != "" {
		args = append(args, b.toolchain)
	}

	args = append(args, "-Zscript", "build", "--manifest-path", source, "--message-format=json")

	if !verbose {
		args = append(args, "--quiet")
	}

	if release {
		args = append(args, "--release")
	}

	return args
}

// consumeMessages reads the JSON message stream line by line, returning the
// last reported executable path and all rendered diagnostics in emission
// order. Lines are unbounded: rendered diagnostics for macro-heavy code can
// run long, and a line must never stall the stream — the pipe has to be
// drained to end-of-stream or cargo blocks writing and the wait deadlocks.
func consumeMessages(r io.Reader) (artifact string, diagnostics []string) {
	reader := bufio.NewReaderSize(r, 64*1024)

	for {
		line, err := reader.ReadString('\n')

		if gjson.Valid(line) {
			switch gjson.Get(line, "reason").String() {
			case "compiler-artifact":
				if exe := gjson.Get(line, "executable"); exe.Type == gjson.String {
					artifact = exe.String()
				}
			case "compiler-message":
				if rendered := gjson.Get(line, "message.rendered"); rendered.Type == gjson.String {
					diagnostics = append(diagnostics, rendered.String())
				}
			}
		}

		if err != nil {
			return artifact, diagnostics
		}
	}
}
