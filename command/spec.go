package command

import (
	"errors"
	"strings"
	"time"
)

// ErrEndedPrematurely is reported when a background process exits inside the
// launch window.
var ErrEndedPrematurely = errors.New("process ended prematurely")

// Spec describes one command execution. Argv excludes the binary.
type Spec struct {
	Argv []string
	// Dir is the working directory; empty means the server's.
	Dir string
	// Background detaches the process and returns after the launch window.
	Background bool
	// Launcher is prepended before the binary, e.g. ["uv", "run", "--directory=app"].
	Launcher []string
}

// Result is the outcome of one execution.
type Result struct {
	Succeeded bool
	// ExitCode is -1 when the process could not be started or was killed by a signal.
	ExitCode int
	// Err is set when the process failed to start, exited non-zero or ended
	// prematurely.
	Err        error
	Stdout     string
	Stderr     string
	Argv       []string
	PID        int
	Background bool
	Duration   time.Duration
}

// CommandLine renders Argv as a single space-separated string.
func (r Result) CommandLine() string {
	return strings.Join(r.Argv, " ")
}
