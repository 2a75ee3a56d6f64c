package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"slices"
	"strings"
	"time"

	"github.com/petal-labs/modalmcp/tool"
)

const (
	// DefaultBinary is the CLI executed when RunnerConfig.Binary is empty.
	DefaultBinary = "modal"
	// DefaultLaunchWindow is how long a background process must survive to
	// count as launched.
	DefaultLaunchWindow = 2 * time.Second
)

// RunnerConfig configures a Runner.
type RunnerConfig struct {
	Binary string
	// BinaryArgs are inserted between the binary and the per-call argv.
	BinaryArgs   []string
	Env          map[string]string
	LaunchWindow time.Duration
	Logger       *slog.Logger
	Observer     tool.Observer
}

// Runner executes commands. It holds no per-call state and is safe for
// concurrent use.
type Runner struct {
	binary       string
	binaryArgs   []string
	env          []string
	launchWindow time.Duration
	logger       *slog.Logger
	observer     tool.Observer
}

// NewRunner applies defaults to cfg and returns a Runner.
func NewRunner(cfg RunnerConfig) *Runner {
	binary := strings.TrimSpace(cfg.Binary)
	if binary == "" {
		binary = DefaultBinary
	}
	window := cfg.LaunchWindow
	if window <= 0 {
		window = DefaultLaunchWindow
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	var env []string
	if len(cfg.Env) > 0 {
		env = append(os.Environ(), flattenEnv(cfg.Env)...)
	}
	return &Runner{
		binary:       binary,
		binaryArgs:   slices.Clone(cfg.BinaryArgs),
		env:          env,
		launchWindow: window,
		logger:       logger,
		observer:     tool.ObserverOrNop(cfg.Observer),
	}
}

// Binary returns the configured executable.
func (r *Runner) Binary() string {
	return r.binary
}

// Execute runs spec and reports the outcome. It never returns an error; all
// failures are described by the Result.
func (r *Runner) Execute(ctx context.Context, spec Spec) Result {
	argv := r.commandLine(spec)
	r.logger.Info("executing command",
		"argv", argv,
		"dir", spec.Dir,
		"background", spec.Background,
	)

	start := time.Now()
	var res Result
	if spec.Background {
		res = r.launch(argv, spec.Dir)
	} else {
		res = r.run(ctx, argv, spec.Dir)
	}
	res.Duration = time.Since(start)

	attrs := []any{
		"argv", argv,
		"succeeded", res.Succeeded,
		"exit_code", res.ExitCode,
		"duration", res.Duration,
	}
	if res.PID > 0 {
		attrs = append(attrs, "pid", res.PID)
	}
	if res.Err != nil {
		attrs = append(attrs, "error", res.Err)
	}
	if res.Succeeded {
		r.logger.Debug("command finished", attrs...)
	} else {
		r.logger.Warn("command failed", attrs...)
	}

	r.observer.ObserveCommand(tool.CommandObservation{
		Argv:       slices.Clone(res.Argv),
		Background: res.Background,
		DurationMS: res.Duration.Milliseconds(),
		Succeeded:  res.Succeeded,
		ExitCode:   res.ExitCode,
		PID:        res.PID,
	})
	return res
}

func (r *Runner) commandLine(spec Spec) []string {
	argv := make([]string, 0, len(spec.Launcher)+1+len(r.binaryArgs)+len(spec.Argv))
	argv = append(argv, spec.Launcher...)
	argv = append(argv, r.binary)
	argv = append(argv, r.binaryArgs...)
	argv = append(argv, spec.Argv...)
	return argv
}

func (r *Runner) run(ctx context.Context, argv []string, dir string) Result {
	// #nosec G204 -- argv is built from the configured binary and schema-validated tool input.
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Env = r.env

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{
		Argv:   argv,
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if err == nil {
		res.Succeeded = true
		return res
	}

	var exitErr *exec.ExitError
	switch {
	case ctx.Err() != nil:
		res.ExitCode = -1
		res.Err = fmt.Errorf("command %q interrupted: %w", strings.Join(argv, " "), ctx.Err())
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
		res.Err = fmt.Errorf("command %q exited with status %d", strings.Join(argv, " "), res.ExitCode)
	default:
		res.ExitCode = -1
		res.Err = err
	}
	return res
}

func (r *Runner) launch(argv []string, dir string) Result {
	// The process must outlive the request, so it is not bound to the caller's context.
	// #nosec G204 -- argv is built from the configured binary and schema-validated tool input.
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Env = r.env
	detach(cmd)

	stdout := newCappedBuffer(maxBackgroundOutput)
	stderr := newCappedBuffer(maxBackgroundOutput)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	res := Result{Argv: argv, Background: true}
	if err := cmd.Start(); err != nil {
		res.ExitCode = -1
		res.Err = err
		return res
	}
	res.PID = cmd.Process.Pid

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	timer := time.NewTimer(r.launchWindow)
	defer timer.Stop()

	select {
	case <-done:
		res.ExitCode = -1
		if cmd.ProcessState != nil {
			res.ExitCode = cmd.ProcessState.ExitCode()
		}
		res.Err = ErrEndedPrematurely
		res.Stdout = stdout.String()
		res.Stderr = stderr.String()
		return res
	case <-timer.C:
		res.Succeeded = true
		return res
	}
}

func flattenEnv(values map[string]string) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	out := make([]string, 0, len(values))
	for _, key := range keys {
		out = append(out, key+"="+values[key])
	}
	return out
}
