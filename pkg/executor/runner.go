// Package executor runs a command line through the shell and captures
// everything the record store and summarizer need to know about it.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ErrEmptyCommand is returned when the command line is empty or whitespace.
// It is distinct from a command that ran and failed.
var ErrEmptyCommand = errors.New("executor: empty command")

// Result captures a single command run.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Combined string
	Duration time.Duration
}

// Success reports whether the command exited zero.
func (r *Result) Success() bool {
	return r.ExitCode == 0
}

// Runner executes command lines via the shell so pipelines, globs, and PATH
// lookups behave the way the user typed them.
type Runner struct {
	timeout time.Duration
}

// Option configures a Runner.
type Option func(*Runner)

// WithTimeout bounds each run. Zero means no limit; the wrapped command is
// usually a build or test whose duration the tool cannot predict.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) {
		r.timeout = d
	}
}

// NewRunner creates a runner with the given options.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the command line and returns its captured result. A command
// that starts and exits non-zero is a successful Run; only a refusal to spawn
// (or an empty command line) is an error. A process terminated without a
// normal exit status reports exit code -1.
func (r *Runner) Run(ctx context.Context, commandLine string) (*Result, error) {
	if strings.TrimSpace(commandLine) == "" {
		return nil, ErrEmptyCommand
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, "sh", "-c", commandLine)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	duration := time.Since(start)

	exitCode := 0
	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			return nil, fmt.Errorf("executor: run %q: %w", commandLine, runErr)
		}
		// ExitCode is -1 when the process was killed by a signal, which is
		// exactly the sentinel the record format uses.
		exitCode = exitErr.ExitCode()
	}

	out := stdout.String()
	errOut := stderr.String()
	combined := out
	if errOut != "" {
		combined = out + "\n" + errOut
	}

	return &Result{
		ExitCode: exitCode,
		Stdout:   out,
		Stderr:   errOut,
		Combined: combined,
		Duration: duration,
	}, nil
}
