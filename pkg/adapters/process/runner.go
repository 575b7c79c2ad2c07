// Package process executes shell actions as local child processes. The
// engine performs path sandboxing before a command ever reaches this
// adapter; the runner's own job is confinement of a different kind: working
// directory, wall-clock timeout and a bounded output buffer.
package process

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/listflow/listflow/internal/logging"
)

const defaultMaxOutput = 64 * 1024

// Runner executes commands through the system shell, confined to a base
// directory.
type Runner struct {
	baseDir   string
	shell     string
	maxOutput int
	logger    *slog.Logger
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithBaseDir sets the working directory for executed commands.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) { r.baseDir = dir }
}

// WithShell overrides the shell binary (default "sh").
func WithShell(shell string) RunnerOption {
	return func(r *Runner) { r.shell = shell }
}

// WithMaxOutput caps the combined output size in bytes.
func WithMaxOutput(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.maxOutput = n
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRunner creates a process runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		shell:     "sh",
		maxOutput: defaultMaxOutput,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the command with a wall-clock timeout and returns its
// combined stdout/stderr, truncated at the output cap. A non-zero exit
// returns the partial output alongside the error so handlers can inspect it.
func (r *Runner) Run(ctx context.Context, command string, timeout time.Duration) (string, error) {
	runCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, r.shell, "-c", command)
	cmd.Dir = r.baseDir

	var buf bytes.Buffer
	out := &boundedWriter{buf: &buf, limit: r.maxOutput}
	cmd.Stdout = out
	cmd.Stderr = out

	start := time.Now()
	err := cmd.Run()
	r.logger.Debug("command finished", "command", command, "elapsed", time.Since(start), "err", err)

	output := buf.String()
	if runCtx.Err() == context.DeadlineExceeded {
		return output, fmt.Errorf("command timed out after %s", timeout)
	}
	if err != nil {
		return output, fmt.Errorf("command exited: %w", err)
	}
	return output, nil
}

// boundedWriter silently discards writes past the limit; partial output is
// more useful than an unbounded buffer on a runaway command.
type boundedWriter struct {
	buf   *bytes.Buffer
	limit int
}

func (w *boundedWriter) Write(p []byte) (int, error) {
	remaining := w.limit - w.buf.Len()
	if remaining <= 0 {
		return len(p), nil
	}
	if len(p) > remaining {
		w.buf.Write(p[:remaining])
		return len(p), nil
	}
	return w.buf.Write(p)
}
