// Package probe holds the pieces shared by every hardware and runtime probe:
// the unavailable-probe sentinel and a bounded subprocess runner.
package probe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ErrUnavailable marks a probe that could not execute at all: missing driver,
// missing tool, permission failure, timeout. Callers substitute a safe default.
var ErrUnavailable = errors.New("probe unavailable")

// Unavailable wraps err so that errors.Is(err, ErrUnavailable) holds.
func Unavailable(what string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s", ErrUnavailable, what)
	}
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, what, err)
}

// Runner executes an external command and returns its standard output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// Run calls f.
func (f RunnerFunc) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return f(ctx, name, args...)
}

// DefaultWaitDelay is how long Run waits for output pipes after the command
// exits or is killed. A leftover grandchild holding stdout cannot stall it
// beyond this.
const DefaultWaitDelay = 500 * time.Millisecond

// ExecRunner runs commands with os/exec, killing them after Timeout.
type ExecRunner struct {
	Timeout   time.Duration
	WaitDelay time.Duration
}

// NewExecRunner creates a runner with the given per-invocation timeout.
func NewExecRunner(timeout time.Duration) *ExecRunner {
	return &ExecRunner{Timeout: timeout, WaitDelay: DefaultWaitDelay}
}

// Run executes name with args. A missing binary, non-zero exit or timeout
// is reported as ErrUnavailable.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = r.WaitDelay

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, Unavailable(name, ctxErr)
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, Unavailable(name, fmt.Errorf("%w: %s", err, firstLine(msg)))
		}
		return nil, Unavailable(name, err)
	}

	return stdout.Bytes(), nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
