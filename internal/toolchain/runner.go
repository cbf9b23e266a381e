// Package toolchain launches the external wasm-bindgen tools and relays their output.
package toolchain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"

	"github.com/mattjoyce/wasm-bindgen-runner/internal/log"
)

//go:generate mockgen -destination=mocks/mock_runner.go -package=mocks github.com/mattjoyce/wasm-bindgen-runner/internal/toolchain Runner

// ErrLaunch wraps failures to start a tool process.
var ErrLaunch = errors.New("launch failed")

// Output is everything a finished tool produced.
type Output struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Success reports whether the tool exited with status zero.
func (o Output) Success() bool { return o.ExitCode == 0 }

// Runner runs a tool to completion and returns its buffered output.
// A non-zero exit status is reported through Output.ExitCode, not as an error.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Output, error)
}

// ExecRunner runs tools as local subprocesses.
type ExecRunner struct {
	logger *slog.Logger
}

// NewExecRunner creates an ExecRunner that logs through logger.
func NewExecRunner(logger *slog.Logger) *ExecRunner {
	return &ExecRunner{logger: log.Component(logger, "toolchain")}
}

// Run starts name with args, waits for it to exit, and returns what it wrote.
// Output is not streamed; both streams are held until the process exits.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (Output, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Debug("starting tool", "tool", name, "args", args)

	if err := cmd.Start(); err != nil {
		return Output{}, fmt.Errorf("%w: %s: %w", ErrLaunch, name, err)
	}

	err := cmd.Wait()
	out := Output{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return out, fmt.Errorf("wait for %s: %w", name, err)
		}
		out.ExitCode = exitErr.ExitCode()
	}

	r.logger.Debug("tool exited", "tool", name, "exit_code", out.ExitCode,
		"stdout_bytes", len(out.Stdout), "stderr_bytes", len(out.Stderr))
	return out, nil
}

// Relay copies captured output to stdout and stderr unchanged.
func Relay(out Output, stdout, stderr io.Writer) error {
	if _, err := stdout.Write(out.Stdout); err != nil {
		return fmt.Errorf("relay stdout: %w", err)
	}
	if _, err := stderr.Write(out.Stderr); err != nil {
		return fmt.Errorf("relay stderr: %w", err)
	}
	return nil
}
