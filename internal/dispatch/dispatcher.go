package dispatch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/mattjoyce/wasm-bindgen-runner/internal/config"
	"github.com/mattjoyce/wasm-bindgen-runner/internal/log"
	"github.com/mattjoyce/wasm-bindgen-runner/internal/page"
	"github.com/mattjoyce/wasm-bindgen-runner/internal/task"
	"github.com/mattjoyce/wasm-bindgen-runner/internal/toolchain"
)

// Dispatcher runs the workflow selected by a task classification.
type Dispatcher struct {
	runner toolchain.Runner
	cfg    *config.Config
	stdout io.Writer
	stderr io.Writer
	logger *slog.Logger
}

// New creates a new Dispatcher. Tool output is relayed to stdout and stderr.
func New(runner toolchain.Runner, cfg *config.Config, stdout, stderr io.Writer, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		runner: runner,
		cfg:    cfg,
		stdout: stdout,
		stderr: stderr,
		logger: log.Component(logger, "dispatch"),
	}
}

// Dispatch classifies artifact and executes the result.
func (d *Dispatcher) Dispatch(ctx context.Context, artifact string) error {
	t, err := task.Classify(artifact)
	if err != nil {
		return err
	}
	return d.Execute(ctx, artifact, t)
}

// Execute runs the workflow for t. artifact is the path exactly as it was
// given, and is what the tools receive.
func (d *Dispatcher) Execute(ctx context.Context, artifact string, t task.Task) error {
	d.logger.Info("dispatching artifact", "artifact", artifact, "task", t.Kind.String())

	switch t.Kind {
	case task.KindTest:
		return d.runTests(ctx, artifact)
	case task.KindRun:
		return d.runServe(ctx, artifact, t.OutDir, t.Wasm)
	default:
		return fmt.Errorf("unsupported task kind %q", t.Kind)
	}
}

func (d *Dispatcher) runTests(ctx context.Context, artifact string) error {
	return d.invoke(ctx, d.cfg.Tools.TestRunner, artifact)
}

func (d *Dispatcher) runServe(ctx context.Context, artifact, outDir, wasm string) error {
	bindings := BindingsDir(outDir, d.cfg.Bindings.Dir)

	args := append([]string{artifact, "--out-dir", bindings}, d.cfg.Bindings.Flags...)
	if err := d.invoke(ctx, d.cfg.Tools.Bindgen, args...); err != nil {
		return err
	}

	path, sum, err := page.Write(bindings, wasm)
	if err != nil {
		return err
	}
	d.logger.Debug("wrote page", "path", path, "blake3", sum)

	if _, err := fmt.Fprintf(d.stdout, "Running at %s\n", d.cfg.Serve.URL); err != nil {
		return fmt.Errorf("announce url: %w", err)
	}

	return d.invoke(ctx, d.cfg.Tools.Server, bindings)
}

// invoke runs one tool and relays its output. Only a failure to run the tool
// or to relay its output is an error; a non-zero exit status is logged at
// INFO so the default level leaves test output untouched.
func (d *Dispatcher) invoke(ctx context.Context, tool string, args ...string) error {
	toolLogger := d.logger.With("tool", tool)

	out, err := d.runner.Run(ctx, tool, args...)
	if err != nil {
		toolLogger.Error("tool failed to run", "error", err)
		return fmt.Errorf("failed to run %s: %w", tool, err)
	}

	if err := toolchain.Relay(out, d.stdout, d.stderr); err != nil {
		return fmt.Errorf("%s: %w", tool, err)
	}

	if !out.Success() {
		toolLogger.Info("tool exited with non-zero status", "exit_code", out.ExitCode)
	} else {
		toolLogger.Debug("tool completed")
	}
	return nil
}

// BindingsDir returns the directory wasm-bindgen output is written to for an
// artifact in outDir.
func BindingsDir(outDir, name string) string {
	return filepath.Join(outDir, name)
}
