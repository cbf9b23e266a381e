package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mattjoyce/wasm-bindgen-runner/internal/config"
	"github.com/mattjoyce/wasm-bindgen-runner/internal/dispatch"
	"github.com/mattjoyce/wasm-bindgen-runner/internal/doctor"
	"github.com/mattjoyce/wasm-bindgen-runner/internal/log"
	"github.com/mattjoyce/wasm-bindgen-runner/internal/toolchain"
)

var (
	version   = "0.1.0-dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	os.Exit(runCLI(os.Args[1:]))
}

func runCLI(cliArgs []string) int {
	if len(cliArgs) < 1 {
		printUsage(os.Stderr)
		return 1
	}

	cmd := cliArgs[0]
	args := cliArgs[1:]

	// A bare word never classifies (it has no parent directory), so these
	// cannot shadow an artifact path.
	switch cmd {
	case "doctor":
		return runDoctor(args)
	case "version", "--version":
		return runVersion(args)
	case "help", "--help", "-h":
		printUsage(os.Stdout)
		return 0
	}

	return runArtifact(cmd, args)
}

// runArtifact classifies the artifact and runs its workflow. Cargo appends
// harness arguments after the artifact; the tools are not given them.
func runArtifact(artifact string, extra []string) int {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	log.Setup(cfg.LogLevel)
	logger := log.WithRun(uuid.NewString())
	if cfg.SourceFile != "" {
		logger.Debug("loaded config", "path", cfg.SourceFile)
	}
	if len(extra) > 0 {
		logger.Debug("ignoring arguments after artifact", "args", extra)
	}

	disp := dispatch.New(toolchain.NewExecRunner(logger), cfg, os.Stdout, os.Stderr, logger)
	if err := disp.Dispatch(context.Background(), artifact); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func runDoctor(args []string) int {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "Output the report as JSON")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}
	if fs.NArg() > 0 {
		fmt.Fprintln(os.Stderr, "Usage: wasm-bindgen-runner doctor [--json]")
		return 1
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	result := doctor.New(cfg, exec.LookPath).Validate()

	if *jsonOut {
		out, err := doctor.FormatJSON(result)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to render report JSON: %v\n", err)
			return 1
		}
		fmt.Println(out)
	} else {
		if cfg.SourceFile != "" {
			fmt.Printf("config: %s\n", cfg.SourceFile)
		} else {
			fmt.Println("config: built-in defaults")
		}
		fmt.Print(doctor.FormatHuman(result))
	}

	if !result.Valid {
		return 1
	}
	return 0
}

// loadConfig reads the first config file found from the working directory or
// the user's config directory, or returns the defaults.
func loadConfig() (*config.Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return config.LoadDiscovered(wd, home)
}

type versionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

func runVersion(args []string) int {
	fs := flag.NewFlagSet("version", flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "Output version metadata as JSON")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}
	if fs.NArg() > 0 {
		fmt.Fprintln(os.Stderr, "Usage: wasm-bindgen-runner version [--json]")
		return 1
	}

	info := currentVersionInfo()

	if *jsonOut {
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to render version JSON: %v\n", err)
			return 1
		}
		fmt.Println(string(data))
		return 0
	}

	fmt.Printf("wasm-bindgen-runner %s\n", info.Version)
	fmt.Printf("commit: %s\n", info.Commit)
	fmt.Printf("built_at: %s\n", info.BuildTime)
	return 0
}

func currentVersionInfo() versionInfo {
	info := versionInfo{
		Version:   strings.TrimSpace(version),
		Commit:    "unknown",
		BuildTime: "unknown",
	}

	if info.Version == "" {
		info.Version = "0.0.0-dev"
	}

	resolvedCommit := strings.TrimSpace(gitCommit)
	if resolvedCommit == "" || resolvedCommit == "unknown" {
		resolvedCommit = strings.TrimSpace(readBuildSetting("vcs.revision"))
	}
	if resolvedCommit != "" {
		info.Commit = shortenCommit(resolvedCommit)
	}

	resolvedBuildTime := strings.TrimSpace(buildDate)
	if resolvedBuildTime == "" || resolvedBuildTime == "unknown" {
		resolvedBuildTime = strings.TrimSpace(readBuildSetting("vcs.time"))
	}
	if normalized, ok := normalizeBuildTimeUTC(resolvedBuildTime); ok {
		info.BuildTime = normalized
	}

	return info
}

func shortenCommit(commit string) string {
	if len(commit) <= 12 {
		return commit
	}
	return commit[:12]
}

func normalizeBuildTimeUTC(raw string) (string, bool) {
	if raw == "" || raw == "unknown" {
		return "", false
	}

	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return "", false
	}

	return t.UTC().Format(time.RFC3339), true
}

func readBuildSetting(key string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, setting := range info.Settings {
		if setting.Key == key {
			return setting.Value
		}
	}
	return ""
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `wasm-bindgen-runner - cargo runner for wasm32-unknown-unknown artifacts

Usage:
  wasm-bindgen-runner <artifact.wasm>

Artifacts under a "deps" directory are test harnesses and are passed to
wasm-bindgen-test-runner. Any other artifact is processed by wasm-bindgen
into <dir>/wasm-bindgen, given an index.html, and served with
basic-http-server.

Cargo setup (.cargo/config.toml):
  [target.wasm32-unknown-unknown]
  runner = "wasm-bindgen-runner"

Other Commands:
  doctor [--json]   Check configuration and that the tools are on PATH
  version [--json]  Show version information
  help              Show this help message

Configuration (optional, first found wins):
  ./wasm-bindgen-runner.yaml
  ~/.config/wasm-bindgen-runner/config.yaml
`)
}
