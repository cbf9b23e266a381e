package main

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/wasm-bindgen-runner/internal/log"
)

func TestMain(m *testing.M) {
	log.Setup("ERROR") // Suppress logs in tests
	os.Exit(m.Run())
}

func captureOutputWithExitCode(t *testing.T, run func() int) (int, string, string) {
	t.Helper()

	oldStdout := os.Stdout
	oldStderr := os.Stderr

	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe stdout failed: %v", err)
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe stderr failed: %v", err)
	}

	os.Stdout = stdoutW
	os.Stderr = stderrW

	code := run()

	_ = stdoutW.Close()
	_ = stderrW.Close()
	os.Stdout = oldStdout
	os.Stderr = oldStderr

	stdoutBytes, _ := io.ReadAll(stdoutR)
	stderrBytes, _ := io.ReadAll(stderrR)

	_ = stdoutR.Close()
	_ = stderrR.Close()

	return code, string(stdoutBytes), string(stderrBytes)
}

func captureRunCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	return captureOutputWithExitCode(t, func() int {
		return runCLI(args)
	})
}

// isolate moves the test into an empty working directory and home so no
// real config file is picked up.
func isolate(t *testing.T) string {
	t.Helper()
	work := t.TempDir()
	chdir(t, work)
	t.Setenv("HOME", t.TempDir())
	return work
}

// chdir is a Go 1.21-compatible equivalent of testing.T.Chdir (Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("failed to chdir: %v", err)
	}
	t.Setenv("PWD", dir)
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("failed to restore working directory: %v", err)
		}
	})
}

func writeTool(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("failed to write tool: %v", err)
	}
	return path
}

func writeConfig(t *testing.T, dir string, tools map[string]string) {
	t.Helper()
	var b strings.Builder
	b.WriteString("log_level: error\ntools:\n")
	for k, v := range tools {
		b.WriteString("  " + k + ": " + v + "\n")
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wasm-bindgen-runner.yaml"), []byte(b.String()), 0o644))
}

func setVersionMetadataForTest(t *testing.T, v, commit, built string) {
	t.Helper()

	origVersion := version
	origCommit := gitCommit
	origBuildDate := buildDate

	version = v
	gitCommit = commit
	buildDate = built

	t.Cleanup(func() {
		version = origVersion
		gitCommit = origCommit
		buildDate = origBuildDate
	})
}

func TestRunCLINoArgs(t *testing.T) {
	code, stdout, stderr := captureRunCLI(t)
	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "Usage:")
}

func TestRunCLIHelp(t *testing.T) {
	for _, arg := range []string{"help", "--help", "-h"} {
		code, stdout, _ := captureRunCLI(t, arg)
		assert.Equal(t, 0, code, arg)
		assert.Contains(t, stdout, "wasm-bindgen-runner <artifact.wasm>", arg)
	}
}

func TestRunVersionJSON(t *testing.T) {
	setVersionMetadataForTest(t, "1.2.3", "0123456789abcdef", "2026-01-02T03:04:05+02:00")

	code, stdout, _ := captureRunCLI(t, "version", "--json")
	require.Equal(t, 0, code)

	var info versionInfo
	require.NoError(t, json.Unmarshal([]byte(stdout), &info))
	assert.Equal(t, versionInfo{Version: "1.2.3", Commit: "0123456789ab", BuildTime: "2026-01-02T01:04:05Z"}, info)
}

func TestRunVersionText(t *testing.T) {
	setVersionMetadataForTest(t, "1.2.3", "abc", "unknown")

	code, stdout, _ := captureRunCLI(t, "--version")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "wasm-bindgen-runner 1.2.3\n")
	assert.Contains(t, stdout, "commit: abc\n")
}

func TestRunVersionRejectsArgs(t *testing.T) {
	code, _, stderr := captureRunCLI(t, "version", "extra")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Usage: wasm-bindgen-runner version")
}

func TestRunArtifactBareFileNameFails(t *testing.T) {
	isolate(t)

	code, stdout, stderr := captureRunCLI(t, "libweb.wasm")
	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "Error: artifact path has no named parent directory")
}

func TestRunArtifactInvalidConfigFails(t *testing.T) {
	work := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(work, "wasm-bindgen-runner.yaml"), []byte("bogus: true\n"), 0o644))

	code, _, stderr := captureRunCLI(t, "target/debug/libweb.wasm")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Error:")
	assert.Contains(t, stderr, "bogus")
}

func TestRunArtifactTestRelaysOutput(t *testing.T) {
	work := isolate(t)
	runner := writeTool(t, t.TempDir(), "test-runner", `echo "ran $1 ($#)"
echo "test diagnostics" >&2
exit 1
`)
	writeConfig(t, work, map[string]string{"test_runner": runner})

	artifact := "target/wasm32-unknown-unknown/debug/deps/libweb-1234.wasm"
	code, stdout, stderr := captureRunCLI(t, artifact, "--nocapture")

	assert.Equal(t, 0, code, "tool exit status is not propagated")
	assert.Equal(t, "ran "+artifact+" (1)\n", stdout)
	assert.Equal(t, "test diagnostics\n", stderr)
}

func TestRunArtifactMissingToolFails(t *testing.T) {
	work := isolate(t)
	writeConfig(t, work, map[string]string{"test_runner": filepath.Join(work, "missing-runner")})

	code, _, stderr := captureRunCLI(t, "target/debug/deps/libweb.wasm")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Error: failed to run")
	assert.Contains(t, stderr, "missing-runner")
}

func TestRunArtifactServe(t *testing.T) {
	work := isolate(t)
	bin := t.TempDir()
	bindgen := writeTool(t, bin, "bindgen", `mkdir -p "$3"
echo "bindgen $*"
`)
	server := writeTool(t, bin, "server", `echo "serve $1"`)
	writeConfig(t, work, map[string]string{"bindgen": bindgen, "server": server})

	outDir := filepath.Join("target", "wasm32-unknown-unknown", "debug")
	artifact := filepath.Join(outDir, "libweb.wasm")
	bindings := filepath.Join(outDir, "wasm-bindgen")

	code, stdout, stderr := captureRunCLI(t, artifact)
	require.Equal(t, 0, code, stderr)

	assert.Equal(t,
		"bindgen "+artifact+" --out-dir "+bindings+" --no-typescript --no-modules --browser\n"+
			"Running at http://127.0.0.1:4000\n"+
			"serve "+bindings+"\n",
		stdout)

	html, err := os.ReadFile(filepath.Join(work, bindings, "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(html), "window.wasm_bindgen(`libweb_bg.wasm`)")
}

func TestRunDoctor(t *testing.T) {
	work := isolate(t)
	bin := t.TempDir()
	writeConfig(t, work, map[string]string{
		"bindgen":     writeTool(t, bin, "bindgen", "true\n"),
		"test_runner": writeTool(t, bin, "runner", "true\n"),
		"server":      writeTool(t, bin, "server", "true\n"),
	})

	code, stdout, _ := captureRunCLI(t, "doctor")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "config: "+filepath.Join(work, "wasm-bindgen-runner.yaml"))
	assert.Contains(t, stdout, "Ready.")
}

func TestRunDoctorMissingTools(t *testing.T) {
	work := isolate(t)
	writeConfig(t, work, map[string]string{
		"bindgen":     filepath.Join(work, "nope-bindgen"),
		"test_runner": filepath.Join(work, "nope-runner"),
		"server":      filepath.Join(work, "nope-server"),
	})

	code, stdout, _ := captureRunCLI(t, "doctor", "--json")
	assert.Equal(t, 1, code)

	var result struct {
		Valid  bool `json:"valid"`
		Errors []struct {
			Category string `json:"category"`
		} `json:"errors"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &result))
	assert.False(t, result.Valid)
	assert.Len(t, result.Errors, 3)
}
