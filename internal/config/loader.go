package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultLogLevel   = "warn"
	DefaultBindgen    = "wasm-bindgen"
	DefaultTestRunner = "wasm-bindgen-test-runner"
	DefaultServer     = "basic-http-server"
	DefaultBindingDir = "wasm-bindgen"
	DefaultServeURL   = "http://127.0.0.1:4000"
)

// DefaultBindgenFlags are passed to the bindings generator after --out-dir.
var DefaultBindgenFlags = []string{"--no-typescript", "--no-modules", "--browser"}

// Defaults returns the configuration used when no file is present.
func Defaults() *Config {
	return &Config{
		LogLevel: DefaultLogLevel,
		Tools: ToolsConfig{
			Bindgen:    DefaultBindgen,
			TestRunner: DefaultTestRunner,
			Server:     DefaultServer,
		},
		Bindings: BindingsConfig{
			Dir:   DefaultBindingDir,
			Flags: append([]string(nil), DefaultBindgenFlags...),
		},
		Serve: ServeConfig{URL: DefaultServeURL},
	}
}

// Load reads and validates a configuration file. Fields missing from the file
// keep their defaults.
func Load(configPath string) (*Config, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path %q: %w", configPath, err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", absPath, err)
	}
	cfg.SourceFile = absPath
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Defaults()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks a configuration for values that would break a run.
func Validate(cfg *Config) error {
	var errs []error

	for _, tool := range cfg.Tools.List() {
		if strings.TrimSpace(tool.Name) == "" {
			errs = append(errs, fmt.Errorf("%s is required", tool.Field))
		}
	}
	if err := validateBindingDir(cfg.Bindings.Dir); err != nil {
		errs = append(errs, err)
	}
	if strings.TrimSpace(cfg.Serve.URL) == "" {
		errs = append(errs, errors.New("serve.url is required"))
	}

	return errors.Join(errs...)
}

func validateBindingDir(dir string) error {
	switch {
	case strings.TrimSpace(dir) == "":
		return errors.New("bindings.dir is required")
	case dir == "." || dir == "..":
		return fmt.Errorf("bindings.dir %q must name a subdirectory", dir)
	case strings.ContainsAny(dir, `/\`):
		return fmt.Errorf("bindings.dir %q must be a single path segment", dir)
	}
	return nil
}
