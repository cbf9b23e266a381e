package config

import (
	"os"
	"path/filepath"
)

const (
	// LocalFileName is looked up in the working directory, which for a cargo
	// runner is the crate being built.
	LocalFileName = "wasm-bindgen-runner.yaml"

	userConfigDirName  = "wasm-bindgen-runner"
	userConfigFileName = "config.yaml"
)

// SearchPaths returns candidate config files in priority order.
// Priority order: ./wasm-bindgen-runner.yaml, ~/.config/wasm-bindgen-runner/config.yaml
func SearchPaths(workDir, homeDir string) []string {
	var paths []string
	if workDir != "" {
		paths = append(paths, filepath.Join(workDir, LocalFileName))
	}
	if homeDir != "" {
		paths = append(paths, filepath.Join(homeDir, ".config", userConfigDirName, userConfigFileName))
	}
	return paths
}

// Discover returns the first existing config file among SearchPaths, or ""
// when none exists.
func Discover(workDir, homeDir string) string {
	for _, path := range SearchPaths(workDir, homeDir) {
		if fileExists(path) {
			return path
		}
	}
	return ""
}

// LoadDiscovered loads the discovered config file, falling back to Defaults.
func LoadDiscovered(workDir, homeDir string) (*Config, error) {
	path := Discover(workDir, homeDir)
	if path == "" {
		return Defaults(), nil
	}
	return Load(path)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
