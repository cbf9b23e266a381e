package config

// Config represents the complete wasm-bindgen-runner configuration.
type Config struct {
	LogLevel string         `yaml:"log_level"`
	Tools    ToolsConfig    `yaml:"tools"`
	Bindings BindingsConfig `yaml:"bindings"`
	Serve    ServeConfig    `yaml:"serve"`

	// SourceFile is the file the config was loaded from, empty for defaults.
	SourceFile string `yaml:"-"`
}

// ToolsConfig names the external executables. Bare names are resolved on PATH.
type ToolsConfig struct {
	Bindgen    string `yaml:"bindgen"`
	TestRunner string `yaml:"test_runner"`
	Server     string `yaml:"server"`
}

// BindingsConfig controls bindings generation for run artifacts.
type BindingsConfig struct {
	// Dir is the folder created under the artifact's directory for generated output.
	Dir   string   `yaml:"dir"`
	Flags []string `yaml:"flags"`
}

// ServeConfig describes the static server that hosts the bindings directory.
type ServeConfig struct {
	// URL is announced before the server starts. The server binds on its own.
	URL string `yaml:"url"`
}

// Tool is one configured executable and the config key that names it.
type Tool struct {
	Field string
	Name  string
}

// List returns the configured tools keyed by their config field.
func (t ToolsConfig) List() []Tool {
	return []Tool{
		{Field: "tools.bindgen", Name: t.Bindgen},
		{Field: "tools.test_runner", Name: t.TestRunner},
		{Field: "tools.server", Name: t.Server},
	}
}
