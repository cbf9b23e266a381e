// Package doctor checks that wasm-bindgen-runner can run on this machine.
package doctor

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mattjoyce/wasm-bindgen-runner/internal/config"
)

// Result holds the outcome of a validation run.
type Result struct {
	Valid    bool    `json:"valid"`
	Errors   []Issue `json:"errors,omitempty"`
	Warnings []Issue `json:"warnings,omitempty"`
}

// Issue describes a single validation error or warning.
type Issue struct {
	Category string `json:"category"`
	Message  string `json:"message"`
	Field    string `json:"field,omitempty"`
}

// LookPathFunc resolves an executable name, like exec.LookPath.
type LookPathFunc func(file string) (string, error)

// Doctor validates configuration and tool availability.
type Doctor struct {
	cfg      *config.Config
	lookPath LookPathFunc
}

// New creates a Doctor. lookPath is usually exec.LookPath.
func New(cfg *config.Config, lookPath LookPathFunc) *Doctor {
	return &Doctor{cfg: cfg, lookPath: lookPath}
}

// Validate runs all checks and returns a result.
func (d *Doctor) Validate() *Result {
	r := &Result{Valid: true}

	d.validateConfig(r)
	d.validateTools(r)
	d.warnServeURL(r)

	r.Valid = len(r.Errors) == 0
	return r
}

func (d *Doctor) addError(r *Result, category, field, msg string) {
	r.Errors = append(r.Errors, Issue{Category: category, Field: field, Message: msg})
}

func (d *Doctor) addWarning(r *Result, category, field, msg string) {
	r.Warnings = append(r.Warnings, Issue{Category: category, Field: field, Message: msg})
}

func (d *Doctor) validateConfig(r *Result) {
	if err := config.Validate(d.cfg); err != nil {
		for _, line := range strings.Split(err.Error(), "\n") {
			d.addError(r, "config", "", line)
		}
	}
}

// validateTools checks that every configured tool resolves to an executable.
func (d *Doctor) validateTools(r *Result) {
	for _, tool := range d.cfg.Tools.List() {
		if strings.TrimSpace(tool.Name) == "" {
			continue
		}
		if _, err := d.lookPath(tool.Name); err != nil {
			d.addError(r, "tools", tool.Field,
				fmt.Sprintf("%q not found: %v", tool.Name, err))
		}
	}
}

// warnServeURL flags an announced URL a browser could not open.
func (d *Doctor) warnServeURL(r *Result) {
	raw := d.cfg.Serve.URL
	if raw == "" {
		return
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		d.addWarning(r, "serve", "serve.url",
			fmt.Sprintf("%q is not an absolute http(s) URL", raw))
	}
}

var (
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00")).Bold(true)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")).Bold(true)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFF00")).Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
)

// FormatHuman returns a human-readable validation report.
func FormatHuman(r *Result) string {
	var b strings.Builder

	if r.Valid && len(r.Warnings) == 0 {
		b.WriteString(okStyle.Render("Ready.") + "\n")
		return b.String()
	}

	if r.Valid {
		fmt.Fprintf(&b, "%s (%d warning(s))\n", okStyle.Render("Ready"), len(r.Warnings))
	} else {
		fmt.Fprintf(&b, "%s (%d error(s), %d warning(s))\n",
			errorStyle.Render("Not ready"), len(r.Errors), len(r.Warnings))
	}

	for _, e := range r.Errors {
		writeIssue(&b, errorStyle.Render("ERROR"), e)
	}
	for _, w := range r.Warnings {
		writeIssue(&b, warnStyle.Render("WARN "), w)
	}

	return b.String()
}

func writeIssue(b *strings.Builder, label string, is Issue) {
	category := dimStyle.Render("[" + is.Category + "]")
	if is.Field != "" {
		fmt.Fprintf(b, "  %s %s %s: %s\n", label, category, is.Field, is.Message)
	} else {
		fmt.Fprintf(b, "  %s %s %s\n", label, category, is.Message)
	}
}

// FormatJSON returns the result as indented JSON.
func FormatJSON(r *Result) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
