// Package page renders the HTML shell that loads wasm-bindgen --no-modules
// output in a browser.
package page

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/zeebo/blake3"
)

// FileName is the name of the generated page inside the bindings directory.
const FileName = "index.html"

// The stem is inserted verbatim, including inside the backtick literal.
var tmpl = template.Must(template.New(FileName).Parse(`<!DOCTYPE html>
<html lang="en">
  <head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <title>wasm-bindgen-runner</title>
  </head>
  <body style="margin: 0; padding: 0; width: 100%; height: 100%;">
    <div id="rust-web-app" style="width: 100%; height: 100%;"></div>
    <script src="{{ .JS }}"></script>
    <script>window.wasm_bindgen(` + "`{{ .Wasm }}`" + `)</script>
  </body>
</html>
`))

type shell struct {
	JS   string
	Wasm string
}

// Render returns the page for the wasm stem. The output depends only on stem.
func Render(stem string) ([]byte, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, shell{
		JS:   stem + ".js",
		Wasm: stem + "_bg.wasm",
	}); err != nil {
		return nil, fmt.Errorf("render %s: %w", FileName, err)
	}
	return buf.Bytes(), nil
}

// Write renders the page for stem into dir/index.html, replacing any existing
// file, and returns the written path and content fingerprint.
func Write(dir, stem string) (string, string, error) {
	content, err := Render(stem)
	if err != nil {
		return "", "", err
	}

	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, Fingerprint(content), nil
}

// Fingerprint returns the hex BLAKE3 digest of content.
func Fingerprint(content []byte) string {
	sum := blake3.Sum256(content)
	return hex.EncodeToString(sum[:])
}
