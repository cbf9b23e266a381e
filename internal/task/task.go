// Package task classifies a compiled wasm artifact path into the workflow that
// should handle it: the wasm-bindgen test runner, or a local run loop.
package task

import (
	"fmt"
	"os"
	"strings"
)

// DepsDir is the directory name cargo uses for per-dependency outputs. Test
// harness binaries are linked there, which is what marks an artifact as a test.
const DepsDir = "deps"

// Kind identifies a classification variant.
type Kind int

const (
	KindUnknown Kind = iota
	KindTest
	KindRun
)

func (k Kind) String() string {
	switch k {
	case KindTest:
		return "test"
	case KindRun:
		return "run"
	default:
		return "unknown"
	}
}

// Task is the result of classifying an artifact path.
// OutDir and Wasm are only set for KindRun.
type Task struct {
	Kind   Kind
	OutDir string
	Wasm   string
}

// Test returns the test classification.
func Test() Task { return Task{Kind: KindTest} }

// Run returns a run classification for the given output directory and stem.
func Run(outDir, wasm string) Task {
	return Task{Kind: KindRun, OutDir: outDir, Wasm: wasm}
}

func (t Task) String() string {
	if t.Kind == KindRun {
		return fmt.Sprintf("run{out_dir=%s wasm=%s}", t.OutDir, t.Wasm)
	}
	return t.Kind.String()
}

// Classify decides how the artifact at path is handled.
//
// An artifact whose parent directory is named exactly "deps" is a test
// artifact. Anything else is run, with OutDir set to the parent directory and
// Wasm set to the file stem. The comparison is byte-exact.
func Classify(path string) (Task, error) {
	p := trimCurDirSuffix(path)

	stem, ok := fileStem(p)
	if !ok {
		return Task{}, fmt.Errorf("%w: %q", ErrNoFileStem, path)
	}

	dir, ok := parentDir(p)
	if !ok {
		return Task{}, fmt.Errorf("%w: %q", ErrNoParent, path)
	}

	if baseName(dir) == DepsDir {
		return Test(), nil
	}
	return Run(dir, stem), nil
}

// fileStem returns the final element of p without its last extension. A
// leading dot does not start an extension, so ".hidden" is its own stem.
func fileStem(p string) (string, bool) {
	name := baseName(p)
	if name == "" || name == "." || name == ".." {
		return "", false
	}
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		return name[:i], true
	}
	return name, true
}

// parentDir returns the directory holding the final element of p. It fails
// when there is no directory part, or when the directory has no nameable
// final component (filesystem root, ".", "..").
func parentDir(p string) (string, bool) {
	i := lastSeparator(p)
	if i < 0 {
		return "", false
	}
	dir := trimCurDirSuffix(p[:i])
	if dir == "" || isAllSeparators(dir) {
		return "", false
	}
	switch baseName(dir) {
	case "", ".", "..":
		return "", false
	}
	return dir, true
}

func baseName(p string) string {
	return p[lastSeparator(p)+1:]
}

func lastSeparator(p string) int {
	for i := len(p) - 1; i >= 0; i-- {
		if os.IsPathSeparator(p[i]) {
			return i
		}
	}
	return -1
}

func trimTrailingSeparators(p string) string {
	for len(p) > 1 && os.IsPathSeparator(p[len(p)-1]) {
		p = p[:len(p)-1]
	}
	return p
}

// trimCurDirSuffix drops trailing separators and trailing "." elements, so
// "out/web.wasm/." and "deps/./" name the same thing as "out/web.wasm" and
// "deps". A "." that is the whole path, or its first element, is kept.
func trimCurDirSuffix(p string) string {
	for {
		p = trimTrailingSeparators(p)
		i := lastSeparator(p)
		if i < 0 || p[i+1:] != "." {
			return p
		}
		if i == 0 {
			return p[:1]
		}
		p = p[:i]
	}
}

func isAllSeparators(p string) bool {
	for i := 0; i < len(p); i++ {
		if !os.IsPathSeparator(p[i]) {
			return false
		}
	}
	return true
}
