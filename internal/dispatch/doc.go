// Package dispatch executes a classified wasm artifact by driving the external
// wasm-bindgen tools.
//
// A test artifact is handed to the test runner. A run artifact goes through
// bindings generation, the index.html shell write, a URL announcement, and the
// static server, strictly in that order.
//
// Execution model:
//   - Serial, one tool at a time
//   - Each tool runs to completion before its output is relayed
//   - Stdout/stderr are relayed byte-for-byte, not streamed
//   - No timeouts, no retries
//
// Error handling:
//   - Tool cannot be started → returned error, remaining steps skipped
//   - Page write fails → returned error, server not started
//   - Tool exits non-zero → output relayed, logged at WARN, execution continues
package dispatch
