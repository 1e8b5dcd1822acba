// Package status owns the conversion status document.
//
// A single Publisher is the only writer: every mutation persists the document
// with an atomic replace so independent readers (the reporting endpoint, the
// CLI, anything watching the output mount) can read it at any moment without
// coordination. Readers tolerate an absent or torn document by treating it as
// the idle default; persistence failures are logged and never interrupt a
// conversion.
package status
