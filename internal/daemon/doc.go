// Package daemon binds the scan loop and the reporting API into a single
// lifecycle with flock-based locking to prevent multiple instances from
// converting the same tree.
//
// The HTTP API is strictly read-only. It reports from the status document
// and the history store; it never triggers conversions, so a crashed or
// absent API consumer can never affect the engine.
package daemon
