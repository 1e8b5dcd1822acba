// Package workflow runs the periodic scan-and-convert loop.
//
// The manager owns the cadence: one pass immediately at startup, then one
// per scan interval. A pass scans the input tree, converts eligible
// candidates strictly one at a time in path order, and records each
// outcome. Failures are contained to their file; the loop itself only
// stops when the daemon shuts down.
package workflow
