// Package history persists finished conversion attempts in SQLite.
//
// The store is advisory: candidate selection is driven entirely by the
// filesystem, so losing or clearing the database never changes what gets
// converted. It exists for the reporting endpoint and the CLI, which show
// operators what ran, with which encoder, and how it ended.
package history
