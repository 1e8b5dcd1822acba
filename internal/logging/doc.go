// Package logging constructs the slog loggers used across vidmill.
//
// It provides a compact console handler for interactive use, a JSON handler
// for machine consumption, attribute helpers, and the standardized field keys
// (component, event_type, error_hint, impact) that keep warnings actionable.
package logging
