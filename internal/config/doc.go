// Package config loads, validates, and normalizes vidmill configuration.
//
// Configuration lives in a TOML file (default ~/.config/vidmill/config.toml,
// with ./vidmill.toml as a project-local fallback). Load applies defaults for
// every absent field, expands ~ in path values, and validates the result so
// the rest of the repository can treat a *Config as trusted input.
package config
