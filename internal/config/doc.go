// Package config loads, normalizes, and validates triage engine
// configuration.
//
// It supplies repository defaults, expands tilde paths, reads TOML files, and
// honours the TRIAGE_BASE_DIR environment fallback for the storage root. The
// Config type centralizes every knob the CLI and engine need: storage and log
// directories, dispatcher sizing, the retry budget, and run-mode strictness.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths and clear validation errors.
package config
