// Package sourcemgr provides use cases for managing event ingestion sources.
// It owns the authoritative registry of sources: lifecycle (active/inactive),
// scheduling state, and the error counters that drive the automatic
// circuit-breaker.
package sourcemgr

import "errors"

// Sentinel errors for source manager operations.
var (
	// ErrSourceNotFound indicates that the requested source was not found.
	ErrSourceNotFound = errors.New("source not found")

	// ErrDuplicateSource indicates that a source with the same name or base
	// URL already exists in the registry.
	ErrDuplicateSource = errors.New("source with this name or base URL already exists")
)
