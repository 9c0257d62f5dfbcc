package ini

import "errors"

// Sentinel errors for configuration loading.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNoIdentifier is returned when Load is called without an identifier.
	ErrNoIdentifier = errors.New("ini: no configuration identifier")

	// ErrOpen is returned when the configuration file cannot be opened.
	ErrOpen = errors.New("ini: cannot open configuration file")

	// ErrRead is returned when the underlying stream fails mid-parse.
	ErrRead = errors.New("ini: read failed")

	// ErrTokenTooLong is returned when a single token exceeds MaxTokenSize.
	ErrTokenTooLong = errors.New("ini: token exceeds maximum size")
)
