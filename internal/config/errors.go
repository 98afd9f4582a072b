package config

import "errors"

// Common errors returned by the config package.
var (
	// ErrInvalidConfig is returned when a configuration value is out of range.
	ErrInvalidConfig = errors.New("invalid configuration")
)
