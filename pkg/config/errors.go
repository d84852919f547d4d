package config

import "errors"

// Package-level error variables for unified error handling
var (
	// ErrConfigNotFound indicates the config file could not be read
	ErrConfigNotFound = errors.New("config file not found")

	// ErrInvalidFormat indicates the config file could not be parsed
	ErrInvalidFormat = errors.New("invalid config format")
)
