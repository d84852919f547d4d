package models

import "errors"

// Package-level error variables for unified error handling
var (
	// ErrJobNotFound indicates the sync job does not exist
	ErrJobNotFound = errors.New("sync job not found")

	// ErrJobInactive indicates the sync job is deactivated
	ErrJobInactive = errors.New("sync job is inactive")

	// ErrJobAlreadyRunning indicates a run for this job is in flight
	ErrJobAlreadyRunning = errors.New("sync job already running")

	// ErrDuplicateSource indicates the data source id is already registered
	ErrDuplicateSource = errors.New("data source already registered")

	// ErrSourceNotFound indicates the data source does not exist
	ErrSourceNotFound = errors.New("data source not found")

	// ErrSourceDisabled indicates the data source is deactivated
	ErrSourceDisabled = errors.New("data source is disabled")

	// ErrUnsupportedSourceType indicates no adapter exists for the source type
	ErrUnsupportedSourceType = errors.New("unsupported data source type")

	// ErrConflictNotFound indicates the sync conflict does not exist
	ErrConflictNotFound = errors.New("sync conflict not found")

	// ErrInvalidJobConfig indicates a job definition failed validation
	ErrInvalidJobConfig = errors.New("invalid sync job configuration")
)
