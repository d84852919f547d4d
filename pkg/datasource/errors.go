package datasource

import (
	"errors"
	"fmt"
)

// Package-level error variables for unified error handling
var (
	// ErrReadNotSupported indicates the source type cannot be read from
	ErrReadNotSupported = errors.New("source type does not support reads")

	// ErrWriteNotSupported indicates the source type cannot be written to
	ErrWriteNotSupported = errors.New("source type does not support writes")
)

// ReadError wraps a transport or storage failure while reading from a
// source. It surfaces as a system-level failure in the executor.
type ReadError struct {
	SourceID string
	Err      error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read from source %s failed: %v", e.SourceID, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// WriteError wraps a transport or storage failure while writing one
// record into a target.
type WriteError struct {
	TargetID string
	Err      error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write to target %s failed: %v", e.TargetID, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
