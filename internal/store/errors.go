package store

import (
	"errors"
	"fmt"
)

// ErrArtifactNotFound is returned by Load when no artifact has been saved.
var ErrArtifactNotFound = errors.New("model artifact not found")

// CorruptArtifactError is returned by Load when a stored artifact exists but
// cannot be read or decoded into a consistent model.
type CorruptArtifactError struct {
	Location string
	Err      error
}

// Error implements the error interface.
func (e *CorruptArtifactError) Error() string {
	return fmt.Sprintf("corrupt model artifact at %s: %v", e.Location, e.Err)
}

// Unwrap returns the underlying error.
func (e *CorruptArtifactError) Unwrap() error {
	return e.Err
}

// ArtifactWriteError is returned when an artifact could not be persisted.
type ArtifactWriteError struct {
	Location string
	Err      error
}

// Error implements the error interface.
func (e *ArtifactWriteError) Error() string {
	return fmt.Sprintf("failed to write model artifact to %s: %v", e.Location, e.Err)
}

// Unwrap returns the underlying error.
func (e *ArtifactWriteError) Unwrap() error {
	return e.Err
}
