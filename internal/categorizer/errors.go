package categorizer

import (
	"errors"
	"fmt"

	"intellifinance/fincat/internal/classifier"
	"intellifinance/fincat/internal/store"
)

type (
	// InsufficientDataError is returned by Train for corpora under the minimum size.
	InsufficientDataError = classifier.InsufficientDataError
	// CorruptArtifactError reports an unreadable persisted model.
	CorruptArtifactError = store.CorruptArtifactError
	// ArtifactWriteError reports a failed model save.
	ArtifactWriteError = store.ArtifactWriteError
)

var (
	// ErrArtifactNotFound is returned when no model has been persisted yet.
	ErrArtifactNotFound = store.ErrArtifactNotFound
	// ErrNoFeedbackStore is returned by feedback operations when none is configured.
	ErrNoFeedbackStore = errors.New("no feedback store configured")
	// ErrInvalidFeedback is returned for corrections without text or with an unknown category.
	ErrInvalidFeedback = errors.New("invalid feedback")
)

// FallbackUnavailableError reports that the zero-shot classifier could not be
// constructed. It is absorbed by Categorize and only surfaces in logs and
// decisions.
type FallbackUnavailableError struct {
	Provider string
	Err      error
}

// Error implements the error interface.
func (e *FallbackUnavailableError) Error() string {
	if e.Provider == "" {
		return fmt.Sprintf("fallback classifier unavailable: %v", e.Err)
	}
	return fmt.Sprintf("fallback classifier %s unavailable: %v", e.Provider, e.Err)
}

// Unwrap returns the underlying error.
func (e *FallbackUnavailableError) Unwrap() error {
	return e.Err
}
