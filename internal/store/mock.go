package store

import (
	"context"
	"fmt"
	"sync"

	"intellifinance/fincat/internal/classifier"
	"intellifinance/fincat/internal/models"
)

// MockStore is an in-memory model slot and feedback store for tests.
type MockStore struct {
	mu       sync.Mutex
	artifact *classifier.Artifact
	feedback []models.LabeledTransaction

	// Error flags for testing error conditions
	SaveError        error
	LoadError        error
	AddFeedbackError error

	Saves int
}

// Location implements the model store contract.
func (m *MockStore) Location() string {
	return "memory"
}

// Save records a as the current artifact.
func (m *MockStore) Save(_ context.Context, a *classifier.Artifact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Saves++
	if m.SaveError != nil {
		return &ArtifactWriteError{Location: "memory", Err: m.SaveError}
	}
	m.artifact = a
	return nil
}

// Load returns the current artifact.
func (m *MockStore) Load(_ context.Context) (*classifier.Artifact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadError != nil {
		return nil, m.LoadError
	}
	if m.artifact == nil {
		return nil, ErrArtifactNotFound
	}
	return m.artifact, nil
}

// Artifact returns the last saved artifact.
func (m *MockStore) Artifact() *classifier.Artifact {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.artifact
}

// AddFeedback appends lt.
func (m *MockStore) AddFeedback(_ context.Context, lt models.LabeledTransaction) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AddFeedbackError != nil {
		return "", m.AddFeedbackError
	}
	m.feedback = append(m.feedback, lt)
	return fmt.Sprintf("fb-%d", len(m.feedback)), nil
}

// AllFeedback returns a copy of the stored feedback.
func (m *MockStore) AllFeedback(_ context.Context) ([]models.LabeledTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.LabeledTransaction(nil), m.feedback...), nil
}

// CountFeedback returns the number of stored corrections.
func (m *MockStore) CountFeedback(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.feedback), nil
}
