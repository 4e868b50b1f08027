package categorizer

import (
	"context"

	"intellifinance/fincat/internal/classifier"
	"intellifinance/fincat/internal/models"
)

// ModelStore is the single-slot persistence for the trained model.
type ModelStore interface {
	Save(ctx context.Context, a *classifier.Artifact) error
	Load(ctx context.Context) (*classifier.Artifact, error)
	Location() string
}

// FeedbackStore accumulates labeled corrections for batch retraining.
type FeedbackStore interface {
	AddFeedback(ctx context.Context, lt models.LabeledTransaction) (string, error)
	AllFeedback(ctx context.Context) ([]models.LabeledTransaction, error)
	CountFeedback(ctx context.Context) (int, error)
}
