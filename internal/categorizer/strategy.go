package categorizer

import (
	"context"
	"errors"
	"fmt"

	"intellifinance/fincat/internal/models"
)

// Confidence gates. A stage's answer is accepted only when its confidence is
// strictly greater than its threshold.
const (
	PrimaryThreshold  = 0.7
	FallbackThreshold = 0.5
)

// Source identifies which stage produced a decision.
type Source string

// Decision sources.
const (
	SourcePrimary  Source = "primary"
	SourceFallback Source = "fallback"
	SourceDefault  Source = "default"
)

// errPrimaryUntrained marks the primary stage as skipped rather than failed.
var errPrimaryUntrained = errors.New("primary classifier is not trained")

// Strategy is one stage of the decision chain.
type Strategy interface {
	// Classify returns the stage's best guess. Confidence gating is applied
	// by the caller using Threshold.
	Classify(ctx context.Context, rec models.TransactionRecord) (models.ClassificationResult, error)

	// Name returns the stage identifier recorded in decisions and logs.
	Name() Source

	// Threshold returns the exclusive confidence floor for accepting a result.
	Threshold() float64
}

// PrimaryClassifier is the trained model contract. *classifier.Model
// satisfies it.
type PrimaryClassifier interface {
	IsTrained() bool
	Predict(rec models.TransactionRecord) models.ClassificationResult
}

// ZeroShotClassifier picks the best label for text from an arbitrary set of
// candidate labels.
type ZeroShotClassifier interface {
	Classify(ctx context.Context, text string, labels []string) (models.ZeroShotResult, error)
}

// FallbackFactory builds the zero-shot classifier. It is called lazily on the
// first request that needs it.
type FallbackFactory func(ctx context.Context) (ZeroShotClassifier, error)

// primaryStrategy consults whichever model is currently published.
type primaryStrategy struct {
	c *Categorizer
}

func (s *primaryStrategy) Name() Source       { return SourcePrimary }
func (s *primaryStrategy) Threshold() float64 { return PrimaryThreshold }

func (s *primaryStrategy) Classify(_ context.Context, rec models.TransactionRecord) (models.ClassificationResult, error) {
	st := s.c.primary.Load()
	if st == nil || st.clf == nil || !st.clf.IsTrained() {
		return models.Uncategorized(), errPrimaryUntrained
	}
	return st.clf.Predict(rec), nil
}

// fallbackStrategy asks the zero-shot classifier and maps its label.
type fallbackStrategy struct {
	lazy *lazyFallback
}

func (s *fallbackStrategy) Name() Source       { return SourceFallback }
func (s *fallbackStrategy) Threshold() float64 { return FallbackThreshold }

func (s *fallbackStrategy) Classify(ctx context.Context, rec models.TransactionRecord) (models.ClassificationResult, error) {
	clf, err := s.lazy.get(ctx)
	if err != nil {
		return models.Uncategorized(), err
	}
	res, err := clf.Classify(ctx, FallbackText(rec.Description, rec.MerchantName), CandidateLabels)
	if err != nil {
		return models.Uncategorized(), fmt.Errorf("zero-shot classification failed: %w", err)
	}
	return models.ClassificationResult{Category: MapZeroShotLabel(res.Label), Confidence: res.Score}, nil
}
