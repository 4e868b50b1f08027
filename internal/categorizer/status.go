package categorizer

import (
	"time"

	"intellifinance/fincat/internal/classifier"
	"intellifinance/fincat/internal/models"
)

// Status summarizes the categorizer's models.
type Status struct {
	Trained          bool              `json:"trained"`
	TrainedAt        *time.Time        `json:"trained_at,omitempty"`
	Categories       []models.Category `json:"categories,omitempty"`
	VocabularySize   int               `json:"vocabulary_size"`
	ModelLocation    string            `json:"model_location,omitempty"`
	FallbackProvider string            `json:"fallback_provider,omitempty"`
	FallbackReady    bool              `json:"fallback_ready"`
}

// Status reports the current state without triggering any loading.
func (c *Categorizer) Status() Status {
	s := Status{
		Trained:          c.IsTrained(),
		FallbackProvider: c.fallback.provider,
		FallbackReady:    c.fallback.ready(),
	}
	if c.store != nil {
		s.ModelLocation = c.store.Location()
	}
	if model := c.currentModel(); model.IsTrained() {
		trainedAt := model.TrainedAt()
		s.TrainedAt = &trainedAt
		s.Categories = model.Categories()
		s.VocabularySize = model.VocabularySize()
	}
	return s
}

// FeatureImportance returns the topN most influential terms of the current
// model, or nil when untrained.
func (c *Categorizer) FeatureImportance(topN int) []classifier.FeatureWeight {
	return c.currentModel().FeatureImportance(topN)
}
