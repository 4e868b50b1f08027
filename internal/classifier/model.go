// Package classifier trains and serves the primary transaction classifier:
// TF-IDF features over the combined description and merchant text fed to a
// random forest.
package classifier

import (
	"sort"
	"time"

	"intellifinance/fincat/internal/features"
	"intellifinance/fincat/internal/forest"
	"intellifinance/fincat/internal/models"
)

// Model is a trained primary classifier. A Model is immutable once built and
// safe for concurrent use. The nil *Model behaves as an untrained model.
type Model struct {
	vectorizer *features.Vectorizer
	forest     *forest.Forest
	classes    []models.Category
	trainedAt  time.Time
}

// FeatureWeight pairs a vocabulary term with its importance.
type FeatureWeight struct {
	Term       string  `json:"term" yaml:"term"`
	Importance float64 `json:"importance" yaml:"importance"`
}

// IsTrained reports whether m can make predictions.
func (m *Model) IsTrained() bool {
	return m != nil && m.forest != nil && m.vectorizer != nil && m.vectorizer.IsFitted()
}

// TrainedAt returns when the model was fitted.
func (m *Model) TrainedAt() time.Time {
	if m == nil {
		return time.Time{}
	}
	return m.trainedAt
}

// Categories returns the classes the model can predict.
func (m *Model) Categories() []models.Category {
	if m == nil {
		return nil
	}
	return append([]models.Category(nil), m.classes...)
}

// VocabularySize returns the number of features.
func (m *Model) VocabularySize() int {
	if !m.IsTrained() {
		return 0
	}
	return m.vectorizer.Size()
}

// Predict returns the most probable category and its probability. An
// untrained model, or any internal failure, yields UNCATEGORIZED with zero
// confidence.
func (m *Model) Predict(rec models.TransactionRecord) (result models.ClassificationResult) {
	if !m.IsTrained() {
		return models.Uncategorized()
	}
	defer func() {
		if r := recover(); r != nil {
			result = models.Uncategorized()
		}
	}()

	vec, err := m.vectorizer.Transform(features.Preprocess(rec.Description, rec.MerchantName))
	if err != nil {
		return models.Uncategorized()
	}
	class, p, err := m.forest.Predict(vec)
	if err != nil || class >= len(m.classes) {
		return models.Uncategorized()
	}
	return models.ClassificationResult{Category: m.classes[class], Confidence: p}
}

// PredictBatch predicts each record independently.
func (m *Model) PredictBatch(recs []models.TransactionRecord) []models.ClassificationResult {
	out := make([]models.ClassificationResult, len(recs))
	for i, rec := range recs {
		out[i] = m.Predict(rec)
	}
	return out
}

// FeatureImportance returns the topN most influential terms, highest first.
// topN <= 0 returns every term with non-zero importance.
func (m *Model) FeatureImportance(topN int) []FeatureWeight {
	if !m.IsTrained() {
		return nil
	}
	var out []FeatureWeight
	for i, imp := range m.forest.Importances {
		if imp > 0 {
			out = append(out, FeatureWeight{Term: m.vectorizer.Term(i), Importance: imp})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Importance != out[j].Importance {
			return out[i].Importance > out[j].Importance
		}
		return out[i].Term < out[j].Term
	})
	if topN > 0 && len(out) > topN {
		out = out[:topN]
	}
	return out
}
