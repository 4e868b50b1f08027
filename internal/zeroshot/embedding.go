// Package zeroshot implements zero-shot transaction classifiers backed by a
// language model: one compares embeddings, the other asks a text model
// directly.
package zeroshot

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"intellifinance/fincat/internal/logging"
	"intellifinance/fincat/internal/models"
)

// DefaultSoftmaxTemperature sharpens cosine similarities into a
// distribution. Embedding similarities cluster in a narrow band, so a small
// temperature is needed for the top label to stand out.
const DefaultSoftmaxTemperature = 0.05

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// EmbeddingClassifier scores candidate labels by cosine similarity between
// their embeddings and the text's embedding. Label embeddings are cached.
type EmbeddingClassifier struct {
	embedder    Embedder
	temperature float64
	logger      logging.Logger

	mu     sync.RWMutex
	labels map[string][]float32
}

// NewEmbeddingClassifier creates a classifier and embeds the given labels up
// front so that construction surfaces connectivity problems.
func NewEmbeddingClassifier(ctx context.Context, embedder Embedder, labels []string, temperature float64, logger logging.Logger) (*EmbeddingClassifier, error) {
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if temperature <= 0 {
		temperature = DefaultSoftmaxTemperature
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	c := &EmbeddingClassifier{
		embedder:    embedder,
		temperature: temperature,
		logger:      logger,
		labels:      make(map[string][]float32),
	}

	logger.Info("Initializing label embeddings...", logging.F(logging.FieldCount, len(labels)))
	for _, label := range labels {
		if _, err := c.labelVector(ctx, label); err != nil {
			return nil, err
		}
	}
	logger.Info("Label embeddings initialized", logging.F(logging.FieldCount, len(labels)))
	return c, nil
}

func (c *EmbeddingClassifier) labelVector(ctx context.Context, label string) ([]float32, error) {
	c.mu.RLock()
	vec, ok := c.labels[label]
	c.mu.RUnlock()
	if ok {
		return vec, nil
	}

	vec, err := c.embedder.Embed(ctx, label)
	if err != nil {
		return nil, fmt.Errorf("failed to embed label %q: %w", label, err)
	}
	c.mu.Lock()
	c.labels[label] = vec
	c.mu.Unlock()
	return vec, nil
}

// Classify returns the label most similar to text with its softmax
// probability.
func (c *EmbeddingClassifier) Classify(ctx context.Context, text string, labels []string) (models.ZeroShotResult, error) {
	if len(labels) == 0 {
		return models.ZeroShotResult{}, errors.New("no candidate labels")
	}
	textVec, err := c.embedder.Embed(ctx, text)
	if err != nil {
		return models.ZeroShotResult{}, fmt.Errorf("failed to embed text: %w", err)
	}

	scores := make([]float64, len(labels))
	for i, label := range labels {
		vec, err := c.labelVector(ctx, label)
		if err != nil {
			return models.ZeroShotResult{}, err
		}
		scores[i] = cosineSimilarity(textVec, vec) / c.temperature
	}

	probs := softmax(scores)
	best := 0
	for i := range probs {
		if probs[i] > probs[best] {
			best = i
		}
	}
	c.logger.Debug("Zero-shot embedding match",
		logging.F("label", labels[best]),
		logging.F(logging.FieldConfidence, probs[best]))
	return models.ZeroShotResult{Label: labels[best], Score: probs[best]}, nil
}

// cosineSimilarity calculates the cosine similarity between two vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func softmax(xs []float64) []float64 {
	maxX := math.Inf(-1)
	for _, x := range xs {
		if x > maxX {
			maxX = x
		}
	}
	out := make([]float64, len(xs))
	var sum float64
	for i, x := range xs {
		out[i] = math.Exp(x - maxX)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
