package categorizer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"intellifinance/fincat/internal/classifier"
	"intellifinance/fincat/internal/logging"
	"intellifinance/fincat/internal/models"
)

// TrainOption adjusts a single training run.
type TrainOption func(*classifier.Options)

// WithProgress reports each fitted tree to fn.
func WithProgress(fn func()) TrainOption {
	return func(o *classifier.Options) {
		o.OnTreeFitted = fn
	}
}

// LoadResult describes the outcome of LoadPersisted. Err is nil on success,
// ErrArtifactNotFound when nothing was saved, and a *CorruptArtifactError
// when the saved artifact is unusable.
type LoadResult struct {
	Loaded   bool
	Location string
	Err      error
}

// LoadPersisted restores the saved model, if any. Failures leave the
// categorizer untrained and are reported in the result, never returned.
func (c *Categorizer) LoadPersisted(ctx context.Context) LoadResult {
	if c.store == nil {
		return LoadResult{Err: ErrArtifactNotFound}
	}
	c.trainMu.Lock()
	defer c.trainMu.Unlock()

	res := LoadResult{Location: c.store.Location()}
	a, err := c.store.Load(ctx)
	if err == nil {
		var model *classifier.Model
		model, err = classifier.FromArtifact(a)
		if err != nil {
			err = &CorruptArtifactError{Location: res.Location, Err: err}
		} else {
			c.publish(model)
			res.Loaded = true
			c.logger.Info("Loaded persisted model",
				logging.F(logging.FieldLocation, res.Location),
				logging.F(logging.FieldCount, model.VocabularySize()))
			return res
		}
	}

	var corrupt *CorruptArtifactError
	switch {
	case errors.Is(err, ErrArtifactNotFound):
		c.logger.Info("No persisted model, starting untrained",
			logging.F(logging.FieldLocation, res.Location))
		res.Err = ErrArtifactNotFound
	case errors.As(err, &corrupt):
		c.logger.WithError(err).Warn("Persisted model is unusable, starting untrained",
			logging.F(logging.FieldLocation, res.Location))
		res.Err = corrupt
	default:
		c.logger.WithError(err).Warn("Failed to load persisted model, starting untrained",
			logging.F(logging.FieldLocation, res.Location))
		res.Err = &CorruptArtifactError{Location: res.Location, Err: err}
	}
	return res
}

// Train fits a new primary model, publishes it and persists it. Only one
// training run is active at a time. A persistence failure is returned as an
// *ArtifactWriteError together with the report; the new model stays in use.
func (c *Categorizer) Train(ctx context.Context, examples []models.LabeledTransaction, opts ...TrainOption) (*classifier.TrainingReport, error) {
	c.trainMu.Lock()
	defer c.trainMu.Unlock()

	o := c.training
	o.Logger = c.logger
	for _, opt := range opts {
		opt(&o)
	}

	model, report, err := classifier.Train(ctx, examples, o)
	if err != nil {
		var insufficient *InsufficientDataError
		if errors.As(err, &insufficient) {
			c.logger.Info("Training rejected",
				logging.F(logging.FieldCount, insufficient.Have),
				logging.F(logging.FieldReason, err.Error()))
		} else {
			c.logger.WithError(err).Error("Training failed")
		}
		return nil, err
	}

	c.publish(model)
	if err := c.persist(ctx, model); err != nil {
		return report, err
	}
	return report, nil
}

// SaveModel persists the current model. It is a no-op when no trained model
// is published or no store is configured.
func (c *Categorizer) SaveModel(ctx context.Context) error {
	c.trainMu.Lock()
	defer c.trainMu.Unlock()

	model := c.currentModel()
	if !model.IsTrained() {
		c.logger.Debug("No trained model to save")
		return nil
	}
	return c.persist(ctx, model)
}

func (c *Categorizer) persist(ctx context.Context, model *classifier.Model) error {
	if c.store == nil {
		return nil
	}
	a := model.Artifact()
	if a == nil {
		return nil
	}
	start := time.Now()
	if err := c.store.Save(ctx, a); err != nil {
		var writeErr *ArtifactWriteError
		if !errors.As(err, &writeErr) {
			writeErr = &ArtifactWriteError{Location: c.store.Location(), Err: err}
		}
		c.logger.WithError(err).Warn("Failed to persist model",
			logging.F(logging.FieldLocation, c.store.Location()))
		return writeErr
	}
	c.logger.Info("Model persisted",
		logging.F(logging.FieldLocation, c.store.Location()),
		logging.F(logging.FieldDuration, time.Since(start).String()))
	return nil
}

// RecordFeedback stores a user correction for the next batch retrain.
func (c *Categorizer) RecordFeedback(ctx context.Context, lt models.LabeledTransaction) (string, error) {
	if c.feedback == nil {
		return "", ErrNoFeedbackStore
	}
	if lt.IsBlank() {
		return "", fmt.Errorf("%w: transaction has no description or merchant", ErrInvalidFeedback)
	}
	category, ok := models.ParseCategory(string(lt.Category))
	if !ok {
		return "", fmt.Errorf("%w: unknown category %q", ErrInvalidFeedback, lt.Category)
	}
	lt.Category = category
	lt.Description = strings.TrimSpace(lt.Description)
	lt.MerchantName = strings.TrimSpace(lt.MerchantName)

	id, err := c.feedback.AddFeedback(ctx, lt)
	if err != nil {
		return "", fmt.Errorf("failed to record feedback: %w", err)
	}
	c.logger.Info("Feedback recorded",
		logging.F(logging.FieldCategory, category),
		logging.F(logging.FieldDescription, lt.Description))
	return id, nil
}

// RetrainFromFeedback trains on every accumulated correction.
func (c *Categorizer) RetrainFromFeedback(ctx context.Context, opts ...TrainOption) (*classifier.TrainingReport, error) {
	if c.feedback == nil {
		return nil, ErrNoFeedbackStore
	}
	examples, err := c.feedback.AllFeedback(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read feedback: %w", err)
	}
	return c.Train(ctx, examples, opts...)
}
