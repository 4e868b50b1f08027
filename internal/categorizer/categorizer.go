// Package categorizer decides the category of a transaction. A trained
// primary classifier answers when it is confident; otherwise a lazily built
// zero-shot classifier is consulted; otherwise the transaction stays
// UNCATEGORIZED. Categorization never fails: every error is absorbed and
// logged.
package categorizer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"intellifinance/fincat/internal/classifier"
	"intellifinance/fincat/internal/logging"
	"intellifinance/fincat/internal/models"
)

// Decision reasons.
const (
	ReasonEmptyInput          = "empty_input"
	ReasonConfident           = "confident"
	ReasonBelowThreshold      = "below_threshold"
	ReasonFallbackUnavailable = "fallback_unavailable"
	ReasonFailure             = "failure"
	ReasonPanic               = "panic"
)

// Decision is the outcome of categorizing one transaction.
type Decision struct {
	Category   models.Category `json:"category"`
	Confidence float64         `json:"confidence"`
	Source     Source          `json:"source"`
	Reason     string          `json:"reason"`
	Hints      []string        `json:"category_hints,omitempty"`
}

// Options configures a Categorizer. Every field is optional.
type Options struct {
	// Primary is an initial model, replaced by Train or LoadPersisted.
	Primary PrimaryClassifier
	// Store persists trained models. Nil disables persistence.
	Store ModelStore
	// Feedback accumulates corrections for RetrainFromFeedback.
	Feedback FeedbackStore
	// Fallback builds the zero-shot classifier. Nil means no fallback.
	Fallback              FallbackFactory
	FallbackProvider      string
	FallbackRetryInterval time.Duration
	Training              classifier.Options
	Logger                logging.Logger
}

type primaryState struct {
	clf   PrimaryClassifier
	model *classifier.Model
}

// Categorizer owns the primary and fallback classifiers. It is safe for
// concurrent use; Train and LoadPersisted publish a new model atomically so
// concurrent decisions see either the old or the new one.
type Categorizer struct {
	primary    atomic.Pointer[primaryState]
	trainMu    sync.Mutex
	fallback   *lazyFallback
	strategies []Strategy
	store      ModelStore
	feedback   FeedbackStore
	training   classifier.Options
	logger     logging.Logger
}

// New creates a Categorizer. Nothing is loaded or dialed here; call
// LoadPersisted to restore a saved model.
func New(opts Options) *Categorizer {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	training := opts.Training
	if training.Trees <= 0 && training.TestSize == 0 && training.Seed == 0 {
		training = classifier.DefaultOptions()
	}

	c := &Categorizer{
		store:    opts.Store,
		feedback: opts.Feedback,
		training: training,
		logger:   logger,
		fallback: newLazyFallback(opts.Fallback, opts.FallbackProvider, opts.FallbackRetryInterval, logger),
	}
	if opts.Primary != nil {
		c.publish(opts.Primary)
	}
	c.strategies = []Strategy{
		&primaryStrategy{c: c},
		&fallbackStrategy{lazy: c.fallback},
	}
	return c
}

func (c *Categorizer) publish(p PrimaryClassifier) {
	st := &primaryState{clf: p}
	if m, ok := p.(*classifier.Model); ok {
		st.model = m
	}
	c.primary.Store(st)
}

func (c *Categorizer) currentModel() *classifier.Model {
	st := c.primary.Load()
	if st == nil {
		return nil
	}
	return st.model
}

// IsTrained reports whether a trained primary model is published.
func (c *Categorizer) IsTrained() bool {
	st := c.primary.Load()
	return st != nil && st.clf != nil && st.clf.IsTrained()
}

// Categorize returns the category for a transaction. It always returns a
// valid category.
func (c *Categorizer) Categorize(ctx context.Context, description, merchant string, hints []string) models.Category {
	return c.Decide(ctx, models.TransactionRecord{
		Description:   description,
		MerchantName:  merchant,
		CategoryHints: hints,
	}).Category
}

// Decide runs the decision chain and reports which stage answered. Category
// hints are carried through but not consulted.
func (c *Categorizer) Decide(ctx context.Context, rec models.TransactionRecord) (d Decision) {
	d = Decision{
		Category: models.CategoryUncategorized,
		Source:   SourceDefault,
		Reason:   ReasonBelowThreshold,
		Hints:    rec.CategoryHints,
	}
	if rec.IsBlank() {
		d.Reason = ReasonEmptyInput
		return d
	}

	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn("Recovered panic during categorization",
				logging.F(logging.FieldDescription, rec.Description),
				logging.F(logging.FieldError, r))
			d = Decision{
				Category: models.CategoryUncategorized,
				Source:   SourceDefault,
				Reason:   ReasonPanic,
				Hints:    rec.CategoryHints,
			}
		}
	}()

	var results StrategyResults
	for _, s := range c.strategies {
		res, err := s.Classify(ctx, rec)
		attempt := StrategyResult{Strategy: s.Name(), Category: res.Category, Confidence: res.Confidence, Err: err}
		if err != nil {
			results.add(attempt)
			if errors.Is(err, errPrimaryUntrained) {
				continue
			}
			var unavailable *FallbackUnavailableError
			if errors.As(err, &unavailable) {
				d.Reason = ReasonFallbackUnavailable
			} else {
				d.Reason = ReasonFailure
				c.logger.WithError(err).Warn("Categorization stage failed",
					logging.F(logging.FieldSource, s.Name()))
			}
			break
		}
		if res.Confidence > s.Threshold() {
			attempt.Accepted = true
			results.add(attempt)
			category := res.Category
			if !category.IsValid() {
				category = models.CategoryUncategorized
			}
			d.Category = category
			d.Confidence = res.Confidence
			d.Source = s.Name()
			d.Reason = ReasonConfident
			break
		}
		results.add(attempt)
	}

	c.logger.Debug("Transaction categorized",
		logging.F(logging.FieldDescription, rec.Description),
		logging.F(logging.FieldCategory, d.Category),
		logging.F(logging.FieldSource, d.Source),
		logging.F(logging.FieldReason, d.Reason),
		logging.F("attempts", results.Summary()))
	return d
}

// PredictBatch decides every record, preserving order.
func (c *Categorizer) PredictBatch(ctx context.Context, recs []models.TransactionRecord) []Decision {
	out := make([]Decision, len(recs))
	g := new(errgroup.Group)
	g.SetLimit(8)
	for i := range recs {
		i := i
		g.Go(func() error {
			out[i] = c.Decide(ctx, recs[i])
			return nil
		})
	}
	_ = g.Wait()
	return out
}
