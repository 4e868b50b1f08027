// Package jobs runs scheduled background work.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"intellifinance/fincat/internal/categorizer"
	"intellifinance/fincat/internal/classifier"
	"intellifinance/fincat/internal/logging"
)

// Defaults for RetrainConfig.
const (
	DefaultRetrainSchedule = "0 3 * * *" // 3 AM daily
	DefaultRetrainTimeZone = "UTC"
	DefaultRetrainTimeout  = 2 * time.Hour
)

// RetrainConfig holds the retraining schedule.
type RetrainConfig struct {
	Schedule string        // Cron schedule
	TimeZone string        // Timezone for scheduling
	Timeout  time.Duration // Upper bound for a single run
}

// NewDefaultRetrainConfig returns the default nightly schedule.
func NewDefaultRetrainConfig() *RetrainConfig {
	return &RetrainConfig{
		Schedule: DefaultRetrainSchedule,
		TimeZone: DefaultRetrainTimeZone,
		Timeout:  DefaultRetrainTimeout,
	}
}

// Retrainer trains a new model from accumulated feedback.
type Retrainer interface {
	RetrainFromFeedback(ctx context.Context, opts ...categorizer.TrainOption) (*classifier.TrainingReport, error)
}

// RetrainScheduler periodically retrains the primary model from feedback.
// Overlapping runs are skipped.
type RetrainScheduler struct {
	cfg       RetrainConfig
	retrainer Retrainer
	logger    logging.Logger
	cron      *cron.Cron
	loc       *time.Location
}

// NewRetrainScheduler validates the schedule and registers the job. Call
// Start to begin running it.
func NewRetrainScheduler(cfg RetrainConfig, retrainer Retrainer, logger logging.Logger) (*RetrainScheduler, error) {
	if retrainer == nil {
		return nil, errors.New("retrainer is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if cfg.Schedule == "" {
		cfg.Schedule = DefaultRetrainSchedule
	}
	if cfg.TimeZone == "" {
		cfg.TimeZone = DefaultRetrainTimeZone
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultRetrainTimeout
	}

	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		logger.WithError(err).Warn("Invalid timezone, falling back to UTC",
			logging.F("timezone", cfg.TimeZone))
		loc = time.UTC
	}

	s := &RetrainScheduler{
		cfg:       cfg,
		retrainer: retrainer,
		logger:    logger,
		loc:       loc,
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
	}

	_, err = s.cron.AddFunc(cfg.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)
		defer cancel()
		_ = s.RunOnce(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("unable to schedule retraining %q: %w", cfg.Schedule, err)
	}
	return s, nil
}

// Start begins the schedule in the background.
func (s *RetrainScheduler) Start() {
	s.cron.Start()
	s.logger.Info("Retrain scheduler started",
		logging.F(logging.FieldSchedule, s.cfg.Schedule),
		logging.F("timezone", s.loc.String()))
}

// Stop halts the schedule. The returned context is done once a running job
// has finished.
func (s *RetrainScheduler) Stop() context.Context {
	return s.cron.Stop()
}

// Next returns the next scheduled run time, or the zero time if the
// scheduler is not running.
func (s *RetrainScheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// RunOnce performs a single retraining pass. Too little feedback is not an
// error: the run is skipped and the current model kept.
func (s *RetrainScheduler) RunOnce(ctx context.Context) error {
	start := time.Now()
	s.logger.Info("Starting scheduled retrain", logging.F("started_at", start.In(s.loc).Format(time.RFC3339)))

	report, err := s.retrainer.RetrainFromFeedback(ctx)
	if err != nil {
		var insufficient *categorizer.InsufficientDataError
		if errors.As(err, &insufficient) {
			s.logger.Info("Scheduled retrain skipped: not enough feedback",
				logging.F(logging.FieldCount, insufficient.Have))
			return nil
		}
		var writeErr *categorizer.ArtifactWriteError
		if errors.As(err, &writeErr) {
			s.logger.WithError(err).Warn("Scheduled retrain succeeded but model was not persisted")
			return err
		}
		s.logger.WithError(err).Error("Scheduled retrain failed")
		return err
	}

	s.logger.Info("Scheduled retrain completed",
		logging.F(logging.FieldRunID, report.RunID),
		logging.F(logging.FieldAccuracy, report.Accuracy),
		logging.F(logging.FieldCount, report.Examples),
		logging.F(logging.FieldDuration, time.Since(start).String()))
	return nil
}
