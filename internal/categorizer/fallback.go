package categorizer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"intellifinance/fincat/internal/logging"
)

// DefaultFallbackRetryInterval is how long a failed fallback construction is
// remembered before another attempt is made.
const DefaultFallbackRetryInterval = 30 * time.Second

// lazyFallback constructs the zero-shot classifier on first use. Concurrent
// first callers share one construction. A success is kept for the process
// lifetime; a failure is kept for retryInterval.
type lazyFallback struct {
	factory       FallbackFactory
	provider      string
	retryInterval time.Duration
	logger        logging.Logger
	now           func() time.Time

	group singleflight.Group

	mu       sync.Mutex
	clf      ZeroShotClassifier
	lastErr  error
	failedAt time.Time
}

func newLazyFallback(factory FallbackFactory, provider string, retry time.Duration, logger logging.Logger) *lazyFallback {
	if retry <= 0 {
		retry = DefaultFallbackRetryInterval
	}
	return &lazyFallback{
		factory:       factory,
		provider:      provider,
		retryInterval: retry,
		logger:        logger,
		now:           time.Now,
	}
}

// cached returns the built classifier or a still-fresh failure.
func (l *lazyFallback) cached() (ZeroShotClassifier, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.clf != nil {
		return l.clf, true, nil
	}
	if l.lastErr != nil && l.now().Sub(l.failedAt) < l.retryInterval {
		return nil, true, l.lastErr
	}
	return nil, false, nil
}

func (l *lazyFallback) get(ctx context.Context) (ZeroShotClassifier, error) {
	if clf, ok, err := l.cached(); ok {
		return clf, err
	}

	v, err, _ := l.group.Do("fallback", func() (interface{}, error) {
		if clf, ok, err := l.cached(); ok {
			return clf, err
		}
		// One caller's cancellation must not fail construction for the
		// others waiting on it.
		clf, err := l.build(context.WithoutCancel(ctx))

		l.mu.Lock()
		defer l.mu.Unlock()
		if err != nil {
			l.lastErr = &FallbackUnavailableError{Provider: l.provider, Err: err}
			l.failedAt = l.now()
			l.logger.WithError(err).Warn("Fallback classifier unavailable",
				logging.F(logging.FieldProvider, l.provider))
			return nil, l.lastErr
		}
		l.clf = clf
		l.lastErr = nil
		l.logger.Info("Fallback classifier ready", logging.F(logging.FieldProvider, l.provider))
		return clf, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(ZeroShotClassifier), nil
}

func (l *lazyFallback) build(ctx context.Context) (clf ZeroShotClassifier, err error) {
	if l.factory == nil {
		return nil, errors.New("no fallback classifier configured")
	}
	defer func() {
		if r := recover(); r != nil {
			clf, err = nil, fmt.Errorf("panic during construction: %v", r)
		}
	}()
	clf, err = l.factory(ctx)
	if err == nil && clf == nil {
		err = errors.New("factory returned no classifier")
	}
	return clf, err
}

func (l *lazyFallback) ready() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.clf != nil
}
