// Package container provides dependency injection for the fincat application.
// It centralizes the creation and wiring of all application dependencies,
// making them explicit and testable.
package container

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"intellifinance/fincat/internal/assistant"
	"intellifinance/fincat/internal/categorizer"
	"intellifinance/fincat/internal/classifier"
	"intellifinance/fincat/internal/config"
	"intellifinance/fincat/internal/gemini"
	"intellifinance/fincat/internal/jobs"
	"intellifinance/fincat/internal/logging"
	"intellifinance/fincat/internal/store"
	"intellifinance/fincat/internal/zeroshot"
)

// Container holds all application dependencies and provides methods to access them.
// It is immutable after creation; dependencies are reached through getters.
type Container struct {
	logger      logging.Logger
	config      *config.Config
	db          *store.SQLiteStore
	modelStore  categorizer.ModelStore
	categorizer *categorizer.Categorizer
	assistant   *assistant.Assistant
	scheduler   *jobs.RetrainScheduler
	loadResult  categorizer.LoadResult

	// Gemini clients opened on demand, closed by Close.
	mu      sync.Mutex
	clients []*gemini.Client
}

// NewContainer creates and wires all application dependencies and restores
// the persisted model, if any. A missing or corrupt model is not an error;
// the categorizer starts untrained and the outcome is available from
// LoadResult.
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	return newContainer(ctx, cfg, logging.NewLogrusAdapter(cfg.Log.Level, cfg.Log.Format))
}

func newContainer(ctx context.Context, cfg *config.Config, logger logging.Logger) (*Container, error) {
	c := &Container{logger: logger, config: cfg}

	db, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	c.db = db

	switch cfg.Model.Backend {
	case config.BackendSQLite:
		c.modelStore = db
	default:
		c.modelStore = store.NewFileModelStore(cfg.Model.Path)
	}

	opts := categorizer.Options{
		Store:                 c.modelStore,
		Feedback:              db,
		FallbackRetryInterval: cfg.FallbackRetryInterval(),
		Training: classifier.Options{
			Trees:    cfg.Training.Trees,
			Seed:     cfg.Training.Seed,
			TestSize: cfg.Training.TestSize,
			Logger:   logger,
		},
		Logger: logger,
	}
	if cfg.Fallback.Enabled {
		opts.Fallback = c.fallbackFactory()
		opts.FallbackProvider = "gemini/" + cfg.Fallback.Provider
		logger.Info("Zero-shot fallback enabled", logging.F(logging.FieldProvider, opts.FallbackProvider))
	} else {
		logger.Info("Zero-shot fallback disabled")
	}
	c.categorizer = categorizer.New(opts)
	c.loadResult = c.categorizer.LoadPersisted(ctx)

	if cfg.Assistant.LedgerFile != "" {
		if err := c.initAssistant(ctx); err != nil {
			_ = c.Close()
			return nil, err
		}
	}

	if cfg.Retrain.Enabled {
		scheduler, err := jobs.NewRetrainScheduler(jobs.RetrainConfig{
			Schedule: cfg.Retrain.Schedule,
			TimeZone: cfg.Retrain.Timezone,
			Timeout:  jobs.DefaultRetrainTimeout,
		}, c.categorizer, logger)
		if err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("failed to create retrain scheduler: %w", err)
		}
		c.scheduler = scheduler
	}

	logger.Info("Container initialized successfully",
		logging.F("model_backend", cfg.Model.Backend),
		logging.F(logging.FieldLocation, c.modelStore.Location()),
		logging.F("model_loaded", c.loadResult.Loaded),
		logging.F("fallback_enabled", cfg.Fallback.Enabled))
	return c, nil
}

func (c *Container) newGeminiClient(ctx context.Context, model string) (*gemini.Client, error) {
	client, err := gemini.NewClient(ctx, gemini.Config{
		APIKey:         c.config.Fallback.APIKey,
		Model:          model,
		EmbeddingModel: c.config.Fallback.EmbeddingModel,
		Temperature:    c.config.Fallback.Temperature,
		Timeout:        c.config.FallbackTimeout(),
	}, c.logger)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.clients = append(c.clients, client)
	c.mu.Unlock()
	return client, nil
}

// fallbackFactory builds the configured zero-shot classifier on first use.
func (c *Container) fallbackFactory() categorizer.FallbackFactory {
	return func(ctx context.Context) (categorizer.ZeroShotClassifier, error) {
		client, err := c.newGeminiClient(ctx, c.config.Fallback.Model)
		if err != nil {
			return nil, err
		}
		if c.config.Fallback.Provider == config.ProviderGenerative {
			clf, err := zeroshot.NewGenerativeClassifier(client, c.logger)
			if err != nil {
				c.discard(client)
				return nil, err
			}
			return clf, nil
		}
		clf, err := zeroshot.NewEmbeddingClassifier(ctx, client, categorizer.CandidateLabels, zeroshot.DefaultSoftmaxTemperature, c.logger)
		if err != nil {
			c.discard(client)
			return nil, err
		}
		return clf, nil
	}
}

// discard closes a client whose classifier could not be built.
func (c *Container) discard(client *gemini.Client) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, cl := range c.clients {
		if cl == client {
			c.clients = append(c.clients[:i], c.clients[i+1:]...)
			break
		}
	}
	if err := client.Close(); err != nil {
		c.logger.WithError(err).Debug("Failed to close Gemini client")
	}
}

func (c *Container) initAssistant(ctx context.Context) error {
	ledger, err := assistant.LoadLedgerFile(c.config.Assistant.LedgerFile)
	if err != nil {
		return fmt.Errorf("failed to load assistant ledger: %w", err)
	}

	opts := assistant.Options{Ledger: ledger, Logger: c.logger}
	if c.config.Fallback.APIKey != "" {
		advisor, err := c.newGeminiClient(ctx, c.config.Assistant.AdviceModel)
		if err != nil {
			c.logger.WithError(err).Warn("Advisor unavailable, financial advice disabled")
		} else {
			opts.Advisor = advisor
		}
	}

	a, err := assistant.New(opts)
	if err != nil {
		return err
	}
	c.assistant = a
	return nil
}

// GetLogger returns the container's logger instance.
func (c *Container) GetLogger() logging.Logger {
	return c.logger
}

// GetConfig returns the container's configuration instance.
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetCategorizer returns the container's categorizer instance.
func (c *Container) GetCategorizer() *categorizer.Categorizer {
	return c.categorizer
}

// GetModelStore returns the configured model store.
func (c *Container) GetModelStore() categorizer.ModelStore {
	return c.modelStore
}

// GetFeedbackStore returns the feedback store.
func (c *Container) GetFeedbackStore() categorizer.FeedbackStore {
	return c.db
}

// GetAssistant returns the finance assistant, or nil when no ledger file is
// configured.
func (c *Container) GetAssistant() *assistant.Assistant {
	return c.assistant
}

// GetRetrainScheduler returns the scheduler, or nil when scheduled
// retraining is disabled.
func (c *Container) GetRetrainScheduler() *jobs.RetrainScheduler {
	return c.scheduler
}

// LoadResult reports how restoring the persisted model went.
func (c *Container) LoadResult() categorizer.LoadResult {
	return c.loadResult
}

// Close stops the scheduler and releases clients and the database.
func (c *Container) Close() error {
	var errs []error
	if c.scheduler != nil {
		select {
		case <-c.scheduler.Stop().Done():
		case <-time.After(5 * time.Second):
			c.logger.Warn("Retrain job still running at shutdown")
		}
	}
	c.mu.Lock()
	for _, client := range c.clients {
		if err := client.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	c.clients = nil
	c.mu.Unlock()
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	c.logger.Debug("Container closed")
	return errors.Join(errs...)
}
