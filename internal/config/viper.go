// Package config provides Viper-based hierarchical configuration management
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Supported values for enumerated settings.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"

	ProviderEmbedding  = "embedding"
	ProviderGenerative = "generative"
)

// Config represents the complete application configuration
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	Model struct {
		Backend string `mapstructure:"backend" yaml:"backend"`
		Path    string `mapstructure:"path" yaml:"path"`
	} `mapstructure:"model" yaml:"model"`

	Database struct {
		Path string `mapstructure:"path" yaml:"path"`
	} `mapstructure:"database" yaml:"database"`

	Training struct {
		Trees    int     `mapstructure:"trees" yaml:"trees"`
		Seed     int64   `mapstructure:"seed" yaml:"seed"`
		TestSize float64 `mapstructure:"test_size" yaml:"test_size"`
	} `mapstructure:"training" yaml:"training"`

	Fallback struct {
		Enabled              bool    `mapstructure:"enabled" yaml:"enabled"`
		Provider             string  `mapstructure:"provider" yaml:"provider"`
		Model                string  `mapstructure:"model" yaml:"model"`
		EmbeddingModel       string  `mapstructure:"embedding_model" yaml:"embedding_model"`
		TimeoutSeconds       int     `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
		RetryIntervalSeconds int     `mapstructure:"retry_interval_seconds" yaml:"retry_interval_seconds"`
		Temperature          float32 `mapstructure:"temperature" yaml:"temperature"`
		APIKey               string  `mapstructure:"api_key" yaml:"-"` // Never serialize API key
	} `mapstructure:"fallback" yaml:"fallback"`

	Retrain struct {
		Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
		Schedule string `mapstructure:"schedule" yaml:"schedule"`
		Timezone string `mapstructure:"timezone" yaml:"timezone"`
	} `mapstructure:"retrain" yaml:"retrain"`

	Server struct {
		Address             string `mapstructure:"address" yaml:"address"`
		ReadTimeoutSeconds  int    `mapstructure:"read_timeout_seconds" yaml:"read_timeout_seconds"`
		WriteTimeoutSeconds int    `mapstructure:"write_timeout_seconds" yaml:"write_timeout_seconds"`
	} `mapstructure:"server" yaml:"server"`

	Assistant struct {
		LedgerFile  string `mapstructure:"ledger_file" yaml:"ledger_file"`
		AdviceModel string `mapstructure:"advice_model" yaml:"advice_model"`
	} `mapstructure:"assistant" yaml:"assistant"`
}

// FallbackTimeout is the per-request timeout for the fallback provider.
func (c *Config) FallbackTimeout() time.Duration {
	return time.Duration(c.Fallback.TimeoutSeconds) * time.Second
}

// FallbackRetryInterval is how long a failed fallback construction is cached.
func (c *Config) FallbackRetryInterval() time.Duration {
	return time.Duration(c.Fallback.RetryIntervalSeconds) * time.Second
}

// InitializeConfig initializes Viper configuration with hierarchical loading
func InitializeConfig() (*Config, error) {
	return InitializeConfigFromFile("")
}

// InitializeConfigFromFile loads configuration like InitializeConfig but reads
// the given file instead of searching the default locations. An empty path
// searches.
func InitializeConfigFromFile(path string) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Config file locations
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME/.fincat")
		v.AddConfigPath(".fincat")
		v.AddConfigPath(".")
	}

	// 3. Environment variables
	v.SetEnvPrefix("FINCAT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 4. Read config file (optional unless named explicitly)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// 5. Handle special case for API key (always from env, not prefixed)
	if err := v.BindEnv("fallback.api_key", "GEMINI_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind GEMINI_API_KEY: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 6. Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// Model store defaults
	v.SetDefault("model.backend", BackendFile)
	v.SetDefault("model.path", "models/categorizer.yaml")
	v.SetDefault("database.path", "fincat.db")

	// Training defaults
	v.SetDefault("training.trees", 100)
	v.SetDefault("training.seed", 42)
	v.SetDefault("training.test_size", 0.2)

	// Fallback defaults
	v.SetDefault("fallback.enabled", false)
	v.SetDefault("fallback.provider", ProviderEmbedding)
	v.SetDefault("fallback.model", "gemini-1.5-flash")
	v.SetDefault("fallback.embedding_model", "text-embedding-004")
	v.SetDefault("fallback.timeout_seconds", 30)
	v.SetDefault("fallback.retry_interval_seconds", 30)
	v.SetDefault("fallback.temperature", 0.0)

	// Retrain defaults
	v.SetDefault("retrain.enabled", false)
	v.SetDefault("retrain.schedule", "0 3 * * *")
	v.SetDefault("retrain.timezone", "UTC")

	// Server defaults
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout_seconds", 30)
	v.SetDefault("server.write_timeout_seconds", 300)

	// Assistant defaults
	v.SetDefault("assistant.ledger_file", "")
	v.SetDefault("assistant.advice_model", "gemini-1.5-flash")
}

// validateConfig validates the configuration values
func validateConfig(config *Config) error {
	// Validate log level
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	// Validate log format
	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	// Validate model store
	switch config.Model.Backend {
	case BackendFile:
		if config.Model.Path == "" {
			return fmt.Errorf("model.path is required for the file backend")
		}
	case BackendSQLite:
	default:
		return fmt.Errorf("invalid model backend: %s (must be 'file' or 'sqlite')", config.Model.Backend)
	}
	if config.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	// Validate training
	if config.Training.Trees < 1 {
		return fmt.Errorf("training.trees must be at least 1, got: %d", config.Training.Trees)
	}
	if config.Training.TestSize <= 0 || config.Training.TestSize >= 1 {
		return fmt.Errorf("training.test_size must be between 0 and 1 exclusive, got: %f", config.Training.TestSize)
	}

	// Validate fallback configuration
	if config.Fallback.Provider != ProviderEmbedding && config.Fallback.Provider != ProviderGenerative {
		return fmt.Errorf("invalid fallback provider: %s (must be 'embedding' or 'generative')", config.Fallback.Provider)
	}
	if config.Fallback.Enabled {
		if config.Fallback.APIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY required when fallback is enabled")
		}
		if config.Fallback.TimeoutSeconds < 1 || config.Fallback.TimeoutSeconds > 300 {
			return fmt.Errorf("fallback.timeout_seconds must be between 1 and 300, got: %d", config.Fallback.TimeoutSeconds)
		}
	}
	if config.Fallback.RetryIntervalSeconds < 0 {
		return fmt.Errorf("fallback.retry_interval_seconds must not be negative, got: %d", config.Fallback.RetryIntervalSeconds)
	}

	if config.Retrain.Enabled && config.Retrain.Schedule == "" {
		return fmt.Errorf("retrain.schedule is required when retraining is enabled")
	}

	return nil
}

// ConfigureLoggingFromConfig configures logging based on the Config struct
func ConfigureLoggingFromConfig(config *Config) *logrus.Logger {
	logger := logrus.New()

	// Parse and set log level
	logLevel, err := logrus.ParseLevel(strings.ToLower(config.Log.Level))
	if err != nil {
		logger.Warnf("Invalid log level '%s', using 'info'", config.Log.Level)
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Configure log format
	if strings.ToLower(config.Log.Format) == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}
