// Package root contains the root command for the application
package root

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"intellifinance/fincat/internal/config"
	"intellifinance/fincat/internal/container"
	"intellifinance/fincat/internal/logging"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// CommonFlags represents the flags that are common to multiple commands
type CommonFlags struct {
	Input    string
	Output   string
	Config   string
	LogLevel string
	JSON     bool
}

var (
	// Log is the shared logger instance for commands
	Log = logrus.New()

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "fincat",
		Short: "Categorize financial transactions and answer questions about your money.",
		Long: `fincat categorizes financial transactions with a locally trained random forest
and falls back to a zero-shot model when the forest is unsure. It also trains
and inspects models, collects corrections, and answers questions about a ledger.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if err := CloseContainer(); err != nil {
				Log.Warnf("Failed to release resources: %v", err)
			}
		},
	}

	// SharedFlags holds the persistent flags accessible to all commands
	SharedFlags = CommonFlags{}

	initOnce sync.Once

	mu        sync.Mutex
	appConfig *config.Config
	appCtr    *container.Container
)

// Init initializes the root command and all flags
func Init() {
	initOnce.Do(func() {
		Cmd.PersistentFlags().StringVarP(&SharedFlags.Input, "input", "i", "", "Input CSV file")
		Cmd.PersistentFlags().StringVarP(&SharedFlags.Output, "output", "o", "", "Output CSV file")
		Cmd.PersistentFlags().StringVar(&SharedFlags.Config, "config", "", "Configuration file (default: $HOME/.fincat/config.yaml)")
		Cmd.PersistentFlags().StringVar(&SharedFlags.LogLevel, "log-level", "", "Log level override (trace, debug, info, warn, error)")
		Cmd.PersistentFlags().BoolVar(&SharedFlags.JSON, "json", false, "Print results as JSON")
	})
}

func loadConfig() error {
	mu.Lock()
	defer mu.Unlock()

	cfg, err := config.InitializeConfigFromFile(SharedFlags.Config)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if level := strings.TrimSpace(SharedFlags.LogLevel); level != "" {
		if _, err := logrus.ParseLevel(level); err != nil {
			return fmt.Errorf("invalid log level %q", level)
		}
		cfg.Log.Level = strings.ToLower(level)
	}
	appConfig = cfg
	Log = config.ConfigureLoggingFromConfig(cfg)
	return nil
}

// GetConfig returns the configuration loaded for the running command.
func GetConfig() (*config.Config, error) {
	mu.Lock()
	defer mu.Unlock()
	if appConfig == nil {
		return nil, fmt.Errorf("configuration has not been loaded")
	}
	return appConfig, nil
}

// GetContainer builds the dependency container on first use. Commands that
// never touch the engine do not open the database.
func GetContainer(cmd *cobra.Command) (*container.Container, error) {
	mu.Lock()
	defer mu.Unlock()
	if appCtr != nil {
		return appCtr, nil
	}
	if appConfig == nil {
		return nil, fmt.Errorf("configuration has not been loaded")
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	c, err := container.NewContainer(ctx, appConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize: %w", err)
	}
	if res := c.LoadResult(); res.Err != nil && !res.Loaded {
		c.GetLogger().WithError(res.Err).Debug("Starting without a persisted model")
	}
	appCtr = c
	return appCtr, nil
}

// GetLogger returns the container's logger, or one derived from Log when
// no container has been built yet.
func GetLogger() logging.Logger {
	mu.Lock()
	defer mu.Unlock()
	if appCtr != nil {
		return appCtr.GetLogger()
	}
	return logging.NewLogrusAdapterFromLogger(Log)
}

// CloseContainer releases the container, if one was built.
func CloseContainer() error {
	mu.Lock()
	defer mu.Unlock()
	if appCtr == nil {
		return nil
	}
	err := appCtr.Close()
	appCtr = nil
	return err
}
