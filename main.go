package main

import (
	"fmt"
	"os"

	"intellifinance/fincat/cmd/ask"
	"intellifinance/fincat/cmd/batch"
	"intellifinance/fincat/cmd/categorize"
	"intellifinance/fincat/cmd/feedback"
	"intellifinance/fincat/cmd/model"
	"intellifinance/fincat/cmd/root"
	"intellifinance/fincat/cmd/serve"
	"intellifinance/fincat/cmd/train"
	"intellifinance/fincat/internal/config"

	"github.com/sirupsen/logrus"
)

func init() {
	// 1. Load .env silently; configuration may reference its variables
	_, _ = config.LoadEnv()

	// 2. Set the global level before anything logs
	logrus.SetLevel(config.LevelFromEnv())

	// 3. Flags, then subcommands
	root.Init()
	root.Cmd.AddCommand(categorize.Cmd)
	root.Cmd.AddCommand(batch.Cmd)
	root.Cmd.AddCommand(train.Cmd)
	root.Cmd.AddCommand(feedback.Cmd)
	root.Cmd.AddCommand(model.Cmd)
	root.Cmd.AddCommand(ask.Cmd)
	root.Cmd.AddCommand(serve.Cmd)
}

func main() {
	err := root.Cmd.Execute()
	// PersistentPostRun is skipped when a command fails.
	if closeErr := root.CloseContainer(); closeErr != nil {
		root.Log.Warnf("Failed to release resources: %v", closeErr)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
