// Package roottest runs fincat commands against a throwaway configuration.
package roottest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"intellifinance/fincat/cmd/root"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Config writes a configuration file rooted in a temporary directory and
// returns its path. extra is appended verbatim and may add top-level
// sections the base does not define.
func Config(t testing.TB, extra string) string {
	t.Helper()
	dir := t.TempDir()
	base := fmt.Sprintf(`log:
  level: error
model:
  backend: file
  path: %s
database:
  path: %s
training:
  trees: 10
  seed: 7
fallback:
  enabled: false
`, filepath.Join(dir, "models", "categorizer.yaml"), filepath.Join(dir, "fincat.db"))

	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(base+extra), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// WriteFile writes content into a fresh temporary directory.
func WriteFile(t testing.TB, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// Run executes the root command with sub attached and returns what the
// command printed.
func Run(t testing.TB, sub *cobra.Command, args ...string) (string, error) {
	t.Helper()
	return RunContext(t, context.Background(), sub, args...)
}

// RunContext is Run with a caller-controlled context, for commands that
// block until cancelled.
func RunContext(t testing.TB, ctx context.Context, sub *cobra.Command, args ...string) (string, error) {
	t.Helper()
	t.Setenv("GEMINI_API_KEY", "")
	t.Cleanup(func() { _ = root.CloseContainer() })

	root.Init()
	if sub.Parent() == nil {
		root.Cmd.AddCommand(sub)
	}
	reset(ctx, root.Cmd)

	var out bytes.Buffer
	root.Cmd.SetOut(&out)
	root.Cmd.SetErr(io.Discard)
	root.Cmd.SetArgs(args)
	err := root.Cmd.ExecuteContext(ctx)
	root.Cmd.SetArgs(nil)
	if closeErr := root.CloseContainer(); closeErr != nil {
		t.Errorf("close container: %v", closeErr)
	}
	return out.String(), err
}

// reset restores flag defaults and rebinds the context so runs within one
// test binary do not leak state into each other. Cobra only hands the root
// context to a subcommand that has none yet.
func reset(ctx context.Context, cmd *cobra.Command) {
	cmd.SetContext(ctx)
	resetFlag := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(resetFlag)
	cmd.Flags().VisitAll(resetFlag)
	for _, c := range cmd.Commands() {
		reset(ctx, c)
	}
}

// Corpus renders n labeled rows cycling through three merchants, enough for
// a small forest to separate them.
func Corpus(n int) string {
	templates := []string{
		"WHOLE FOODS MARKET,Whole Foods,54.20,groceries",
		"SHELL OIL FUEL,Shell,40.00,gas",
		"NETFLIX SUBSCRIPTION,Netflix,15.99,subscriptions",
	}
	var b strings.Builder
	b.WriteString("description,merchant_name,amount,category\n")
	for i := 0; i < n; i++ {
		b.WriteString(templates[i%len(templates)])
		b.WriteString("\n")
	}
	return b.String()
}
