package batch_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"intellifinance/fincat/cmd/batch"
	"intellifinance/fincat/cmd/root/roottest"
	"intellifinance/fincat/cmd/train"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchCommand_CommandMetadata(t *testing.T) {
	assert.Equal(t, "batch", batch.Cmd.Use)
	assert.Contains(t, batch.Cmd.Short, "Categorize every transaction")
	assert.NotNil(t, batch.Cmd.RunE)
}

func TestBatchCommand_LongDescription(t *testing.T) {
	assert.Contains(t, batch.Cmd.Long, "merchant_name")
	assert.Contains(t, batch.Cmd.Long, "same order")
	assert.Contains(t, batch.Cmd.Long, "Example")
}

func TestBatchCommand_RequiresFiles(t *testing.T) {
	cfg := roottest.Config(t, "")
	_, err := roottest.Run(t, batch.Cmd, "batch", "--config", cfg)
	assert.EqualError(t, err, "both input and output files are required")
}

func TestBatchCommand_CategorizesFile(t *testing.T) {
	cfg := roottest.Config(t, "")
	corpus := roottest.WriteFile(t, "train.csv", roottest.Corpus(60))
	_, err := roottest.Run(t, train.Cmd, "train", "--config", cfg, "-i", corpus, "--no-progress")
	require.NoError(t, err)

	input := roottest.WriteFile(t, "in.csv", `description,merchant_name,amount
NETFLIX SUBSCRIPTION,Netflix,15.99
WHOLE FOODS MARKET,Whole Foods,30
,,
`)
	output := filepath.Join(t.TempDir(), "out", "categorized.csv")

	out, err := roottest.Run(t, batch.Cmd, "batch", "--config", cfg, "-i", input, "-o", output)
	require.NoError(t, err)
	assert.Contains(t, out, "Categorized 3 transactions: 2 by model, 0 by fallback, 1 uncategorized")

	written, err := os.ReadFile(output)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(written)), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "category")
	assert.Contains(t, lines[1], "subscriptions")
	assert.Contains(t, lines[2], "groceries")
	assert.Contains(t, lines[3], "empty_input")
}
