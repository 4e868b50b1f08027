package feedback_test

import (
	"regexp"
	"testing"

	"intellifinance/fincat/cmd/feedback"
	"intellifinance/fincat/cmd/root/roottest"
	"intellifinance/fincat/cmd/train"
	"intellifinance/fincat/internal/categorizer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func subcommand(t *testing.T, name string) bool {
	t.Helper()
	for _, c := range feedback.Cmd.Commands() {
		if c.Name() == name {
			return true
		}
	}
	return false
}

func TestFeedbackCommand_Metadata(t *testing.T) {
	assert.Equal(t, "feedback", feedback.Cmd.Use)
	assert.Contains(t, feedback.Cmd.Short, "corrections")
	assert.True(t, subcommand(t, "add"))
	assert.True(t, subcommand(t, "import"))
}

func TestFeedbackAdd(t *testing.T) {
	cfg := roottest.Config(t, "")
	out, err := roottest.Run(t, feedback.Cmd, "feedback", "add", "--config", cfg,
		"-d", "SQ *BLUE BOTTLE", "-m", "Blue Bottle", "-c", "COFFEE_SHOPS")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^Recorded feedback \S+ \(coffee_shops\)\n$`), out)
}

func TestFeedbackAdd_Invalid(t *testing.T) {
	cfg := roottest.Config(t, "")

	_, err := roottest.Run(t, feedback.Cmd, "feedback", "add", "--config", cfg, "-d", "Coffee", "-c", "lattes")
	assert.ErrorIs(t, err, categorizer.ErrInvalidFeedback)

	_, err = roottest.Run(t, feedback.Cmd, "feedback", "add", "--config", cfg, "-c", "coffee_shops")
	assert.ErrorIs(t, err, categorizer.ErrInvalidFeedback)

	_, err = roottest.Run(t, feedback.Cmd, "feedback", "add", "--config", cfg, "-d", "Coffee")
	assert.Error(t, err)
}

func TestFeedbackImport_ThenRetrain(t *testing.T) {
	cfg := roottest.Config(t, "")
	corpus := roottest.Corpus(60) + "Mystery,,1,not_a_category\n"
	input := roottest.WriteFile(t, "corrections.csv", corpus)

	out, err := roottest.Run(t, feedback.Cmd, "feedback", "import", "--config", cfg, "-i", input)
	require.NoError(t, err)
	assert.Equal(t, "Imported 60 corrections, skipped 1\n", out)

	out, err = roottest.Run(t, train.Cmd, "train", "--config", cfg, "--from-feedback", "--no-progress")
	require.NoError(t, err)
	assert.Contains(t, out, "Examples:   60")
}

func TestFeedbackImport_MissingInput(t *testing.T) {
	cfg := roottest.Config(t, "")
	_, err := roottest.Run(t, feedback.Cmd, "feedback", "import", "--config", cfg)
	assert.EqualError(t, err, "input file is required")
}
