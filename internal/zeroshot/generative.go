package zeroshot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"intellifinance/fincat/internal/logging"
	"intellifinance/fincat/internal/models"
)

// TextGenerator completes a prompt.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GenerativeClassifier asks a text model to pick one of the candidate labels
// and state its confidence.
type GenerativeClassifier struct {
	generator TextGenerator
	logger    logging.Logger
}

// NewGenerativeClassifier creates a classifier over generator.
func NewGenerativeClassifier(generator TextGenerator, logger logging.Logger) (*GenerativeClassifier, error) {
	if generator == nil {
		return nil, errors.New("text generator is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &GenerativeClassifier{generator: generator, logger: logger}, nil
}

const promptTemplate = `Classify the following financial transaction.
Transaction: %s

Choose exactly one of these labels:
%s

Respond in this format:
Label: [one label from the list]
Confidence: [a number between 0 and 1]`

// Classify prompts the model and parses its answer.
func (c *GenerativeClassifier) Classify(ctx context.Context, text string, labels []string) (models.ZeroShotResult, error) {
	if len(labels) == 0 {
		return models.ZeroShotResult{}, errors.New("no candidate labels")
	}
	prompt := fmt.Sprintf(promptTemplate, text, "- "+strings.Join(labels, "\n- "))
	response, err := c.generator.Generate(ctx, prompt)
	if err != nil {
		return models.ZeroShotResult{}, err
	}

	res := parseResponse(response, labels)
	c.logger.Debug("Zero-shot generative match",
		logging.F("label", res.Label),
		logging.F(logging.FieldConfidence, res.Score))
	return res, nil
}

// parseResponse extracts "Label:" and "Confidence:" lines. Without a label
// line the first candidate mentioned anywhere in the response is used.
// A missing or unreadable confidence is reported as zero.
func parseResponse(response string, labels []string) models.ZeroShotResult {
	var res models.ZeroShotResult
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		lower := strings.ToLower(line)
		switch {
		case strings.HasPrefix(lower, "label:"):
			res.Label = cleanLabel(line[len("label:"):])
		case strings.HasPrefix(lower, "confidence:"):
			res.Score = parseConfidence(line[len("confidence:"):])
		}
	}

	if res.Label == "" {
		lowerResp := strings.ToLower(response)
		for _, label := range labels {
			if strings.Contains(lowerResp, strings.ToLower(label)) {
				res.Label = label
				break
			}
		}
	}
	for _, label := range labels {
		if strings.EqualFold(res.Label, label) {
			res.Label = label
			break
		}
	}
	return res
}

func cleanLabel(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "[]\"'*`.")
	return strings.TrimSpace(s)
}

func parseConfidence(s string) float64 {
	s = strings.TrimSpace(strings.Trim(strings.TrimSpace(s), "[]*"))
	percent := strings.HasSuffix(s, "%")
	s = strings.TrimSuffix(s, "%")
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v < 0 {
		return 0
	}
	// Values of 2 or more are read as percentages.
	if percent || v >= 2 {
		v /= 100
	}
	if v > 1 {
		v = 1
	}
	return v
}
