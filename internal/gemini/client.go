// Package gemini wraps the Google Gemini API for text embeddings and text
// generation.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"intellifinance/fincat/internal/logging"
)

// Defaults for Config fields left empty.
const (
	DefaultModel          = "gemini-1.5-flash"
	DefaultEmbeddingModel = "text-embedding-004"
	DefaultTimeout        = 30 * time.Second
)

// Config holds the client settings.
type Config struct {
	APIKey         string
	Model          string
	EmbeddingModel string
	Temperature    float32
	Timeout        time.Duration
}

// Client talks to Gemini. It is safe for concurrent use.
type Client struct {
	client    *genai.Client
	embedder  *genai.EmbeddingModel
	generator *genai.GenerativeModel
	timeout   time.Duration
	modelName string
	embedName string
	logger    logging.Logger
}

// NewClient creates a client. It fails fast when no API key is configured.
func NewClient(ctx context.Context, cfg Config, logger logging.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("GEMINI_API_KEY is not set")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = DefaultEmbeddingModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	generator := client.GenerativeModel(cfg.Model)
	generator.SetTemperature(cfg.Temperature)

	logger.Debug("Gemini client created",
		logging.F("model", cfg.Model),
		logging.F("embedding_model", cfg.EmbeddingModel))

	return &Client{
		client:    client,
		embedder:  client.EmbeddingModel(cfg.EmbeddingModel),
		generator: generator,
		timeout:   cfg.Timeout,
		modelName: cfg.Model,
		embedName: cfg.EmbeddingModel,
		logger:    logger,
	}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// Embed returns the embedding vector for text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.embedder.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("gemini embedding error: %w", err)
	}
	if resp == nil || resp.Embedding == nil || len(resp.Embedding.Values) == 0 {
		return nil, errors.New("empty embedding from Gemini API")
	}
	return resp.Embedding.Values, nil
}

// Generate sends prompt to the text model and returns the first candidate's
// text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.generator.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini API error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("no response from Gemini API")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	c.logger.Debug("Gemini response received",
		logging.F("model", c.modelName),
		logging.F(logging.FieldCount, b.Len()))
	return b.String(), nil
}
