package openai

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"vatcompanion/internal/domain"
	"vatcompanion/internal/openaiapi"
)

// Client is an OpenAI-compatible embeddings client implementing domain.Embedder.
type Client struct {
	api   *openaiapi.Client
	model string
}

// Config configures the OpenAI-compatible embeddings client.
type Config struct {
	BaseURL           string
	APIKeyEnv         string
	APIKey            string
	Model             string
	Timeout           time.Duration
	MaxRetries        int
	RequestsPerMinute int
}

// NewClient creates a new embeddings client using the provided configuration.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	api, err := openaiapi.New(openaiapi.Config{
		BaseURL:           cfg.BaseURL,
		APIKeyEnv:         cfg.APIKeyEnv,
		APIKey:            cfg.APIKey,
		Timeout:           cfg.Timeout,
		MaxRetries:        cfg.MaxRetries,
		RequestsPerMinute: cfg.RequestsPerMinute,
	})
	if err != nil {
		return nil, err
	}
	return &Client{api: api, model: cfg.Model}, nil
}

// Name returns the identifier of this embedder implementation.
func (c *Client) Name() string { return "openai:" + c.model }

type embeddingRequest struct {
	Input  string `json:"input,omitempty"`
	Prompt string `json:"prompt,omitempty"`
	Model  string `json:"model"`
}

// embeddingResponse accepts the OpenAI shape and the Ollama-native { "embedding": [...] }.
type embeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
	Embedding []float64 `json:"embedding"`
}

// Embed returns an embedding vector for the given text.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	var out embeddingResponse
	req := embeddingRequest{Input: text, Prompt: text, Model: c.model}
	if err := c.api.PostJSON(ctx, "/embeddings", req, &out); err != nil {
		return nil, domain.NewServiceError("openai embeddings", err)
	}
	if len(out.Data) > 0 && len(out.Data[0].Embedding) > 0 {
		return out.Data[0].Embedding, nil
	}
	if len(out.Embedding) > 0 {
		return out.Embedding, nil
	}
	return nil, domain.NewServiceError("openai embeddings", goerr.New("no embedding returned", goerr.V("model", c.model)))
}
