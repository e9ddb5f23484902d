package openai

import (
	"context"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"vatcompanion/internal/domain"
	"vatcompanion/internal/openaiapi"
)

// Config configures the chat completions client.
type Config struct {
	BaseURL           string
	APIKeyEnv         string
	APIKey            string
	Model             string
	Timeout           time.Duration
	MaxRetries        int
	RequestsPerMinute int
}

// Generator answers with an OpenAI-compatible chat completions endpoint.
type Generator struct {
	api   *openaiapi.Client
	model string
}

// New creates a chat completions generator.
func New(cfg Config) (*Generator, error) {
	if cfg.Model == "" {
		cfg.Model = "gpt-4-turbo"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 2 * time.Minute
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
	return &Generator{api: api, model: cfg.Model}, nil
}

// Name returns the identifier of this generator.
func (g *Generator) Name() string { return "openai:" + g.model }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
}

// Generate sends the conversation and returns the first choice's content.
func (g *Generator) Generate(ctx context.Context, messages []domain.Message, temperature float64) (string, error) {
	req := chatRequest{Model: g.model, Temperature: temperature}
	for _, m := range messages {
		req.Messages = append(req.Messages, chatMessage{Role: string(m.Role), Content: m.Content})
	}

	var out chatResponse
	if err := g.api.PostJSON(ctx, "/chat/completions", req, &out); err != nil {
		return "", domain.NewServiceError("openai chat", err)
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", domain.NewServiceError("openai chat", goerr.New("empty completion", goerr.V("model", g.model)))
	}
	return out.Choices[0].Message.Content, nil
}
