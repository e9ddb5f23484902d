package gemini

import (
	"context"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/option"

	"vatcompanion/internal/domain"
)

// Config configures the Gemini embedder.
type Config struct {
	APIKeyEnv string
	// APIKey takes precedence over APIKeyEnv when set.
	APIKey string
	Model  string
	// TaskType defaults to genai.TaskTypeRetrievalQuery. Use
	// genai.TaskTypeRetrievalDocument when embedding corpus text.
	TaskType genai.TaskType
}

type embedFunc func(ctx context.Context, text string) ([]float32, error)

// Embedder embeds queries with a Gemini embedding model.
type Embedder struct {
	model    string
	taskType genai.TaskType
	embed    embedFunc
	client   *genai.Client
}

// New creates a Gemini embedder. Close releases the underlying client.
func New(ctx context.Context, cfg Config) (*Embedder, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = strings.TrimSpace(os.Getenv(cfg.APIKeyEnv))
	}
	if apiKey == "" {
		return nil, goerr.New("missing API key", goerr.V("env", cfg.APIKeyEnv))
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-004"
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create gemini client")
	}
	em := client.EmbeddingModel(cfg.Model)
	if cfg.TaskType == genai.TaskTypeUnspecified {
		cfg.TaskType = genai.TaskTypeRetrievalQuery
	}
	em.TaskType = cfg.TaskType

	return &Embedder{
		model:    cfg.Model,
		taskType: cfg.TaskType,
		client:   client,
		embed: func(ctx context.Context, text string) ([]float32, error) {
			res, err := em.EmbedContent(ctx, genai.Text(text))
			if err != nil {
				return nil, err
			}
			if res == nil || res.Embedding == nil {
				return nil, nil
			}
			return res.Embedding.Values, nil
		},
	}, nil
}

// Name returns the identifier of this embedder implementation.
func (e *Embedder) Name() string { return "gemini:" + e.model }

// TaskType reports how inputs are embedded.
func (e *Embedder) TaskType() genai.TaskType { return e.taskType }

// Embed returns the embedding of text widened to float64.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float64, error) {
	values, err := e.embed(ctx, text)
	if err != nil {
		return nil, domain.NewServiceError("gemini embeddings", err)
	}
	if len(values) == 0 {
		return nil, domain.NewServiceError("gemini embeddings", goerr.New("no embedding returned", goerr.V("model", e.model)))
	}
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out, nil
}

// Close releases the underlying client.
func (e *Embedder) Close() error {
	if e.client == nil {
		return nil
	}
	return e.client.Close()
}
