package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/m-mizutani/goerr/v2"
	"github.com/rs/zerolog"

	"vatcompanion/internal/config"
	"vatcompanion/internal/corpus"
	"vatcompanion/internal/domain"
	embgemini "vatcompanion/internal/embedding/gemini"
	embopenai "vatcompanion/internal/embedding/openai"
	"vatcompanion/internal/generation/bedrock"
	gengemini "vatcompanion/internal/generation/gemini"
	genopenai "vatcompanion/internal/generation/openai"
	"vatcompanion/internal/service"
	"vatcompanion/internal/vectorstore"
	"vatcompanion/internal/vectorstore/memory"
	"vatcompanion/internal/vectorstore/qdrant"
)

// closers collects resources released when a command finishes.
type closers []io.Closer

func (c closers) Close() {
	for i := len(c) - 1; i >= 0; i-- {
		_ = c[i].Close()
	}
}

func corpusSources(cfg *config.AppConfig) []corpus.Source {
	sources := make([]corpus.Source, len(cfg.Corpus.Sources))
	for i, s := range cfg.Corpus.Sources {
		sources[i] = corpus.Source{Label: s.Label, Location: s.Path, Format: s.Format, Table: s.Table}
	}
	return sources
}

func loadCorpus(ctx context.Context, cfg *config.AppConfig, log zerolog.Logger) (*corpus.Store, error) {
	sources := corpusSources(cfg)
	opts := []corpus.Option{corpus.WithLogger(log)}
	for _, s := range sources {
		if strings.HasPrefix(s.Location, "s3://") {
			client, err := corpus.NewS3Client(ctx, cfg.Corpus.AWSRegion)
			if err != nil {
				return nil, &corpus.LoadError{Location: s.Location, Err: err}
			}
			opts = append(opts, corpus.WithS3(client))
			break
		}
	}
	return corpus.Load(ctx, sources, opts...)
}

// embedPurpose selects how the embedder treats its input.
type embedPurpose int

const (
	embedQueries embedPurpose = iota
	embedDocuments
)

func buildEmbedder(ctx context.Context, appCfg *config.AppConfig, purpose embedPurpose, cl *closers) (domain.Embedder, error) {
	cfg := appCfg.Embedder
	switch cfg.Type {
	case "openai":
		c := cfg.OpenAI
		e, err := embopenai.NewClient(embopenai.Config{
			BaseURL:           c.BaseURL,
			APIKeyEnv:         c.APIKeyEnv,
			APIKey:            appCfg.APIKey(c.APIKeyEnv),
			Model:             c.Model,
			Timeout:           time.Duration(c.TimeoutSecs) * time.Second,
			MaxRetries:        c.MaxRetries,
			RequestsPerMinute: c.RequestsPerMinute,
		})
		if err != nil {
			return nil, err
		}
		return e, nil
	case "gemini":
		taskType := genai.TaskTypeRetrievalQuery
		if purpose == embedDocuments {
			taskType = genai.TaskTypeRetrievalDocument
		}
		e, err := embgemini.New(ctx, embgemini.Config{
			APIKeyEnv: cfg.Gemini.APIKeyEnv,
			APIKey:    appCfg.APIKey(cfg.Gemini.APIKeyEnv),
			Model:     cfg.Gemini.Model,
			TaskType:  taskType,
		})
		if err != nil {
			return nil, err
		}
		*cl = append(*cl, e)
		return e, nil
	}
	return nil, goerr.New("unknown embedder", goerr.V("type", cfg.Type))
}

func buildGenerator(ctx context.Context, appCfg *config.AppConfig, cl *closers) (domain.Generator, error) {
	cfg := appCfg.Generator
	switch cfg.Type {
	case "openai":
		c := cfg.OpenAI
		g, err := genopenai.New(genopenai.Config{
			BaseURL:           c.BaseURL,
			APIKeyEnv:         c.APIKeyEnv,
			APIKey:            appCfg.APIKey(c.APIKeyEnv),
			Model:             c.Model,
			Timeout:           time.Duration(c.TimeoutSecs) * time.Second,
			MaxRetries:        c.MaxRetries,
			RequestsPerMinute: c.RequestsPerMinute,
		})
		if err != nil {
			return nil, err
		}
		return g, nil
	case "bedrock":
		g, err := bedrock.New(ctx, bedrock.Config{
			Region:    cfg.Bedrock.Region,
			ModelID:   cfg.Bedrock.Model,
			MaxTokens: cfg.Bedrock.MaxTokens,
		})
		if err != nil {
			return nil, err
		}
		return g, nil
	case "gemini":
		g, err := gengemini.New(ctx, gengemini.Config{
			APIKeyEnv: cfg.Gemini.APIKeyEnv,
			APIKey:    appCfg.APIKey(cfg.Gemini.APIKeyEnv),
			Model:     cfg.Gemini.Model,
		})
		if err != nil {
			return nil, err
		}
		*cl = append(*cl, g)
		return g, nil
	}
	return nil, goerr.New("unknown generator", goerr.V("type", cfg.Type))
}

func buildStorage(cfg config.VectorStoreConfig, cl *closers) (vectorstore.Storage, error) {
	switch cfg.Type {
	case "memory":
		return memory.NewStorage(), nil
	case "qdrant":
		s, err := qdrant.NewStorage(qdrant.Config{Addr: cfg.Qdrant.Addr, Collection: cfg.Qdrant.Collection})
		if err != nil {
			return nil, err
		}
		*cl = append(*cl, s)
		return s, nil
	}
	return nil, goerr.New("unknown vector store", goerr.V("type", cfg.Type))
}

// app is the fully wired question answering pipeline.
type app struct {
	svc     *service.RAGService
	store   *corpus.Store
	summary string
}

// buildApp loads the corpus and wires the service. In memory mode the corpus is
// indexed into the store; in qdrant mode the collection is expected to be populated
// by the index command.
func buildApp(ctx context.Context, cfg *config.AppConfig, log zerolog.Logger, cl *closers) (*app, error) {
	store, err := loadCorpus(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	emb, err := buildEmbedder(ctx, cfg, embedQueries, cl)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create embedder")
	}
	gen, err := buildGenerator(ctx, cfg, cl)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create generator")
	}
	st, err := buildStorage(cfg.VectorStore, cl)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create vector store")
	}

	svc := service.NewRAGService(emb, st, gen,
		service.WithTopK(cfg.Retrieval.TopK),
		service.WithTemperature(cfg.Generator.Temperature),
		service.WithLogger(log),
	)
	switch cfg.VectorStore.Type {
	case "memory":
		if err := svc.Index(ctx, store.Chunks()); err != nil {
			return nil, err
		}
	case "qdrant":
		if store.Dimension() > 0 {
			if err := st.Init(ctx, store.Dimension()); err != nil {
				return nil, err
			}
		}
	}

	summary := fmt.Sprintf("%d chunks from %d sources • dim %d • %s • %s • %s",
		store.Len(), len(store.Stats()), store.Dimension(), emb.Name(), gen.Name(), cfg.VectorStore.Type)
	log.Info().
		Int("chunks", store.Len()).
		Int("dimension", store.Dimension()).
		Str("embedder", emb.Name()).
		Str("generator", gen.Name()).
		Str("vector_store", cfg.VectorStore.Type).
		Msg("pipeline ready")
	return &app{svc: svc, store: store, summary: summary}, nil
}
