// Package service wires embedding, ranking, prompt assembly and generation into one request.
package service

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/rs/zerolog"

	"vatcompanion/internal/domain"
	"vatcompanion/internal/prompt"
	"vatcompanion/internal/ranker"
	"vatcompanion/internal/session"
	"vatcompanion/internal/vectorstore"
)

// DefaultTemperature is the sampling temperature for answers.
const DefaultTemperature = 0.3

// ErrEmptyQuestion is returned when the submitted question is blank.
var ErrEmptyQuestion = goerr.New("question is empty")

// Answer is the outcome of one question.
type Answer struct {
	Question string
	Text     string
	Sources  []domain.RankedResult
	Elapsed  time.Duration
}

type RAGService struct {
	embedder    domain.Embedder
	store       vectorstore.Storage
	generator   domain.Generator
	topK        int
	temperature float64
	logger      zerolog.Logger
}

// Option configures the service.
type Option func(*RAGService)

func WithTopK(k int) Option {
	return func(s *RAGService) { s.topK = k }
}

func WithTemperature(t float64) Option {
	return func(s *RAGService) { s.temperature = t }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *RAGService) { s.logger = l }
}

func NewRAGService(embedder domain.Embedder, store vectorstore.Storage, generator domain.Generator, opts ...Option) *RAGService {
	s := &RAGService{
		embedder:    embedder,
		store:       store,
		generator:   generator,
		topK:        ranker.DefaultK,
		temperature: DefaultTemperature,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TopK returns the configured number of chunks fed to the prompt.
func (s *RAGService) TopK() int { return s.topK }

// Index replaces the store contents with the given chunks.
func (s *RAGService) Index(ctx context.Context, chunks []domain.Chunk) error {
	dim := 0
	if len(chunks) > 0 {
		dim = len(chunks[0].Embedding)
	}
	if err := s.store.Clear(ctx); err != nil {
		return err
	}
	if err := s.store.Init(ctx, dim); err != nil {
		return err
	}
	if err := s.store.Upsert(ctx, chunks); err != nil {
		return err
	}
	s.logger.Info().Int("chunks", len(chunks)).Int("dimension", dim).Msg("corpus indexed")
	return nil
}

// Retrieve embeds the question and returns the k most similar chunks. k <= 0 uses the configured default.
func (s *RAGService) Retrieve(ctx context.Context, question string, k int) ([]domain.RankedResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}
	if k <= 0 {
		k = s.topK
	}
	vec, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return nil, domain.NewServiceError(s.embedder.Name(), err)
	}
	results, err := s.store.Search(ctx, vec, k)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to rank corpus", goerr.V("k", k), goerr.V("dimension", len(vec)))
	}
	return results, nil
}

// Ask answers question and returns the session extended with the question and, on success, the answer.
// Failures abort only this request; the returned session stays usable.
func (s *RAGService) Ask(ctx context.Context, sess session.Session, question string) (session.Session, Answer, error) {
	start := time.Now()
	question = strings.TrimSpace(question)
	if question == "" {
		return sess, Answer{}, ErrEmptyQuestion
	}
	sess = sess.WithQuestion(question)

	results, err := s.Retrieve(ctx, question, s.topK)
	if err != nil {
		s.logger.Warn().Err(err).Str("session", sess.ID).Msg("retrieval failed")
		return sess, Answer{}, err
	}

	messages, err := prompt.BuildMessages(question, prompt.BuildContext(results))
	if err != nil {
		return sess, Answer{}, goerr.Wrap(err, "failed to build prompt")
	}
	text, err := s.generator.Generate(ctx, messages, s.temperature)
	if err != nil {
		s.logger.Warn().Err(err).Str("session", sess.ID).Msg("generation failed")
		return sess, Answer{}, domain.NewServiceError(s.generator.Name(), err)
	}

	ans := Answer{Question: question, Text: text, Sources: results, Elapsed: time.Since(start)}
	s.logger.Info().
		Str("session", sess.ID).
		Int("sources", len(results)).
		Float64("top_score", results[0].Score).
		Dur("elapsed", ans.Elapsed).
		Msg("question answered")
	return sess.WithAnswer(question, text), ans, nil
}

// BuildCorpus chunks the .txt files matched by paths, embeds every chunk and returns them in file order.
// label tags every chunk; when empty the file name without extension is used.
func (s *RAGService) BuildCorpus(ctx context.Context, chunker domain.Chunker, paths []string, label string) ([]domain.Chunk, error) {
	var documents []domain.Document
	for _, p := range paths {
		matches, err := filepath.Glob(p)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid document pattern", goerr.V("pattern", p))
		}
		if matches == nil {
			matches = []string{p}
		}
		for _, m := range matches {
			if !strings.HasSuffix(strings.ToLower(m), ".txt") {
				continue
			}
			data, err := os.ReadFile(m)
			if err != nil {
				return nil, goerr.Wrap(err, "failed to read document", goerr.V("path", m))
			}
			source := label
			if source == "" {
				source = strings.TrimSuffix(filepath.Base(m), filepath.Ext(m))
			}
			documents = append(documents, domain.Document{ID: hashString(m), Path: m, Source: source, Content: string(data)})
		}
	}
	if len(documents) == 0 {
		return nil, goerr.New("no .txt documents found", goerr.V("paths", paths))
	}

	var out []domain.Chunk
	for _, d := range documents {
		chunks, err := chunker.Chunk(d)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to chunk document", goerr.V("path", d.Path))
		}
		for _, ch := range chunks {
			vec, err := s.embedder.Embed(ctx, ch.Text)
			if err != nil {
				return nil, domain.NewServiceError(s.embedder.Name(), err)
			}
			ch.Embedding = vec
			out = append(out, ch)
		}
		s.logger.Info().Str("path", d.Path).Str("id", d.ID).Int("chunks", len(chunks)).Msg("document embedded")
	}
	return out, nil
}

func hashString(s string) string {
	h := sha1.Sum([]byte(s))
	return hex.EncodeToString(h[:8])
}
