package domain

import (
	"context"
	"fmt"
	"strings"
)

// Document is a raw legal text file fed to the corpus builder.
type Document struct {
	ID      string
	Path    string
	Source  string
	Content string
}

// Chunk is one retrievable unit of legal text with its precomputed embedding.
// Structural identifiers are optional; an empty string means the field was absent.
type Chunk struct {
	Source        string
	TitleNumber   string
	TitleName     string
	ChapterNumber string
	ChapterName   string
	ArticleNumber string
	ArticleName   string
	ClauseNumber  string
	Text          string
	Embedding     []float64
}

// Reference renders a short citation such as "VAT_Decree_Law_2017 - Article (12) Clause 4".
func (c Chunk) Reference() string {
	parts := []string{c.Source}
	if c.ArticleNumber != "" {
		parts = append(parts, "Article ("+c.ArticleNumber+")")
	}
	if c.ClauseNumber != "" {
		parts = append(parts, "Clause "+c.ClauseNumber)
	}
	if len(parts) == 1 {
		return c.Source
	}
	return parts[0] + " - " + strings.Join(parts[1:], " ")
}

// RankedResult pairs a chunk with its cosine score and 1-based rank.
type RankedResult struct {
	Chunk Chunk
	Score float64
	Rank  int
}

func (r RankedResult) String() string {
	return fmt.Sprintf("#%d %s (%.3f)", r.Rank, r.Chunk.Reference(), r.Score)
}

// Role tags a chat message for the answer generator.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one role-tagged entry of a chat-completion request.
type Message struct {
	Role    Role
	Content string
}

// Embedder converts free text into a dense vector matching the corpus embedding space.
type Embedder interface {
	Name() string
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Generator produces a free-text answer from a role-tagged message list.
type Generator interface {
	Name() string
	Generate(ctx context.Context, messages []Message, temperature float64) (string, error)
}

// Chunker splits raw documents into chunks suitable for embedding.
type Chunker interface {
	Chunk(document Document) ([]Chunk, error)
}
