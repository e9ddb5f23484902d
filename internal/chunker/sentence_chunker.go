package chunker

import (
	"regexp"
	"strings"

	"vatcompanion/internal/domain"
)

// SentenceChunker splits text into sentence-based chunks with overlap.
type SentenceChunker struct {
	sentencesPerChunk int
	overlapSentences  int
}

// sentenceEnd matches terminators followed by whitespace or end of text, so
// decimals like 187.5 stay whole.
var sentenceEnd = regexp.MustCompile(`[.!?]+(\s+|$)`)

func NewSentenceChunker(sentencesPerChunk, overlapSentences int) *SentenceChunker {
	if sentencesPerChunk <= 0 {
		sentencesPerChunk = 5
	}
	if overlapSentences < 0 {
		overlapSentences = 0
	}
	if overlapSentences >= sentencesPerChunk {
		overlapSentences = sentencesPerChunk - 1
	}
	return &SentenceChunker{
		sentencesPerChunk: sentencesPerChunk,
		overlapSentences:  overlapSentences,
	}
}

func (c *SentenceChunker) Chunk(document domain.Document) ([]domain.Chunk, error) {
	var chunks []domain.Chunk
	for _, text := range c.split(document.Content) {
		chunks = append(chunks, domain.Chunk{Source: document.Source, Text: text})
	}
	return chunks, nil
}

// split groups sentences into windows of sentencesPerChunk, overlapping by overlapSentences.
func (c *SentenceChunker) split(content string) []string {
	sentences := Sentences(content)
	var out []string
	i := 0
	for i < len(sentences) {
		end := min(i+c.sentencesPerChunk, len(sentences))
		out = append(out, strings.Join(sentences[i:end], " "))
		if end == len(sentences) {
			break
		}
		i = max(end-c.overlapSentences, 0)
	}
	return out
}

// Sentences splits text into whitespace-normalized sentences. Text after the
// last terminator is kept as a final sentence.
func Sentences(text string) []string {
	var out []string
	last := 0
	for _, loc := range sentenceEnd.FindAllStringSubmatchIndex(text, -1) {
		if s := strings.Join(strings.Fields(text[last:loc[2]]), " "); s != "" {
			out = append(out, s)
		}
		last = loc[1]
	}
	if tail := strings.Join(strings.Fields(text[last:]), " "); tail != "" {
		out = append(out, tail)
	}
	return out
}
