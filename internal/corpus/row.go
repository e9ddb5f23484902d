package corpus

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"vatcompanion/internal/domain"
)

// DefaultSourceLabel is used when neither the configuration nor the row names a source.
const DefaultSourceLabel = "Source"

// Row is one serialized corpus row. Structural identifiers are optional.
type Row struct {
	Embedding     []float64 `json:"embedding" yaml:"embedding"`
	Text          string    `json:"text" yaml:"text"`
	ClauseText    string    `json:"clause_text,omitempty" yaml:"clause_text,omitempty"`
	Source        string    `json:"source,omitempty" yaml:"source,omitempty"`
	TitleNumber   Label     `json:"title_number,omitempty" yaml:"title_number,omitempty"`
	TitleName     string    `json:"title_name,omitempty" yaml:"title_name,omitempty"`
	ChapterNumber Label     `json:"chapter_number,omitempty" yaml:"chapter_number,omitempty"`
	ChapterName   string    `json:"chapter_name,omitempty" yaml:"chapter_name,omitempty"`
	ArticleNumber Label     `json:"article_number,omitempty" yaml:"article_number,omitempty"`
	ArticleName   string    `json:"article_name,omitempty" yaml:"article_name,omitempty"`
	ClauseNumber  Label     `json:"clause_number,omitempty" yaml:"clause_number,omitempty"`
}

// HasEmbedding reports whether the row carries a usable vector.
func (r Row) HasEmbedding() bool { return len(r.Embedding) > 0 }

// toChunk resolves fallbacks: clause_text over text, configured label over the row's source.
func (r Row) toChunk(label string) domain.Chunk {
	text := strings.TrimSpace(r.ClauseText)
	if text == "" {
		text = strings.TrimSpace(r.Text)
	}
	source := label
	if source == "" {
		source = strings.TrimSpace(r.Source)
	}
	if source == "" {
		source = DefaultSourceLabel
	}
	return domain.Chunk{
		Source:        source,
		TitleNumber:   string(r.TitleNumber),
		TitleName:     strings.TrimSpace(r.TitleName),
		ChapterNumber: string(r.ChapterNumber),
		ChapterName:   strings.TrimSpace(r.ChapterName),
		ArticleNumber: string(r.ArticleNumber),
		ArticleName:   strings.TrimSpace(r.ArticleName),
		ClauseNumber:  string(r.ClauseNumber),
		Text:          text,
		Embedding:     r.Embedding,
	}
}

// RowFromChunk is the inverse of toChunk, used when writing a corpus.
func RowFromChunk(c domain.Chunk) Row {
	return Row{
		Embedding:     c.Embedding,
		Text:          c.Text,
		Source:        c.Source,
		TitleNumber:   Label(c.TitleNumber),
		TitleName:     c.TitleName,
		ChapterNumber: Label(c.ChapterNumber),
		ChapterName:   c.ChapterName,
		ArticleNumber: Label(c.ArticleNumber),
		ArticleName:   c.ArticleName,
		ClauseNumber:  Label(c.ClauseNumber),
	}
}

// Label is a structural identifier that may be serialized as a number or a string.
// Integral floats such as 12.0 normalise to "12"; null becomes empty.
type Label string

func (l *Label) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = Label(normalizeLabel(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*l = Label(normalizeLabel(n.String()))
	return nil
}

func (l *Label) UnmarshalYAML(node *yaml.Node) error {
	if node.Tag == "!!null" {
		*l = ""
		return nil
	}
	*l = Label(normalizeLabel(node.Value))
	return nil
}

func normalizeLabel(s string) string {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "nan", "none", "null":
		return ""
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == float64(int64(f)) && strings.ContainsAny(s, ".eE") {
		return strconv.FormatInt(int64(f), 10)
	}
	return s
}
