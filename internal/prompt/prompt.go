// Package prompt renders ranked chunks and the user question into the messages sent to the generator.
package prompt

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"vatcompanion/internal/domain"
)

//go:embed system.tmpl
var systemPrompt string

//go:embed user.tmpl
var userTemplateText string

var userTemplate = template.Must(template.New("user").Parse(userTemplateText))

// BuildContext renders ranked results in rank order, one block per chunk.
// Structural lines are omitted when the chunk has no identifier or name for them.
func BuildContext(results []domain.RankedResult) string {
	var sb strings.Builder
	for _, r := range results {
		c := r.Chunk
		fmt.Fprintf(&sb, "📜 Reference: %s\n", c.Source)
		writeLevel(&sb, "Title", c.TitleNumber, c.TitleName)
		writeLevel(&sb, "Chapter", c.ChapterNumber, c.ChapterName)
		writeLevel(&sb, "Article", c.ArticleNumber, c.ArticleName)
		if c.ClauseNumber != "" {
			fmt.Fprintf(&sb, "📘 Clause %s:\n", c.ClauseNumber)
		}
		sb.WriteString(strings.TrimSpace(c.Text))
		sb.WriteString("\n\n---\n")
	}
	return sb.String()
}

func writeLevel(sb *strings.Builder, level, number, name string) {
	if number == "" && name == "" {
		return
	}
	fmt.Fprintf(sb, "📘 %s %s: %s\n", level, number, name)
}

// BuildMessages returns the system instructions and the user turn carrying context and question.
func BuildMessages(question, context string) ([]domain.Message, error) {
	var sb strings.Builder
	err := userTemplate.Execute(&sb, struct {
		Context  string
		Question string
	}{Context: strings.TrimSpace(context), Question: strings.TrimSpace(question)})
	if err != nil {
		return nil, err
	}
	return []domain.Message{
		{Role: domain.RoleSystem, Content: strings.TrimSpace(systemPrompt)},
		{Role: domain.RoleUser, Content: sb.String()},
	}, nil
}
