package tui

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"vatcompanion/internal/chunker"
	"vatcompanion/internal/session"
)

type styles struct {
	header        lipgloss.Style
	title         lipgloss.Style
	muted         lipgloss.Style
	box           lipgloss.Style
	highlight     lipgloss.Style
	ok            lipgloss.Style
	err           lipgloss.Style
	statusIsError bool
}

func newStyles(theme session.Theme) styles {
	fg, muted, accent, border := lipgloss.Color("0"), lipgloss.Color("8"), lipgloss.Color("4"), lipgloss.Color("7")
	if theme == session.ThemeDark {
		fg, muted, accent, border = lipgloss.Color("15"), lipgloss.Color("245"), lipgloss.Color("11"), lipgloss.Color("240")
	}
	return styles{
		header:    lipgloss.NewStyle().Bold(true).Foreground(accent),
		title:     lipgloss.NewStyle().Bold(true).Foreground(fg),
		muted:     lipgloss.NewStyle().Foreground(muted),
		box:       lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(border).Padding(0, 1),
		highlight: lipgloss.NewStyle().Foreground(accent).Bold(true),
		ok:        lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		err:       lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	}
}

func (s styles) status() lipgloss.Style {
	if s.statusIsError {
		return s.err
	}
	return s.ok
}

var unicodeWordRe = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)

// highlightBestSentence renders the sentence sharing the most words with query in style.
func highlightBestSentence(text, query string, style lipgloss.Style) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	sentences := chunker.Sentences(text)
	qTokens := toTokenSet(query)
	if len(qTokens) == 0 {
		return strings.Join(sentences, " ")
	}
	bestIdx := 0
	bestScore := -1
	for i, s := range sentences {
		score := tokenOverlapScore(qTokens, s)
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	sentences[bestIdx] = style.Render(sentences[bestIdx])
	return strings.Join(sentences, " ")
}

func toTokenSet(s string) map[string]struct{} {
	tokens := unicodeWordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

func tokenOverlapScore(queryTokens map[string]struct{}, sentence string) int {
	score := 0
	tokens := unicodeWordRe.FindAllString(strings.ToLower(sentence), -1)
	seen := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := queryTokens[t]; ok {
			score++
		}
	}
	return score
}
