package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// resize lays out the viewport between the fixed header and footer blocks.
func (m *Model) resize() {
	_, bh := m.styles.box.GetFrameSize()
	historyLines := min(len(m.sess.History), m.cfg.HistorySize) + 1
	reserved := 2 + // header + summary
		(historyLines + bh) +
		(1 + bh) + // input
		2 // status + help
	vh := m.height - reserved - bh
	m.viewport.Width = max(20, m.width-4)
	m.viewport.Height = max(3, vh)
	m.input.Width = max(10, m.width-8)
	m.refresh()
}

// refresh re-renders the viewport content for the current pane.
func (m *Model) refresh() {
	if m.pane == paneSources {
		m.viewport.SetContent(m.renderCurrentSource())
	} else {
		m.viewport.SetContent(m.renderAnswer())
	}
}

func (m Model) renderAnswer() string {
	if m.answer.Text == "" {
		return m.styles.muted.Render("No answer yet.")
	}
	title := m.styles.title.Render("Q: " + m.answer.Question)
	return title + "\n\n" + lipgloss.NewStyle().Width(m.viewport.Width).Render(m.answer.Text)
}

func (m Model) renderCurrentSource() string {
	if len(m.answer.Sources) == 0 {
		return m.styles.muted.Render("No sources yet.")
	}
	r := m.answer.Sources[m.cursor]
	title := m.styles.title.Render(fmt.Sprintf("Source %d/%d  score=%.3f  %s",
		m.cursor+1, len(m.answer.Sources), r.Score, r.Chunk.Reference()))
	body := highlightBestSentence(r.Chunk.Text, m.answer.Question, m.styles.highlight)
	return title + "\n\n" + lipgloss.NewStyle().Width(m.viewport.Width).Render(body)
}

func (m Model) renderHistory() string {
	recent := m.sess.RecentQuestions(m.cfg.HistorySize)
	if len(recent) == 0 {
		return m.styles.muted.Render("📚 No previous questions")
	}
	lines := []string{m.styles.title.Render("📚 Your Previous Questions")}
	for i, q := range recent {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, q))
	}
	return strings.Join(lines, "\n")
}
