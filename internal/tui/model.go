package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"vatcompanion/internal/service"
	"vatcompanion/internal/session"
)

// RAGPort is the TUI-facing subset of the RAG service.
type RAGPort interface {
	Ask(ctx context.Context, sess session.Session, question string) (session.Session, service.Answer, error)
}

// Config holds presentation settings.
type Config struct {
	Theme       session.Theme
	HistorySize int
	ExportPath  string
	// Summary is shown under the header, e.g. corpus statistics.
	Summary string
	Timeout time.Duration
	Logger  zerolog.Logger
}

type mode int

const (
	modeQuestion mode = iota
	modeComment
)

type pane int

const (
	paneAnswer pane = iota
	paneSources
)

// answerMsg carries the result of an asynchronous Ask.
type answerMsg struct {
	sess   session.Session
	answer service.Answer
	err    error
}

// Model is the Bubble Tea model for the TUI application.
type Model struct {
	service  RAGPort
	cfg      Config
	sess     session.Session
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	styles   styles

	answer  service.Answer
	status  string
	pending bool
	mode    mode
	pane    pane
	cursor  int
	helpful bool
	ready   bool
	width   int
	height  int
}

// New creates a new TUI model instance.
func New(svc RAGPort, cfg Config) Model {
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = 5
	}
	if cfg.ExportPath == "" {
		cfg.ExportPath = "vat_response.txt"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 3 * time.Minute
	}
	sess := session.New(cfg.Theme)

	ti := textinput.New()
	ti.Prompt = "💬 "
	ti.Placeholder = "e.g., Is VAT applicable on free samples?"
	ti.Focus()
	ti.CharLimit = 0

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		service:  svc,
		cfg:      cfg,
		sess:     sess,
		input:    ti,
		viewport: viewport.New(0, 0),
		spinner:  sp,
		styles:   newStyles(sess.Theme),
		status:   "Ask your VAT question and press Enter.",
	}
}

// Session returns the current session state.
func (m Model) Session() session.Session { return m.sess }

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case spinner.TickMsg:
		if !m.pending {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case answerMsg:
		m.pending = false
		// keep changes made while the request was pending, such as the theme
		m.sess.History = msg.sess.History
		m.sess.LastQuestion = msg.sess.LastQuestion
		m.sess.LastAnswer = msg.sess.LastAnswer
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			m.styles.statusIsError = true
		} else {
			m.answer = msg.answer
			m.cursor = 0
			m.pane = paneAnswer
			m.status = fmt.Sprintf("✅ Here's your answer (%d sources, %s). Ctrl+Y/Ctrl+N to rate, Ctrl+S to save.",
				len(msg.answer.Sources), msg.answer.Elapsed.Round(100*time.Millisecond))
			m.styles.statusIsError = false
		}
		if m.ready {
			// history panel height changed
			m.resize()
		} else {
			m.refresh()
		}
		return m, nil

	case tea.KeyMsg:
		// Global quits
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		if m.mode == modeComment {
			return m.updateComment(msg)
		}
		switch msg.String() {
		case "enter":
			return m.submit()
		case "ctrl+y", "ctrl+n":
			if !m.sess.HasAnswer() || m.pending {
				m.setStatus("Ask a question first.", true)
				return m, nil
			}
			m.helpful = msg.String() == "ctrl+y"
			m.mode = modeComment
			m.input.SetValue("")
			m.input.Prompt = "📝 "
			m.input.Placeholder = "Optional comment, Enter to submit, Esc to skip"
			return m, nil
		case "ctrl+s":
			if err := m.sess.Export(m.cfg.ExportPath); err != nil {
				m.setStatus("Error: "+err.Error(), true)
			} else {
				m.setStatus("⬇️ Saved answer to "+m.cfg.ExportPath, false)
			}
			return m, nil
		case "ctrl+t":
			m.sess = m.sess.ToggleTheme()
			isErr := m.styles.statusIsError
			m.styles = newStyles(m.sess.Theme)
			m.styles.statusIsError = isErr
			m.refresh()
			return m, nil
		case "tab":
			if len(m.answer.Sources) > 0 {
				m.pane = 1 - m.pane
				m.refresh()
			}
			return m, nil
		case "down":
			if m.pane == paneSources && len(m.answer.Sources) > 0 {
				m.cursor = (m.cursor + 1) % len(m.answer.Sources)
				m.refresh()
				return m, nil
			}
		case "up":
			if m.pane == paneSources && len(m.answer.Sources) > 0 {
				m.cursor = (m.cursor - 1 + len(m.answer.Sources)) % len(m.answer.Sources)
				m.refresh()
				return m, nil
			}
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}
	if m.pending {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.pending {
		return m, nil
	}
	q := strings.TrimSpace(m.input.Value())
	if q == "" {
		return m, nil
	}
	m.pending = true
	m.input.SetValue("")
	m.setStatus("Searching the VAT corpus and drafting an answer...", false)
	return m, tea.Batch(m.spinner.Tick, m.ask(q))
}

func (m Model) ask(q string) tea.Cmd {
	svc, sess, timeout := m.service, m.sess, m.cfg.Timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		next, ans, err := svc.Ask(ctx, sess, q)
		return answerMsg{sess: next, answer: ans, err: err}
	}
}

func (m Model) updateComment(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter, tea.KeyEsc:
		comment := ""
		if msg.Type == tea.KeyEnter {
			comment = m.input.Value()
		}
		next, err := m.sess.WithFeedback(m.helpful, comment)
		if err != nil {
			m.setStatus("Error: "+err.Error(), true)
		} else {
			m.sess = next
			fb := next.Feedback[len(next.Feedback)-1]
			m.cfg.Logger.Info().
				Str("session", next.ID).
				Str("question", fb.Question).
				Bool("helpful", fb.Helpful).
				Str("comment", fb.Comment).
				Msg("feedback recorded")
			m.setStatus("✅ Thank you for your feedback!", false)
		}
		m.mode = modeQuestion
		m.input.SetValue("")
		m.input.Prompt = "💬 "
		m.input.Placeholder = "Ask another question"
		m.refresh()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) setStatus(s string, isErr bool) {
	m.status = s
	m.styles.statusIsError = isErr
}

// View renders the TUI layout and current answer.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := m.styles.header.Render("🇦🇪 UAE VAT Companion")
	summary := m.styles.muted.Render(m.cfg.Summary)
	body := m.styles.box.Render(m.viewport.View())
	history := m.styles.box.Render(m.renderHistory())
	input := m.styles.box.Render(m.input.View())

	status := m.styles.status().Render(m.status)
	if m.pending {
		status = m.spinner.View() + " " + status
	}
	help := m.styles.muted.Render("enter ask • tab answer/sources • ctrl+y/n feedback • ctrl+s save • ctrl+t theme • ctrl+c quit")
	return strings.Join([]string{header, summary, body, history, input, status, help}, "\n")
}
