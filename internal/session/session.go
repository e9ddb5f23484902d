// Package session holds the per-session log of questions, answers and feedback.
// A Session is a value: every change returns a new Session and leaves the receiver untouched.
package session

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"

	"vatcompanion/internal/domain"
)

// Theme is the presentation theme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Feedback is one helpful/not-helpful verdict on an answer.
type Feedback struct {
	Question  string
	Helpful   bool
	Comment   string
	CreatedAt time.Time
}

// Session is the ephemeral log of one interactive user.
type Session struct {
	ID           string
	History      []string
	Feedback     []Feedback
	LastQuestion string
	LastAnswer   string
	Theme        Theme
}

// New starts an empty session.
func New(theme Theme) Session {
	if theme != ThemeDark {
		theme = ThemeLight
	}
	return Session{ID: uuid.NewString(), Theme: theme}
}

// WithQuestion records a submitted question.
func (s Session) WithQuestion(q string) Session {
	q = strings.TrimSpace(q)
	if q == "" {
		return s
	}
	s.History = append(slices.Clip(s.History), q)
	return s
}

// WithAnswer records the answer to question as the latest one.
func (s Session) WithAnswer(question, answer string) Session {
	s.LastQuestion = question
	s.LastAnswer = answer
	return s
}

// HasAnswer reports whether there is an answer to give feedback on or export.
func (s Session) HasAnswer() bool { return s.LastAnswer != "" }

// WithFeedback attaches feedback to the last answered question.
func (s Session) WithFeedback(helpful bool, comment string) (Session, error) {
	if !s.HasAnswer() {
		return s, goerr.Wrap(domain.ErrNoAnswer, "feedback requires an answer")
	}
	s.Feedback = append(slices.Clip(s.Feedback), Feedback{
		Question:  s.LastQuestion,
		Helpful:   helpful,
		Comment:   strings.TrimSpace(comment),
		CreatedAt: time.Now(),
	})
	return s, nil
}

// RecentQuestions returns up to n questions, newest first.
func (s Session) RecentQuestions(n int) []string {
	if n <= 0 || len(s.History) == 0 {
		return nil
	}
	start := max(len(s.History)-n, 0)
	out := slices.Clone(s.History[start:])
	slices.Reverse(out)
	return out
}

// ToggleTheme switches between light and dark.
func (s Session) ToggleTheme() Session {
	if s.Theme == ThemeDark {
		s.Theme = ThemeLight
	} else {
		s.Theme = ThemeDark
	}
	return s
}

// Export writes the last answer as plain text to path.
func (s Session) Export(path string) error {
	if !s.HasAnswer() {
		return goerr.Wrap(domain.ErrNoAnswer, "nothing to export")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return goerr.Wrap(err, "failed to create export directory", goerr.V("path", path))
		}
	}
	if err := os.WriteFile(path, []byte(s.LastAnswer), 0o644); err != nil {
		return goerr.Wrap(err, "failed to export answer", goerr.V("path", path))
	}
	return nil
}
