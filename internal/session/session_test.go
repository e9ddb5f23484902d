package session_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"

	"vatcompanion/internal/domain"
	"vatcompanion/internal/session"
)

func TestNew(t *testing.T) {
	a := session.New(session.ThemeDark)
	b := session.New("")
	gt.String(t, a.ID).NotEqual(b.ID)
	gt.Value(t, a.Theme).Equal(session.ThemeDark)
	gt.Value(t, b.Theme).Equal(session.ThemeLight)
	gt.Bool(t, a.HasAnswer()).False()
}

func TestRecentQuestionsNewestFirst(t *testing.T) {
	s := session.New(session.ThemeLight)
	for _, q := range []string{"q1", "q2", "q3", "q4", "q5", "q6", "q7"} {
		s = s.WithQuestion(q)
	}
	s = s.WithQuestion("   ")

	gt.Value(t, s.RecentQuestions(5)).Equal([]string{"q7", "q6", "q5", "q4", "q3"})
	gt.Value(t, s.RecentQuestions(10)).Equal([]string{"q7", "q6", "q5", "q4", "q3", "q2", "q1"})
	gt.Array(t, s.RecentQuestions(0)).Length(0)
	gt.Array(t, s.History).Length(7)
}

func TestSessionIsAValue(t *testing.T) {
	base := session.New(session.ThemeLight).WithQuestion("q1")
	a := base.WithQuestion("a")
	b := base.WithQuestion("b")

	gt.Value(t, base.History).Equal([]string{"q1"})
	gt.Value(t, a.History).Equal([]string{"q1", "a"})
	gt.Value(t, b.History).Equal([]string{"q1", "b"})

	toggled := base.ToggleTheme()
	gt.Value(t, base.Theme).Equal(session.ThemeLight)
	gt.Value(t, toggled.Theme).Equal(session.ThemeDark)
	gt.Value(t, toggled.ToggleTheme().Theme).Equal(session.ThemeLight)
}

func TestFeedback(t *testing.T) {
	s := session.New(session.ThemeLight)
	_, err := s.WithFeedback(true, "")
	gt.Error(t, err).Is(domain.ErrNoAnswer)

	s = s.WithQuestion("Is VAT applicable on free samples?").
		WithAnswer("Is VAT applicable on free samples?", "✅ Answer ...")
	s, err = s.WithFeedback(false, "  missing Article 12  ")
	gt.NoError(t, err).Required()

	gt.Array(t, s.Feedback).Length(1).Required()
	gt.Value(t, s.Feedback[0].Question).Equal("Is VAT applicable on free samples?")
	gt.Bool(t, s.Feedback[0].Helpful).False()
	gt.Value(t, s.Feedback[0].Comment).Equal("missing Article 12")
}

func TestExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "vat_response.txt")

	err := session.New(session.ThemeLight).Export(path)
	gt.Error(t, err).Is(domain.ErrNoAnswer)

	s := session.New(session.ThemeLight).WithAnswer("q", "the answer")
	gt.NoError(t, s.Export(path)).Required()
	data, err := os.ReadFile(path)
	gt.NoError(t, err).Required()
	gt.Value(t, string(data)).Equal("the answer")
}
