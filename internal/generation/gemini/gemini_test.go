package gemini

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/m-mizutani/gt"

	"vatcompanion/internal/domain"
)

func TestBuildRequest(t *testing.T) {
	req, err := buildRequest([]domain.Message{
		{Role: domain.RoleSystem, Content: "sys"},
		{Role: domain.RoleUser, Content: "first"},
		{Role: domain.RoleAssistant, Content: "reply"},
		{Role: domain.RoleUser, Content: "second"},
	}, 0.3)
	gt.NoError(t, err).Required()

	gt.Value(t, req.system).Equal("sys")
	gt.Value(t, req.prompt).Equal("second")
	gt.Value(t, req.temperature).Equal(float32(0.3))
	gt.Array(t, req.history).Length(2).Required()
	gt.Value(t, req.history[0].Role).Equal("user")
	gt.Value(t, req.history[1].Role).Equal("model")

	_, err = buildRequest([]domain.Message{{Role: domain.RoleSystem, Content: "sys"}}, 0)
	gt.Error(t, err)
}

func TestGenerate(t *testing.T) {
	g := &Generator{model: "m", send: func(ctx context.Context, req request) (*genai.GenerateContentResponse, error) {
		gt.Value(t, req.prompt).Equal("q")
		return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text("✅ Answer: "), genai.Text("yes")}},
		}}}, nil
	}}

	out, err := g.Generate(context.Background(), []domain.Message{{Role: domain.RoleUser, Content: "q"}}, 0.3)
	gt.NoError(t, err).Required()
	gt.Value(t, out).Equal("✅ Answer: yes")
	gt.NoError(t, g.Close())
}

func TestGenerateErrors(t *testing.T) {
	cause := errors.New("blocked")
	g := &Generator{model: "m", send: func(context.Context, request) (*genai.GenerateContentResponse, error) { return nil, cause }}
	_, err := g.Generate(context.Background(), []domain.Message{{Role: domain.RoleUser, Content: "q"}}, 0)
	gt.Error(t, err).Is(domain.ErrExternalService)
	gt.Error(t, err).Is(cause)

	g.send = func(context.Context, request) (*genai.GenerateContentResponse, error) {
		return &genai.GenerateContentResponse{}, nil
	}
	_, err = g.Generate(context.Background(), []domain.Message{{Role: domain.RoleUser, Content: "q"}}, 0)
	gt.Error(t, err).Is(domain.ErrExternalService)
}

func TestGeminiLive(t *testing.T) {
	if os.Getenv("TEST_GEMINI_API_KEY") == "" {
		t.Skip("TEST_GEMINI_API_KEY not set")
	}
	ctx := context.Background()
	g, err := New(ctx, Config{APIKeyEnv: "TEST_GEMINI_API_KEY"})
	gt.NoError(t, err).Required()
	defer g.Close()

	out, err := g.Generate(ctx, []domain.Message{{Role: domain.RoleUser, Content: "Reply with the word ok."}}, 0)
	gt.NoError(t, err).Required()
	gt.Bool(t, len(out) > 0).True()
}
