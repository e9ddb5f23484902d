package gemini

import (
	"context"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/option"

	"vatcompanion/internal/domain"
)

// Config configures the Gemini generator.
type Config struct {
	APIKeyEnv string
	// APIKey takes precedence over APIKeyEnv when set.
	APIKey string
	Model  string
}

// Generator answers with a Gemini chat model.
type Generator struct {
	client *genai.Client
	model  string
	send   func(ctx context.Context, req request) (*genai.GenerateContentResponse, error)
}

type request struct {
	system      string
	history     []*genai.Content
	prompt      string
	temperature float32
}

// New creates a Gemini generator. Close releases the underlying client.
func New(ctx context.Context, cfg Config) (*Generator, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = strings.TrimSpace(os.Getenv(cfg.APIKeyEnv))
	}
	if apiKey == "" {
		return nil, goerr.New("missing API key", goerr.V("env", cfg.APIKeyEnv))
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-pro"
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create gemini client")
	}

	g := &Generator{client: client, model: cfg.Model}
	g.send = func(ctx context.Context, req request) (*genai.GenerateContentResponse, error) {
		model := client.GenerativeModel(cfg.Model)
		model.SetTemperature(req.temperature)
		if req.system != "" {
			model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.system)}}
		}
		cs := model.StartChat()
		cs.History = req.history
		return cs.SendMessage(ctx, genai.Text(req.prompt))
	}
	return g, nil
}

// Name returns the identifier of this generator.
func (g *Generator) Name() string { return "gemini:" + g.model }

// Generate sends the conversation and returns the concatenated text parts of the first candidate.
func (g *Generator) Generate(ctx context.Context, messages []domain.Message, temperature float64) (string, error) {
	req, err := buildRequest(messages, temperature)
	if err != nil {
		return "", domain.NewServiceError("gemini", err)
	}
	resp, err := g.send(ctx, req)
	if err != nil {
		return "", domain.NewServiceError("gemini", err)
	}
	text := responseText(resp)
	if strings.TrimSpace(text) == "" {
		return "", domain.NewServiceError("gemini", goerr.New("empty response", goerr.V("model", g.model)))
	}
	return text, nil
}

// Close releases the underlying client.
func (g *Generator) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}

// buildRequest moves system messages into the system instruction and sends the final user turn.
func buildRequest(messages []domain.Message, temperature float64) (request, error) {
	req := request{temperature: float32(temperature)}
	var system []string
	var turns []domain.Message
	for _, m := range messages {
		if m.Role == domain.RoleSystem {
			system = append(system, m.Content)
			continue
		}
		turns = append(turns, m)
	}
	req.system = strings.Join(system, "\n\n")

	if len(turns) == 0 || turns[len(turns)-1].Role != domain.RoleUser {
		return request{}, goerr.New("conversation must end with a user message")
	}
	for _, m := range turns[:len(turns)-1] {
		role := "user"
		if m.Role == domain.RoleAssistant {
			role = "model"
		}
		req.history = append(req.history, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(m.Content)}})
	}
	req.prompt = turns[len(turns)-1].Content
	return req, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	return sb.String()
}
