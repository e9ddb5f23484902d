package bedrock

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/m-mizutani/goerr/v2"

	"vatcompanion/internal/domain"
)

// Invoker is the subset of the Bedrock runtime client used here.
type Invoker interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Config configures the Claude generator.
type Config struct {
	Region       string
	ModelID      string
	MaxTokens    int
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// Client generates answers with an Anthropic Claude model on Bedrock.
type Client struct {
	client       Invoker
	modelID      string
	maxTokens    int
	maxRetries   int
	initialDelay time.Duration
	maxDelay     time.Duration
}

// New loads the default AWS configuration for the region and creates a client.
func New(ctx context.Context, cfg Config) (*Client, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load AWS config", goerr.V("region", cfg.Region))
	}
	return NewWithInvoker(bedrockruntime.NewFromConfig(awsCfg), cfg), nil
}

// NewWithInvoker creates a client around an existing runtime client.
func NewWithInvoker(inv Invoker, cfg Config) *Client {
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 2048
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.InitialDelay == 0 {
		cfg.InitialDelay = 500 * time.Millisecond
	}
	if cfg.MaxDelay == 0 {
		cfg.MaxDelay = 10 * time.Second
	}
	return &Client{
		client:       inv,
		modelID:      cfg.ModelID,
		maxTokens:    cfg.MaxTokens,
		maxRetries:   cfg.MaxRetries,
		initialDelay: cfg.InitialDelay,
		maxDelay:     cfg.MaxDelay,
	}
}

// Name returns the identifier of this generator.
func (c *Client) Name() string { return "bedrock:" + c.modelID }

type claudeMessageRequest struct {
	AnthropicVersion string          `json:"anthropic_version"`
	MaxTokens        int             `json:"max_tokens"`
	Temperature      float64         `json:"temperature"`
	System           string          `json:"system,omitempty"`
	Messages         []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeMessageResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

var anthropicVersion = "bedrock-2023-05-31"

// Generate invokes the model, retrying throttling and transient service errors.
func (c *Client) Generate(ctx context.Context, messages []domain.Message, temperature float64) (string, error) {
	payload := claudeMessageRequest{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        c.maxTokens,
		Temperature:      temperature,
	}
	var system []string
	for _, m := range messages {
		if m.Role == domain.RoleSystem {
			system = append(system, m.Content)
			continue
		}
		payload.Messages = append(payload.Messages, claudeMessage{Role: string(m.Role), Content: m.Content})
	}
	payload.System = strings.Join(system, "\n\n")

	body, err := json.Marshal(payload)
	if err != nil {
		return "", goerr.Wrap(err, "failed to encode claude request")
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		text, err := c.invoke(ctx, body)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !isRetryableError(err) {
			break
		}
		select {
		case <-ctx.Done():
			return "", domain.NewServiceError("bedrock", ctx.Err())
		case <-time.After(calculateBackoff(attempt, c.initialDelay, c.maxDelay)):
		}
	}
	return "", domain.NewServiceError("bedrock", lastErr)
}

func (c *Client) invoke(ctx context.Context, body []byte) (string, error) {
	output, err := c.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.modelID),
		Body:        body,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", goerr.Wrap(err, "unable to invoke claude model", goerr.V("model", c.modelID))
	}

	var response claudeMessageResponse
	if err := json.Unmarshal(output.Body, &response); err != nil {
		return "", goerr.Wrap(err, "failed to decode bedrock response")
	}
	var sb strings.Builder
	for _, part := range response.Content {
		if part.Type == "text" || part.Type == "" {
			sb.WriteString(part.Text)
		}
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", goerr.New("empty claude response", goerr.V("stop_reason", response.StopReason))
	}
	return sb.String(), nil
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	for _, marker := range []string{
		"ThrottlingException",
		"TooManyRequestsException",
		"Rate exceeded",
		"InternalServerException",
		"ServiceUnavailableException",
		"ModelNotReadyException",
		"connection reset",
		"timeout",
	} {
		if strings.Contains(errStr, marker) {
			return true
		}
	}
	return false
}

func calculateBackoff(attempt int, initialDelay, maxDelay time.Duration) time.Duration {
	d := initialDelay << attempt
	if d <= 0 || d > maxDelay {
		return maxDelay
	}
	return d
}
