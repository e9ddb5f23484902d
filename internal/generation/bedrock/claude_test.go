package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/m-mizutani/gt"

	"vatcompanion/internal/domain"
)

type fakeInvoker struct {
	calls   int
	errs    []error
	body    string
	request claudeMessageRequest
	modelID string
}

func (f *fakeInvoker) InvokeModel(_ context.Context, in *bedrockruntime.InvokeModelInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	f.calls++
	f.modelID = aws.ToString(in.ModelId)
	if err := json.Unmarshal(in.Body, &f.request); err != nil {
		return nil, err
	}
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return nil, err
	}
	return &bedrockruntime.InvokeModelOutput{Body: []byte(f.body)}, nil
}

func newTestClient(inv Invoker) *Client {
	return NewWithInvoker(inv, Config{ModelID: "anthropic.claude-test", InitialDelay: time.Millisecond, MaxDelay: time.Millisecond})
}

func TestGenerate(t *testing.T) {
	inv := &fakeInvoker{body: `{"content":[{"type":"text","text":"Article (45) exempts"},{"type":"text","text":" bare land."}],"stop_reason":"end_turn"}`}
	c := newTestClient(inv)

	out, err := c.Generate(context.Background(), []domain.Message{
		{Role: domain.RoleSystem, Content: "system prompt"},
		{Role: domain.RoleUser, Content: "Is bare land exempt?"},
	}, 0.3)
	gt.NoError(t, err).Required()
	gt.Value(t, out).Equal("Article (45) exempts bare land.")
	gt.Value(t, inv.modelID).Equal("anthropic.claude-test")
	gt.Value(t, inv.request.AnthropicVersion).Equal("bedrock-2023-05-31")
	gt.Value(t, inv.request.System).Equal("system prompt")
	gt.Value(t, inv.request.Temperature).Equal(0.3)
	gt.Array(t, inv.request.Messages).Length(1).Required()
	gt.Value(t, inv.request.Messages[0].Role).Equal("user")
}

func TestGenerateRetriesThrottling(t *testing.T) {
	inv := &fakeInvoker{
		errs: []error{errors.New("ThrottlingException: Rate exceeded")},
		body: `{"content":[{"type":"text","text":"ok"}]}`,
	}
	out, err := newTestClient(inv).Generate(context.Background(), []domain.Message{{Role: domain.RoleUser, Content: "q"}}, 0)
	gt.NoError(t, err).Required()
	gt.Value(t, out).Equal("ok")
	gt.Number(t, inv.calls).Equal(2)
}

func TestGenerateDoesNotRetryValidation(t *testing.T) {
	inv := &fakeInvoker{errs: []error{errors.New("ValidationException: bad input")}}
	_, err := newTestClient(inv).Generate(context.Background(), []domain.Message{{Role: domain.RoleUser, Content: "q"}}, 0)
	gt.Error(t, err).Is(domain.ErrExternalService)
	gt.Number(t, inv.calls).Equal(1)
}

func TestGenerateEmptyResponse(t *testing.T) {
	inv := &fakeInvoker{body: `{"content":[]}`}
	_, err := newTestClient(inv).Generate(context.Background(), []domain.Message{{Role: domain.RoleUser, Content: "q"}}, 0)
	gt.Error(t, err).Is(domain.ErrExternalService)
}

func TestCalculateBackoff(t *testing.T) {
	gt.Value(t, calculateBackoff(0, time.Second, 10*time.Second)).Equal(time.Second)
	gt.Value(t, calculateBackoff(2, time.Second, 10*time.Second)).Equal(4 * time.Second)
	gt.Value(t, calculateBackoff(8, time.Second, 10*time.Second)).Equal(10 * time.Second)
}
