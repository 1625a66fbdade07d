package llm

import (
	"context"
	"os"

	"doppel/internal/chat"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
)

type AnthropicAdapter struct {
	client *anthropic.LLM
	model  string
}

func NewAnthropicAdapter(model string) (chat.Adapter, error) {
	opts := []anthropic.Option{
		anthropic.WithModel(model),
	}
	apiKey := os.Getenv("DOPPEL_ANTHROPIC_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey != "" {
		opts = append(opts, anthropic.WithToken(apiKey))
	}

	client, err := anthropic.New(opts...)
	if err != nil {
		return nil, err
	}
	return &AnthropicAdapter{client: client, model: model}, nil
}

func (a *AnthropicAdapter) Reply(ctx context.Context, messages []chat.Message, tools []chat.ToolSpec) (string, []chat.ToolCall, error) {
	opts := []llms.CallOption{
		llms.WithModel(a.model),
	}
	if ts := convertTools(tools); len(ts) > 0 {
		opts = append(opts, llms.WithTools(ts))
	}

	resp, err := a.client.GenerateContent(ctx, convertMessages(messages), opts...)
	if err != nil {
		return "", nil, err
	}
	return firstChoice(resp)
}
