package llm

import (
	"context"

	"doppel/internal/chat"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

type OllamaAdapter struct {
	client *ollama.LLM
	model  string
}

func NewOllamaAdapter(model, baseURL string) (chat.Adapter, error) {
	opts := []ollama.Option{
		ollama.WithModel(model),
	}
	if baseURL != "" {
		opts = append(opts, ollama.WithServerURL(baseURL))
	}

	client, err := ollama.New(opts...)
	if err != nil {
		return nil, err
	}
	return &OllamaAdapter{client: client, model: model}, nil
}

func (a *OllamaAdapter) Reply(ctx context.Context, messages []chat.Message, tools []chat.ToolSpec) (string, []chat.ToolCall, error) {
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
