package llm

import (
	"context"
	"os"

	"doppel/internal/chat"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

type OpenAIAdapter struct {
	client *openai.LLM
	model  string
}

func NewOpenAIAdapter(model, baseURL string) (chat.Adapter, error) {
	opts := []openai.Option{
		openai.WithModel(model),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	token := os.Getenv("DOPPEL_OPENAI_API_KEY")
	if token == "" {
		token = os.Getenv("OPENAI_API_KEY")
	}
	if token != "" {
		opts = append(opts, openai.WithToken(token))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, err
	}
	return &OpenAIAdapter{client: client, model: model}, nil
}

func (a *OpenAIAdapter) Reply(ctx context.Context, messages []chat.Message, tools []chat.ToolSpec) (string, []chat.ToolCall, error) {
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
