package llm

import (
	"context"
	"os"

	"doppel/internal/chat"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
)

type GeminiAdapter struct {
	client *googleai.GoogleAI
	model  string
}

func NewGeminiAdapter(model, baseURL string) (chat.Adapter, error) {
	effectiveModel := model
	if effectiveModel == "" {
		effectiveModel = googleai.DefaultOptions().DefaultModel
	}

	opts := []googleai.Option{
		googleai.WithDefaultModel(effectiveModel),
	}
	if baseURL != "" {
		opts = append(opts, googleai.WithRest())
	}
	key := os.Getenv("DOPPEL_GEMINI_API_KEY")
	if key == "" {
		key = os.Getenv("GOOGLE_API_KEY")
	}
	if key != "" {
		opts = append(opts, googleai.WithAPIKey(key))
	}

	client, err := googleai.New(context.Background(), opts...)
	if err != nil {
		return nil, err
	}
	return &GeminiAdapter{client: client, model: effectiveModel}, nil
}

func (a *GeminiAdapter) Reply(ctx context.Context, messages []chat.Message, tools []chat.ToolSpec) (string, []chat.ToolCall, error) {
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
