package judge

import (
	"context"
	"os"

	"doppel/internal/chat"

	"github.com/tmc/langchaingo/llms/anthropic"
)

// Disabled accepts every draft. Used when no evaluation backend is
// configured; the quality gate degrades to a pass-through instead of
// becoming a hard dependency.
type Disabled struct{}

func (Disabled) Evaluate(context.Context, string, string, string) chat.Verdict {
	return chat.Verdict{Accepted: true}
}

// NewAnthropic builds the default evaluator over an Anthropic model.
func NewAnthropic(model string) (*LLMJudge, error) {
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
	return NewLLMJudge(client, model), nil
}
