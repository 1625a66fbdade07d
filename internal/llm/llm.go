// Package llm adapts langchaingo chat providers to the chat.Adapter
// interface used by the conversation service.
package llm

import (
	"fmt"

	"doppel/internal/chat"
)

type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGemini    Provider = "gemini"
	ProviderOllama    Provider = "ollama"
)

func NewAdapter(provider Provider, model, baseURL string) (chat.Adapter, error) {
	switch provider {
	case ProviderOpenAI:
		return NewOpenAIAdapter(model, baseURL)
	case ProviderAnthropic:
		return NewAnthropicAdapter(model)
	case ProviderGemini:
		return NewGeminiAdapter(model, baseURL)
	case ProviderOllama:
		return NewOllamaAdapter(model, baseURL)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}
