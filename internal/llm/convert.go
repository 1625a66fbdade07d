package llm

import (
	"fmt"

	"doppel/internal/chat"

	"github.com/tmc/langchaingo/llms"
)

// convertMessages maps the provider-agnostic transcript onto langchaingo
// message content, including assistant tool calls and tool results.
func convertMessages(messages []chat.Message) []llms.MessageContent {
	out := make([]llms.MessageContent, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case chat.RoleUser:
			out = append(out, llms.TextParts(llms.ChatMessageTypeHuman, m.Content))
		case chat.RoleSystem:
			out = append(out, llms.TextParts(llms.ChatMessageTypeSystem, m.Content))
		case chat.RoleAssistant:
			var parts []llms.ContentPart
			if m.Content != "" {
				parts = append(parts, llms.TextPart(m.Content))
			}
			for _, tc := range m.ToolCalls {
				parts = append(parts, llms.ToolCall{
					ID:   tc.ID,
					Type: "function",
					FunctionCall: &llms.FunctionCall{
						Name:      tc.Name,
						Arguments: tc.Arguments,
					},
				})
			}
			if len(parts) == 0 {
				// Some providers reject assistant messages with no parts.
				parts = append(parts, llms.TextPart(" "))
			}
			out = append(out, llms.MessageContent{
				Role:  llms.ChatMessageTypeAI,
				Parts: parts,
			})
		case chat.RoleTool:
			out = append(out, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{
					llms.ToolCallResponse{
						ToolCallID: m.ToolCallID,
						Name:       m.ToolName,
						Content:    m.Content,
					},
				},
			})
		}
	}
	return out
}

// convertTools maps tool specs onto the langchaingo function-calling schema.
func convertTools(specs []chat.ToolSpec) []llms.Tool {
	if len(specs) == 0 {
		return nil
	}
	out := make([]llms.Tool, 0, len(specs))
	for _, s := range specs {
		out = append(out, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        s.Name,
				Description: s.Description,
				Parameters:  s.Parameters,
			},
		})
	}
	return out
}

// firstChoice extracts the assistant text and tool calls from a response.
func firstChoice(resp *llms.ContentResponse) (string, []chat.ToolCall, error) {
	if resp == nil || len(resp.Choices) == 0 {
		return "", nil, fmt.Errorf("empty response from model")
	}

	choice := resp.Choices[0]
	var toolCalls []chat.ToolCall
	for _, tc := range choice.ToolCalls {
		if tc.FunctionCall == nil {
			continue
		}
		toolCalls = append(toolCalls, chat.ToolCall{
			ID:        tc.ID,
			Name:      tc.FunctionCall.Name,
			Arguments: tc.FunctionCall.Arguments,
		})
	}
	return choice.Content, toolCalls, nil
}
