// Package judge is the secondary-model quality gate: it asks an independent
// model whether a draft reply is acceptable before delivery. Evaluation is
// optional; when the backend is missing or misbehaving the draft is accepted,
// so the gate can never block a conversation.
package judge

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"doppel/internal/chat"

	"github.com/tmc/langchaingo/llms"
)

const rubric = "You are an evaluator that decides whether a reply from a persona agent is acceptable. " +
	"Judge helpfulness, professionalism, factual grounding with respect to the provided persona documents, and clarity. " +
	"Respond ONLY with a JSON object: {\"acceptable\": true or false, \"feedback\": \"1-2 short sentences\"}."

// LLMJudge scores drafts with a language model and a fixed rubric.
type LLMJudge struct {
	model llms.Model
	name  string
}

func NewLLMJudge(model llms.Model, name string) *LLMJudge {
	return &LLMJudge{model: model, name: name}
}

func (j *LLMJudge) Evaluate(ctx context.Context, draft, question, knowledge string) chat.Verdict {
	prompt := fmt.Sprintf(
		"## Persona documents\n%s\n\n## User message\n%s\n\n## Agent reply\n%s\n\nProvide only the JSON object.",
		knowledge, question, draft,
	)
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, rubric),
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}

	resp, err := j.model.GenerateContent(ctx, messages,
		llms.WithModel(j.name),
		llms.WithMaxTokens(300),
	)
	if err != nil {
		log.Printf("[Judge] evaluation failed, accepting draft: %v", err)
		return chat.Verdict{Accepted: true}
	}
	if len(resp.Choices) == 0 {
		log.Printf("[Judge] empty evaluation response, accepting draft")
		return chat.Verdict{Accepted: true}
	}
	return parseVerdict(resp.Choices[0].Content)
}

// parseVerdict extracts the accept/reject decision from the model output.
// Anything unparseable is treated as acceptance, with the raw text kept as
// feedback for the logs.
func parseVerdict(text string) chat.Verdict {
	raw := extractJSON(text)
	if raw == "" {
		return chat.Verdict{Accepted: true, Feedback: clip(text, 400)}
	}

	var out struct {
		Acceptable *bool  `json:"acceptable"`
		Feedback   string `json:"feedback"`
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return chat.Verdict{Accepted: true, Feedback: clip(text, 400)}
	}

	accepted := true
	if out.Acceptable != nil {
		accepted = *out.Acceptable
	}
	return chat.Verdict{Accepted: accepted, Feedback: out.Feedback}
}

// extractJSON returns the outermost JSON object embedded in s, tolerating
// models that wrap their answer in prose or code fences.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

func clip(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n]
}
