package chat

import "context"

// Adapter abstracts chat completion providers.
type Adapter interface {
	// Reply runs one model invocation over the message list, with the given
	// tool specs exposed for function calling, and returns the assistant text
	// plus any tool calls the model emitted.
	Reply(ctx context.Context, messages []Message, tools []ToolSpec) (text string, toolCalls []ToolCall, err error)
}

// Evaluator judges a draft reply against the user question and the knowledge
// context it was grounded in. Implementations must never fail the turn: an
// unavailable or erroring backend is reported as an accepting Verdict.
type Evaluator interface {
	Evaluate(ctx context.Context, draft, question, knowledge string) Verdict
}

// Toolbox is the closed set of tools exposed to the model for one session.
type Toolbox interface {
	// Specs returns the schemas advertised to the model.
	Specs() []ToolSpec
	// Dispatch runs one call and returns the tool-result message for it.
	// Handler failures are recorded in the result content, not returned.
	Dispatch(ctx context.Context, call ToolCall) Message
}
