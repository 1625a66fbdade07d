package chat

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

type Message struct {
	Role    Role
	Content string

	// For assistant messages: the tool calls they made
	ToolCalls []ToolCall

	// For tool messages: the ID of the call being answered
	ToolCallID string
	ToolName   string
}

// ToolCall mirrors llms.ToolCall but keeps adapters decoupled from langchaingo.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// ToolSpec describes one function the model is allowed to call.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Verdict is the evaluator's decision on a draft reply.
type Verdict struct {
	Accepted bool
	Feedback string
}
