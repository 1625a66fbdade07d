// Package tools holds the closed set of functions the model may call during
// a turn. Dispatch is by name over a registry; every handler validates its
// own argument shape, and handler failures are folded into the tool-result
// message so the model can acknowledge them instead of aborting the turn.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"

	"doppel/internal/chat"
)

// Tool defines a function that the LLM can call.
type Tool interface {
	// Name returns the unique name of the tool (e.g. "record_user_details").
	Name() string
	// Description returns a human-readable description for the LLM.
	Description() string
	// Parameters returns the JSON schema for the arguments as a map.
	Parameters() map[string]any
	// Execute runs the tool with the given arguments.
	Execute(ctx context.Context, args map[string]any) (string, error)
}

// Manager holds the available tools. It satisfies chat.Toolbox.
type Manager struct {
	tools map[string]Tool
}

func NewManager() *Manager {
	return &Manager{
		tools: make(map[string]Tool),
	}
}

func (m *Manager) Register(t Tool) {
	m.tools[t.Name()] = t
}

func (m *Manager) Get(name string) (Tool, bool) {
	t, ok := m.tools[name]
	return t, ok
}

// Specs returns the schemas advertised to the model, in stable name order.
func (m *Manager) Specs() []chat.ToolSpec {
	names := make([]string, 0, len(m.tools))
	for name := range m.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	specs := make([]chat.ToolSpec, 0, len(names))
	for _, name := range names {
		t := m.tools[name]
		specs = append(specs, chat.ToolSpec{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	return specs
}

// Dispatch runs one tool call and returns the tool-result message for it.
func (m *Manager) Dispatch(ctx context.Context, call chat.ToolCall) chat.Message {
	result := chat.Message{
		Role:       chat.RoleTool,
		ToolCallID: call.ID,
		ToolName:   call.Name,
	}

	t, ok := m.tools[call.Name]
	if !ok {
		log.Printf("[Tools] unknown tool requested: %s", call.Name)
		result.Content = failureJSON(fmt.Sprintf("unknown tool %q", call.Name))
		return result
	}

	out, err := t.Execute(ctx, parseToolArgs(call.Arguments))
	if err != nil {
		log.Printf("[Tools] %s failed: %v", call.Name, err)
		result.Content = failureJSON(err.Error())
		return result
	}
	result.Content = out
	return result
}

// parseToolArgs decodes the model-supplied argument JSON. Invalid JSON falls
// back to the raw string so the handler can still report a useful failure.
func parseToolArgs(raw string) map[string]any {
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil || args == nil {
		return map[string]any{"raw": raw}
	}
	return args
}

func failureJSON(reason string) string {
	data, err := json.Marshal(map[string]string{"error": reason})
	if err != nil {
		return `{"error": "tool failed"}`
	}
	return string(data)
}

func stringArg(args map[string]any, key, fallback string) string {
	if v, ok := args[key].(string); ok && v != "" {
		return v
	}
	return fallback
}
