package types

import (
	"encoding/json"
	"time"
)

// ToolCall represents a tool invocation request from the LLM.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ToolSchema defines a tool's interface for LLM function calling.
type ToolSchema struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters"`
}

// ToolResult represents the outcome of a single tool call, including
// synthesized rejections for tools outside an agent's allow-list.
type ToolResult struct {
	ToolCallID string          `json:"tool_call_id"`
	Name       string          `json:"name"`
	Result     json.RawMessage `json:"result,omitempty"`
	Error      string          `json:"error,omitempty"`
	Duration   time.Duration   `json:"duration"`
}

// IsError returns true if the tool execution failed or was rejected.
func (tr ToolResult) IsError() bool {
	return tr.Error != ""
}

// Text renders the result as the content fed back to the LLM.
func (tr ToolResult) Text() string {
	if tr.Error != "" {
		return tr.Error
	}
	return string(tr.Result)
}
