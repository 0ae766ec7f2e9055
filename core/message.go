package core

import (
	"encoding/json"
	"time"
)

// Message roles used in a session's ordered log.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ToolCall describes a tool invocation requested by the model. Arguments is
// the serialized JSON payload exactly as the provider (or an adapter's text
// parser) produced it.
type ToolCall struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name"`
	Arguments string `json:"arguments,omitempty"`
}

// ParsedArguments deserializes the call's argument payload. A missing or
// malformed payload yields an empty map and the decode error; callers decide
// whether that aborts anything (at the proxy layer it never does).
func (tc ToolCall) ParsedArguments() (map[string]any, error) {
	args := map[string]any{}
	if tc.Arguments == "" {
		return args, nil
	}
	err := json.Unmarshal([]byte(tc.Arguments), &args)
	return args, err
}

// Message is one entry in a session's append-only log. Tool-result messages
// carry the originating call's identifier in ToolCallID.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
}

// NewMessage creates a message with the current UTC timestamp.
func NewMessage(role, content string) Message {
	return Message{Role: role, Content: content, Timestamp: time.Now().UTC()}
}

// NewAssistantMessage creates an assistant message carrying zero or more tool calls.
func NewAssistantMessage(content string, calls []ToolCall) Message {
	m := NewMessage(RoleAssistant, content)
	m.ToolCalls = calls
	return m
}

// NewToolResultMessage creates a tool-result message bound to the call that
// produced it.
func NewToolResultMessage(callID, content string) Message {
	m := NewMessage(RoleTool, content)
	m.ToolCallID = callID
	return m
}
