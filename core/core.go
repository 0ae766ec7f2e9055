package core

import "github.com/google/uuid"

// Context identifies which side of the hub-and-spoke topology a tool server
// (or a spawned session) is visible to.
type Context string

const (
	// ContextMain exposes a server only to the primary agent.
	ContextMain Context = "main"
	// ContextSubagent exposes a server only to delegated sub-agents.
	ContextSubagent Context = "subagent"
	// ContextBoth exposes a server to both sides.
	ContextBoth Context = "both"
)

// Includes reports whether a server declared with context c is visible when
// building a tool list for the requested context.
func (c Context) Includes(requested Context) bool {
	return c == ContextBoth || c == requested
}

// Valid reports whether c is one of the three declared contexts.
func (c Context) Valid() bool {
	switch c {
	case ContextMain, ContextSubagent, ContextBoth:
		return true
	}
	return false
}

// Persona is the identity a session is spawned under. The behavioral content
// arrives as a fully assembled system prompt; loading and optimizing persona
// markdown happens outside this module.
type Persona struct {
	ID           string `json:"id"`
	SystemPrompt string `json:"system_prompt"`
}

// Reserved sequential-reasoning tool. A call to this tool carries loop-control
// state in its arguments rather than acting on the outside world, so the
// conversation loop treats it as an explicit state transition.
const (
	SequentialThinkingTool = "sequentialthinking"
	ArgNextThoughtNeeded   = "next_thought_needed"
)

// NewID generates a unique identifier for sessions and tool calls.
func NewID() string { return uuid.NewString() }
