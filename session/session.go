package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/gork-labs/gorka-sub004/core"
)

// Sentinel errors for caller programming mistakes. Wrapped with the session
// id at the call site; test with errors.Is.
var (
	// ErrSessionNotFound indicates a lookup for an unknown session id.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionCompleted indicates a mutation attempt on a terminal session.
	ErrSessionCompleted = errors.New("session already completed")
)

// Limit kinds used by LimitError.
const (
	LimitCalls       = "calls"
	LimitRefinements = "refinements"
)

// LimitError reports a budget that would be exceeded by the attempted
// operation. The operation is rejected before any upstream request is made.
type LimitError struct {
	SessionID string
	Kind      string
	Limit     int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("session %s exceeded max %s: %d", e.SessionID, e.Kind, e.Limit)
}

// DepthError reports a spawn rejected because it would nest deeper than the
// configured maximum. No session is created when this is returned.
type DepthError struct {
	Depth int
	Max   int
}

func (e *DepthError) Error() string {
	return fmt.Sprintf("spawn depth %d exceeds max nesting depth %d", e.Depth, e.Max)
}

// Session is one bounded delegation unit. Fields are exported for
// serialization; mutate only through the Manager.
type Session struct {
	ID          string         `json:"id"`
	ParentID    string         `json:"parent_id,omitempty"`
	Depth       int            `json:"depth"`
	Persona     string         `json:"persona"`
	Messages    []core.Message `json:"messages"`
	CallCount   int            `json:"call_count"`
	Refinements int            `json:"refinements"`
	Completed   bool           `json:"completed"`
	Created     time.Time      `json:"created"`
	LastActive  time.Time      `json:"last_active"`
}

// Clone returns a deep copy safe for independent use by callers.
func (s *Session) Clone() *Session {
	clone := *s
	clone.Messages = make([]core.Message, len(s.Messages))
	copy(clone.Messages, s.Messages)
	for i, m := range s.Messages {
		if len(m.ToolCalls) > 0 {
			calls := make([]core.ToolCall, len(m.ToolCalls))
			copy(calls, m.ToolCalls)
			clone.Messages[i].ToolCalls = calls
		}
	}
	return &clone
}

// newSession allocates a fresh session at the given depth.
func newSession(persona, parentID string, depth int) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:         core.NewID(),
		ParentID:   parentID,
		Depth:      depth,
		Persona:    persona,
		Messages:   []core.Message{},
		Created:    now,
		LastActive: now,
	}
}
