package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/gork-labs/gorka-sub004/core"
)

// ToolDefinition declaratively exposes a callable function to the model.
type ToolDefinition struct {
	Type     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes an individual function (tool) exposed to the model.
// Parameters is a JSON Schema object (draft agnostic, minimal subset expected).
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// RequestOverrides are per-model request-shaping recommendations surfaced by
// the adapter registry. DisableParallelToolCalls is forced on by the loop for
// every request regardless of adapter, keeping tool execution within a turn
// strictly sequential.
type RequestOverrides struct {
	DisableParallelToolCalls bool
	Temperature              *float64
	MaxTokens                *int64
}

// Merge folds non-nil fields of other into a copy of o.
func (o RequestOverrides) Merge(other RequestOverrides) RequestOverrides {
	merged := o
	if other.DisableParallelToolCalls {
		merged.DisableParallelToolCalls = true
	}
	if other.Temperature != nil {
		merged.Temperature = other.Temperature
	}
	if other.MaxTokens != nil {
		merged.MaxTokens = other.MaxTokens
	}
	return merged
}

// Request captures the normalized completion input built by the conversation loop.
type Request struct {
	Model             string           `json:"model"`
	Messages          []core.Message   `json:"messages"`
	Tools             []ToolDefinition `json:"tools,omitempty"`
	ToolChoice        string           `json:"tool_choice,omitempty"`
	ParallelToolCalls bool             `json:"parallel_tool_calls"`
	Overrides         RequestOverrides `json:"-"`
}

// ResponseMessage is the assistant payload of one candidate completion.
type ResponseMessage struct {
	Content   string          `json:"content"`
	ToolCalls []core.ToolCall `json:"tool_calls,omitempty"`
}

// Empty reports whether the candidate carries neither text nor tool calls.
func (m ResponseMessage) Empty() bool {
	return m.Content == "" && len(m.ToolCalls) == 0
}

// Choice is one candidate completion returned by the provider.
type Choice struct {
	Index        int             `json:"index"`
	Message      ResponseMessage `json:"message"`
	FinishReason string          `json:"finish_reason,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the provider's answer to one completion request.
type Response struct {
	ID      string      `json:"id"`
	Model   string      `json:"model"`
	Choices []Choice    `json:"choices"`
	Usage   *TokenUsage `json:"usage,omitempty"`
}

// Info contains metadata about a client implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "mock", etc.
	SupportsTools bool   `json:"supports_tools"`
}

// Client is the minimal interface required by the conversation loop to drive
// generation. Implementations must honor ctx cancellation; a deadline
// exceeded error is treated as a transport failure by the loop.
type Client interface {
	Complete(ctx context.Context, req Request) (*Response, error)

	// Info returns information about the client implementation.
	Info() Info
}

// MockClient is a scripted in-memory Client useful for tests. Responses and
// errors are consumed from a queue in FIFO order; it records every request it
// receives.
type MockClient struct {
	mu       sync.Mutex
	queue    []step
	requests []Request
}

type step struct {
	resp *Response
	err  error
}

// NewMockClient constructs an empty MockClient.
func NewMockClient() *MockClient { return &MockClient{} }

// Enqueue schedules a canned response.
func (m *MockClient) Enqueue(resp *Response) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, step{resp: resp})
}

// EnqueueError schedules a transport-level failure.
func (m *MockClient) EnqueueError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, step{err: err})
}

// Complete pops the next scripted step. An exhausted queue is an error so
// tests fail loudly on unexpected extra calls.
func (m *MockClient) Complete(_ context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if len(m.queue) == 0 {
		return nil, fmt.Errorf("mock client: no scripted response for call %d", len(m.requests))
	}
	next := m.queue[0]
	m.queue = m.queue[1:]
	if next.err != nil {
		return nil, next.err
	}
	return next.resp, nil
}

// Info implements Client.
func (m *MockClient) Info() Info {
	return Info{Name: "mock", Provider: "mock", SupportsTools: true}
}

// Requests returns a copy of every request received so far.
func (m *MockClient) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// CallCount returns the number of Complete invocations.
func (m *MockClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// TextResponse builds a single-choice response with plain text content.
func TextResponse(text string) *Response {
	return &Response{Choices: []Choice{{Message: ResponseMessage{Content: text}, FinishReason: "stop"}}}
}

// ToolCallResponse builds a single-choice response carrying tool calls.
func ToolCallResponse(calls ...core.ToolCall) *Response {
	return &Response{Choices: []Choice{{Message: ResponseMessage{ToolCalls: calls}, FinishReason: "tool_calls"}}}
}

// EmptyResponse builds a response whose only candidate is entirely empty.
func EmptyResponse() *Response {
	return &Response{Choices: []Choice{{Message: ResponseMessage{}, FinishReason: "stop"}}}
}
