package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/gork-labs/gorka-sub004/logging"
)

// ExecutionResult carries the outcome of a single tool invocation. Failures
// are represented here rather than as Go errors so a broken tool call flows
// back into the conversation instead of aborting it.
type ExecutionResult struct {
	Success  bool   `json:"success"`
	Content  string `json:"content,omitempty"`
	Error    string `json:"error,omitempty"`
	ServerID string `json:"server_id,omitempty"`
	Tool     string `json:"tool"`
}

// Proxy routes tool invocations to the owning server connection.
type Proxy struct {
	registry *Registry
	logger   logging.Logger
}

// ProxyOptions configures a Proxy instance.
type ProxyOptions struct {
	Logger logging.Logger
}

// NewProxy creates a proxy over the given registry.
func NewProxy(registry *Registry, optFns ...func(o *ProxyOptions)) *Proxy {
	opts := ProxyOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Proxy{registry: registry, logger: opts.Logger}
}

// Execute invokes the named tool with the given arguments. It never returns
// an error: unknown tools, transport failures and tool-reported failures all
// come back as an unsuccessful ExecutionResult.
func (p *Proxy) Execute(ctx context.Context, name string, args map[string]any) ExecutionResult {
	conn, serverID, ok := p.registry.resolve(name)
	if !ok {
		p.logger.Warn("tools.unknown", "tool", name)
		return ExecutionResult{
			Tool:     name,
			ServerID: serverID,
			Error:    fmt.Sprintf("tool not found: %s", name),
		}
	}

	start := time.Now()
	content, err := conn.Call(ctx, name, args)
	if err != nil {
		p.logger.Warn("tools.call.failed",
			"server_id", serverID,
			"tool", name,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err.Error(),
		)
		return ExecutionResult{
			Tool:     name,
			ServerID: serverID,
			Error:    err.Error(),
		}
	}

	p.logger.Debug("tools.call.ok",
		"server_id", serverID,
		"tool", name,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return ExecutionResult{
		Success:  true,
		Tool:     name,
		ServerID: serverID,
		Content:  content,
	}
}
