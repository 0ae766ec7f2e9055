package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
)

// ToolInfo is the provider-side description of one callable tool, as
// enumerated from a server.
type ToolInfo struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// Conn is one owned, restartable tool-server connection. The orchestration
// core depends only on this interface; the concrete transport comes from the
// Dialer that produced the connection.
type Conn interface {
	List(ctx context.Context) ([]ToolInfo, error)
	Call(ctx context.Context, name string, args map[string]any) (string, error)
	Close() error
}

// Dialer opens a connection to the server described by cfg. Tests inject
// fakes here; production uses StdioDialer.
type Dialer func(ctx context.Context, cfg ServerConfig) (Conn, error)

// stdioConn adapts an MCP client speaking the stdio transport to Conn.
type stdioConn struct {
	client *client.Client
}

// StdioDialer launches the server subprocess from the config's command line
// and completes the MCP initialize handshake.
func StdioDialer(ctx context.Context, cfg ServerConfig) (Conn, error) {
	env := make([]string, 0, len(cfg.Env))
	for k, v := range cfg.Env {
		env = append(env, k+"="+v)
	}

	c, err := client.NewStdioMCPClient(cfg.Command, env, cfg.Args...)
	if err != nil {
		return nil, fmt.Errorf("failed to launch tool server %s: %w", cfg.ID, err)
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: "gorka", Version: "1.0.0"}
	if _, err := c.Initialize(ctx, initReq); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize tool server %s: %w", cfg.ID, err)
	}

	return &stdioConn{client: c}, nil
}

// List enumerates the server's tools.
func (s *stdioConn) List(ctx context.Context) ([]ToolInfo, error) {
	res, err := s.client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("list tools: %w", err)
	}

	tools := make([]ToolInfo, 0, len(res.Tools))
	for _, t := range res.Tools {
		schema := map[string]any{"type": t.InputSchema.Type}
		if t.InputSchema.Properties != nil {
			schema["properties"] = t.InputSchema.Properties
		}
		if len(t.InputSchema.Required) > 0 {
			schema["required"] = t.InputSchema.Required
		}
		tools = append(tools, ToolInfo{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: schema,
		})
	}
	return tools, nil
}

// Call invokes one tool and flattens the textual content of the result. A
// result flagged IsError becomes a Go error so the proxy can record it as a
// failure.
func (s *stdioConn) Call(ctx context.Context, name string, args map[string]any) (string, error) {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	res, err := s.client.CallTool(ctx, req)
	if err != nil {
		return "", fmt.Errorf("call %s: %w", name, err)
	}

	var sb strings.Builder
	for _, content := range res.Content {
		if tc, ok := content.(mcp.TextContent); ok {
			sb.WriteString(tc.Text)
		}
	}
	if res.IsError {
		return "", fmt.Errorf("tool %s reported error: %s", name, sb.String())
	}
	return sb.String(), nil
}

// Close terminates the subprocess.
func (s *stdioConn) Close() error { return s.client.Close() }
