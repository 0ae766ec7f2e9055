package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gork-labs/gorka-sub004/core"
)

func TestProxy_ExecuteSuccess(t *testing.T) {
	var gotArgs map[string]any
	conn := &fakeConn{
		tools: []ToolInfo{{Name: "read_file"}},
		callFn: func(name string, args map[string]any) (string, error) {
			gotArgs = args
			return "file contents", nil
		},
	}
	d := &fakeDialer{conns: map[string]*fakeConn{"fs": conn}}
	r := newTestRegistry(d)
	require.NoError(t, r.Refresh(context.Background(), []ServerConfig{serverCfg("fs", core.ContextBoth, false)}))

	p := NewProxy(r)
	result := p.Execute(context.Background(), "read_file", map[string]any{"path": "a.txt"})

	assert.True(t, result.Success)
	assert.Equal(t, "file contents", result.Content)
	assert.Equal(t, "fs", result.ServerID)
	assert.Equal(t, "read_file", result.Tool)
	assert.Equal(t, "a.txt", gotArgs["path"])
}

func TestProxy_ExecuteUnknownTool(t *testing.T) {
	d := &fakeDialer{conns: map[string]*fakeConn{}}
	r := newTestRegistry(d)
	require.NoError(t, r.Refresh(context.Background(), nil))

	p := NewProxy(r)
	result := p.Execute(context.Background(), "no_such_tool", nil)

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "tool not found")
	assert.Equal(t, "no_such_tool", result.Tool)
}

func TestProxy_ExecuteFailureIsData(t *testing.T) {
	conn := &fakeConn{
		tools: []ToolInfo{{Name: "read_file"}},
		callFn: func(string, map[string]any) (string, error) {
			return "", errors.New("permission denied")
		},
	}
	d := &fakeDialer{conns: map[string]*fakeConn{"fs": conn}}
	r := newTestRegistry(d)
	require.NoError(t, r.Refresh(context.Background(), []ServerConfig{serverCfg("fs", core.ContextBoth, false)}))

	p := NewProxy(r)
	result := p.Execute(context.Background(), "read_file", nil)

	assert.False(t, result.Success)
	assert.Equal(t, "permission denied", result.Error)
	assert.Equal(t, "fs", result.ServerID)
}

func TestProxy_WithheldToolNotInvokable(t *testing.T) {
	conn := &fakeConn{tools: []ToolInfo{{Name: "write_file"}}}
	d := &fakeDialer{conns: map[string]*fakeConn{"fs": conn}}
	r := newTestRegistry(d)
	require.NoError(t, r.Refresh(context.Background(), []ServerConfig{serverCfg("fs", core.ContextBoth, false)}))

	p := NewProxy(r)
	result := p.Execute(context.Background(), "write_file", nil)

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "tool not found")
}
