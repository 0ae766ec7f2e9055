package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gork-labs/gorka-sub004/core"
)

func TestServerConfig_Defaults(t *testing.T) {
	cfg := ServerConfig{ID: "git", Command: "uvx"}
	assert.True(t, cfg.IsEnabled())
	assert.Equal(t, core.ContextBoth, cfg.EffectiveContext())

	off := false
	cfg.Enabled = &off
	assert.False(t, cfg.IsEnabled())
}

func TestServerConfig_Validate(t *testing.T) {
	assert.Error(t, ServerConfig{Command: "x"}.Validate(), "missing id")
	assert.Error(t, ServerConfig{ID: "x"}.Validate(), "missing command")
	assert.Error(t, ServerConfig{ID: "x", Command: "y", Context: "sideways"}.Validate(), "bad context")
	assert.NoError(t, ServerConfig{ID: "x", Command: "y", Context: core.ContextMain}.Validate())
}

func TestFilesystemServer(t *testing.T) {
	cfg := FilesystemServer("/work", []string{"/shared"})
	assert.Equal(t, FilesystemServerID, cfg.ID)
	assert.Equal(t, []string{"-y", "@modelcontextprotocol/server-filesystem", "/work", "/shared"}, cfg.Args)
	assert.Equal(t, core.ContextSubagent, cfg.Context)
	assert.True(t, cfg.AllowUnsafe)
	assert.NoError(t, cfg.Validate())
}
