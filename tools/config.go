package tools

import (
	"fmt"

	"github.com/gork-labs/gorka-sub004/core"
)

// FilesystemServerID is the reserved id of the auto-provisioned workspace
// filesystem server. An explicit entry with this id is never overridden.
const FilesystemServerID = "filesystem"

// ServerConfig declaratively describes one tool server. Immutable after load;
// a refresh replaces the whole server list at once.
type ServerConfig struct {
	ID      string            `yaml:"id" json:"id"`
	Command string            `yaml:"command" json:"command"`
	Args    []string          `yaml:"args,omitempty" json:"args,omitempty"`
	Env     map[string]string `yaml:"env,omitempty" json:"env,omitempty"`
	// Enabled defaults to true when omitted.
	Enabled *bool `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	// AllowUnsafe is the operator opt-in that surfaces this server's unsafe
	// tools. Without it unsafe tools are withheld entirely, not merely
	// hidden from the prompt.
	AllowUnsafe bool `yaml:"allow_unsafe,omitempty" json:"allow_unsafe,omitempty"`
	// Context declares which side of the topology sees this server;
	// defaults to "both" when omitted.
	Context core.Context `yaml:"context,omitempty" json:"context,omitempty"`
}

// IsEnabled reports the effective enabled flag (omitted means enabled).
func (c ServerConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// EffectiveContext returns the declared context, defaulting to both.
func (c ServerConfig) EffectiveContext() core.Context {
	if c.Context == "" {
		return core.ContextBoth
	}
	return c.Context
}

// Validate checks the entry is usable before any connection is attempted.
func (c ServerConfig) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("tool server entry missing id")
	}
	if c.Command == "" {
		return fmt.Errorf("tool server %s missing command", c.ID)
	}
	if c.Context != "" && !c.Context.Valid() {
		return fmt.Errorf("tool server %s has invalid context %q", c.ID, c.Context)
	}
	return nil
}

// FilesystemServer synthesizes the workspace-scoped filesystem server used
// when no explicit entry declares the reserved id. It is visible only to
// sub-agents; the workspace root plus any extra directories bound its reach,
// which is why its mutating tools are allowed.
func FilesystemServer(workspace string, extraDirs []string) ServerConfig {
	args := append([]string{"-y", "@modelcontextprotocol/server-filesystem", workspace}, extraDirs...)
	return ServerConfig{
		ID:          FilesystemServerID,
		Command:     "npx",
		Args:        args,
		AllowUnsafe: true,
		Context:     core.ContextSubagent,
	}
}
