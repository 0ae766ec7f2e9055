package tools

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/gork-labs/gorka-sub004/core"
	"github.com/gork-labs/gorka-sub004/logging"
)

// Discovered is one callable unit surfaced by a server, with its computed
// safety classification and the owning server's visibility context. Derived
// entirely from the server config and the classification rules.
type Discovered struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
	ServerID    string         `json:"server_id"`
	Safe        bool           `json:"safe"`
	Context     core.Context   `json:"context"`
}

// snapshot is the immutable loaded state: configs, live connections and the
// surfaced tool set. Replaced as a whole on refresh, never mutated.
type snapshot struct {
	servers map[string]ServerConfig
	conns   map[string]Conn
	tools   []Discovered
	owner   map[string]string // tool name -> server id
}

func emptySnapshot() *snapshot {
	return &snapshot{
		servers: map[string]ServerConfig{},
		conns:   map[string]Conn{},
		owner:   map[string]string{},
	}
}

// RegistryOptions configures a Registry instance.
type RegistryOptions struct {
	// Dialer opens server connections; defaults to the stdio transport.
	Dialer Dialer
	// Workspace enables the auto-provisioned filesystem server when no
	// explicit entry declares it.
	Workspace string
	// ExtraDirs are additional directories granted to the auto-provisioned
	// filesystem server.
	ExtraDirs []string
	Logger    logging.Logger
}

// Registry discovers and owns tools from all configured servers. Reads go
// through an atomically swapped snapshot; Refresh replaces the whole loaded
// configuration at once.
type Registry struct {
	dial      Dialer
	workspace string
	extraDirs []string
	logger    logging.Logger
	snap      atomic.Pointer[snapshot]
}

// NewRegistry creates an empty registry; call Refresh to load servers.
func NewRegistry(optFns ...func(o *RegistryOptions)) *Registry {
	opts := RegistryOptions{Dialer: StdioDialer, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	r := &Registry{
		dial:      opts.Dialer,
		workspace: opts.Workspace,
		extraDirs: opts.ExtraDirs,
		logger:    opts.Logger,
	}
	r.snap.Store(emptySnapshot())
	return r
}

// Refresh connects to every enabled server in configs, enumerates and
// classifies tools and atomically swaps the loaded snapshot. Servers that
// fail to connect or enumerate are skipped with a warning; previously loaded
// connections are closed after the swap. Unsafe tools of servers without the
// allow-unsafe override are withheld here, so they cannot be invoked at all.
func (r *Registry) Refresh(ctx context.Context, configs []ServerConfig) error {
	configs = r.withAutoProvisioned(configs)

	next := emptySnapshot()
	for _, cfg := range configs {
		if err := cfg.Validate(); err != nil {
			return err
		}
		if _, dup := next.servers[cfg.ID]; dup {
			return fmt.Errorf("duplicate tool server id %s", cfg.ID)
		}
		next.servers[cfg.ID] = cfg
		if !cfg.IsEnabled() {
			continue
		}

		conn, err := r.dial(ctx, cfg)
		if err != nil {
			r.logger.Warn("tools.server.unavailable", "server_id", cfg.ID, "error", err.Error())
			continue
		}
		infos, err := conn.List(ctx)
		if err != nil {
			r.logger.Warn("tools.server.list_failed", "server_id", cfg.ID, "error", err.Error())
			conn.Close()
			continue
		}
		next.conns[cfg.ID] = conn

		for _, info := range infos {
			safe := IsSafe(info.Name)
			if !safe && !cfg.AllowUnsafe {
				r.logger.Debug("tools.withheld", "server_id", cfg.ID, "tool", info.Name)
				continue
			}
			if owner, dup := next.owner[info.Name]; dup {
				r.logger.Warn("tools.name_conflict", "tool", info.Name, "kept", owner, "dropped", cfg.ID)
				continue
			}
			next.owner[info.Name] = cfg.ID
			next.tools = append(next.tools, Discovered{
				Name:        info.Name,
				Description: info.Description,
				InputSchema: info.InputSchema,
				ServerID:    cfg.ID,
				Safe:        safe,
				Context:     cfg.EffectiveContext(),
			})
		}
	}

	prev := r.snap.Swap(next)
	closeSnapshot(prev)

	r.logger.Info("tools.refreshed", "servers", len(next.conns), "tools", len(next.tools))
	return nil
}

// withAutoProvisioned appends the synthesized filesystem server when a
// workspace is configured and no explicit entry claims the reserved id.
func (r *Registry) withAutoProvisioned(configs []ServerConfig) []ServerConfig {
	if r.workspace == "" {
		return configs
	}
	for _, cfg := range configs {
		if cfg.ID == FilesystemServerID {
			return configs
		}
	}
	out := make([]ServerConfig, len(configs), len(configs)+1)
	copy(out, configs)
	return append(out, FilesystemServer(r.workspace, r.extraDirs))
}

// ToolsFor builds the tool list visible to the requested context.
func (r *Registry) ToolsFor(requested core.Context) []Discovered {
	snap := r.snap.Load()
	out := make([]Discovered, 0, len(snap.tools))
	for _, t := range snap.tools {
		if t.Context.Includes(requested) {
			out = append(out, t)
		}
	}
	return out
}

// AllTools returns every surfaced tool across all loaded servers.
func (r *Registry) AllTools() []Discovered {
	snap := r.snap.Load()
	out := make([]Discovered, len(snap.tools))
	copy(out, snap.tools)
	return out
}

// Servers returns the loaded server configurations.
func (r *Registry) Servers() []ServerConfig {
	snap := r.snap.Load()
	out := make([]ServerConfig, 0, len(snap.servers))
	for _, cfg := range snap.servers {
		out = append(out, cfg)
	}
	return out
}

// resolve finds the connection owning a tool name, across all loaded servers
// regardless of context filtering.
func (r *Registry) resolve(name string) (Conn, string, bool) {
	snap := r.snap.Load()
	serverID, ok := snap.owner[name]
	if !ok {
		return nil, "", false
	}
	conn, ok := snap.conns[serverID]
	if !ok {
		return nil, serverID, false
	}
	return conn, serverID, true
}

// Close terminates all loaded server connections and empties the snapshot.
func (r *Registry) Close() {
	prev := r.snap.Swap(emptySnapshot())
	closeSnapshot(prev)
}

func closeSnapshot(s *snapshot) {
	if s == nil {
		return
	}
	for _, conn := range s.conns {
		conn.Close()
	}
}
