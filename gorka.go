// Package gorka provides a high-level façade over the orchestration core
// (sessions, tool registry, model clients and the conversation loop) for
// delegating bounded units of work to sub-agent personas. Most applications
// interact with this package by:
//  1. Creating an Orchestrator via New() from a loaded configuration
//  2. Spawning personas with Spawn / SpawnParallel
//  3. Optionally refining finished sessions with Refine
//
// The façade delegates the conversation state machine to spawner.Spawner
// while keeping setup ergonomics concise. Defaults are safe for local use;
// production deployments typically supply a durable session directory and a
// structured logger.
package gorka

import (
	"context"
	"time"

	"github.com/gork-labs/gorka-sub004/adapter"
	"github.com/gork-labs/gorka-sub004/config"
	"github.com/gork-labs/gorka-sub004/logging"
	"github.com/gork-labs/gorka-sub004/model"
	"github.com/gork-labs/gorka-sub004/session"
	"github.com/gork-labs/gorka-sub004/spawner"
	"github.com/gork-labs/gorka-sub004/tools"
)

// Options configures the Orchestrator instance.
type Options struct {
	// Client drives completions; required unless set by the caller through
	// WithClient-style option funcs.
	Client model.Client
	// Adapters resolves per-model strategies; defaults to the built-ins.
	Adapters *adapter.Registry
	// Dialer opens tool-server connections; defaults to the stdio transport.
	Dialer tools.Dialer
	// Logger defaults to NoOp.
	Logger logging.Logger
}

// Orchestrator aggregates the session manager, tool registry, proxy and
// spawner behind one setup call.
type Orchestrator struct {
	cfg      *config.Config
	sessions *session.Manager
	registry *tools.Registry
	spawner  *spawner.Spawner
}

// New wires an orchestrator from configuration: session store (file-backed
// when a sessions directory is set), tool registry with the configured
// servers loaded, proxy and conversation-loop spawner.
func New(ctx context.Context, cfg *config.Config, client model.Client, optFns ...func(o *Options)) (*Orchestrator, error) {
	opts := Options{
		Client:   client,
		Adapters: adapter.NewDefaultRegistry(),
		Dialer:   tools.StdioDialer,
		Logger:   logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var store session.Store
	if cfg.Sessions != "" {
		fileStore, err := session.NewFileStore(cfg.Sessions)
		if err != nil {
			return nil, err
		}
		store = fileStore
	} else {
		store = session.NewMemoryStore()
	}

	sessions := session.NewManager(store, session.Budgets{
		MaxCalls:       cfg.Budgets.MaxCalls,
		MaxRefinements: cfg.Budgets.MaxRefinements,
		MaxDepth:       cfg.Budgets.MaxDepth,
	}, func(o *session.ManagerOptions) {
		o.Logger = opts.Logger
	})

	registry := tools.NewRegistry(func(o *tools.RegistryOptions) {
		o.Dialer = opts.Dialer
		o.Workspace = cfg.Workspace
		o.ExtraDirs = cfg.ExtraDirs
		o.Logger = opts.Logger
	})
	if err := registry.Refresh(ctx, cfg.Servers); err != nil {
		return nil, err
	}

	proxy := tools.NewProxy(registry, func(o *tools.ProxyOptions) {
		o.Logger = opts.Logger
	})

	sp := spawner.New(sessions, registry, proxy, opts.Client, func(o *spawner.Options) {
		o.Adapters = opts.Adapters
		o.RequestTimeout = cfg.Budgets.RequestTimeout
		o.MaxParallel = cfg.Budgets.MaxParallel
		o.Logger = opts.Logger
	})

	return &Orchestrator{cfg: cfg, sessions: sessions, registry: registry, spawner: sp}, nil
}

// Spawn runs one delegation to a terminal state.
func (o *Orchestrator) Spawn(ctx context.Context, req spawner.Request) (*spawner.Result, error) {
	if req.Model == "" {
		req.Model = o.cfg.Model
	}
	return o.spawner.Spawn(ctx, req)
}

// SpawnParallel runs sibling delegations bounded by the configured
// parallelism budget.
func (o *Orchestrator) SpawnParallel(ctx context.Context, reqs []spawner.Request) []spawner.Outcome {
	for i := range reqs {
		if reqs[i].Model == "" {
			reqs[i].Model = o.cfg.Model
		}
	}
	return o.spawner.SpawnParallel(ctx, reqs)
}

// Refine reopens a finished session with feedback and runs it again.
func (o *Orchestrator) Refine(ctx context.Context, sessionID, feedback string, req spawner.Request) (*spawner.Result, error) {
	if req.Model == "" {
		req.Model = o.cfg.Model
	}
	return o.spawner.Refine(ctx, sessionID, feedback, req)
}

// Sessions exposes the session manager for stats and direct lookups.
func (o *Orchestrator) Sessions() *session.Manager { return o.sessions }

// Tools exposes the loaded tool registry.
func (o *Orchestrator) Tools() *tools.Registry { return o.registry }

// Sweep removes sessions older than the configured inactivity age.
func (o *Orchestrator) Sweep() (int, error) {
	return o.sessions.Sweep(o.cfg.Budgets.SessionTTL)
}

// SweepOlderThan removes sessions older than maxAge, overriding the
// configured age.
func (o *Orchestrator) SweepOlderThan(maxAge time.Duration) (int, error) {
	return o.sessions.Sweep(maxAge)
}

// Close terminates all tool-server connections.
func (o *Orchestrator) Close() {
	o.registry.Close()
}
