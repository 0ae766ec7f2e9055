// Package logging provides a tiny abstraction over slog so downstream code can
// depend on a minimal interface (Logger) while allowing users to plug any
// structured logger. It also offers a richer OrchestratorLogger with
// contextual helpers (session, component) and domain specific logging helpers
// for model calls, tool executions and sub-agent spawns.
package logging
