// Package model defines the normalized completion API contract the
// conversation loop drives: a Request built from a session's message log and
// tool definitions, a Response carrying candidate completions ("choices"),
// and the Client interface concrete providers implement. The orchestrator
// treats the backend as an opaque request/response service; provider quirks
// live behind Client implementations and the adapter registry.
package model
