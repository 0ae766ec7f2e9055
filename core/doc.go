// Package core defines the shared vocabulary of the orchestrator: messages,
// tool calls, personas and visibility contexts. Every other package depends on
// core; core depends on nothing but the standard library and uuid.
package core
