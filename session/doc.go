// Package session implements the process-wide registry of delegation
// sessions. A Session is one bounded unit of delegated work: an append-only
// message log plus call/refinement counters and lifecycle flags. All mutation
// goes through the Manager, which serializes concurrent access, enforces the
// configured budgets and persists every change through a Store so sweeps and
// stats run against disk-backed truth rather than an in-memory cache.
package session
