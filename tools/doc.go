// Package tools implements the tool aggregation layer: it loads a declarative
// list of tool servers, discovers the tools each one exposes, classifies every
// tool name as safe or unsafe, filters what a given visibility context may
// see, and proxies invocations to the owning server. The loaded configuration
// is an immutable snapshot swapped atomically on refresh, so call sites never
// observe a half-updated registry.
package tools
