// Package adapter holds per-model-family strategies for two quirks the
// conversation loop must tolerate: models that embed tool invocations in
// plain text instead of structured tool-call objects, and models that need
// request-shaping overrides. Adapters are stateless; selection is a pure
// lookup from model identifier to strategy, and parsing is pure text-in,
// calls-out so it is unit-testable without a live model.
package adapter
