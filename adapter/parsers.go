package adapter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/gork-labs/gorka-sub004/core"
	"github.com/gork-labs/gorka-sub004/model"
)

var (
	tagBlockRe    = regexp.MustCompile(`(?s)<tool_call>\s*(\{.*?\})\s*</tool_call>`)
	fencedBlockRe = regexp.MustCompile("(?s)```(?:json|tool)?\\s*(\\{.*?\\})\\s*```")
)

// TagAdapter recovers tool calls from <tool_call>{...}</tool_call> blocks,
// the convention used by hermes-style instruction-tuned models.
type TagAdapter struct {
	name     string
	patterns []string
}

// NewTagAdapter creates a tag-block adapter matching model ids that contain
// any of the given substrings (case-insensitive).
func NewTagAdapter(name string, patterns ...string) *TagAdapter {
	return &TagAdapter{name: name, patterns: patterns}
}

// Name implements Adapter.
func (a *TagAdapter) Name() string { return a.name }

// Match implements Adapter.
func (a *TagAdapter) Match(modelID string) bool { return matchesAny(modelID, a.patterns) }

// ParseToolCalls implements Adapter. Blocks without a usable name are
// skipped; a text with tag markers but no parseable block is an error so the
// caller can log the malformed output.
func (a *TagAdapter) ParseToolCalls(text string) ([]core.ToolCall, error) {
	matches := tagBlockRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		if strings.Contains(text, "<tool_call>") {
			return nil, fmt.Errorf("malformed tool_call block in model output")
		}
		return nil, nil
	}
	var calls []core.ToolCall
	for _, m := range matches {
		if call, ok := callFromJSON(m[1]); ok {
			calls = append(calls, call)
		}
	}
	return calls, nil
}

// Overrides implements Adapter.
func (a *TagAdapter) Overrides() model.RequestOverrides {
	return model.RequestOverrides{DisableParallelToolCalls: true}
}

// FencedJSONAdapter recovers tool calls from fenced ```json code blocks whose
// payload names a tool, a pattern seen in models without native tool-call
// support.
type FencedJSONAdapter struct {
	name     string
	patterns []string
}

// NewFencedJSONAdapter creates a fenced-block adapter matching model ids that
// contain any of the given substrings (case-insensitive).
func NewFencedJSONAdapter(name string, patterns ...string) *FencedJSONAdapter {
	return &FencedJSONAdapter{name: name, patterns: patterns}
}

// Name implements Adapter.
func (a *FencedJSONAdapter) Name() string { return a.name }

// Match implements Adapter.
func (a *FencedJSONAdapter) Match(modelID string) bool { return matchesAny(modelID, a.patterns) }

// ParseToolCalls implements Adapter. Fenced blocks that do not name a tool
// are ordinary code snippets, not invocations, and are ignored.
func (a *FencedJSONAdapter) ParseToolCalls(text string) ([]core.ToolCall, error) {
	matches := fencedBlockRe.FindAllStringSubmatch(text, -1)
	var calls []core.ToolCall
	for _, m := range matches {
		if call, ok := callFromJSON(m[1]); ok {
			calls = append(calls, call)
		}
	}
	return calls, nil
}

// Overrides implements Adapter. Models in this family tend to drift at high
// temperature when asked for strict JSON.
func (a *FencedJSONAdapter) Overrides() model.RequestOverrides {
	temperature := 0.2
	return model.RequestOverrides{DisableParallelToolCalls: true, Temperature: &temperature}
}

// callFromJSON extracts a tool call from one JSON payload. Accepts both the
// {"name": ..., "arguments": {...}} and {"tool": ..., "parameters": {...}}
// shapes.
func callFromJSON(payload string) (core.ToolCall, bool) {
	if !gjson.Valid(payload) {
		return core.ToolCall{}, false
	}
	name := gjson.Get(payload, "name")
	if !name.Exists() {
		name = gjson.Get(payload, "tool")
	}
	if !name.Exists() || name.String() == "" {
		return core.ToolCall{}, false
	}
	args := gjson.Get(payload, "arguments")
	if !args.Exists() {
		args = gjson.Get(payload, "parameters")
	}
	arguments := "{}"
	if args.Exists() && args.IsObject() {
		arguments = args.Raw
	}
	return core.ToolCall{Name: name.String(), Arguments: arguments}, true
}
