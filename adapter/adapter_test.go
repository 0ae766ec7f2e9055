package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Lookup(t *testing.T) {
	r := NewDefaultRegistry()

	tests := []struct {
		modelID string
		adapter string
	}{
		{"hermes-3-llama-3.1-8b", "hermes"},
		{"Qwen2.5-72B-Instruct", "hermes"},
		{"nous-capybara-34b", "hermes"},
		{"mistral-large-latest", "fenced-json"},
		{"Mixtral-8x7B", "fenced-json"},
	}
	for _, tt := range tests {
		t.Run(tt.modelID, func(t *testing.T) {
			a := r.Lookup(tt.modelID)
			require.NotNil(t, a)
			assert.Equal(t, tt.adapter, a.Name())
		})
	}
}

func TestRegistry_LookupNoMatchIsNil(t *testing.T) {
	r := NewDefaultRegistry()
	assert.Nil(t, r.Lookup("gpt-4o-mini"))
	assert.Nil(t, r.Lookup("claude-3-5-sonnet-20241022"))
	assert.Nil(t, r.Lookup(""))
}

func TestRegistry_FirstMatchWins(t *testing.T) {
	r := NewRegistry(
		NewTagAdapter("first", "shared"),
		NewFencedJSONAdapter("second", "shared"),
	)
	a := r.Lookup("shared-model")
	require.NotNil(t, a)
	assert.Equal(t, "first", a.Name())
}

func TestTagAdapter_ParseToolCalls(t *testing.T) {
	a := NewTagAdapter("hermes", "hermes")

	text := "Let me check that.\n" +
		"<tool_call>{\"name\": \"read_file\", \"arguments\": {\"path\": \"main.go\"}}</tool_call>\n" +
		"<tool_call>{\"name\": \"grep_search\", \"arguments\": {\"pattern\": \"TODO\"}}</tool_call>"

	calls, err := a.ParseToolCalls(text)
	require.NoError(t, err)
	require.Len(t, calls, 2)
	assert.Equal(t, "read_file", calls[0].Name)
	assert.JSONEq(t, `{"path": "main.go"}`, calls[0].Arguments)
	assert.Equal(t, "grep_search", calls[1].Name)
	assert.Empty(t, calls[0].ID, "parser assigns no identifiers")
}

func TestTagAdapter_PlainTextNoCalls(t *testing.T) {
	a := NewTagAdapter("hermes", "hermes")
	calls, err := a.ParseToolCalls("The answer is 42.")
	require.NoError(t, err)
	assert.Empty(t, calls)
}

func TestTagAdapter_MalformedBlockIsError(t *testing.T) {
	a := NewTagAdapter("hermes", "hermes")
	_, err := a.ParseToolCalls("<tool_call>this is not json")
	assert.Error(t, err)
}

func TestTagAdapter_AlternateShape(t *testing.T) {
	a := NewTagAdapter("hermes", "hermes")
	calls, err := a.ParseToolCalls(`<tool_call>{"tool": "list_directory", "parameters": {"path": "."}}</tool_call>`)
	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.Equal(t, "list_directory", calls[0].Name)
	assert.JSONEq(t, `{"path": "."}`, calls[0].Arguments)
}

func TestTagAdapter_MissingArgumentsDefaultsEmpty(t *testing.T) {
	a := NewTagAdapter("hermes", "hermes")
	calls, err := a.ParseToolCalls(`<tool_call>{"name": "sequentialthinking"}</tool_call>`)
	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.Equal(t, "{}", calls[0].Arguments)
}

func TestFencedJSONAdapter_ParseToolCalls(t *testing.T) {
	a := NewFencedJSONAdapter("fenced-json", "mistral")

	text := "I'll search the repo.\n```json\n{\"name\": \"grep_search\", \"arguments\": {\"pattern\": \"func main\"}}\n```"
	calls, err := a.ParseToolCalls(text)
	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.Equal(t, "grep_search", calls[0].Name)
}

func TestFencedJSONAdapter_IgnoresOrdinaryCodeBlocks(t *testing.T) {
	a := NewFencedJSONAdapter("fenced-json", "mistral")

	calls, err := a.ParseToolCalls("Here is a snippet:\n```json\n{\"key\": \"value\"}\n```")
	require.NoError(t, err)
	assert.Empty(t, calls, "a block without a tool name is not an invocation")
}

func TestAdapterOverrides(t *testing.T) {
	tag := NewTagAdapter("hermes", "hermes").Overrides()
	assert.True(t, tag.DisableParallelToolCalls)

	fenced := NewFencedJSONAdapter("fenced-json", "mistral").Overrides()
	assert.True(t, fenced.DisableParallelToolCalls)
	require.NotNil(t, fenced.Temperature)
	assert.InDelta(t, 0.2, *fenced.Temperature, 0.001)
}
