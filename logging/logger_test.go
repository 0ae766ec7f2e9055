package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

// Interface compliance (compile-time assertion)
var (
	_ Logger = (*SlogAdapter)(nil)
	_ Logger = NoOpLogger{}
	_ Logger = (*OrchestratorLogger)(nil)
)

func newBufferedLogger(level slog.Level) (*OrchestratorLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := New(&Config{Level: level, Format: "json", Output: &buf})
	return l, &buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	line := strings.SplitN(strings.TrimSpace(buf.String()), "\n", 2)[0]
	var record map[string]any
	if err := json.Unmarshal([]byte(line), &record); err != nil {
		t.Fatalf("invalid log line %q: %v", line, err)
	}
	return record
}

func TestOrchestratorLogger_ContextualFields(t *testing.T) {
	l, buf := newBufferedLogger(slog.LevelDebug)

	l.WithComponent("spawner").WithSession("sess-1").Info("spawn.start", "persona", "researcher")

	record := decodeLine(t, buf)
	if record["component"] != "spawner" || record["session_id"] != "sess-1" {
		t.Errorf("contextual fields missing: %v", record)
	}
	if record["persona"] != "researcher" {
		t.Errorf("kv args lost: %v", record)
	}
	if record["msg"] != "spawn.start" {
		t.Errorf("unexpected message: %v", record["msg"])
	}
}

func TestOrchestratorLogger_LevelFiltering(t *testing.T) {
	l, buf := newBufferedLogger(slog.LevelInfo)

	l.Debug("hidden")
	if buf.Len() != 0 {
		t.Error("debug record must be filtered at info level")
	}

	l.Warn("visible")
	if buf.Len() == 0 {
		t.Error("warn record must pass at info level")
	}
}

func TestOrchestratorLogger_LogModelCall(t *testing.T) {
	l, buf := newBufferedLogger(slog.LevelDebug)

	l.LogModelCall("gpt-4o-mini", 2, 150*time.Millisecond, errors.New("timeout"))

	record := decodeLine(t, buf)
	if record["model"] != "gpt-4o-mini" || record["attempt"] != float64(2) {
		t.Errorf("call fields missing: %v", record)
	}
	if record["success"] != false || record["error"] != "timeout" {
		t.Errorf("failure fields missing: %v", record)
	}
}

func TestOrchestratorLogger_LogToolCall(t *testing.T) {
	l, buf := newBufferedLogger(slog.LevelDebug)

	l.LogToolCall("filesystem", "read_file", 5*time.Millisecond, true)

	record := decodeLine(t, buf)
	if record["server_id"] != "filesystem" || record["tool_name"] != "read_file" {
		t.Errorf("tool fields missing: %v", record)
	}
	if record["success"] != true {
		t.Errorf("expected success record: %v", record)
	}
}

func TestOrchestratorLogger_LogSpawn(t *testing.T) {
	l, buf := newBufferedLogger(slog.LevelDebug)

	l.LogSpawn("researcher", "sess-1", 3, time.Second, nil)

	record := decodeLine(t, buf)
	if record["persona"] != "researcher" || record["spawned_session"] != "sess-1" {
		t.Errorf("spawn fields missing: %v", record)
	}
	if record["calls"] != float64(3) {
		t.Errorf("call count missing: %v", record)
	}
}

func TestArgsToAttrs_SkipsMalformedPairs(t *testing.T) {
	attrs := argsToAttrs([]any{"key", "value", 42, "not-a-key", "dangling"})
	if len(attrs) != 1 || attrs[0].Key != "key" {
		t.Errorf("unexpected attrs: %v", attrs)
	}
}
