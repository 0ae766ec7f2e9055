package session

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gork-labs/gorka-sub004/core"
)

// Interface compliance (compile-time assertion)
var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*FileStore)(nil)
)

func TestMemoryStore_CloneIsolation(t *testing.T) {
	store := NewMemoryStore()
	sess := newSession("researcher", "", 0)
	sess.Messages = append(sess.Messages, core.NewMessage(core.RoleUser, "hello"))

	if err := store.Save(sess); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := store.Load(sess.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	loaded.Messages[0].Content = "mutated"

	again, _ := store.Load(sess.ID)
	if again.Messages[0].Content != "hello" {
		t.Error("store must hand out independent copies")
	}
}

func TestFileStore_Roundtrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}

	sess := newSession("researcher", "parent-1", 1)
	sess.Messages = append(sess.Messages,
		core.NewMessage(core.RoleSystem, "be brief"),
		core.NewAssistantMessage("", []core.ToolCall{{ID: "c1", Name: "file_read", Arguments: `{"path":"a.txt"}`}}),
		core.NewToolResultMessage("c1", "contents"),
	)
	sess.CallCount = 3

	if err := store.Save(sess); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := store.Load(sess.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Persona != "researcher" || loaded.ParentID != "parent-1" || loaded.Depth != 1 {
		t.Errorf("identity fields lost: %+v", loaded)
	}
	if loaded.CallCount != 3 {
		t.Errorf("expected call count 3, got %d", loaded.CallCount)
	}
	if len(loaded.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(loaded.Messages))
	}
	if loaded.Messages[1].ToolCalls[0].ID != "c1" {
		t.Errorf("tool call identity lost: %+v", loaded.Messages[1])
	}
	if loaded.Messages[2].ToolCallID != "c1" {
		t.Errorf("tool result binding lost: %+v", loaded.Messages[2])
	}
}

func TestFileStore_SurvivesRestart(t *testing.T) {
	dir := t.TempDir()

	store, _ := NewFileStore(dir)
	sess := newSession("researcher", "", 0)
	if err := store.Save(sess); err != nil {
		t.Fatalf("save: %v", err)
	}

	// A fresh store over the same directory sees the session.
	reopened, _ := NewFileStore(dir)
	loaded, err := reopened.Load(sess.ID)
	if err != nil {
		t.Fatalf("load after reopen: %v", err)
	}
	if loaded.ID != sess.ID {
		t.Errorf("expected id %s, got %s", sess.ID, loaded.ID)
	}
}

func TestFileStore_LoadUnknown(t *testing.T) {
	store, _ := NewFileStore(t.TempDir())
	if _, err := store.Load("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestFileStore_DeleteMissingIsNoOp(t *testing.T) {
	store, _ := NewFileStore(t.TempDir())
	if err := store.Delete("missing"); err != nil {
		t.Errorf("delete of unknown id must not error: %v", err)
	}
}

func TestFileStore_ListSkipsUnreadableFiles(t *testing.T) {
	dir := t.TempDir()
	store, _ := NewFileStore(dir)

	sess := newSession("researcher", "", 0)
	if err := store.Save(sess); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "garbage.json"), []byte("not json"), 0o644); err != nil {
		t.Fatalf("write garbage: %v", err)
	}

	sessions, err := store.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sessions) != 1 {
		t.Errorf("expected 1 listable session, got %d", len(sessions))
	}
}

func TestSessionClone(t *testing.T) {
	sess := newSession("researcher", "", 0)
	sess.Messages = append(sess.Messages, core.NewAssistantMessage("x", []core.ToolCall{{ID: "c1", Name: "grep_search"}}))
	sess.LastActive = time.Now().UTC()

	clone := sess.Clone()
	clone.Messages[0].ToolCalls[0].Name = "changed"

	if sess.Messages[0].ToolCalls[0].Name != "grep_search" {
		t.Error("clone must not share tool call slices with the original")
	}
}
