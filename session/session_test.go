package session

import (
	"errors"
	"testing"
	"time"

	"github.com/gork-labs/gorka-sub004/core"
)

func newTestManager(budgets Budgets) *Manager {
	return NewManager(NewMemoryStore(), budgets)
}

func TestManager_CreateAssignsDepth(t *testing.T) {
	m := newTestManager(Budgets{MaxDepth: 2})

	root, err := m.Create("researcher", "")
	if err != nil {
		t.Fatalf("create root: %v", err)
	}
	if root.Depth != 0 {
		t.Errorf("expected root depth 0, got %d", root.Depth)
	}

	child, err := m.Create("reviewer", root.ID)
	if err != nil {
		t.Fatalf("create child: %v", err)
	}
	if child.Depth != 1 {
		t.Errorf("expected child depth 1, got %d", child.Depth)
	}
	if child.ParentID != root.ID {
		t.Errorf("expected parent id %s, got %s", root.ID, child.ParentID)
	}
}

func TestManager_CreateRejectsExcessiveDepth(t *testing.T) {
	m := newTestManager(Budgets{MaxDepth: 1})

	root, _ := m.Create("researcher", "")
	child, err := m.Create("reviewer", root.ID)
	if err != nil {
		t.Fatalf("depth 1 should be allowed: %v", err)
	}

	_, err = m.Create("grandchild", child.ID)
	var depthErr *DepthError
	if !errors.As(err, &depthErr) {
		t.Fatalf("expected DepthError, got %v", err)
	}
	if depthErr.Depth != 2 || depthErr.Max != 1 {
		t.Errorf("unexpected DepthError fields: %+v", depthErr)
	}

	// Rejection must happen before any session is created.
	stats, _ := m.Stats()
	if stats.Total != 2 {
		t.Errorf("expected 2 sessions after rejected spawn, got %d", stats.Total)
	}
}

func TestManager_CreateUnknownParent(t *testing.T) {
	m := newTestManager(Budgets{})
	if _, err := m.Create("child", "missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestManager_RecordCallEnforcesBudget(t *testing.T) {
	m := newTestManager(Budgets{MaxCalls: 2})
	sess, _ := m.Create("researcher", "")

	if err := m.RecordCall(sess.ID); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if err := m.RecordCall(sess.ID); err != nil {
		t.Fatalf("second call: %v", err)
	}

	err := m.RecordCall(sess.ID)
	var limitErr *LimitError
	if !errors.As(err, &limitErr) {
		t.Fatalf("expected LimitError on third call, got %v", err)
	}
	if limitErr.Kind != LimitCalls || limitErr.Limit != 2 {
		t.Errorf("unexpected LimitError fields: %+v", limitErr)
	}

	// Rejected call must not advance the counter or complete the session.
	got, _ := m.Get(sess.ID)
	if got.CallCount != 2 {
		t.Errorf("expected call count 2 after rejection, got %d", got.CallCount)
	}
	if got.Completed {
		t.Error("session must remain not completed after budget rejection")
	}
}

func TestManager_AppendMessageOrdering(t *testing.T) {
	m := newTestManager(Budgets{})
	sess, _ := m.Create("researcher", "")

	for _, content := range []string{"first", "second", "third"} {
		if err := m.AppendMessage(sess.ID, core.NewMessage(core.RoleUser, content)); err != nil {
			t.Fatalf("append %q: %v", content, err)
		}
	}

	got, _ := m.Get(sess.ID)
	if len(got.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(got.Messages))
	}
	for i, want := range []string{"first", "second", "third"} {
		if got.Messages[i].Content != want {
			t.Errorf("message %d: expected %q, got %q", i, want, got.Messages[i].Content)
		}
	}
}

func TestManager_CompletedSessionRejectsMutation(t *testing.T) {
	m := newTestManager(Budgets{})
	sess, _ := m.Create("researcher", "")

	if err := m.Complete(sess.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	// Idempotent.
	if err := m.Complete(sess.ID); err != nil {
		t.Fatalf("second complete: %v", err)
	}

	if err := m.AppendMessage(sess.ID, core.NewMessage(core.RoleUser, "late")); !errors.Is(err, ErrSessionCompleted) {
		t.Errorf("expected ErrSessionCompleted on append, got %v", err)
	}
	if err := m.RecordCall(sess.ID); !errors.Is(err, ErrSessionCompleted) {
		t.Errorf("expected ErrSessionCompleted on record call, got %v", err)
	}
}

func TestManager_RefineReopensWithinBudget(t *testing.T) {
	m := newTestManager(Budgets{MaxRefinements: 1})
	sess, _ := m.Create("researcher", "")
	_ = m.Complete(sess.ID)

	if err := m.Refine(sess.ID); err != nil {
		t.Fatalf("first refine: %v", err)
	}
	got, _ := m.Get(sess.ID)
	if got.Completed {
		t.Error("refine must reopen the session")
	}
	if got.Refinements != 1 {
		t.Errorf("expected 1 refinement consumed, got %d", got.Refinements)
	}

	_ = m.Complete(sess.ID)
	err := m.Refine(sess.ID)
	var limitErr *LimitError
	if !errors.As(err, &limitErr) {
		t.Fatalf("expected LimitError on exhausted refinements, got %v", err)
	}
	if limitErr.Kind != LimitRefinements {
		t.Errorf("unexpected limit kind %q", limitErr.Kind)
	}
}

func TestManager_SweepRemovesStaleSessions(t *testing.T) {
	store := NewMemoryStore()
	m := NewManager(store, Budgets{})

	stale, _ := m.Create("old", "")
	fresh, _ := m.Create("new", "")

	// Age the stale session directly through the store.
	aged, _ := store.Load(stale.ID)
	aged.LastActive = time.Now().UTC().Add(-2 * time.Hour)
	if err := store.Save(aged); err != nil {
		t.Fatalf("age session: %v", err)
	}

	removed, err := m.Sweep(time.Hour)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if removed != 1 {
		t.Errorf("expected 1 removed, got %d", removed)
	}

	if _, err := m.Get(stale.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("stale session should be gone, got %v", err)
	}
	if _, err := m.Get(fresh.ID); err != nil {
		t.Errorf("fresh session should survive: %v", err)
	}
}

func TestManager_Stats(t *testing.T) {
	m := newTestManager(Budgets{})

	a, _ := m.Create("a", "")
	_, _ = m.Create("b", "")
	_ = m.Complete(a.ID)

	stats, err := m.Stats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 2 || stats.Active != 1 || stats.Completed != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestBudgets_ApplyDefaults(t *testing.T) {
	b := Budgets{}
	b.ApplyDefaults()
	if b.MaxCalls != 25 || b.MaxRefinements != 3 || b.MaxDepth != 1 {
		t.Errorf("unexpected defaults: %+v", b)
	}

	b = Budgets{MaxCalls: 5, MaxRefinements: 2, MaxDepth: 3}
	b.ApplyDefaults()
	if b.MaxCalls != 5 || b.MaxRefinements != 2 || b.MaxDepth != 3 {
		t.Errorf("explicit values must survive defaults: %+v", b)
	}
}
