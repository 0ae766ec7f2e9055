package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/gork-labs/gorka-sub004/core"
	"github.com/gork-labs/gorka-sub004/logging"
)

// Budgets bound every session the manager creates. Zero values are replaced
// by defaults via ApplyDefaults.
type Budgets struct {
	// MaxCalls caps total completion API calls per session.
	MaxCalls int
	// MaxRefinements caps refinement iterations per session.
	MaxRefinements int
	// MaxDepth caps delegation nesting (root = 0). The default of 1 means
	// sub-agents cannot spawn further agents; raising it opts in to
	// depth-bounded recursion.
	MaxDepth int
}

// ApplyDefaults fills unset budget fields.
func (b *Budgets) ApplyDefaults() {
	if b.MaxCalls <= 0 {
		b.MaxCalls = 25
	}
	if b.MaxRefinements <= 0 {
		b.MaxRefinements = 3
	}
	if b.MaxDepth <= 0 {
		b.MaxDepth = 1
	}
}

// Stats summarizes the persisted session population.
type Stats struct {
	Total     int `json:"total"`
	Active    int `json:"active"`
	Completed int `json:"completed"`
}

// ManagerOptions configures a Manager instance.
type ManagerOptions struct {
	Logger logging.Logger
}

// Manager is the only place session state may be mutated. Every operation is
// a load-mutate-save cycle under one lock, so concurrent conversation loops
// never lose updates to the same session.
type Manager struct {
	store   Store
	budgets Budgets
	logger  logging.Logger
	mu      sync.Mutex
}

// NewManager creates a session manager over the given store.
func NewManager(store Store, budgets Budgets, optFns ...func(o *ManagerOptions)) *Manager {
	opts := ManagerOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	budgets.ApplyDefaults()
	return &Manager{store: store, budgets: budgets, logger: opts.Logger}
}

// Budgets returns the configured budget set.
func (m *Manager) Budgets() Budgets { return m.budgets }

// Create registers a new session for a persona. When parentID is non-empty
// the child's depth is parent depth + 1; a spawn that would exceed MaxDepth
// is rejected with DepthError before any session is created.
func (m *Manager) Create(persona, parentID string) (*Session, error) {
	depth := 0
	if parentID != "" {
		parent, err := m.store.Load(parentID)
		if err != nil {
			return nil, err
		}
		depth = parent.Depth + 1
	}
	if depth > m.budgets.MaxDepth {
		return nil, &DepthError{Depth: depth, Max: m.budgets.MaxDepth}
	}

	sess := newSession(persona, parentID, depth)
	if err := m.store.Save(sess); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	m.logger.Debug("session.created", "session_id", sess.ID, "persona", persona, "depth", depth)
	return sess, nil
}

// Get returns a copy of the session.
func (m *Manager) Get(id string) (*Session, error) {
	return m.store.Load(id)
}

// mutate runs fn against the loaded session and persists the result under
// the manager lock, so concurrent loops never lose updates to a session.
func (m *Manager) mutate(id string, allowCompleted bool, fn func(sess *Session) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, err := m.store.Load(id)
	if err != nil {
		return err
	}
	if sess.Completed && !allowCompleted {
		return fmt.Errorf("%w: %s", ErrSessionCompleted, id)
	}
	if err := fn(sess); err != nil {
		return err
	}
	sess.LastActive = time.Now().UTC()
	return m.store.Save(sess)
}

// AppendMessage appends one entry to the session's ordered log.
func (m *Manager) AppendMessage(id string, msg core.Message) error {
	return m.mutate(id, false, func(sess *Session) error {
		sess.Messages = append(sess.Messages, msg)
		return nil
	})
}

// RecordCall increments the call counter. The check happens before the
// increment is persisted and before any upstream request is issued, so a
// rejected call never reaches the completion API.
func (m *Manager) RecordCall(id string) error {
	return m.mutate(id, false, func(sess *Session) error {
		if sess.CallCount+1 > m.budgets.MaxCalls {
			return &LimitError{SessionID: id, Kind: LimitCalls, Limit: m.budgets.MaxCalls}
		}
		sess.CallCount++
		return nil
	})
}

// Refine consumes one refinement iteration and reopens the session so the
// conversation loop can run again against caller feedback. The refinement
// budget bounds how many times a session may be reopened.
func (m *Manager) Refine(id string) error {
	return m.mutate(id, true, func(sess *Session) error {
		if sess.Refinements+1 > m.budgets.MaxRefinements {
			return &LimitError{SessionID: id, Kind: LimitRefinements, Limit: m.budgets.MaxRefinements}
		}
		sess.Refinements++
		sess.Completed = false
		return nil
	})
}

// Complete marks the session terminal. Idempotent.
func (m *Manager) Complete(id string) error {
	return m.mutate(id, true, func(sess *Session) error {
		sess.Completed = true
		return nil
	})
}

// Sweep deletes sessions whose last activity is older than maxAge, regardless
// of completion state, and returns the number removed. Callers holding a
// swept session id must treat it as a terminal failure.
func (m *Manager) Sweep(maxAge time.Duration) (int, error) {
	sessions, err := m.store.List()
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().UTC().Add(-maxAge)
	removed := 0
	for _, sess := range sessions {
		if sess.LastActive.After(cutoff) {
			continue
		}
		if err := m.store.Delete(sess.ID); err != nil {
			return removed, err
		}
		removed++
	}

	if removed > 0 {
		m.logger.Info("session.sweep", "removed", removed, "max_age", maxAge.String())
	}
	return removed, nil
}

// Stats counts the persisted session population from the store.
func (m *Manager) Stats() (Stats, error) {
	sessions, err := m.store.List()
	if err != nil {
		return Stats{}, err
	}
	stats := Stats{Total: len(sessions)}
	for _, sess := range sessions {
		if sess.Completed {
			stats.Completed++
		} else {
			stats.Active++
		}
	}
	return stats, nil
}
