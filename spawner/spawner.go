package spawner

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gork-labs/gorka-sub004/adapter"
	"github.com/gork-labs/gorka-sub004/core"
	"github.com/gork-labs/gorka-sub004/logging"
	"github.com/gork-labs/gorka-sub004/model"
	"github.com/gork-labs/gorka-sub004/session"
	"github.com/gork-labs/gorka-sub004/tools"
)

// State is the conversation loop's lifecycle position.
type State string

const (
	// StateAwaitingResponse means a completion request is pending or about
	// to be issued.
	StateAwaitingResponse State = "AWAITING_RESPONSE"
	// StateExecutingTools means the selected candidate's tool calls are
	// being dispatched.
	StateExecutingTools State = "EXECUTING_TOOLS"
	// StateDone is terminal success: a final assistant message was appended.
	StateDone State = "DONE"
	// StateFailed is terminal failure: budget, depth or exhausted retries.
	StateFailed State = "FAILED"
)

// ErrEmptyExhausted is returned when every retry attempt produced a response
// with no usable candidate.
var ErrEmptyExhausted = errors.New("all attempts returned empty or no choices")

// maxAttempts bounds request retries within one turn. Transport failures and
// all-empty responses share the same ceiling.
const maxAttempts = 3

const defaultContinuationPrompt = "Continue with your next reasoning step."

// Options configures a Spawner instance.
type Options struct {
	// Adapters resolves per-model request shaping and textual tool-call
	// recovery. Defaults to the built-in registry.
	Adapters *adapter.Registry
	// RequestTimeout bounds each individual completion request. Exceeding it
	// counts as a transport failure subject to the retry ceiling. Zero
	// disables the per-request bound.
	RequestTimeout time.Duration
	// MaxParallel caps concurrent sibling spawns in SpawnParallel.
	MaxParallel int
	// ContinuationPrompt is the synthetic user message injected after a
	// reasoning-tool call that asks for another step.
	ContinuationPrompt string
	Logger             logging.Logger
}

// Spawner creates sessions and drives their conversation loops.
type Spawner struct {
	sessions     *session.Manager
	registry     *tools.Registry
	proxy        *tools.Proxy
	client       model.Client
	adapters     *adapter.Registry
	timeout      time.Duration
	maxParallel  int
	continuation string
	logger       logging.Logger
}

// New creates a spawner over the given collaborators.
func New(sessions *session.Manager, registry *tools.Registry, proxy *tools.Proxy, client model.Client, optFns ...func(o *Options)) *Spawner {
	opts := Options{
		Adapters:           adapter.NewDefaultRegistry(),
		MaxParallel:        4,
		ContinuationPrompt: defaultContinuationPrompt,
		Logger:             logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxParallel <= 0 {
		opts.MaxParallel = 1
	}
	return &Spawner{
		sessions:     sessions,
		registry:     registry,
		proxy:        proxy,
		client:       client,
		adapters:     opts.Adapters,
		timeout:      opts.RequestTimeout,
		maxParallel:  opts.MaxParallel,
		continuation: opts.ContinuationPrompt,
		logger:       opts.Logger,
	}
}

// Request describes one delegation to run.
type Request struct {
	// Persona carries the identity and the fully assembled system prompt.
	Persona core.Persona
	// Prompt is the initial user instruction.
	Prompt string
	// ParentSessionID, when set, nests the new session under an existing one.
	ParentSessionID string
	// Model is the model identifier for every completion request.
	Model string
	// Context selects the visible tool set; defaults to subagent.
	Context core.Context
}

// Result is the outcome of one conversation loop run.
type Result struct {
	SessionID string
	FinalText string
	State     State
	CallCount int
}

// Spawn creates a session for the request's persona and runs the conversation
// loop to a terminal state. A depth rejection returns before any session
// exists; once a session is created the returned Result always carries its id,
// including on failure, so callers can inspect the transcript.
func (s *Spawner) Spawn(ctx context.Context, req Request) (*Result, error) {
	if req.Context == "" {
		req.Context = core.ContextSubagent
	}

	sess, err := s.sessions.Create(req.Persona.ID, req.ParentSessionID)
	if err != nil {
		return nil, err
	}

	log := s.logger
	log.Info("spawn.start", "session_id", sess.ID, "persona", req.Persona.ID, "model", req.Model, "depth", sess.Depth)

	if err := s.sessions.AppendMessage(sess.ID, core.NewMessage(core.RoleSystem, req.Persona.SystemPrompt)); err != nil {
		return &Result{SessionID: sess.ID, State: StateFailed}, err
	}
	if err := s.sessions.AppendMessage(sess.ID, core.NewMessage(core.RoleUser, req.Prompt)); err != nil {
		return &Result{SessionID: sess.ID, State: StateFailed}, err
	}

	return s.run(ctx, sess.ID, req)
}

// Refine reopens a finished session with caller feedback and runs the loop
// again. Each call consumes one refinement iteration from the session's
// budget; an exhausted budget is rejected before any message is appended.
func (s *Spawner) Refine(ctx context.Context, sessionID, feedback string, req Request) (*Result, error) {
	if req.Context == "" {
		req.Context = core.ContextSubagent
	}

	if err := s.sessions.Refine(sessionID); err != nil {
		return nil, err
	}
	if err := s.sessions.AppendMessage(sessionID, core.NewMessage(core.RoleUser, feedback)); err != nil {
		return &Result{SessionID: sessionID, State: StateFailed}, err
	}

	s.logger.Info("spawn.refine", "session_id", sessionID)
	return s.run(ctx, sessionID, req)
}

// Outcome pairs one parallel spawn's result with its error, positionally
// aligned with the request slice handed to SpawnParallel.
type Outcome struct {
	Result *Result
	Err    error
}

// SpawnParallel runs every request as an independent sibling loop, bounded by
// the configured maximum parallel-agent count. Ordering across siblings is not
// guaranteed; outcomes are returned in request order.
func (s *Spawner) SpawnParallel(ctx context.Context, reqs []Request) []Outcome {
	outcomes := make([]Outcome, len(reqs))
	sem := make(chan struct{}, s.maxParallel)

	var wg sync.WaitGroup
	for i, req := range reqs {
		wg.Add(1)
		go func(i int, req Request) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			res, err := s.Spawn(ctx, req)
			outcomes[i] = Outcome{Result: res, Err: err}
		}(i, req)
	}
	wg.Wait()

	return outcomes
}
