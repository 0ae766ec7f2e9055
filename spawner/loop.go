package spawner

import (
	"context"
	"fmt"
	"time"

	"github.com/gork-labs/gorka-sub004/adapter"
	"github.com/gork-labs/gorka-sub004/core"
	"github.com/gork-labs/gorka-sub004/model"
	"github.com/gork-labs/gorka-sub004/session"
	"github.com/gork-labs/gorka-sub004/tools"
)

// run drives the state machine for one session until DONE or FAILED. Every
// transition goes through the session manager, so the durable log is always
// the source of truth across turns.
func (s *Spawner) run(ctx context.Context, sessionID string, req Request) (*Result, error) {
	defs := toolDefinitions(s.registry.ToolsFor(req.Context))
	strat := s.adapters.Lookup(req.Model)

	overrides := model.RequestOverrides{DisableParallelToolCalls: true}
	if strat != nil {
		overrides = overrides.Merge(strat.Overrides())
		// Sequential tool execution is forced regardless of what the
		// adapter recommends.
		overrides.DisableParallelToolCalls = true
	}

	state := StateAwaitingResponse
	for state == StateAwaitingResponse || state == StateExecutingTools {
		if err := s.sessions.RecordCall(sessionID); err != nil {
			s.logger.Warn("spawn.budget_exceeded", "session_id", sessionID, "error", err.Error())
			return &Result{SessionID: sessionID, State: StateFailed}, err
		}

		sess, err := s.sessions.Get(sessionID)
		if err != nil {
			return &Result{SessionID: sessionID, State: StateFailed}, err
		}

		candidate, err := s.requestWithRetry(ctx, model.Request{
			Model:     req.Model,
			Messages:  sess.Messages,
			Tools:     defs,
			Overrides: overrides,
		})
		if err != nil {
			return &Result{SessionID: sessionID, State: StateFailed}, err
		}

		calls, err := s.resolveToolCalls(candidate, strat)
		if err != nil {
			s.logger.Warn("spawn.toolcall_parse_failed", "session_id", sessionID, "error", err.Error())
			calls = nil
		}

		if len(calls) == 0 {
			if err := s.sessions.AppendMessage(sessionID, core.NewAssistantMessage(candidate.Content, nil)); err != nil {
				return &Result{SessionID: sessionID, State: StateFailed}, err
			}
			state = StateDone
			break
		}

		state = StateExecutingTools
		if err := s.executeTurn(ctx, sessionID, candidate.Content, calls); err != nil {
			return &Result{SessionID: sessionID, State: StateFailed}, err
		}
		state = StateAwaitingResponse
	}

	if err := s.sessions.Complete(sessionID); err != nil {
		return &Result{SessionID: sessionID, State: StateFailed}, err
	}

	final, err := s.sessions.Get(sessionID)
	if err != nil {
		return &Result{SessionID: sessionID, State: StateFailed}, err
	}

	res := &Result{SessionID: sessionID, State: StateDone, CallCount: final.CallCount}
	if n := len(final.Messages); n > 0 {
		res.FinalText = final.Messages[n-1].Content
	}
	s.logger.Info("spawn.done", "session_id", sessionID, "calls", final.CallCount)
	return res, nil
}

// requestWithRetry issues one logical completion request with up to
// maxAttempts tries. Transport errors and responses whose candidates are all
// empty count against the same ceiling. A candidate whose only content is a
// reserved reasoning-tool call is usable like any other, so a deliberate
// completion signal never enters the retry path.
func (s *Spawner) requestWithRetry(ctx context.Context, req model.Request) (model.ResponseMessage, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, err := s.complete(ctx, req)
		if err != nil {
			s.logger.Warn("spawn.request_failed", "model", req.Model, "attempt", attempt, "error", err.Error())
			lastErr = fmt.Errorf("completion request failed: %w", err)
			continue
		}

		if candidate, ok := selectCandidate(resp); ok {
			return candidate, nil
		}

		s.logger.Debug("spawn.empty_response", "model", req.Model, "attempt", attempt)
		lastErr = ErrEmptyExhausted
	}
	return model.ResponseMessage{}, lastErr
}

// complete wraps a single upstream call with the per-request timeout.
func (s *Spawner) complete(ctx context.Context, req model.Request) (*model.Response, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	start := time.Now()
	resp, err := s.client.Complete(ctx, req)
	s.logger.Debug("spawn.request", "model", req.Model, "duration_ms", time.Since(start).Milliseconds(), "ok", err == nil)
	return resp, err
}

// selectCandidate picks the first choice carrying text or tool calls.
// Entirely empty candidates are skipped; if every candidate is empty there is
// nothing to select and the caller retries.
func selectCandidate(resp *model.Response) (model.ResponseMessage, bool) {
	for _, choice := range resp.Choices {
		if !choice.Message.Empty() {
			return choice.Message, true
		}
	}
	return model.ResponseMessage{}, false
}

// resolveToolCalls returns the candidate's structured tool calls, falling
// back to the adapter's text parser only when no structured calls are
// present. Synthetic identifiers are assigned where the provider (or the
// parser) supplied none, so tool results can always be matched to their call.
func (s *Spawner) resolveToolCalls(candidate model.ResponseMessage, strat adapter.Adapter) ([]core.ToolCall, error) {
	calls := candidate.ToolCalls
	if len(calls) == 0 && strat != nil && candidate.Content != "" {
		parsed, err := strat.ParseToolCalls(candidate.Content)
		if err != nil {
			return nil, err
		}
		calls = parsed
	}
	for i := range calls {
		if calls[i].ID == "" {
			calls[i].ID = core.NewID()
		}
	}
	return calls, nil
}

// executeTurn appends the assistant message, dispatches its tool calls
// strictly in order, appends one tool-result message per call, and injects
// the continuation prompt when a reasoning-tool call asked for another step.
// Tool failures become result content and never abort the turn.
func (s *Spawner) executeTurn(ctx context.Context, sessionID, content string, calls []core.ToolCall) error {
	if err := s.sessions.AppendMessage(sessionID, core.NewAssistantMessage(content, calls)); err != nil {
		return err
	}

	continuation := false
	for _, call := range calls {
		args, argErr := call.ParsedArguments()

		var resultContent string
		if argErr != nil {
			resultContent = fmt.Sprintf("Error: invalid tool arguments: %v", argErr)
		} else {
			result := s.proxy.Execute(ctx, call.Name, args)
			if result.Success {
				resultContent = result.Content
			} else {
				resultContent = "Error: " + result.Error
			}
			if call.Name == core.SequentialThinkingTool && argBool(args, core.ArgNextThoughtNeeded) {
				continuation = true
			}
		}

		if err := s.sessions.AppendMessage(sessionID, core.NewToolResultMessage(call.ID, resultContent)); err != nil {
			return err
		}
	}

	if continuation {
		if err := s.sessions.AppendMessage(sessionID, core.NewMessage(core.RoleUser, s.continuation)); err != nil {
			return err
		}
	}
	return nil
}

func argBool(args map[string]any, key string) bool {
	v, ok := args[key].(bool)
	return ok && v
}

// toolDefinitions converts discovered tools into completion-request tool
// definitions.
func toolDefinitions(discovered []tools.Discovered) []model.ToolDefinition {
	defs := make([]model.ToolDefinition, 0, len(discovered))
	for _, t := range discovered {
		defs = append(defs, model.ToolDefinition{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.InputSchema,
			},
		})
	}
	return defs
}

// Sweep removes sessions older than maxAge through the session manager.
// Exposed here so operators sweep through the same component that spawns.
func (s *Spawner) Sweep(maxAge time.Duration) (int, error) {
	return s.sessions.Sweep(maxAge)
}

// Stats reports the persisted session population.
func (s *Spawner) Stats() (session.Stats, error) {
	return s.sessions.Stats()
}
