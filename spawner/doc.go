// Package spawner runs the conversation loop for delegated agent sessions.
//
// A Spawner creates a session for a persona, then drives a multi-turn
// exchange with the completion API: every turn is budget-checked through the
// session manager, tool calls are executed sequentially through the tool
// proxy, and adapter strategies recover textual tool calls for models that
// do not emit structured ones. The loop terminates in either a successful
// final assistant message or a structured failure.
package spawner
