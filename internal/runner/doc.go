// Package runner coordinates message exchange with the chat completion API
// and dispatches tool calls.
//
// Invariant:
//   - an assistant message carrying tool calls and its tool result messages are
//     kept adjacent within a turn to preserve execution context and simplify
//     follow-up reasoning.
//
// Flow:
//
//	user(text) -> assistant(tool_calls) -> tool(results) -> assistant(text)
package runner
