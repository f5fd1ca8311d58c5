package windowing

import (
	"unicode/utf8"

	"github.com/sashabaranov/go-openai"
)

// TokenCounter estimates input-token cost for messages or groups.
type TokenCounter interface {
	CountMessage(m openai.ChatCompletionMessage) int
	CountGroup(g Group, all []openai.ChatCompletionMessage) int
}

// HeuristicCounter is the current default deterministic estimator.
// Rules:
// - message content: rune count of Content
// - tool calls on assistant messages: rune count of function name plus arguments
// Add a small per-message overhead to account for role framing.
type HeuristicCounter struct{}

// Fixed per-message overhead for deterministic counts; changing this requires updating the guard test.
const messageOverhead = 4

func (HeuristicCounter) CountMessage(m openai.ChatCompletionMessage) int {
	total := utf8.RuneCountInString(m.Content) + messageOverhead
	for _, tc := range m.ToolCalls {
		total += utf8.RuneCountInString(tc.Function.Name)
		total += utf8.RuneCountInString(tc.Function.Arguments)
	}
	return total
}

func (h HeuristicCounter) CountGroup(g Group, all []openai.ChatCompletionMessage) int {
	total := 0
	for i := g.Start; i < g.End && i < len(all); i++ {
		total += h.CountMessage(all[i])
	}
	return total
}
