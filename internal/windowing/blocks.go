package windowing

import (
	"fmt"
	"os"

	"github.com/sashabaranov/go-openai"
)

// GroupKind denotes the atomic unit type when preparing a send window.
type GroupKind int

const (
	GroupSingleton GroupKind = iota
	GroupToolExchange
)

// Group describes a contiguous span of messages [Start, End) in the original slice.
// Kind indicates whether it is a singleton or a validated tool exchange.
type Group struct {
	Kind  GroupKind
	Start int // inclusive index into msgs
	End   int // exclusive index into msgs
}

// GroupBlocks groups messages into atomic units that preserve tool exchanges.
// Invariants:
// - An exchange is an assistant message carrying tool calls followed immediately
// by its tool-role result messages, one per call, in any order.
// - Completeness: every tool call ID in the assistant message must appear as the
// ToolCallID of exactly one of the following tool messages, with no extras and
// no duplicates.
// - Tool messages carrying error text group the same as successful ones.
func GroupBlocks(msgs []openai.ChatCompletionMessage) []Group {
	groups := make([]Group, 0, len(msgs))
	for i := 0; i < len(msgs); {
		m := msgs[i]
		if m.Role == openai.ChatMessageRoleAssistant && len(m.ToolCalls) > 0 {
			callIDs := collectToolCallIDs(m)
			end, valid, reason := consumeToolResults(msgs, i+1, callIDs)
			if valid {
				groups = append(groups, Group{Kind: GroupToolExchange, Start: i, End: end})
				i = end
				continue
			}
			vlogf("exclude exchange: reason=%s idx=%d", reason, i)
		}
		// Fallback: singleton
		groups = append(groups, Group{Kind: GroupSingleton, Start: i, End: i + 1})
		i++
	}
	return groups
}

// Helpers

func collectToolCallIDs(m openai.ChatCompletionMessage) map[string]struct{} {
	ids := make(map[string]struct{}, len(m.ToolCalls))
	for _, tc := range m.ToolCalls {
		if tc.ID != "" {
			ids[tc.ID] = struct{}{}
		}
	}
	return ids
}

// consumeToolResults scans the contiguous run of tool-role messages starting at
// from and checks it matches callIDs exactly. It returns the exclusive end index
// of the exchange, whether it validated, and a reason code when it did not.
func consumeToolResults(msgs []openai.ChatCompletionMessage, from int, callIDs map[string]struct{}) (end int, valid bool, reason string) {
	seen := make(map[string]struct{}, len(callIDs))
	j := from
	for ; j < len(msgs) && msgs[j].Role == openai.ChatMessageRoleTool; j++ {
		id := msgs[j].ToolCallID
		if _, ok := callIDs[id]; !ok {
			return from, false, "extra_results"
		}
		if _, dup := seen[id]; dup {
			return from, false, "duplicate_results"
		}
		seen[id] = struct{}{}
	}
	if len(seen) == 0 {
		return from, false, "not_followed_by_tool"
	}
	if len(seen) != len(callIDs) {
		return from, false, "missing_results"
	}
	return j, true, ""
}

// minimal verbose logging when AYYY_VERBOSE_WINDOW_LOGS=1
var verbose = os.Getenv("AYYY_VERBOSE_WINDOW_LOGS") == "1"

func vlogf(format string, args ...any) {
	if verbose {
		fmt.Printf("[windowing] "+format+"\n", args...)
	}
}
