package history

import (
	"encoding/json"
	"errors"
	"os"
)

// ToolCall is the persisted view of a function call the assistant requested.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Message is a persisted view of one transcript entry. Role is one of
// user/assistant/tool. Tool metadata is kept so a reloaded transcript is
// still a valid conversation prefix for the completion endpoint.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
}

// Load reads the transcript at path. A missing file is an empty transcript;
// malformed JSON is an error (callers typically warn and start fresh).
func Load(path string) ([]Message, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var msgs []Message
	if err := json.Unmarshal(b, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// Save rewrites the transcript at path. Last write wins; single-session usage.
func Save(path string, msgs []Message) error {
	b, err := json.MarshalIndent(msgs, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
