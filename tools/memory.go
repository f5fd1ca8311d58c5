package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"ayyy/internal/memstore"
)

type MemoryAddInput struct {
	Content  string            `json:"content" jsonschema_description:"Fact to remember."`
	Metadata map[string]string `json:"metadata,omitempty" jsonschema_description:"Optional string metadata (a timestamp is added automatically)."`
}

type MemoryGetInput struct {
	ID string `json:"id" jsonschema_description:"Memory ID."`
}

type MemorySearchInput struct {
	Query string `json:"query" jsonschema_description:"Free-text query; terms are matched case-insensitively."`
	Limit int    `json:"limit,omitempty" jsonschema_description:"Maximum results (default 5)."`
}

type MemoryUpdateInput struct {
	ID       string            `json:"id" jsonschema_description:"Memory ID."`
	Content  string            `json:"content" jsonschema_description:"Replacement content."`
	Metadata map[string]string `json:"metadata,omitempty" jsonschema_description:"Replacement metadata; omitted keeps existing."`
}

type MemoryDeleteInput struct {
	ID string `json:"id" jsonschema_description:"Memory ID."`
}

type MemoryClearInput struct{}

type MemoryListInput struct {
	Limit int `json:"limit,omitempty" jsonschema_description:"Maximum entries (default 20)."`
}

const memorySnippetRunes = 50

// MemoryTools returns the long-term memory tool set bound to store.
func MemoryTools(store *memstore.Store) []ToolDefinition {
	return []ToolDefinition{
		{
			Name:        "memory_add",
			Description: "Store a fact in long-term memory; returns its ID.",
			InputSchema: GenerateSchema[MemoryAddInput](),
			Function: func(ctx context.Context, input json.RawMessage) (string, error) {
				var in MemoryAddInput
				if err := json.Unmarshal(input, &in); err != nil {
					return "", err
				}
				id, err := store.Add(ctx, in.Content, in.Metadata)
				if err != nil {
					return "", err
				}
				snippet, clipped := clampRunes(in.Content, memorySnippetRunes)
				if clipped {
					snippet += "..."
				}
				return fmt.Sprintf("Memory added with ID %s: %s", id, snippet), nil
			},
		},
		{
			Name:        "memory_get",
			Description: "Retrieve a specific memory by its ID.",
			InputSchema: GenerateSchema[MemoryGetInput](),
			Function: func(ctx context.Context, input json.RawMessage) (string, error) {
				var in MemoryGetInput
				if err := json.Unmarshal(input, &in); err != nil {
					return "", err
				}
				m, err := store.Get(ctx, in.ID)
				if err != nil {
					return "", err
				}
				return formatMemory(*m), nil
			},
		},
		{
			Name:        "memory_search",
			Description: "Retrieve memories relevant to a query.",
			InputSchema: GenerateSchema[MemorySearchInput](),
			Function: func(ctx context.Context, input json.RawMessage) (string, error) {
				var in MemorySearchInput
				if err := json.Unmarshal(input, &in); err != nil {
					return "", err
				}
				found, err := store.Search(ctx, in.Query, in.Limit)
				if err != nil {
					return "", err
				}
				if len(found) == 0 {
					return "No relevant memories found.", nil
				}
				return formatMemories("Retrieved memories:", found), nil
			},
		},
		{
			Name:        "memory_update",
			Description: "Update an existing memory's content and optionally its metadata.",
			InputSchema: GenerateSchema[MemoryUpdateInput](),
			Function: func(ctx context.Context, input json.RawMessage) (string, error) {
				var in MemoryUpdateInput
				if err := json.Unmarshal(input, &in); err != nil {
					return "", err
				}
				if err := store.Update(ctx, in.ID, in.Content, in.Metadata); err != nil {
					return "", err
				}
				return fmt.Sprintf("Memory %s updated successfully.", in.ID), nil
			},
		},
		{
			Name:        "memory_delete",
			Description: "Delete a specific memory by ID.",
			InputSchema: GenerateSchema[MemoryDeleteInput](),
			Function: func(ctx context.Context, input json.RawMessage) (string, error) {
				var in MemoryDeleteInput
				if err := json.Unmarshal(input, &in); err != nil {
					return "", err
				}
				if err := store.Delete(ctx, in.ID); err != nil {
					return "", err
				}
				return fmt.Sprintf("Memory %s deleted successfully.", in.ID), nil
			},
		},
		{
			Name:        "memory_clear",
			Description: "Clear all long-term memories.",
			InputSchema: GenerateSchema[MemoryClearInput](),
			Function: func(ctx context.Context, _ json.RawMessage) (string, error) {
				if err := store.Clear(ctx); err != nil {
					return "", err
				}
				return "All memories have been cleared.", nil
			},
		},
		{
			Name:        "memory_list",
			Description: "List stored memories, newest first.",
			InputSchema: GenerateSchema[MemoryListInput](),
			Function: func(ctx context.Context, input json.RawMessage) (string, error) {
				var in MemoryListInput
				if err := json.Unmarshal(input, &in); err != nil {
					return "", err
				}
				limit := in.Limit
				if limit <= 0 {
					limit = 20
				}
				found, err := store.List(ctx, limit)
				if err != nil {
					return "", err
				}
				if len(found) == 0 {
					return "No memories stored.", nil
				}
				return formatMemories("Stored memories:", found), nil
			},
		},
	}
}

func formatMemory(m memstore.Memory) string {
	ts := m.Metadata["timestamp"]
	if ts == "" {
		ts = "No timestamp"
	}
	return fmt.Sprintf("Memory %s [%s]:\n%s", m.ID, ts, m.Content)
}

func formatMemories(header string, ms []memstore.Memory) string {
	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n\n")
	for i, m := range ms {
		ts := m.Metadata["timestamp"]
		if ts == "" {
			ts = "No timestamp"
		}
		fmt.Fprintf(&b, "Memory %d (%s) [%s]:\n%s\n\n", i+1, m.ID, ts, m.Content)
	}
	return strings.TrimRight(b.String(), "\n")
}
