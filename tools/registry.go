package tools

import (
	"context"
	"encoding/json"

	"github.com/invopop/jsonschema"

	"ayyy/internal/config"
	"ayyy/internal/memstore"
)

// ToolDefinition binds a tool name to its description, JSON input schema, and handler.
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema *jsonschema.Schema
	Function    func(ctx context.Context, input json.RawMessage) (string, error)
}

// GenerateSchema derives a JSON Schema for T from its struct tags.
func GenerateSchema[T any]() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

// Registry assembles the active tool set for a session. Capabilities disabled
// in config are skipped; a nil memory store excludes the memory tools. The
// process never fails startup because a capability is unavailable.
func Registry(cfg *config.Config, store *memstore.Store) []ToolDefinition {
	defs := []ToolDefinition{
		ReadFileDefinition,
		WriteFileDefinition,
		ListFilesDefinition,
		QueryDatabaseDefinition,
		ProcessImageDefinition,
		SystemInfoDefinition,
	}
	if cfg.EnableWeb {
		defs = append(defs, NewFetchURL(cfg.FetchMaxBytes), NewCallExternalAPI(cfg.FetchMaxBytes))
	}
	if cfg.EnableShell {
		defs = append(defs, NewRunCommand(cfg.CommandTimeout), NewRunPython(cfg.CommandTimeout))
	}
	if cfg.EnableMemory && store != nil {
		defs = append(defs, MemoryTools(store)...)
	}
	return defs
}

// Names returns the tool names in registry order, for the startup banner.
func Names(defs []ToolDefinition) []string {
	out := make([]string, 0, len(defs))
	for _, d := range defs {
		out = append(out, d.Name)
	}
	return out
}
