// Package tools defines tool contracts and implementations.
//
// Includes:
//   - ToolDefinition: name, description, JSON input schema, handler.
//   - GenerateSchema[T](): derive JSON Schema from Go structs.
//   - File tools: read_file, write_file, list_files (sandboxed via fsops).
//   - Web tools: fetch_url, call_external_api.
//   - System tools: run_command, run_python, get_system_info, query_database.
//   - Image tool: process_image (resize/grayscale to base64 PNG).
//   - Memory tools: store/retrieve/search long-term facts via memstore.
//
// Registry assembly is conditional: capabilities disabled in config or whose
// backing resource failed to initialise are omitted without failing startup.
package tools
