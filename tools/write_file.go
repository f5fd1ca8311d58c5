package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"ayyy/internal/fsops"
)

type WriteFileInput struct {
	Path    string `json:"path" jsonschema_description:"Target relative file path within the workspace."`
	Content string `json:"content" jsonschema_description:"Full content to write; an existing file is replaced."`
}

var WriteFileDefinition = ToolDefinition{
	Name:        "write_file",
	Description: "Create or overwrite a text file addressed by a relative path within the workspace. Parent directories are created as needed.",
	InputSchema: WriteFileInputSchema,
	Function:    WriteFile,
}

var WriteFileInputSchema = GenerateSchema[WriteFileInput]()

func WriteFile(_ context.Context, input json.RawMessage) (string, error) {
	var in WriteFileInput
	if err := json.Unmarshal(input, &in); err != nil {
		return "", err
	}
	if in.Path == "" {
		return "", fmt.Errorf("path must not be empty")
	}

	if err := fsops.WriteFile(in.Path, in.Content); err != nil {
		return "", err
	}
	return fmt.Sprintf("Written to %s", in.Path), nil
}
