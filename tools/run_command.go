package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

type RunCommandInput struct {
	Command string `json:"command" jsonschema_description:"Shell command to execute."`
	Timeout int    `json:"timeout,omitempty" jsonschema_description:"Seconds before the command is killed (default from config)."`
}

var RunCommandInputSchema = GenerateSchema[RunCommandInput]()

// NewRunCommand builds the run_command tool with the configured default timeout.
func NewRunCommand(defaultTimeout time.Duration) ToolDefinition {
	return ToolDefinition{
		Name:        "run_command",
		Description: "Execute a shell command and return its output. Commands are killed after the timeout.",
		InputSchema: RunCommandInputSchema,
		Function: func(ctx context.Context, input json.RawMessage) (string, error) {
			var in RunCommandInput
			if err := json.Unmarshal(input, &in); err != nil {
				return "", err
			}
			return runCommand(ctx, in, defaultTimeout)
		},
	}
}

func runCommand(ctx context.Context, in RunCommandInput, defaultTimeout time.Duration) (string, error) {
	if strings.TrimSpace(in.Command) == "" {
		return "", fmt.Errorf("command must not be empty")
	}

	timeout := defaultTimeout
	if in.Timeout > 0 {
		timeout = time.Duration(in.Timeout) * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", in.Command)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "Command timed out", nil
	}
	if err != nil {
		// Non-zero exits are normal tool output; anything else (spawn failure) is an error.
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return "", fmt.Errorf("run command: %w", err)
		}
	}

	output := strings.TrimSpace(stdout.String())
	if errOut := strings.TrimSpace(stderr.String()); errOut != "" {
		if output != "" {
			output += "\n"
		}
		output += "ERR: " + errOut
	}
	if output == "" {
		return "No output", nil
	}
	return output, nil
}
