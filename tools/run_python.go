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

type RunPythonInput struct {
	Code    string `json:"code" jsonschema_description:"Python code to execute."`
	Timeout int    `json:"timeout,omitempty" jsonschema_description:"Seconds before execution is killed (default from config)."`
}

var RunPythonInputSchema = GenerateSchema[RunPythonInput]()

// Interpreter is resolved from PATH at call time; both common names are tried.
var pythonCandidates = []string{"python3", "python"}

// NewRunPython builds the run_python tool with the configured default timeout.
func NewRunPython(defaultTimeout time.Duration) ToolDefinition {
	return ToolDefinition{
		Name:        "run_python",
		Description: "Execute Python code and return its output. Execution is killed after the timeout.",
		InputSchema: RunPythonInputSchema,
		Function: func(ctx context.Context, input json.RawMessage) (string, error) {
			var in RunPythonInput
			if err := json.Unmarshal(input, &in); err != nil {
				return "", err
			}
			return runPython(ctx, in, defaultTimeout)
		},
	}
}

func runPython(ctx context.Context, in RunPythonInput, defaultTimeout time.Duration) (string, error) {
	if strings.TrimSpace(in.Code) == "" {
		return "", fmt.Errorf("code must not be empty")
	}

	interp, err := lookupPython()
	if err != nil {
		return "", err
	}

	timeout := defaultTimeout
	if in.Timeout > 0 {
		timeout = time.Duration(in.Timeout) * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Unbuffered, code fed over stdin: no temp files to clean up.
	cmd := exec.CommandContext(ctx, interp, "-u", "-")
	cmd.Stdin = strings.NewReader(in.Code)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "Execution timed out", nil
	}
	if err != nil {
		// Tracebacks arrive as normal stderr output; only spawn failures are errors.
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return "", fmt.Errorf("run python: %w", err)
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

func lookupPython() (string, error) {
	for _, name := range pythonCandidates {
		if p, err := exec.LookPath(name); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("no python interpreter found on PATH")
}
