package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/tidwall/gjson"

	"ayyy/internal/telemetry"
	"ayyy/internal/windowing"
	"ayyy/tools"
)

type Runner struct {
	Client *openai.Client
	Tools  []tools.ToolDefinition
}

func New(client *openai.Client, toolDefs []tools.ToolDefinition) *Runner {
	return &Runner{Client: client, Tools: toolDefs}
}

func (r *Runner) openaiTools() []openai.Tool {
	out := make([]openai.Tool, 0, len(r.Tools))
	for _, t := range r.Tools {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.InputSchema,
			},
		})
	}
	return out
}

// RunOneStep sends the conversation and either prints assistant text or returns
// tool result messages to be appended before the next step.
func (r *Runner) RunOneStep(ctx context.Context, model string, conv []openai.ChatCompletionMessage) (*openai.ChatCompletionMessage, []openai.ChatCompletionMessage, error) {
	window := conv

	// AYYY_TOKEN_BUDGET is optional: unset means the whole conversation is sent.
	if v := os.Getenv("AYYY_TOKEN_BUDGET"); v != "" {
		budget, err := strconv.Atoi(v)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid AYYY_TOKEN_BUDGET %q: %w", v, err)
		}
		var stats windowing.Stats
		window, stats = windowing.PrepareSendWindow(conv, budget, windowing.HeuristicCounter{})
		r.reportWindow(ctx, model, stats)
		// The newest exchange should always fit given the tool output caps. If it
		// does not, treat it as a misconfiguration and fail fast.
		if stats.OverBudgetNewest {
			return nil, nil, fmt.Errorf("windowing: newest group exceeds AYYY_TOKEN_BUDGET; increase budget with headroom or tighten tool caps")
		}
	}

	turnID, ok := telemetry.TurnIDFromContext(ctx)
	if !ok {
		turnID = fmt.Sprintf("turn-%d", time.Now().UnixNano())
		ctx = telemetry.WithTurnID(ctx, turnID)
	}

	req := openai.ChatCompletionRequest{
		Model:    model,
		Messages: window,
		Tools:    r.openaiTools(),
	}

	if telemetry.PersistPayloadsEnabled() {
		if body, err := json.Marshal(req); err == nil {
			telemetry.PersistRequestPayload(turnID, body)
		}
	}

	start := time.Now()
	resp, err := r.Client.CreateChatCompletion(ctx, req)
	if err != nil {
		telemetry.Emit("completion_error", map[string]any{
			"turn_id":     turnID,
			"model":       model,
			"duration_ms": time.Since(start).Milliseconds(),
			"error":       "request failed",
		})
		return nil, nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, nil, fmt.Errorf("chat completion: empty response")
	}

	msg := resp.Choices[0].Message

	telemetry.Emit("completion", map[string]any{
		"turn_id":           turnID,
		"model":             model,
		"duration_ms":       time.Since(start).Milliseconds(),
		"prompt_tokens":     resp.Usage.PromptTokens,
		"completion_tokens": resp.Usage.CompletionTokens,
		"tool_calls":        len(msg.ToolCalls),
	})

	if msg.Content != "" {
		fmt.Printf("\u001b[93mAssistant\u001b[0m: %s\n", msg.Content)
	}

	var toolResults []openai.ChatCompletionMessage
	for _, tc := range msg.ToolCalls {
		res := r.execTool(ctx, tc.ID, tc.Function.Name, json.RawMessage(tc.Function.Arguments))
		toolResults = append(toolResults, res)
	}
	return &msg, toolResults, nil
}

func (r *Runner) execTool(ctx context.Context, id, name string, input json.RawMessage) openai.ChatCompletionMessage {
	var def *tools.ToolDefinition
	for i := range r.Tools {
		if r.Tools[i].Name == name {
			def = &r.Tools[i]
			break
		}
	}

	turnID, _ := telemetry.TurnIDFromContext(ctx)

	// Helper to emit a tool_exec event
	emit := func(durationMs int64, inputSize int, outputSize int, errStr string) {
		fields := map[string]any{
			"tool_name":   name,
			"duration_ms": durationMs,
			"input_size":  inputSize,
			"output_size": outputSize,
			"turn_id":     turnID,
		}
		if errStr != "" {
			fields["error"] = errStr
		} else {
			fields["error"] = nil
		}
		telemetry.Emit("tool_exec", fields)
	}

	start := time.Now()
	inSize := len(input)

	result := openai.ChatCompletionMessage{
		Role:       openai.ChatMessageRoleTool,
		ToolCallID: id,
	}

	// Models occasionally emit truncated argument JSON; surface it as a tool
	// error message rather than letting each handler fail on unmarshal.
	if len(input) > 0 && !gjson.ValidBytes(input) {
		emit(time.Since(start).Milliseconds(), inSize, 0, "invalid arguments")
		result.Content = fmt.Sprintf("Error: tool %q received invalid JSON arguments", name)
		return result
	}

	if def == nil {
		emit(time.Since(start).Milliseconds(), inSize, 0, "tool not found")
		result.Content = fmt.Sprintf("Error: tool %q not found", name)
		return result
	}

	resp, err := def.Function(ctx, input)
	if err != nil {
		// Emit a generic error string to avoid leaking raw payloads in telemetry;
		// the detailed message still goes back to the model in the result content.
		emit(time.Since(start).Milliseconds(), inSize, 0, "tool error")
		result.Content = fmt.Sprintf("Error: %s", err.Error())
		return result
	}
	emit(time.Since(start).Milliseconds(), inSize, len(resp), "")
	result.Content = resp
	return result
}

func (r *Runner) reportWindow(ctx context.Context, model string, stats windowing.Stats) {
	turnID, _ := telemetry.TurnIDFromContext(ctx)
	telemetry.Emit("window_prepared", map[string]any{
		"turn_id":            turnID,
		"model":              model,
		"budget":             stats.Budget,
		"total_estimated":    stats.Total,
		"included_groups":    stats.IncludedGroups,
		"skipped_groups":     stats.SkippedGroups,
		"over_budget_newest": stats.OverBudgetNewest,
	})
	if os.Getenv("AYYY_VERBOSE_WINDOW_LOGS") == "1" {
		fmt.Printf(
			"window: model=%s budget=%d est_total=%d groups_in=%d groups_skip=%d newest_over=%t\n",
			model, stats.Budget, stats.Total, stats.IncludedGroups, stats.SkippedGroups, stats.OverBudgetNewest,
		)
	}
}
