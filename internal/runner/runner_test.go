package runner_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"

	"github.com/sashabaranov/go-openai"

	"ayyy/internal/config"
	"ayyy/internal/provider"
	"ayyy/internal/runner"
	"ayyy/tools"
)

type capture struct {
	method string
	url    string
	body   []byte
}

type fakeTransport struct {
	respStatus int
	respBody   []byte
	captured   *capture
}

func (f *fakeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	b, _ := io.ReadAll(req.Body)
	_ = req.Body.Close()
	if f.captured != nil {
		f.captured.method = req.Method
		f.captured.url = req.URL.String()
		f.captured.body = b
	}
	resp := &http.Response{
		StatusCode: f.respStatus,
		Body:       io.NopCloser(bytes.NewReader(f.respBody)),
		Header:     make(http.Header),
	}
	resp.Header.Set("Content-Type", "application/json")
	return resp, nil
}

func newClientWithTransport(rt http.RoundTripper) *openai.Client {
	cfg := config.Defaults()
	// Base URL is irrelevant since the transport intercepts.
	return provider.NewClientWithHTTPClient(&cfg, &http.Client{Transport: rt})
}

// textResponse builds a plain assistant completion body.
func textResponse(text string) []byte {
	return []byte(`{"choices":[{"message":{"role":"assistant","content":` + mustJSON(text) + `}}]}`)
}

// toolCallResponse builds a completion body asking to call one tool.
func toolCallResponse(id, name, args string) []byte {
	return []byte(`{"choices":[{"message":{"role":"assistant","tool_calls":[` +
		`{"id":` + mustJSON(id) + `,"type":"function","function":{"name":` + mustJSON(name) + `,"arguments":` + mustJSON(args) + `}}]}}]}`)
}

func mustJSON(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// okTool is a deterministic tool for dispatch tests.
func okTool(name string) tools.ToolDefinition {
	return tools.ToolDefinition{
		Name:        name,
		Description: "always succeeds",
		InputSchema: tools.GenerateSchema[struct{}](),
		Function: func(ctx context.Context, input json.RawMessage) (string, error) {
			return "ok:" + string(input), nil
		},
	}
}

// reqBody mirrors the openai chat completion request shape the client serializes.
type reqBody struct {
	Model    string `json:"model"`
	Messages []struct {
		Role       string `json:"role"`
		Content    string `json:"content"`
		ToolCallID string `json:"tool_call_id"`
		ToolCalls  []struct {
			ID string `json:"id"`
		} `json:"tool_calls"`
	} `json:"messages"`
	Tools []struct {
		Function struct {
			Name string `json:"name"`
		} `json:"function"`
	} `json:"tools"`
}

func TestRunner_PrintsTextAndReturnsNoToolResults(t *testing.T) {
	capReq := &capture{}
	fake := &fakeTransport{respStatus: 200, respBody: textResponse("hello there"), captured: capReq}
	r := runner.New(newClientWithTransport(fake), []tools.ToolDefinition{okTool("noop")})

	conv := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: "hi"},
	}
	msg, toolResults, err := r.RunOneStep(context.Background(), "test-model", conv)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if msg == nil || msg.Content != "hello there" {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if len(toolResults) != 0 {
		t.Fatalf("expected no tool results, got %d", len(toolResults))
	}

	var rb reqBody
	if err := json.Unmarshal(capReq.body, &rb); err != nil {
		t.Fatalf("unmarshal body: %v\nbody=%s", err, capReq.body)
	}
	if rb.Model != "test-model" {
		t.Errorf("model = %q", rb.Model)
	}
	if len(rb.Tools) != 1 || rb.Tools[0].Function.Name != "noop" {
		t.Errorf("tool definitions not sent: %+v", rb.Tools)
	}
}

func TestRunner_ToolCall_ExecutesToolAndReturnsResults(t *testing.T) {
	fake := &fakeTransport{respStatus: 200, respBody: toolCallResponse("t1", "probe", `{"x":1}`), captured: &capture{}}
	r := runner.New(newClientWithTransport(fake), []tools.ToolDefinition{okTool("probe")})

	conv := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: "call the tool"},
	}
	msg, toolResults, err := r.RunOneStep(context.Background(), "test-model", conv)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if msg == nil || len(msg.ToolCalls) != 1 {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if len(toolResults) != 1 {
		t.Fatalf("expected 1 tool result, got %d", len(toolResults))
	}
	res := toolResults[0]
	if res.Role != openai.ChatMessageRoleTool || res.ToolCallID != "t1" {
		t.Fatalf("unexpected result framing: %+v", res)
	}
	if res.Content != `ok:{"x":1}` {
		t.Fatalf("unexpected result content: %q", res.Content)
	}
}

func TestRunner_UnknownTool_ReturnsErrorResultNotFailure(t *testing.T) {
	fake := &fakeTransport{respStatus: 200, respBody: toolCallResponse("nf1", "does_not_exist", `{}`), captured: &capture{}}
	r := runner.New(newClientWithTransport(fake), nil)

	conv := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: "call missing"},
	}
	_, toolResults, err := r.RunOneStep(context.Background(), "test-model", conv)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(toolResults) != 1 {
		t.Fatalf("expected 1 tool result, got %d", len(toolResults))
	}
	if toolResults[0].ToolCallID != "nf1" || !strings.Contains(toolResults[0].Content, "not found") {
		t.Fatalf("unexpected result: %+v", toolResults[0])
	}
}

func TestRunner_InvalidToolArguments_ReturnsErrorResult(t *testing.T) {
	fake := &fakeTransport{respStatus: 200, respBody: toolCallResponse("b1", "probe", `{"path":`), captured: &capture{}}
	r := runner.New(newClientWithTransport(fake), []tools.ToolDefinition{okTool("probe")})

	conv := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: "call with broken args"},
	}
	_, toolResults, err := r.RunOneStep(context.Background(), "test-model", conv)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(toolResults) != 1 || !strings.Contains(toolResults[0].Content, "invalid JSON arguments") {
		t.Fatalf("unexpected result: %+v", toolResults)
	}
}

func TestRunner_HTTPError_Propagates(t *testing.T) {
	fake := &fakeTransport{respStatus: 500, respBody: []byte(`{"error":{"message":"boom"}}`)}
	r := runner.New(newClientWithTransport(fake), nil)

	conv := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: "hi"},
	}
	if _, _, err := r.RunOneStep(context.Background(), "test-model", conv); err == nil {
		t.Fatal("expected error from failed completion")
	}
}

func TestRunner_NoBudget_SendsFullConversation(t *testing.T) {
	t.Setenv("AYYY_TOKEN_BUDGET", "")
	_ = os.Unsetenv("AYYY_TOKEN_BUDGET")

	capReq := &capture{}
	fake := &fakeTransport{respStatus: 200, respBody: textResponse("ok"), captured: capReq}
	r := runner.New(newClientWithTransport(fake), nil)

	conv := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: "abc"},
		{Role: openai.ChatMessageRoleAssistant, Content: "reply"},
		{Role: openai.ChatMessageRoleUser, Content: "defgh"},
	}
	if _, _, err := r.RunOneStep(context.Background(), "test-model", conv); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	var rb reqBody
	if err := json.Unmarshal(capReq.body, &rb); err != nil {
		t.Fatal(err)
	}
	if len(rb.Messages) != 3 {
		t.Fatalf("expected full conversation (3 messages), got %d", len(rb.Messages))
	}
}

func TestRunner_SendsPreparedWindowSubset(t *testing.T) {
	// Sends only the prepared window (last message), not the full conversation.
	t.Setenv("AYYY_TOKEN_BUDGET", "10")
	capReq := &capture{}
	fake := &fakeTransport{respStatus: 200, respBody: textResponse("ok"), captured: capReq}
	r := runner.New(newClientWithTransport(fake), nil)

	conv := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: "abc"},   // 3 + 4 = 7
		{Role: openai.ChatMessageRoleUser, Content: "defgh"}, // 5 + 4 = 9
	}
	if _, _, err := r.RunOneStep(context.Background(), "test-model", conv); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	var rb reqBody
	if err := json.Unmarshal(capReq.body, &rb); err != nil {
		t.Fatalf("unmarshal body: %v\nbody=%s", err, capReq.body)
	}
	if len(rb.Messages) != 1 {
		t.Fatalf("expected 1 message in prepared window, got %d", len(rb.Messages))
	}
	if rb.Messages[0].Content != "defgh" {
		t.Fatalf("unexpected prepared window payload: %+v", rb.Messages[0])
	}
}

func TestRunner_IncludesNewestToolExchangeOnly_WhenBudgetFitsExchange(t *testing.T) {
	// Budget fits the newest exchange (assistant tool_calls + tool result)
	// and excludes the older standalone user message.
	t.Setenv("AYYY_TOKEN_BUDGET", "10")

	capReq := &capture{}
	fake := &fakeTransport{respStatus: 200, respBody: textResponse("ok"), captured: capReq}
	r := runner.New(newClientWithTransport(fake), nil)

	conv := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: "old"},
		{Role: openai.ChatMessageRoleAssistant, ToolCalls: []openai.ToolCall{
			{ID: "a", Type: openai.ToolTypeFunction},
		}},
		{Role: openai.ChatMessageRoleTool, ToolCallID: "a", Content: "r"},
	}
	if _, _, err := r.RunOneStep(context.Background(), "test-model", conv); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	var rb reqBody
	if err := json.Unmarshal(capReq.body, &rb); err != nil {
		t.Fatalf("unmarshal body: %v\nbody=%s", err, capReq.body)
	}
	if len(rb.Messages) != 2 {
		t.Fatalf("expected exactly the newest exchange (2 messages), got %d", len(rb.Messages))
	}
	if rb.Messages[0].Role != "assistant" || len(rb.Messages[0].ToolCalls) == 0 || rb.Messages[0].ToolCalls[0].ID != "a" {
		t.Fatalf("unexpected first message (assistant tool_calls): %+v", rb.Messages[0])
	}
	if rb.Messages[1].Role != "tool" || rb.Messages[1].ToolCallID != "a" {
		t.Fatalf("unexpected second message (tool result): %+v", rb.Messages[1])
	}
}

func TestRunner_InvalidBudget_ReturnsError(t *testing.T) {
	t.Setenv("AYYY_TOKEN_BUDGET", "abc")
	r := runner.New(newClientWithTransport(&fakeTransport{respStatus: 200, respBody: textResponse("ok")}), nil)
	_, _, err := r.RunOneStep(context.Background(), "test-model", nil)
	if err == nil || !strings.Contains(err.Error(), "invalid AYYY_TOKEN_BUDGET") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestRunner_OverBudgetNewest_ReturnsError_NoHTTP(t *testing.T) {
	// Guard: newest group over budget returns error and makes no HTTP call.
	t.Setenv("AYYY_TOKEN_BUDGET", "1")
	capReq := &capture{}
	fake := &fakeTransport{respStatus: 200, respBody: textResponse("ok"), captured: capReq}
	r := runner.New(newClientWithTransport(fake), nil)

	conv := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: "hello"},
	}
	_, _, err := r.RunOneStep(context.Background(), "test-model", conv)
	if err == nil || !strings.Contains(err.Error(), "newest group exceeds AYYY_TOKEN_BUDGET") {
		t.Fatalf("expected over-budget newest error, got %v", err)
	}
	if capReq.body != nil {
		t.Fatalf("expected no HTTP call when over-budget newest; got body len=%d", len(capReq.body))
	}
}
