package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

type CallExternalAPIInput struct {
	URL     string            `json:"url" jsonschema_description:"API endpoint URL."`
	Method  string            `json:"method" jsonschema:"enum=GET,enum=POST,enum=PUT,enum=DELETE" jsonschema_description:"HTTP method."`
	Headers map[string]string `json:"headers,omitempty" jsonschema_description:"Request headers."`
	Data    map[string]any    `json:"data,omitempty" jsonschema_description:"JSON request body."`
}

var CallExternalAPIInputSchema = GenerateSchema[CallExternalAPIInput]()

// apiResult is the tool output shape: status plus the (JSON or text) body.
type apiResult struct {
	Status int             `json:"status"`
	Data   json.RawMessage `json:"data,omitempty"`
	Text   string          `json:"text,omitempty"`
}

// NewCallExternalAPI builds the call_external_api tool with the configured
// response size cap.
func NewCallExternalAPI(maxBytes int64) ToolDefinition {
	return ToolDefinition{
		Name:        "call_external_api",
		Description: "Make an HTTP request to an external API with optional headers and JSON body; returns status and response data.",
		InputSchema: CallExternalAPIInputSchema,
		Function: func(ctx context.Context, input json.RawMessage) (string, error) {
			var in CallExternalAPIInput
			if err := json.Unmarshal(input, &in); err != nil {
				return "", err
			}
			return callExternalAPI(ctx, in, maxBytes)
		},
	}
}

func callExternalAPI(ctx context.Context, in CallExternalAPIInput, maxBytes int64) (string, error) {
	switch in.Method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete:
	default:
		return "", fmt.Errorf("unsupported method %q", in.Method)
	}

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	var reqBody *bytes.Reader
	if in.Data != nil {
		b, err := json.Marshal(in.Data)
		if err != nil {
			return "", err
		}
		reqBody = bytes.NewReader(b)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, in.Method, in.URL, reqBody)
	if err != nil {
		return "", err
	}
	for k, v := range in.Headers {
		req.Header.Set(k, v)
	}
	if in.Data != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s %s: %w", in.Method, in.URL, err)
	}
	defer resp.Body.Close()

	body, _, err := readCapped(resp.Body, maxBytes)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", in.URL, err)
	}

	res := apiResult{Status: resp.StatusCode}
	// JSON bodies pass through verbatim; anything else rides in the text field.
	if gjson.Valid(body) {
		res.Data = json.RawMessage(body)
	} else {
		res.Text = body
	}

	out, err := json.Marshal(res)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
