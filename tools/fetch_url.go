package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type FetchURLInput struct {
	URL string `json:"url" jsonschema_description:"URL to fetch (http or https)."`
}

var FetchURLInputSchema = GenerateSchema[FetchURLInput]()

const fetchTimeout = 30 * time.Second
const fetchTruncationSentinel = "\n-- response truncated --\n"

// NewFetchURL builds the fetch_url tool with the configured response size cap.
func NewFetchURL(maxBytes int64) ToolDefinition {
	return ToolDefinition{
		Name:        "fetch_url",
		Description: "Fetch content from a URL with an HTTP GET. Large responses are truncated.",
		InputSchema: FetchURLInputSchema,
		Function: func(ctx context.Context, input json.RawMessage) (string, error) {
			var in FetchURLInput
			if err := json.Unmarshal(input, &in); err != nil {
				return "", err
			}
			return fetchURL(ctx, in.URL, maxBytes)
		},
	}
}

func fetchURL(ctx context.Context, rawURL string, maxBytes int64) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q: only http and https are allowed", u.Scheme)
	}

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	body, truncated, err := readCapped(resp.Body, maxBytes)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", rawURL, err)
	}

	var b strings.Builder
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		fmt.Fprintf(&b, "HTTP %s\n", resp.Status)
	}
	b.WriteString(body)
	if truncated {
		b.WriteString(fetchTruncationSentinel)
	}
	return b.String(), nil
}

// readCapped reads at most max bytes from r and reports whether more remained.
func readCapped(r io.Reader, max int64) (string, bool, error) {
	b, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return "", false, err
	}
	if int64(len(b)) > max {
		return string(b[:max]), true, nil
	}
	return string(b), false, nil
}
