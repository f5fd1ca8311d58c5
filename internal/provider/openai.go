// Package provider constructs the OpenAI-compatible chat completion client.
package provider

import (
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"ayyy/internal/config"
)

// NewClient returns a client pointed at the configured base URL. Works against
// LM Studio, Ollama, llama.cpp server, or OpenAI proper.
func NewClient(cfg *config.Config) *openai.Client {
	return newClient(cfg, nil)
}

// NewClientWithHTTPClient is NewClient with an explicit *http.Client, used by
// tests to capture requests.
func NewClientWithHTTPClient(cfg *config.Config, hc *http.Client) *openai.Client {
	return newClient(cfg, hc)
}

func newClient(cfg *config.Config, hc *http.Client) *openai.Client {
	cc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		cc.BaseURL = cfg.BaseURL
	}
	if hc != nil {
		cc.HTTPClient = hc
	}
	return openai.NewClientWithConfig(cc)
}
