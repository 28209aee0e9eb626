// Package llm implements the uniform generate contract against a closed
// set of providers. The pipeline never inspects which provider is behind
// the interface; selection happens once at construction time.
package llm

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"feedagent/internal/ports"
)

// Default models per provider, used when config leaves the model empty.
var defaultModels = map[string]string{
	"gemini":    "gemini-3-flash-preview",
	"openai":    "gpt-4o-mini",
	"anthropic": "claude-sonnet-4-20250514",
}

// New builds an LLM client for the given provider name.
func New(provider, apiKey, model string, timeout time.Duration) (ports.LLMClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("llm: no API key configured for provider %q", provider)
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	if model == "" {
		model = defaultModels[provider]
	}

	client := &http.Client{Timeout: timeout}

	switch provider {
	case "gemini":
		return newGeminiClient(apiKey, model, client), nil
	case "openai":
		return newOpenAIClient(apiKey, model, client), nil
	case "anthropic":
		return newAnthropicClient(apiKey, model, client), nil
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", provider)
	}
}

// DefaultModel reports the model used for a provider when none is set.
func DefaultModel(provider string) string {
	return defaultModels[provider]
}

// parseStructured decodes the model's JSON answer into a generic map.
// Providers occasionally wrap JSON in markdown fences despite structured
// output being requested.
func parseStructured(text string) (map[string]any, error) {
	cleaned := stripMarkdownFence(text)
	if cleaned == "" {
		return map[string]any{}, nil
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, fmt.Errorf("parse structured response: %w", err)
	}
	return parsed, nil
}

func stripMarkdownFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if idx := strings.Index(s, "\n"); idx != -1 {
		s = s[idx+1:]
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

func schemaJSON(schema ports.Schema) string {
	raw, err := json.Marshal(schema.Raw)
	if err != nil {
		return "{}"
	}
	return string(raw)
}
