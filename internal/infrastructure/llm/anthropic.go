package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"feedagent/internal/ports"
)

const (
	anthropicBaseURL   = "https://api.anthropic.com/v1/messages"
	anthropicVersion   = "2023-06-01"
	anthropicMaxTokens = 4096
)

// anthropicClient talks to the Anthropic messages API. The API has no
// schema-constrained output mode, so the schema rides inside the prompt.
type anthropicClient struct {
	apiKey     string
	model      string
	endpoint   string
	httpClient *http.Client
}

var _ ports.LLMClient = (*anthropicClient)(nil)

func newAnthropicClient(apiKey, model string, httpClient *http.Client) *anthropicClient {
	return &anthropicClient{
		apiKey:     apiKey,
		model:      model,
		endpoint:   anthropicBaseURL,
		httpClient: httpClient,
	}
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func (a *anthropicClient) Generate(ctx context.Context, prompt, system string, schema ports.Schema) (*ports.LLMResponse, error) {
	userPrompt := fmt.Sprintf("%s\n\nReturn valid JSON matching this schema exactly:\n%s",
		prompt, schemaJSON(schema))

	body, err := json.Marshal(map[string]any{
		"model":      a.model,
		"system":     system,
		"max_tokens": anthropicMaxTokens,
		"messages": []map[string]string{
			{"role": "user", "content": userPrompt},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("anthropic: new request: %w", err)
	}
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("anthropic: call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("anthropic: error %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}

	var decoded anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("anthropic: decode response: %w", err)
	}

	var parts []string
	for _, block := range decoded.Content {
		if block.Type == "text" && block.Text != "" {
			parts = append(parts, block.Text)
		}
	}
	text := strings.Join(parts, "\n")
	if text == "" {
		return nil, fmt.Errorf("anthropic: empty response")
	}

	parsed, err := parseStructured(text)
	if err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}

	return &ports.LLMResponse{
		Parsed:       parsed,
		RawText:      text,
		InputTokens:  decoded.Usage.InputTokens,
		OutputTokens: decoded.Usage.OutputTokens,
	}, nil
}
