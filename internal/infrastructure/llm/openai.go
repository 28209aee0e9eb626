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

const openAIBaseURL = "https://api.openai.com/v1/chat/completions"

// openAIClient talks to OpenAI-compatible chat-completions APIs using the
// json_schema response format.
type openAIClient struct {
	apiKey     string
	model      string
	endpoint   string
	httpClient *http.Client
}

var _ ports.LLMClient = (*openAIClient)(nil)

func newOpenAIClient(apiKey, model string, httpClient *http.Client) *openAIClient {
	return &openAIClient{
		apiKey:     apiKey,
		model:      model,
		endpoint:   openAIBaseURL,
		httpClient: httpClient,
	}
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

func (o *openAIClient) Generate(ctx context.Context, prompt, system string, schema ports.Schema) (*ports.LLMResponse, error) {
	messages := []map[string]string{}
	if system != "" {
		messages = append(messages, map[string]string{"role": "system", "content": system})
	}
	messages = append(messages, map[string]string{"role": "user", "content": prompt})

	body, err := json.Marshal(map[string]any{
		"model":    o.model,
		"messages": messages,
		"response_format": map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name":   schema.Name,
				"schema": schema.Raw,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("openai: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai: call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("openai: error %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}

	var decoded openAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("openai: decode response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return nil, fmt.Errorf("openai: empty response")
	}

	text := decoded.Choices[0].Message.Content
	parsed, err := parseStructured(text)
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}

	return &ports.LLMResponse{
		Parsed:       parsed,
		RawText:      text,
		InputTokens:  decoded.Usage.PromptTokens,
		OutputTokens: decoded.Usage.CompletionTokens,
	}, nil
}
