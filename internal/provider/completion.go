package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Message is a single conversational turn sent to the completion provider.
// Only role and content cross the wire; anything else a caller tracks
// (ids, timestamps) must be dropped before it gets here.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// CompletionOptions bound a single generation request.
type CompletionOptions struct {
	MaxTokens   int
	Temperature float64
}

// CompletionClient calls an OpenAI-compatible chat-completions API (Groq).
type CompletionClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	stats      *Stats
}

func NewCompletionClient(apiKey, baseURL, model string, timeout time.Duration, stats *Stats) *CompletionClient {
	return &CompletionClient{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		stats: stats,
	}
}

// Configured reports whether a credential is available. Callers check this
// to surface configuration errors without attempting a network call.
func (c *CompletionClient) Configured() bool {
	return c.apiKey != ""
}

// Model returns the configured model name.
func (c *CompletionClient) Model() string {
	return c.model
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends the message history and returns the assistant text.
// An empty string with a nil error means the provider answered with no
// content; callers decide the fallback.
func (c *CompletionClient) Complete(ctx context.Context, messages []Message, opts CompletionOptions) (string, error) {
	if c.apiKey == "" {
		return "", &CredentialError{Provider: "completion"}
	}

	reqBody := chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", &ProviderError{Provider: "completion", Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", &ProviderError{Provider: "completion", Message: "read response: " + err.Error()}
	}
	if c.stats != nil {
		c.stats.Record("complete", time.Since(start).Milliseconds())
	}

	if resp.StatusCode != http.StatusOK {
		return "", &ProviderError{Provider: "completion", StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	var apiResp chatResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", &ProviderError{Provider: "completion", Message: "decode response: " + err.Error()}
	}
	if apiResp.Error != nil {
		return "", &ProviderError{Provider: "completion", Message: apiResp.Error.Type + ": " + apiResp.Error.Message}
	}
	if len(apiResp.Choices) == 0 {
		return "", &ProviderError{Provider: "completion", Message: "response has no choices"}
	}

	return apiResp.Choices[0].Message.Content, nil
}

// Close releases resources.
func (c *CompletionClient) Close() {
	c.httpClient.CloseIdleConnections()
}
