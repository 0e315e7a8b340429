package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// AnthropicClient talks to the Anthropic Messages API.
type AnthropicClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// DefaultAnthropicConfig returns sensible defaults.
func DefaultAnthropicConfig(apiKey string) Config {
	return Config{
		APIKey:  apiKey,
		BaseURL: "https://api.anthropic.com/v1",
		Timeout: defaultTimeout,
	}
}

// NewAnthropicClient creates a client with default config.
func NewAnthropicClient(apiKey string) *AnthropicClient {
	return NewAnthropicClientWithConfig(DefaultAnthropicConfig(apiKey))
}

// NewAnthropicClientWithConfig creates a client with custom config.
func NewAnthropicClientWithConfig(config Config) *AnthropicClient {
	if config.BaseURL == "" {
		config.BaseURL = "https://api.anthropic.com/v1"
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}
	return &AnthropicClient{
		apiKey:  config.APIKey,
		baseURL: config.BaseURL,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// anthropicRequest is the Messages API request body.
type anthropicRequest struct {
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	System      string  `json:"system,omitempty"`
	Messages    []Turn  `json:"messages"`
	Temperature float64 `json:"temperature"`
}

// anthropicResponse is the subset of the Messages API response we read.
type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Generate sends a single-turn call.
func (c *AnthropicClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	return c.GenerateConversation(ctx, req, []Turn{{Role: "user", Content: req.UserPrompt}})
}

// GenerateConversation sends a call with full conversation history.
func (c *AnthropicClient) GenerateConversation(ctx context.Context, req GenerateRequest, turns []Turn) (*GenerateResult, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("API key not configured")
	}

	body := anthropicRequest{
		Model:       req.Model,
		MaxTokens:   req.MaxOutputTokens,
		System:      req.Instructions,
		Messages:    turns,
		Temperature: req.Temperature,
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/messages", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("API error: %s", parsed.Error.Message)
	}
	if len(parsed.Content) == 0 {
		return nil, fmt.Errorf("no completion returned")
	}

	var out strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}

	// Raw metadata is stored opaquely; keep everything the API returned.
	var raw map[string]interface{}
	if err := json.Unmarshal(respBody, &raw); err != nil {
		raw = map[string]interface{}{"body": string(respBody)}
	}

	return &GenerateResult{OutputText: out.String(), Raw: raw}, nil
}
