package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// OpenAIClient talks to an OpenAI-compatible chat completions API.
type OpenAIClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// DefaultOpenAIConfig returns sensible defaults.
func DefaultOpenAIConfig(apiKey string) Config {
	return Config{
		APIKey:  apiKey,
		BaseURL: "https://api.openai.com/v1",
		Timeout: defaultTimeout,
	}
}

// NewOpenAIClient creates a client with default config.
func NewOpenAIClient(apiKey string) *OpenAIClient {
	return NewOpenAIClientWithConfig(DefaultOpenAIConfig(apiKey))
}

// NewOpenAIClientWithConfig creates a client with custom config.
func NewOpenAIClientWithConfig(config Config) *OpenAIClient {
	if config.BaseURL == "" {
		config.BaseURL = "https://api.openai.com/v1"
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}
	return &OpenAIClient{
		apiKey:  config.APIKey,
		baseURL: config.BaseURL,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// openAIRequest is the chat completions request body.
type openAIRequest struct {
	Model       string  `json:"model"`
	Messages    []Turn  `json:"messages"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature"`
}

// openAIResponse is the subset of the chat completions response we read.
type openAIResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Generate sends a single-turn call.
func (c *OpenAIClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	return c.GenerateConversation(ctx, req, []Turn{{Role: "user", Content: req.UserPrompt}})
}

// GenerateConversation sends a call with full conversation history. System
// instructions travel as a leading system message.
func (c *OpenAIClient) GenerateConversation(ctx context.Context, req GenerateRequest, turns []Turn) (*GenerateResult, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("API key not configured")
	}

	messages := make([]Turn, 0, len(turns)+1)
	if req.Instructions != "" {
		messages = append(messages, Turn{Role: "system", Content: req.Instructions})
	}
	messages = append(messages, turns...)

	body := openAIRequest{
		Model:       req.Model,
		Messages:    messages,
		MaxTokens:   req.MaxOutputTokens,
		Temperature: req.Temperature,
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

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

	var parsed openAIResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("API error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("no completion returned")
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(respBody, &raw); err != nil {
		raw = map[string]interface{}{"body": string(respBody)}
	}

	return &GenerateResult{OutputText: parsed.Choices[0].Message.Content, Raw: raw}, nil
}
