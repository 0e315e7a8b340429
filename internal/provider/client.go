// Package provider wraps the hosted text-generation APIs behind a single
// client interface. Clients make exactly one attempt per call; recovering
// from failures is the caller's concern.
package provider

import (
	"context"
	"time"
)

// GenerateRequest carries everything one generation call needs.
type GenerateRequest struct {
	Model           string
	Instructions    string // system instructions conditioning the mode
	UserPrompt      string
	Temperature     float64
	MaxOutputTokens int
}

// Turn is one message of a multi-turn conversation.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GenerateResult is the provider-agnostic view of one response: the extracted
// text plus the raw provider metadata as an opaque mapping.
type GenerateResult struct {
	OutputText string
	Raw        map[string]interface{}
}

// Client is the boundary to a hosted text-generation service.
type Client interface {
	// Generate runs a single-turn call: system instructions plus one user
	// prompt.
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error)

	// GenerateConversation runs a call with full conversation history. The
	// final turn must be a user turn; req.UserPrompt is ignored.
	GenerateConversation(ctx context.Context, req GenerateRequest, turns []Turn) (*GenerateResult, error)
}

// Config holds the transport settings shared by all provider clients.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

const defaultTimeout = 120 * time.Second
