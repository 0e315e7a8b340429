package provider

import (
	"fmt"
	"os"
	"time"
)

// Provider names accepted by the factory.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// New builds a client for an explicitly named provider.
func New(name string, config Config) (Client, error) {
	switch name {
	case ProviderAnthropic:
		return NewAnthropicClientWithConfig(config), nil
	case ProviderOpenAI:
		return NewOpenAIClientWithConfig(config), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", name)
	}
}

// Detect resolves a client from explicit settings, falling back to
// environment variables. Priority: explicit name+key, then
// ANTHROPIC_API_KEY, then OPENAI_API_KEY. The returned name identifies
// which provider was chosen.
func Detect(name, apiKey, baseURL string, timeout time.Duration) (Client, string, error) {
	config := Config{APIKey: apiKey, BaseURL: baseURL, Timeout: timeout}

	if name != "" {
		if config.APIKey == "" {
			switch name {
			case ProviderAnthropic:
				config.APIKey = os.Getenv("ANTHROPIC_API_KEY")
			case ProviderOpenAI:
				config.APIKey = os.Getenv("OPENAI_API_KEY")
			}
		}
		if config.APIKey == "" {
			return nil, "", fmt.Errorf("no API key found for provider %q", name)
		}
		client, err := New(name, config)
		return client, name, err
	}

	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		config.APIKey = key
		client, err := New(ProviderAnthropic, config)
		return client, ProviderAnthropic, err
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		config.APIKey = key
		client, err := New(ProviderOpenAI, config)
		return client, ProviderOpenAI, err
	}

	return nil, "", fmt.Errorf("no API key found: set ANTHROPIC_API_KEY or OPENAI_API_KEY")
}
