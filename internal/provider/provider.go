// Package provider implements the remote completion clients used by the
// agent. A client turns the system prompt, the conversation history, and
// the new user text into a single completion request; any transport
// error, non-success status, or malformed body is a failure. Retry and
// fallback policy belong to the caller.
package provider

import (
	"context"
	"errors"
	"fmt"

	"aios/internal/config"
	"aios/internal/history"
)

// ErrNotConfigured indicates the client has no API credential.
var ErrNotConfigured = errors.New("provider not configured")

// Client sends a conversation to a remote completion endpoint and returns
// the assistant's text.
type Client interface {
	Complete(ctx context.Context, systemPrompt string, turns []history.Turn, userText string) (string, error)
}

// New creates the client for the configured provider. The local provider
// yields a nil client: the caller runs its deterministic fallback instead.
func New(cfg *config.Config) (Client, error) {
	switch cfg.LLM.Provider {
	case config.ProviderAnthropic:
		return NewAnthropicClient(AnthropicConfig{
			APIKey:  cfg.LLM.AnthropicKey,
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
			Timeout: cfg.LLMTimeout(),
		}), nil

	case config.ProviderOpenAI:
		return NewOpenAIClient(OpenAIConfig{
			APIKey:  cfg.LLM.OpenAIKey,
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
			Timeout: cfg.LLMTimeout(),
		}), nil

	case config.ProviderLocal:
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.LLM.Provider)
	}
}
