package llm

import (
	"context"
	"errors"
	"fmt"

	"leakscan-backend/internal/shared/telemetry"
)

// Client abstracts text-generation providers.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Failure classes surfaced by providers so callers can pick a fallback path.
var (
	ErrTimeout        = errors.New("llm request timeout")
	ErrConnection     = errors.New("llm connection failed")
	ErrAPIFailure     = errors.New("llm api failure")
	ErrPromptTooLarge = errors.New("prompt exceeds size limit")
)

const (
	// HardPromptLimit is the maximum prompt size sent to any provider.
	HardPromptLimit = 20000
	// SoftPromptLimit triggers a warning before sending.
	SoftPromptLimit = 15000
)

// Gateway wraps a provider client with the size-cap policy so every caller
// inherits it.
type Gateway struct {
	Inner Client
	Model string
}

// Generate enforces prompt size limits and delegates to the provider.
func (g *Gateway) Generate(ctx context.Context, prompt string) (string, error) {
	if g.Inner == nil {
		return "", fmt.Errorf("%w: no provider configured", ErrAPIFailure)
	}
	if len(prompt) > HardPromptLimit {
		return "", fmt.Errorf("%w: %d chars over hard limit %d", ErrPromptTooLarge, len(prompt), HardPromptLimit)
	}
	if len(prompt) > SoftPromptLimit {
		telemetry.Warn("llm.prompt_large", map[string]any{
			"prompt_chars": len(prompt),
			"soft_limit":   SoftPromptLimit,
			"model":        g.Model,
		})
	}
	return g.Inner.Generate(ctx, prompt)
}

// PlaceholderClient is a stub implementation until provider wiring is added.
type PlaceholderClient struct{}

// Generate returns an API failure.
func (PlaceholderClient) Generate(ctx context.Context, prompt string) (string, error) {
	_ = ctx
	_ = prompt
	return "", fmt.Errorf("%w: provider not configured", ErrAPIFailure)
}
