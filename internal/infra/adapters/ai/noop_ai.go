// File: internal/infra/adapters/ai/noop_ai.go
package ai

import (
	"context"

	"ai-doppelganger/internal/domain"
	"ai-doppelganger/internal/domain/ports/adapter"
)

var _ adapter.TextGenerator = (*NoopAdapter)(nil)

// NoopAdapter always reports generation as unavailable. It is wired when
// no provider is configured so the responder's deterministic fallback
// carries every turn.
type NoopAdapter struct{}

func NewNoopAdapter() *NoopAdapter { return &NoopAdapter{} }

func (*NoopAdapter) Generate(ctx context.Context, systemPrompt string, messages []adapter.Message, maxTokens int, temperature float64) (string, error) {
	return "", domain.ErrGenerationUnavailable
}
