// File: internal/infra/adapters/ai/failover_adapter.go
package ai

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"ai-doppelganger/internal/domain"
	"ai-doppelganger/internal/domain/ports/adapter"
)

var _ adapter.TextGenerator = (*FailoverAdapter)(nil)

// FailoverAdapter tries each provider in order and returns the first
// successful reply. All providers failing maps to
// domain.ErrGenerationUnavailable so callers can switch to the local
// fallback responder.
type FailoverAdapter struct {
	providers []adapter.TextGenerator
	names     []string
	log       *zerolog.Logger
}

func NewFailoverAdapter(log *zerolog.Logger) *FailoverAdapter {
	return &FailoverAdapter{log: log}
}

// Add registers a provider; nil adapters are skipped so wiring can pass
// conditionally-constructed providers without guards.
func (f *FailoverAdapter) Add(name string, p adapter.TextGenerator) {
	if p == nil {
		return
	}
	f.providers = append(f.providers, p)
	f.names = append(f.names, name)
}

func (f *FailoverAdapter) Len() int { return len(f.providers) }

func (f *FailoverAdapter) Generate(ctx context.Context, systemPrompt string, messages []adapter.Message, maxTokens int, temperature float64) (string, error) {
	var lastErr error
	for i, p := range f.providers {
		text, err := p.Generate(ctx, systemPrompt, messages, maxTokens, temperature)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if f.log != nil {
			f.log.Warn().Str("provider", f.names[i]).Err(err).Msg("text generation failed, trying next provider")
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			break
		}
	}
	if lastErr == nil {
		lastErr = errors.New("no providers configured")
	}
	return "", errors.Join(domain.ErrGenerationUnavailable, lastErr)
}
