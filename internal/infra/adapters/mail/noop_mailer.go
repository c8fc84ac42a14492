// File: internal/infra/adapters/mail/noop_mailer.go
package mail

import (
	"context"

	"github.com/rs/zerolog"

	"ai-doppelganger/internal/domain/ports/adapter"
)

var _ adapter.Mailer = (*NoopMailer)(nil)

// NoopMailer logs instead of sending. Wired when no mail provider is
// configured so notification flows still exercise end to end in dev.
type NoopMailer struct {
	log *zerolog.Logger
}

func NewNoopMailer(log *zerolog.Logger) *NoopMailer {
	return &NoopMailer{log: log}
}

func (n *NoopMailer) SendEmail(ctx context.Context, to, subject, body string) error {
	if n.log != nil {
		n.log.Info().Str("to", to).Str("subject", subject).Int("body_bytes", len(body)).Msg("noop mailer: email suppressed")
	}
	return nil
}
