// File: internal/usecase/chat_uc.go
package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"ai-doppelganger/internal/config"
	"ai-doppelganger/internal/domain"
	"ai-doppelganger/internal/domain/model"
	"ai-doppelganger/internal/domain/ports/repository"
	"ai-doppelganger/internal/infra/logging"
	"ai-doppelganger/internal/infra/metrics"
	"ai-doppelganger/internal/infra/worker"
)

// Compile-time check
var _ ChatUseCase = (*chatUC)(nil)

// contactGatePrompt is the canned reply returned when the message-limit gate
// trips; the turn skips generation entirely.
const contactGatePrompt = "I've really enjoyed our conversation! Before we go further, could you share your name, company and email? That way I can make sure we stay connected."

// TurnResult is what one chat turn hands back to the HTTP surface.
type TurnResult struct {
	Reply               string `json:"reply"`
	QualificationScore  int    `json:"qualificationScore"`
	IsQualified         bool   `json:"isQualified"`
	RequiresContactInfo bool   `json:"requiresContactInfo"`
	EscapeHatchURL      string `json:"escapeHatchUrl,omitempty"`
}

// ChatUseCase orchestrates one conversation turn: log, gate, generate, score,
// then post-process (dealbreaker scan, visitor-info extraction, notify check).
// Notification dispatch runs detached so it never delays the reply.
type ChatUseCase interface {
	StartSession(ctx context.Context, visitor model.VisitorInfo) (string, error)
	SubmitMessage(ctx context.Context, sessionID, message string) (*TurnResult, error)
	SubmitVisitorInfo(ctx context.Context, sessionID string, info model.VisitorInfo) error
	ConfirmBooking(ctx context.Context, sessionID string) error
}

type chatUC struct {
	ledger    LedgerUseCase
	responder ResponderUseCase
	kb        repository.KnowledgeStore
	pool      *worker.Pool
	cfg       config.ChatConfig
	log       *zerolog.Logger
}

func NewChatUseCase(ledger LedgerUseCase, responder ResponderUseCase, kb repository.KnowledgeStore, pool *worker.Pool, cfg config.ChatConfig, logger *zerolog.Logger) *chatUC {
	return &chatUC{ledger: ledger, responder: responder, kb: kb, pool: pool, cfg: cfg, log: logger}
}

func (c *chatUC) StartSession(ctx context.Context, visitor model.VisitorInfo) (string, error) {
	return c.ledger.CreateSession(ctx, visitor)
}

func (c *chatUC) SubmitMessage(ctx context.Context, sessionID, message string) (*TurnResult, error) {
	log := logging.With(logging.WithSessionID(ctx, sessionID), c.log)
	defer logging.TraceDuration(log, "ChatUC.SubmitMessage")()

	message = strings.TrimSpace(message)
	if message == "" {
		return nil, domain.ErrInvalidArgument
	}

	// The persisted history is the canonical one; the caller never supplies it.
	conv, err := c.ledger.GetConversation(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	history := conv.Messages

	if err := c.ledger.LogMessage(ctx, sessionID, model.RoleUser, message); err != nil {
		return nil, err
	}

	gated := c.ledger.IsAtMessageLimit(ctx, sessionID, c.cfg.MessageLimit)

	var reply string
	if gated {
		metrics.GateTripped()
		reply = contactGatePrompt
	} else {
		reply = c.responder.GenerateResponse(ctx, message, history)
	}

	if err := c.ledger.LogMessage(ctx, sessionID, model.RoleAssistant, reply); err != nil {
		return nil, err
	}

	// Score against the just-persisted history, user and assistant included.
	conv, err = c.ledger.GetConversation(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	score := c.responder.QualificationScore(conv.Messages)
	qualified := score >= c.cfg.QualifyThreshold
	if err := c.ledger.UpdateQualification(ctx, sessionID, score, qualified); err != nil {
		return nil, err
	}
	metrics.TurnScored(score, qualified)

	result := &TurnResult{
		Reply:               reply,
		QualificationScore:  score,
		IsQualified:         qualified,
		RequiresContactInfo: gated,
	}

	c.postProcess(ctx, sessionID, message, conv, result)
	return result, nil
}

// postProcess covers the non-generation tail of a turn. Everything here is
// best-effort: a failure must not take down a turn that already has a reply.
func (c *chatUC) postProcess(ctx context.Context, sessionID, message string, conv *model.Conversation, result *TurnResult) {
	log := logging.With(logging.WithSessionID(ctx, sessionID), c.log)
	boundaries := c.kb.Boundaries()

	for _, label := range DetectDealbreakers(message, boundaries) {
		if err := c.ledger.LogDealbreaker(ctx, sessionID, label); err != nil {
			log.Error().Err(err).Str("dealbreaker", label).Msg("dealbreaker log failed")
		}
		result.EscapeHatchURL = boundaries.EscapeHatchURL
	}

	if info := ExtractVisitorInfo(message); !info.Empty() {
		if err := c.ledger.UpdateVisitorInfo(ctx, sessionID, info.VisitorInfo()); err != nil {
			log.Error().Err(err).Msg("visitor info update failed")
		}
	}

	if len(conv.Messages) >= c.cfg.NotifyAfter && !conv.NotificationSent {
		if _, err := c.ledger.GenerateSummary(ctx, sessionID); err != nil {
			log.Error().Err(err).Msg("summary generation failed")
		}
		conversationID := conv.ID
		task := func(taskCtx context.Context) error {
			// Detach from the request deadline; dispatch runs to completion
			// or failure on its own.
			sendCtx, cancel := context.WithTimeout(taskCtx, 30*time.Second)
			defer cancel()
			return c.ledger.SendNotification(sendCtx, conversationID)
		}
		if err := c.pool.Submit(task); err != nil {
			log.Warn().Err(err).Msg("notification task not queued")
		}
	}
}

func (c *chatUC) SubmitVisitorInfo(ctx context.Context, sessionID string, info model.VisitorInfo) error {
	if info.FirstName != "" && info.LastName != "" && info.Name == "" {
		info.Name = info.FirstName + " " + info.LastName
	}
	return c.ledger.UpdateVisitorInfo(ctx, sessionID, info)
}

func (c *chatUC) ConfirmBooking(ctx context.Context, sessionID string) error {
	return c.ledger.MarkAppointmentBooked(ctx, sessionID)
}
