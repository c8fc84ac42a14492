package repository

import (
	"context"

	"ai-doppelganger/internal/domain/model"
)

// ConversationRepository is the single persistence boundary for sessions.
// All mutation goes through the ledger usecase; implementations only need
// to guarantee read-after-write consistency per conversation.
type ConversationRepository interface {
	// Save persists the full aggregate (insert or overwrite by ID).
	Save(ctx context.Context, c *model.Conversation) error
	FindBySessionID(ctx context.Context, sessionID string) (*model.Conversation, error)
	FindByConversationID(ctx context.Context, id string) (*model.Conversation, error)
	// FindAll returns conversations sorted by LastActivityAt descending.
	// The ordering is part of the contract.
	FindAll(ctx context.Context) ([]*model.Conversation, error)
	FindRecent(ctx context.Context, limit int) ([]*model.Conversation, error)
	// FindUnnotified returns conversations with NotificationSent=false and
	// at least minMessages messages.
	FindUnnotified(ctx context.Context, minMessages int) ([]*model.Conversation, error)
}
