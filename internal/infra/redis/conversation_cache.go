// File: internal/infra/redis/conversation_cache.go
package redis

import (
	"context"
	"encoding/json"
	"time"

	"ai-doppelganger/internal/domain/model"
)

// ConversationCache keeps a short-lived copy of conversations keyed by
// session ID so the chat hot path can skip the database on reads.
type ConversationCache struct {
	client *Client
	ttl    time.Duration
}

func NewConversationCache(client *Client, ttl time.Duration) *ConversationCache {
	return &ConversationCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *ConversationCache) Store(ctx context.Context, conv *model.Conversation) error {
	data, err := json.Marshal(conv)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, "conversation:"+conv.SessionID, data, c.ttl)
}

func (c *ConversationCache) Get(ctx context.Context, sessionID string) (*model.Conversation, error) {
	data, err := c.client.Get(ctx, "conversation:"+sessionID)
	if err != nil {
		return nil, err
	}

	var conv model.Conversation
	if err := json.Unmarshal([]byte(data), &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}
