// File: internal/infra/db/file/file_conversation_repo.go
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"ai-doppelganger/internal/domain"
	"ai-doppelganger/internal/domain/model"
	"ai-doppelganger/internal/domain/ports/repository"
	"ai-doppelganger/internal/infra/metrics"
)

// Compile-time check
var _ repository.ConversationRepository = (*ConversationRepo)(nil)

// ConversationRepo keeps every conversation in one JSON file, rewritten
// atomically on each mutation. Reads always reflect the last completed
// write; a process restart reloads the full collection from disk.
type ConversationRepo struct {
	path string
	log  *zerolog.Logger

	mu    sync.RWMutex
	byID  map[string]*model.Conversation // conversation ID -> aggregate
	bySID map[string]*model.Conversation // session ID -> aggregate
}

type fileStore struct {
	Conversations []*model.Conversation `json:"conversations"`
}

func NewConversationRepo(path string, logger *zerolog.Logger) (*ConversationRepo, error) {
	r := &ConversationRepo{
		path:  path,
		log:   logger,
		byID:  map[string]*model.Conversation{},
		bySID: map[string]*model.Conversation{},
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	if err := r.load(); err != nil {
		return nil, err
	}
	logger.Info().Str("path", path).Int("conversations", len(r.byID)).Msg("conversation store loaded")
	return r, nil
}

func (r *ConversationRepo) load() error {
	b, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read store: %w", err)
	}
	var s fileStore
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("parse store: %w", err)
	}
	for _, c := range s.Conversations {
		r.byID[c.ID] = c
		r.bySID[c.SessionID] = c
	}
	return nil
}

// flush rewrites the whole collection via a temp file + rename so a crash
// mid-write never leaves a truncated store behind. Caller holds r.mu.
func (r *ConversationRepo) flush() error {
	all := make([]*model.Conversation, 0, len(r.byID))
	for _, c := range r.byID {
		all = append(all, c)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].StartedAt.Before(all[j].StartedAt) })

	b, err := json.MarshalIndent(fileStore{Conversations: all}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal store: %w", err)
	}
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write store: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("replace store: %w", err)
	}
	return nil
}

func (r *ConversationRepo) Save(ctx context.Context, c *model.Conversation) error {
	start := time.Now()
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := clone(c)
	r.byID[cp.ID] = cp
	r.bySID[cp.SessionID] = cp
	err := r.flush()
	metrics.ObserveStoreOp("file", "save", start, err)
	return err
}

func (r *ConversationRepo) FindBySessionID(ctx context.Context, sessionID string) (*model.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.bySID[sessionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return clone(c), nil
}

func (r *ConversationRepo) FindByConversationID(ctx context.Context, id string) (*model.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return clone(c), nil
}

func (r *ConversationRepo) FindAll(ctx context.Context) ([]*model.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*model.Conversation, 0, len(r.byID))
	for _, c := range r.byID {
		out = append(out, clone(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastActivityAt.After(out[j].LastActivityAt) })
	return out, nil
}

func (r *ConversationRepo) FindRecent(ctx context.Context, limit int) ([]*model.Conversation, error) {
	all, err := r.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r *ConversationRepo) FindUnnotified(ctx context.Context, minMessages int) ([]*model.Conversation, error) {
	all, err := r.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, c := range all {
		if !c.NotificationSent && len(c.Messages) >= minMessages {
			out = append(out, c)
		}
	}
	return out, nil
}

// clone deep-copies the aggregate so callers never share slices with the map.
func clone(c *model.Conversation) *model.Conversation {
	cp := *c
	cp.Messages = append([]model.Message(nil), c.Messages...)
	cp.DealbreakersHit = append([]string(nil), c.DealbreakersHit...)
	return &cp
}
