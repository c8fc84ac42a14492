//go:build !integration

// File: internal/usecase/mocks_test.go
package usecase

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"ai-doppelganger/internal/domain"
	"ai-doppelganger/internal/domain/model"
	"ai-doppelganger/internal/domain/ports/adapter"
)

func testLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// memConversationRepo is a small in-memory repository used by unit tests.
type memConversationRepo struct {
	mu      sync.RWMutex
	bySID   map[string]*model.Conversation
	byID    map[string]*model.Conversation
	saveErr error // simulate persistence failures
	saves   int
}

func newMemConversationRepo() *memConversationRepo {
	return &memConversationRepo{
		bySID: make(map[string]*model.Conversation),
		byID:  make(map[string]*model.Conversation),
	}
}

func cloneConv(c *model.Conversation) *model.Conversation {
	cp := *c
	cp.Messages = append([]model.Message(nil), c.Messages...)
	cp.DealbreakersHit = append([]string(nil), c.DealbreakersHit...)
	return &cp
}

func (m *memConversationRepo) Save(ctx context.Context, c *model.Conversation) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := cloneConv(c)
	m.bySID[c.SessionID] = cp
	m.byID[c.ID] = cp
	m.saves++
	return nil
}

func (m *memConversationRepo) FindBySessionID(ctx context.Context, sessionID string) (*model.Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.bySID[sessionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneConv(c), nil
}

func (m *memConversationRepo) FindByConversationID(ctx context.Context, id string) (*model.Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneConv(c), nil
}

func (m *memConversationRepo) FindAll(ctx context.Context) ([]*model.Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.Conversation, 0, len(m.bySID))
	for _, c := range m.bySID {
		out = append(out, cloneConv(c))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastActivityAt.After(out[j].LastActivityAt)
	})
	return out, nil
}

func (m *memConversationRepo) FindRecent(ctx context.Context, limit int) ([]*model.Conversation, error) {
	all, err := m.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (m *memConversationRepo) FindUnnotified(ctx context.Context, minMessages int) ([]*model.Conversation, error) {
	all, err := m.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*model.Conversation, 0, len(all))
	for _, c := range all {
		if !c.NotificationSent && len(c.Messages) >= minMessages {
			out = append(out, c)
		}
	}
	return out, nil
}

// stubKnowledge serves fixed persona configuration.
type stubKnowledge struct {
	facts  model.PersonaFacts
	pers   model.Personality
	bounds model.HardBoundaries
}

func newStubKnowledge() *stubKnowledge {
	return &stubKnowledge{
		facts: model.PersonaFacts{
			ResumeText: "Engineer.",
			Skills:     []string{"Go", "Postgres"},
		},
		pers: model.Personality{Tone: "professional", Formality: "conversational"},
		bounds: model.HardBoundaries{
			HardNoLocations:    []string{"california", "seattle"},
			HardNoResponseText: "I'm not open to relocating to that area.",
			RelocationKeywords: []string{"relocate", "relocation", "move to", "on-site"},
			EscapeHatchURL:     "/contact",
		},
	}
}

func (s *stubKnowledge) Facts() model.PersonaFacts        { return s.facts }
func (s *stubKnowledge) Personality() model.Personality   { return s.pers }
func (s *stubKnowledge) Boundaries() model.HardBoundaries { return s.bounds }
func (s *stubKnowledge) Reload() error                    { return nil }

// stubGenerator returns a fixed reply or error.
type stubGenerator struct {
	reply string
	err   error
	calls int
}

func (s *stubGenerator) Generate(ctx context.Context, systemPrompt string, messages []adapter.Message, maxTokens int, temperature float64) (string, error) {
	s.calls++
	return s.reply, s.err
}

type sentMail struct {
	to      string
	subject string
	body    string
}

// memMailer records sends and can simulate delivery failure.
type memMailer struct {
	mu      sync.Mutex
	sent    []sentMail
	sendErr error
}

func (m *memMailer) SendEmail(ctx context.Context, to, subject, body string) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

func (m *memMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}
