// File: internal/usecase/ledger_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"ai-doppelganger/internal/domain"
	"ai-doppelganger/internal/domain/model"
	"ai-doppelganger/internal/domain/ports/adapter"
	"ai-doppelganger/internal/domain/ports/repository"
	"ai-doppelganger/internal/infra/logging"
	"ai-doppelganger/internal/infra/metrics"
)

// Compile-time check
var _ LedgerUseCase = (*ledgerUC)(nil)

// minNotifyMessages is the engagement bar below which a conversation is not
// worth an operator digest.
const minNotifyMessages = 3

const (
	previewMessages = 5
	previewChars    = 100
)

// LedgerUseCase is the single source of truth for conversation state:
// message history, qualification, visitor identity, dealbreakers and the
// notification latch. Write operations on an unknown session are no-ops;
// reads report domain.ErrNotFound.
type LedgerUseCase interface {
	CreateSession(ctx context.Context, visitor model.VisitorInfo) (sessionID string, err error)
	LogMessage(ctx context.Context, sessionID, role, content string) error
	IsAtMessageLimit(ctx context.Context, sessionID string, limit int) bool
	UpdateQualification(ctx context.Context, sessionID string, score int, qualified bool) error
	UpdateVisitorInfo(ctx context.Context, sessionID string, info model.VisitorInfo) error
	LogDealbreaker(ctx context.Context, sessionID, label string) error
	MarkAppointmentBooked(ctx context.Context, sessionID string) error
	GetConversation(ctx context.Context, sessionID string) (*model.Conversation, error)
	ListConversations(ctx context.Context) ([]*model.Conversation, error)
	RecentConversations(ctx context.Context, limit int) ([]*model.Conversation, error)
	UnnotifiedConversations(ctx context.Context) ([]*model.Conversation, error)
	GenerateSummary(ctx context.Context, sessionID string) (string, error)
	SendNotification(ctx context.Context, conversationID string) error
}

type ledgerUC struct {
	repo        repository.ConversationRepository
	mailer      adapter.Mailer
	notifyEmail string
	log         *zerolog.Logger

	// one mutex per session around the read-modify-write sequence;
	// turns for different sessions stay fully concurrent
	locks sync.Map // sessionID -> *sync.Mutex
}

func NewLedgerUseCase(repo repository.ConversationRepository, mailer adapter.Mailer, notifyEmail string, logger *zerolog.Logger) *ledgerUC {
	return &ledgerUC{repo: repo, mailer: mailer, notifyEmail: notifyEmail, log: logger}
}

func (l *ledgerUC) lock(sessionID string) func() {
	v, _ := l.locks.LoadOrStore(sessionID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (l *ledgerUC) CreateSession(ctx context.Context, visitor model.VisitorInfo) (string, error) {
	sessionID := uuid.NewString()
	c := model.NewConversation(ulid.Make().String(), sessionID, visitor)
	if err := l.repo.Save(ctx, c); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	metrics.SessionCreated()
	l.log.Info().Str("session_id", sessionID).Str("conversation_id", c.ID).Msg("session created")
	return sessionID, nil
}

// mutate runs fn inside the per-session critical section and persists the
// result. Unknown sessions are a silent no-op by contract.
func (l *ledgerUC) mutate(ctx context.Context, sessionID string, fn func(c *model.Conversation)) error {
	unlock := l.lock(sessionID)
	defer unlock()

	c, err := l.repo.FindBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("load session: %w", err)
	}
	fn(c)
	if err := l.repo.Save(ctx, c); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (l *ledgerUC) LogMessage(ctx context.Context, sessionID, role, content string) error {
	return l.mutate(ctx, sessionID, func(c *model.Conversation) {
		c.AddMessage(uuid.NewString(), role, content)
	})
}

func (l *ledgerUC) IsAtMessageLimit(ctx context.Context, sessionID string, limit int) bool {
	c, err := l.repo.FindBySessionID(ctx, sessionID)
	if err != nil {
		return false
	}
	return c.AtMessageLimit(limit)
}

func (l *ledgerUC) UpdateQualification(ctx context.Context, sessionID string, score int, qualified bool) error {
	return l.mutate(ctx, sessionID, func(c *model.Conversation) {
		c.QualificationScore = score
		c.IsQualified = qualified
	})
}

func (l *ledgerUC) UpdateVisitorInfo(ctx context.Context, sessionID string, info model.VisitorInfo) error {
	return l.mutate(ctx, sessionID, func(c *model.Conversation) {
		c.MergeVisitorInfo(info)
	})
}

func (l *ledgerUC) LogDealbreaker(ctx context.Context, sessionID, label string) error {
	return l.mutate(ctx, sessionID, func(c *model.Conversation) {
		if c.HitDealbreaker(label) {
			metrics.DealbreakerHit(label)
			l.log.Info().Str("session_id", sessionID).Str("dealbreaker", label).Msg("dealbreaker hit")
		}
	})
}

func (l *ledgerUC) MarkAppointmentBooked(ctx context.Context, sessionID string) error {
	return l.mutate(ctx, sessionID, func(c *model.Conversation) {
		c.AppointmentBooked = true
	})
}

func (l *ledgerUC) GetConversation(ctx context.Context, sessionID string) (*model.Conversation, error) {
	return l.repo.FindBySessionID(ctx, sessionID)
}

func (l *ledgerUC) ListConversations(ctx context.Context) ([]*model.Conversation, error) {
	return l.repo.FindAll(ctx)
}

func (l *ledgerUC) RecentConversations(ctx context.Context, limit int) ([]*model.Conversation, error) {
	return l.repo.FindRecent(ctx, limit)
}

func (l *ledgerUC) UnnotifiedConversations(ctx context.Context) ([]*model.Conversation, error) {
	return l.repo.FindUnnotified(ctx, minNotifyMessages)
}

// summaryTopics maps digest topic labels to the keyword variants that pull
// them in, checked against user-role message content only.
var summaryTopics = []struct {
	label    string
	keywords []string
}{
	{"skills/experience", []string{"skill", "experience"}},
	{"projects", []string{"project"}},
	{"compensation", []string{"salary", "compensation"}},
	{"role details", []string{"role", "position"}},
}

func (l *ledgerUC) GenerateSummary(ctx context.Context, sessionID string) (string, error) {
	var summary string
	err := l.mutate(ctx, sessionID, func(c *model.Conversation) {
		parts := make([]string, 0, len(c.Messages))
		for _, m := range c.Messages {
			if m.Role == model.RoleUser {
				parts = append(parts, strings.ToLower(m.Content))
			}
		}
		all := strings.Join(parts, " ")

		var topics []string
		for _, t := range summaryTopics {
			if containsAny(all, t.keywords) {
				topics = append(topics, t.label)
			}
		}
		discussed := "general inquiry"
		if len(topics) > 0 {
			discussed = strings.Join(topics, ", ")
		}
		summary = fmt.Sprintf("%d messages, discussed: %s. Score: %d%%.", len(c.Messages), discussed, c.QualificationScore)
		c.Summary = summary
	})
	return summary, err
}

// SendNotification emails the operator digest for a conversation, at most
// once. Mailer failures are logged and swallowed; the latch stays open so an
// operator-triggered retry can still succeed. Only persistence failures
// propagate.
func (l *ledgerUC) SendNotification(ctx context.Context, conversationID string) error {
	log := logging.With(logging.WithConversationID(ctx, conversationID), l.log)

	c, err := l.repo.FindByConversationID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			log.Warn().Msg("notification for unknown conversation")
			return nil
		}
		return fmt.Errorf("load conversation: %w", err)
	}

	unlock := l.lock(c.SessionID)
	defer unlock()

	// Re-read under the lock; another dispatch may have latched meanwhile.
	c, err = l.repo.FindByConversationID(ctx, conversationID)
	if err != nil {
		return fmt.Errorf("load conversation: %w", err)
	}
	if c.NotificationSent {
		return nil
	}
	if l.notifyEmail == "" {
		log.Info().Msg("no operator notification email configured")
		return nil
	}

	subject := fmt.Sprintf("[Doppelganger] New Conversation: %s", visitorName(c))
	if c.IsQualified {
		subject = fmt.Sprintf("[Doppelganger] Qualified Lead: %s", visitorName(c))
	}

	if err := l.mailer.SendEmail(ctx, l.notifyEmail, subject, notificationBody(c)); err != nil {
		metrics.NotificationResult(false)
		log.Error().Err(err).Msg("notification send failed")
		return nil
	}

	c.NotificationSent = true
	if err := l.repo.Save(ctx, c); err != nil {
		return fmt.Errorf("latch notification: %w", err)
	}
	metrics.NotificationResult(true)
	log.Info().Msg("notification sent")
	return nil
}

func visitorName(c *model.Conversation) string {
	if c.VisitorInfo.Name != "" {
		return c.VisitorInfo.Name
	}
	return "Unknown"
}

func notificationBody(c *model.Conversation) string {
	orNot := func(s string) string {
		if s == "" {
			return "Not provided"
		}
		return s
	}
	yesNo := func(b bool) string {
		if b {
			return "Yes"
		}
		return "No"
	}
	dealbreakers := "None"
	if len(c.DealbreakersHit) > 0 {
		dealbreakers = strings.Join(c.DealbreakersHit, ", ")
	}

	return fmt.Sprintf(`New conversation on your AI Doppelganger:

Visitor Info:
- Name: %s
- Email: %s
- Company: %s
- Role: %s

Stats:
- Messages: %d
- Qualification Score: %d%%
- Qualified: %s
- Appointment Booked: %s
- Dealbreakers Hit: %s

Preview:
%s

---
View full conversation in your admin panel.
`,
		orNot(c.VisitorInfo.Name), orNot(c.VisitorInfo.Email), orNot(c.VisitorInfo.Company), orNot(c.VisitorInfo.Role),
		len(c.Messages), c.QualificationScore, yesNo(c.IsQualified), yesNo(c.AppointmentBooked), dealbreakers,
		c.Preview(previewMessages, previewChars))
}
