package model

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn in a conversation. The sequence is append-only:
// messages are never edited or deleted once logged.
type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"` // "user" | "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// VisitorInfo is built up incrementally from the contact form and from
// best-effort extraction out of free text. Empty fields mean "not yet known".
type VisitorInfo struct {
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	Company   string `json:"company,omitempty"`
	Role      string `json:"role,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	UserAgent string `json:"userAgent,omitempty"`
	IP        string `json:"ip,omitempty"`
}

// Complete reports whether the four fields gating the message limit are all present.
func (v VisitorInfo) Complete() bool {
	return v.FirstName != "" && v.LastName != "" && v.Company != "" && v.Email != ""
}

// Merge overlays non-empty fields of in onto v. Existing values are only
// overwritten, never cleared.
func (v *VisitorInfo) Merge(in VisitorInfo) {
	if in.Name != "" {
		v.Name = in.Name
	}
	if in.Email != "" {
		v.Email = in.Email
	}
	if in.Company != "" {
		v.Company = in.Company
	}
	if in.Role != "" {
		v.Role = in.Role
	}
	if in.FirstName != "" {
		v.FirstName = in.FirstName
	}
	if in.LastName != "" {
		v.LastName = in.LastName
	}
	if in.UserAgent != "" {
		v.UserAgent = in.UserAgent
	}
	if in.IP != "" {
		v.IP = in.IP
	}
}

// Conversation is the aggregate root for one visitor session.
//
// SessionID is the visitor-facing correlation token; ID is the internal
// (operator-facing) identifier. They are distinct on purpose so operator
// tooling can address a conversation without knowing the visitor token.
type Conversation struct {
	ID                     string      `json:"id"`
	SessionID              string      `json:"sessionId"`
	StartedAt              time.Time   `json:"startedAt"`
	LastActivityAt         time.Time   `json:"lastActivityAt"`
	Messages               []Message   `json:"messages"`
	VisitorInfo            VisitorInfo `json:"visitorInfo"`
	HasProvidedContactInfo bool        `json:"hasProvidedContactInfo"`
	QualificationScore     int         `json:"qualificationScore"`
	IsQualified            bool        `json:"isQualified"`
	AppointmentBooked      bool        `json:"appointmentBooked"`
	DealbreakersHit        []string    `json:"dealbreakersHit"`
	Summary                string      `json:"summary,omitempty"`
	NotificationSent       bool        `json:"notificationSent"`
}

func NewConversation(id, sessionID string, visitor VisitorInfo) *Conversation {
	now := time.Now()
	return &Conversation{
		ID:              id,
		SessionID:       sessionID,
		StartedAt:       now,
		LastActivityAt:  now,
		Messages:        make([]Message, 0, 8),
		VisitorInfo:     visitor,
		DealbreakersHit: []string{},
	}
}

func (c *Conversation) AddMessage(id, role, content string) {
	c.Messages = append(c.Messages, Message{
		ID:        id,
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	})
	c.LastActivityAt = time.Now()
}

// MergeVisitorInfo overlays the partial update and recomputes the contact
// latch. HasProvidedContactInfo is monotonic: once true it stays true.
func (c *Conversation) MergeVisitorInfo(in VisitorInfo) {
	c.VisitorInfo.Merge(in)
	if c.VisitorInfo.Complete() {
		c.HasProvidedContactInfo = true
	}
}

func (c *Conversation) UserMessageCount() int {
	n := 0
	for _, m := range c.Messages {
		if m.Role == RoleUser {
			n++
		}
	}
	return n
}

// AtMessageLimit reports whether the free-form reply gate has tripped:
// the visitor has not identified themselves and has already spent limit
// user-role messages. Assistant messages do not count against the limit.
func (c *Conversation) AtMessageLimit(limit int) bool {
	if c.HasProvidedContactInfo {
		return false
	}
	return c.UserMessageCount() >= limit
}

// HitDealbreaker records label with set semantics and reports whether it
// was newly added.
func (c *Conversation) HitDealbreaker(label string) bool {
	for _, d := range c.DealbreakersHit {
		if d == label {
			return false
		}
	}
	c.DealbreakersHit = append(c.DealbreakersHit, label)
	return true
}

// Preview returns the first n messages rendered as "[role]: content" lines,
// each content truncated to at most maxLen bytes on a rune boundary.
func (c *Conversation) Preview(n, maxLen int) string {
	if n > len(c.Messages) {
		n = len(c.Messages)
	}
	lines := make([]string, 0, n)
	for _, m := range c.Messages[:n] {
		content := m.Content
		if len(content) > maxLen {
			cut := maxLen
			for cut > 0 && !utf8.RuneStart(content[cut]) {
				cut--
			}
			content = content[:cut]
		}
		lines = append(lines, "["+m.Role+"]: "+content+"...")
	}
	return strings.Join(lines, "\n")
}
