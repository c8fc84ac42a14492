// File: internal/usecase/responder_uc.go
package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
	"github.com/rs/zerolog"

	"ai-doppelganger/internal/config"
	"ai-doppelganger/internal/domain/model"
	"ai-doppelganger/internal/domain/ports/adapter"
	"ai-doppelganger/internal/domain/ports/repository"
	"ai-doppelganger/internal/infra/metrics"
)

// Compile-time check
var _ ResponderUseCase = (*responderUC)(nil)

// ResponderUseCase turns a visitor message plus history into a reply and a
// qualification score. Replies come from the delegated text generator when it
// is healthy and from the deterministic keyword responder when it is not, so
// the visitor always gets some text back.
type ResponderUseCase interface {
	GenerateResponse(ctx context.Context, message string, history []model.Message) string
	QualificationScore(history []model.Message) int
}

type responderUC struct {
	kb  repository.KnowledgeStore
	gen adapter.TextGenerator
	cfg config.AIConfig
	log *zerolog.Logger
	enc *tiktoken.Tiktoken
}

func NewResponderUseCase(kb repository.KnowledgeStore, gen adapter.TextGenerator, cfg config.AIConfig, logger *zerolog.Logger) *responderUC {
	// Best-effort token accounting; nil encoder just skips the metric.
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		logger.Warn().Err(err).Msg("tiktoken encoding unavailable, prompt token metric disabled")
	}
	return &responderUC{kb: kb, gen: gen, cfg: cfg, log: logger, enc: enc}
}

func (r *responderUC) GenerateResponse(ctx context.Context, message string, history []model.Message) string {
	systemPrompt := r.buildSystemPrompt()

	msgs := make([]adapter.Message, 0, len(history)+1)
	for _, m := range history {
		msgs = append(msgs, adapter.Message{Role: m.Role, Content: m.Content})
	}
	msgs = append(msgs, adapter.Message{Role: model.RoleUser, Content: message})

	if r.enc != nil {
		n := len(r.enc.Encode(systemPrompt, nil, nil))
		for _, m := range msgs {
			n += len(r.enc.Encode(m.Content, nil, nil))
		}
		metrics.ObservePromptTokens(n)
	}

	genCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	reply, err := r.gen.Generate(genCtx, systemPrompt, msgs, r.cfg.MaxTokens, r.cfg.Temperature)
	if err != nil || strings.TrimSpace(reply) == "" {
		r.log.Warn().Err(err).Msg("text generation failed, using keyword fallback")
		metrics.FallbackUsed()
		return r.fallbackResponse(message)
	}
	return reply
}

// buildSystemPrompt concatenates identity, style, the enumerated persona
// facts, the boundary/refusal section and the never-fabricate rules. The
// generator may paraphrase persona facts but must not invent new ones.
func (r *responderUC) buildSystemPrompt() string {
	facts := r.kb.Facts()
	pers := r.kb.Personality()
	b := r.kb.Boundaries()

	var sb strings.Builder

	sb.WriteString("You are an AI doppelganger speaking on behalf of the candidate to potential employers. ")
	sb.WriteString("Respond in first person as the candidate.\n\n")

	sb.WriteString("COMMUNICATION STYLE:\n")
	fmt.Fprintf(&sb, "- Tone: %s\n- Formality: %s\n", pers.Tone, pers.Formality)
	for _, t := range pers.Traits {
		fmt.Fprintf(&sb, "- %s\n", t)
	}
	sb.WriteString("\n")

	sb.WriteString("YOUR BACKGROUND:\n")
	sb.WriteString(facts.ResumeText)
	sb.WriteString("\n\n")

	writeFactList(&sb, "YOUR SKILLS", facts.Skills)
	writeFactList(&sb, "YOUR KEY ACHIEVEMENTS", facts.Achievements)
	writeFactList(&sb, "YOUR CERTIFICATIONS", facts.Certifications)
	writeFactList(&sb, "YOUR EDUCATION", facts.Education)

	sb.WriteString("HARD BOUNDARIES:\n")
	if len(b.HardNoLocations) > 0 {
		fmt.Fprintf(&sb, "- You will not relocate to or work on-site in: %s.\n", strings.Join(b.HardNoLocations, ", "))
		fmt.Fprintf(&sb, "  If asked, reply exactly: %q\n", b.HardNoResponseText)
	}
	if b.CompensationFloor > 0 {
		fmt.Fprintf(&sb, "- You will not discuss roles below $%d total compensation.\n", b.CompensationFloor)
		fmt.Fprintf(&sb, "  If a lower figure is named, reply exactly: %q\n", b.CompensationFloorResponse)
		fmt.Fprintf(&sb, "  If compensation is raised without a figure, reply exactly: %q\n", b.VagueCompensationResponse)
	}
	if b.DisqualifyResponseText != "" {
		fmt.Fprintf(&sb, "- For any other disqualifying condition, reply exactly: %q\n", b.DisqualifyResponseText)
	}
	sb.WriteString("\n")

	sb.WriteString("RULES:\n")
	sb.WriteString("1. Never fabricate experience, skills, achievements, certifications or education not listed above.\n")
	sb.WriteString("2. If you do not have specific information, say so plainly.\n")
	sb.WriteString("3. Guide the conversation toward the visitor's hiring needs and your qualifications.\n")
	sb.WriteString("4. Encourage qualified visitors to book a meeting.\n")
	sb.WriteString("5. Keep responses concise but informative.\n")

	return sb.String()
}

func writeFactList(sb *strings.Builder, header string, items []string) {
	if len(items) == 0 {
		return
	}
	sb.WriteString(header)
	sb.WriteString(":\n")
	for _, it := range items {
		sb.WriteString("- ")
		sb.WriteString(it)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
}

// fallbackResponse is the deterministic rule-based responder used whenever
// delegated generation is unavailable. Categories are checked in a fixed
// priority order; the location dealbreaker refusal outranks everything.
func (r *responderUC) fallbackResponse(message string) string {
	lower := strings.ToLower(message)
	facts := r.kb.Facts()
	b := r.kb.Boundaries()

	if containsAny(lower, b.RelocationKeywords) && containsAnyFold(lower, b.HardNoLocations) {
		return b.HardNoResponseText
	}

	switch {
	case containsAny(lower, []string{"hello", "hi ", "hey"}) || lower == "hi":
		return "Hello! I'm the candidate's AI doppelganger. I'm here to help you learn about my professional experience and skills. What would you like to know?"
	case strings.Contains(lower, "skill"):
		if len(facts.Skills) > 0 {
			return "Happy to talk skills. My core areas are " + strings.Join(facts.Skills, ", ") + ". Which of these matters most for the role you have in mind?"
		}
		return "I'd be happy to share more about my skills. Could you tell me what specific area you're most interested in?"
	case strings.Contains(lower, "experience") || strings.Contains(lower, "background"):
		return "I have a strong background in software development and technology. Could you tell me what specific area you're most interested in?"
	case strings.Contains(lower, "project"):
		return "I've worked on several interesting projects throughout my career. Is there a particular type of project or technology you'd like to hear about?"
	case containsAny(lower, []string{"meeting", "appointment", "schedule", "calendar", "book a"}):
		return "I'd love to set up a meeting to discuss opportunities further. Once we've had a chance to chat a bit more, I can help you schedule a time that works best."
	case containsAny(lower, []string{"salary", "compensation", "pay", "rate"}):
		if b.VagueCompensationResponse != "" {
			return b.VagueCompensationResponse
		}
		return "Compensation is worth discussing once we know the role is a mutual fit. What range did you have in mind?"
	case containsAny(lower, []string{"hiring", "looking for", "open role", "open position", "vacancy"}):
		return "I'm actively exploring new opportunities. Could you tell me more about the role and what your team is looking for?"
	case containsAny(lower, []string{"location", "where are you", "based in", "remote"}):
		return "I work remotely and I'm happy to discuss time-zone overlap. Where is your team based?"
	case containsAny(lower, []string{"certification", "certified", "certs"}):
		if len(facts.Certifications) > 0 {
			return "My current certifications: " + strings.Join(facts.Certifications, ", ") + "."
		}
		return "I can walk you through my certifications and training. What are you looking for specifically?"
	case containsAny(lower, []string{"education", "degree", "university", "college"}):
		if len(facts.Education) > 0 {
			return "My education: " + strings.Join(facts.Education, ", ") + "."
		}
		return "Happy to cover my education background. What would you like to know?"
	case containsAny(lower, []string{"military", "veteran", "service"}):
		return "I can speak to my military background and how it shaped my work ethic. What would you like to know?"
	case containsAny(lower, []string{"clearance", "security clearance"}):
		return "Clearance questions are best handled directly. If that's a requirement for the role, let's set up a meeting to discuss specifics."
	case containsAny(lower, []string{"linkedin", "contact", "reach you", "get in touch", "email you"}):
		if b.EscapeHatchText != "" {
			return b.EscapeHatchText
		}
		return "The best way to reach me is to leave your contact details here; I'll follow up directly."
	}

	return "That's a great question! Could you tell me a bit more about what you're looking for, and I can share relevant information about my background?"
}

// QualificationScore recomputes the lead score from scratch for the given
// history. Pure function of message content: same history, same score.
func (r *responderUC) QualificationScore(history []model.Message) int {
	return scoreHistory(history, r.kb.Boundaries())
}

// Keyword groups behind the five independent bonus checks. Singular forms
// deliberately double as substrings of their plurals.
var (
	skillWords    = []string{"skill", "experience", "background", "expertise"}
	projectWords  = []string{"project", "achievement", "work", "accomplishment"}
	interestWords = []string{"interest", "hiring", "opportunity", "looking for"}
	contextWords  = []string{"company", "role", "position", "team"}
	introPhrases  = []string{"my name", "i'm from", "i work"}
)

func scoreHistory(history []model.Message, b model.HardBoundaries) int {
	if len(history) == 0 {
		return 0
	}

	// Base engagement score, capped at 20.
	score := len(history) * 5
	if score > 20 {
		score = 20
	}

	parts := make([]string, 0, len(history))
	for _, m := range history {
		parts = append(parts, strings.ToLower(m.Content))
	}
	all := strings.Join(parts, " ")

	// A mandatory-relocation dealbreaker caps the score at 50 and
	// short-circuits, which keeps the lead below the qualification bar.
	if containsAny(all, b.RelocationKeywords) && containsAnyFold(all, b.HardNoLocations) {
		if score > 50 {
			score = 50
		}
		return score
	}

	if containsAny(all, skillWords) {
		score += 20
	}
	if containsAny(all, projectWords) {
		score += 20
	}
	if containsAny(all, interestWords) {
		score += 15
	}
	if containsAny(all, contextWords) {
		score += 15
	}
	if containsAny(all, introPhrases) {
		score += 10
	}

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

// containsAnyFold lowercases the needles before matching; boundary config
// may carry display-cased location names.
func containsAnyFold(haystack string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(haystack, strings.ToLower(n)) {
			return true
		}
	}
	return false
}
