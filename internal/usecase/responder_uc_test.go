//go:build !integration

// File: internal/usecase/responder_uc_test.go
package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"ai-doppelganger/internal/config"
	"ai-doppelganger/internal/domain/model"
)

func userMsgs(contents ...string) []model.Message {
	out := make([]model.Message, 0, len(contents))
	for _, c := range contents {
		out = append(out, model.Message{Role: model.RoleUser, Content: c})
	}
	return out
}

func testAIConfig() config.AIConfig {
	return config.AIConfig{MaxTokens: 100, Temperature: 0.7, Timeout: time.Second}
}

func TestScore_Deterministic(t *testing.T) {
	t.Parallel()
	kb := newStubKnowledge()
	history := userMsgs("I'm hiring for a role", "tell me about your skills and projects")
	first := scoreHistory(history, kb.bounds)
	for i := 0; i < 10; i++ {
		if got := scoreHistory(history, kb.bounds); got != first {
			t.Fatalf("score not deterministic: %d vs %d", got, first)
		}
	}
}

func TestScore_EmptyHistoryIsZero(t *testing.T) {
	t.Parallel()
	if got := scoreHistory(nil, newStubKnowledge().bounds); got != 0 {
		t.Fatalf("empty history score = %d, want 0", got)
	}
}

func TestScore_Bounds(t *testing.T) {
	t.Parallel()
	kb := newStubKnowledge()
	// Every category at once plus a long history.
	loaded := "my name is jane, i work at acme, we're hiring for a role on my team, " +
		"interested in your skills, experience, projects and achievements"
	histories := [][]model.Message{
		userMsgs(loaded),
		userMsgs(loaded, loaded, loaded, loaded, loaded, loaded, loaded, loaded),
		userMsgs("x"),
	}
	for _, h := range histories {
		got := scoreHistory(h, kb.bounds)
		if got < 0 || got > 100 {
			t.Fatalf("score %d out of [0,100]", got)
		}
	}
}

func TestScore_BaseEngagement(t *testing.T) {
	t.Parallel()
	kb := newStubKnowledge()
	// One neutral message scores the 5-point engagement base.
	if got := scoreHistory(userMsgs("hi"), kb.bounds); got != 5 {
		t.Fatalf("1-message score = %d, want 5", got)
	}
	// Two messages score 10; base caps at 20.
	two := []model.Message{
		{Role: model.RoleUser, Content: "hi"},
		{Role: model.RoleAssistant, Content: "hello there"},
	}
	if got := scoreHistory(two, kb.bounds); got != 10 {
		t.Fatalf("2-message score = %d, want 10", got)
	}
	neutral := userMsgs("a", "b", "c", "d", "e", "f", "g", "h")
	if got := scoreHistory(neutral, kb.bounds); got != 20 {
		t.Fatalf("8-message neutral score = %d, want capped base 20", got)
	}
}

func TestScore_DealbreakerCapsAtFifty(t *testing.T) {
	t.Parallel()
	kb := newStubKnowledge()
	// All bonus categories present, but relocation to a hard-no location
	// short-circuits the scoring.
	h := userMsgs(
		"my name is jane and i work at acme",
		"we're hiring for a role, love your skills and projects",
		"you would need to relocate to california",
	)
	got := scoreHistory(h, kb.bounds)
	if got > 50 {
		t.Fatalf("dealbreaker score = %d, want <= 50", got)
	}
}

func TestScore_CategoryBonuses(t *testing.T) {
	t.Parallel()
	kb := newStubKnowledge()
	cases := []struct {
		name    string
		content string
		want    int // base 5 + bonus
	}{
		{"skills", "tell me about your skills", 25},
		{"projects", "what projects have you built", 25},
		{"interest", "we are hiring", 20},
		{"context", "the role is senior", 20},
		{"intro", "my name is jane", 15},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := scoreHistory(userMsgs(tc.content), kb.bounds); got != tc.want {
				t.Fatalf("score = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestGenerateResponse_UsesGeneratorReply(t *testing.T) {
	t.Parallel()
	gen := &stubGenerator{reply: "generated reply"}
	uc := NewResponderUseCase(newStubKnowledge(), gen, testAIConfig(), testLogger())

	got := uc.GenerateResponse(context.Background(), "hello", nil)
	if got != "generated reply" {
		t.Fatalf("reply = %q", got)
	}
	if gen.calls != 1 {
		t.Fatalf("generator calls = %d", gen.calls)
	}
}

func TestGenerateResponse_FallsBackOnError(t *testing.T) {
	t.Parallel()
	gen := &stubGenerator{err: errors.New("provider down")}
	uc := NewResponderUseCase(newStubKnowledge(), gen, testAIConfig(), testLogger())

	got := uc.GenerateResponse(context.Background(), "what skills do you have?", nil)
	if got == "" {
		t.Fatal("fallback must always produce text")
	}
	if !strings.Contains(got, "Go") {
		t.Fatalf("skills fallback should enumerate configured skills, got %q", got)
	}
}

func TestFallback_LocationRefusalOutranksEverything(t *testing.T) {
	t.Parallel()
	kb := newStubKnowledge()
	gen := &stubGenerator{err: errors.New("down")}
	uc := NewResponderUseCase(kb, gen, testAIConfig(), testLogger())

	// Mentions skills too, but the relocation demand wins.
	got := uc.GenerateResponse(context.Background(), "Great skills! You'd need to relocate to California though.", nil)
	if got != kb.bounds.HardNoResponseText {
		t.Fatalf("want hard-no refusal, got %q", got)
	}
}

func TestFallback_CategoryReplies(t *testing.T) {
	t.Parallel()
	gen := &stubGenerator{err: errors.New("down")}
	uc := NewResponderUseCase(newStubKnowledge(), gen, testAIConfig(), testLogger())

	cases := []struct {
		message string
		wantSub string
	}{
		{"hello there", "doppelganger"},
		{"can we schedule a meeting", "meeting"},
		{"what's your experience", "background"},
		{"any interesting projects", "projects"},
		{"what about salary", "range"},
		{"we have an open role, hiring now", "opportunities"},
		{"total gibberish zzz", "great question"},
	}
	for _, tc := range cases {
		got := uc.GenerateResponse(context.Background(), tc.message, nil)
		if !strings.Contains(strings.ToLower(got), strings.ToLower(tc.wantSub)) {
			t.Fatalf("message %q: reply %q does not contain %q", tc.message, got, tc.wantSub)
		}
	}
}

func TestFallback_EmptyGeneratorReplyAlsoFallsBack(t *testing.T) {
	t.Parallel()
	gen := &stubGenerator{reply: "   "}
	uc := NewResponderUseCase(newStubKnowledge(), gen, testAIConfig(), testLogger())

	if got := uc.GenerateResponse(context.Background(), "hello", nil); strings.TrimSpace(got) == "" {
		t.Fatal("blank generator output must not reach the visitor")
	}
}

func TestSystemPrompt_CarriesFactsAndBoundaries(t *testing.T) {
	t.Parallel()
	kb := newStubKnowledge()
	uc := NewResponderUseCase(kb, &stubGenerator{}, testAIConfig(), testLogger())

	prompt := uc.buildSystemPrompt()
	for _, want := range []string{"Go", "Postgres", "california", "HARD BOUNDARIES", "Never fabricate"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("system prompt missing %q", want)
		}
	}
}
