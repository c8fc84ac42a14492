//go:build !integration

// File: internal/usecase/chat_uc_test.go
package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"ai-doppelganger/internal/config"
	"ai-doppelganger/internal/domain"
	"ai-doppelganger/internal/domain/model"
	"ai-doppelganger/internal/infra/worker"
)

func testChatConfig() config.ChatConfig {
	return config.ChatConfig{
		MessageLimit:     10,
		NotifyAfter:      5,
		QualifyThreshold: 70,
	}
}

type chatFixture struct {
	chat   *chatUC
	ledger *ledgerUC
	repo   *memConversationRepo
	mailer *memMailer
	gen    *stubGenerator
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()
	repo := newMemConversationRepo()
	mailer := &memMailer{}
	kb := newStubKnowledge()
	gen := &stubGenerator{reply: "generated"}

	ledger := NewLedgerUseCase(repo, mailer, "operator@example.com", testLogger())
	responder := NewResponderUseCase(kb, gen, testAIConfig(), testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	pool := worker.NewPool(2, testLogger())
	pool.Start(ctx)
	t.Cleanup(func() {
		cancel()
		pool.Stop()
	})

	chat := NewChatUseCase(ledger, responder, kb, pool, testChatConfig(), testLogger())
	return &chatFixture{chat: chat, ledger: ledger, repo: repo, mailer: mailer, gen: gen}
}

func TestSubmitMessage_FullTurn(t *testing.T) {
	t.Parallel()
	f := newChatFixture(t)
	ctx := context.Background()
	sid, _ := f.chat.StartSession(ctx, model.VisitorInfo{})

	res, err := f.chat.SubmitMessage(ctx, sid, "Tell me about your skills")
	if err != nil {
		t.Fatal(err)
	}
	if res.Reply != "generated" {
		t.Fatalf("reply = %q", res.Reply)
	}
	if res.RequiresContactInfo {
		t.Fatal("gate should not trip on the first message")
	}

	c, _ := f.ledger.GetConversation(ctx, sid)
	if len(c.Messages) != 2 {
		t.Fatalf("messages = %d, want user+assistant", len(c.Messages))
	}
	if c.Messages[0].Role != model.RoleUser || c.Messages[1].Role != model.RoleAssistant {
		t.Fatalf("roles = %s,%s", c.Messages[0].Role, c.Messages[1].Role)
	}
	// Score reflects the just-logged pair: base 10 + skills 20.
	if res.QualificationScore != 30 || c.QualificationScore != 30 {
		t.Fatalf("score = %d / persisted %d, want 30", res.QualificationScore, c.QualificationScore)
	}
	if res.IsQualified {
		t.Fatal("30 is below the qualification threshold")
	}
}

func TestSubmitMessage_EmptyMessageRejected(t *testing.T) {
	t.Parallel()
	f := newChatFixture(t)
	sid, _ := f.chat.StartSession(context.Background(), model.VisitorInfo{})

	if _, err := f.chat.SubmitMessage(context.Background(), sid, "   "); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("want ErrInvalidArgument, got %v", err)
	}
}

func TestSubmitMessage_UnknownSession(t *testing.T) {
	t.Parallel()
	f := newChatFixture(t)
	if _, err := f.chat.SubmitMessage(context.Background(), "ghost", "hi"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestSubmitMessage_GateReturnsContactPrompt(t *testing.T) {
	t.Parallel()
	f := newChatFixture(t)
	ctx := context.Background()
	sid, _ := f.chat.StartSession(ctx, model.VisitorInfo{})

	var last *TurnResult
	for i := 0; i < 10; i++ {
		var err error
		last, err = f.chat.SubmitMessage(ctx, sid, "neutral text")
		if err != nil {
			t.Fatal(err)
		}
		if i < 9 && last.RequiresContactInfo {
			t.Fatalf("gate tripped early, on user message %d", i+1)
		}
	}
	if !last.RequiresContactInfo {
		t.Fatal("gate should trip on the 10th user message, not after it")
	}
	if last.Reply != contactGatePrompt {
		t.Fatalf("gated reply = %q", last.Reply)
	}

	// Contact info reopens free-form replies.
	if err := f.chat.SubmitVisitorInfo(ctx, sid, model.VisitorInfo{
		FirstName: "Jane", LastName: "Doe", Company: "Acme", Email: "jane@acme.com",
	}); err != nil {
		t.Fatal(err)
	}
	res, err := f.chat.SubmitMessage(ctx, sid, "still there?")
	if err != nil {
		t.Fatal(err)
	}
	if res.RequiresContactInfo || res.Reply != "generated" {
		t.Fatalf("post-contact turn = %+v", res)
	}
}

func TestSubmitMessage_DealbreakerRecordedWithEscapeHatch(t *testing.T) {
	t.Parallel()
	f := newChatFixture(t)
	ctx := context.Background()
	sid, _ := f.chat.StartSession(ctx, model.VisitorInfo{})

	res, err := f.chat.SubmitMessage(ctx, sid, "You'd need to relocate to California")
	if err != nil {
		t.Fatal(err)
	}
	if res.EscapeHatchURL != "/contact" {
		t.Fatalf("escape hatch = %q", res.EscapeHatchURL)
	}
	c, _ := f.ledger.GetConversation(ctx, sid)
	if len(c.DealbreakersHit) != 1 || c.DealbreakersHit[0] != "Location: california" {
		t.Fatalf("dealbreakers = %v", c.DealbreakersHit)
	}
	if res.QualificationScore > 50 {
		t.Fatalf("score = %d, want capped at 50", res.QualificationScore)
	}
}

func TestSubmitMessage_ExtractsVisitorInfo(t *testing.T) {
	t.Parallel()
	f := newChatFixture(t)
	ctx := context.Background()
	sid, _ := f.chat.StartSession(ctx, model.VisitorInfo{})

	if _, err := f.chat.SubmitMessage(ctx, sid, "Hi, my name is Jane Doe, reach me at jane@acme.com"); err != nil {
		t.Fatal(err)
	}
	c, _ := f.ledger.GetConversation(ctx, sid)
	if c.VisitorInfo.FirstName != "Jane" || c.VisitorInfo.LastName != "Doe" || c.VisitorInfo.Email != "jane@acme.com" {
		t.Fatalf("extracted info = %+v", c.VisitorInfo)
	}
}

func TestSubmitMessage_NotifiesOnceAtThreshold(t *testing.T) {
	t.Parallel()
	f := newChatFixture(t)
	ctx := context.Background()
	sid, _ := f.chat.StartSession(ctx, model.VisitorInfo{})

	// Three turns cross the 5-message threshold (2 messages per turn).
	for i := 0; i < 3; i++ {
		if _, err := f.chat.SubmitMessage(ctx, sid, "interested in your skills"); err != nil {
			t.Fatal(err)
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for f.mailer.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if f.mailer.count() != 1 {
		t.Fatalf("emails = %d, want 1", f.mailer.count())
	}

	c, _ := f.ledger.GetConversation(ctx, sid)
	if c.Summary == "" {
		t.Fatal("summary should be generated before notifying")
	}

	// Further turns never re-notify.
	for i := 0; i < 3; i++ {
		if _, err := f.chat.SubmitMessage(ctx, sid, "more talk"); err != nil {
			t.Fatal(err)
		}
	}
	time.Sleep(100 * time.Millisecond)
	if f.mailer.count() != 1 {
		t.Fatalf("emails after more turns = %d, want still 1", f.mailer.count())
	}
}

func TestConfirmBooking(t *testing.T) {
	t.Parallel()
	f := newChatFixture(t)
	ctx := context.Background()
	sid, _ := f.chat.StartSession(ctx, model.VisitorInfo{})

	if err := f.chat.ConfirmBooking(ctx, sid); err != nil {
		t.Fatal(err)
	}
	c, _ := f.ledger.GetConversation(ctx, sid)
	if !c.AppointmentBooked {
		t.Fatal("booking not recorded")
	}
}
