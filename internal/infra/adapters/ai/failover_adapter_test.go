//go:build !integration

package ai_test

import (
	"context"
	"errors"
	"testing"

	"ai-doppelganger/internal/domain"
	"ai-doppelganger/internal/domain/ports/adapter"
	ai "ai-doppelganger/internal/infra/adapters/ai"
)

type stubGen struct {
	reply string
	err   error
	calls int
}

func (s *stubGen) Generate(ctx context.Context, systemPrompt string, messages []adapter.Message, maxTokens int, temperature float64) (string, error) {
	s.calls++
	return s.reply, s.err
}

func TestFailover_FirstSuccessWins(t *testing.T) {
	t.Parallel()
	first := &stubGen{reply: "from-first"}
	second := &stubGen{reply: "from-second"}

	f := ai.NewFailoverAdapter(nil)
	f.Add("first", first)
	f.Add("second", second)

	got, err := f.Generate(context.Background(), "sys", nil, 100, 0.7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "from-first" {
		t.Fatalf("want reply from first provider, got %q", got)
	}
	if second.calls != 0 {
		t.Fatalf("second provider should not be called")
	}
}

func TestFailover_TriesNextOnError(t *testing.T) {
	t.Parallel()
	first := &stubGen{err: errors.New("boom")}
	second := &stubGen{reply: "recovered"}

	f := ai.NewFailoverAdapter(nil)
	f.Add("first", first)
	f.Add("second", second)

	got, err := f.Generate(context.Background(), "", nil, 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "recovered" {
		t.Fatalf("want %q, got %q", "recovered", got)
	}
	if first.calls != 1 || second.calls != 1 {
		t.Fatalf("want both providers tried, got first:%d second:%d", first.calls, second.calls)
	}
}

func TestFailover_AllFailMapsToGenerationUnavailable(t *testing.T) {
	t.Parallel()
	f := ai.NewFailoverAdapter(nil)
	f.Add("only", &stubGen{err: errors.New("down")})

	_, err := f.Generate(context.Background(), "", nil, 0, 0)
	if !errors.Is(err, domain.ErrGenerationUnavailable) {
		t.Fatalf("want ErrGenerationUnavailable, got %v", err)
	}
}

func TestFailover_ContextCancelStopsChain(t *testing.T) {
	t.Parallel()
	first := &stubGen{err: context.Canceled}
	second := &stubGen{reply: "never"}

	f := ai.NewFailoverAdapter(nil)
	f.Add("first", first)
	f.Add("second", second)

	_, err := f.Generate(context.Background(), "", nil, 0, 0)
	if err == nil {
		t.Fatal("want error")
	}
	if second.calls != 0 {
		t.Fatalf("canceled context should not fail over, second called %d times", second.calls)
	}
}

func TestFailover_SkipsNilProviders(t *testing.T) {
	t.Parallel()
	f := ai.NewFailoverAdapter(nil)
	f.Add("missing", nil)
	if f.Len() != 0 {
		t.Fatalf("nil provider should be skipped, len=%d", f.Len())
	}
}
