package adapter

import "context"

// Message is one chat turn passed to a text-generation provider.
type Message struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// TextGenerator is the port for delegated reply generation. Implementations
// may fail (timeout, non-2xx, network error); callers must have a
// deterministic local fallback.
type TextGenerator interface {
	// Generate returns the assistant text for the system prompt plus turn
	// history. maxTokens and temperature are provider hints.
	Generate(ctx context.Context, systemPrompt string, messages []Message, maxTokens int, temperature float64) (string, error)
}
