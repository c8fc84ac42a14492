// File: internal/infra/adapters/ai/modal_adapter.go
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"ai-doppelganger/internal/domain/ports/adapter"
	"ai-doppelganger/internal/infra/metrics"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.TextGenerator = (*ModalAdapter)(nil)

// ModalAdapter talks to a self-hosted model endpoint exposing a single
// POST /generate route. The endpoint accepts the system prompt and the
// turn history and returns {"response": "..."}.
type ModalAdapter struct {
	base   string
	client *http.Client
}

func NewModalAdapter(endpoint string, timeout time.Duration) (*ModalAdapter, error) {
	if endpoint == "" {
		return nil, errors.New("modal endpoint empty")
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &ModalAdapter{
		base:   strings.TrimRight(endpoint, "/"),
		client: &http.Client{Timeout: timeout},
	}, nil
}

func (m *ModalAdapter) Generate(ctx context.Context, systemPrompt string, messages []adapter.Message, maxTokens int, temperature float64) (string, error) {
	start := time.Now()
	text, err := m.generate(ctx, systemPrompt, messages, maxTokens, temperature)
	metrics.ObserveGeneration("modal", int(time.Since(start).Milliseconds()), err == nil)
	return text, err
}

func (m *ModalAdapter) generate(ctx context.Context, systemPrompt string, messages []adapter.Message, maxTokens int, temperature float64) (string, error) {
	reqBody := struct {
		SystemPrompt string            `json:"system_prompt"`
		Messages     []adapter.Message `json:"messages"`
		MaxTokens    int               `json:"max_tokens"`
		Temperature  float64           `json:"temperature"`
	}{SystemPrompt: systemPrompt, Messages: messages, MaxTokens: maxTokens, Temperature: temperature}

	b, _ := json.Marshal(reqBody)
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, m.base+"/generate", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("modal http %d", resp.StatusCode)
	}

	var payload struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", err
	}
	if strings.TrimSpace(payload.Response) == "" {
		return "", errors.New("modal: empty response")
	}
	return payload.Response, nil
}
