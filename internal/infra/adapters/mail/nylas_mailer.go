// File: internal/infra/adapters/mail/nylas_mailer.go
package mail

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
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.Mailer = (*NylasMailer)(nil)

// NylasMailer sends mail through the Nylas v3 grant send endpoint:
// POST {base}/grants/{grantID}/messages/send with a bearer API key.
type NylasMailer struct {
	apiKey  string
	grantID string
	base    string
	client  *http.Client
}

func NewNylasMailer(apiKey, grantID, base string) (*NylasMailer, error) {
	if apiKey == "" {
		return nil, errors.New("nylas api key empty")
	}
	if grantID == "" {
		return nil, errors.New("nylas grant id empty")
	}
	if base == "" {
		base = "https://api.us.nylas.com/v3"
	}
	return &NylasMailer{
		apiKey:  apiKey,
		grantID: grantID,
		base:    strings.TrimRight(base, "/"),
		client:  &http.Client{Timeout: 15 * time.Second},
	}, nil
}

func (n *NylasMailer) SendEmail(ctx context.Context, to, subject, body string) error {
	type recipient struct {
		Email string `json:"email"`
	}
	reqBody := struct {
		To      []recipient `json:"to"`
		Subject string      `json:"subject"`
		Body    string      `json:"body"`
	}{To: []recipient{{Email: to}}, Subject: subject, Body: body}

	b, _ := json.Marshal(reqBody)
	url := fmt.Sprintf("%s/grants/%s/messages/send", n.base, n.grantID)
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+n.apiKey)

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("nylas http %d", resp.StatusCode)
	}
	return nil
}
