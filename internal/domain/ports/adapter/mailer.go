package adapter

import "context"

// Mailer delivers operator-facing digest emails. Delivery is best-effort;
// the ledger swallows failures and leaves the notification unlatched so a
// manual retry stays possible.
type Mailer interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}
