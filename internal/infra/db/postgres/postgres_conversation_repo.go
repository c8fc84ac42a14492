// File: internal/infra/db/postgres/postgres_conversation_repo.go
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"ai-doppelganger/internal/domain"
	"ai-doppelganger/internal/domain/model"
	"ai-doppelganger/internal/domain/ports/repository"
	"ai-doppelganger/internal/infra/metrics"
	red "ai-doppelganger/internal/infra/redis"
)

// Compile-time check
var _ repository.ConversationRepository = (*ConversationRepo)(nil)

// Schema (migrations live with the deployment, not in code):
//
//	CREATE TABLE conversations (
//	  id                  TEXT PRIMARY KEY,
//	  session_id          TEXT UNIQUE NOT NULL,
//	  started_at          TIMESTAMPTZ NOT NULL,
//	  last_activity_at    TIMESTAMPTZ NOT NULL,
//	  messages            JSONB NOT NULL DEFAULT '[]',
//	  visitor_info        JSONB NOT NULL DEFAULT '{}',
//	  has_contact_info    BOOLEAN NOT NULL DEFAULT FALSE,
//	  qualification_score INT NOT NULL DEFAULT 0,
//	  is_qualified        BOOLEAN NOT NULL DEFAULT FALSE,
//	  appointment_booked  BOOLEAN NOT NULL DEFAULT FALSE,
//	  dealbreakers        JSONB NOT NULL DEFAULT '[]',
//	  summary             TEXT,
//	  notification_sent   BOOLEAN NOT NULL DEFAULT FALSE
//	);
//	CREATE INDEX conversations_last_activity_idx ON conversations (last_activity_at DESC);
type ConversationRepo struct {
	pool  *pgxpool.Pool
	cache *red.ConversationCache
}

func NewConversationRepo(pool *pgxpool.Pool, cache *red.ConversationCache) *ConversationRepo {
	return &ConversationRepo{pool: pool, cache: cache}
}

const allColumns = `id, session_id, started_at, last_activity_at, messages, visitor_info,
has_contact_info, qualification_score, is_qualified, appointment_booked, dealbreakers, summary, notification_sent`

func (r *ConversationRepo) Save(ctx context.Context, c *model.Conversation) error {
	start := time.Now()
	messages, err := json.Marshal(c.Messages)
	if err != nil {
		return fmt.Errorf("marshal messages: %w", err)
	}
	visitor, err := json.Marshal(c.VisitorInfo)
	if err != nil {
		return fmt.Errorf("marshal visitor info: %w", err)
	}
	dealbreakers, err := json.Marshal(c.DealbreakersHit)
	if err != nil {
		return fmt.Errorf("marshal dealbreakers: %w", err)
	}

	const q = `
INSERT INTO conversations (` + allColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,NULLIF($12,''),$13)
ON CONFLICT (id) DO UPDATE SET
  last_activity_at    = EXCLUDED.last_activity_at,
  messages            = EXCLUDED.messages,
  visitor_info        = EXCLUDED.visitor_info,
  has_contact_info    = EXCLUDED.has_contact_info,
  qualification_score = EXCLUDED.qualification_score,
  is_qualified        = EXCLUDED.is_qualified,
  appointment_booked  = EXCLUDED.appointment_booked,
  dealbreakers        = EXCLUDED.dealbreakers,
  summary             = EXCLUDED.summary,
  notification_sent   = EXCLUDED.notification_sent;`

	_, err = r.pool.Exec(ctx, q,
		c.ID, c.SessionID, c.StartedAt, c.LastActivityAt, messages, visitor,
		c.HasProvidedContactInfo, c.QualificationScore, c.IsQualified,
		c.AppointmentBooked, dealbreakers, c.Summary, c.NotificationSent)
	metrics.ObserveStoreOp("postgres", "save", start, err)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("save conversation: %w", domain.ErrAlreadyExists)
		}
		return fmt.Errorf("save conversation: %w", err)
	}

	if r.cache != nil {
		_ = r.cache.Store(ctx, c)
	}
	return nil
}

func (r *ConversationRepo) FindBySessionID(ctx context.Context, sessionID string) (*model.Conversation, error) {
	if r.cache != nil {
		if c, err := r.cache.Get(ctx, sessionID); err == nil {
			return c, nil
		}
	}
	const q = `SELECT ` + allColumns + ` FROM conversations WHERE session_id=$1;`
	c, err := r.scanOne(r.pool.QueryRow(ctx, q, sessionID))
	if err != nil {
		return nil, err
	}
	if r.cache != nil {
		_ = r.cache.Store(ctx, c)
	}
	return c, nil
}

func (r *ConversationRepo) FindByConversationID(ctx context.Context, id string) (*model.Conversation, error) {
	const q = `SELECT ` + allColumns + ` FROM conversations WHERE id=$1;`
	return r.scanOne(r.pool.QueryRow(ctx, q, id))
}

func (r *ConversationRepo) FindAll(ctx context.Context) ([]*model.Conversation, error) {
	const q = `SELECT ` + allColumns + ` FROM conversations ORDER BY last_activity_at DESC;`
	return r.queryMany(ctx, q)
}

func (r *ConversationRepo) FindRecent(ctx context.Context, limit int) ([]*model.Conversation, error) {
	const q = `SELECT ` + allColumns + ` FROM conversations ORDER BY last_activity_at DESC LIMIT $1;`
	return r.queryMany(ctx, q, limit)
}

func (r *ConversationRepo) FindUnnotified(ctx context.Context, minMessages int) ([]*model.Conversation, error) {
	const q = `SELECT ` + allColumns + ` FROM conversations
WHERE notification_sent = FALSE AND jsonb_array_length(messages) >= $1
ORDER BY last_activity_at DESC;`
	return r.queryMany(ctx, q, minMessages)
}

func (r *ConversationRepo) queryMany(ctx context.Context, q string, args ...interface{}) ([]*model.Conversation, error) {
	start := time.Now()
	rows, err := r.pool.Query(ctx, q, args...)
	metrics.ObserveStoreOp("postgres", "query", start, err)
	if err != nil {
		return nil, fmt.Errorf("query conversations: %w", err)
	}
	defer rows.Close()

	var out []*model.Conversation
	for rows.Next() {
		c, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *ConversationRepo) scanOne(row rowScanner) (*model.Conversation, error) {
	var (
		c            model.Conversation
		messages     []byte
		visitor      []byte
		dealbreakers []byte
		summary      sql.NullString
	)
	err := row.Scan(&c.ID, &c.SessionID, &c.StartedAt, &c.LastActivityAt, &messages, &visitor,
		&c.HasProvidedContactInfo, &c.QualificationScore, &c.IsQualified,
		&c.AppointmentBooked, &dealbreakers, &summary, &c.NotificationSent)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan conversation: %w", err)
	}
	if err := json.Unmarshal(messages, &c.Messages); err != nil {
		return nil, fmt.Errorf("unmarshal messages: %w", err)
	}
	if err := json.Unmarshal(visitor, &c.VisitorInfo); err != nil {
		return nil, fmt.Errorf("unmarshal visitor info: %w", err)
	}
	if err := json.Unmarshal(dealbreakers, &c.DealbreakersHit); err != nil {
		return nil, fmt.Errorf("unmarshal dealbreakers: %w", err)
	}
	c.Summary = summary.String
	return &c, nil
}
