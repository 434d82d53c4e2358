package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"klinikbot/core/logger"
)

type postgresStore struct {
	db  *sqlx.DB
	ttl time.Duration
}

// NewPostgresStore constructs a Store backed by the shared wa_sessions table,
// suitable for multi-instance deployments.
func NewPostgresStore(db *sqlx.DB, ttl time.Duration) Store {
	return &postgresStore{db: db, ttl: ttl}
}

func (p *postgresStore) Get(ctx context.Context, phone string) (*Session, error) {
	var sess Session
	err := p.db.GetContext(ctx, &sess,
		`SELECT step, layanan, metode, touched_at FROM wa_sessions WHERE phone = $1`, phone)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session get: %w", err)
	}

	if time.Since(sess.Touched) > p.ttl {
		p.drop(ctx, phone, "expired")
		return nil, nil
	}
	if !sess.Step.Valid() {
		// Corrupt record: treated as absent, never surfaced as an error.
		p.drop(ctx, phone, "corrupt")
		return nil, nil
	}
	return &sess, nil
}

func (p *postgresStore) Set(ctx context.Context, phone string, sess Session) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO wa_sessions (phone, step, layanan, metode, touched_at)
		 VALUES ($1, $2, $3, $4, now())
		 ON CONFLICT (phone) DO UPDATE
		 SET step = EXCLUDED.step, layanan = EXCLUDED.layanan,
		     metode = EXCLUDED.metode, touched_at = now()`,
		phone, string(sess.Step), sess.Layanan, sess.Metode)
	if err != nil {
		return fmt.Errorf("session set: %w", err)
	}
	return nil
}

func (p *postgresStore) Clear(ctx context.Context, phone string) error {
	if _, err := p.db.ExecContext(ctx, `DELETE FROM wa_sessions WHERE phone = $1`, phone); err != nil {
		return fmt.Errorf("session clear: %w", err)
	}
	return nil
}

func (p *postgresStore) drop(ctx context.Context, phone, reason string) {
	if _, err := p.db.ExecContext(ctx, `DELETE FROM wa_sessions WHERE phone = $1`, phone); err != nil {
		logger.Warn(ctx, "session", "session.drop",
			slog.String("reason", reason),
			slog.String("err", err.Error()),
		)
		return
	}
	logger.Debug(ctx, "session", "session.drop",
		slog.String("reason", reason),
	)
}
