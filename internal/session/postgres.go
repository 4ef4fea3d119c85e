package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spengler302/shopify-feed-uploader/internal/models"
)

// PGStore persists sessions in Postgres so logins survive restarts when
// the service runs with more than one replica behind the same database.
type PGStore struct {
	pool *pgxpool.Pool
	ttl  time.Duration
}

var _ Store = (*PGStore)(nil)

func NewPGStore(ctx context.Context, dsn string, ttl time.Duration) (*PGStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	_, err = pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS sessions (
  token TEXT PRIMARY KEY,
  username TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_created_at ON sessions(created_at);
`)
	if err != nil {
		return nil, err
	}
	return &PGStore{pool: pool, ttl: ttl}, nil
}

func (s *PGStore) Create(ctx context.Context, username string) (models.Session, error) {
	sess := models.Session{
		Token:     uuid.NewString(),
		Username:  username,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO sessions (token, username, created_at) VALUES ($1, $2, $3)`,
		sess.Token, sess.Username, sess.CreatedAt)
	if err != nil {
		return models.Session{}, err
	}
	// Opportunistic cleanup of expired rows.
	if s.ttl > 0 {
		_, _ = s.pool.Exec(ctx,
			`DELETE FROM sessions WHERE created_at < $1`, time.Now().UTC().Add(-s.ttl))
	}
	return sess, nil
}

func (s *PGStore) Get(ctx context.Context, token string) (models.Session, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT token, username, created_at FROM sessions WHERE token = $1`, token)

	var sess models.Session
	if err := row.Scan(&sess.Token, &sess.Username, &sess.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Session{}, ErrNotFound
		}
		return models.Session{}, err
	}
	if s.ttl > 0 && time.Since(sess.CreatedAt) > s.ttl {
		_ = s.Destroy(ctx, token)
		return models.Session{}, ErrNotFound
	}
	return sess, nil
}

func (s *PGStore) Destroy(ctx context.Context, token string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE token = $1`, token)
	return err
}

func (s *PGStore) Close() {
	s.pool.Close()
}
