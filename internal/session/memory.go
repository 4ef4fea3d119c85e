package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spengler302/shopify-feed-uploader/internal/models"
)

// MemoryStore keeps sessions in process memory. Sessions older than ttl
// are treated as gone; expired entries are swept lazily on access.
type MemoryStore struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.RWMutex
	sessions map[string]models.Session
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore(ttl time.Duration, now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		ttl:      ttl,
		now:      now,
		sessions: make(map[string]models.Session),
	}
}

func (s *MemoryStore) Create(ctx context.Context, username string) (models.Session, error) {
	sess := models.Session{
		Token:     uuid.NewString(),
		Username:  username,
		CreatedAt: s.now().UTC(),
	}
	s.mu.Lock()
	s.sweepLocked()
	s.sessions[sess.Token] = sess
	s.mu.Unlock()
	return sess, nil
}

func (s *MemoryStore) Get(ctx context.Context, token string) (models.Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[token]
	s.mu.RUnlock()
	if !ok || s.expired(sess) {
		return models.Session{}, ErrNotFound
	}
	return sess, nil
}

func (s *MemoryStore) Destroy(ctx context.Context, token string) error {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) expired(sess models.Session) bool {
	return s.ttl > 0 && s.now().Sub(sess.CreatedAt) > s.ttl
}

func (s *MemoryStore) sweepLocked() {
	for token, sess := range s.sessions {
		if s.expired(sess) {
			delete(s.sessions, token)
		}
	}
}
