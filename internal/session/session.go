// Package session holds operator sessions behind an injectable store so
// the HTTP layer only ever asks "is this token good, and for whom".
package session

import (
	"context"
	"errors"

	"github.com/spengler302/shopify-feed-uploader/internal/models"
)

// ErrNotFound covers both unknown and expired tokens; callers cannot tell
// the two apart and should not try.
var ErrNotFound = errors.New("session not found")

type Store interface {
	Create(ctx context.Context, username string) (models.Session, error)
	Get(ctx context.Context, token string) (models.Session, error)
	Destroy(ctx context.Context, token string) error
}
