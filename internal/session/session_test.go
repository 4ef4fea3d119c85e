package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_CreateGetDestroy(t *testing.T) {
	store := NewMemoryStore(time.Hour, nil)
	ctx := context.Background()

	sess, err := store.Create(ctx, "operator")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)
	assert.Equal(t, "operator", sess.Username)
	assert.Equal(t, time.UTC, sess.CreatedAt.Location())

	got, err := store.Get(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, sess, got)

	require.NoError(t, store.Destroy(ctx, sess.Token))
	_, err = store.Get(ctx, sess.Token)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_UnknownToken(t *testing.T) {
	store := NewMemoryStore(time.Hour, nil)

	_, err := store.Get(context.Background(), "nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_TokensAreUnique(t *testing.T) {
	store := NewMemoryStore(time.Hour, nil)
	ctx := context.Background()

	a, err := store.Create(ctx, "operator")
	require.NoError(t, err)
	b, err := store.Create(ctx, "operator")
	require.NoError(t, err)
	assert.NotEqual(t, a.Token, b.Token)
}

func TestMemoryStore_Expiry(t *testing.T) {
	now := time.Unix(1_720_000_000, 0)
	clock := func() time.Time { return now }
	store := NewMemoryStore(time.Minute, clock)
	ctx := context.Background()

	sess, err := store.Create(ctx, "operator")
	require.NoError(t, err)

	now = now.Add(30 * time.Second)
	_, err = store.Get(ctx, sess.Token)
	require.NoError(t, err, "still within ttl")

	now = now.Add(2 * time.Minute)
	_, err = store.Get(ctx, sess.Token)
	require.ErrorIs(t, err, ErrNotFound, "expired sessions behave like missing ones")
}

func TestMemoryStore_ZeroTTLNeverExpires(t *testing.T) {
	now := time.Unix(1_720_000_000, 0)
	clock := func() time.Time { return now }
	store := NewMemoryStore(0, clock)
	ctx := context.Background()

	sess, err := store.Create(ctx, "operator")
	require.NoError(t, err)

	now = now.Add(1000 * time.Hour)
	_, err = store.Get(ctx, sess.Token)
	require.NoError(t, err)
}
