package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/courseshop/internal/domain/session"
	"github.com/target/courseshop/internal/testutil"
)

func newRecord(id string, ttl time.Duration) session.Record {
	now := time.Now()
	return session.Record{
		ID:         id,
		Values:     map[string]json.RawMessage{session.KeyUserID: json.RawMessage(`"user-123"`)},
		CreatedAt:  now,
		LastAccess: now,
		ExpiresAt:  now.Add(ttl),
	}
}

func TestSessionStore_SaveAndGet(t *testing.T) {
	srv, client := testutil.SetupMiniRedis(t)
	store := NewSessionStore(client)
	ctx := context.Background()

	rec := newRecord("test-session-1", 30*time.Minute)
	require.NoError(t, store.Save(ctx, rec))

	assert.True(t, srv.Exists("session:test-session-1"))
	assert.InDelta(t, (30 * time.Minute).Seconds(), srv.TTL("session:test-session-1").Seconds(), 2)

	got, err := store.Get(ctx, "test-session-1")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.JSONEq(t, `"user-123"`, string(got.Values[session.KeyUserID]))
	assert.WithinDuration(t, rec.ExpiresAt, got.ExpiresAt, time.Second)
}

func TestSessionStore_GetNonExistent(t *testing.T) {
	_, client := testutil.SetupMiniRedis(t)
	store := NewSessionStore(client)

	_, err := store.Get(context.Background(), "non-existent")
	assert.ErrorIs(t, err, session.ErrNotFound)

	_, err = store.Get(context.Background(), "")
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestSessionStore_TTLExpiry(t *testing.T) {
	srv, client := testutil.SetupMiniRedis(t)
	store := NewSessionStore(client)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, newRecord("short", time.Minute)))
	srv.FastForward(2 * time.Minute)

	_, err := store.Get(ctx, "short")
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestSessionStore_ExpiredByClock(t *testing.T) {
	srv, client := testutil.SetupMiniRedis(t)
	store := NewSessionStore(client)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, newRecord("skewed", time.Hour)))
	store.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, err := store.Get(ctx, "skewed")
	assert.ErrorIs(t, err, session.ErrNotFound)
	assert.False(t, srv.Exists("session:skewed"), "stale key should be removed")
}

func TestSessionStore_SaveRejectsInvalid(t *testing.T) {
	_, client := testutil.SetupMiniRedis(t)
	store := NewSessionStore(client)
	ctx := context.Background()

	assert.Error(t, store.Save(ctx, newRecord("", time.Hour)))
	assert.Error(t, store.Save(ctx, newRecord("expired", -time.Minute)))
}

func TestSessionStore_DeleteAndPurge(t *testing.T) {
	srv, client := testutil.SetupMiniRedis(t)
	store := NewSessionStoreWithPrefix(client, "shop:")
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.Save(ctx, newRecord(id, time.Hour)))
	}
	require.NoError(t, srv.Set("other:key", "x"))

	require.NoError(t, store.Delete(ctx, "a"))
	require.NoError(t, store.Delete(ctx, "missing"))
	require.NoError(t, store.Delete(ctx, ""))
	assert.False(t, srv.Exists("shop:a"))

	n, err := store.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.True(t, srv.Exists("other:key"))
}

func TestSessionStore_UnavailableBackend(t *testing.T) {
	srv, client := testutil.SetupMiniRedis(t)
	store := NewSessionStore(client)
	srv.Close()

	_, err := store.Get(context.Background(), "any")
	require.Error(t, err)
	assert.NotErrorIs(t, err, session.ErrNotFound)
	assert.Error(t, store.Ping(context.Background()))
}
