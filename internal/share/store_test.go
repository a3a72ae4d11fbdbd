package share

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "missing"), ErrNotFound)

	doc := json.RawMessage(`{"round":2}`)
	require.NoError(t, store.Put(ctx, "g1", Entry{Game: doc}))
	require.NoError(t, store.Put(ctx, "b1", Entry{Bundle: []string{"g1"}}))

	got, err := store.Get(ctx, "g1")
	require.NoError(t, err)
	assert.False(t, got.IsBundle())
	assert.JSONEq(t, string(doc), string(got.Game))

	got, err = store.Get(ctx, "b1")
	require.NoError(t, err)
	assert.True(t, got.IsBundle())
	assert.Equal(t, []string{"g1"}, got.Bundle)

	require.NoError(t, store.Delete(ctx, "g1"))
	_, err = store.Get(ctx, "g1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("WIZARDSCORE_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		t.Skipf("skipping redis store test: %v", err)
	}

	prefix := "wizardscore-test:" + t.Name() + ":"
	t.Cleanup(func() {
		keys, _ := rdb.Keys(context.Background(), prefix+"*").Result()
		if len(keys) > 0 {
			rdb.Del(context.Background(), keys...)
		}
	})
	exerciseStore(t, NewRedisStore(rdb, prefix, time.Minute))
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("WIZARDSCORE_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("set WIZARDSCORE_POSTGRES_DSN to run the postgres store test")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := ConnectPostgres(ctx, dsn, PostgresOptions{MaxConns: 2})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	store, err := NewPostgresStore(ctx, pool, time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM shared_games WHERE id IN ('g1', 'b1')`)
	})
	exerciseStore(t, store)

	purged, err := store.Purge(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, purged, int64(0))
}
