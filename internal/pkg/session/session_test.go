package session

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mx-space/publisher/internal/pkg/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryMarkers_SetOnce(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryMarkers()

	has, err := m.Has(ctx, "viewed_post_1")
	require.NoError(t, err)
	assert.False(t, has)

	created, err := m.Set(ctx, "viewed_post_1")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = m.Set(ctx, "viewed_post_1")
	require.NoError(t, err)
	assert.False(t, created)

	has, err = m.Has(ctx, "viewed_post_1")
	require.NoError(t, err)
	assert.True(t, has)
}

func TestMemoryMarkers_ConcurrentSet(t *testing.T) {
	m := NewMemoryMarkers()
	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := m.Set(context.Background(), "k"); ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}

func TestMemoryStore_IsolatesSessions(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	created, _ := store.For("a").Set(ctx, "k")
	assert.True(t, created)
	created, _ = store.For("b").Set(ctx, "k")
	assert.True(t, created)
	created, _ = store.For("a").Set(ctx, "k")
	assert.False(t, created)
}

// Needs a reachable server: REDIS_URL=redis://localhost:6379/15 go test ./...
func TestRedisMarkers(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	client, err := redis.Connect(url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	m := NewRedisMarkers(client, uuid.NewString(), time.Minute)
	t.Cleanup(func() { _ = client.Del(ctx, m.key("viewed_post_9")) })

	created, err := m.Set(ctx, "viewed_post_9")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = m.Set(ctx, "viewed_post_9")
	require.NoError(t, err)
	assert.False(t, created)

	has, err := m.Has(ctx, "viewed_post_9")
	require.NoError(t, err)
	assert.True(t, has)
}

func TestMemoryStore_MarkersExpire(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore(WithTTL(time.Hour), WithClock(func() time.Time { return now }))
	m := store.For("sid")

	created, err := m.Set(ctx, "viewed_post_1")
	require.NoError(t, err)
	assert.True(t, created)

	now = now.Add(59 * time.Minute)
	created, _ = m.Set(ctx, "viewed_post_1")
	assert.False(t, created)
	has, _ := m.Has(ctx, "viewed_post_1")
	assert.True(t, has)

	now = now.Add(time.Minute)
	has, _ = m.Has(ctx, "viewed_post_1")
	assert.False(t, has)
	created, _ = m.Set(ctx, "viewed_post_1")
	assert.True(t, created)
}

func TestMemoryStore_SweepsExpired(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore(WithTTL(time.Hour), WithClock(func() time.Time { return now }))

	for i := 0; i < 100; i++ {
		_, _ = store.For(uuid.NewString()).Set(ctx, "viewed_post_1")
	}
	assert.Equal(t, 100, store.Len())

	now = now.Add(2 * time.Hour)
	_, _ = store.For("fresh").Set(ctx, "viewed_post_1")
	assert.Equal(t, 1, store.Len())
}
