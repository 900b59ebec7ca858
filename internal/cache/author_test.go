package cache

import (
	"context"
	"testing"
	"time"

	"codegram-backend/internal/domain"
	"codegram-backend/pkg/logger"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMemory_TTL(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory(time.Minute)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	m.Set(ctx, &domain.User{ID: "a1", Username: "author"})

	got, ok := m.Get(ctx, "a1")
	require.True(t, ok)
	assert.Equal(t, "author", got.Username)

	now = now.Add(time.Minute)
	_, ok = m.Get(ctx, "a1")
	assert.False(t, ok)
}

func TestMemory_ZeroTTLNeverExpires(t *testing.T) {
	now := time.Now()
	m := NewMemory(0)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	m.Set(ctx, &domain.User{ID: "a1"})
	now = now.Add(24 * time.Hour)

	_, ok := m.Get(ctx, "a1")
	assert.True(t, ok)
}

func TestMemory_InvalidateAndCopy(t *testing.T) {
	m := NewMemory(0)
	ctx := context.Background()

	m.Set(ctx, nil)
	m.Set(ctx, &domain.User{ID: "a1", Username: "author"})

	got, ok := m.Get(ctx, "a1")
	require.True(t, ok)
	got.Username = "changed"
	again, _ := m.Get(ctx, "a1")
	assert.Equal(t, "author", again.Username)

	m.Invalidate(ctx, "a1")
	_, ok = m.Get(ctx, "a1")
	assert.False(t, ok)
}

func TestMemory_EvictKeepsRefreshedEntry(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory(time.Minute)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	m.Set(ctx, &domain.User{ID: "a1", Username: "old"})
	now = now.Add(2 * time.Minute)

	// a Set landing between the expired read and the eviction
	m.Set(ctx, &domain.User{ID: "a1", Username: "fresh"})
	m.evictExpired("a1")

	got, ok := m.Get(ctx, "a1")
	require.True(t, ok)
	assert.Equal(t, "fresh", got.Username)

	now = now.Add(2 * time.Minute)
	m.evictExpired("a1")
	m.mu.RLock()
	_, present := m.entries["a1"]
	m.mu.RUnlock()
	assert.False(t, present)
}

func TestRedis_FailuresAreLoggedAsMisses(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := &logger.Logger{SugaredLogger: zap.New(core).Sugar()}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()
	r := NewRedis(rdb, time.Minute, log)
	ctx := context.Background()

	r.Set(ctx, &domain.User{ID: "a1"})
	_, ok := r.Get(ctx, "a1")
	r.Invalidate(ctx, "a1")

	assert.False(t, ok)
	assert.Len(t, logs.FilterMessage("Author cache write failed").All(), 1)
	assert.Len(t, logs.FilterMessage("Author cache read failed").All(), 1)
	assert.Len(t, logs.FilterMessage("Author cache invalidate failed").All(), 1)
	for _, entry := range logs.All() {
		assert.Equal(t, zapcore.WarnLevel, entry.Level)
	}
}
