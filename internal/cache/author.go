package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"codegram-backend/internal/domain"
	"codegram-backend/pkg/logger"

	goredis "github.com/redis/go-redis/v9"
)

// AuthorCache maps author ids to profile documents. A miss returns (nil, false).
type AuthorCache interface {
	Get(ctx context.Context, authorID string) (*domain.User, bool)
	Set(ctx context.Context, author *domain.User)
	Invalidate(ctx context.Context, authorID string)
}

// ========== IN-MEMORY ==========

type memoryEntry struct {
	author  domain.User
	expires time.Time
}

// Memory is a process-local cache. A zero TTL keeps entries until invalidated.
type Memory struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (m *Memory) Get(_ context.Context, authorID string) (*domain.User, bool) {
	m.mu.RLock()
	entry, ok := m.entries[authorID]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if m.expired(entry) {
		m.evictExpired(authorID)
		return nil, false
	}
	author := entry.author
	return &author, true
}

func (m *Memory) expired(entry memoryEntry) bool {
	return !entry.expires.IsZero() && !m.now().Before(entry.expires)
}

// evictExpired re-checks under the write lock so an entry refreshed by a
// concurrent Set survives.
func (m *Memory) evictExpired(authorID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry, ok := m.entries[authorID]; ok && m.expired(entry) {
		delete(m.entries, authorID)
	}
}

func (m *Memory) Set(_ context.Context, author *domain.User) {
	if author == nil {
		return
	}
	entry := memoryEntry{author: *author}
	if m.ttl > 0 {
		entry.expires = m.now().Add(m.ttl)
	}
	m.mu.Lock()
	m.entries[author.ID] = entry
	m.mu.Unlock()
}

func (m *Memory) Invalidate(_ context.Context, authorID string) {
	m.mu.Lock()
	delete(m.entries, authorID)
	m.mu.Unlock()
}

// ========== REDIS ==========

const redisKeyPrefix = "author:"

// Redis shares the cache between instances. Redis failures degrade to misses
// and are logged.
type Redis struct {
	rdb *goredis.Client
	ttl time.Duration
	log *logger.Logger
}

func NewRedis(rdb *goredis.Client, ttl time.Duration, log *logger.Logger) *Redis {
	return &Redis{rdb: rdb, ttl: ttl, log: log.With("component", "author_cache")}
}

func (r *Redis) Get(ctx context.Context, authorID string) (*domain.User, bool) {
	raw, err := r.rdb.Get(ctx, redisKeyPrefix+authorID).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false
	}
	if err != nil {
		r.log.Warn("Author cache read failed", "author_id", authorID, "error", err)
		return nil, false
	}
	var author domain.User
	if err := json.Unmarshal(raw, &author); err != nil {
		r.log.Warn("Author cache entry unreadable", "author_id", authorID, "error", err)
		return nil, false
	}
	return &author, true
}

func (r *Redis) Set(ctx context.Context, author *domain.User) {
	if author == nil {
		return
	}
	raw, err := json.Marshal(author)
	if err != nil {
		r.log.Warn("Author cache encode failed", "author_id", author.ID, "error", err)
		return
	}
	if err := r.rdb.Set(ctx, redisKeyPrefix+author.ID, raw, r.ttl).Err(); err != nil {
		r.log.Warn("Author cache write failed", "author_id", author.ID, "error", err)
	}
}

func (r *Redis) Invalidate(ctx context.Context, authorID string) {
	if err := r.rdb.Del(ctx, redisKeyPrefix+authorID).Err(); err != nil {
		r.log.Warn("Author cache invalidate failed", "author_id", authorID, "error", err)
	}
}
