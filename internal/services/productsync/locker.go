package productsync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"catalogsync/internal/config"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Locker gives one sync at a time per item. TryLock never waits: acquired
// is false when another holder has the key. ttl bounds how long a lock
// outlives a crashed holder; lockers without expiry ignore it.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(), acquired bool, err error)
}

// MemoryLocker serialises syncs within one process.
type MemoryLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: make(map[string]struct{})}
}

func (l *MemoryLocker) TryLock(_ context.Context, key string, _ time.Duration) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.held[key]; ok {
		return nil, false, nil
	}
	l.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
	}, true, nil
}

const (
	DefaultLockTTL  = 5 * time.Minute
	redisLockPrefix = "catalogsync:lock:item:"

	// lockMargin covers the store and log writes around the remote call.
	lockMargin = time.Minute
)

// lockTTL outlasts the slowest sync the settings allow.
func lockTTL(cfg config.Integration) time.Duration {
	return cfg.SyncBudget() + lockMargin
}

// Deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker serialises syncs across API and worker processes. Locks expire
// so a crashed holder cannot block an item forever; ttl is used when a
// caller passes none.
type RedisLocker struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisLocker(client redis.Cmdable, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &RedisLocker{client: client, ttl: ttl}
}

// NewRedisLockerFromURL parses a redis:// URL and checks the server is reachable.
func NewRedisLockerFromURL(ctx context.Context, redisURL string, ttl time.Duration) (*RedisLocker, *redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return NewRedisLocker(client, ttl), client, nil
}

func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	if ttl <= 0 {
		ttl = l.ttl
	}
	redisKey := redisLockPrefix + key
	token := uuid.New().String()

	ok, err := l.client.SetNX(ctx, redisKey, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to lock %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// Released with a fresh context so a cancelled sync still unlocks.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = releaseScript.Run(ctx, l.client, []string{redisKey}, token).Err()
		})
	}, true, nil
}
