package productsync

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"catalogsync/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLocker(t *testing.T) {
	l := NewMemoryLocker()
	ctx := context.Background()

	release, ok, err := l.TryLock(ctx, "A", 0)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, _ = l.TryLock(ctx, "A", 0)
	assert.False(t, ok)

	releaseB, ok, _ := l.TryLock(ctx, "B", 0)
	assert.True(t, ok)
	releaseB()

	release()
	release()

	again, ok, _ := l.TryLock(ctx, "A", 0)
	assert.True(t, ok)
	again()
}

func TestMemoryLocker_SingleWinner(t *testing.T) {
	l := NewMemoryLocker()
	var wins int32
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, ok, _ := l.TryLock(context.Background(), "A", 0); ok {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), wins)
}

func TestRedisLocker(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}

	ctx := context.Background()
	l, client, err := NewRedisLockerFromURL(ctx, url, time.Minute)
	require.NoError(t, err)
	defer client.Close()

	key := "test-" + time.Now().Format("150405.000000")
	release, ok, err := l.TryLock(ctx, key, 90*time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	ttl, err := client.PTTL(ctx, redisLockPrefix+key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Hour)

	_, ok, err = l.TryLock(ctx, key, 0)
	require.NoError(t, err)
	assert.False(t, ok)

	release()

	again, ok, err := l.TryLock(ctx, key, 0)
	require.NoError(t, err)
	assert.True(t, ok)
	ttl, err = client.PTTL(ctx, redisLockPrefix+key).Result()
	require.NoError(t, err)
	assert.LessOrEqual(t, ttl, time.Minute)
	again()
}

type recordingLocker struct {
	ttls []time.Duration
}

func (r *recordingLocker) TryLock(_ context.Context, _ string, ttl time.Duration) (func(), bool, error) {
	r.ttls = append(r.ttls, ttl)
	return func() {}, true, nil
}

func TestSync_LockOutlastsSlowestAttempt(t *testing.T) {
	cfg := testSettings()
	cfg.RetryAttempts = config.MaxRetryAttempts
	cfg.TimeoutSeconds = config.MaxTimeoutSeconds
	cfg.TestMode = true
	item := testItem("TEST-001")
	h := newHarness(cfg, item)
	locker := &recordingLocker{}
	h.svc.locker = locker

	require.True(t, h.svc.Sync(context.Background(), item, TriggerManual).Success())

	require.Len(t, locker.ttls, 1)
	assert.Greater(t, locker.ttls[0], cfg.SyncBudget())
	assert.Greater(t, locker.ttls[0], DefaultLockTTL)
}
