package lock

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type locker interface {
	Lock(ctx context.Context, key string) (Unlock, error)
}

func assertMutualExclusion(t *testing.T, l locker, key string) {
	t.Helper()

	var inside, maxInside, done int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), key)
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt32(&inside, -1)
			atomic.AddInt32(&done, 1)
			unlock()
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, maxInside)
	assert.EqualValues(t, 8, done)
}

func TestLocal_MutualExclusion(t *testing.T) {
	l := NewLocal()
	assertMutualExclusion(t, l, "order:1")
	assert.Zero(t, l.size())
}

func TestLocal_IndependentKeys(t *testing.T) {
	l := NewLocal()
	unlockA, err := l.Lock(context.Background(), "order:1")
	require.NoError(t, err)
	defer unlockA()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	unlockB, err := l.Lock(ctx, "order:2")
	require.NoError(t, err)
	unlockB()
}

func TestLocal_ContextCancelWhileWaiting(t *testing.T) {
	l := NewLocal()
	unlock, err := l.Lock(context.Background(), "order:1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "order:1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	unlock()
	assert.Zero(t, l.size())

	again, err := l.Lock(context.Background(), "order:1")
	require.NoError(t, err)
	again()
}

func (l *Local) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

func redisClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis not available: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedis_MutualExclusion(t *testing.T) {
	l := NewRedis(redisClient(t))
	l.Retry = 5 * time.Millisecond
	assertMutualExclusion(t, l, "test:"+uuid.NewString())
}

func TestRedis_ReleaseKeepsForeignToken(t *testing.T) {
	client := redisClient(t)
	l := NewRedis(client)
	l.TTL = 50 * time.Millisecond
	key := "test:" + uuid.NewString()

	unlock, err := l.Lock(context.Background(), key)
	require.NoError(t, err)

	// let it expire and hand the key to someone else
	time.Sleep(80 * time.Millisecond)
	require.NoError(t, client.Set(context.Background(), keyPrefix+key, "other", time.Minute).Err())

	unlock()
	v, err := client.Get(context.Background(), keyPrefix+key).Result()
	require.NoError(t, err)
	assert.Equal(t, "other", v)
	client.Del(context.Background(), keyPrefix+key)
}

func TestRedis_ContextTimeout(t *testing.T) {
	l := NewRedis(redisClient(t))
	key := "test:" + uuid.NewString()

	unlock, err := l.Lock(context.Background(), key)
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, key)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
