package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix     = "lock:"
	defaultTTL    = 30 * time.Second
	defaultRetry  = 50 * time.Millisecond
	releaseBudget = 2 * time.Second
)

// releaseScript deletes the key only while it still holds our token, so an
// expired lock taken over by another holder is left alone.
var releaseScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

type Redis struct {
	client redis.UniversalClient
	TTL    time.Duration
	Retry  time.Duration
}

func NewRedis(client redis.UniversalClient) *Redis {
	return &Redis{client: client, TTL: defaultTTL, Retry: defaultRetry}
}

// Lock polls SET NX PX until the key is acquired or ctx is done. The TTL
// bounds how long a crashed holder can block others.
func (r *Redis) Lock(ctx context.Context, key string) (Unlock, error) {
	key = keyPrefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(r.Retry)
	defer ticker.Stop()

	for {
		ok, err := r.client.SetNX(ctx, key, token, r.TTL).Result()
		if err != nil {
			return nil, fmt.Errorf("redis lock %s: %w", key, err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("redis lock %s: %w", key, ctx.Err())
		case <-ticker.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			rctx, cancel := context.WithTimeout(context.Background(), releaseBudget)
			defer cancel()
			_ = releaseScript.Run(rctx, r.client, []string{key}, token).Err()
		})
	}, nil
}
