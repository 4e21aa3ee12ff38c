package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultLockTTL = 60 * time.Second

// releaseScript deletes the lock only when it still carries the caller's token,
// so a holder whose lock expired cannot free the lock of the next holder.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// SubmitGuard is a Redis lock that keeps one checkout submission in flight per
// key. The lock expires after ttl so a crashed request cannot hold it forever;
// ttl must outlast the slowest submission.
type SubmitGuard struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSubmitGuard creates a SubmitGuard wrapping the given Redis client.
func NewSubmitGuard(client *redis.Client, ttl time.Duration) *SubmitGuard {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &SubmitGuard{client: client, ttl: ttl}
}

// Acquire stores a fresh token under key. ok is false when the key is already held.
func (g *SubmitGuard) Acquire(ctx context.Context, key string) (string, bool, error) {
	token := uuid.NewString()
	ok, err := g.client.SetNX(ctx, g.key(key), token, g.ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("submit guard acquire: %w", err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// Release frees key if token still holds it. A lock that expired and was taken
// by another request is left alone.
func (g *SubmitGuard) Release(ctx context.Context, key, token string) error {
	if err := releaseScript.Run(ctx, g.client, []string{g.key(key)}, token).Err(); err != nil {
		return fmt.Errorf("submit guard release: %w", err)
	}
	return nil
}

func (g *SubmitGuard) key(key string) string {
	return "lock:" + key
}
