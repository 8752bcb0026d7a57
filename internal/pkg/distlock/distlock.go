// Package distlock serialises work on a key across processes with Redis
// SET NX locks owned by a random token.
package distlock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotAcquired is returned when another owner holds the lock.
var ErrNotAcquired = errors.New("lock held by another owner")

var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

type Locker struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewLocker returns a Locker whose locks expire after ttl if never released.
func NewLocker(client *redis.Client, prefix string, ttl time.Duration) *Locker {
	return &Locker{client: client, prefix: prefix, ttl: ttl}
}

// Acquire takes the lock for key without waiting. The returned func releases
// it only if this caller still owns it.
func (l *Locker) Acquire(ctx context.Context, key string) (func(context.Context) error, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("generate lock token: %w", err)
	}
	token := hex.EncodeToString(b)
	redisKey := l.prefix + key

	ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", redisKey, err)
	}
	if !ok {
		return nil, ErrNotAcquired
	}

	release := func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{redisKey}, token).Err(); err != nil {
			return fmt.Errorf("release lock %s: %w", redisKey, err)
		}
		return nil
	}
	return release, nil
}
