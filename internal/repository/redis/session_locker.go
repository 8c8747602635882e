package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-application-form/internal/domain"
	"go-application-form/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const lockPrefix = "form:lock:"

const lockRetryInterval = 25 * time.Millisecond

// Only the holder's token may delete the key, so an expired lock that was
// taken over by another instance is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type sessionLocker struct {
	client *redis.Client
	ttl    time.Duration
	wait   time.Duration
}

// NewSessionLocker takes per-session locks with SET NX PX. ttl bounds how long
// a crashed holder can keep the lock; wait bounds how long Lock retries.
func NewSessionLocker(client *redis.Client, ttl, wait time.Duration) domain.SessionLocker {
	return &sessionLocker{client: client, ttl: ttl, wait: wait}
}

func lockKey(id string) string {
	return lockPrefix + id
}

func (l *sessionLocker) Lock(ctx context.Context, id string) (func(), error) {
	key := lockKey(id)
	token := uuid.NewString()

	waitCtx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	for {
		ok, err := l.client.SetNX(waitCtx, key, token, l.ttl).Result()
		if err != nil {
			switch {
			case ctx.Err() != nil:
				err = ctx.Err()
			case waitCtx.Err() != nil:
				err = domain.ErrSessionBusy
			}
			return nil, fmt.Errorf("lock form session %s: %w", id, err)
		}
		if ok {
			return func() { l.release(key, token) }, nil
		}

		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return nil, fmt.Errorf("lock form session %s: %w", id, ctx.Err())
			}
			return nil, fmt.Errorf("lock form session %s: %w", id, domain.ErrSessionBusy)
		case <-time.After(lockRetryInterval):
		}
	}
}

// release runs on its own context so a cancelled request still frees the lock
func (l *sessionLocker) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := releaseScript.Run(ctx, l.client, []string{key}, token).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		logger.Log.Warn("Failed to release form session lock", "key", key, "error", err)
	}
}
