package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrLockNotAcquired = errors.New("mentor booking lock not acquired")
)

// Locker guards the booking critical section per mentor, so two candidates
// racing for overlapping slots of the same mentor serialize before the
// store constraint is ever hit.
type Locker interface {
	WithMentorLock(ctx context.Context, mentorID uuid.UUID, fn func(ctx context.Context) error) error
}

type redisMentorLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisMentorLocker creates a locker that uses a per mentor Redis key
func NewRedisMentorLocker(client *redis.Client, ttl time.Duration) Locker {
	return &redisMentorLocker{
		client: client,
		ttl:    ttl,
	}
}

func (l *redisMentorLocker) WithMentorLock(ctx context.Context, mentorID uuid.UUID, fn func(ctx context.Context) error) error {
	key := fmt.Sprintf("lock:mentor:%s", mentorID.String())
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire mentor lock: %w", err)
	}
	if !ok {
		return ErrLockNotAcquired
	}

	defer func() {
		_ = l.release(ctx, key, token)
	}()

	ctxWithTimeout, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	return fn(ctxWithTimeout)
}

var unlockScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

func (l *redisMentorLocker) release(ctx context.Context, key, token string) error {
	_, err := unlockScript.Run(ctx, l.client, []string{key}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release mentor lock: %w", err)
	}
	return nil
}
