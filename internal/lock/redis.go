package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "roombooking:lock:"

// ErrLockTimeout is returned when a key could not be acquired before the deadline.
var ErrLockTimeout = errors.New("lock: timed out waiting for lock")

var unlockScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a Locker shared by every instance connected to the same Redis.
// Each key expires after TTL so a crashed holder cannot block others forever.
type RedisLocker struct {
	client  goredis.UniversalClient
	ttl     time.Duration
	retry   time.Duration
	timeout time.Duration
	logger  *slog.Logger
}

var _ Locker = (*RedisLocker)(nil)

// NewRedisLocker builds a RedisLocker. Zero durations fall back to defaults.
func NewRedisLocker(client goredis.UniversalClient, ttl time.Duration, logger *slog.Logger) *RedisLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisLocker{
		client:  client,
		ttl:     ttl,
		retry:   25 * time.Millisecond,
		timeout: ttl,
		logger:  logger,
	}
}

// Lock acquires every key, retrying until ctx ends or the wait exceeds the TTL.
func (l *RedisLocker) Lock(ctx context.Context, keys ...string) (func(), error) {
	ordered := normalizeKeys(keys)
	token := uuid.NewString()
	held := make([]string, 0, len(ordered))

	release := func() {
		// Release with a fresh context so a cancelled request still frees its keys.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		for i := len(held) - 1; i >= 0; i-- {
			if err := unlockScript.Run(releaseCtx, l.client, []string{redisKeyPrefix + held[i]}, token).Err(); err != nil {
				l.logger.Warn("failed to release lock", "key", held[i], "error", err)
			}
		}
	}

	waitCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	for _, key := range ordered {
		if err := l.acquire(waitCtx, key, token); err != nil {
			release()
			if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
				return nil, fmt.Errorf("%w: %s", ErrLockTimeout, key)
			}
			return nil, err
		}
		held = append(held, key)
	}

	var once sync.Once
	return func() { once.Do(release) }, nil
}

func (l *RedisLocker) acquire(ctx context.Context, key, token string) error {
	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, redisKeyPrefix+key, token, l.ttl).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return fmt.Errorf("lock: acquire %s: %w", key, err)
		}
		if ok {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Dial connects to Redis at addr and verifies the connection with a ping.
func Dial(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("lock: redis ping %s: %w", addr, err)
	}
	return client, nil
}
