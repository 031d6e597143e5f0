package lock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func newRedisLocker(t *testing.T) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)
	client, err := Dial(context.Background(), server.Addr(), "", 0)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	locker := NewRedisLocker(client, 2*time.Second, nil)
	locker.retry = 5 * time.Millisecond
	return locker, server
}

func exerciseMutualExclusion(t *testing.T, locker Locker) {
	t.Helper()

	var (
		inside  atomic.Int32
		maxSeen atomic.Int32
		wg      sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		keys := []string{"user:1", "classroom:a:2024-01-02"}
		if i%2 == 1 {
			keys = []string{keys[1], keys[0]}
		}
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(context.Background(), keys...)
			if err != nil {
				t.Errorf("Lock failed: %v", err)
				return
			}
			n := inside.Add(1)
			if n > maxSeen.Load() {
				maxSeen.Store(n)
			}
			time.Sleep(2 * time.Millisecond)
			inside.Add(-1)
			unlock()
		}()
	}
	wg.Wait()

	if maxSeen.Load() != 1 {
		t.Fatalf("expected exclusive access, saw %d concurrent holders", maxSeen.Load())
	}
}

func TestKeyedMutex(t *testing.T) {
	t.Run("serializes holders of overlapping key sets", func(t *testing.T) {
		exerciseMutualExclusion(t, NewKeyedMutex())
	})

	t.Run("independent keys do not block", func(t *testing.T) {
		m := NewKeyedMutex()
		unlockA, err := m.Lock(context.Background(), "a")
		if err != nil {
			t.Fatalf("Lock a failed: %v", err)
		}
		defer unlockA()

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		unlockB, err := m.Lock(ctx, "b")
		if err != nil {
			t.Fatalf("Lock b failed: %v", err)
		}
		unlockB()
	})

	t.Run("honours context cancellation", func(t *testing.T) {
		m := NewKeyedMutex()
		unlock, err := m.Lock(context.Background(), "a")
		if err != nil {
			t.Fatalf("Lock failed: %v", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		if _, err := m.Lock(ctx, "a"); !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("expected deadline exceeded, got %v", err)
		}

		unlock()
		unlock()
		if len(m.entries) != 0 {
			t.Fatalf("expected entries to be released, got %d", len(m.entries))
		}
	})
}

func TestRedisLocker(t *testing.T) {
	t.Run("serializes holders of overlapping key sets", func(t *testing.T) {
		locker, _ := newRedisLocker(t)
		exerciseMutualExclusion(t, locker)
	})

	t.Run("release removes keys", func(t *testing.T) {
		locker, server := newRedisLocker(t)
		unlock, err := locker.Lock(context.Background(), "booking:1")
		if err != nil {
			t.Fatalf("Lock failed: %v", err)
		}
		if !server.Exists(redisKeyPrefix + "booking:1") {
			t.Fatalf("expected lock key to exist")
		}
		unlock()
		if server.Exists(redisKeyPrefix + "booking:1") {
			t.Fatalf("expected lock key to be deleted")
		}
	})

	t.Run("times out while another holder keeps the key", func(t *testing.T) {
		locker, _ := newRedisLocker(t)
		locker.timeout = 30 * time.Millisecond

		unlock, err := locker.Lock(context.Background(), "booking:1")
		if err != nil {
			t.Fatalf("Lock failed: %v", err)
		}
		defer unlock()

		if _, err := locker.Lock(context.Background(), "booking:1"); !errors.Is(err, ErrLockTimeout) {
			t.Fatalf("expected ErrLockTimeout, got %v", err)
		}
	})

	t.Run("does not delete a key owned by someone else", func(t *testing.T) {
		locker, server := newRedisLocker(t)
		unlock, err := locker.Lock(context.Background(), "booking:1")
		if err != nil {
			t.Fatalf("Lock failed: %v", err)
		}
		if err := server.Set(redisKeyPrefix+"booking:1", "other-token"); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		unlock()
		if got, _ := server.Get(redisKeyPrefix + "booking:1"); got != "other-token" {
			t.Fatalf("expected foreign lock to survive, got %q", got)
		}
	})

	t.Run("unlock is safe to call concurrently", func(t *testing.T) {
		locker, server := newRedisLocker(t)
		unlock, err := locker.Lock(context.Background(), "booking:1", "classroom:a:2024-01-02")
		if err != nil {
			t.Fatalf("Lock failed: %v", err)
		}

		var wg sync.WaitGroup
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				unlock()
			}()
		}
		wg.Wait()

		if server.Exists(redisKeyPrefix+"booking:1") || server.Exists(redisKeyPrefix+"classroom:a:2024-01-02") {
			t.Fatalf("expected all keys to be released")
		}

		next, err := locker.Lock(context.Background(), "booking:1")
		if err != nil {
			t.Fatalf("Lock after release failed: %v", err)
		}
		defer next()
		unlock()
		if !server.Exists(redisKeyPrefix + "booking:1") {
			t.Fatalf("expected a stale unlock to leave the new holder's key")
		}
	})
}
