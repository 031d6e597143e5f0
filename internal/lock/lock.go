// Package lock serializes booking mutations that touch the same user, classroom day,
// or booking. Keys are always acquired in sorted order so that two callers asking for
// overlapping key sets cannot deadlock.
package lock

import (
	"context"
	"slices"
	"sync"
)

// Locker acquires a set of named locks. The returned function releases all of them.
type Locker interface {
	Lock(ctx context.Context, keys ...string) (func(), error)
}

// KeyedMutex is an in-process Locker.
type KeyedMutex struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	ch   chan struct{}
	refs int
}

var _ Locker = (*KeyedMutex)(nil)

// NewKeyedMutex returns an empty KeyedMutex.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{entries: make(map[string]*entry)}
}

// Lock blocks until every key is held or ctx is done.
func (m *KeyedMutex) Lock(ctx context.Context, keys ...string) (func(), error) {
	ordered := normalizeKeys(keys)
	held := make([]string, 0, len(ordered))

	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			m.release(held[i])
		}
	}

	for _, key := range ordered {
		if err := m.acquire(ctx, key); err != nil {
			release()
			return nil, err
		}
		held = append(held, key)
	}

	var once sync.Once
	return func() { once.Do(release) }, nil
}

func (m *KeyedMutex) acquire(ctx context.Context, key string) error {
	m.mu.Lock()
	e, ok := m.entries[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		m.entries[key] = e
	}
	e.refs++
	m.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		m.unref(key, e)
		return ctx.Err()
	}
}

func (m *KeyedMutex) release(key string) {
	m.mu.Lock()
	e := m.entries[key]
	m.mu.Unlock()
	if e == nil {
		return
	}
	<-e.ch
	m.unref(key, e)
}

func (m *KeyedMutex) unref(key string, e *entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(m.entries, key)
	}
}

func normalizeKeys(keys []string) []string {
	ordered := make([]string, 0, len(keys))
	for _, key := range keys {
		if key != "" {
			ordered = append(ordered, key)
		}
	}
	slices.Sort(ordered)
	return slices.Compact(ordered)
}
