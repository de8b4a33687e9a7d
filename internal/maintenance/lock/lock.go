// Package lock provides mutual exclusion for maintenance jobs, either inside
// a single process or across replicas through Redis.
package lock

import (
	"context"
	"sync"
	"time"
)

// Locker acquires named, expiring locks. TryLock never blocks waiting for a
// holder: acquired is false when someone else holds key. The returned unlock
// func is non-nil only when acquired is true.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (unlock func(), acquired bool, err error)
}

// Noop grants every lock.
type Noop struct{}

func (Noop) TryLock(context.Context, string, time.Duration) (func(), bool, error) {
	return func() {}, true, nil
}

// Local serializes jobs within one process. Expired entries are treated as
// free so a crashed holder cannot wedge a key forever.
type Local struct {
	mu   sync.Mutex
	held map[string]localEntry
	gen  uint64
	now  func() time.Time
}

type localEntry struct {
	gen     uint64
	expires time.Time
}

func NewLocal() *Local {
	return &Local{held: make(map[string]localEntry), now: time.Now}
}

func (l *Local) TryLock(_ context.Context, key string, ttl time.Duration) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if e, ok := l.held[key]; ok && now.Before(e.expires) {
		return nil, false, nil
	}

	l.gen++
	gen := l.gen
	l.held[key] = localEntry{gen: gen, expires: now.Add(ttl)}

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if e, ok := l.held[key]; ok && e.gen == gen {
			delete(l.held, key)
		}
	}, true, nil
}
