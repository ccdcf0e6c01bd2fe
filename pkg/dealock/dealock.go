// Package dealock serializes negotiation turns per deal id. The state
// machine's round counter and phase flags are not safe under concurrent
// writers, so exactly one turn may be in flight per deal while unrelated
// deals proceed in parallel.
package dealock

import (
	"context"
	"sync"
)

// Locker acquires an exclusive per-deal lock for the duration of a turn.
type Locker interface {
	// Acquire blocks until the deal lock is held or ctx is done. The
	// returned release function must be called exactly once.
	Acquire(ctx context.Context, dealID string) (release func(), err error)
}

// KeyedMutex is the in-process Locker: one mutex per active deal id,
// garbage-collected when no turn holds or waits on it.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*dealLock
}

type dealLock struct {
	ch   chan struct{}
	refs int
}

// NewKeyedMutex creates an empty keyed mutex.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*dealLock)}
}

// Acquire blocks until the per-deal lock is held or ctx is done.
func (k *KeyedMutex) Acquire(ctx context.Context, dealID string) (func(), error) {
	k.mu.Lock()
	l, ok := k.locks[dealID]
	if !ok {
		l = &dealLock{ch: make(chan struct{}, 1)}
		k.locks[dealID] = l
	}
	l.refs++
	k.mu.Unlock()

	select {
	case l.ch <- struct{}{}:
		return func() {
			<-l.ch
			k.put(dealID, l)
		}, nil
	case <-ctx.Done():
		k.put(dealID, l)
		return nil, ctx.Err()
	}
}

func (k *KeyedMutex) put(dealID string, l *dealLock) {
	k.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(k.locks, dealID)
	}
	k.mu.Unlock()
}
