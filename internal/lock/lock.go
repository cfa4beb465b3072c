// Package lock provides keyed mutual exclusion for checkout: an in-process
// implementation and a Redis one for multi-instance deployments.
package lock

import (
	"context"
	"sync"
)

// Unlock releases a held lock. Calling it more than once is a no-op.
type Unlock func()

type entry struct {
	ch   chan struct{}
	refs int
}

// Local is a keyed mutex whose Lock honours context cancellation.
type Local struct {
	mu    sync.Mutex
	locks map[string]*entry
}

func NewLocal() *Local {
	return &Local{locks: make(map[string]*entry)}
}

func (l *Local) Lock(ctx context.Context, key string) (Unlock, error) {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*entry)
	}
	e, ok := l.locks[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		l.locks[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			l.release(key, e)
		})
	}, nil
}

func (l *Local) release(key string, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.locks, key)
	}
}
