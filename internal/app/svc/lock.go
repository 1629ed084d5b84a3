package svc

import (
	"context"
	"github.com/maroux/heroku-deployer/internal/app"
	"sync"
)

// NewMemoryLock creates a new instance of the in-process locker.
func NewMemoryLock() app.Locker {
	return &MemoryLock{held: make(map[string]chan struct{})}
}

// MemoryLock is a keyed mutex for the invocations of one process.
type MemoryLock struct {
	mu   sync.Mutex
	held map[string]chan struct{}
}

// Lock blocks until the key is free or the context is done.
func (l *MemoryLock) Lock(ctx context.Context, key string) (func(), error) {
	for {
		l.mu.Lock()
		released, busy := l.held[key]
		if !busy {
			ch := make(chan struct{})
			l.held[key] = ch
			l.mu.Unlock()
			var once sync.Once
			return func() {
				once.Do(func() {
					l.mu.Lock()
					delete(l.held, key)
					l.mu.Unlock()
					close(ch)
				})
			}, nil
		}
		l.mu.Unlock()
		select {
		case <-released:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
