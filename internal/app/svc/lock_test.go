package svc

import (
	"context"
	"testing"
	"time"
)

func TestMemoryLockExcludes(t *testing.T) {
	l := NewMemoryLock()
	unlock, err := l.Lock(context.Background(), "repos/1")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err = l.Lock(ctx, "repos/1"); err == nil {
		t.Fatalf("expected the second lock to wait until the context is done")
	}

	other, err := l.Lock(context.Background(), "repos/2")
	if err != nil {
		t.Fatalf("expected another key to be free, got %v", err)
	}
	other()

	acquired := make(chan func())
	go func() {
		u, err := l.Lock(context.Background(), "repos/1")
		if err != nil {
			close(acquired)
			return
		}
		acquired <- u
	}()
	unlock()
	unlock()

	select {
	case u, ok := <-acquired:
		if !ok {
			t.Fatalf("expected the waiter to acquire the lock")
		}
		u()
	case <-time.After(time.Second):
		t.Fatalf("the waiter is not woken up")
	}
}
