package redisclient

import (
	"context"
	"sync"
	"time"
)

// LocalLocker is the single-process Locker used when Redis is not configured.
type LocalLocker struct {
	mu     sync.Mutex
	held   map[string]struct{}
	maxRun time.Duration
}

func NewLocalLocker(maxRun time.Duration) *LocalLocker {
	return &LocalLocker{held: make(map[string]struct{}), maxRun: maxRun}
}

func (l *LocalLocker) WithSessionLock(ctx context.Context, sessionID string, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	if _, busy := l.held[sessionID]; busy {
		l.mu.Unlock()
		return ErrLockNotAcquired
	}
	l.held[sessionID] = struct{}{}
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		delete(l.held, sessionID)
		l.mu.Unlock()
	}()

	if l.maxRun > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.maxRun)
		defer cancel()
	}
	return fn(ctx)
}
