// Package lock serialises pipeline runs per key.
package lock

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/vkquanghd/gold-ai-advisor/internal/apperrors"
)

// Locker hands out exclusive, non-blocking locks by key. Acquire returns
// apperrors.ErrPipelineBusy when the key is already held.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// LocalLocker locks within one process.
type LocalLocker struct {
	mu   sync.Mutex
	sems map[string]*semaphore.Weighted
}

// NewLocalLocker creates an empty LocalLocker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{sems: map[string]*semaphore.Weighted{}}
}

// Acquire implements Locker.
func (l *LocalLocker) Acquire(_ context.Context, key string) (func(), error) {
	l.mu.Lock()
	sem, ok := l.sems[key]
	if !ok {
		sem = semaphore.NewWeighted(1)
		l.sems[key] = sem
	}
	l.mu.Unlock()

	if !sem.TryAcquire(1) {
		return nil, apperrors.ErrPipelineBusy
	}
	var once sync.Once
	return func() { once.Do(func() { sem.Release(1) }) }, nil
}
