package concurrency

import (
	"context"
	"sync"
)

// Tracker supervises a dynamic set of goroutines so they can be awaited
// together on shutdown. Spawned functions inherit panic recovery from SafeGo.
type Tracker struct {
	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
}

// Go spawns fn under the tracker. It returns false when the tracker is
// already closed and the function was not started.
func (t *Tracker) Go(ctx context.Context, fn func(ctx context.Context)) bool {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return false
	}
	t.wg.Add(1)
	t.mu.Unlock()

	SafeGo(ctx, func() {
		defer t.wg.Done()
		fn(ctx)
	})
	return true
}

// Close stops the tracker from accepting new goroutines.
func (t *Tracker) Close() {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
}

// Wait blocks until every tracked goroutine has finished. Callers should
// Close first so the set cannot grow while waiting.
func (t *Tracker) Wait() {
	t.wg.Wait()
}
