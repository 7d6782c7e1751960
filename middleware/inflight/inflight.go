// Package inflight counts requests currently being served, for graceful
// shutdown draining.
package inflight

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// Tracker tracks the number of requests currently being served.
type Tracker struct {
	mu    sync.RWMutex
	count int64
}

// Middleware counts a request as in flight for the duration of its handling.
func (t *Tracker) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.increment()
		defer t.decrement()
		next.ServeHTTP(w, r)
	})
}

func (t *Tracker) increment() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.count++
}

func (t *Tracker) decrement() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.count--
}

// Count returns the current in-flight count.
func (t *Tracker) Count() int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.count
}

// Wait blocks until the in-flight count reaches zero or ctx is cancelled.
// checkInterval is how often to re-check the count.
func (t *Tracker) Wait(ctx context.Context, checkInterval time.Duration) error {
	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()
	for {
		if t.Count() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
