// Package cache holds computed view-models between ledger mutations.
package cache

import (
	"context"
	"log/slog"
	"time"
)

// Cache is a string keyed store of computed values.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	// DeletePrefix drops every key starting with prefix and reports how many went.
	DeletePrefix(prefix string) int
}

// Cleaner is implemented by caches that can drop expired entries.
type Cleaner interface {
	CleanExpired() int
	Size() int
}

// Janitor periodically removes expired entries from registered caches.
type Janitor struct {
	caches []Cleaner
	stop   chan struct{}
	done   chan struct{}
}

func NewJanitor(caches ...Cleaner) *Janitor {
	return &Janitor{
		caches: caches,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start runs the cleanup loop until Stop is called or ctx is done.
func (j *Janitor) Start(ctx context.Context, interval time.Duration) {
	go j.run(ctx, interval)
}

func (j *Janitor) run(ctx context.Context, interval time.Duration) {
	defer close(j.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if removed, remaining := j.sweep(); removed > 0 {
				slog.Debug("cache cleanup", "removed", removed, "remaining", remaining)
			}
		case <-j.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// sweep cleans every cache once and reports the entries removed and left.
func (j *Janitor) sweep() (removed, remaining int) {
	for _, c := range j.caches {
		removed += c.CleanExpired()
		remaining += c.Size()
	}

	return removed, remaining
}

// Stop ends the cleanup loop and waits for it to exit.
func (j *Janitor) Stop() {
	select {
	case <-j.stop:
	default:
		close(j.stop)
	}

	<-j.done
}
