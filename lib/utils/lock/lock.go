package lock

import (
	"context"
	"sync"
	"time"
)

// held tracks the keys currently locked across the process.
var held sync.Map

// WithDelay runs fn while holding an in-process lock on key, polling for up
// to wait before giving up. The return value reports whether the lock was
// acquired; err is whatever fn returned.
func WithDelay(ctx context.Context, key string, wait time.Duration, fn func() error) (acquired bool, err error) {
	deadline := time.After(wait)
	for {
		if _, busy := held.LoadOrStore(key, struct{}{}); !busy {
			defer held.Delete(key)
			return true, fn()
		}
		select {
		case <-deadline:
			return false, nil
		case <-ctx.Done():
			return false, nil
		default:
			time.Sleep(50 * time.Millisecond)
		}
	}
}
