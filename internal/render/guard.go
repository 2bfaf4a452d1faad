package render

import (
	"context"
	"sync"
)

// watch runs kill once if ctx ends before the returned release is called.
// release and kill are mutually exclusive: once release returns, kill has
// either already finished or will never run. release is idempotent and must
// be deferred by the owner of the browser.
func watch(ctx context.Context, kill func()) (release func()) {
	var (
		mu       sync.Mutex
		released bool
	)
	done := make(chan struct{})
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		select {
		case <-ctx.Done():
			mu.Lock()
			defer mu.Unlock()
			if !released {
				kill()
			}
		case <-done:
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			mu.Lock()
			released = true
			mu.Unlock()
			close(done)
		})
		<-exited
	}
}
