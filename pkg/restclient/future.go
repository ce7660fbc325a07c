package restclient

import (
	"context"
	"sync"
)

// Future is the one-shot result of a streaming request. It transitions state
// at most once; later resolve/reject attempts are no-ops, which tolerates the
// race between "chunk completes the consumer" and "transport reports abort".
type Future struct {
	once  sync.Once
	done  chan struct{}
	value any
	err   error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func (f *Future) resolve(v any) {
	f.once.Do(func() {
		f.value = v
		close(f.done)
	})
}

func (f *Future) reject(err error) {
	f.once.Do(func() {
		f.err = err
		close(f.done)
	})
}

// Wait blocks until the future settles or ctx is done.
func (f *Future) Wait(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Done returns a channel closed when the future has settled.
func (f *Future) Done() <-chan struct{} { return f.done }
