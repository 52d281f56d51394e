package resilience

import (
	"context"
	"fmt"
	"sync"
)

// SingleFlight collapses concurrent calls sharing a key into one execution.
// The zero value is ready to use.
type SingleFlight[T any] struct {
	mu    sync.Mutex
	calls map[string]*call[T]
}

type call[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// PanicError is handed to every caller joined on an execution that panicked.
type PanicError struct {
	Key   string
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("singleflight %q panicked: %v", e.Key, e.Value)
}

// Do runs fn once per in-flight key. shared reports whether the caller joined another
// caller's execution. fn runs detached from ctx cancellation but keeps its values; each
// caller stops waiting when its own ctx is done without affecting the others. A panic
// in fn reaches every caller as *PanicError.
func (g *SingleFlight[T]) Do(ctx context.Context, key string, fn func(context.Context) (T, error)) (val T, err error, shared bool) {
	c, leader := g.join(key)
	if leader {
		detached := context.WithoutCancel(ctx)
		go g.run(key, c, func() (T, error) { return fn(detached) })
	}

	select {
	case <-c.done:
		return c.val, c.err, !leader
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err(), !leader
	}
}

func (g *SingleFlight[T]) join(key string) (*call[T], bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.calls == nil {
		g.calls = make(map[string]*call[T])
	}
	if c, ok := g.calls[key]; ok {
		return c, false
	}
	c := &call[T]{done: make(chan struct{})}
	g.calls[key] = c
	return c, true
}

func (g *SingleFlight[T]) run(key string, c *call[T], fn func() (T, error)) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			c.val = zero
			c.err = &PanicError{Key: key, Value: r}
		}
		g.mu.Lock()
		delete(g.calls, key)
		g.mu.Unlock()
		close(c.done)
	}()

	c.val, c.err = fn()
}
