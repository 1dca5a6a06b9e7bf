package scheduler

import (
	"context"
	"errors"
	"sync"
)

// Latest runs fetches so that only the most recent one delivers. Starting a
// run cancels the previous one; a superseded or cancelled result is dropped
// without surfacing an error.
type Latest[T any] struct {
	onError func(error)

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
	done   chan struct{}
}

// NewLatest creates a runner. onError receives unexpected fetch errors; the
// run then delivers the zero value so callers degrade to an empty result.
func NewLatest[T any](onError func(error)) *Latest[T] {
	if onError == nil {
		onError = func(error) {}
	}
	return &Latest[T]{onError: onError}
}

// Run starts fetch on its own goroutine and passes its result to deliver
// unless a newer Run or Cancel happened first.
func (l *Latest[T]) Run(ctx context.Context, fetch func(ctx context.Context) (T, error), deliver func(T)) {
	l.mu.Lock()
	if l.cancel != nil {
		l.cancel()
	}
	l.seq++
	seq := l.seq
	runCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	done := make(chan struct{})
	l.done = done
	l.mu.Unlock()

	go func() {
		defer close(done)
		defer cancel()

		v, err := fetch(runCtx)
		if err != nil && (errors.Is(err, context.Canceled) || runCtx.Err() != nil) {
			l.finish(seq)
			return
		}
		if err != nil {
			l.onError(err)
			var zero T
			v = zero
		}

		if l.finish(seq) {
			deliver(v)
		}
	}()
}

// Cancel cancels the in-flight run, if any.
func (l *Latest[T]) Cancel() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.seq++
}

// Wait blocks until the most recent run has finished, delivery included.
// Superseded runs never deliver and are not waited for.
func (l *Latest[T]) Wait() {
	l.mu.Lock()
	done := l.done
	l.mu.Unlock()
	if done != nil {
		<-done
	}
}

// InFlight reports whether the latest run has not finished.
func (l *Latest[T]) InFlight() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cancel != nil
}

// finish clears the in-flight state of run seq and reports whether it is
// still the latest run.
func (l *Latest[T]) finish(seq uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if seq != l.seq {
		return false
	}
	l.cancel = nil
	return true
}
