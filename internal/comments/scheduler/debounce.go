// Package scheduler coalesces bursts of document edits into one range
// recompute and keeps at most one fetch in flight per purpose.
package scheduler

import (
	"context"
	"sync"
	"time"
)

// DefaultDelay is the debounce window for content changes.
const DefaultDelay = 200 * time.Millisecond

// Debouncer runs the last scheduled func once its window elapses without
// another Trigger. A func that already started sees its context cancelled
// by the next Trigger or Cancel; the context is released when the func
// returns.
type Debouncer struct {
	delay time.Duration

	mu     sync.Mutex
	seq    uint64
	timer  *time.Timer
	cancel context.CancelFunc
	base   context.Context
}

// NewDebouncer creates a debouncer. delay <= 0 uses DefaultDelay.
func NewDebouncer(ctx context.Context, delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Debouncer{delay: delay, base: ctx}
}

// Delay returns the debounce window.
func (d *Debouncer) Delay() time.Duration { return d.delay }

// Trigger (re)starts the window with fn as the pending func.
func (d *Debouncer) Trigger(fn func(ctx context.Context)) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
	d.seq++
	seq := d.seq
	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		if seq != d.seq {
			d.mu.Unlock()
			return
		}
		ctx, cancel := context.WithCancel(d.base)
		d.cancel = cancel
		d.timer = nil
		d.mu.Unlock()

		fn(ctx)

		d.mu.Lock()
		if seq == d.seq {
			d.cancel = nil
		}
		d.mu.Unlock()
		cancel()
	})
}

// Cancel drops the pending func and cancels a running one.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
	d.seq++
}

// Pending reports whether a func is waiting for its window to elapse.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

func (d *Debouncer) stopLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}
