package eventbus

import "sync"

// Disposer collects unsubscribe funcs so a component can release every
// subscription tied to one lifetime (a document, the process) at once.
type Disposer struct {
	mu  sync.Mutex
	fns []func()
}

// Add registers fn to run on the next Dispose.
func (d *Disposer) Add(fn func()) {
	if fn == nil {
		return
	}
	d.mu.Lock()
	d.fns = append(d.fns, fn)
	d.mu.Unlock()
}

// Dispose runs every registered func in reverse order and empties the list.
// The Disposer may be reused afterwards.
func (d *Disposer) Dispose() {
	d.mu.Lock()
	fns := d.fns
	d.fns = nil
	d.mu.Unlock()

	for i := len(fns) - 1; i >= 0; i-- {
		fns[i]()
	}
}

// Len returns the number of pending funcs.
func (d *Disposer) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.fns)
}
