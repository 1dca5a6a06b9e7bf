package utils

import (
	"bytes"
	"io"
	"sync"
)

// DeferredWriter buffers writes in memory while held and passes them
// straight to its target otherwise. A DeferredWriter without a target
// buffers until Flush is called. Safe for concurrent use.
type DeferredWriter struct {
	mu     sync.Mutex
	target io.Writer
	held   bool
	buf    bytes.Buffer
}

// NewDeferredWriter returns a DeferredWriter passing writes to target.
func NewDeferredWriter(target io.Writer) *DeferredWriter {
	return &DeferredWriter{target: target}
}

// Write stores data in the internal buffer, or writes it to the target when
// not held.
func (d *DeferredWriter) Write(p []byte) (n int, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.target != nil && !d.held {
		return d.target.Write(p)
	}
	return d.buf.Write(p)
}

// Hold buffers every following write until Release.
func (d *DeferredWriter) Hold() {
	d.mu.Lock()
	d.held = true
	d.mu.Unlock()
}

// Release writes the buffered data to the target and resumes passing
// writes through.
func (d *DeferredWriter) Release() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.held = false
	if d.target == nil || d.buf.Len() == 0 {
		return nil
	}
	_, err := d.buf.WriteTo(d.target)
	return err
}

// Flush writes all buffered data to w and clears the buffer.
func (d *DeferredWriter) Flush(w io.Writer) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.buf.Len() == 0 {
		return nil
	}

	_, err := d.buf.WriteTo(w)
	return err
}
