package tui

import (
	"sync/atomic"

	"github.com/colonyops/margin/internal/comments/controller"
)

// panel is the comments list drawn under the document.
type panel struct {
	open     atomic.Bool
	rendered atomic.Bool
}

var _ controller.Panel = (*panel)(nil)

func (p *panel) Open() { p.open.Store(true) }

func (p *panel) Rendered() bool { return p.rendered.Load() }

func (p *panel) toggle() { p.open.Store(!p.open.Load()) }

// visible reports whether the panel should be drawn and marks it rendered.
func (p *panel) visible() bool {
	if !p.open.Load() {
		return false
	}
	p.rendered.Store(true)
	return true
}
