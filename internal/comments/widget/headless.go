// Package widget provides a headless thread widget: the state a thread
// popup holds (expansion, unsent input) without any rendering. The CLI and
// the viewer draw from it directly.
package widget

import (
	"maps"
	"sync"

	"github.com/colonyops/margin/internal/core/comment"
	"github.com/colonyops/margin/internal/core/logging"
	"github.com/rs/zerolog"
)

// Headless is a comment.Widget that keeps its state in memory.
type Headless struct {
	uri     string
	ownerID string
	log     zerolog.Logger

	mu       sync.RWMutex
	thread   *comment.Thread
	expanded bool
	draft    string
	edits    map[string]string
	revealed string
	updates  int
	disposed bool
}

var _ comment.Widget = (*Headless)(nil)

// NewHeadless creates a widget for t seeded with unsent input.
func NewHeadless(log zerolog.Logger, uri, ownerID string, t *comment.Thread, draft string, edits map[string]string) *Headless {
	w := &Headless{
		uri:     uri,
		ownerID: ownerID,
		log:     log,
		thread:  t,
		draft:   draft,
		edits:   maps.Clone(edits),
	}
	w.expanded = t.Collapsible == comment.Expanded || t.Handle.IsDraft() || draft != ""
	return w
}

func (w *Headless) URI() string     { return w.uri }
func (w *Headless) OwnerID() string { return w.ownerID }

func (w *Headless) Thread() *comment.Thread {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.thread
}

func (w *Headless) Update(t *comment.Thread) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.thread = t
	w.updates++
}

func (w *Headless) Reveal(commentID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.expanded = true
	w.revealed = commentID
}

func (w *Headless) Expand() {
	w.mu.Lock()
	w.expanded = true
	w.mu.Unlock()
}

func (w *Headless) Collapse() {
	w.mu.Lock()
	w.expanded = false
	w.mu.Unlock()
}

func (w *Headless) Expanded() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.expanded
}

func (w *Headless) PendingComments() comment.PendingComments {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return comment.PendingComments{NewComment: w.draft, Edits: maps.Clone(w.edits)}
}

func (w *Headless) SetPendingComment(text string) {
	w.mu.Lock()
	w.draft = text
	w.mu.Unlock()
}

// SetEdit records in-progress edit text for a comment; empty text drops it.
func (w *Headless) SetEdit(commentID, text string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if text == "" {
		delete(w.edits, commentID)
		return
	}
	if w.edits == nil {
		w.edits = make(map[string]string)
	}
	w.edits[commentID] = text
}

func (w *Headless) GlyphLine() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.thread.GlyphLine()
}

func (w *Headless) Dispose() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.disposed {
		return
	}
	w.disposed = true
	w.log.Debug().Str("thread_id", w.thread.ThreadID).Msg("widget disposed")
}

// Disposed reports whether Dispose was called.
func (w *Headless) Disposed() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.disposed
}

// Revealed returns the comment id of the last Reveal call.
func (w *Headless) Revealed() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.revealed
}

// Updates returns how many times the thread was updated in place.
func (w *Headless) Updates() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.updates
}

// Factory creates Headless widgets and remembers them.
type Factory struct {
	log zerolog.Logger

	mu      sync.Mutex
	created []*Headless
}

var _ comment.WidgetFactory = (*Factory)(nil)

// NewFactory creates a factory.
func NewFactory(log zerolog.Logger) *Factory {
	return &Factory{log: logging.Component(log, "widget")}
}

// NewWidget implements comment.WidgetFactory.
func (f *Factory) NewWidget(uri, ownerID string, t *comment.Thread, draft string, edits map[string]string) comment.Widget {
	w := NewHeadless(f.log, uri, ownerID, t, draft, edits)

	f.mu.Lock()
	f.created = append(f.created, w)
	f.mu.Unlock()

	f.log.Debug().
		Str("owner_id", ownerID).
		Str("thread_id", t.ThreadID).
		Bool("draft", draft != "").
		Msg("widget created")
	return w
}

// Created returns every widget the factory made, in order.
func (f *Factory) Created() []*Headless {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*Headless(nil), f.created...)
}
