package document

import (
	"sync"

	"github.com/colonyops/margin/internal/core/eventbus"
	"github.com/colonyops/margin/internal/core/textrange"
)

// Editor is the view state around a model: which model is shown, where the
// cursor is and what is selected.
type Editor struct {
	id string

	mu        sync.RWMutex
	model     *Model
	cursor    textrange.Position
	selection *textrange.Range

	modelChanged     eventbus.Emitter[*Model]
	cursorChanged    eventbus.Emitter[textrange.Position]
	selectionChanged eventbus.Emitter[*textrange.Range]
}

// NewEditor creates an editor with no model.
func NewEditor(id string) *Editor {
	return &Editor{id: id, cursor: textrange.Position{Line: 1, Col: 1}}
}

// ID returns the editor id.
func (e *Editor) ID() string { return e.id }

// Model returns the current model, or nil.
func (e *Editor) Model() *Model {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.model
}

// SetModel swaps the displayed model and resets cursor and selection.
func (e *Editor) SetModel(m *Model) {
	e.mu.Lock()
	e.model = m
	e.cursor = textrange.Position{Line: 1, Col: 1}
	e.selection = nil
	e.mu.Unlock()

	e.modelChanged.Fire(m)
}

// Cursor returns the cursor position.
func (e *Editor) Cursor() textrange.Position {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cursor
}

// SetCursor moves the cursor and clears the selection.
func (e *Editor) SetCursor(p textrange.Position) {
	e.mu.Lock()
	e.cursor = p
	hadSelection := e.selection != nil
	e.selection = nil
	e.mu.Unlock()

	e.cursorChanged.Fire(p)
	if hadSelection {
		e.selectionChanged.Fire(nil)
	}
}

// Selection returns the current non-empty selection, or nil.
func (e *Editor) Selection() *textrange.Range {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.selection == nil {
		return nil
	}
	return e.selection.Ptr()
}

// Select sets the selection from anchor to active; the cursor moves to
// active. An empty selection clears it.
func (e *Editor) Select(anchor, active textrange.Position) {
	r := textrange.FromPositions(anchor, active)

	e.mu.Lock()
	e.cursor = active
	if r.IsEmpty() {
		e.selection = nil
	} else {
		e.selection = r.Ptr()
	}
	sel := e.selection
	e.mu.Unlock()

	e.cursorChanged.Fire(active)
	e.selectionChanged.Fire(sel)
}

// OnDidChangeModel subscribes to model swaps.
func (e *Editor) OnDidChangeModel(fn func(*Model)) func() {
	return e.modelChanged.Subscribe(fn)
}

// OnDidChangeCursor subscribes to cursor moves.
func (e *Editor) OnDidChangeCursor(fn func(textrange.Position)) func() {
	return e.cursorChanged.Subscribe(fn)
}

// OnDidChangeSelection subscribes to selection changes; nil means cleared.
func (e *Editor) OnDidChangeSelection(fn func(*textrange.Range)) func() {
	return e.selectionChanged.Subscribe(fn)
}
