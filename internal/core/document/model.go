// Package document is the host-editor side of the comments core: a text
// model that owns live range markers, and the editor state (cursor,
// selection, current model) that drives emphasis.
package document

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/colonyops/margin/internal/core/eventbus"
	"github.com/colonyops/margin/internal/core/textrange"
)

// ErrInvalidEdit is returned when an edit range falls outside the document.
var ErrInvalidEdit = errors.New("edit range outside document")

// MarkerID is a handle to a live marker.
type MarkerID uint64

// Edit replaces Range with Text.
type Edit struct {
	Range textrange.Range
	Text  string
}

// ContentChange is announced after every applied edit.
type ContentChange struct {
	Version int
	Edit    Edit
}

// Model is a text document with live markers. Markers follow edits: the
// marker, not the coordinates it was created with, is the source of truth.
type Model struct {
	mu      sync.RWMutex
	uri     string
	lines   []string
	version int
	markers map[MarkerID]textrange.Range
	nextID  MarkerID

	contentChanged eventbus.Emitter[ContentChange]
}

// NewModel creates a model for uri holding text.
func NewModel(uri, text string) *Model {
	return &Model{
		uri:     uri,
		lines:   strings.Split(text, "\n"),
		version: 1,
		markers: make(map[MarkerID]textrange.Range),
	}
}

// URI returns the model's resource identity.
func (m *Model) URI() string { return m.uri }

// Version increments on every edit.
func (m *Model) Version() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.version
}

// Text returns the full document text.
func (m *Model) Text() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return strings.Join(m.lines, "\n")
}

// Lines returns a copy of the document lines.
func (m *Model) Lines() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.lines...)
}

// LineCount returns the number of lines.
func (m *Model) LineCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.lines)
}

// OnDidChangeContent subscribes to applied edits.
func (m *Model) OnDidChangeContent(fn func(ContentChange)) func() {
	return m.contentChanged.Subscribe(fn)
}

// DeltaMarkers removes the old markers and creates one marker per range in a
// single step, returning the new ids in order.
func (m *Model) DeltaMarkers(old []MarkerID, ranges []textrange.Range) []MarkerID {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range old {
		delete(m.markers, id)
	}

	ids := make([]MarkerID, len(ranges))
	for i, r := range ranges {
		m.nextID++
		m.markers[m.nextID] = r
		ids[i] = m.nextID
	}
	return ids
}

// Marker returns the current range of a marker. ok is false when the marker
// was removed or its text was deleted.
func (m *Model) Marker(id MarkerID) (textrange.Range, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.markers[id]
	return r, ok
}

// MarkerCount returns the number of live markers.
func (m *Model) MarkerCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.markers)
}

// ApplyEdit replaces e.Range with e.Text, moves markers and notifies
// content subscribers.
func (m *Model) ApplyEdit(e Edit) error {
	m.mu.Lock()
	r := e.Range
	if r.StartLine < 1 || r.EndLine > len(m.lines) || r.StartCol < 1 || r.EndCol < 1 {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrInvalidEdit, r)
	}

	first := m.lines[r.StartLine-1]
	last := m.lines[r.EndLine-1]
	prefix := first[:colOffset(r.StartCol, first)]
	suffix := last[colOffset(r.EndCol, last):]

	replacement := strings.Split(prefix+e.Text+suffix, "\n")
	lines := make([]string, 0, len(m.lines)-r.LineCount()+len(replacement))
	lines = append(lines, m.lines[:r.StartLine-1]...)
	lines = append(lines, replacement...)
	lines = append(lines, m.lines[r.EndLine:]...)
	m.lines = lines

	inserted := strings.Count(e.Text, "\n")
	for id, mr := range m.markers {
		moved, ok := shiftMarker(mr, r, inserted)
		if !ok {
			delete(m.markers, id)
			continue
		}
		m.markers[id] = moved
	}

	m.version++
	change := ContentChange{Version: m.version, Edit: e}
	m.mu.Unlock()

	m.contentChanged.Fire(change)
	return nil
}

// colOffset converts a 1-based rune column to a byte offset within line,
// clamped to the line end.
func colOffset(col int, line string) int {
	n := col - 1
	for i := range line {
		if n <= 0 {
			return i
		}
		n--
	}
	return len(line)
}

// shiftMarker maps a marker through an edit of r that inserted `inserted`
// newlines. Lines strictly inside the edited span are gone; a marker that
// lived only on those lines is dropped.
func shiftMarker(mr, r textrange.Range, inserted int) (textrange.Range, bool) {
	if mr.EndLine < r.StartLine {
		return mr, true
	}

	delta := inserted - (r.EndLine - r.StartLine)
	if mr.StartLine > r.EndLine {
		mr.StartLine += delta
		mr.EndLine += delta
		return mr, true
	}

	if mr.StartLine > r.StartLine && mr.EndLine < r.EndLine {
		return textrange.Range{}, false
	}

	mapLine := func(l int) (int, bool) {
		switch {
		case l < r.StartLine:
			return l, false
		case l > r.EndLine:
			return l + delta, false
		case l == r.EndLine:
			return r.StartLine + inserted, true
		default:
			return min(l, r.StartLine+inserted), true
		}
	}

	start, startClipped := mapLine(mr.StartLine)
	end, endClipped := mapLine(mr.EndLine)
	out := textrange.Range{StartLine: start, StartCol: mr.StartCol, EndLine: end, EndCol: mr.EndCol}
	if startClipped && mr.StartLine != r.StartLine {
		out.StartCol = 1
	}
	if endClipped && mr.EndLine != r.EndLine {
		out.EndCol = 1
	}
	return textrange.New(out.StartLine, out.StartCol, out.EndLine, out.EndCol), true
}
