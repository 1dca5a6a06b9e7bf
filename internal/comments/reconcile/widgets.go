package reconcile

import (
	"slices"

	"github.com/colonyops/margin/internal/core/comment"
	"github.com/colonyops/margin/internal/core/textrange"
)

// WidgetSet is the live set of displayed thread widgets. Order is not
// meaningful; Sorted orders by position on demand.
type WidgetSet struct {
	widgets []comment.Widget
}

// Add appends w.
func (s *WidgetSet) Add(w comment.Widget) {
	s.widgets = append(s.widgets, w)
}

// Find returns the widget showing (ownerID, threadID). Empty thread ids
// never match.
func (s *WidgetSet) Find(ownerID, threadID string) (comment.Widget, bool) {
	if threadID == "" {
		return nil, false
	}
	for _, w := range s.widgets {
		if w.OwnerID() == ownerID && w.Thread().ThreadID == threadID {
			return w, true
		}
	}
	return nil, false
}

// FindDraftAt returns an unsubmitted widget of ownerID anchored at exactly r.
func (s *WidgetSet) FindDraftAt(ownerID string, r *textrange.Range) (comment.Widget, bool) {
	for _, w := range s.widgets {
		t := w.Thread()
		if w.OwnerID() == ownerID && t.Handle.IsDraft() && textrange.EqualPtr(t.Range, r) {
			return w, true
		}
	}
	return nil, false
}

// FindAt returns a widget of ownerID anchored at exactly r.
func (s *WidgetSet) FindAt(ownerID string, r *textrange.Range) (comment.Widget, bool) {
	for _, w := range s.widgets {
		if w.OwnerID() == ownerID && textrange.EqualPtr(w.Thread().Range, r) {
			return w, true
		}
	}
	return nil, false
}

// Remove detaches w from the set; it reports whether w was present.
func (s *WidgetSet) Remove(w comment.Widget) bool {
	i := slices.Index(s.widgets, w)
	if i < 0 {
		return false
	}
	s.widgets = slices.Delete(s.widgets, i, i+1)
	return true
}

// AtGlyphLine returns the widgets whose glyph sits on line.
func (s *WidgetSet) AtGlyphLine(line int) []comment.Widget {
	var out []comment.Widget
	for _, w := range s.widgets {
		if w.GlyphLine() == line {
			out = append(out, w)
		}
	}
	return out
}

// HasGlyphAt reports whether any range-anchored widget shows its glyph on line.
func (s *WidgetSet) HasGlyphAt(line int) bool {
	if line <= 0 {
		return false
	}
	for _, w := range s.widgets {
		if w.GlyphLine() == line {
			return true
		}
	}
	return false
}

// All returns a snapshot of the set.
func (s *WidgetSet) All() []comment.Widget {
	return slices.Clone(s.widgets)
}

// Len returns the number of widgets.
func (s *WidgetSet) Len() int { return len(s.widgets) }

// Sorted returns the widgets ordered by anchor position; file-level threads
// come first.
func (s *WidgetSet) Sorted() []comment.Widget {
	out := slices.Clone(s.widgets)
	slices.SortStableFunc(out, func(a, b comment.Widget) int {
		ra, rb := a.Thread().Range, b.Thread().Range
		switch {
		case ra == nil && rb == nil:
			return 0
		case ra == nil:
			return -1
		case rb == nil:
			return 1
		default:
			return ra.Compare(*rb)
		}
	})
	return out
}

// clear detaches every widget and returns them.
func (s *WidgetSet) clear() []comment.Widget {
	out := s.widgets
	s.widgets = nil
	return out
}
