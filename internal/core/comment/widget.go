package comment

// PendingComments is the unsent user input held by a widget.
type PendingComments struct {
	NewComment string
	Edits      map[string]string // comment id -> edited text
}

// Widget is a displayed comment thread. Rendering is up to the
// implementation; the engines only use this surface.
type Widget interface {
	OwnerID() string
	Thread() *Thread
	// Update replaces the thread data in place, keeping widget-local state.
	Update(t *Thread)
	Reveal(commentID string)
	Expand()
	Collapse()
	Expanded() bool
	PendingComments() PendingComments
	SetPendingComment(text string)
	// GlyphLine is the line showing the thread glyph, 0 for file-level threads.
	GlyphLine() int
	Dispose()
}

// WidgetFactory creates widgets. draft and edits seed the widget's unsent
// input; both may be empty.
type WidgetFactory interface {
	NewWidget(uri, ownerID string, t *Thread, draft string, edits map[string]string) Widget
}
