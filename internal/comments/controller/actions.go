package controller

import (
	"context"
	"fmt"
	"slices"

	"github.com/colonyops/margin/internal/comments/reconcile"
	"github.com/colonyops/margin/internal/core/comment"
	"github.com/colonyops/margin/internal/core/textrange"
)

// AddOrToggleCommentAtLine opens a new comment thread at rng, or toggles the
// threads whose glyph already sits on rng's last line. A nil rng is a
// file-level comment. Requests are handled one at a time in arrival order.
//
// The returned widget is the created or toggled thread; it is nil when the
// provider choice was dismissed.
func (c *Controller) AddOrToggleCommentAtLine(ctx context.Context, rng *textrange.Range) (comment.Widget, error) {
	select {
	case c.addSlot <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-c.addSlot }()

	c.mu.Lock()
	if c.model == nil {
		c.mu.Unlock()
		return nil, ErrNoModel
	}

	line := 0
	if rng != nil {
		line = rng.EndLine
	}
	if existing := c.state.Widgets.AtGlyphLine(line); len(existing) > 0 {
		toggle(existing)
		c.mu.Unlock()
		return existing[0], nil
	}

	actions := c.decorator.MatchedActions(rng)
	gen, uri := c.gen, c.model.URI()
	c.mu.Unlock()

	if len(actions) == 0 {
		if rng == nil {
			return nil, ErrFileCommentsNotAllowed
		}
		return nil, fmt.Errorf("%w: line %d", ErrNoCommentingRange, line)
	}

	action := actions[0]
	if len(actions) > 1 {
		picked, ok, err := c.opts.Picker.Pick(ctx, actions)
		if err != nil {
			return nil, fmt.Errorf("pick comment provider: %w", err)
		}
		if !ok {
			c.log.Debug().Int("line", line).Msg("add comment dismissed")
			return nil, nil
		}
		action = picked
	}

	t, err := c.source.CreateThreadTemplate(ctx, action.OwnerID, uri, rng)
	if err != nil {
		return nil, fmt.Errorf("create thread template: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return nil, ErrModelChanged
	}

	if w, ok := c.state.Widgets.Find(action.OwnerID, t.ThreadID); ok {
		w.Expand()
		return w, nil
	}

	res := reconcile.Apply(c.state, reconcile.Batch{OwnerID: action.OwnerID, Added: []*comment.Thread{t}}, c.env())
	c.afterReconcileLocked(res)

	w, ok := c.state.Widgets.Find(action.OwnerID, t.ThreadID)
	if !ok {
		w, ok = c.state.Widgets.FindDraftAt(action.OwnerID, t.Range)
	}
	if !ok {
		return nil, nil
	}
	w.Expand()

	c.log.Debug().
		Str("owner_id", action.OwnerID).
		Str("thread_id", t.ThreadID).
		Int("line", line).
		Msg("comment thread added")
	return w, nil
}

// toggle collapses every widget when all are expanded, else expands them.
func toggle(widgets []comment.Widget) {
	allExpanded := true
	for _, w := range widgets {
		if !w.Expanded() {
			allExpanded = false
			break
		}
	}
	for _, w := range widgets {
		if allExpanded {
			w.Collapse()
		} else {
			w.Expand()
		}
	}
}

// ClickGutter handles a click on the gutter at line. When the selection
// covers line the comment spans the selected lines.
func (c *Controller) ClickGutter(ctx context.Context, line int) (comment.Widget, error) {
	c.mu.Lock()
	hasTarget := c.decorator.LineHasCommentingRange(line) || (c.state != nil && c.state.Widgets.HasGlyphAt(line))
	c.mu.Unlock()
	if !hasTarget {
		return nil, nil
	}

	rng := textrange.Line(line)
	if sel := c.editor.Selection(); sel != nil && sel.ContainsLine(line) {
		rng = textrange.Lines(sel.StartLine, sel.EndLine)
	}
	return c.AddOrToggleCommentAtLine(ctx, &rng)
}

// NextThread reveals the next thread after the cursor, wrapping around.
// ok is false when no thread is displayed.
func (c *Controller) NextThread(reverse bool) (comment.Widget, bool) {
	cursor := c.editor.Cursor()

	c.mu.Lock()
	if c.state == nil || c.state.Widgets.Len() == 0 {
		c.mu.Unlock()
		return nil, false
	}
	sorted := c.state.Widgets.Sorted()
	c.mu.Unlock()

	if reverse {
		slices.Reverse(sorted)
	}

	next := sorted[0]
	for _, w := range sorted {
		start := threadStart(w.Thread())
		if (!reverse && start.Compare(cursor) > 0) || (reverse && start.Compare(cursor) < 0) {
			next = w
			break
		}
	}

	next.Reveal("")
	c.editor.SetCursor(threadStart(next.Thread()))
	return next, true
}

func threadStart(t *comment.Thread) textrange.Position {
	if t.Range == nil {
		return textrange.Position{Line: 1, Col: 1}
	}
	return t.Range.Start()
}

// NextCommentingRange moves the cursor to the nearest commenting range.
// ok is false when there are no claims.
func (c *Controller) NextCommentingRange(reverse bool) (textrange.Range, bool) {
	cursor := c.editor.Cursor()

	c.mu.Lock()
	if c.decorator.Count() == 0 {
		c.mu.Unlock()
		return textrange.Range{}, false
	}
	r, ok := c.decorator.NearestRange(cursor, reverse)
	c.mu.Unlock()

	if ok {
		c.editor.SetCursor(textrange.Position{Line: r.StartLine, Col: 1})
	}
	return r, ok
}

// CollapseAll collapses every thread.
func (c *Controller) CollapseAll() {
	c.eachWidget(func(w comment.Widget) { w.Collapse() })
}

// ExpandAll expands every thread.
func (c *Controller) ExpandAll() {
	c.eachWidget(func(w comment.Widget) { w.Expand() })
}

// ExpandUnresolved expands the unresolved threads.
func (c *Controller) ExpandUnresolved() {
	c.eachWidget(func(w comment.Widget) {
		if w.Thread().State == comment.Unresolved {
			w.Expand()
		}
	})
}

func (c *Controller) eachWidget(fn func(comment.Widget)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == nil {
		return
	}
	for _, w := range c.state.Widgets.All() {
		fn(w)
	}
}

// RevealThread expands a thread, scrolls to commentID and moves the cursor
// to the thread.
func (c *Controller) RevealThread(ownerID, threadID, commentID string) error {
	c.mu.Lock()
	var w comment.Widget
	ok := false
	if c.state != nil {
		w, ok = c.state.Widgets.Find(ownerID, threadID)
	}
	c.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s/%s", ErrThreadNotFound, ownerID, threadID)
	}
	w.Reveal(commentID)
	c.editor.SetCursor(threadStart(w.Thread()))
	return nil
}
