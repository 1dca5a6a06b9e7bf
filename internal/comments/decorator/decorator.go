package decorator

import (
	"slices"

	"github.com/colonyops/margin/internal/core/comment"
	"github.com/colonyops/margin/internal/core/document"
	"github.com/colonyops/margin/internal/core/eventbus"
	"github.com/colonyops/margin/internal/core/logging"
	"github.com/colonyops/margin/internal/core/textrange"
	"github.com/rs/zerolog"
)

// Decorator owns the claim set of one editor. It is rebuilt in full on every
// update; markers of the previous cycle are replaced in one batch.
//
// A Decorator is not safe for concurrent use; the controller serializes
// access.
type Decorator struct {
	log    zerolog.Logger
	glyphs GlyphLookup

	store   MarkerStore
	markers []document.MarkerID
	claims  []Claim
	infos   []comment.Info
	hasInfo bool

	cursorLine      int
	lastHover       int
	lastSelection   *textrange.Range
	selectionCursor int

	countChanged eventbus.Emitter[int]
}

// New creates a decorator. glyphs may be nil when no thread glyphs exist.
func New(log zerolog.Logger, glyphs GlyphLookup) *Decorator {
	return &Decorator{
		log:       logging.Component(log, "decorator"),
		glyphs:    glyphs,
		lastHover: -1,
	}
}

// SetStore binds the decorator to a document's marker store. Markers held
// in the previous store are released and the claim set is cleared.
func (d *Decorator) SetStore(store MarkerStore) {
	d.Clear()
	d.store = store
	d.infos = nil
	d.hasInfo = false
	d.lastHover = -1
	d.lastSelection = nil
	d.selectionCursor = 0
	d.cursorLine = 0
}

// Clear drops every claim and marker while keeping the info snapshot.
func (d *Decorator) Clear() {
	if d.store != nil && len(d.markers) > 0 {
		d.store.DeltaMarkers(d.markers, nil)
	}
	d.markers = nil
	d.apply(nil)
}

// OnDidChangeCount subscribes to changes of the number of claims.
func (d *Decorator) OnDidChangeCount(fn func(int)) func() {
	return d.countChanged.Subscribe(fn)
}

// Update replaces the info snapshot and rebuilds the claims. emphasisLine <=
// 0 falls back to the selection cursor, then the cursor line.
func (d *Decorator) Update(infos []comment.Info, emphasisLine int, selection *textrange.Range) {
	d.infos = infos
	d.hasInfo = true
	if selection == nil {
		selection = d.lastSelection
	}
	d.rebuild(emphasisLine, selection)
}

// Refresh rebuilds the claims from the cached snapshot and emphasis state.
func (d *Decorator) Refresh() {
	if !d.hasInfo {
		return
	}
	d.rebuild(d.lastHover, d.lastSelection)
}

// SetCursorLine records the editor cursor line used when nothing is hovered.
func (d *Decorator) SetCursorLine(line int) {
	d.cursorLine = line
}

// UpdateHover re-derives the emphasis for a hovered line. line <= 0 means
// nothing is hovered.
func (d *Decorator) UpdateHover(line int) {
	if line <= 0 {
		line = -1
	}
	if d.hasInfo && line != d.lastHover {
		d.rebuild(line, d.lastSelection)
	}
	d.lastHover = line
}

// UpdateSelection re-derives the emphasis for a cursor move or selection
// change. An empty or nil selection clears the selection emphasis.
func (d *Decorator) UpdateSelection(cursorLine int, selection *textrange.Range) {
	d.cursorLine = cursorLine
	if selection == nil || selection.IsEmpty() {
		d.lastSelection = nil
		d.selectionCursor = 0
	} else {
		d.lastSelection = selection.Ptr()
		d.selectionCursor = cursorLine
	}
	if d.hasInfo {
		d.rebuild(cursorLine, d.lastSelection)
	}
}

func (d *Decorator) emphasis(line int) int {
	if d.lastSelection != nil && d.selectionCursor > 0 {
		return d.selectionCursor
	}
	if line > 0 {
		return line
	}
	return d.cursorLine
}

func (d *Decorator) rebuild(line int, selection *textrange.Range) {
	emphasisLine := d.emphasis(line)

	var claims []Claim
	for _, info := range d.infos {
		if info.Ranges == nil {
			continue
		}
		for _, r := range info.Ranges.Ranges {
			for _, p := range Split(r, emphasisLine, selection, d.glyphs) {
				claims = append(claims, Claim{
					OwnerID:     info.OwnerID,
					ExtensionID: info.ExtensionID,
					Label:       info.Label,
					Info:        info.Ranges,
					Range:       p.Range,
					Category:    p.Category,
					Emphasis:    p.Emphasis,
				})
			}
		}
	}

	if d.store != nil {
		ranges := make([]textrange.Range, len(claims))
		for i := range claims {
			ranges[i] = claims[i].Range
		}
		d.markers = d.store.DeltaMarkers(d.markers, ranges)
		for i := range claims {
			claims[i].marker = d.markers[i]
			claims[i].store = d.store
		}
	}

	d.log.Debug().
		Int("providers", len(d.infos)).
		Int("claims", len(claims)).
		Int("emphasis_line", emphasisLine).
		Bool("selection", selection != nil).
		Msg("commenting ranges updated")

	d.apply(claims)
}

func (d *Decorator) apply(claims []Claim) {
	prev := len(d.claims)
	d.claims = claims
	if prev != len(claims) {
		d.countChanged.Fire(len(claims))
	}
}

// Claims returns a snapshot of the current claims in emission order.
func (d *Decorator) Claims() []Claim {
	return slices.Clone(d.claims)
}

// Count returns the number of current claims.
func (d *Decorator) Count() int { return len(d.claims) }

// LineHasCommentingRange reports whether any claim covers line.
func (d *Decorator) LineHasCommentingRange(line int) bool {
	for _, c := range d.claims {
		if r, ok := c.ActiveRange(); ok && r.ContainsLine(line) {
			return true
		}
	}
	return false
}

// HasCommentingRanges reports whether any provider in the snapshot declares
// ranges or accepts file comments.
func (d *Decorator) HasCommentingRanges() bool {
	for _, info := range d.infos {
		if info.HasCommentingRanges() {
			return true
		}
	}
	return false
}

type matched struct {
	rng    textrange.Range
	action comment.Action
}

// MatchedActions returns the providers that accept a new comment at hit.
//
// A nil hit asks for file-level comments: every provider with FileComments
// is returned. Otherwise claims touching hit by line are grouped by owner.
// Claims of one owner that share the same commenting ranges are merged into
// their bounding range, which undoes the emphasis split; a claim from a
// different snapshot replaces the owner's entry. Owners whose range contains
// hit are returned in the order they were first matched.
func (d *Decorator) MatchedActions(hit *textrange.Range) []comment.Action {
	if hit == nil {
		var actions []comment.Action
		for _, info := range d.infos {
			if info.Ranges != nil && info.Ranges.FileComments {
				actions = append(actions, comment.Action{
					OwnerID:     info.OwnerID,
					ExtensionID: info.ExtensionID,
					Label:       info.Label,
					Ranges:      info.Ranges,
				})
			}
		}
		return actions
	}

	var order []string
	found := make(map[string]matched)
	for _, c := range d.claims {
		r, ok := c.ActiveRange()
		if !ok || !textrange.TouchesByLine(r, *hit) {
			continue
		}

		prev, seen := found[c.OwnerID]
		if !seen {
			order = append(order, c.OwnerID)
		}
		if seen && prev.action.Ranges == c.Info {
			r = prev.rng.Union(r)
		}
		found[c.OwnerID] = matched{rng: r, action: c.Action()}
	}

	var actions []comment.Action
	for _, owner := range order {
		m := found[owner]
		if m.rng.ContainsRange(*hit) {
			actions = append(actions, m.action)
		}
	}
	return actions
}

// NearestRange returns the commenting range to move to from pos.
//
// Claims are scanned in document order, or reverse document order when
// reverse is set. Claims that touch the block containing pos are skipped
// together with it; the first claim past pos in the scan direction wins.
// When nothing lies ahead the scan wraps to the first claim it visited.
// ok is false only when there are no live claims; callers should check
// Count first.
func (d *Decorator) NearestRange(pos textrange.Position, reverse bool) (textrange.Range, bool) {
	ranges := make([]textrange.Range, 0, len(d.claims))
	for _, c := range d.claims {
		if r, ok := c.ActiveRange(); ok {
			ranges = append(ranges, r)
		}
	}
	if len(ranges) == 0 {
		return textrange.Range{}, false
	}

	slices.SortStableFunc(ranges, func(a, b textrange.Range) int {
		return a.Start().Compare(b.Start())
	})
	if reverse {
		slices.Reverse(ranges)
	}

	var within *textrange.Range
	for _, r := range ranges {
		if within != nil && textrange.TouchesByLine(r, *within) {
			within = within.Union(r).Ptr()
			continue
		}
		if r.ContainsLine(pos.Line) {
			within = r.Ptr()
			continue
		}
		if !reverse && r.EndLine < pos.Line {
			continue
		}
		if reverse && r.StartLine > pos.Line {
			continue
		}
		return r, true
	}

	return ranges[0], true
}
