// Package decorator turns the commenting ranges of every provider into the
// non-overlapping claim set drawn in the gutter, and answers hit-test and
// navigation queries against it.
package decorator

import (
	"fmt"

	"github.com/colonyops/margin/internal/core/comment"
	"github.com/colonyops/margin/internal/core/document"
	"github.com/colonyops/margin/internal/core/textrange"
)

// Category is how a claim is drawn. It follows from the branch of the split
// that produced the claim.
type Category int

const (
	// CategoryPlain is the always-visible commenting range glyph.
	CategoryPlain Category = iota
	// CategoryHover marks the hovered or cursor line.
	CategoryHover
	// CategoryMultiline marks the selected span.
	CategoryMultiline
)

// String returns the string representation of the category.
func (c Category) String() string {
	switch c {
	case CategoryPlain:
		return "plain"
	case CategoryHover:
		return "hover"
	case CategoryMultiline:
		return "multiline"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Category) UnmarshalText(b []byte) error {
	switch string(b) {
	case "plain":
		*c = CategoryPlain
	case "hover":
		*c = CategoryHover
	case "multiline":
		*c = CategoryMultiline
	default:
		return fmt.Errorf("unknown claim category %q", b)
	}
	return nil
}

// MarkerStore is the host document's live-marker facility.
type MarkerStore interface {
	DeltaMarkers(old []document.MarkerID, ranges []textrange.Range) []document.MarkerID
	Marker(id document.MarkerID) (textrange.Range, bool)
}

// GlyphLookup reports whether a line already shows a comment-thread glyph.
type GlyphLookup interface {
	HasThreadGlyph(line int) bool
}

// GlyphLookupFunc adapts a function to GlyphLookup.
type GlyphLookupFunc func(line int) bool

// HasThreadGlyph calls f.
func (f GlyphLookupFunc) HasThreadGlyph(line int) bool { return f(line) }

// Piece is one sub-range produced by splitting a provider range.
type Piece struct {
	Range    textrange.Range
	Category Category
	Emphasis bool
}

// Claim is one piece of a provider's commenting range, bound to a live
// marker for the cycle it was created in.
type Claim struct {
	OwnerID     string
	ExtensionID string
	Label       string
	Info        *comment.CommentingRanges
	Range       textrange.Range
	Category    Category
	Emphasis    bool

	marker document.MarkerID
	store  MarkerStore
}

// ActiveRange returns the claim's current range, following edits made since
// the claim was created. ok is false once the marked text is gone.
func (c Claim) ActiveRange() (textrange.Range, bool) {
	if c.store == nil {
		return c.Range, true
	}
	return c.store.Marker(c.marker)
}

// Action returns the comment action for the claim's provider.
func (c Claim) Action() comment.Action {
	return comment.Action{
		OwnerID:     c.OwnerID,
		ExtensionID: c.ExtensionID,
		Label:       c.Label,
		Ranges:      c.Info,
	}
}
