// Package textrange provides the line/column range value used for commenting
// ranges, claims and thread anchors.
//
// Lines and columns are 1-indexed. A Range is closed on both endpoint
// positions rather than half-open, so a one-line range Line(n) contains a
// hit on n and ContainsRange accepts a hit ending exactly where a claim
// ends. Line-level operations (TouchesByLine, Lines) only look at line
// numbers.
package textrange

import (
	"fmt"
	"strconv"
	"strings"
)

// Position is a single point in a document.
type Position struct {
	Line int `json:"line" yaml:"line" toml:"line"`
	Col  int `json:"col" yaml:"col" toml:"col"`
}

// Compare returns -1, 0 or 1 when p is before, equal to or after o.
func (p Position) Compare(o Position) int {
	switch {
	case p.Line < o.Line:
		return -1
	case p.Line > o.Line:
		return 1
	case p.Col < o.Col:
		return -1
	case p.Col > o.Col:
		return 1
	default:
		return 0
	}
}

// Range is a span of document text.
type Range struct {
	StartLine int `json:"start_line" yaml:"start_line" toml:"start_line"`
	StartCol  int `json:"start_col" yaml:"start_col" toml:"start_col"`
	EndLine   int `json:"end_line" yaml:"end_line" toml:"end_line"`
	EndCol    int `json:"end_col" yaml:"end_col" toml:"end_col"`
}

// New creates a range, swapping the endpoints if end precedes start.
func New(startLine, startCol, endLine, endCol int) Range {
	r := Range{StartLine: startLine, StartCol: startCol, EndLine: endLine, EndCol: endCol}
	if r.End().Compare(r.Start()) < 0 {
		r = Range{StartLine: endLine, StartCol: endCol, EndLine: startLine, EndCol: startCol}
	}
	return r
}

// Lines creates a range covering whole lines start..end at column 1.
func Lines(start, end int) Range {
	return New(start, 1, end, 1)
}

// Line creates a single-line range at column 1.
func Line(n int) Range {
	return Range{StartLine: n, StartCol: 1, EndLine: n, EndCol: 1}
}

// FromPositions creates a range spanning two positions.
func FromPositions(a, b Position) Range {
	return New(a.Line, a.Col, b.Line, b.Col)
}

// Start returns the start position.
func (r Range) Start() Position { return Position{Line: r.StartLine, Col: r.StartCol} }

// End returns the end position.
func (r Range) End() Position { return Position{Line: r.EndLine, Col: r.EndCol} }

// IsEmpty reports whether start and end are the same position.
func (r Range) IsEmpty() bool {
	return r.StartLine == r.EndLine && r.StartCol == r.EndCol
}

// IsSingleLine reports whether the range starts and ends on the same line.
func (r Range) IsSingleLine() bool {
	return r.StartLine == r.EndLine
}

// LineCount returns the number of lines the range touches.
func (r Range) LineCount() int {
	return r.EndLine - r.StartLine + 1
}

// ContainsLine reports whether line n lies within the range's lines.
func (r Range) ContainsLine(n int) bool {
	return r.StartLine <= n && n <= r.EndLine
}

// ContainsPosition reports whether p lies within the range, endpoints included.
func (r Range) ContainsPosition(p Position) bool {
	return r.Start().Compare(p) <= 0 && p.Compare(r.End()) <= 0
}

// ContainsRange reports whether o lies entirely within r.
func (r Range) ContainsRange(o Range) bool {
	return r.ContainsPosition(o.Start()) && r.ContainsPosition(o.End())
}

// Equal reports whether both ranges have identical endpoints.
func (r Range) Equal(o Range) bool {
	return r == o
}

// Compare orders ranges by start position, then end position.
func (r Range) Compare(o Range) int {
	if c := r.Start().Compare(o.Start()); c != 0 {
		return c
	}
	return r.End().Compare(o.End())
}

// Intersect returns the overlap of r and o. ok is false when they are
// disjoint. Ranges that only share an endpoint intersect in an empty range.
func (r Range) Intersect(o Range) (Range, bool) {
	start := r.Start()
	if o.Start().Compare(start) > 0 {
		start = o.Start()
	}
	end := r.End()
	if o.End().Compare(end) < 0 {
		end = o.End()
	}
	if start.Compare(end) > 0 {
		return Range{}, false
	}
	return Range{StartLine: start.Line, StartCol: start.Col, EndLine: end.Line, EndCol: end.Col}, true
}

// Union returns the smallest range containing both r and o.
func (r Range) Union(o Range) Range {
	start := r.Start()
	if o.Start().Compare(start) < 0 {
		start = o.Start()
	}
	end := r.End()
	if o.End().Compare(end) > 0 {
		end = o.End()
	}
	return Range{StartLine: start.Line, StartCol: start.Col, EndLine: end.Line, EndCol: end.Col}
}

// TouchesByLine reports whether a and b overlap or sit on adjacent lines.
// Two ranges do not touch only when one ends more than one line before the
// other starts.
func TouchesByLine(a, b Range) bool {
	if a.EndLine < b.StartLine-1 {
		return false
	}
	if b.EndLine+1 < a.StartLine {
		return false
	}
	return true
}

// EqualPtr compares optional ranges; two nil ranges are equal.
func EqualPtr(a, b *Range) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// String renders the range as "L1:C1-L2:C2".
func (r Range) String() string {
	return fmt.Sprintf("%d:%d-%d:%d", r.StartLine, r.StartCol, r.EndLine, r.EndCol)
}

// Ptr returns a pointer to a copy of r.
func (r Range) Ptr() *Range {
	return &r
}

// ParsePosition parses "L" or "L:C". A bare line is column 1.
func ParsePosition(s string) (Position, error) {
	line, col, hasCol := strings.Cut(strings.TrimSpace(s), ":")
	p := Position{Col: 1}
	var err error
	if p.Line, err = strconv.Atoi(line); err != nil || p.Line < 1 {
		return Position{}, fmt.Errorf("invalid position %q", s)
	}
	if hasCol {
		if p.Col, err = strconv.Atoi(col); err != nil || p.Col < 1 {
			return Position{}, fmt.Errorf("invalid position %q", s)
		}
	}
	return p, nil
}

// Parse parses a range written as "L", "A-B" (whole lines) or
// "A:C-B:D".
func Parse(s string) (Range, error) {
	start, end, isSpan := strings.Cut(strings.TrimSpace(s), "-")
	a, err := ParsePosition(start)
	if err != nil {
		return Range{}, fmt.Errorf("invalid range %q", s)
	}
	if !isSpan {
		return Line(a.Line), nil
	}
	b, err := ParsePosition(end)
	if err != nil {
		return Range{}, fmt.Errorf("invalid range %q", s)
	}
	return FromPositions(a, b), nil
}
