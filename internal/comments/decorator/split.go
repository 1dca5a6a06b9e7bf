package decorator

import "github.com/colonyops/margin/internal/core/textrange"

// Split divides a provider range around the emphasis line and selection.
//
// A multi-line intersection of r with a non-empty selection that contains
// the emphasis line yields the selected span (multiline), a one-line
// emphasis slice carved from the nearer end of that span (hover) and the
// plain remainders before and after it. Otherwise an emphasis line inside r
// yields before, emphasis and after. Anything else leaves r whole.
//
// The pieces are line-disjoint and cover every line of r, except that a
// hover line already showing a thread glyph is left out.
func Split(r textrange.Range, emphasisLine int, selection *textrange.Range, glyphs GlyphLookup) []Piece {
	if emphasisLine > 0 && selection != nil && !selection.IsEmpty() {
		if in, ok := r.Intersect(*selection); ok && !in.IsSingleLine() && in.ContainsLine(emphasisLine) {
			return splitSelection(r, in, emphasisLine, glyphs)
		}
	}

	if emphasisLine > 0 && r.ContainsLine(emphasisLine) {
		return splitLine(r, emphasisLine, glyphs)
	}

	return []Piece{{Range: r, Category: CategoryPlain}}
}

func splitSelection(r, in textrange.Range, emphasisLine int, glyphs GlyphLookup) []Piece {
	var emphasis int
	var selected textrange.Range
	if emphasisLine-in.StartLine <= in.EndLine-emphasisLine {
		emphasis = in.StartLine
		selected = textrange.Lines(in.StartLine+1, in.EndLine)
	} else {
		emphasis = in.EndLine
		selected = textrange.Lines(in.StartLine, in.EndLine-1)
	}

	pieces := []Piece{{Range: selected, Category: CategoryMultiline, Emphasis: true}}
	if !hasGlyph(glyphs, emphasis) {
		pieces = append(pieces, Piece{Range: textrange.Line(emphasis), Category: CategoryHover, Emphasis: true})
	}
	if r.StartLine < in.StartLine {
		pieces = append(pieces, Piece{Range: span(r.StartLine, r.StartCol, in.StartLine-1, 1), Category: CategoryPlain})
	}
	if r.EndLine > in.EndLine {
		pieces = append(pieces, Piece{Range: span(in.EndLine+1, 1, r.EndLine, r.EndCol), Category: CategoryPlain})
	}
	return pieces
}

func splitLine(r textrange.Range, line int, glyphs GlyphLookup) []Piece {
	var pieces []Piece
	if r.StartLine < line {
		pieces = append(pieces, Piece{Range: span(r.StartLine, r.StartCol, line-1, 1), Category: CategoryPlain})
	}
	if !hasGlyph(glyphs, line) {
		pieces = append(pieces, Piece{Range: textrange.Line(line), Category: CategoryHover, Emphasis: true})
	}
	if line < r.EndLine {
		pieces = append(pieces, Piece{Range: span(line+1, 1, r.EndLine, r.EndCol), Category: CategoryPlain})
	}
	return pieces
}

// span builds a piece range; a single-line piece never ends before it starts.
func span(startLine, startCol, endLine, endCol int) textrange.Range {
	if startLine == endLine && endCol < startCol {
		endCol = startCol
	}
	return textrange.Range{StartLine: startLine, StartCol: startCol, EndLine: endLine, EndCol: endCol}
}

func hasGlyph(glyphs GlyphLookup, line int) bool {
	return glyphs != nil && glyphs.HasThreadGlyph(line)
}
