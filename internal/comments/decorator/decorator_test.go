package decorator

import (
	"testing"

	"github.com/colonyops/margin/internal/core/comment"
	"github.com/colonyops/margin/internal/core/document"
	"github.com/colonyops/margin/internal/core/textrange"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func glyphsAt(lines ...int) GlyphLookup {
	set := make(map[int]bool, len(lines))
	for _, l := range lines {
		set[l] = true
	}
	return GlyphLookupFunc(func(line int) bool { return set[line] })
}

func pieceRanges(pieces []Piece) []textrange.Range {
	out := make([]textrange.Range, len(pieces))
	for i, p := range pieces {
		out[i] = p.Range
	}
	return out
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name      string
		r         textrange.Range
		emphasis  int
		selection *textrange.Range
		glyphs    GlyphLookup
		want      []Piece
	}{
		{
			name:     "no emphasis keeps range",
			r:        textrange.Lines(1, 5),
			emphasis: 0,
			want:     []Piece{{Range: textrange.Lines(1, 5), Category: CategoryPlain}},
		},
		{
			name:     "emphasis outside range keeps range",
			r:        textrange.Lines(1, 5),
			emphasis: 9,
			want:     []Piece{{Range: textrange.Lines(1, 5), Category: CategoryPlain}},
		},
		{
			name:     "emphasis in the middle",
			r:        textrange.Lines(1, 5),
			emphasis: 3,
			want: []Piece{
				{Range: textrange.Lines(1, 2), Category: CategoryPlain},
				{Range: textrange.Line(3), Category: CategoryHover, Emphasis: true},
				{Range: textrange.Lines(4, 5), Category: CategoryPlain},
			},
		},
		{
			name:     "emphasis on first line",
			r:        textrange.Lines(1, 5),
			emphasis: 1,
			want: []Piece{
				{Range: textrange.Line(1), Category: CategoryHover, Emphasis: true},
				{Range: textrange.Lines(2, 5), Category: CategoryPlain},
			},
		},
		{
			name:     "thread glyph suppresses emphasis",
			r:        textrange.Lines(1, 5),
			emphasis: 3,
			glyphs:   glyphsAt(3),
			want: []Piece{
				{Range: textrange.Lines(1, 2), Category: CategoryPlain},
				{Range: textrange.Lines(4, 5), Category: CategoryPlain},
			},
		},
		{
			name:      "selection with cursor at end",
			r:         textrange.Lines(1, 10),
			emphasis:  6,
			selection: textrange.New(3, 1, 6, 4).Ptr(),
			want: []Piece{
				{Range: textrange.Lines(3, 5), Category: CategoryMultiline, Emphasis: true},
				{Range: textrange.Line(6), Category: CategoryHover, Emphasis: true},
				{Range: textrange.Lines(1, 2), Category: CategoryPlain},
				{Range: textrange.Lines(7, 10), Category: CategoryPlain},
			},
		},
		{
			name:      "selection with cursor at start",
			r:         textrange.Lines(1, 10),
			emphasis:  3,
			selection: textrange.New(3, 1, 6, 4).Ptr(),
			want: []Piece{
				{Range: textrange.Lines(4, 6), Category: CategoryMultiline, Emphasis: true},
				{Range: textrange.Line(3), Category: CategoryHover, Emphasis: true},
				{Range: textrange.Lines(1, 2), Category: CategoryPlain},
				{Range: textrange.Lines(7, 10), Category: CategoryPlain},
			},
		},
		{
			name:      "selection stretching past the range is clipped",
			r:         textrange.Lines(4, 8),
			emphasis:  6,
			selection: textrange.Lines(2, 6).Ptr(),
			want: []Piece{
				{Range: textrange.Lines(4, 5), Category: CategoryMultiline, Emphasis: true},
				{Range: textrange.Line(6), Category: CategoryHover, Emphasis: true},
				{Range: textrange.Lines(7, 8), Category: CategoryPlain},
			},
		},
		{
			name:      "emphasis equidistant from both ends takes the start",
			r:         textrange.Lines(1, 10),
			emphasis:  3,
			selection: textrange.Lines(2, 4).Ptr(),
			want: []Piece{
				{Range: textrange.Lines(3, 4), Category: CategoryMultiline, Emphasis: true},
				{Range: textrange.Line(2), Category: CategoryHover, Emphasis: true},
				{Range: textrange.Line(1), Category: CategoryPlain},
				{Range: textrange.Lines(5, 10), Category: CategoryPlain},
			},
		},
		{
			name:      "emphasis outside the selection uses the line branch",
			r:         textrange.Lines(1, 10),
			emphasis:  8,
			selection: textrange.Lines(2, 4).Ptr(),
			want: []Piece{
				{Range: textrange.Lines(1, 7), Category: CategoryPlain},
				{Range: textrange.Line(8), Category: CategoryHover, Emphasis: true},
				{Range: textrange.Lines(9, 10), Category: CategoryPlain},
			},
		},
		{
			name:      "single shared line uses the line branch",
			r:         textrange.Lines(1, 10),
			emphasis:  10,
			selection: textrange.Lines(10, 12).Ptr(),
			want: []Piece{
				{Range: textrange.Lines(1, 9), Category: CategoryPlain},
				{Range: textrange.Line(10), Category: CategoryHover, Emphasis: true},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Split(tt.r, tt.emphasis, tt.selection, tt.glyphs)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplit_Tiling(t *testing.T) {
	ranges := []textrange.Range{
		textrange.Line(4),
		textrange.Lines(2, 3),
		textrange.Lines(1, 8),
		textrange.New(3, 5, 7, 2),
	}

	var selections []*textrange.Range
	selections = append(selections, nil)
	for a := 1; a <= 9; a++ {
		for b := a + 1; b <= 9; b++ {
			selections = append(selections, textrange.Lines(a, b).Ptr())
		}
	}

	for _, glyphLine := range []int{0, 4} {
		glyphs := glyphsAt(glyphLine)
		for _, r := range ranges {
			for _, sel := range selections {
				for emphasis := 0; emphasis <= 9; emphasis++ {
					pieces := Split(r, emphasis, sel, glyphs)

					seen := make(map[int]int)
					for _, p := range pieces {
						require.LessOrEqual(t, r.StartLine, p.Range.StartLine)
						require.GreaterOrEqual(t, r.EndLine, p.Range.EndLine)
						for l := p.Range.StartLine; l <= p.Range.EndLine; l++ {
							seen[l]++
						}
						if p.Category == CategoryHover {
							require.False(t, glyphs.HasThreadGlyph(p.Range.StartLine), "hover on a glyph line")
						}
					}

					for l := r.StartLine; l <= r.EndLine; l++ {
						if seen[l] == 0 {
							require.Equal(t, glyphLine, l, "gap at line %d for %s emphasis=%d sel=%v", l, r, emphasis, sel)
							continue
						}
						require.Equal(t, 1, seen[l], "overlap at line %d for %s emphasis=%d sel=%v", l, r, emphasis, sel)
					}
				}
			}
		}
	}
}

func newInfo(owner string, ranges ...textrange.Range) comment.Info {
	return comment.Info{
		OwnerID: owner,
		Label:   owner,
		Ranges:  &comment.CommentingRanges{Ranges: ranges},
	}
}

func TestDecorator_MatchedActions(t *testing.T) {
	d := New(zerolog.Nop(), nil)
	d.Update([]comment.Info{newInfo("o", textrange.Lines(1, 2))}, 1, nil)

	require.Len(t, d.Claims(), 2)
	assert.Equal(t, textrange.Line(1), d.Claims()[0].Range)
	assert.Equal(t, textrange.Line(2), d.Claims()[1].Range)

	got := d.MatchedActions(textrange.Lines(1, 2).Ptr())
	require.Len(t, got, 1)
	assert.Equal(t, "o", got[0].OwnerID)

	assert.Empty(t, d.MatchedActions(textrange.Lines(1, 3).Ptr()))
}

func TestDecorator_MatchedActions_Owners(t *testing.T) {
	d := New(zerolog.Nop(), nil)
	d.Update([]comment.Info{
		newInfo("a", textrange.Lines(1, 5)),
		newInfo("b", textrange.Lines(3, 8)),
		newInfo("c", textrange.Lines(20, 30)),
	}, 4, nil)

	got := d.MatchedActions(textrange.Line(4).Ptr())
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].OwnerID)
	assert.Equal(t, "b", got[1].OwnerID)

	got = d.MatchedActions(textrange.Line(7).Ptr())
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].OwnerID)
}

func TestDecorator_MatchedActions_SeparateSnapshots(t *testing.T) {
	first := newInfo("o", textrange.Lines(1, 2))
	second := newInfo("o", textrange.Line(3))

	d := New(zerolog.Nop(), nil)
	d.Update([]comment.Info{first, second}, 0, nil)

	tests := []struct {
		name string
		hit  textrange.Range
		want *comment.CommentingRanges
	}{
		{name: "spanning both is not merged", hit: textrange.Lines(1, 3)},
		{name: "earlier claim replaced by touching later one", hit: textrange.Line(2)},
		{name: "later claim alone", hit: textrange.Line(3), want: second.Ranges},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.MatchedActions(tt.hit.Ptr())
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			require.Len(t, got, 1)
			assert.Equal(t, "o", got[0].OwnerID)
			assert.Same(t, tt.want, got[0].Ranges)
		})
	}

	shared := New(zerolog.Nop(), nil)
	shared.Update([]comment.Info{newInfo("o", textrange.Lines(1, 2), textrange.Line(3))}, 0, nil)
	assert.Len(t, shared.MatchedActions(textrange.Lines(1, 3).Ptr()), 1, "claims of one snapshot merge")
}

func TestDecorator_MatchedActions_FileComments(t *testing.T) {
	withFile := newInfo("file")
	withFile.Ranges.FileComments = true

	d := New(zerolog.Nop(), nil)
	d.Update([]comment.Info{newInfo("lines", textrange.Line(1)), withFile}, 0, nil)

	got := d.MatchedActions(nil)
	require.Len(t, got, 1)
	assert.Equal(t, "file", got[0].OwnerID)
}

func TestDecorator_NearestRange(t *testing.T) {
	d := New(zerolog.Nop(), nil)
	d.Update([]comment.Info{newInfo("o", textrange.Line(10), textrange.Line(5))}, 0, nil)

	tests := []struct {
		name    string
		line    int
		reverse bool
		want    textrange.Range
	}{
		{"forward wraps", 12, false, textrange.Line(5)},
		{"reverse wraps", 3, true, textrange.Line(10)},
		{"forward from start", 1, false, textrange.Line(5)},
		{"forward skips current", 5, false, textrange.Line(10)},
		{"reverse skips current", 10, true, textrange.Line(5)},
		{"reverse between", 7, true, textrange.Line(5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := d.NearestRange(textrange.Position{Line: tt.line, Col: 1}, tt.reverse)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecorator_NearestRange_SkipsTouchingBlock(t *testing.T) {
	d := New(zerolog.Nop(), nil)
	// Emphasis on line 3 splits [1,5] into three touching claims.
	d.Update([]comment.Info{newInfo("o", textrange.Lines(1, 5), textrange.Line(9))}, 3, nil)

	got, ok := d.NearestRange(textrange.Position{Line: 3, Col: 1}, false)
	require.True(t, ok)
	assert.Equal(t, textrange.Line(9), got)
}

func TestDecorator_NearestRange_Empty(t *testing.T) {
	d := New(zerolog.Nop(), nil)
	d.Update(nil, 0, nil)

	_, ok := d.NearestRange(textrange.Position{Line: 1, Col: 1}, false)
	assert.False(t, ok)
}

func TestDecorator_CountChanged(t *testing.T) {
	d := New(zerolog.Nop(), nil)

	var counts []int
	d.OnDidChangeCount(func(n int) { counts = append(counts, n) })

	infos := []comment.Info{newInfo("o", textrange.Lines(1, 5))}
	d.Update(infos, 0, nil)
	d.Update(infos, 0, nil)
	d.UpdateHover(3)
	d.UpdateHover(3)
	d.UpdateHover(0)

	assert.Equal(t, []int{1, 3, 1}, counts)
}

func TestDecorator_SelectionTakesPrecedence(t *testing.T) {
	d := New(zerolog.Nop(), nil)
	d.Update([]comment.Info{newInfo("o", textrange.Lines(1, 10))}, 0, nil)

	d.UpdateSelection(6, textrange.Lines(3, 6).Ptr())
	d.UpdateHover(9)

	var categories []Category
	for _, c := range d.Claims() {
		categories = append(categories, c.Category)
	}
	assert.Equal(t, []Category{CategoryMultiline, CategoryHover, CategoryPlain, CategoryPlain}, categories)
	assert.Equal(t, textrange.Line(6), d.Claims()[1].Range)
}

func TestDecorator_ActiveRangeFollowsEdits(t *testing.T) {
	model := document.NewModel("file:///a.txt", "1\n2\n3\n4\n5\n6")

	d := New(zerolog.Nop(), nil)
	d.SetStore(model)
	d.Update([]comment.Info{newInfo("o", textrange.Line(4))}, 0, nil)
	require.Equal(t, 1, model.MarkerCount())

	require.NoError(t, model.ApplyEdit(document.Edit{Range: textrange.Line(1), Text: "0\n"}))

	claim := d.Claims()[0]
	assert.Equal(t, textrange.Line(4), claim.Range)
	got, ok := claim.ActiveRange()
	require.True(t, ok)
	assert.Equal(t, textrange.Line(5), got)
	assert.True(t, d.LineHasCommentingRange(5))
	assert.False(t, d.LineHasCommentingRange(4))

	d.Update([]comment.Info{newInfo("o", textrange.Line(2), textrange.Line(3))}, 0, nil)
	assert.Equal(t, 2, model.MarkerCount())

	d.SetStore(nil)
	assert.Equal(t, 0, model.MarkerCount())
	assert.Zero(t, d.Count())
}

func TestCategory_Text(t *testing.T) {
	for _, c := range []Category{CategoryPlain, CategoryHover, CategoryMultiline} {
		b, err := c.MarshalText()
		require.NoError(t, err)

		var got Category
		require.NoError(t, got.UnmarshalText(b))
		assert.Equal(t, c, got)
	}

	var c Category
	assert.Error(t, c.UnmarshalText([]byte("bold")))
}
