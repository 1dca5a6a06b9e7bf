package widget

import (
	"testing"

	"github.com/colonyops/margin/internal/core/comment"
	"github.com/colonyops/margin/internal/core/textrange"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactory_NewWidget(t *testing.T) {
	f := NewFactory(zerolog.Nop())
	th := &comment.Thread{
		OwnerID:  "o",
		ThreadID: "t1",
		Range:    textrange.Lines(2, 4).Ptr(),
		Handle:   comment.ConfirmedHandle(1),
	}

	w := f.NewWidget("file:///a.go", "o", th, "draft", map[string]string{"c1": "edit"})
	require.Len(t, f.Created(), 1)

	assert.Equal(t, "o", w.OwnerID())
	assert.Equal(t, 4, w.GlyphLine())
	assert.True(t, w.Expanded(), "a widget with a draft opens expanded")

	pending := w.PendingComments()
	assert.Equal(t, "draft", pending.NewComment)
	assert.Equal(t, map[string]string{"c1": "edit"}, pending.Edits)
}

func TestHeadless_State(t *testing.T) {
	th := &comment.Thread{ThreadID: "t1", Handle: comment.ConfirmedHandle(1), Collapsible: comment.Collapsed}
	w := NewHeadless(zerolog.Nop(), "file:///a.go", "o", th, "", nil)

	assert.False(t, w.Expanded())
	assert.Equal(t, 0, w.GlyphLine())

	w.Reveal("c2")
	assert.True(t, w.Expanded())
	assert.Equal(t, "c2", w.Revealed())

	w.Collapse()
	assert.False(t, w.Expanded())

	w.SetPendingComment("hello")
	w.SetEdit("c1", "changed")
	w.SetEdit("c2", "x")
	w.SetEdit("c2", "")
	assert.Equal(t, comment.PendingComments{NewComment: "hello", Edits: map[string]string{"c1": "changed"}}, w.PendingComments())

	updated := th.Clone()
	updated.Comments = []comment.Comment{{ID: "c1", Body: "hi"}}
	w.Update(updated)
	assert.Same(t, updated, w.Thread())
	assert.Equal(t, 1, w.Updates())

	w.Dispose()
	w.Dispose()
	assert.True(t, w.Disposed())
}
