package comment

import (
	"testing"

	"github.com/colonyops/margin/internal/core/textrange"
	"github.com/stretchr/testify/assert"
)

func TestHandle(t *testing.T) {
	assert.True(t, DraftHandle().IsDraft())
	assert.Equal(t, DraftHandleValue, DraftHandle().Wire())

	h := HandleFromWire(7)
	id, ok := h.ID()
	assert.False(t, h.IsDraft())
	assert.True(t, ok)
	assert.Equal(t, 7, id)

	assert.True(t, HandleFromWire(-1).IsDraft())
}

func TestThreadsUpdate_ForResource(t *testing.T) {
	u := ThreadsUpdate{
		OwnerID: "gh",
		Added: []*Thread{
			{ThreadID: "a", Resource: "file:///a.go"},
			{ThreadID: "b", Resource: "file:///b.go"},
			{ThreadID: "c"},
		},
		Removed: []*Thread{{ThreadID: "d", Resource: "file:///a.go"}},
		Pending: []PendingThread{{URI: "file:///a.go"}, {URI: "file:///b.go"}},
	}

	got := u.ForResource("file:///a.go")

	assert.Equal(t, "gh", got.OwnerID)
	assert.Len(t, got.Added, 1)
	assert.Equal(t, "a", got.Added[0].ThreadID)
	assert.Len(t, got.Removed, 1)
	assert.Empty(t, got.Changed)
	assert.Len(t, got.Pending, 1)
	assert.False(t, got.IsEmpty())
}

func TestThread_LastCommentBodyAndGlyphLine(t *testing.T) {
	th := &Thread{Range: textrange.Lines(3, 5).Ptr(), Comments: []Comment{{Body: "a"}, {Body: "b"}}}
	body, ok := th.LastCommentBody()
	assert.True(t, ok)
	assert.Equal(t, "b", body)
	assert.Equal(t, 5, th.GlyphLine())

	fileLevel := &Thread{}
	_, ok = fileLevel.LastCommentBody()
	assert.False(t, ok)
	assert.Equal(t, 0, fileLevel.GlyphLine())
}

func TestOpenViewPolicy_ShouldOpen(t *testing.T) {
	unresolved := &Thread{Comments: []Comment{{Body: "hi"}}, State: Unresolved}
	resolved := &Thread{Comments: []Comment{{Body: "hi"}}, State: Resolved}
	blank := &Thread{Comments: []Comment{{Body: "  "}}}

	tests := []struct {
		name     string
		policy   OpenViewPolicy
		thread   *Thread
		rendered bool
		want     bool
	}{
		{"file always opens", OpenViewFile, resolved, true, true},
		{"first file opens once", OpenViewFirstFile, resolved, false, true},
		{"first file already rendered", OpenViewFirstFile, resolved, true, false},
		{"unresolved opens", OpenViewFirstFileUnresolved, unresolved, false, true},
		{"resolved does not open", OpenViewFirstFileUnresolved, resolved, false, false},
		{"never", OpenViewNever, unresolved, false, false},
		{"blank comments never open", OpenViewFile, blank, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.policy.ShouldOpen(tt.thread, tt.rendered))
		})
	}
}
