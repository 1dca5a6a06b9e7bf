package scenario

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/margin/internal/comments/decorator"
	"github.com/colonyops/margin/internal/core/comment"
	"github.com/colonyops/margin/internal/core/config"
	"github.com/colonyops/margin/internal/core/eventbus"
	"github.com/colonyops/margin/internal/core/textrange"
	"github.com/colonyops/margin/internal/margin"
)

const text = "1\n2\n3\n4\n5\n6\n7\n8\n9\n10"

func newRunner(t *testing.T, sc *Scenario) *Runner {
	t.Helper()
	require.NoError(t, sc.Validate())

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cfg := config.DefaultConfig()
	app := margin.NewApp(&cfg, eventbus.New(64), zerolog.Nop())
	app.Start(ctx)

	r, err := NewRunner(ctx, app, sc, margin.EditorOptions{})
	require.NoError(t, err)
	t.Cleanup(r.Close)
	return r
}

func baseScenario(steps ...Step) *Scenario {
	return &Scenario{
		Document: Document{URI: "file:///main.go", Text: text},
		Providers: []Provider{{
			Owner:        "gh",
			Label:        "GitHub",
			Ranges:       []string{"1-8"},
			FileComments: true,
			Threads: []Thread{{
				ID:       "t1",
				Range:    "3",
				Comments: []comment.Comment{{ID: "c1", Body: "first"}},
			}},
		}},
		Steps: steps,
	}
}

func play(t *testing.T, r *Runner) []Snapshot {
	t.Helper()
	var snaps []Snapshot
	require.NoError(t, r.Run(context.Background(), func(s Snapshot) { snaps = append(snaps, s) }))
	return snaps
}

func threadAt(s Snapshot, line int) *ThreadView {
	for i := range s.Threads {
		if s.Threads[i].Line == line {
			return &s.Threads[i]
		}
	}
	return nil
}

func TestRunner_Open(t *testing.T) {
	r := newRunner(t, baseScenario())
	snap := r.Snapshot(0, "open")

	require.Len(t, snap.Threads, 1)
	assert.Equal(t, "t1", snap.Threads[0].ID)
	assert.Equal(t, 3, snap.Threads[0].Line)
	assert.True(t, snap.Reserved)

	require.Len(t, snap.Claims, 2)
	assert.Equal(t, decorator.CategoryHover, snap.Claims[0].Category)
	assert.Equal(t, 1, snap.Claims[0].Range.StartLine)
	assert.Equal(t, decorator.CategoryPlain, snap.Claims[1].Category)
	assert.Equal(t, 8, snap.Claims[1].Range.EndLine)
}

func TestRunner_ThreadHandles(t *testing.T) {
	sc := baseScenario(Step{Add: "6"})
	handle := 42
	sc.Providers[0].Threads[0].Handle = &handle

	snaps := play(t, newRunner(t, sc))
	require.Len(t, snaps, 2)

	existing := threadAt(snaps[1], 3)
	require.NotNil(t, existing)
	assert.False(t, existing.Draft)
	assert.Equal(t, 42, existing.Handle)

	added := threadAt(snaps[1], 6)
	require.NotNil(t, added)
	assert.True(t, added.Draft)
	assert.Equal(t, comment.DraftHandleValue, added.Handle)
}

func TestRunner_AddDraftSubmit(t *testing.T) {
	r := newRunner(t, baseScenario(
		Step{Add: "6"},
		Step{Draft: &DraftStep{ThreadRef: ThreadRef{Line: 6}, Text: "nit"}},
		Step{Submit: &ThreadRef{Line: 6}},
	))
	snaps := play(t, r)
	require.Len(t, snaps, 4)

	added := threadAt(snaps[1], 6)
	require.NotNil(t, added)
	assert.True(t, added.Draft)
	assert.True(t, added.Expanded)

	assert.Equal(t, "nit", threadAt(snaps[2], 6).Pending)

	submitted := threadAt(snaps[3], 6)
	require.NotNil(t, submitted)
	assert.Empty(t, snaps[3].Error)
	assert.False(t, submitted.Draft)
	require.Len(t, submitted.Comments, 1)
	assert.Equal(t, "nit", submitted.Comments[0].Body)
	assert.Empty(t, submitted.Pending)
	assert.Len(t, snaps[3].Threads, 2)
}

func TestRunner_ReplyToThread(t *testing.T) {
	r := newRunner(t, baseScenario(
		Step{Draft: &DraftStep{ThreadRef: ThreadRef{Thread: "t1"}, Text: "agreed"}},
		Step{Submit: &ThreadRef{Owner: "gh", Thread: "t1"}},
	))
	snaps := play(t, r)

	last := threadAt(snaps[2], 3)
	require.NotNil(t, last)
	require.Len(t, last.Comments, 2)
	assert.Equal(t, "agreed", last.Comments[1].Body)
	assert.Equal(t, Author, last.Comments[1].Author)
}

func TestRunner_AddTwiceToggles(t *testing.T) {
	r := newRunner(t, baseScenario(Step{Add: "6"}, Step{Add: "6"}))
	snaps := play(t, r)

	require.Len(t, snaps[2].Threads, 2, "second add toggles the existing draft")
	assert.False(t, threadAt(snaps[2], 6).Expanded)
}

func TestRunner_AddOutsideRange(t *testing.T) {
	r := newRunner(t, baseScenario(Step{Add: "10"}))
	snaps := play(t, r)

	assert.Contains(t, snaps[1].Error, "no commenting range")
	assert.Len(t, snaps[1].Threads, 1)
}

func TestRunner_DraftSurvivesReload(t *testing.T) {
	r := newRunner(t, baseScenario(
		Step{Draft: &DraftStep{ThreadRef: ThreadRef{Thread: "t1"}, Text: "unsent"}},
		Step{Reload: true},
	))
	snaps := play(t, r)

	assert.Equal(t, "unsent", threadAt(snaps[2], 3).Pending)
}

func TestRunner_PendingResumesDraft(t *testing.T) {
	r := newRunner(t, baseScenario(
		Step{Pending: &PendingStep{Owner: "gh", Range: "7", Body: "from last time"}},
	))
	snaps := play(t, r)

	resumed := threadAt(snaps[1], 7)
	require.NotNil(t, resumed)
	assert.True(t, resumed.Draft)
	assert.Equal(t, "from last time", resumed.Pending)
}

func TestRunner_ProviderThreadSteps(t *testing.T) {
	r := newRunner(t, baseScenario(
		Step{ThreadAdd: &ThreadStep{Owner: "gh", Thread: Thread{ID: "t2", Range: "5"}}},
		Step{ThreadChange: &ThreadStep{Owner: "gh", Thread: Thread{ID: "t2", Range: "5", Resolved: true}}},
		Step{ThreadRemove: &ThreadRef{Owner: "gh", Thread: "t1"}},
	))
	snaps := play(t, r)

	assert.Len(t, snaps[1].Threads, 2)
	assert.Equal(t, "resolved", threadAt(snaps[2], 5).State)
	require.Len(t, snaps[3].Threads, 1)
	assert.Equal(t, "t2", snaps[3].Threads[0].ID)
}

func TestRunner_RemoveProviderAndDisable(t *testing.T) {
	off, on := false, true
	r := newRunner(t, baseScenario(
		Step{Enabled: &off},
		Step{Enabled: &on},
		Step{RemoveProvider: "gh"},
	))
	snaps := play(t, r)

	assert.Empty(t, snaps[1].Claims)
	assert.Empty(t, snaps[1].Threads)
	assert.False(t, snaps[1].Reserved)

	assert.Len(t, snaps[2].Threads, 1)
	assert.NotEmpty(t, snaps[2].Claims)

	assert.Empty(t, snaps[3].Threads)
	assert.Empty(t, snaps[3].Claims)
}

func TestRunner_Navigation(t *testing.T) {
	sc := baseScenario(
		Step{Next: NextThread},
		Step{Cursor: "9"},
		Step{Next: NextRange},
	)
	sc.Providers[0].Ranges = []string{"2", "6"}
	r := newRunner(t, sc)
	snaps := play(t, r)

	assert.Equal(t, 3, snaps[1].Cursor.Line)
	assert.Equal(t, 2, snaps[3].Cursor.Line, "range navigation wraps to the first range")
}

func TestRunner_SelectionClaims(t *testing.T) {
	r := newRunner(t, baseScenario(Step{Select: "4-6"}))
	snaps := play(t, r)

	var categories []decorator.Category
	for _, c := range snaps[1].Claims {
		categories = append(categories, c.Category)
	}
	assert.Contains(t, categories, decorator.CategoryMultiline)
}

func TestRunner_ReviewFile(t *testing.T) {
	sc, err := Load(filepath.Join("testdata", "review.yaml"))
	require.NoError(t, err)

	r := newRunner(t, sc)
	snaps := play(t, r)
	require.Len(t, snaps, 5)

	added := threadAt(snaps[1], 6)
	require.NotNil(t, added)
	assert.Equal(t, "restored", added.Pending, "continue-on draft is restored")

	final := snaps[4]
	assert.Empty(t, final.Error)
	require.Len(t, final.Threads, 2)
	submitted := threadAt(final, 6)
	require.NotNil(t, submitted)
	assert.False(t, submitted.Draft)
	assert.Equal(t, "use log", submitted.Comments[0].Body)
	assert.Equal(t, 6, final.Cursor.Line)
}

func TestRunner_SubmitOutsideSteps(t *testing.T) {
	ctx := context.Background()
	r := newRunner(t, baseScenario())

	w, err := r.Controller().AddOrToggleCommentAtLine(ctx, textrange.Line(5).Ptr())
	require.NoError(t, err)
	require.NotNil(t, w)
	w.SetPendingComment("outside")
	require.NoError(t, r.Submit(w))

	snap, err := r.Settled(ctx, "add")
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Step)

	th := threadAt(snap, 5)
	require.NotNil(t, th)
	require.Len(t, th.Comments, 1)
	assert.Equal(t, "outside", th.Comments[0].Body)
}
