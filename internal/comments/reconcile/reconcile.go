// Package reconcile applies provider thread deltas to the set of displayed
// thread widgets. A batch runs through four reducers in a fixed order,
// removed, changed, added, pending, so an added thread never collides with a
// stale copy removed in the same batch. Unsent input survives every step.
package reconcile

import (
	"slices"
	"strings"

	"github.com/colonyops/margin/internal/comments/drafts"
	"github.com/colonyops/margin/internal/core/comment"
	"github.com/colonyops/margin/internal/core/logging"
	"github.com/colonyops/margin/internal/core/textrange"
	"github.com/rs/zerolog"
)

// Env is what the reducers need from the host.
type Env interface {
	// NewWidget creates and shows a widget for t.
	NewWidget(ownerID string, t *comment.Thread, draft string, edits map[string]string) comment.Widget
	// RemoveContinueOnDraft consumes a draft another session left for
	// (owner, range) on this document.
	RemoveContinueOnDraft(ownerID string, r *textrange.Range) (string, bool)
	// CreateThreadTemplate asks the owner to materialise a draft thread at r.
	// The thread comes back later as an added thread.
	CreateThreadTemplate(ownerID string, r *textrange.Range)
	// OpenCommentsView is offered a thread that just received its first
	// comments; the host applies its panel policy.
	OpenCommentsView(t *comment.Thread)
}

// Batch is one owner's deltas for the current document.
type Batch struct {
	OwnerID string
	Added   []*comment.Thread
	Removed []*comment.Thread
	Changed []*comment.Thread
	Pending []comment.PendingThread
}

// BatchFrom converts a provider update already filtered to one document.
func BatchFrom(u comment.ThreadsUpdate) Batch {
	return Batch{
		OwnerID: u.OwnerID,
		Added:   u.Added,
		Removed: u.Removed,
		Changed: u.Changed,
		Pending: u.Pending,
	}
}

// Result summarises what a batch did.
type Result struct {
	Created int
	Removed int
	Updated int
	Resumed int
	// LayoutChanged is set when widgets were created and the host should
	// re-evaluate gutter space.
	LayoutChanged bool
}

type continueOn struct {
	ownerID string
	rng     *textrange.Range
	body    string
}

// State is the per-document reconciliation state.
type State struct {
	URI     string
	Widgets *WidgetSet
	Drafts  *drafts.Cache

	log        zerolog.Logger
	threads    map[string][]*comment.Thread
	continueOn []continueOn
}

// NewState creates the state for one document. cache outlives the state and
// is shared across document swaps.
func NewState(log zerolog.Logger, uri string, cache *drafts.Cache) *State {
	return &State{
		URI:     uri,
		Widgets: &WidgetSet{},
		Drafts:  cache,
		log:     logging.Component(log, "reconcile").With().Str("document_uri", uri).Logger(),
		threads: make(map[string][]*comment.Thread),
	}
}

// Threads returns the known threads of an owner.
func (st *State) Threads(ownerID string) []*comment.Thread {
	return slices.Clone(st.threads[ownerID])
}

// SetThreads replaces the known threads of an owner.
func (st *State) SetThreads(ownerID string, threads []*comment.Thread) {
	st.threads[ownerID] = slices.Clone(threads)
}

// Owners returns the owners with known threads.
func (st *State) Owners() []string {
	owners := make([]string, 0, len(st.threads))
	for o := range st.threads {
		owners = append(owners, o)
	}
	slices.Sort(owners)
	return owners
}

// ForgetOwner drops the threads and continue-on entries of an owner.
func (st *State) ForgetOwner(ownerID string) {
	delete(st.threads, ownerID)
	st.continueOn = slices.DeleteFunc(st.continueOn, func(c continueOn) bool {
		return c.ownerID == ownerID
	})
}

// Apply runs b through the four reducers in order.
func Apply(st *State, b Batch, env Env) Result {
	var res Result
	st.removed(b, &res)
	st.changed(b, env, &res)
	st.added(b, env, &res)
	st.pending(b, env, &res)

	st.log.Debug().
		Str("owner_id", b.OwnerID).
		Int("created", res.Created).
		Int("removed", res.Removed).
		Int("updated", res.Updated).
		Int("resumed", res.Resumed).
		Msg("threads reconciled")
	return res
}

// Load replaces every displayed thread with the threads in infos: current
// widgets are torn down into the draft cache, then each thread is shown
// again with its cached drafts and pending threads are resumed.
func Load(st *State, infos []comment.Info, env Env) Result {
	Teardown(st)
	clear(st.threads)

	var res Result
	for _, info := range infos {
		st.threads[info.OwnerID] = nil
		for _, t := range info.Threads {
			if t == nil {
				continue
			}
			st.display(info.OwnerID, t, env)
			res.Created++
		}
		st.pending(Batch{OwnerID: info.OwnerID, Pending: info.PendingThreads}, env, &res)
	}
	res.LayoutChanged = res.Created > 0
	return res
}

// Teardown disposes every widget, saving its unsent input in the draft cache.
func Teardown(st *State) {
	for _, w := range st.Widgets.clear() {
		t := w.Thread()
		if t.ThreadID != "" {
			last, _ := t.LastCommentBody()
			st.Drafts.Retain(w.OwnerID(), t.ThreadID, w.PendingComments(), last)
		}
		w.Dispose()
	}
}

func (st *State) removed(b Batch, res *Result) {
	for _, t := range b.Removed {
		st.dropThread(b.OwnerID, t.ThreadID)

		w, ok := st.Widgets.Find(b.OwnerID, t.ThreadID)
		if !ok {
			st.log.Debug().Str("owner_id", b.OwnerID).Str("thread_id", t.ThreadID).Msg("removed thread not displayed")
			continue
		}
		st.Widgets.Remove(w)
		w.Dispose()
		res.Removed++
	}
}

func (st *State) changed(b Batch, env Env, res *Result) {
	for _, t := range b.Changed {
		st.replaceThread(b.OwnerID, t)

		w, ok := st.Widgets.Find(b.OwnerID, t.ThreadID)
		if !ok {
			st.log.Debug().Str("owner_id", b.OwnerID).Str("thread_id", t.ThreadID).Msg("changed thread not displayed")
			continue
		}
		wasEmpty := len(w.Thread().Comments) == 0
		w.Update(t)
		res.Updated++

		if wasEmpty && len(t.Comments) > 0 {
			env.OpenCommentsView(t)
		}
	}
}

func (st *State) added(b Batch, env Env, res *Result) {
	for _, t := range b.Added {
		if _, ok := st.Widgets.Find(b.OwnerID, t.ThreadID); ok {
			continue
		}

		if w, ok := st.Widgets.FindDraftAt(b.OwnerID, t.Range); ok {
			st.dropThread(b.OwnerID, w.Thread().ThreadID)
			st.threads[b.OwnerID] = append(st.threads[b.OwnerID], t)
			w.Update(t)
			res.Updated++
			continue
		}

		st.display(b.OwnerID, t, env)
		res.Created++
		res.LayoutChanged = true
	}
}

func (st *State) pending(b Batch, env Env, res *Result) {
	for _, p := range b.Pending {
		w, ok := st.Widgets.FindAt(b.OwnerID, p.Range)

		switch {
		case ok && p.IsReply:
			env.RemoveContinueOnDraft(b.OwnerID, p.Range)
			w.SetPendingComment(p.Body)
			res.Resumed++
		case ok:
			env.RemoveContinueOnDraft(b.OwnerID, p.Range)
			w.SetPendingComment(mergePending(w.PendingComments().NewComment, p.Body))
			w.Reveal("")
			res.Resumed++
		case !p.IsReply:
			st.continueOn = append(st.continueOn, continueOn{ownerID: b.OwnerID, rng: p.Range, body: p.Body})
			env.CreateThreadTemplate(b.OwnerID, p.Range)
			res.Resumed++
		default:
			st.log.Debug().Str("owner_id", b.OwnerID).Msg("pending reply without a thread")
		}
	}
}

// display creates the widget for t, seeding it with drafts.
func (st *State) display(ownerID string, t *comment.Thread, env Env) {
	draft, ok := st.Drafts.NewComment(ownerID, t.ThreadID)
	if !ok {
		draft, ok = st.takeContinueOn(ownerID, t.Range)
	}
	if !ok {
		draft, _ = env.RemoveContinueOnDraft(ownerID, t.Range)
	}
	edits := st.Drafts.Edits(ownerID, t.ThreadID)

	st.Widgets.Add(env.NewWidget(ownerID, t, draft, edits))
	if !slices.Contains(st.threads[ownerID], t) {
		st.threads[ownerID] = append(st.threads[ownerID], t)
	}
}

func (st *State) takeContinueOn(ownerID string, r *textrange.Range) (string, bool) {
	for i, c := range st.continueOn {
		if c.ownerID == ownerID && textrange.EqualPtr(c.rng, r) {
			st.continueOn = slices.Delete(st.continueOn, i, i+1)
			return c.body, true
		}
	}
	return "", false
}

func (st *State) dropThread(ownerID, threadID string) {
	if threadID == "" {
		return
	}
	st.threads[ownerID] = slices.DeleteFunc(st.threads[ownerID], func(t *comment.Thread) bool {
		return t.ThreadID == threadID
	})
}

func (st *State) replaceThread(ownerID string, t *comment.Thread) {
	for i, existing := range st.threads[ownerID] {
		if existing.ThreadID == t.ThreadID {
			st.threads[ownerID][i] = t
			return
		}
	}
}

// mergePending combines text already typed in a widget with a resumed
// draft, keeping whichever contains the other.
func mergePending(existing, incoming string) string {
	switch {
	case strings.Contains(incoming, existing):
		return incoming
	case strings.Contains(existing, incoming):
		return existing
	default:
		return existing + "\n" + incoming
	}
}
