// Package comment defines the comment-thread domain model shared by the
// reconciliation engines, the controller and comment providers, and the
// narrow interfaces those components use to talk to widgets.
package comment

import (
	"strings"

	"github.com/colonyops/margin/internal/core/textrange"
)

// ResolutionState is the resolved/unresolved flag of a thread.
type ResolutionState int

const (
	Unresolved ResolutionState = iota
	Resolved
)

// String returns the string representation of the resolution state.
func (s ResolutionState) String() string {
	switch s {
	case Unresolved:
		return "unresolved"
	case Resolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// CollapsibleState is the initial expansion state a provider requests.
type CollapsibleState int

const (
	Collapsed CollapsibleState = iota
	Expanded
)

// Handle identifies a thread on the provider side. A thread created locally
// (for example by "add comment at line") carries a draft handle until the
// provider confirms it.
type Handle struct {
	id        int
	confirmed bool
}

// DraftHandleValue is the wire value providers use for unsubmitted threads.
const DraftHandleValue = -1

// DraftHandle returns the handle of a locally created, unsubmitted thread.
func DraftHandle() Handle { return Handle{} }

// ConfirmedHandle returns a provider-assigned handle.
func ConfirmedHandle(id int) Handle { return Handle{id: id, confirmed: true} }

// HandleFromWire maps a provider's integer handle; -1 is a draft.
func HandleFromWire(v int) Handle {
	if v == DraftHandleValue {
		return DraftHandle()
	}
	return ConfirmedHandle(v)
}

// IsDraft reports whether the thread has not been confirmed by its provider.
func (h Handle) IsDraft() bool { return !h.confirmed }

// ID returns the provider handle. ok is false for drafts.
func (h Handle) ID() (id int, ok bool) { return h.id, h.confirmed }

// Wire returns the integer form of the handle.
func (h Handle) Wire() int {
	if !h.confirmed {
		return DraftHandleValue
	}
	return h.id
}

// Comment is one entry of a thread.
type Comment struct {
	ID     string `json:"id" yaml:"id" toml:"id"`
	Author string `json:"author,omitempty" yaml:"author" toml:"author"`
	Body   string `json:"body" yaml:"body" toml:"body"`
}

// Thread is an ordered list of comments owned by one provider and
// optionally anchored to a range. A nil Range is a file-level thread.
type Thread struct {
	OwnerID     string
	ThreadID    string
	Resource    string
	Range       *textrange.Range
	Comments    []Comment
	State       ResolutionState
	Collapsible CollapsibleState
	Handle      Handle
	CanReply    bool
	IsTemplate  bool
}

// Key returns the (owner, thread) identity of the thread.
func (t *Thread) Key() Key {
	return Key{OwnerID: t.OwnerID, ThreadID: t.ThreadID}
}

// LastCommentBody returns the body of the last comment. ok is false when
// the thread has no comments.
func (t *Thread) LastCommentBody() (string, bool) {
	if len(t.Comments) == 0 {
		return "", false
	}
	return t.Comments[len(t.Comments)-1].Body, true
}

// HasMeaningfulComments reports whether any comment has a non-blank body.
func (t *Thread) HasMeaningfulComments() bool {
	for _, c := range t.Comments {
		if strings.TrimSpace(c.Body) != "" {
			return true
		}
	}
	return false
}

// GlyphLine returns the line that shows the thread's gutter glyph: the end
// line of its range, or 0 for file-level threads.
func (t *Thread) GlyphLine() int {
	if t.Range == nil {
		return 0
	}
	return t.Range.EndLine
}

// Clone returns a deep copy of the thread.
func (t *Thread) Clone() *Thread {
	c := *t
	if t.Range != nil {
		c.Range = t.Range.Ptr()
	}
	c.Comments = append([]Comment(nil), t.Comments...)
	return &c
}

// Key identifies a thread across providers.
type Key struct {
	OwnerID  string
	ThreadID string
}

// PendingThread is a provider's request to (re)open a draft that has no
// confirmed identity yet, such as a comment continued from another session.
type PendingThread struct {
	OwnerID string
	URI     string
	Range   *textrange.Range
	Body    string
	IsReply bool
}

// ThreadsUpdate is one provider's batch of thread deltas.
type ThreadsUpdate struct {
	OwnerID string
	Added   []*Thread
	Removed []*Thread
	Changed []*Thread
	Pending []PendingThread
}

// ForResource returns the subset of the update that targets uri.
func (u ThreadsUpdate) ForResource(uri string) ThreadsUpdate {
	out := ThreadsUpdate{OwnerID: u.OwnerID}
	keep := func(in []*Thread) []*Thread {
		var res []*Thread
		for _, t := range in {
			if t != nil && t.Resource != "" && t.Resource == uri {
				res = append(res, t)
			}
		}
		return res
	}
	out.Added = keep(u.Added)
	out.Removed = keep(u.Removed)
	out.Changed = keep(u.Changed)
	for _, p := range u.Pending {
		if p.URI == uri {
			out.Pending = append(out.Pending, p)
		}
	}
	return out
}

// IsEmpty reports whether the update carries no deltas.
func (u ThreadsUpdate) IsEmpty() bool {
	return len(u.Added) == 0 && len(u.Removed) == 0 && len(u.Changed) == 0 && len(u.Pending) == 0
}
