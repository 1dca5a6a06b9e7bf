package margin

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/colonyops/margin/internal/core/comment"
	"github.com/colonyops/margin/internal/core/textrange"
	"github.com/colonyops/margin/pkg/randid"
)

// MemoryProvider is a provider backed by in-memory documents. Mutations are
// reported to the notifier it is attached to.
type MemoryProvider struct {
	ownerID     string
	extensionID string
	label       string

	mu         sync.Mutex
	docs       map[string]*memoryDoc
	notifier   Notifier
	nextHandle int
	latency    time.Duration
	failure    error
}

type memoryDoc struct {
	ranges  *comment.CommentingRanges
	threads []*comment.Thread
}

// NewMemoryProvider creates an empty provider.
func NewMemoryProvider(ownerID, extensionID, label string) *MemoryProvider {
	return &MemoryProvider{
		ownerID:     ownerID,
		extensionID: extensionID,
		label:       label,
		docs:        make(map[string]*memoryDoc),
		nextHandle:  1,
	}
}

func (p *MemoryProvider) OwnerID() string { return p.ownerID }

// Attach sets the notifier mutations are reported to.
func (p *MemoryProvider) Attach(n Notifier) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notifier = n
}

// SetLatency delays every DocumentComments call by d.
func (p *MemoryProvider) SetLatency(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.latency = d
}

// FailWith makes DocumentComments return err; nil restores normal replies.
func (p *MemoryProvider) FailWith(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failure = err
}

func (p *MemoryProvider) doc(uri string) *memoryDoc {
	d, ok := p.docs[uri]
	if !ok {
		d = &memoryDoc{}
		p.docs[uri] = d
	}
	return d
}

func (p *MemoryProvider) notify(fn func(n Notifier) error) error {
	p.mu.Lock()
	n := p.notifier
	p.mu.Unlock()
	if n == nil {
		return nil
	}
	return fn(n)
}

// SetRanges replaces the commenting ranges of uri.
func (p *MemoryProvider) SetRanges(uri string, ranges []textrange.Range, fileComments bool) error {
	p.mu.Lock()
	p.doc(uri).ranges = &comment.CommentingRanges{
		Ranges:       slices.Clone(ranges),
		FileComments: fileComments,
	}
	p.mu.Unlock()

	return p.notify(func(n Notifier) error { return n.UpdateRanges(p.ownerID) })
}

// AddThread stores t. Threads without a confirmed handle get one unless
// they are templates.
func (p *MemoryProvider) AddThread(t *comment.Thread) error {
	p.mu.Lock()
	d := p.doc(t.Resource)
	if slices.ContainsFunc(d.threads, func(e *comment.Thread) bool { return e.ThreadID == t.ThreadID }) {
		p.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrDuplicateThread, t.ThreadID)
	}
	t = t.Clone()
	t.OwnerID = p.ownerID
	if t.Handle.IsDraft() && !t.IsTemplate {
		t.Handle = comment.ConfirmedHandle(p.nextHandle)
		p.nextHandle++
	}
	d.threads = append(d.threads, t)
	p.mu.Unlock()

	return p.notify(func(n Notifier) error {
		return n.UpdateThreads(comment.ThreadsUpdate{OwnerID: p.ownerID, Added: []*comment.Thread{t.Clone()}})
	})
}

// RemoveThread deletes a thread.
func (p *MemoryProvider) RemoveThread(uri, threadID string) error {
	p.mu.Lock()
	d := p.doc(uri)
	idx := slices.IndexFunc(d.threads, func(e *comment.Thread) bool { return e.ThreadID == threadID })
	if idx < 0 {
		p.mu.Unlock()
		return fmt.Errorf("thread %s not found", threadID)
	}
	t := d.threads[idx]
	d.threads = slices.Delete(d.threads, idx, idx+1)
	p.mu.Unlock()

	return p.notify(func(n Notifier) error {
		return n.UpdateThreads(comment.ThreadsUpdate{OwnerID: p.ownerID, Removed: []*comment.Thread{t.Clone()}})
	})
}

// ChangeThread replaces the stored thread with the same id.
func (p *MemoryProvider) ChangeThread(t *comment.Thread) error {
	p.mu.Lock()
	d := p.doc(t.Resource)
	idx := slices.IndexFunc(d.threads, func(e *comment.Thread) bool { return e.ThreadID == t.ThreadID })
	if idx < 0 {
		p.mu.Unlock()
		return fmt.Errorf("thread %s not found", t.ThreadID)
	}
	t = t.Clone()
	t.OwnerID = p.ownerID
	t.Handle = d.threads[idx].Handle
	d.threads[idx] = t
	p.mu.Unlock()

	return p.notify(func(n Notifier) error {
		return n.UpdateThreads(comment.ThreadsUpdate{OwnerID: p.ownerID, Changed: []*comment.Thread{t.Clone()}})
	})
}

// Submit turns the template threadID into a confirmed thread holding body.
// The confirmed thread keeps the template's range.
func (p *MemoryProvider) Submit(uri, threadID, author, body string) (*comment.Thread, error) {
	p.mu.Lock()
	d := p.doc(uri)
	idx := slices.IndexFunc(d.threads, func(e *comment.Thread) bool { return e.ThreadID == threadID && e.IsTemplate })
	if idx < 0 {
		p.mu.Unlock()
		return nil, fmt.Errorf("draft thread %s not found", threadID)
	}
	draft := d.threads[idx]
	d.threads = slices.Delete(d.threads, idx, idx+1)

	t := &comment.Thread{
		OwnerID:     p.ownerID,
		ThreadID:    randid.Generate(8),
		Resource:    uri,
		Range:       draft.Range,
		Comments:    []comment.Comment{{ID: randid.Generate(6), Author: author, Body: body}},
		Collapsible: comment.Expanded,
		Handle:      comment.ConfirmedHandle(p.nextHandle),
		CanReply:    true,
	}
	p.nextHandle++
	d.threads = append(d.threads, t)
	p.mu.Unlock()

	err := p.notify(func(n Notifier) error {
		return n.UpdateThreads(comment.ThreadsUpdate{OwnerID: p.ownerID, Added: []*comment.Thread{t.Clone()}})
	})
	return t.Clone(), err
}

// ContinueDraft asks the editor to reopen an unsent draft at r.
func (p *MemoryProvider) ContinueDraft(uri string, r *textrange.Range, body string, isReply bool) error {
	return p.notify(func(n Notifier) error {
		return n.UpdateThreads(comment.ThreadsUpdate{
			OwnerID: p.ownerID,
			Pending: []comment.PendingThread{{OwnerID: p.ownerID, URI: uri, Range: r, Body: body, IsReply: isReply}},
		})
	})
}

// Threads returns copies of the threads stored for uri.
func (p *MemoryProvider) Threads(uri string) []*comment.Thread {
	p.mu.Lock()
	defer p.mu.Unlock()
	d, ok := p.docs[uri]
	if !ok {
		return nil
	}
	out := make([]*comment.Thread, len(d.threads))
	for i, t := range d.threads {
		out[i] = t.Clone()
	}
	return out
}

// DocumentComments returns copies of the threads of uri and its current
// ranges value. The ranges pointer only changes on SetRanges.
func (p *MemoryProvider) DocumentComments(ctx context.Context, uri string) (comment.Info, error) {
	p.mu.Lock()
	latency, failure := p.latency, p.failure
	p.mu.Unlock()

	if latency > 0 {
		select {
		case <-time.After(latency):
		case <-ctx.Done():
			return comment.Info{}, ctx.Err()
		}
	}
	if failure != nil {
		return comment.Info{}, failure
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	info := comment.Info{OwnerID: p.ownerID, ExtensionID: p.extensionID, Label: p.label}
	d, ok := p.docs[uri]
	if !ok {
		return info, nil
	}
	info.Ranges = d.ranges
	for _, t := range d.threads {
		info.Threads = append(info.Threads, t.Clone())
	}
	return info, nil
}

// CreateThreadTemplate stores and returns a new template thread at r.
func (p *MemoryProvider) CreateThreadTemplate(_ context.Context, uri string, r *textrange.Range) (*comment.Thread, error) {
	t := &comment.Thread{
		OwnerID:     p.ownerID,
		ThreadID:    "draft-" + randid.Generate(8),
		Resource:    uri,
		Collapsible: comment.Expanded,
		Handle:      comment.DraftHandle(),
		CanReply:    true,
		IsTemplate:  true,
	}
	if r != nil {
		t.Range = r.Ptr()
	}

	p.mu.Lock()
	p.doc(uri).threads = append(p.doc(uri).threads, t)
	p.mu.Unlock()

	return t.Clone(), nil
}
