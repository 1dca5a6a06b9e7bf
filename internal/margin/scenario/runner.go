package scenario

import (
	"context"
	"errors"
	"fmt"

	"github.com/colonyops/margin/internal/comments/controller"
	"github.com/colonyops/margin/internal/comments/decorator"
	"github.com/colonyops/margin/internal/core/comment"
	"github.com/colonyops/margin/internal/core/document"
	"github.com/colonyops/margin/internal/core/textrange"
	"github.com/colonyops/margin/internal/margin"
)

// ErrWidgetNotFound is returned when a step references a thread that is not
// displayed.
var ErrWidgetNotFound = errors.New("no displayed thread matches")

// settleRounds bounds how often the runner drains the bus while handlers
// keep publishing follow-up events.
const settleRounds = 10

// Author is the author recorded on comments submitted by a scenario.
const Author = "you"

// Runner plays a scenario against an App.
type Runner struct {
	app       *margin.App
	sc        *Scenario
	providers map[string]*margin.MemoryProvider
	model     *document.Model
	editor    *document.Editor
	ctrl      *controller.Controller
}

// Snapshot is the observable state after a step.
type Snapshot struct {
	Step      int                `json:"step"`
	Action    string             `json:"action"`
	Error     string             `json:"error,omitempty"`
	Cursor    textrange.Position `json:"cursor"`
	Selection *textrange.Range   `json:"selection,omitempty"`
	Claims    []ClaimView        `json:"claims"`
	Threads   []ThreadView       `json:"threads"`
	Drafts    int                `json:"drafts"`
	Reserved  bool               `json:"reserved"`
}

// ClaimView is a claim as drawn.
type ClaimView struct {
	Owner    string             `json:"owner"`
	Range    textrange.Range    `json:"range"`
	Category decorator.Category `json:"category"`
	Emphasis bool               `json:"emphasis,omitempty"`
}

// ThreadView is a displayed thread widget.
type ThreadView struct {
	Owner    string            `json:"owner"`
	ID       string            `json:"id"`
	Range    *textrange.Range  `json:"range,omitempty"`
	Line     int               `json:"line"`
	Draft    bool              `json:"draft,omitempty"`
	Handle   int               `json:"handle"`
	Expanded bool              `json:"expanded"`
	State    string            `json:"state"`
	Comments []comment.Comment `json:"comments,omitempty"`
	Pending  string            `json:"pending,omitempty"`
}

// NewRunner registers the scenario's providers with app and opens the
// document in a new editor.
func NewRunner(ctx context.Context, app *margin.App, sc *Scenario, opts margin.EditorOptions) (*Runner, error) {
	r := &Runner{
		app:       app,
		sc:        sc,
		providers: make(map[string]*margin.MemoryProvider, len(sc.Providers)),
	}
	uri := sc.Document.URI

	for _, sp := range sc.Providers {
		p := margin.NewMemoryProvider(sp.Owner, sp.Extension, sp.Label)

		ranges := make([]textrange.Range, 0, len(sp.Ranges))
		for _, s := range sp.Ranges {
			rng, err := textrange.Parse(s)
			if err != nil {
				return nil, fmt.Errorf("provider %s: %w", sp.Owner, err)
			}
			ranges = append(ranges, rng)
		}
		if err := p.SetRanges(uri, ranges, sp.FileComments); err != nil {
			return nil, err
		}
		for _, t := range sp.Threads {
			if err := p.AddThread(t.ToThread(uri)); err != nil {
				return nil, fmt.Errorf("provider %s: %w", sp.Owner, err)
			}
		}

		app.Comments.Register(p)
		r.providers[sp.Owner] = p
	}

	for _, c := range sc.ContinueOn {
		rng, _ := ParseRange(c.Range)
		app.Comments.SetContinueOnDraft(c.Owner, uri, rng, c.Body)
	}

	r.editor, r.ctrl = app.OpenEditor(ctx, "scenario", nil, opts)
	if err := r.settle(ctx); err != nil {
		return nil, err
	}

	r.model = document.NewModel(uri, sc.Document.Text)
	r.editor.SetModel(r.model)
	if sc.Cursor != "" {
		pos, _ := textrange.ParsePosition(sc.Cursor)
		r.editor.SetCursor(pos)
	}
	if sc.Selection != "" {
		sel, _ := textrange.Parse(sc.Selection)
		r.editor.Select(sel.Start(), sel.End())
	}
	if err := r.settle(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

// App returns the application the scenario runs against.
func (r *Runner) App() *margin.App { return r.app }

// Scenario returns the scenario being played.
func (r *Runner) Scenario() *Scenario { return r.sc }

// Controller returns the comment controller of the scenario editor.
func (r *Runner) Controller() *controller.Controller { return r.ctrl }

// Editor returns the scenario editor.
func (r *Runner) Editor() *document.Editor { return r.editor }

// Model returns the document currently shown.
func (r *Runner) Model() *document.Model { return r.model }

// Provider returns the provider registered for owner.
func (r *Runner) Provider(owner string) (*margin.MemoryProvider, bool) {
	p, ok := r.providers[owner]
	return p, ok
}

// Close releases the editor's controller.
func (r *Runner) Close() { r.ctrl.Close() }

// Run plays every step, calling fn with the initial state and after each
// step. A step that fails records its error in the snapshot; Run only stops
// on cancellation.
func (r *Runner) Run(ctx context.Context, fn func(Snapshot)) error {
	fn(r.Snapshot(0, "open"))
	for i := range r.sc.Steps {
		snap, err := r.Step(ctx, i)
		if err != nil {
			return err
		}
		fn(snap)
	}
	return nil
}

// Step plays step i and returns the state once every follow-up event has
// been handled.
func (r *Runner) Step(ctx context.Context, i int) (Snapshot, error) {
	s := r.sc.Steps[i]
	actionErr := r.apply(ctx, s)
	if err := r.settle(ctx); err != nil {
		return Snapshot{}, err
	}

	snap := r.Snapshot(i+1, s.Kind())
	if actionErr != nil {
		snap.Error = actionErr.Error()
	}
	return snap, nil
}

func (r *Runner) apply(ctx context.Context, s Step) error {
	uri := r.sc.Document.URI

	switch s.Kind() {
	case "cursor":
		pos, err := textrange.ParsePosition(s.Cursor)
		if err != nil {
			return err
		}
		r.editor.SetCursor(pos)
	case "select":
		sel, err := textrange.Parse(s.Select)
		if err != nil {
			return err
		}
		r.editor.Select(sel.Start(), sel.End())
	case "hover":
		r.ctrl.Hover(*s.Hover)
	case "edit":
		rng, err := textrange.Parse(s.Edit.Range)
		if err != nil {
			return err
		}
		if err := r.model.ApplyEdit(document.Edit{Range: rng, Text: s.Edit.Text}); err != nil {
			return err
		}
		r.ctrl.Recompute()
	case "add":
		rng, err := ParseRange(s.Add)
		if err != nil {
			return err
		}
		_, err = r.ctrl.AddOrToggleCommentAtLine(ctx, rng)
		return err
	case "draft":
		w, err := r.widget(s.Draft.ThreadRef)
		if err != nil {
			return err
		}
		w.SetPendingComment(s.Draft.Text)
	case "submit":
		return r.submit(s.Submit)
	case "reload":
		r.Reload()
	case "thread.add":
		return r.providers[s.ThreadAdd.Owner].AddThread(s.ThreadAdd.Thread.ToThread(uri))
	case "thread.change":
		return r.providers[s.ThreadChange.Owner].ChangeThread(s.ThreadChange.Thread.ToThread(uri))
	case "thread.remove":
		return r.providers[s.ThreadRemove.Owner].RemoveThread(uri, s.ThreadRemove.Thread)
	case "pending":
		rng, err := ParseRange(s.Pending.Range)
		if err != nil {
			return err
		}
		return r.providers[s.Pending.Owner].ContinueDraft(uri, rng, s.Pending.Body, s.Pending.Reply)
	case "remove-provider":
		if s.RemoveProvider == "*" {
			r.app.Comments.UnregisterAll()
			clear(r.providers)
			return nil
		}
		delete(r.providers, s.RemoveProvider)
		return r.app.Comments.Unregister(s.RemoveProvider)
	case "enabled":
		r.app.Comments.SetEnabled(*s.Enabled)
	case "next":
		return r.navigate(s.Next)
	case "expand":
		switch s.Expand {
		case ExpandAll:
			r.ctrl.ExpandAll()
		case ExpandNone:
			r.ctrl.CollapseAll()
		case ExpandUnresolved:
			r.ctrl.ExpandUnresolved()
		}
	default:
		return fmt.Errorf("%w: unknown step", ErrInvalid)
	}
	return nil
}

func (r *Runner) navigate(target string) error {
	var ok bool
	switch target {
	case NextThread, PrevThread:
		_, ok = r.ctrl.NextThread(target == PrevThread)
	case NextRange, PrevRange:
		_, ok = r.ctrl.NextCommentingRange(target == PrevRange)
	}
	if !ok {
		return fmt.Errorf("nothing to navigate to")
	}
	return nil
}

func (r *Runner) submit(ref *ThreadRef) error {
	w, err := r.widget(*ref)
	if err != nil {
		return err
	}
	return r.Submit(w)
}

// Reload reopens the document in a fresh model with the same text.
func (r *Runner) Reload() {
	r.model = document.NewModel(r.sc.Document.URI, r.model.Text())
	r.editor.SetModel(r.model)
}

// Submit sends the pending comment of w to its provider. A draft thread is
// confirmed; an existing thread gets a reply.
func (r *Runner) Submit(w comment.Widget) error {
	t := w.Thread()
	p, ok := r.providers[w.OwnerID()]
	if !ok {
		return fmt.Errorf("%w: %s", margin.ErrUnknownProvider, w.OwnerID())
	}

	body := w.PendingComments().NewComment
	if body == "" {
		return errors.New("nothing to submit")
	}
	if !t.IsTemplate {
		reply := t.Clone()
		reply.Comments = append(reply.Comments, comment.Comment{
			ID:     fmt.Sprintf("%s-%d", t.ThreadID, len(t.Comments)+1),
			Author: Author,
			Body:   body,
		})
		w.SetPendingComment("")
		return p.ChangeThread(reply)
	}

	w.SetPendingComment("")
	_, err := p.Submit(t.Resource, t.ThreadID, Author, body)
	return err
}

// widget resolves a thread reference against the displayed widgets.
func (r *Runner) widget(ref ThreadRef) (comment.Widget, error) {
	for _, w := range r.ctrl.Widgets() {
		if ref.Owner != "" && w.OwnerID() != ref.Owner {
			continue
		}
		if ref.Thread != "" && w.Thread().ThreadID == ref.Thread {
			return w, nil
		}
		if ref.Thread == "" && w.GlyphLine() == ref.Line {
			return w, nil
		}
	}
	return nil, fmt.Errorf("%w: owner=%q thread=%q line=%d", ErrWidgetNotFound, ref.Owner, ref.Thread, ref.Line)
}

// settle drains the bus and waits for fetches until no handler publishes
// further events.
func (r *Runner) settle(ctx context.Context) error {
	for range settleRounds {
		before := r.app.Bus.Published()
		if err := r.app.Bus.Flush(ctx); err != nil {
			return fmt.Errorf("flush events: %w", err)
		}
		r.ctrl.Settle()
		if r.app.Bus.Published() == before {
			return nil
		}
	}
	return nil
}

// Settled waits for follow-up events of actions taken outside the scenario
// steps and returns the resulting state.
func (r *Runner) Settled(ctx context.Context, action string) (Snapshot, error) {
	if err := r.settle(ctx); err != nil {
		return Snapshot{}, err
	}
	return r.Snapshot(len(r.sc.Steps)+1, action), nil
}

// Snapshot captures the current state.
func (r *Runner) Snapshot(step int, action string) Snapshot {
	snap := Snapshot{
		Step:      step,
		Action:    action,
		Cursor:    r.editor.Cursor(),
		Selection: r.editor.Selection(),
		Claims:    []ClaimView{},
		Threads:   []ThreadView{},
		Drafts:    r.ctrl.Drafts().Len(),
		Reserved:  r.ctrl.Reserved(),
	}

	for _, c := range r.ctrl.Claims() {
		rng, ok := c.ActiveRange()
		if !ok {
			continue
		}
		snap.Claims = append(snap.Claims, ClaimView{
			Owner:    c.OwnerID,
			Range:    rng,
			Category: c.Category,
			Emphasis: c.Emphasis,
		})
	}

	for _, w := range r.ctrl.Widgets() {
		snap.Threads = append(snap.Threads, viewOf(w))
	}
	return snap
}

func viewOf(w comment.Widget) ThreadView {
	t := w.Thread()
	return ThreadView{
		Owner:    w.OwnerID(),
		ID:       t.ThreadID,
		Range:    t.Range,
		Line:     w.GlyphLine(),
		Draft:    t.Handle.IsDraft(),
		Handle:   t.Handle.Wire(),
		Expanded: w.Expanded(),
		State:    t.State.String(),
		Comments: t.Comments,
		Pending:  w.PendingComments().NewComment,
	}
}
