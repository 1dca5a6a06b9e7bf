// Package controller drives the comment engines for one editor: it follows
// model swaps, edits, cursor and selection changes and comment-service
// events, and exposes the user actions (add or toggle a comment, navigate,
// expand and collapse).
package controller

import (
	"context"
	"sync"
	"time"

	"github.com/colonyops/margin/internal/comments/decorator"
	"github.com/colonyops/margin/internal/comments/drafts"
	"github.com/colonyops/margin/internal/comments/reconcile"
	"github.com/colonyops/margin/internal/comments/scheduler"
	"github.com/colonyops/margin/internal/core/comment"
	"github.com/colonyops/margin/internal/core/document"
	"github.com/colonyops/margin/internal/core/eventbus"
	"github.com/colonyops/margin/internal/core/logging"
	"github.com/colonyops/margin/internal/core/textrange"
	"github.com/rs/zerolog"
)

// Options configures a controller. Zero values fall back to defaults.
type Options struct {
	Debounce time.Duration
	OpenView comment.OpenViewPolicy
	Picker   Picker
	Panel    Panel
	Gutter   Gutter
}

// Controller owns the claims, widgets and drafts of one editor.
//
// Every handler runs with mu held. Fetches run on their own goroutines and
// take mu again before delivering; the model generation is checked at that
// point so results for a swapped-out document are dropped.
type Controller struct {
	ctx     context.Context
	log     zerolog.Logger
	source  DataSource
	bus     *eventbus.EventBus
	factory comment.WidgetFactory
	editor  *document.Editor
	opts    Options

	// addSlot serializes add requests. Blocked senders are released in
	// arrival order.
	addSlot chan struct{}

	mu        sync.Mutex
	model     *document.Model
	gen       uint64
	infos     []comment.Info
	state     *reconcile.State
	drafts    *drafts.Cache
	decorator *decorator.Decorator
	reserved  bool
	mouse     bool
	enabled   bool

	debounce *scheduler.Debouncer
	initial  *scheduler.Latest[[]comment.Info]
	ranges   *scheduler.Latest[[]comment.Info]

	modelSubs  eventbus.Disposer
	globalSubs eventbus.Disposer
}

// New creates a controller for editor and subscribes it to the bus and the
// editor. ctx bounds every fetch the controller starts.
func New(
	ctx context.Context,
	log zerolog.Logger,
	editor *document.Editor,
	source DataSource,
	bus *eventbus.EventBus,
	factory comment.WidgetFactory,
	opts Options,
) *Controller {
	if opts.Picker == nil {
		opts.Picker = firstPicker{}
	}
	if opts.Panel == nil {
		opts.Panel = nopPanel{}
	}
	if opts.Gutter == nil {
		opts.Gutter = nopGutter{}
	}
	if !opts.OpenView.IsValid() {
		opts.OpenView = comment.OpenViewFirstFile
	}

	c := &Controller{
		ctx:     ctx,
		log:     logging.Component(log, "comments-controller").With().Str("editor_id", editor.ID()).Logger(),
		source:  source,
		bus:     bus,
		factory: factory,
		editor:  editor,
		opts:    opts,
		addSlot: make(chan struct{}, 1),
		drafts:  drafts.New(),
		enabled: source.IsCommentingEnabled(),
	}

	onError := func(err error) {
		c.log.Error().Err(err).Msg("failed to fetch document comments")
	}
	c.initial = scheduler.NewLatest[[]comment.Info](onError)
	c.ranges = scheduler.NewLatest[[]comment.Info](onError)
	c.debounce = scheduler.NewDebouncer(ctx, opts.Debounce)

	c.decorator = decorator.New(c.log, decorator.GlyphLookupFunc(c.hasThreadGlyph))
	c.decorator.OnDidChangeCount(func(n int) { c.mouse = n > 0 })

	c.globalSubs.Add(bus.SubscribeThreadsUpdated(func(p eventbus.ThreadsUpdatedPayload) { c.onThreadsUpdated(p.Update) }))
	c.globalSubs.Add(bus.SubscribeProviderRemoved(func(p eventbus.ProviderRemovedPayload) { c.onProviderRemoved(p.OwnerID) }))
	c.globalSubs.Add(bus.SubscribeProviderSet(func(eventbus.ProviderSetPayload) { c.recompute() }))
	c.globalSubs.Add(bus.SubscribeRangesUpdated(func(eventbus.RangesUpdatedPayload) { c.recomputeRanges() }))
	c.globalSubs.Add(bus.SubscribeCommentingEnabledChanged(func(p eventbus.CommentingEnabledChangedPayload) {
		c.onCommentingEnabledChanged(p.Enabled)
	}))

	c.globalSubs.Add(editor.OnDidChangeModel(c.onModelChanged))
	c.globalSubs.Add(editor.OnDidChangeCursor(func(p textrange.Position) { c.onCursorChanged(p.Line) }))
	c.globalSubs.Add(editor.OnDidChangeSelection(func(*textrange.Range) { c.onCursorChanged(c.editor.Cursor().Line) }))

	if m := editor.Model(); m != nil {
		c.onModelChanged(m)
	}
	return c
}

// Close releases every subscription and disposes the widgets, keeping
// their drafts.
func (c *Controller) Close() {
	c.globalSubs.Dispose()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.detachLocked()
	c.decorator.SetStore(nil)
}

func (c *Controller) hasThreadGlyph(line int) bool {
	return c.state != nil && c.state.Widgets.HasGlyphAt(line)
}

// detachLocked tears down everything tied to the current model.
func (c *Controller) detachLocked() {
	c.modelSubs.Dispose()
	c.debounce.Cancel()
	c.initial.Cancel()
	c.ranges.Cancel()
	if c.state != nil {
		reconcile.Teardown(c.state)
	}
	c.gen++
}

func (c *Controller) onModelChanged(m *document.Model) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.detachLocked()
	c.model = m
	c.infos = nil

	if m == nil {
		c.state = nil
		c.decorator.SetStore(nil)
		c.updateReservedLocked()
		return
	}

	c.log.Debug().Str("document_uri", m.URI()).Msg("model changed")
	c.state = reconcile.NewState(c.log, m.URI(), c.drafts)
	c.decorator.SetStore(m)
	c.decorator.SetCursorLine(c.editor.Cursor().Line)
	c.modelSubs.Add(m.OnDidChangeContent(func(document.ContentChange) { c.onContentChanged() }))

	if c.enabled {
		c.beginComputeLocked()
	}
	c.updateReservedLocked()
}

// beginComputeLocked starts the full comment fetch for the current model.
func (c *Controller) beginComputeLocked() {
	gen, uri := c.gen, c.model.URI()
	c.ranges.Cancel()
	c.initial.Run(c.ctx, func(ctx context.Context) ([]comment.Info, error) {
		return c.source.DocumentComments(ctx, uri)
	}, func(infos []comment.Info) {
		c.mu.Lock()
		defer c.mu.Unlock()
		if gen != c.gen {
			return
		}
		c.setCommentsLocked(infos)
	})
}

func (c *Controller) setCommentsLocked(infos []comment.Info) {
	if !c.enabled {
		return
	}
	c.infos = infos
	reconcile.Load(c.state, infos, c.env())
	c.decorator.Update(infos, -1, nil)
	c.updateReservedLocked()

	c.log.Debug().
		Int("providers", len(infos)).
		Int("widgets", c.state.Widgets.Len()).
		Int("claims", c.decorator.Count()).
		Msg("comments loaded")
}

func (c *Controller) onContentChanged() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scheduleRangesLocked()
}

func (c *Controller) scheduleRangesLocked() {
	if c.model == nil {
		return
	}
	gen, uri := c.gen, c.model.URI()
	c.ranges.Cancel()
	c.debounce.Trigger(func(ctx context.Context) {
		c.fetchRanges(ctx, gen, uri)
	})
}

// fetchRanges refreshes the claims only; widgets are left alone.
func (c *Controller) fetchRanges(ctx context.Context, gen uint64, uri string) {
	c.ranges.Run(ctx, func(ctx context.Context) ([]comment.Info, error) {
		return c.source.DocumentComments(ctx, uri)
	}, func(infos []comment.Info) {
		c.mu.Lock()
		defer c.mu.Unlock()
		if gen != c.gen || !c.enabled {
			return
		}
		c.decorator.Update(infos, -1, nil)
		c.updateReservedLocked()
	})
}

func (c *Controller) recompute() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.model == nil || !c.enabled {
		return
	}
	c.beginComputeLocked()
}

func (c *Controller) recomputeRanges() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled {
		return
	}
	c.scheduleRangesLocked()
}

func (c *Controller) onThreadsUpdated(u comment.ThreadsUpdate) {
	c.initial.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.model == nil || !c.enabled {
		return
	}
	u = u.ForResource(c.model.URI())
	if u.IsEmpty() {
		return
	}
	if !c.knownOwnerLocked(u.OwnerID) {
		c.log.Debug().Str("owner_id", u.OwnerID).Msg("threads update for unknown owner")
		return
	}

	res := reconcile.Apply(c.state, reconcile.BatchFrom(u), c.env())
	c.afterReconcileLocked(res)
}

func (c *Controller) knownOwnerLocked(ownerID string) bool {
	for _, info := range c.infos {
		if info.OwnerID == ownerID {
			return true
		}
	}
	return false
}

func (c *Controller) afterReconcileLocked(res reconcile.Result) {
	if res.Created > 0 || res.Removed > 0 || res.Updated > 0 {
		c.decorator.Refresh()
	}
	c.updateReservedLocked()
}

func (c *Controller) onProviderRemoved(ownerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ownerID == "" {
		c.drafts.Clear()
	} else {
		c.drafts.EvictOwner(ownerID)
	}

	if c.state != nil {
		for _, w := range c.state.Widgets.All() {
			if ownerID == "" || w.OwnerID() == ownerID {
				c.state.Widgets.Remove(w)
				w.Dispose()
			}
		}
		if ownerID != "" {
			c.state.ForgetOwner(ownerID)
		}
	}

	c.log.Debug().Str("owner_id", ownerID).Msg("provider removed")
	if c.model != nil && c.enabled {
		c.beginComputeLocked()
	}
}

func (c *Controller) onCommentingEnabledChanged(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.enabled = enabled
	if enabled {
		if c.model != nil {
			c.beginComputeLocked()
		}
		return
	}

	c.debounce.Cancel()
	c.initial.Cancel()
	c.ranges.Cancel()
	if c.state != nil {
		reconcile.Teardown(c.state)
	}
	c.infos = nil
	c.decorator.Update(nil, -1, nil)
	c.updateReservedLocked()
}

func (c *Controller) onCursorChanged(line int) {
	sel := c.editor.Selection()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.model == nil {
		return
	}
	c.decorator.UpdateSelection(line, sel)
}

// Hover re-derives the emphasis for the line under the mouse; line <= 0
// means the mouse left the gutter. Ignored while there are no claims.
func (c *Controller) Hover(line int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.mouse && line > 0 {
		return
	}
	c.decorator.UpdateHover(line)
}

func (c *Controller) updateReservedLocked() {
	want := c.decorator.HasCommentingRanges() || (c.state != nil && c.state.Widgets.Len() > 0)
	if want == c.reserved {
		return
	}
	c.reserved = want
	c.opts.Gutter.SetReserved(want)
}

// Recompute cancels any pending debounce and refreshes the claims now.
func (c *Controller) Recompute() {
	c.mu.Lock()
	if c.model == nil || !c.enabled {
		c.mu.Unlock()
		return
	}
	c.debounce.Cancel()
	gen, uri := c.gen, c.model.URI()
	c.mu.Unlock()

	c.fetchRanges(c.ctx, gen, uri)
	c.ranges.Wait()
}

// Settle waits for the in-flight comment and range fetches to deliver.
func (c *Controller) Settle() {
	c.initial.Wait()
	c.ranges.Wait()
}

// Claims returns the current claim set.
func (c *Controller) Claims() []decorator.Claim {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.decorator.Claims()
}

// Widgets returns the displayed widgets ordered by position.
func (c *Controller) Widgets() []comment.Widget {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == nil {
		return nil
	}
	return c.state.Widgets.Sorted()
}

// Infos returns the provider snapshot of the current document.
func (c *Controller) Infos() []comment.Info {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]comment.Info(nil), c.infos...)
}

// Drafts returns the draft cache shared across documents.
func (c *Controller) Drafts() *drafts.Cache { return c.drafts }

// Reserved reports whether gutter space is reserved for comment glyphs.
func (c *Controller) Reserved() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reserved
}

// LineHasCommentingRange reports whether a new comment can start at line.
func (c *Controller) LineHasCommentingRange(line int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.decorator.LineHasCommentingRange(line)
}

// MatchedActions returns one action per provider accepting a comment at rng.
// A nil rng asks for file-level comments.
func (c *Controller) MatchedActions(rng *textrange.Range) []comment.Action {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.decorator.MatchedActions(rng)
}
