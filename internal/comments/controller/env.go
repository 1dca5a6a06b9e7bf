package controller

import (
	"github.com/colonyops/margin/internal/comments/reconcile"
	"github.com/colonyops/margin/internal/core/comment"
	"github.com/colonyops/margin/internal/core/textrange"
)

// env adapts the controller to reconcile.Env. Its methods run with mu held.
type env struct {
	c *Controller
}

var _ reconcile.Env = env{}

func (c *Controller) env() env { return env{c: c} }

func (e env) NewWidget(ownerID string, t *comment.Thread, draft string, edits map[string]string) comment.Widget {
	return e.c.factory.NewWidget(e.c.model.URI(), ownerID, t, draft, edits)
}

func (e env) RemoveContinueOnDraft(ownerID string, r *textrange.Range) (string, bool) {
	return e.c.source.RemoveContinueOnDraft(ownerID, e.c.model.URI(), r)
}

func (e env) CreateThreadTemplate(ownerID string, r *textrange.Range) {
	if _, err := e.c.source.CreateThreadTemplate(e.c.ctx, ownerID, e.c.model.URI(), r); err != nil {
		e.c.log.Error().Err(err).Str("owner_id", ownerID).Msg("failed to resume pending comment")
	}
}

func (e env) OpenCommentsView(t *comment.Thread) {
	if e.c.opts.OpenView.ShouldOpen(t, e.c.opts.Panel.Rendered()) {
		e.c.log.Debug().Str("thread_id", t.ThreadID).Str("policy", string(e.c.opts.OpenView)).Msg("opening comments panel")
		e.c.opts.Panel.Open()
	}
}
