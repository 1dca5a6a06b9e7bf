package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/colonyops/margin/internal/comments/controller"
	"github.com/colonyops/margin/internal/core/comment"
)

// pickRequestMsg asks the view to let the user choose a provider.
type pickRequestMsg struct {
	actions []comment.Action
	reply   chan pickReply
}

type pickReply struct {
	action comment.Action
	ok     bool
}

// Picker hands provider choices to the running view. Pick blocks until the
// view answers, so it must be called off the UI goroutine.
type Picker struct {
	requests chan pickRequestMsg
}

var _ controller.Picker = (*Picker)(nil)

// NewPicker returns a Picker with no pending request.
func NewPicker() *Picker {
	return &Picker{requests: make(chan pickRequestMsg)}
}

// Pick implements controller.Picker.
func (p *Picker) Pick(ctx context.Context, actions []comment.Action) (comment.Action, bool, error) {
	req := pickRequestMsg{actions: actions, reply: make(chan pickReply, 1)}
	select {
	case p.requests <- req:
	case <-ctx.Done():
		return comment.Action{}, false, ctx.Err()
	}

	select {
	case r := <-req.reply:
		return r.action, r.ok, nil
	case <-ctx.Done():
		return comment.Action{}, false, ctx.Err()
	}
}

// wait returns a command delivering the next pick request.
func (p *Picker) wait() tea.Cmd {
	return func() tea.Msg {
		return <-p.requests
	}
}

// pickForm is the provider choice shown over the document.
type pickForm struct {
	form   *huh.Form
	choice int
	req    pickRequestMsg
}

func newPickForm(req pickRequestMsg) *pickForm {
	pf := &pickForm{req: req}

	opts := make([]huh.Option[int], len(req.actions))
	for i, a := range req.actions {
		opts[i] = huh.NewOption(a.DisplayName(), i)
	}
	pf.form = huh.NewForm(huh.NewGroup(
		huh.NewSelect[int]().
			Title("Comment with").
			Options(opts...).
			Value(&pf.choice),
	)).WithShowHelp(false)
	return pf
}

// answer replies once the form is completed or aborted; done reports
// whether it did.
func (pf *pickForm) answer() (done bool) {
	switch pf.form.State {
	case huh.StateCompleted:
		pf.req.reply <- pickReply{action: pf.req.actions[pf.choice], ok: true}
		return true
	case huh.StateAborted:
		pf.req.reply <- pickReply{}
		return true
	}
	return false
}
