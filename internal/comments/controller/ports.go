package controller

import (
	"context"
	"errors"

	"github.com/colonyops/margin/internal/core/comment"
	"github.com/colonyops/margin/internal/core/textrange"
)

var (
	// ErrNoCommentingRange is returned when no provider accepts a comment at
	// the requested range.
	ErrNoCommentingRange = errors.New("no commenting range at the current position")
	// ErrFileCommentsNotAllowed is returned for a file-level comment when no
	// provider accepts one.
	ErrFileCommentsNotAllowed = errors.New("comments are not supported for this file")
	// ErrNoModel is returned when the editor shows no document.
	ErrNoModel = errors.New("no document open")
	// ErrModelChanged is returned when the document was swapped while a
	// request was waiting on a provider.
	ErrModelChanged = errors.New("document changed during request")
	// ErrThreadNotFound is returned when a thread is not displayed.
	ErrThreadNotFound = errors.New("thread not displayed")
)

// DataSource is the comment service the controller reads from.
type DataSource interface {
	// DocumentComments returns one Info per provider for uri.
	DocumentComments(ctx context.Context, uri string) ([]comment.Info, error)
	// CreateThreadTemplate asks a provider for a new draft thread at r; a
	// nil r is a file-level thread.
	CreateThreadTemplate(ctx context.Context, ownerID, uri string, r *textrange.Range) (*comment.Thread, error)
	// RemoveContinueOnDraft consumes a draft registered for (owner, uri, r).
	RemoveContinueOnDraft(ownerID, uri string, r *textrange.Range) (string, bool)
	IsCommentingEnabled() bool
}

// Picker lets the user choose between providers that all accept a comment
// at the same place. ok is false when the choice was dismissed.
type Picker interface {
	Pick(ctx context.Context, actions []comment.Action) (action comment.Action, ok bool, err error)
}

// Panel is the comments panel.
type Panel interface {
	Open()
	// Rendered reports whether the panel has been shown before.
	Rendered() bool
}

// Gutter receives the hint whether space for comment glyphs is needed.
type Gutter interface {
	SetReserved(reserved bool)
}

type firstPicker struct{}

func (firstPicker) Pick(_ context.Context, actions []comment.Action) (comment.Action, bool, error) {
	return actions[0], true, nil
}

type nopPanel struct{}

func (nopPanel) Open()          {}
func (nopPanel) Rendered() bool { return true }

type nopGutter struct{}

func (nopGutter) SetReserved(bool) {}
