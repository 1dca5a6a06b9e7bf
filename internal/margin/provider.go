package margin

import (
	"context"
	"errors"

	"github.com/colonyops/margin/internal/core/comment"
	"github.com/colonyops/margin/internal/core/textrange"
)

var (
	// ErrUnknownProvider is returned for an owner id that is not registered.
	ErrUnknownProvider = errors.New("unknown comment provider")
	// ErrDuplicateThread is returned when a provider already holds a thread id.
	ErrDuplicateThread = errors.New("thread already exists")
)

// Provider supplies the threads and commenting ranges of one comment owner.
type Provider interface {
	OwnerID() string
	// DocumentComments returns the provider's view of uri.
	DocumentComments(ctx context.Context, uri string) (comment.Info, error)
	// CreateThreadTemplate creates an unsubmitted thread at r; a nil r is a
	// file-level thread.
	CreateThreadTemplate(ctx context.Context, uri string, r *textrange.Range) (*comment.Thread, error)
}

// Notifier receives a provider's change notifications.
type Notifier interface {
	UpdateThreads(u comment.ThreadsUpdate) error
	UpdateRanges(ownerID string) error
}

// attacher is implemented by providers that push their own changes.
type attacher interface {
	Attach(n Notifier)
}
