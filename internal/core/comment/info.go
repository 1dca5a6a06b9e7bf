package comment

import "github.com/colonyops/margin/internal/core/textrange"

// CommentingRanges is the set of ranges a provider accepts new comments in.
// Claims keep a pointer to the value they were derived from; pointer
// identity is how claims that came from the same snapshot are recognised.
type CommentingRanges struct {
	Ranges       []textrange.Range
	FileComments bool
}

// Info is one provider's view of a document.
type Info struct {
	OwnerID        string
	ExtensionID    string
	Label          string
	Threads        []*Thread
	Ranges         *CommentingRanges
	PendingThreads []PendingThread
}

// HasCommentingRanges reports whether the provider accepts any new comment.
func (i Info) HasCommentingRanges() bool {
	return i.Ranges != nil && (len(i.Ranges.Ranges) > 0 || i.Ranges.FileComments)
}

// Action is a provider that can accept a new comment at a given range.
type Action struct {
	OwnerID     string
	ExtensionID string
	Label       string
	Ranges      *CommentingRanges
}

// DisplayName returns the label, falling back to the owner id.
func (a Action) DisplayName() string {
	if a.Label != "" {
		return a.Label
	}
	return a.OwnerID
}
