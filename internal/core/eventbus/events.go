// Package eventbus provides a typed publish/subscribe event bus for
// comment-service events, plus small synchronous emitters and disposers used
// by per-document collaborators.
package eventbus

import "github.com/colonyops/margin/internal/core/comment"

// Events defines all event types and their payload structs.
var Events = map[string]any{
	// Keep list sorted A-Z
	"commenting.enabled-changed": CommentingEnabledChangedPayload{},
	"provider.removed":           ProviderRemovedPayload{},
	"provider.set":               ProviderSetPayload{},
	"ranges.updated":             RangesUpdatedPayload{},
	"threads.updated":            ThreadsUpdatedPayload{},
}

// CommentingEnabledChangedPayload is emitted when commenting is globally
// switched on or off.
type CommentingEnabledChangedPayload struct {
	Enabled bool
}

// ProviderRemovedPayload is emitted when a comment provider unregisters.
// An empty OwnerID means every provider was removed.
type ProviderRemovedPayload struct {
	OwnerID string
}

// ProviderSetPayload is emitted when a comment provider registers.
type ProviderSetPayload struct {
	OwnerID string
}

// RangesUpdatedPayload is emitted when a provider's commenting ranges change.
type RangesUpdatedPayload struct {
	OwnerID string
}

// ThreadsUpdatedPayload carries one provider's batch of thread deltas.
type ThreadsUpdatedPayload struct {
	Update comment.ThreadsUpdate
}
