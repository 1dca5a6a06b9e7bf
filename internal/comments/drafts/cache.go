// Package drafts keeps unsent comment text across widget teardown so a
// redisplayed thread picks up where the user left off.
package drafts

import (
	"maps"
	"sync"

	"github.com/colonyops/margin/internal/core/comment"
)

// Cache holds new-comment drafts (owner -> thread -> text) and edit drafts
// (owner -> thread -> comment -> text). Drafts are in-process only.
type Cache struct {
	mu       sync.RWMutex
	comments map[string]map[string]string
	edits    map[string]map[string]map[string]string
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{
		comments: make(map[string]map[string]string),
		edits:    make(map[string]map[string]map[string]string),
	}
}

// Retain records the unsent input of a thread being torn down. A
// new-comment draft is kept only when it is non-empty and differs from the
// thread's last submitted body; otherwise any previous draft is dropped.
// Edit drafts are kept when present and dropped otherwise.
func (c *Cache) Retain(ownerID, threadID string, pending comment.PendingComments, lastBody string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if pending.NewComment != "" && pending.NewComment != lastBody {
		owner := c.comments[ownerID]
		if owner == nil {
			owner = make(map[string]string)
			c.comments[ownerID] = owner
		}
		owner[threadID] = pending.NewComment
	} else if owner := c.comments[ownerID]; owner != nil {
		delete(owner, threadID)
		if len(owner) == 0 {
			delete(c.comments, ownerID)
		}
	}

	if len(pending.Edits) > 0 {
		owner := c.edits[ownerID]
		if owner == nil {
			owner = make(map[string]map[string]string)
			c.edits[ownerID] = owner
		}
		owner[threadID] = maps.Clone(pending.Edits)
	} else if owner := c.edits[ownerID]; owner != nil {
		delete(owner, threadID)
		if len(owner) == 0 {
			delete(c.edits, ownerID)
		}
	}
}

// NewComment returns the new-comment draft for a thread.
func (c *Cache) NewComment(ownerID, threadID string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	text, ok := c.comments[ownerID][threadID]
	return text, ok
}

// Edits returns a copy of the edit drafts for a thread, or nil.
func (c *Cache) Edits(ownerID, threadID string) map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	edits := c.edits[ownerID][threadID]
	if len(edits) == 0 {
		return nil
	}
	return maps.Clone(edits)
}

// EvictOwner drops every draft of an owner.
func (c *Cache) EvictOwner(ownerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.comments, ownerID)
	delete(c.edits, ownerID)
}

// Clear drops every draft.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.comments)
	clear(c.edits)
}

// Len returns the number of threads with any kind of draft.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := make(map[comment.Key]struct{})
	for owner, threads := range c.comments {
		for id := range threads {
			seen[comment.Key{OwnerID: owner, ThreadID: id}] = struct{}{}
		}
	}
	for owner, threads := range c.edits {
		for id := range threads {
			seen[comment.Key{OwnerID: owner, ThreadID: id}] = struct{}{}
		}
	}
	return len(seen)
}
