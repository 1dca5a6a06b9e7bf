package margin

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/colonyops/margin/internal/comments/controller"
	"github.com/colonyops/margin/internal/core/comment"
	"github.com/colonyops/margin/internal/core/eventbus"
	"github.com/colonyops/margin/internal/core/logging"
	"github.com/colonyops/margin/internal/core/textrange"
)

var _ controller.DataSource = (*CommentService)(nil)

// CommentService is the in-process comment data source. Providers register
// with it and report their changes through it; every change is published
// on the bus.
type CommentService struct {
	bus     *eventbus.EventBus
	log     zerolog.Logger
	exclude []string

	mu         sync.RWMutex
	providers  []Provider
	enabled    bool
	continueOn map[continueKey]string
}

type continueKey struct {
	ownerID string
	uri     string
	rng     string
}

func newContinueKey(ownerID, uri string, r *textrange.Range) continueKey {
	k := continueKey{ownerID: ownerID, uri: uri, rng: "file"}
	if r != nil {
		k.rng = r.String()
	}
	return k
}

// NewCommentService creates a service. Documents whose path matches one of
// the exclude globs get no comments.
func NewCommentService(bus *eventbus.EventBus, log zerolog.Logger, enabled bool, exclude []string) *CommentService {
	return &CommentService{
		bus:        bus,
		log:        logging.Component(log, "comment-service"),
		exclude:    exclude,
		enabled:    enabled,
		continueOn: make(map[continueKey]string),
	}
}

// Register adds p, or replaces the provider with the same owner id in
// place.
func (s *CommentService) Register(p Provider) {
	s.mu.Lock()
	idx := slices.IndexFunc(s.providers, func(e Provider) bool { return e.OwnerID() == p.OwnerID() })
	if idx >= 0 {
		s.providers[idx] = p
	} else {
		s.providers = append(s.providers, p)
	}
	s.mu.Unlock()

	if a, ok := p.(attacher); ok {
		a.Attach(s)
	}

	s.log.Debug().Str("owner_id", p.OwnerID()).Msg("provider registered")
	s.bus.PublishProviderSet(eventbus.ProviderSetPayload{OwnerID: p.OwnerID()})
}

// Unregister removes the provider and its continue-on drafts.
func (s *CommentService) Unregister(ownerID string) error {
	s.mu.Lock()
	idx := slices.IndexFunc(s.providers, func(e Provider) bool { return e.OwnerID() == ownerID })
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownProvider, ownerID)
	}
	s.providers = slices.Delete(s.providers, idx, idx+1)
	for k := range s.continueOn {
		if k.ownerID == ownerID {
			delete(s.continueOn, k)
		}
	}
	s.mu.Unlock()

	s.log.Debug().Str("owner_id", ownerID).Msg("provider unregistered")
	s.bus.PublishProviderRemoved(eventbus.ProviderRemovedPayload{OwnerID: ownerID})
	return nil
}

// UnregisterAll removes every provider.
func (s *CommentService) UnregisterAll() {
	s.mu.Lock()
	s.providers = nil
	clear(s.continueOn)
	s.mu.Unlock()

	s.bus.PublishProviderRemoved(eventbus.ProviderRemovedPayload{})
}

// Providers returns the registered owner ids in registration order.
func (s *CommentService) Providers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, len(s.providers))
	for i, p := range s.providers {
		ids[i] = p.OwnerID()
	}
	return ids
}

func (s *CommentService) provider(ownerID string) (Provider, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.providers {
		if p.OwnerID() == ownerID {
			return p, true
		}
	}
	return nil, false
}

// Excluded reports whether uri matches an exclude glob.
func (s *CommentService) Excluded(uri string) bool {
	path := uriPath(uri)
	for _, pattern := range s.exclude {
		if ok, _ := doublestar.Match(pattern, path); ok {
			return true
		}
	}
	return false
}

func uriPath(uri string) string {
	path := uri
	if u, err := url.Parse(uri); err == nil && u.Scheme != "" {
		path = u.Host + u.Path
	}
	return strings.TrimPrefix(path, "/")
}

// DocumentComments queries every provider concurrently and returns their
// infos in registration order. A failing provider is logged and left out.
func (s *CommentService) DocumentComments(ctx context.Context, uri string) ([]comment.Info, error) {
	if s.Excluded(uri) {
		s.log.Debug().Str("document_uri", uri).Msg("document excluded from commenting")
		return nil, nil
	}

	s.mu.RLock()
	providers := slices.Clone(s.providers)
	s.mu.RUnlock()

	ctx = logging.WithDocumentURI(ctx, uri)
	results := make([]*comment.Info, len(providers))

	g, ctx := errgroup.WithContext(ctx)
	for i, p := range providers {
		g.Go(func() error {
			info, err := p.DocumentComments(ctx, uri)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				s.log.Warn().Ctx(logging.WithOwnerID(ctx, p.OwnerID())).Err(err).Msg("provider failed to return comments")
				return nil
			}
			info.OwnerID = p.OwnerID()
			results[i] = &info
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	infos := make([]comment.Info, 0, len(results))
	for _, info := range results {
		if info != nil {
			infos = append(infos, *info)
		}
	}
	return infos, nil
}

// CreateThreadTemplate asks the owner for a draft thread at r and publishes
// it as added.
func (s *CommentService) CreateThreadTemplate(ctx context.Context, ownerID, uri string, r *textrange.Range) (*comment.Thread, error) {
	p, ok := s.provider(ownerID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, ownerID)
	}

	t, err := p.CreateThreadTemplate(ctx, uri, r)
	if err != nil {
		return nil, fmt.Errorf("provider %s: %w", ownerID, err)
	}
	t.OwnerID = ownerID
	t.Resource = uri

	s.bus.PublishThreadsUpdated(eventbus.ThreadsUpdatedPayload{Update: comment.ThreadsUpdate{
		OwnerID: ownerID,
		Added:   []*comment.Thread{t.Clone()},
	}})
	return t, nil
}

// SetContinueOnDraft stores a draft to restore when a thread for (owner,
// uri, r) is next displayed.
func (s *CommentService) SetContinueOnDraft(ownerID, uri string, r *textrange.Range, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.continueOn[newContinueKey(ownerID, uri, r)] = body
}

// RemoveContinueOnDraft consumes the draft stored for (owner, uri, r).
func (s *CommentService) RemoveContinueOnDraft(ownerID, uri string, r *textrange.Range) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := newContinueKey(ownerID, uri, r)
	body, ok := s.continueOn[k]
	if ok {
		delete(s.continueOn, k)
	}
	return body, ok
}

// IsCommentingEnabled reports the global commenting switch.
func (s *CommentService) IsCommentingEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.enabled
}

// SetEnabled switches commenting on or off.
func (s *CommentService) SetEnabled(enabled bool) {
	s.mu.Lock()
	changed := s.enabled != enabled
	s.enabled = enabled
	s.mu.Unlock()

	if changed {
		s.bus.PublishCommentingEnabledChanged(eventbus.CommentingEnabledChangedPayload{Enabled: enabled})
	}
}

// UpdateThreads publishes a provider's thread deltas.
func (s *CommentService) UpdateThreads(u comment.ThreadsUpdate) error {
	if _, ok := s.provider(u.OwnerID); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProvider, u.OwnerID)
	}
	for _, list := range [][]*comment.Thread{u.Added, u.Removed, u.Changed} {
		for _, t := range list {
			if t.OwnerID == "" {
				t.OwnerID = u.OwnerID
			}
		}
	}
	s.bus.PublishThreadsUpdated(eventbus.ThreadsUpdatedPayload{Update: u})
	return nil
}

// UpdateRanges publishes that a provider's commenting ranges changed.
func (s *CommentService) UpdateRanges(ownerID string) error {
	if _, ok := s.provider(ownerID); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProvider, ownerID)
	}
	s.bus.PublishRangesUpdated(eventbus.RangesUpdatedPayload{OwnerID: ownerID})
	return nil
}
