package eventbus

import (
	"context"
	"sync"
	"sync/atomic"
)

// Event names a bus topic.
type Event string

const (
	EventCommentingEnabledChanged Event = "commenting.enabled-changed"
	EventProviderRemoved          Event = "provider.removed"
	EventProviderSet              Event = "provider.set"
	EventRangesUpdated            Event = "ranges.updated"
	EventThreadsUpdated           Event = "threads.updated"
)

type envelope struct {
	event   Event
	payload any
	flushed chan struct{}
}

type subscriber struct {
	id uint64
	fn func(any)
}

// EventBus is an asynchronous typed bus. Published events are buffered and
// dispatched in order from the single goroutine running Start, so handlers
// never run concurrently with each other.
type EventBus struct {
	ch chan envelope

	mu     sync.RWMutex
	subs   map[Event][]subscriber
	nextID uint64

	hooks     hooks
	published atomic.Uint64
}

// New creates a bus with the given buffer size.
func New(bufferSize int) *EventBus {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &EventBus{
		ch:   make(chan envelope, bufferSize),
		subs: make(map[Event][]subscriber),
	}
}

// Start dispatches events until ctx is cancelled.
func (bus *EventBus) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case env := <-bus.ch:
			if env.flushed != nil {
				close(env.flushed)
				continue
			}
			bus.dispatch(env)
		}
	}
}

// Flush blocks until every event enqueued before the call has been
// dispatched. It must not be called from a handler.
func (bus *EventBus) Flush(ctx context.Context) error {
	done := make(chan struct{})
	select {
	case bus.ch <- envelope{flushed: done}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Published returns the number of events accepted by the bus.
func (bus *EventBus) Published() uint64 {
	return bus.published.Load()
}

func (bus *EventBus) dispatch(env envelope) {
	bus.mu.RLock()
	subs := make([]subscriber, len(bus.subs[env.event]))
	copy(subs, bus.subs[env.event])
	bus.mu.RUnlock()

	for _, s := range subs {
		bus.call(env, s.fn)
	}
}

func (bus *EventBus) call(env envelope, fn func(any)) {
	defer func() {
		if r := recover(); r != nil {
			bus.runOnPanic(env.event, env.payload, r)
		}
	}()
	fn(env.payload)
}

// subscribe registers fn for event and returns a func that removes it.
func (bus *EventBus) subscribe(event Event, fn func(any)) func() {
	bus.mu.Lock()
	bus.nextID++
	id := bus.nextID
	bus.subs[event] = append(bus.subs[event], subscriber{id: id, fn: fn})
	bus.mu.Unlock()

	bus.runOnSubscribe(event)

	var once sync.Once
	return func() {
		once.Do(func() {
			bus.mu.Lock()
			defer bus.mu.Unlock()
			subs := bus.subs[event]
			for i, s := range subs {
				if s.id == id {
					bus.subs[event] = append(subs[:i:i], subs[i+1:]...)
					break
				}
			}
		})
	}
}

// PublishCommentingEnabledChanged enqueues a commenting.enabled-changed event.
func (bus *EventBus) PublishCommentingEnabledChanged(p CommentingEnabledChangedPayload) {
	bus.send(EventCommentingEnabledChanged, p)
}

// SubscribeCommentingEnabledChanged registers fn for commenting.enabled-changed.
func (bus *EventBus) SubscribeCommentingEnabledChanged(fn func(CommentingEnabledChangedPayload)) func() {
	return bus.subscribe(EventCommentingEnabledChanged, func(p any) { fn(p.(CommentingEnabledChangedPayload)) })
}

// PublishProviderRemoved enqueues a provider.removed event.
func (bus *EventBus) PublishProviderRemoved(p ProviderRemovedPayload) {
	bus.send(EventProviderRemoved, p)
}

// SubscribeProviderRemoved registers fn for provider.removed.
func (bus *EventBus) SubscribeProviderRemoved(fn func(ProviderRemovedPayload)) func() {
	return bus.subscribe(EventProviderRemoved, func(p any) { fn(p.(ProviderRemovedPayload)) })
}

// PublishProviderSet enqueues a provider.set event.
func (bus *EventBus) PublishProviderSet(p ProviderSetPayload) {
	bus.send(EventProviderSet, p)
}

// SubscribeProviderSet registers fn for provider.set.
func (bus *EventBus) SubscribeProviderSet(fn func(ProviderSetPayload)) func() {
	return bus.subscribe(EventProviderSet, func(p any) { fn(p.(ProviderSetPayload)) })
}

// PublishRangesUpdated enqueues a ranges.updated event.
func (bus *EventBus) PublishRangesUpdated(p RangesUpdatedPayload) {
	bus.send(EventRangesUpdated, p)
}

// SubscribeRangesUpdated registers fn for ranges.updated.
func (bus *EventBus) SubscribeRangesUpdated(fn func(RangesUpdatedPayload)) func() {
	return bus.subscribe(EventRangesUpdated, func(p any) { fn(p.(RangesUpdatedPayload)) })
}

// PublishThreadsUpdated enqueues a threads.updated event.
func (bus *EventBus) PublishThreadsUpdated(p ThreadsUpdatedPayload) {
	bus.send(EventThreadsUpdated, p)
}

// SubscribeThreadsUpdated registers fn for threads.updated.
func (bus *EventBus) SubscribeThreadsUpdated(fn func(ThreadsUpdatedPayload)) func() {
	return bus.subscribe(EventThreadsUpdated, func(p any) { fn(p.(ThreadsUpdatedPayload)) })
}
