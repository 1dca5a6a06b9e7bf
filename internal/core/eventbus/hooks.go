package eventbus

import "sync"

// hooks holds observer callbacks for bus activity. They are kept apart from
// the typed Publish/Subscribe pairs so diagnostics never change dispatch.
type hooks struct {
	mu          sync.RWMutex
	onPublish   []func(Event, any)
	onDrop      []func(Event, any)
	onSubscribe []func(Event)
	onPanic     []func(Event, any, any)
}

// OnPublish registers a hook that fires after an event is enqueued.
func (bus *EventBus) OnPublish(fn func(Event, any)) {
	bus.hooks.mu.Lock()
	bus.hooks.onPublish = append(bus.hooks.onPublish, fn)
	bus.hooks.mu.Unlock()
}

// OnDrop registers a hook that fires when an event is dropped due to a full buffer.
func (bus *EventBus) OnDrop(fn func(Event, any)) {
	bus.hooks.mu.Lock()
	bus.hooks.onDrop = append(bus.hooks.onDrop, fn)
	bus.hooks.mu.Unlock()
}

// OnSubscribe registers a hook that fires after a subscriber is registered.
func (bus *EventBus) OnSubscribe(fn func(Event)) {
	bus.hooks.mu.Lock()
	bus.hooks.onSubscribe = append(bus.hooks.onSubscribe, fn)
	bus.hooks.mu.Unlock()
}

// OnPanic registers a hook that fires when a subscriber panics. The
// subscriber's panic is recovered so later subscribers still run.
func (bus *EventBus) OnPanic(fn func(Event, any, any)) {
	bus.hooks.mu.Lock()
	bus.hooks.onPanic = append(bus.hooks.onPanic, fn)
	bus.hooks.mu.Unlock()
}

// send enqueues an event without blocking the publisher.
func (bus *EventBus) send(event Event, payload any) {
	select {
	case bus.ch <- envelope{event: event, payload: payload}:
		bus.published.Add(1)
		for _, fn := range snapshot(&bus.hooks.mu, &bus.hooks.onPublish) {
			fn(event, payload)
		}
	default:
		for _, fn := range snapshot(&bus.hooks.mu, &bus.hooks.onDrop) {
			fn(event, payload)
		}
	}
}

func (bus *EventBus) runOnSubscribe(event Event) {
	for _, fn := range snapshot(&bus.hooks.mu, &bus.hooks.onSubscribe) {
		fn(event)
	}
}

func (bus *EventBus) runOnPanic(event Event, payload any, recovered any) {
	for _, fn := range snapshot(&bus.hooks.mu, &bus.hooks.onPanic) {
		func() {
			defer func() { recover() }() //nolint:errcheck
			fn(event, payload, recovered)
		}()
	}
}

// snapshot copies a hook list under the read lock.
func snapshot[F any](mu *sync.RWMutex, fns *[]F) []F {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]F, len(*fns))
	copy(out, *fns)
	return out
}
