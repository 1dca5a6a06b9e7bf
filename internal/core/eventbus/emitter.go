package eventbus

import "sync"

// Emitter is a synchronous, typed event channel owned by a single
// collaborator (a document model, an editor, a decorator). Fire calls every
// handler inline, in subscription order.
type Emitter[T any] struct {
	mu       sync.Mutex
	nextID   uint64
	handlers []emitterHandler[T]
}

type emitterHandler[T any] struct {
	id uint64
	fn func(T)
}

// Subscribe registers fn and returns a func that removes it.
func (e *Emitter[T]) Subscribe(fn func(T)) func() {
	e.mu.Lock()
	e.nextID++
	id := e.nextID
	e.handlers = append(e.handlers, emitterHandler[T]{id: id, fn: fn})
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		for i, h := range e.handlers {
			if h.id == id {
				e.handlers = append(e.handlers[:i:i], e.handlers[i+1:]...)
				return
			}
		}
	}
}

// Fire delivers v to every current handler.
func (e *Emitter[T]) Fire(v T) {
	e.mu.Lock()
	handlers := make([]emitterHandler[T], len(e.handlers))
	copy(handlers, e.handlers)
	e.mu.Unlock()

	for _, h := range handlers {
		h.fn(v)
	}
}

// Len returns the number of subscribed handlers.
func (e *Emitter[T]) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.handlers)
}
