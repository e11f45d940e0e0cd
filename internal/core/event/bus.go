package event

import (
	"reflect"
	"sync"
)

// Bus is a typed event bus with two delivery modes. Publish calls handlers
// immediately. Emit queues into a back buffer; events emitted in tick N are
// delivered in tick N+1 after SwapBuffers and DispatchAll.
type Bus struct {
	mu       sync.Mutex // only protects handler registration
	front    map[reflect.Type][]any
	back     map[reflect.Type][]any
	handlers map[reflect.Type][]handler
	nextID   uint64
}

type handler struct {
	id uint64
	fn func(any)
}

func NewBus() *Bus {
	return &Bus{
		front:    make(map[reflect.Type][]any),
		back:     make(map[reflect.Type][]any),
		handlers: make(map[reflect.Type][]handler),
	}
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Subscribe registers a handler for events of type T. The returned func
// removes it again; calling it more than once is harmless.
func Subscribe[T any](b *Bus, fn func(T)) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := typeOf[T]()
	b.nextID++
	id := b.nextID
	b.handlers[t] = append(b.handlers[t], handler{id: id, fn: func(ev any) { fn(ev.(T)) }})
	return func() { b.remove(t, id) }
}

// remove copies the handler list so a dispatch in progress keeps its view.
func (b *Bus) remove(t reflect.Type, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	old := b.handlers[t]
	kept := make([]handler, 0, len(old))
	for _, h := range old {
		if h.id != id {
			kept = append(kept, h)
		}
	}
	b.handlers[t] = kept
}

// Publish delivers event to every handler of T before returning.
func Publish[T any](b *Bus, event T) {
	for _, h := range b.handlers[typeOf[T]()] {
		h.fn(event)
	}
}

// Emit queues event into the back buffer.
func Emit[T any](b *Bus, event T) {
	t := typeOf[T]()
	b.back[t] = append(b.back[t], event)
}

// SwapBuffers rotates back→front and clears the new back buffer.
// Called once at tick start.
func (b *Bus) SwapBuffers() {
	b.front, b.back = b.back, b.front
	for k := range b.back {
		b.back[k] = b.back[k][:0]
	}
}

// DispatchAll delivers all front-buffer events to their handlers.
func (b *Bus) DispatchAll() {
	for t, events := range b.front {
		handlers := b.handlers[t]
		for _, ev := range events {
			for _, h := range handlers {
				h.fn(ev)
			}
		}
	}
}

// Pending returns the number of events waiting in the back buffer.
func (b *Bus) Pending() int {
	n := 0
	for _, evs := range b.back {
		n += len(evs)
	}
	return n
}
