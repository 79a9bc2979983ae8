package cantus

import "reflect"

// EventBus delivers frame-level notifications between the parts of a scene
// without them referencing each other. Handlers are keyed by event type and
// run synchronously, in subscription order, on the publishing goroutine.
//
// The zero value is ready to use.
type EventBus struct {
	handlers map[reflect.Type][]any
}

// EntitiesDestroyed is published by Scene.EndFrame with every entity
// destroyed during the frame. The slice is only valid for the duration of
// the handler call.
type EntitiesDestroyed struct {
	Entities []Entity
}

// Subscribe registers handler for events of type T.
func Subscribe[T any](bus *EventBus, handler func(T)) {
	if bus.handlers == nil {
		bus.handlers = make(map[reflect.Type][]any)
	}
	t := reflect.TypeFor[T]()
	bus.handlers[t] = append(bus.handlers[t], handler)
}

// Publish calls every handler subscribed to T with event. Publishing a type
// nobody subscribed to is a no-op.
func Publish[T any](bus *EventBus, event T) {
	for _, h := range bus.handlers[reflect.TypeFor[T]()] {
		h.(func(T))(event)
	}
}

// Subscribers returns how many handlers are registered for T.
func Subscribers[T any](bus *EventBus) int {
	return len(bus.handlers[reflect.TypeFor[T]()])
}
