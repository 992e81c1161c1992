package ecs

// Event is a generic ECS event payload.
type Event struct {
	Type string
	Data any
}

// RopeEventKind identifies rope lifecycle events.
type RopeEventKind string

const (
	RopeEventBuilt       RopeEventKind = "rope_built"
	RopeEventUnbuilt     RopeEventKind = "rope_unbuilt"
	RopeEventBuildFailed RopeEventKind = "rope_build_failed"
)

// RopeEvent is emitted when a rope changes state.
type RopeEvent struct {
	Rope     Entity
	Kind     RopeEventKind
	Segments int
	Err      error
}

// EventQueue is a simple FIFO queue.
type EventQueue struct {
	items []Event
}

// Push adds an event.
func (q *EventQueue) Push(evt Event) {
	if q == nil {
		return
	}
	q.items = append(q.items, evt)
}

// PushRope wraps a rope event.
func (q *EventQueue) PushRope(evt RopeEvent) {
	q.Push(Event{Type: string(evt.Kind), Data: evt})
}

// Drain returns all events and clears the queue.
func (q *EventQueue) Drain() []Event {
	if q == nil || len(q.items) == 0 {
		return nil
	}
	out := q.items
	q.items = nil
	return out
}

// Len returns the number of queued events.
func (q *EventQueue) Len() int {
	if q == nil {
		return 0
	}
	return len(q.items)
}
