package rigid

import (
	"fmt"
	"sync"
)

// EventSink receives notifications from an Engine. Calls are made on the
// goroutine that produced the event (the clock goroutine for ticks, the
// caller for API operations, the timer goroutine for timed effects) and
// never while the engine lock is held, so handlers may call back into the
// Engine.
type EventSink interface {
	// OnUpdate fires once at the end of every tick.
	OnUpdate()
	// OnPositionChanged fires for every body whose position moved during a
	// tick, in ascending id order.
	OnPositionChanged(id int, x, y float32)
	// OnCollision fires for each overlapping pair detected during a tick.
	// Platform contacts report only the resting (bottom) case.
	OnCollision(id1, id2 int, side Side)
	// OnError reports a recoverable failure. err wraps ErrNotFound,
	// ErrInvalidParameter or ErrTransientFault.
	OnError(err error)
	// OnSpriteTouched fires when Touch hits a body.
	OnSpriteTouched(id int)
	// OnDirectionInverted fires after an inversion changed a body's velocity.
	OnDirectionInverted(id int, mode InvertMode)
	// OnTimedEvent fires when a TriggerTimedEvent delay elapses.
	OnTimedEvent(id int)
}

// NopSink discards every event. Embed it to implement only some methods.
type NopSink struct{}

func (NopSink) OnUpdate() {}

func (NopSink) OnPositionChanged(int, float32, float32) {}

func (NopSink) OnCollision(int, int, Side) {}

func (NopSink) OnError(error) {}

func (NopSink) OnSpriteTouched(int) {}

func (NopSink) OnDirectionInverted(int, InvertMode) {}

func (NopSink) OnTimedEvent(int) {}

// EventKind identifies the EventSink method an Event maps to.
type EventKind uint8

const (
	EventUpdate EventKind = iota
	EventPositionChanged
	EventCollision
	EventError
	EventSpriteTouched
	EventDirectionInverted
	EventTimed
)

var eventKindNames = [...]string{
	"update", "position-changed", "collision", "error",
	"sprite-touched", "direction-inverted", "timed",
}

func (k EventKind) String() string {
	if int(k) < len(eventKindNames) {
		return eventKindNames[k]
	}
	return fmt.Sprintf("EventKind(%d)", uint8(k))
}

// Event is a single notification as a value. Only the fields relevant to
// Kind are set.
type Event struct {
	Kind  EventKind
	ID    int
	Other int
	X, Y  float32
	Side  Side
	Mode  InvertMode
	Err   error
}

func (e Event) String() string {
	switch e.Kind {
	case EventPositionChanged:
		return fmt.Sprintf("%s(%d, %g, %g)", e.Kind, e.ID, e.X, e.Y)
	case EventCollision:
		return fmt.Sprintf("%s(%d, %d, %s)", e.Kind, e.ID, e.Other, e.Side)
	case EventError:
		return fmt.Sprintf("%s(%v)", e.Kind, e.Err)
	case EventDirectionInverted:
		return fmt.Sprintf("%s(%d, %s)", e.Kind, e.ID, e.Mode)
	case EventSpriteTouched, EventTimed:
		return fmt.Sprintf("%s(%d)", e.Kind, e.ID)
	default:
		return e.Kind.String()
	}
}

// Deliver calls the sink method matching e.Kind.
func (e Event) Deliver(sink EventSink) {
	switch e.Kind {
	case EventUpdate:
		sink.OnUpdate()
	case EventPositionChanged:
		sink.OnPositionChanged(e.ID, e.X, e.Y)
	case EventCollision:
		sink.OnCollision(e.ID, e.Other, e.Side)
	case EventError:
		sink.OnError(e.Err)
	case EventSpriteTouched:
		sink.OnSpriteTouched(e.ID)
	case EventDirectionInverted:
		sink.OnDirectionInverted(e.ID, e.Mode)
	case EventTimed:
		sink.OnTimedEvent(e.ID)
	}
}

// EventRecorder is an EventSink that stores every event in arrival order.
// It is safe for concurrent use.
type EventRecorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *EventRecorder) record(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

// Events returns a copy of the recorded events.
func (r *EventRecorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Kind returns the recorded events of kind k.
func (r *EventRecorder) Kind(k EventKind) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.events {
		if e.Kind == k {
			out = append(out, e)
		}
	}
	return out
}

// Reset discards everything recorded so far.
func (r *EventRecorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}

func (r *EventRecorder) OnUpdate() { r.record(Event{Kind: EventUpdate}) }

func (r *EventRecorder) OnPositionChanged(id int, x, y float32) {
	r.record(Event{Kind: EventPositionChanged, ID: id, X: x, Y: y})
}

func (r *EventRecorder) OnCollision(id1, id2 int, side Side) {
	r.record(Event{Kind: EventCollision, ID: id1, Other: id2, Side: side})
}

func (r *EventRecorder) OnError(err error) { r.record(Event{Kind: EventError, Err: err}) }

func (r *EventRecorder) OnSpriteTouched(id int) {
	r.record(Event{Kind: EventSpriteTouched, ID: id})
}

func (r *EventRecorder) OnDirectionInverted(id int, mode InvertMode) {
	r.record(Event{Kind: EventDirectionInverted, ID: id, Mode: mode})
}

func (r *EventRecorder) OnTimedEvent(id int) { r.record(Event{Kind: EventTimed, ID: id}) }
