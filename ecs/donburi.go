package ecs

import (
	"sync"

	"github.com/phanxgames/rigid"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// EventType is the Donburi event type for rigid engine events.
var EventType = events.NewEventType[rigid.Event]()

// DonburiSink is a rigid.EventSink that forwards events into a Donburi
// world. Engine events arrive on the clock goroutine while Donburi worlds are
// single-threaded, so events are queued and published by Flush, which must
// run on the goroutine that owns the world.
type DonburiSink struct {
	world donburi.World

	mu    sync.Mutex
	queue []rigid.Event
}

// NewDonburiSink creates an EventSink backed by a Donburi world. Flushed
// events are published to EventType and can be consumed with
// events.Subscribe and ProcessEvents.
func NewDonburiSink(world donburi.World) *DonburiSink {
	return &DonburiSink{world: world}
}

func (s *DonburiSink) push(e rigid.Event) {
	s.mu.Lock()
	s.queue = append(s.queue, e)
	s.mu.Unlock()
}

// Flush publishes every queued event to EventType in arrival order and
// returns how many were published.
func (s *DonburiSink) Flush() int {
	s.mu.Lock()
	q := s.queue
	s.queue = nil
	s.mu.Unlock()
	for _, e := range q {
		EventType.Publish(s.world, e)
	}
	return len(q)
}

func (s *DonburiSink) OnUpdate() { s.push(rigid.Event{Kind: rigid.EventUpdate}) }

func (s *DonburiSink) OnPositionChanged(id int, x, y float32) {
	s.push(rigid.Event{Kind: rigid.EventPositionChanged, ID: id, X: x, Y: y})
}

func (s *DonburiSink) OnCollision(id1, id2 int, side rigid.Side) {
	s.push(rigid.Event{Kind: rigid.EventCollision, ID: id1, Other: id2, Side: side})
}

func (s *DonburiSink) OnError(err error) { s.push(rigid.Event{Kind: rigid.EventError, Err: err}) }

func (s *DonburiSink) OnSpriteTouched(id int) {
	s.push(rigid.Event{Kind: rigid.EventSpriteTouched, ID: id})
}

func (s *DonburiSink) OnDirectionInverted(id int, mode rigid.InvertMode) {
	s.push(rigid.Event{Kind: rigid.EventDirectionInverted, ID: id, Mode: mode})
}

func (s *DonburiSink) OnTimedEvent(id int) { s.push(rigid.Event{Kind: rigid.EventTimed, ID: id}) }

// BodyData is the component Mirror stores on each body entity.
type BodyData struct {
	ID         int
	Position   rigid.Vec2
	Velocity   rigid.Vec2
	Size       rigid.Vec2
	Platform   bool
	OnPlatform bool
}

// BodyComponent is the Donburi component type holding BodyData.
var BodyComponent = donburi.NewComponentType[BodyData]()

// Mirror maintains one Donburi entity per engine body.
type Mirror struct {
	world    donburi.World
	entities map[int]donburi.Entity
}

// NewMirror creates an empty mirror over world.
func NewMirror(world donburi.World) *Mirror {
	return &Mirror{world: world, entities: make(map[int]donburi.Entity)}
}

// Sync creates, updates and removes entities so the world holds exactly the
// engine's current bodies. Call it on the goroutine that owns the world.
func (m *Mirror) Sync(e *rigid.Engine) {
	bodies := e.Bodies()
	live := make(map[int]struct{}, len(bodies))
	for _, b := range bodies {
		live[b.ID] = struct{}{}
		ent, ok := m.entities[b.ID]
		if !ok || !m.world.Valid(ent) {
			ent = m.world.Create(BodyComponent)
			m.entities[b.ID] = ent
		}
		BodyComponent.SetValue(m.world.Entry(ent), BodyData{
			ID:         b.ID,
			Position:   b.Position,
			Velocity:   b.Velocity,
			Size:       b.Size,
			Platform:   b.Platform,
			OnPlatform: b.OnPlatform(),
		})
	}
	for id, ent := range m.entities {
		if _, ok := live[id]; ok {
			continue
		}
		if m.world.Valid(ent) {
			m.world.Remove(ent)
		}
		delete(m.entities, id)
	}
}

// Entity returns the entity mirroring body id.
func (m *Mirror) Entity(id int) (donburi.Entity, bool) {
	ent, ok := m.entities[id]
	return ent, ok
}
