package rigid

import (
	"fmt"
	"log"
	"sort"
	"time"
)

// Step advances the simulation by dt seconds. The clock calls it once per
// period; tests and replays call it directly.
//
// A tick runs INTEGRATE, SPATIAL_REBUILD, COLLIDE, BEHAVIORS, PARALLAX and
// NOTIFY in that order. If any phase panics or leaves a body with a
// non-finite position or velocity, the bodies are restored to their state
// at the start of the tick, the events of the tick are dropped and
// ErrTransientFault is reported. OnUpdate is emitted either way.
func (e *Engine) Step(dt float32) {
	e.lock()
	defer e.unlock()
	if e.closed {
		return
	}
	e.tick(dt)
}

func (e *Engine) tick(dt float32) {
	e.ticks++
	e.takeSnapshot()
	mark := len(e.pending)

	var stats TickStats
	stats.Bodies = len(e.bodies)
	if err := e.runPhases(dt, &stats); err != nil {
		e.restoreSnapshot()
		e.pending = e.pending[:mark]
		log.Printf("rigid: tick %d aborted: %v", e.ticks, err)
		e.emit(Event{Kind: EventError, Err: err})
		stats.Faulted = true
	}
	e.emit(Event{Kind: EventUpdate})

	e.stats = stats
	if e.debug {
		e.debugLog(e.ticks, stats)
	}
}

// runPhases executes the tick phases, converting a panic into an error.
func (e *Engine) runPhases(dt float32, st *TickStats) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("rigid: tick panicked: %v: %w", r, ErrTransientFault)
		}
	}()

	ids := e.sortedIDs()
	now := e.time.Now()

	t := time.Now()
	e.integrate(ids, dt, now)
	st.IntegrateTime = time.Since(t)

	t = time.Now()
	e.rebuildIndex(ids)
	st.RebuildTime = time.Since(t)
	st.TreeDepth = e.tree.Depth()

	t = time.Now()
	st.Candidates, st.Collisions = e.collide(ids)
	st.CollideTime = time.Since(t)

	t = time.Now()
	e.runBehaviors()
	st.BehaviorTime = time.Since(t)

	t = time.Now()
	e.updateParallax(dt)
	st.ParallaxTime = time.Since(t)

	if err := e.checkFinite(ids); err != nil {
		return err
	}

	t = time.Now()
	e.notifyMoved(ids)
	st.NotifyTime = time.Since(t)
	return nil
}

// integrate refreshes platform contact, applies gravity and advances every
// body.
func (e *Engine) integrate(ids []int, dt float32, now time.Time) {
	for _, id := range ids {
		b := e.bodies[id]
		e.refreshOnPlatform(b)
		if b.onPlatform {
			_ = b.ApplyForce(Vec2{})
		} else {
			_ = b.ApplyForce(e.gravity)
		}
		b.Update(dt, now)
	}
}

// rebuildIndex discards the quadtree and inserts every body again.
func (e *Engine) rebuildIndex(ids []int) {
	e.tree.Clear()
	for _, id := range ids {
		e.tree.Insert(e.bodies[id])
	}
}

// collide tests every candidate pair once and dispatches the overlapping
// ones. It returns the number of candidates examined and of collisions
// handled.
func (e *Engine) collide(ids []int) (candidates, collisions int) {
	seen := make(map[pairKey]struct{})
	var buf []*Body
	for _, id := range ids {
		a := e.bodies[id]
		buf = e.tree.Retrieve(buf[:0], a)
		sort.Slice(buf, func(i, j int) bool { return buf[i].ID < buf[j].ID })
		for _, b := range buf {
			if b == a {
				continue
			}
			key := makePairKey(a.ID, b.ID)
			if _, done := seen[key]; done {
				continue
			}
			seen[key] = struct{}{}
			candidates++
			if !Overlaps(a, b) {
				continue
			}
			collisions++
			e.dispatch(a, b)
		}
	}
	return candidates, collisions
}

// dispatch routes an overlapping pair: platform resolution when exactly one
// is a platform, otherwise a side-classified notification only.
func (e *Engine) dispatch(a, b *Body) {
	if a.Platform != b.Platform {
		body, platform := a, b
		if a.Platform {
			body, platform = b, a
		}
		if ResolvePlatform(body, platform, CollisionSide(body, platform)) {
			e.emit(Event{Kind: EventCollision, ID: body.ID, Other: platform.ID, Side: SideBottom})
		}
		return
	}

	if a.ID > b.ID {
		a, b = b, a
	}
	side := CollisionSide(a, b)
	if side == SideNone {
		return
	}
	e.emit(Event{Kind: EventCollision, ID: a.ID, Other: b.ID, Side: side})
}

// runBehaviors steers followers, then moves container children with their
// parents.
func (e *Engine) runBehaviors() {
	followers := make([]int, 0, len(e.follows))
	for id := range e.follows {
		followers = append(followers, id)
	}
	sort.Ints(followers)
	for _, id := range followers {
		rel := e.follows[id]
		follower, ok1 := e.bodies[rel.FollowerID]
		leader, ok2 := e.bodies[rel.LeaderID]
		if ok1 && ok2 {
			rel.Steer(follower, leader)
		}
	}

	parents := make([]int, 0, len(e.containers))
	for id, c := range e.containers {
		if c.parent.container == nil {
			parents = append(parents, id)
		}
	}
	sort.Ints(parents)
	for _, id := range parents {
		e.propagate(e.containers[id])
	}
}

// propagate moves c's children and then the children of any container a
// child parents.
func (e *Engine) propagate(c *Container) {
	c.Propagate()
	for _, ch := range c.children {
		if nested, ok := e.containers[ch.ID]; ok {
			e.propagate(nested)
		}
	}
}

// updateParallax moves the camera (tracking, then scrolling) and recomputes
// the layer offsets.
func (e *Engine) updateParallax(dt float32) {
	if e.camera.tracking {
		if b, ok := e.bodies[e.camera.trackID]; ok {
			e.camera.Snap(b)
		}
	}
	e.camera.update(dt)

	if !e.parallaxEnabled {
		return
	}
	var target *Body
	if e.hasParallax {
		target = e.bodies[e.parallaxTarget]
	}
	e.layers.applyParallax(e.camera.Position, target)
}

func (e *Engine) checkFinite(ids []int) error {
	for _, id := range ids {
		b := e.bodies[id]
		if !b.Position.IsFinite() || !b.Velocity.IsFinite() {
			return fmt.Errorf("rigid: body %d has non-finite state pos=%v vel=%v: %w",
				id, b.Position, b.Velocity, ErrTransientFault)
		}
	}
	return nil
}

// notifyMoved emits PositionChanged for each body that moved this tick.
func (e *Engine) notifyMoved(ids []int) {
	for _, id := range ids {
		b := e.bodies[id]
		if prev, ok := e.snapshot[id]; ok && prev.Position == b.Position {
			continue
		}
		e.emit(Event{Kind: EventPositionChanged, ID: id, X: b.Position.X, Y: b.Position.Y})
	}
}

// bodyState is the part of a Body a tick can change.
type bodyState struct {
	Position        Vec2
	Velocity        Vec2
	AngularVelocity float32
	angularAccel    float32
	appliedForce    Vec2
	onPlatform      bool
}

func (e *Engine) takeSnapshot() {
	if e.snapshot == nil {
		e.snapshot = make(map[int]bodyState, len(e.bodies))
	}
	clear(e.snapshot)
	for id, b := range e.bodies {
		e.snapshot[id] = bodyState{
			Position:        b.Position,
			Velocity:        b.Velocity,
			AngularVelocity: b.AngularVelocity,
			angularAccel:    b.angularAccel,
			appliedForce:    b.appliedForce,
			onPlatform:      b.onPlatform,
		}
	}
	e.snapCamera = e.camera.Position
}

func (e *Engine) restoreSnapshot() {
	for id, s := range e.snapshot {
		b, ok := e.bodies[id]
		if !ok {
			continue
		}
		b.Position = s.Position
		b.Velocity = s.Velocity
		b.AngularVelocity = s.AngularVelocity
		b.angularAccel = s.angularAccel
		b.appliedForce = s.appliedForce
		b.onPlatform = s.onPlatform
	}
	e.camera.Position = e.snapCamera
}
