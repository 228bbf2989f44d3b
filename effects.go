package rigid

import "time"

// effect is a one-shot deferred action tied to a body id. Removing the body
// cancels it, so a late timer never touches a body that was removed or a new
// body that reused the id.
type effect struct {
	id        int
	timer     Timer
	cancelled bool
}

// schedule runs fn under the engine lock once d has elapsed on the engine's
// TimeSource. Caller holds e.mu.
func (e *Engine) schedule(id int, d time.Duration, fn func()) {
	eff := &effect{id: id}
	e.effects[id] = append(e.effects[id], eff)
	eff.timer = e.time.AfterFunc(d, func() {
		e.lock()
		defer e.unlock()
		if eff.cancelled {
			return
		}
		e.dropEffect(eff)
		fn()
	})
}

// dropEffect forgets a fired effect. Caller holds e.mu.
func (e *Engine) dropEffect(eff *effect) {
	list := e.effects[eff.id]
	for i, x := range list {
		if x == eff {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(e.effects, eff.id)
		return
	}
	e.effects[eff.id] = list
}

// cancelEffects stops every pending effect for id. Caller holds e.mu.
func (e *Engine) cancelEffects(id int) {
	for _, eff := range e.effects[id] {
		eff.cancelled = true
		if eff.timer != nil {
			eff.timer.Stop()
		}
	}
	delete(e.effects, id)
}

// cancelAllEffects stops every pending effect. Caller holds e.mu.
func (e *Engine) cancelAllEffects() {
	for id := range e.effects {
		e.cancelEffects(id)
	}
}

// PendingEffects returns the number of timed effects waiting to fire.
func (e *Engine) PendingEffects() int {
	e.lock()
	defer e.unlock()
	n := 0
	for _, list := range e.effects {
		n += len(list)
	}
	return n
}

func checkDelay(d time.Duration) error {
	if d < 0 {
		return invalidParam("delay %v must not be negative", d)
	}
	return nil
}

// ApplyForceFor applies f to body id now and resets the applied force to
// zero after d.
func (e *Engine) ApplyForceFor(id int, f Vec2, d time.Duration) error {
	e.lock()
	defer e.unlock()
	b, err := e.body(id)
	if err != nil {
		return err
	}
	if err := checkDelay(d); err != nil {
		return e.fail(err)
	}
	if err := b.ApplyForce(f); err != nil {
		return e.fail(err)
	}
	e.refreshOnPlatform(b)
	e.schedule(id, d, func() {
		if b, ok := e.bodies[id]; ok {
			_ = b.ApplyForce(Vec2{})
		}
	})
	return nil
}

// Jump applies a vertical force of strength*mass to body id and resets it
// after d. With Y pointing down, a negative strength jumps upward.
func (e *Engine) Jump(id int, strength float32, d time.Duration) error {
	e.lock()
	defer e.unlock()
	b, err := e.body(id)
	if err != nil {
		return err
	}
	if err := checkDelay(d); err != nil {
		return e.fail(err)
	}
	if err := b.ApplyForce(Vec2{0, strength * b.Mass}); err != nil {
		return e.fail(err)
	}
	e.refreshOnPlatform(b)
	e.schedule(id, d, func() {
		if b, ok := e.bodies[id]; ok {
			_ = b.ApplyForce(Vec2{})
		}
	})
	return nil
}

// TriggerTimedEvent emits OnTimedEvent(id) after d. The body need not
// exist; removing a body with that id still cancels the event.
func (e *Engine) TriggerTimedEvent(id int, d time.Duration) error {
	e.lock()
	defer e.unlock()
	if err := checkDelay(d); err != nil {
		return e.fail(err)
	}
	e.schedule(id, d, func() {
		e.emit(Event{Kind: EventTimed, ID: id})
	})
	return nil
}
