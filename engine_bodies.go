package rigid

import (
	"github.com/chewxy/math32"
)

// withBody runs fn on body id under the lock. Errors from fn are reported
// through OnError and returned.
func (e *Engine) withBody(id int, fn func(b *Body) error) error {
	e.lock()
	defer e.unlock()
	b, err := e.body(id)
	if err != nil {
		return err
	}
	if err := fn(b); err != nil {
		return e.fail(err)
	}
	return nil
}

// readBody runs fn on body id under the lock and reports whether it ran.
func (e *Engine) readBody(id int, fn func(b *Body)) bool {
	e.lock()
	defer e.unlock()
	b, err := e.body(id)
	if err != nil {
		return false
	}
	fn(b)
	return true
}

// AddBody creates a body. The id must not already be in use.
func (e *Engine) AddBody(id int, x, y, w, h, mass, friction float32) error {
	e.lock()
	defer e.unlock()
	if _, ok := e.bodies[id]; ok {
		return e.fail(invalidParam("body %d already exists", id))
	}
	b, err := NewBody(id, x, y, w, h, mass, friction)
	if err != nil {
		return e.fail(err)
	}
	e.bodies[id] = b
	e.refreshOnPlatform(b)
	return nil
}

// RemoveBody deletes body id, cancels its timed effects, drops the follow
// relations naming it, detaches it from its container and destroys the
// container it parents.
func (e *Engine) RemoveBody(id int) error {
	e.lock()
	defer e.unlock()
	b, err := e.body(id)
	if err != nil {
		return err
	}
	e.removeLocked(b)
	return nil
}

func (e *Engine) removeLocked(b *Body) {
	id := b.ID
	e.cancelEffects(id)
	for f, rel := range e.follows {
		if rel.FollowerID == id || rel.LeaderID == id {
			delete(e.follows, f)
		}
	}
	if b.container != nil {
		b.container.Detach(b)
	}
	if c, ok := e.containers[id]; ok {
		c.DetachAll()
		delete(e.containers, id)
	}
	if e.camera.tracking && e.camera.trackID == id {
		e.camera.tracking = false
	}
	if e.hasParallax && e.parallaxTarget == id {
		e.hasParallax = false
	}
	delete(e.bodies, id)
}

// ClearBodies removes every body together with its effects, relations and
// containers.
func (e *Engine) ClearBodies() {
	e.lock()
	defer e.unlock()
	e.clearLocked()
}

func (e *Engine) clearLocked() {
	e.cancelAllEffects()
	for _, c := range e.containers {
		c.DetachAll()
	}
	clear(e.containers)
	clear(e.follows)
	clear(e.bodies)
	e.camera.tracking = false
	e.hasParallax = false
}

// HasBody reports whether id names a body. It does not report ErrNotFound.
func (e *Engine) HasBody(id int) bool {
	e.lock()
	defer e.unlock()
	_, ok := e.bodies[id]
	return ok
}

// Body returns a copy of body id. It does not report ErrNotFound.
func (e *Engine) Body(id int) (Body, bool) {
	e.lock()
	defer e.unlock()
	b, ok := e.bodies[id]
	if !ok {
		return Body{}, false
	}
	return *b, true
}

// BodyIDs returns the ids of all bodies in ascending order.
func (e *Engine) BodyIDs() []int {
	e.lock()
	defer e.unlock()
	return e.sortedIDs()
}

// Bodies returns copies of every body in ascending id order.
func (e *Engine) Bodies() []Body {
	e.lock()
	defer e.unlock()
	ids := e.sortedIDs()
	out := make([]Body, len(ids))
	for i, id := range ids {
		out[i] = *e.bodies[id]
	}
	return out
}

// BodyCount returns the number of bodies.
func (e *Engine) BodyCount() int {
	e.lock()
	defer e.unlock()
	return len(e.bodies)
}

// SetBodyProperties replaces position, size, mass and friction at once. The
// call is rejected as a whole when any value is invalid.
func (e *Engine) SetBodyProperties(id int, x, y, w, h, mass, friction float32) error {
	return e.withBody(id, func(b *Body) error {
		if err := validateShape(w, h, mass, friction); err != nil {
			return err
		}
		if err := finite("body position", Vec2{x, y}); err != nil {
			return err
		}
		b.Size = Vec2{w, h}
		b.Mass = mass
		b.Friction = friction
		b.Position = Vec2{x, y}.Plus(b.originOffset())
		e.moved(b)
		return nil
	})
}

// SetPosition places body id so its origin point lies at (x, y). Children
// of a container it parents follow.
func (e *Engine) SetPosition(id int, x, y float32) error {
	return e.withBody(id, func(b *Body) error {
		if err := finite("position", Vec2{x, y}); err != nil {
			return err
		}
		b.Position = Vec2{x, y}.Plus(b.originOffset())
		e.moved(b)
		return nil
	})
}

// SetPositionX sets only the horizontal coordinate of the origin point.
func (e *Engine) SetPositionX(id int, x float32) error {
	return e.withBody(id, func(b *Body) error {
		if err := finite("position", Vec2{x, 0}); err != nil {
			return err
		}
		b.Position.X = x + b.originOffset().X
		e.moved(b)
		return nil
	})
}

// SetPositionY sets only the vertical coordinate of the origin point.
func (e *Engine) SetPositionY(id int, y float32) error {
	return e.withBody(id, func(b *Body) error {
		if err := finite("position", Vec2{0, y}); err != nil {
			return err
		}
		b.Position.Y = y + b.originOffset().Y
		e.moved(b)
		return nil
	})
}

// Position returns the top-left corner of body id.
func (e *Engine) Position(id int) Vec2 {
	var p Vec2
	e.readBody(id, func(b *Body) { p = b.Position })
	return p
}

// SetVelocity sets both velocity components.
func (e *Engine) SetVelocity(id int, vx, vy float32) error {
	return e.withBody(id, func(b *Body) error {
		if err := finite("velocity", Vec2{vx, vy}); err != nil {
			return err
		}
		b.Velocity = Vec2{vx, vy}
		e.refreshOnPlatform(b)
		return nil
	})
}

// SetVelocityX sets the horizontal velocity.
func (e *Engine) SetVelocityX(id int, vx float32) error {
	return e.withBody(id, func(b *Body) error {
		if err := finite("velocity", Vec2{vx, 0}); err != nil {
			return err
		}
		b.Velocity.X = vx
		e.refreshOnPlatform(b)
		return nil
	})
}

// SetVelocityY sets the vertical velocity.
func (e *Engine) SetVelocityY(id int, vy float32) error {
	return e.withBody(id, func(b *Body) error {
		if err := finite("velocity", Vec2{0, vy}); err != nil {
			return err
		}
		b.Velocity.Y = vy
		e.refreshOnPlatform(b)
		return nil
	})
}

// Velocity returns the velocity of body id.
func (e *Engine) Velocity(id int) Vec2 {
	var v Vec2
	e.readBody(id, func(b *Body) { v = b.Velocity })
	return v
}

// SetSize sets width and height.
func (e *Engine) SetSize(id int, w, h float32) error {
	return e.withBody(id, func(b *Body) error {
		if !(w > 0) || !(h > 0) {
			return invalidParam("body size %gx%g must be positive", w, h)
		}
		b.Size = Vec2{w, h}
		e.refreshOnPlatform(b)
		return nil
	})
}

// SetWidth sets the width and keeps the height.
func (e *Engine) SetWidth(id int, w float32) error {
	return e.withBody(id, func(b *Body) error {
		if !(w > 0) {
			return invalidParam("body width %g must be positive", w)
		}
		b.Size.X = w
		e.refreshOnPlatform(b)
		return nil
	})
}

// SetHeight sets the height and keeps the width.
func (e *Engine) SetHeight(id int, h float32) error {
	return e.withBody(id, func(b *Body) error {
		if !(h > 0) {
			return invalidParam("body height %g must be positive", h)
		}
		b.Size.Y = h
		e.refreshOnPlatform(b)
		return nil
	})
}

// Size returns the width and height of body id.
func (e *Engine) Size(id int) Vec2 {
	var s Vec2
	e.readBody(id, func(b *Body) { s = b.Size })
	return s
}

// SetMass sets the mass, which must be positive.
func (e *Engine) SetMass(id int, mass float32) error {
	return e.withBody(id, func(b *Body) error {
		if !(mass > 0) {
			return invalidParam("body mass %g must be positive", mass)
		}
		b.Mass = mass
		return nil
	})
}

// Mass returns the mass of body id.
func (e *Engine) Mass(id int) float32 {
	var m float32
	e.readBody(id, func(b *Body) { m = b.Mass })
	return m
}

// SetFriction sets the per-tick velocity damping, in [0, 1).
func (e *Engine) SetFriction(id int, friction float32) error {
	return e.withBody(id, func(b *Body) error {
		if !(friction >= 0 && friction < 1) {
			return invalidParam("body friction %g must be in [0,1)", friction)
		}
		b.Friction = friction
		return nil
	})
}

// SetPlatform flags body id as a platform, or clears the flag. Every
// body's resting state is recomputed.
func (e *Engine) SetPlatform(id int, platform bool) error {
	return e.withBody(id, func(b *Body) error {
		b.Platform = platform
		for _, o := range e.bodies {
			e.refreshOnPlatform(o)
		}
		return nil
	})
}

// IsOnPlatform reports whether body id is resting on a platform.
func (e *Engine) IsOnPlatform(id int) bool {
	var on bool
	e.readBody(id, func(b *Body) { on = b.onPlatform })
	return on
}

// ApplyForce replaces the applied force of body id and adds f/mass to its
// velocity. The force stays recorded until overwritten.
func (e *Engine) ApplyForce(id int, fx, fy float32) error {
	return e.withBody(id, func(b *Body) error {
		if err := b.ApplyForce(Vec2{fx, fy}); err != nil {
			return err
		}
		e.refreshOnPlatform(b)
		return nil
	})
}

// SetForceX applies a force made of fx and the current vertical force.
func (e *Engine) SetForceX(id int, fx float32) error {
	return e.withBody(id, func(b *Body) error {
		if err := b.ApplyForce(Vec2{fx, b.appliedForce.Y}); err != nil {
			return err
		}
		e.refreshOnPlatform(b)
		return nil
	})
}

// SetForceY applies a force made of the current horizontal force and fy.
func (e *Engine) SetForceY(id int, fy float32) error {
	return e.withBody(id, func(b *Body) error {
		if err := b.ApplyForce(Vec2{b.appliedForce.X, fy}); err != nil {
			return err
		}
		e.refreshOnPlatform(b)
		return nil
	})
}

// Force returns the last force applied to body id.
func (e *Engine) Force(id int) Vec2 {
	var f Vec2
	e.readBody(id, func(b *Body) { f = b.appliedForce })
	return f
}

// ApplyTorque adds torque/mass to the angular acceleration integrated on
// the next tick.
func (e *Engine) ApplyTorque(id int, torque float32) error {
	return e.withBody(id, func(b *Body) error {
		return b.ApplyTorque(torque)
	})
}

// SetAngularVelocity sets the angular velocity of body id.
func (e *Engine) SetAngularVelocity(id int, w float32) error {
	return e.withBody(id, func(b *Body) error {
		if math32.IsNaN(w) || math32.IsInf(w, 0) {
			return invalidParam("angular velocity %g must be finite", w)
		}
		b.AngularVelocity = w
		return nil
	})
}

// AngularVelocity returns the angular velocity of body id.
func (e *Engine) AngularVelocity(id int) float32 {
	var w float32
	e.readBody(id, func(b *Body) { w = b.AngularVelocity })
	return w
}

// SetGravity sets the global gravity applied to bodies not on a platform.
func (e *Engine) SetGravity(x, y float32) error {
	e.lock()
	defer e.unlock()
	g := Vec2{x, y}
	if !g.IsFinite() {
		return e.fail(invalidParam("gravity (%g, %g) must be finite", x, y))
	}
	e.gravity = g
	return nil
}

// Gravity returns the global gravity.
func (e *Engine) Gravity() Vec2 {
	e.lock()
	defer e.unlock()
	return e.gravity
}

// AreColliding reports whether the rectangles of two bodies overlap.
func (e *Engine) AreColliding(id1, id2 int) bool {
	e.lock()
	defer e.unlock()
	a, err := e.body(id1)
	if err != nil {
		return false
	}
	b, err := e.body(id2)
	if err != nil {
		return false
	}
	return Overlaps(a, b)
}

// CollisionSide classifies where body id2 lies relative to body id1.
func (e *Engine) CollisionSide(id1, id2 int) Side {
	e.lock()
	defer e.unlock()
	a, err := e.body(id1)
	if err != nil {
		return SideNone
	}
	b, err := e.body(id2)
	if err != nil {
		return SideNone
	}
	return CollisionSide(a, b)
}

// ResolveElastic applies a perfectly elastic impulse between two bodies. It
// reports whether an impulse was applied; separating pairs are left alone.
func (e *Engine) ResolveElastic(id1, id2 int) bool {
	e.lock()
	defer e.unlock()
	a, err := e.body(id1)
	if err != nil {
		return false
	}
	b, err := e.body(id2)
	if err != nil {
		return false
	}
	return ResolveElastic(a, b)
}

// InvertDirection flips the velocity of body id per mode ("horizontal",
// "vertical" or "both") and emits OnDirectionInverted.
func (e *Engine) InvertDirection(id int, mode string) error {
	m, err := ParseInvertMode(mode)
	if err != nil {
		e.lock()
		defer e.unlock()
		return e.fail(err)
	}
	return e.InvertDirectionMode(id, m)
}

// InvertDirectionMode is InvertDirection with a typed mode.
func (e *Engine) InvertDirectionMode(id int, mode InvertMode) error {
	return e.withBody(id, func(b *Body) error {
		InvertDirection(b, mode)
		e.emit(Event{Kind: EventDirectionInverted, ID: id, Mode: mode})
		return nil
	})
}

// HandleCollisionAndInvert bounces body id1 off body id2 along the axis of
// larger centre separation, when id1 is moving toward id2 on that axis. It
// reports whether the velocity was inverted.
func (e *Engine) HandleCollisionAndInvert(id1, id2 int) bool {
	e.lock()
	defer e.unlock()
	a, err := e.body(id1)
	if err != nil {
		return false
	}
	b, err := e.body(id2)
	if err != nil {
		return false
	}
	mode, approaching := BounceAxis(a, b)
	if !approaching {
		return false
	}
	InvertDirection(a, mode)
	e.emit(Event{Kind: EventDirectionInverted, ID: id1, Mode: mode})
	return true
}

// IsStationary reports whether both velocity components are below the rest
// threshold. A missing body counts as stationary.
func (e *Engine) IsStationary(id int) bool {
	still := true
	e.readBody(id, func(b *Body) {
		v := b.Velocity.Abs()
		still = v.X < restEpsilon && v.Y < restEpsilon
	})
	return still
}

// IsJumping reports whether the body is off any platform with a vertical
// speed above the rest threshold.
func (e *Engine) IsJumping(id int) bool {
	var jumping bool
	e.readBody(id, func(b *Body) { jumping = isJumping(b) })
	return jumping
}

// IsMoving reports whether the body has speed above the rest threshold on
// either axis and is not jumping.
func (e *Engine) IsMoving(id int) bool {
	var moving bool
	e.readBody(id, func(b *Body) {
		v := b.Velocity.Abs()
		moving = (v.X > restEpsilon || v.Y > restEpsilon) && !isJumping(b)
	})
	return moving
}

func isJumping(b *Body) bool {
	return !b.onPlatform && math32.Abs(b.Velocity.Y) > restEpsilon
}

// VelocityAngle returns the direction of the velocity of body id in degrees,
// normalised to [0, 360).
func (e *Engine) VelocityAngle(id int) float32 {
	var deg float32
	e.readBody(id, func(b *Body) {
		deg = math32.Atan2(b.Velocity.Y, b.Velocity.X) * 180 / math32.Pi
		deg = math32.Mod(deg+360, 360)
	})
	return deg
}

// acceleration is the constant acceleration assumed by the predictions.
func (e *Engine) acceleration(b *Body) Vec2 {
	return b.appliedForce.Div(b.Mass).Plus(e.gravity)
}

// PredictPositions extrapolates every body t seconds ahead under its
// current velocity, applied force and gravity. Nothing is mutated.
func (e *Engine) PredictPositions(t float32) map[int]Vec2 {
	e.lock()
	defer e.unlock()
	out := make(map[int]Vec2, len(e.bodies))
	for id, b := range e.bodies {
		a := e.acceleration(b)
		out[id] = b.Position.Plus(b.Velocity.Scale(t)).Plus(a.Scale(0.5 * t * t))
	}
	return out
}

// PredictVelocity extrapolates the velocity of body id t seconds ahead.
func (e *Engine) PredictVelocity(id int, t float32) Vec2 {
	var v Vec2
	e.readBody(id, func(b *Body) {
		v = b.Velocity.Plus(e.acceleration(b).Scale(t))
	})
	return v
}

// SetOrigin selects the point of body id that SetPosition places: one of
// "TopLeft", "TopRight", "BottomRight", "BottomLeft", "Center" or "Custom".
// For "Custom", (cx, cy) is the point relative to the top-left corner.
func (e *Engine) SetOrigin(id int, origin string, cx, cy float32) error {
	o, err := ParseOrigin(origin)
	if err != nil {
		e.lock()
		defer e.unlock()
		return e.fail(err)
	}
	return e.SetOriginPoint(id, o, Vec2{cx, cy})
}

// SetOriginPoint is SetOrigin with a typed origin.
func (e *Engine) SetOriginPoint(id int, o Origin, custom Vec2) error {
	return e.withBody(id, func(b *Body) error {
		b.setOrigin(o, custom)
		return nil
	})
}

// Touch reports a touch at world point (x, y). The lowest-id body whose
// rectangle contains the point receives OnSpriteTouched. It returns that id
// and whether any body was hit.
func (e *Engine) Touch(x, y float32) (int, bool) {
	e.lock()
	defer e.unlock()
	for _, id := range e.sortedIDs() {
		if e.bodies[id].Bounds().Contains(x, y) {
			e.emit(Event{Kind: EventSpriteTouched, ID: id})
			return id, true
		}
	}
	return 0, false
}

// TouchScreen converts a screen point through the camera and calls Touch.
func (e *Engine) TouchScreen(sx, sy float32) (int, bool) {
	e.lock()
	x, y := e.camera.ScreenToWorld(sx, sy)
	e.unlock()
	return e.Touch(x, y)
}
