package rigid

import (
	"math"
	"time"

	"github.com/chewxy/math32"
)

// restEpsilon is the per-axis magnitude below which both the applied force
// and the velocity count as zero, letting Update skip integration.
const restEpsilon float32 = 0.5

// oscillation drives one axis of a body's position along a sine wave.
type oscillation struct {
	active    bool
	amplitude float32
	period    float64 // milliseconds
	center    float32
	start     time.Time
}

// at returns the oscillated coordinate at the given wall-clock time. The
// phase is reduced to one period in float64 so oscillations running for
// days keep sub-millisecond resolution.
func (o *oscillation) at(now time.Time) float32 {
	elapsedMs := float64(now.Sub(o.start)) / float64(time.Millisecond)
	phase := 2 * math.Pi * math.Mod(elapsedMs, o.period) / o.period
	return o.center + o.amplitude*float32(math.Sin(phase))
}

// Body is a simulated axis-aligned rectangle. Position is the top-left
// corner; Size is width and height.
//
// Exported fields are plain data. Bodies owned by an Engine must be mutated
// through the Engine so container propagation and platform state stay
// consistent; the engine hands out copies.
type Body struct {
	ID       int
	Position Vec2
	Velocity Vec2
	Size     Vec2
	Mass     float32
	Friction float32

	// AngularVelocity is bookkeeping only; it is integrated from torque but
	// never feeds back into collision response.
	AngularVelocity float32

	// Platform marks a body that supports resting contact from above.
	Platform bool

	angularAccel float32
	appliedForce Vec2
	onPlatform   bool

	osc [2]oscillation

	origin       Origin
	customOrigin Vec2

	// container is the container this body is a child of, if any.
	container       *Container
	containerOffset Vec2
}

// NewBody creates a body at (x, y) with the given size, mass and friction.
func NewBody(id int, x, y, w, h, mass, friction float32) (*Body, error) {
	if err := validateShape(w, h, mass, friction); err != nil {
		return nil, err
	}
	if err := finite("body position", Vec2{x, y}); err != nil {
		return nil, err
	}
	return &Body{
		ID:       id,
		Position: Vec2{x, y},
		Size:     Vec2{w, h},
		Mass:     mass,
		Friction: friction,
	}, nil
}

func validateShape(w, h, mass, friction float32) error {
	if !(w > 0) || !(h > 0) || !(Vec2{w, h}).IsFinite() {
		return invalidParam("body size %gx%g must be positive", w, h)
	}
	if !(mass > 0) || math32.IsInf(mass, 0) {
		return invalidParam("body mass %g must be positive and finite", mass)
	}
	if !(friction >= 0 && friction < 1) {
		return invalidParam("body friction %g must be in [0,1)", friction)
	}
	return nil
}

// finite rejects a vector quantity with a NaN or infinite component. A
// single such value would fail every later tick.
func finite(what string, v Vec2) error {
	if !v.IsFinite() {
		return invalidParam("%s (%g, %g) must be finite", what, v.X, v.Y)
	}
	return nil
}

// ApplyForce records f as the current applied force (replacing the previous
// one) and adds f/mass to the velocity at once. The force is not integrated
// over time; it persists only for queries until overwritten.
func (b *Body) ApplyForce(f Vec2) error {
	if !(b.Mass > 0) {
		return invalidParam("apply force to body %d with mass %g", b.ID, b.Mass)
	}
	if err := finite("force", f); err != nil {
		return err
	}
	b.appliedForce = f
	b.Velocity.AddInPlace(f.Div(b.Mass))
	return nil
}

// AppliedForce returns the last force passed to ApplyForce.
func (b *Body) AppliedForce() Vec2 {
	return b.appliedForce
}

// ApplyTorque accumulates angular acceleration for the next Update.
func (b *Body) ApplyTorque(torque float32) error {
	if !(b.Mass > 0) {
		return invalidParam("apply torque to body %d with mass %g", b.ID, b.Mass)
	}
	if math32.IsNaN(torque) || math32.IsInf(torque, 0) {
		return invalidParam("torque %g must be finite", torque)
	}
	b.angularAccel += torque / b.Mass
	return nil
}

// OnPlatform reports whether the body was resting on a platform at the last
// refresh.
func (b *Body) OnPlatform() bool {
	return b.onPlatform
}

// Speed returns the magnitude of the velocity.
func (b *Body) Speed() float32 {
	return b.Velocity.Len()
}

// Bounds returns the body's axis-aligned rectangle.
func (b *Body) Bounds() Rect {
	return Rect{b.Position.X, b.Position.Y, b.Size.X, b.Size.Y}
}

// Center returns the centre of the body's rectangle.
func (b *Body) Center() Vec2 {
	return b.Position.Plus(b.Size.Scale(0.5))
}

// Oscillating reports whether the given axis is driven by an oscillation.
func (b *Body) Oscillating(a Axis) bool {
	return b.osc[a].active
}

// StartOscillating drives axis a along amplitude*sin(2π/periodMillis * t)
// around the current position, where t is milliseconds since now.
func (b *Body) StartOscillating(a Axis, amplitude, periodMillis float32, now time.Time) error {
	if !(periodMillis > 0) || math32.IsInf(periodMillis, 0) {
		return invalidParam("oscillation period %g must be positive", periodMillis)
	}
	if math32.IsNaN(amplitude) || math32.IsInf(amplitude, 0) {
		return invalidParam("oscillation amplitude %g must be finite", amplitude)
	}
	b.osc[a] = oscillation{
		active:    true,
		amplitude: amplitude,
		period:    float64(periodMillis),
		center:    b.Position.Component(a),
		start:     now,
	}
	return nil
}

// StopOscillating releases axis a back to normal integration. The body keeps
// its current position.
func (b *Body) StopOscillating(a Axis) {
	b.osc[a].active = false
}

// Update advances the body by dt seconds.
//
// Friction scales the velocity first. An oscillating axis then has its
// position overridden. If both the applied force and the velocity are below
// restEpsilon on each axis the body is at rest and nothing else changes.
// Otherwise the position integrates the velocity and the angular velocity
// integrates the torque accumulated since the previous update.
func (b *Body) Update(dt float32, now time.Time) {
	b.Velocity.ScaleInPlace(1 - b.Friction)

	for a := AxisX; a <= AxisY; a++ {
		if b.osc[a].active {
			b.Position.setComponent(a, b.osc[a].at(now))
		}
	}

	if b.resting() {
		return
	}

	step := b.Velocity.Scale(dt)
	for a := AxisX; a <= AxisY; a++ {
		if b.osc[a].active {
			step.setComponent(a, 0)
		}
	}
	b.Position.AddInPlace(step)

	b.AngularVelocity += b.angularAccel * dt
	b.angularAccel = 0
}

func (b *Body) resting() bool {
	f, v := b.appliedForce.Abs(), b.Velocity.Abs()
	return f.X < restEpsilon && f.Y < restEpsilon &&
		v.X < restEpsilon && v.Y < restEpsilon
}

// setOrigin records the point SetPosition places at the requested
// coordinates.
func (b *Body) setOrigin(o Origin, custom Vec2) {
	b.origin = o
	b.customOrigin = custom
}

// originOffset returns the translation from the body's origin point to its
// top-left corner.
func (b *Body) originOffset() Vec2 {
	return b.origin.offset(b.Size, b.customOrigin)
}
