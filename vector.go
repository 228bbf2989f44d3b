package rigid

import "github.com/chewxy/math32"

// Vec2 is a 2D vector used for positions, velocities, sizes and forces.
//
// Value methods (Plus, Minus, Scale, Div, Normalized) return a new vector.
// Pointer methods suffixed InPlace mutate the receiver and are used where a
// caller accumulates into shared state.
type Vec2 struct {
	X, Y float32
}

// Plus returns v + o.
func (v Vec2) Plus(o Vec2) Vec2 {
	return Vec2{v.X + o.X, v.Y + o.Y}
}

// Minus returns v - o.
func (v Vec2) Minus(o Vec2) Vec2 {
	return Vec2{v.X - o.X, v.Y - o.Y}
}

// Scale returns v * s.
func (v Vec2) Scale(s float32) Vec2 {
	return Vec2{v.X * s, v.Y * s}
}

// Div returns v / s. Dividing by zero yields infinities; guard at the call site.
func (v Vec2) Div(s float32) Vec2 {
	return Vec2{v.X / s, v.Y / s}
}

// Dot returns the dot product of v and o.
func (v Vec2) Dot(o Vec2) float32 {
	return v.X*o.X + v.Y*o.Y
}

// Len returns the magnitude of v.
func (v Vec2) Len() float32 {
	return math32.Sqrt(v.X*v.X + v.Y*v.Y)
}

// Normalized returns the unit vector in the direction of v, or v itself when
// its magnitude is zero.
func (v Vec2) Normalized() Vec2 {
	v.NormalizeInPlace()
	return v
}

// Abs returns v with both components made non-negative.
func (v Vec2) Abs() Vec2 {
	return Vec2{math32.Abs(v.X), math32.Abs(v.Y)}
}

// Component returns the X or Y value of v.
func (v Vec2) Component(a Axis) float32 {
	if a == AxisX {
		return v.X
	}
	return v.Y
}

// IsFinite reports whether neither component is NaN or infinite.
func (v Vec2) IsFinite() bool {
	return !math32.IsNaN(v.X) && !math32.IsNaN(v.Y) &&
		!math32.IsInf(v.X, 0) && !math32.IsInf(v.Y, 0)
}

// AddInPlace adds o to v.
func (v *Vec2) AddInPlace(o Vec2) {
	v.X += o.X
	v.Y += o.Y
}

// ScaleInPlace multiplies v by s.
func (v *Vec2) ScaleInPlace(s float32) {
	v.X *= s
	v.Y *= s
}

// NormalizeInPlace scales v to unit length. A zero vector is left unchanged.
func (v *Vec2) NormalizeInPlace() {
	mag := v.Len()
	if mag > 0 {
		v.X /= mag
		v.Y /= mag
	}
}

// setComponent writes the X or Y value of v.
func (v *Vec2) setComponent(a Axis, val float32) {
	if a == AxisX {
		v.X = val
	} else {
		v.Y = val
	}
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Vec2) float32 {
	return a.Minus(b).Len()
}
