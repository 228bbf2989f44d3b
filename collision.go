package rigid

import "github.com/chewxy/math32"

// restitution of the opt-in elastic response. 1 is perfectly elastic.
const restitution float32 = 1

// Overlaps reports whether the rectangles of a and b share interior area.
func Overlaps(a, b *Body) bool {
	return a.Bounds().Overlaps(b.Bounds())
}

// CollisionSide classifies where b lies relative to a.
//
// With centre deltas (dx, dy) from a to b and half-extent sums (w, h), the
// cross products cw = w*dy and ch = h*dx split the plane along the diagonals
// of the combined box. Swapping a and b yields the opposite side.
func CollisionSide(a, b *Body) Side {
	ca, cb := a.Center(), b.Center()
	dx := cb.X - ca.X
	dy := cb.Y - ca.Y

	w := (a.Size.X + b.Size.X) / 2
	h := (a.Size.Y + b.Size.Y) / 2

	if math32.Abs(dx) > w || math32.Abs(dy) > h {
		return SideNone
	}

	cw := w * dy
	ch := h * dx
	if cw > ch {
		if cw > -ch {
			return SideBottom
		}
		return SideLeft
	}
	if cw > -ch {
		return SideRight
	}
	return SideTop
}

// ResolvePlatform settles body on platform when the platform is below it.
// On SideBottom the body is marked on-platform, its vertical velocity is
// zeroed and its top edge snapped to platform.Y - platform.Size.Y. Any other
// side clears the on-platform flag. It reports whether the body was settled.
func ResolvePlatform(body, platform *Body, side Side) bool {
	if side != SideBottom {
		body.onPlatform = false
		return false
	}
	body.onPlatform = true
	body.Velocity.Y = 0
	body.Position.Y = platform.Position.Y - platform.Size.Y
	return true
}

// ResolveElastic applies a perfectly elastic impulse between a and b along
// the line joining their positions. Separating pairs are left untouched.
// It reports whether an impulse was applied.
func ResolveElastic(a, b *Body) bool {
	if !(a.Mass > 0) || !(b.Mass > 0) {
		return false
	}
	normal := a.Position.Minus(b.Position).Normalized()
	along := a.Velocity.Minus(b.Velocity).Dot(normal)
	if along > 0 {
		return false
	}

	j := -(1 + restitution) * along
	j /= 1/a.Mass + 1/b.Mass

	impulse := normal.Scale(j)
	a.Velocity = a.Velocity.Plus(impulse.Div(a.Mass))
	b.Velocity = b.Velocity.Minus(impulse.Div(b.Mass))
	return true
}

// InvertDirection flips the velocity components selected by mode.
func InvertDirection(b *Body, mode InvertMode) {
	switch mode {
	case InvertHorizontal:
		b.Velocity.X = -b.Velocity.X
	case InvertVertical:
		b.Velocity.Y = -b.Velocity.Y
	case InvertBoth:
		b.Velocity = b.Velocity.Scale(-1)
	}
}

// BounceAxis picks the axis along which a should rebound from b: the axis of
// the larger centre separation. The second result is false when a is
// already moving away from b along that axis, in which case no inversion is
// due.
func BounceAxis(a, b *Body) (InvertMode, bool) {
	delta := a.Center().Minus(b.Center())
	if math32.Abs(delta.X) > math32.Abs(delta.Y) {
		return InvertHorizontal, a.Velocity.X*delta.X < 0
	}
	return InvertVertical, a.Velocity.Y*delta.Y < 0
}

// pairKey identifies an unordered body pair.
type pairKey struct {
	lo, hi int
}

func makePairKey(a, b int) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{a, b}
}
