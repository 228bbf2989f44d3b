package rigid

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel error kinds. Every error reported by the engine wraps one of these,
// so callers can classify with errors.Is.
var (
	// ErrNotFound reports an unknown body, layer, container or relation id.
	// The operation is a no-op.
	ErrNotFound = errors.New("not found")
	// ErrInvalidParameter reports a rejected argument (non-positive
	// dimension, non-positive mass, malformed enum string). The operation is
	// aborted.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrTransientFault reports a tick that failed part way. The body table is
	// restored to its state at the start of the tick and the clock continues.
	ErrTransientFault = errors.New("transient fault")
)

func notFound(kind string, id any) error {
	return fmt.Errorf("rigid: %s %v: %w", kind, id, ErrNotFound)
}

func invalidParam(format string, args ...any) error {
	return fmt.Errorf("rigid: "+format+": %w", append(args, ErrInvalidParameter)...)
}

// Rect is an axis-aligned rectangle. The coordinate system has its origin at
// the top-left, with Y increasing downward.
type Rect struct {
	X, Y, Width, Height float32
}

// Contains reports whether the point (x, y) lies inside the rectangle.
// Points on the edge are considered inside.
func (r Rect) Contains(x, y float32) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// Overlaps reports whether r and other share interior area. Rectangles that
// only touch along an edge do not overlap.
func (r Rect) Overlaps(other Rect) bool {
	return r.X < other.X+other.Width &&
		r.X+r.Width > other.X &&
		r.Y < other.Y+other.Height &&
		r.Y+r.Height > other.Y
}

// Side is the face of a body involved in a collision, as seen from the first
// body of the pair.
type Side uint8

const (
	SideNone   Side = iota // centres outside the combined half extents
	SideTop                // the other body is above
	SideBottom             // the other body is below (resting contact for platforms)
	SideLeft               // the other body is to the left
	SideRight              // the other body is to the right
)

var sideNames = [...]string{"none", "top", "bottom", "left", "right"}

func (s Side) String() string {
	if int(s) < len(sideNames) {
		return sideNames[s]
	}
	return fmt.Sprintf("Side(%d)", uint8(s))
}

// Opposite returns the side the other body of the pair would report.
func (s Side) Opposite() Side {
	switch s {
	case SideTop:
		return SideBottom
	case SideBottom:
		return SideTop
	case SideLeft:
		return SideRight
	case SideRight:
		return SideLeft
	default:
		return SideNone
	}
}

// ParseSide converts an external side name ("top", "bottom", "left",
// "right", "none") to a Side. Matching is case-insensitive.
func ParseSide(s string) (Side, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range sideNames {
		if n == name {
			return Side(i), nil
		}
	}
	return SideNone, invalidParam("unknown collision side %q", s)
}

// Axis selects one coordinate of a vector.
type Axis uint8

const (
	AxisX Axis = iota // horizontal
	AxisY             // vertical
)

func (a Axis) String() string {
	if a == AxisX {
		return "x"
	}
	return "y"
}

// InvertMode selects which velocity components a direction inversion flips.
type InvertMode uint8

const (
	InvertHorizontal InvertMode = iota // flip X
	InvertVertical                     // flip Y
	InvertBoth                         // flip X and Y
)

var invertNames = [...]string{"horizontal", "vertical", "both"}

func (m InvertMode) String() string {
	if int(m) < len(invertNames) {
		return invertNames[m]
	}
	return fmt.Sprintf("InvertMode(%d)", uint8(m))
}

// ParseInvertMode converts "horizontal", "vertical" or "both" (any case) to
// an InvertMode.
func ParseInvertMode(s string) (InvertMode, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range invertNames {
		if n == name {
			return InvertMode(i), nil
		}
	}
	return InvertHorizontal, invalidParam("unknown inversion mode %q", s)
}

// Origin is the reference point of a body that SetPosition places at the
// requested coordinates.
type Origin uint8

const (
	OriginTopLeft     Origin = iota // position is the top-left corner (default)
	OriginTopRight                  // position is the top-right corner
	OriginBottomRight               // position is the bottom-right corner
	OriginBottomLeft                // position is the bottom-left corner
	OriginCenter                    // position is the centre
	OriginCustom                    // position is a caller-supplied local point
)

var originNames = [...]string{"TopLeft", "TopRight", "BottomRight", "BottomLeft", "Center", "Custom"}

func (o Origin) String() string {
	if int(o) < len(originNames) {
		return originNames[o]
	}
	return fmt.Sprintf("Origin(%d)", uint8(o))
}

// ParseOrigin converts an origin name such as "TopLeft" or "center" to an
// Origin. Matching is case-insensitive.
func ParseOrigin(s string) (Origin, error) {
	name := strings.TrimSpace(s)
	for i, n := range originNames {
		if strings.EqualFold(n, name) {
			return Origin(i), nil
		}
	}
	return OriginTopLeft, invalidParam("unknown origin point %q", s)
}

// offset returns the translation from the origin point to the top-left
// corner of a box of the given size.
func (o Origin) offset(size, custom Vec2) Vec2 {
	switch o {
	case OriginTopRight:
		return Vec2{-size.X, 0}
	case OriginBottomRight:
		return Vec2{-size.X, -size.Y}
	case OriginBottomLeft:
		return Vec2{0, -size.Y}
	case OriginCenter:
		return Vec2{-size.X / 2, -size.Y / 2}
	case OriginCustom:
		return Vec2{-custom.X, -custom.Y}
	default:
		return Vec2{}
	}
}
