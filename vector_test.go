package rigid

import (
	"testing"

	"github.com/chewxy/math32"
)

func TestVec2Arithmetic(t *testing.T) {
	a, b := Vec2{3, 4}, Vec2{1, -2}
	if got := a.Plus(b); got != (Vec2{4, 2}) {
		t.Errorf("Plus = %v", got)
	}
	if got := a.Minus(b); got != (Vec2{2, 6}) {
		t.Errorf("Minus = %v", got)
	}
	if got := a.Scale(2); got != (Vec2{6, 8}) {
		t.Errorf("Scale = %v", got)
	}
	if got := a.Div(2); got != (Vec2{1.5, 2}) {
		t.Errorf("Div = %v", got)
	}
	if got := a.Dot(b); got != -5 {
		t.Errorf("Dot = %g, want -5", got)
	}
	if got := a.Len(); !approxEqual(got, 5, epsilon) {
		t.Errorf("Len = %g, want 5", got)
	}
}

func TestVec2Normalized(t *testing.T) {
	n := Vec2{3, 4}.Normalized()
	if !vecApprox(n, Vec2{0.6, 0.8}, epsilon) {
		t.Errorf("Normalized = %v", n)
	}
	if z := (Vec2{}).Normalized(); z != (Vec2{}) {
		t.Errorf("zero Normalized = %v, want zero", z)
	}
}

func TestVec2InPlace(t *testing.T) {
	v := Vec2{1, 1}
	v.AddInPlace(Vec2{2, 3})
	v.ScaleInPlace(2)
	if v != (Vec2{6, 8}) {
		t.Errorf("v = %v, want (6,8)", v)
	}
	v.setComponent(AxisY, -1)
	if v.Component(AxisX) != 6 || v.Component(AxisY) != -1 {
		t.Errorf("components = %v", v)
	}
}

func TestVec2IsFinite(t *testing.T) {
	if !(Vec2{1, 2}).IsFinite() {
		t.Error("finite vector reported non-finite")
	}
	if (Vec2{math32.NaN(), 0}).IsFinite() {
		t.Error("NaN reported finite")
	}
	if (Vec2{0, math32.Inf(-1)}).IsFinite() {
		t.Error("-Inf reported finite")
	}
}

func TestDistance(t *testing.T) {
	if d := Distance(Vec2{0, 0}, Vec2{6, 8}); !approxEqual(d, 10, epsilon) {
		t.Errorf("Distance = %g, want 10", d)
	}
}
