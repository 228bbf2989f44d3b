package rigid

import (
	"github.com/chewxy/math32"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// scrollAnim holds active scroll-to tweens for camera X and Y.
type scrollAnim struct {
	tweenX *gween.Tween
	tweenY *gween.Tween
	doneX  bool
	doneY  bool
}

// Camera is the view into the world. Position is the world point shown at
// the centre of the viewport; parallax layers derive their offsets from it.
type Camera struct {
	// Position is the world-space point the camera centres on.
	Position Vec2
	// Viewport is the screen-space rectangle the camera renders into.
	Viewport Rect

	zoom float32

	trackID  int
	tracking bool

	// BoundsEnabled clamps the camera position so the visible area stays
	// within Bounds.
	BoundsEnabled bool
	// Bounds is the world-space rectangle the camera is clamped to when
	// BoundsEnabled is true.
	Bounds Rect

	scrollTween *scrollAnim
}

// newCamera creates a Camera at the origin with zoom 1.
func newCamera(viewport Rect) *Camera {
	return &Camera{
		Viewport: viewport,
		zoom:     1,
	}
}

// Zoom returns the scale factor (1 = no zoom, >1 = zoom in).
func (c *Camera) Zoom() float32 {
	return c.zoom
}

// SetZoom sets the scale factor. Non-positive values are rejected.
func (c *Camera) SetZoom(z float32) error {
	if !(z > 0) {
		return invalidParam("camera zoom %g must be positive", z)
	}
	c.zoom = z
	return nil
}

// Snap moves the camera exactly onto the target's position. Any running
// scroll animation is cancelled.
func (c *Camera) Snap(target *Body) {
	if target == nil {
		return
	}
	c.scrollTween = nil
	c.Position = target.Position
	c.clamp()
}

// SetPosition moves the camera to (x, y) and cancels any scroll animation.
func (c *Camera) SetPosition(x, y float32) {
	c.scrollTween = nil
	c.Position = Vec2{x, y}
	c.clamp()
}

// ScrollTo animates the camera to the given world position over duration
// seconds using easeFn. The animation advances with each tick.
func (c *Camera) ScrollTo(x, y float32, duration float32, easeFn ease.TweenFunc) {
	if easeFn == nil {
		easeFn = ease.Linear
	}
	c.scrollTween = &scrollAnim{
		tweenX: gween.New(c.Position.X, x, duration, easeFn),
		tweenY: gween.New(c.Position.Y, y, duration, easeFn),
	}
}

// Scrolling reports whether a ScrollTo animation is in progress.
func (c *Camera) Scrolling() bool {
	return c.scrollTween != nil
}

// SetBounds enables camera bounds clamping.
func (c *Camera) SetBounds(bounds Rect) {
	c.BoundsEnabled = true
	c.Bounds = bounds
	c.clamp()
}

// ClearBounds disables camera bounds clamping.
func (c *Camera) ClearBounds() {
	c.BoundsEnabled = false
}

// update advances the scroll animation and re-clamps. Tracking is applied
// by the engine, which owns the body table.
func (c *Camera) update(dt float32) {
	if c.scrollTween != nil {
		if !c.scrollTween.doneX {
			c.Position.X, c.scrollTween.doneX = c.scrollTween.tweenX.Update(dt)
		}
		if !c.scrollTween.doneY {
			c.Position.Y, c.scrollTween.doneY = c.scrollTween.tweenY.Update(dt)
		}
		if c.scrollTween.doneX && c.scrollTween.doneY {
			c.scrollTween = nil
		}
	}
	c.clamp()
}

// clamp restricts the position so the visible area stays within Bounds.
func (c *Camera) clamp() {
	if !c.BoundsEnabled {
		return
	}
	halfW := c.Viewport.Width / (2 * c.zoom)
	halfH := c.Viewport.Height / (2 * c.zoom)

	minX := c.Bounds.X + halfW
	maxX := c.Bounds.X + c.Bounds.Width - halfW
	minY := c.Bounds.Y + halfH
	maxY := c.Bounds.Y + c.Bounds.Height - halfH

	// Bounds smaller than the visible area centre the camera.
	if minX > maxX {
		c.Position.X = c.Bounds.X + c.Bounds.Width/2
	} else {
		c.Position.X = math32.Max(minX, math32.Min(c.Position.X, maxX))
	}
	if minY > maxY {
		c.Position.Y = c.Bounds.Y + c.Bounds.Height/2
	} else {
		c.Position.Y = math32.Max(minY, math32.Min(c.Position.Y, maxY))
	}
}

// WorldToScreen converts world coordinates to screen coordinates.
func (c *Camera) WorldToScreen(wx, wy float32) (sx, sy float32) {
	cx := c.Viewport.X + c.Viewport.Width/2
	cy := c.Viewport.Y + c.Viewport.Height/2
	return cx + (wx-c.Position.X)*c.zoom, cy + (wy-c.Position.Y)*c.zoom
}

// ScreenToWorld converts screen coordinates to world coordinates.
func (c *Camera) ScreenToWorld(sx, sy float32) (wx, wy float32) {
	cx := c.Viewport.X + c.Viewport.Width/2
	cy := c.Viewport.Y + c.Viewport.Height/2
	return c.Position.X + (sx-cx)/c.zoom, c.Position.Y + (sy-cy)/c.zoom
}

// VisibleBounds returns the world-space rectangle visible through the
// viewport.
func (c *Camera) VisibleBounds() Rect {
	w := c.Viewport.Width / c.zoom
	h := c.Viewport.Height / c.zoom
	return Rect{c.Position.X - w/2, c.Position.Y - h/2, w, h}
}
