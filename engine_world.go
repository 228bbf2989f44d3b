package rigid

import (
	"log"
	"time"

	"github.com/tanema/gween/ease"
)

// --- Camera ---

// SetCameraPosition moves the camera to (x, y). Tracking and scrolling stop.
func (e *Engine) SetCameraPosition(x, y float32) {
	e.lock()
	defer e.unlock()
	e.camera.tracking = false
	e.camera.SetPosition(x, y)
}

// CameraPosition returns the world point the camera centres on.
func (e *Engine) CameraPosition() Vec2 {
	e.lock()
	defer e.unlock()
	return e.camera.Position
}

// SetCameraZoom sets the zoom factor, which must be positive.
func (e *Engine) SetCameraZoom(z float32) error {
	e.lock()
	defer e.unlock()
	if err := e.camera.SetZoom(z); err != nil {
		return e.fail(err)
	}
	return nil
}

// CameraZoom returns the zoom factor.
func (e *Engine) CameraZoom() float32 {
	e.lock()
	defer e.unlock()
	return e.camera.Zoom()
}

// SetCameraViewport sets the screen rectangle the camera renders into.
func (e *Engine) SetCameraViewport(r Rect) error {
	e.lock()
	defer e.unlock()
	if !(r.Width > 0) || !(r.Height > 0) {
		return e.fail(invalidParam("viewport %gx%g must be positive", r.Width, r.Height))
	}
	e.camera.Viewport = r
	e.camera.clamp()
	return nil
}

// SetCameraBounds clamps the camera so the visible area stays inside r.
func (e *Engine) SetCameraBounds(r Rect) {
	e.lock()
	defer e.unlock()
	e.camera.SetBounds(r)
}

// ClearCameraBounds removes the camera clamp.
func (e *Engine) ClearCameraBounds() {
	e.lock()
	defer e.unlock()
	e.camera.ClearBounds()
}

// SetCameraAndFollow snaps the camera onto body id, or moves it to (x, y)
// when there is no such body.
func (e *Engine) SetCameraAndFollow(id int, x, y float32) {
	e.lock()
	defer e.unlock()
	if b, ok := e.bodies[id]; ok {
		e.camera.Snap(b)
		return
	}
	e.camera.SetPosition(x, y)
}

// TrackBody makes the camera snap onto body id at the start of every
// parallax phase until StopTracking, a camera move, or the body's removal.
func (e *Engine) TrackBody(id int) error {
	e.lock()
	defer e.unlock()
	b, err := e.body(id)
	if err != nil {
		return err
	}
	e.camera.trackID = id
	e.camera.tracking = true
	e.camera.Snap(b)
	return nil
}

// StopTracking leaves the camera where it is.
func (e *Engine) StopTracking() {
	e.lock()
	defer e.unlock()
	e.camera.tracking = false
}

// TrackedBody returns the id the camera tracks, if any.
func (e *Engine) TrackedBody() (int, bool) {
	e.lock()
	defer e.unlock()
	return e.camera.trackID, e.camera.tracking
}

// ScrollCameraTo animates the camera to (x, y) over seconds of simulated
// time using easeFn (linear when nil). Tracking stops.
func (e *Engine) ScrollCameraTo(x, y, seconds float32, easeFn ease.TweenFunc) error {
	e.lock()
	defer e.unlock()
	if !(seconds > 0) {
		return e.fail(invalidParam("scroll duration %g must be positive", seconds))
	}
	e.camera.tracking = false
	e.camera.ScrollTo(x, y, seconds, easeFn)
	return nil
}

// CameraScrolling reports whether a ScrollCameraTo animation is running.
func (e *Engine) CameraScrolling() bool {
	e.lock()
	defer e.unlock()
	return e.camera.Scrolling()
}

// WorldToScreen converts a world point to screen coordinates.
func (e *Engine) WorldToScreen(x, y float32) (float32, float32) {
	e.lock()
	defer e.unlock()
	return e.camera.WorldToScreen(x, y)
}

// ScreenToWorld converts a screen point to world coordinates.
func (e *Engine) ScreenToWorld(x, y float32) (float32, float32) {
	e.lock()
	defer e.unlock()
	return e.camera.ScreenToWorld(x, y)
}

// --- Layers ---

func (e *Engine) layer(name string) (*Layer, error) {
	l, ok := e.layers.byName[name]
	if !ok {
		return nil, e.fail(notFound("layer", name))
	}
	return l, nil
}

func (e *Engine) worldSurfaceSize() (int, int) {
	return int(e.cfg.WorldWidth), int(e.cfg.WorldHeight)
}

// CreateLayer adds a layer with a world-sized surface at z-index z and makes
// it the active layer.
func (e *Engine) CreateLayer(name string, z int) error {
	e.lock()
	defer e.unlock()
	if name == "" {
		return e.fail(invalidParam("layer name must not be empty"))
	}
	if _, ok := e.layers.byName[name]; ok {
		return e.fail(invalidParam("layer %q already exists", name))
	}
	w, h := e.worldSurfaceSize()
	s, err := e.renderer.CreateSurface(w, h)
	if err != nil {
		return e.fail(err)
	}
	e.layers.byName[name] = &Layer{Name: name, ZIndex: z, surface: s}
	e.layers.active = name
	return nil
}

// RemoveLayer deletes a layer and releases its surface.
func (e *Engine) RemoveLayer(name string) error {
	e.lock()
	defer e.unlock()
	l, err := e.layer(name)
	if err != nil {
		return err
	}
	if l.surface != nil {
		e.renderer.ReleaseSurface(l.surface)
	}
	delete(e.layers.byName, name)
	if e.layers.active == name {
		e.layers.active = ""
	}
	return nil
}

// SetActiveLayer selects the layer new drawing targets.
func (e *Engine) SetActiveLayer(name string) error {
	e.lock()
	defer e.unlock()
	if _, err := e.layer(name); err != nil {
		return err
	}
	e.layers.active = name
	return nil
}

// ActiveLayer returns the active layer name, or "" when there is none.
func (e *Engine) ActiveLayer() string {
	e.lock()
	defer e.unlock()
	return e.layers.active
}

// MoveLayerUp raises a layer by one z step, swapping with the layer above.
func (e *Engine) MoveLayerUp(name string) error {
	e.lock()
	defer e.unlock()
	l, err := e.layer(name)
	if err != nil {
		return err
	}
	e.layers.shift(l, 1)
	return nil
}

// MoveLayerDown lowers a layer by one z step, swapping with the layer below.
func (e *Engine) MoveLayerDown(name string) error {
	e.lock()
	defer e.unlock()
	l, err := e.layer(name)
	if err != nil {
		return err
	}
	e.layers.shift(l, -1)
	return nil
}

// Layers returns copies of all layers in ascending z order.
func (e *Engine) Layers() []Layer {
	e.lock()
	defer e.unlock()
	sorted := e.layers.sorted()
	out := make([]Layer, len(sorted))
	for i, l := range sorted {
		out[i] = *l
	}
	return out
}

// Layer returns a copy of the named layer.
func (e *Engine) Layer(name string) (Layer, bool) {
	e.lock()
	defer e.unlock()
	l, ok := e.layers.byName[name]
	if !ok {
		return Layer{}, false
	}
	return *l, true
}

// ReplaceLayer gives a layer a fresh w x h surface, releasing the old one.
func (e *Engine) ReplaceLayer(name string, w, h int) error {
	e.lock()
	defer e.unlock()
	if w <= 0 || h <= 0 {
		return e.fail(invalidParam("layer surface %dx%d must be positive", w, h))
	}
	l, err := e.layer(name)
	if err != nil {
		return err
	}
	s, err := e.renderer.CreateSurface(w, h)
	if err != nil {
		return e.fail(err)
	}
	if l.surface != nil {
		e.renderer.ReleaseSurface(l.surface)
	}
	l.surface = s
	return nil
}

// SetParallax sets a layer's parallax intensity and recomputes its offset
// from the camera. Zero turns parallax off for the layer.
func (e *Engine) SetParallax(name string, intensity float32) error {
	e.lock()
	defer e.unlock()
	if !(intensity >= 0) {
		return e.fail(invalidParam("parallax intensity %g must not be negative", intensity))
	}
	l, err := e.layer(name)
	if err != nil {
		return err
	}
	l.Intensity = intensity
	l.Offset = e.camera.Position.Scale(intensity)
	return nil
}

// SetParallaxEnabled turns parallax updates on or off. Turning it off
// resets every layer's intensity and offset to zero.
func (e *Engine) SetParallaxEnabled(enabled bool) {
	e.lock()
	defer e.unlock()
	e.parallaxEnabled = enabled
	if !enabled {
		e.layers.resetParallax()
	}
}

// ParallaxEnabled reports whether parallax updates run.
func (e *Engine) ParallaxEnabled() bool {
	e.lock()
	defer e.unlock()
	return e.parallaxEnabled
}

// UpdateParallaxRelativeTo offsets every parallax layer by the negated
// position of body id, now and on every following tick until
// ClearParallaxTarget.
func (e *Engine) UpdateParallaxRelativeTo(id int) error {
	e.lock()
	defer e.unlock()
	b, err := e.body(id)
	if err != nil {
		return err
	}
	e.parallaxTarget = id
	e.hasParallax = true
	if e.parallaxEnabled {
		for _, l := range e.layers.byName {
			if l.Intensity > 0 {
				l.Offset = b.Position.Scale(-l.Intensity)
			}
		}
	}
	return nil
}

// ClearParallaxTarget returns parallax to camera-relative offsets.
func (e *Engine) ClearParallaxTarget() {
	e.lock()
	defer e.unlock()
	e.hasParallax = false
}

// --- Follow ---

// StartFollowing makes follower steer toward leader while their distance is
// within (stop, max]. A follower has at most one leader; a new call
// replaces the old relation.
func (e *Engine) StartFollowing(follower, leader int, maxDistance, stopDistance float32) error {
	e.lock()
	defer e.unlock()
	rel := FollowRelation{
		FollowerID:   follower,
		LeaderID:     leader,
		MaxDistance:  maxDistance,
		StopDistance: stopDistance,
	}
	if err := rel.validate(); err != nil {
		return e.fail(err)
	}
	if _, err := e.body(follower); err != nil {
		return err
	}
	if _, err := e.body(leader); err != nil {
		return err
	}
	e.follows[follower] = rel
	return nil
}

// StopFollowing removes the follow relation of follower.
func (e *Engine) StopFollowing(follower int) error {
	e.lock()
	defer e.unlock()
	if _, ok := e.follows[follower]; !ok {
		return e.fail(notFound("follow relation", follower))
	}
	delete(e.follows, follower)
	return nil
}

// FollowRelations returns every relation, ordered by follower id.
func (e *Engine) FollowRelations() []FollowRelation {
	e.lock()
	defer e.unlock()
	out := make([]FollowRelation, 0, len(e.follows))
	for _, id := range e.sortedIDs() {
		if rel, ok := e.follows[id]; ok {
			out = append(out, rel)
		}
	}
	return out
}

// --- Containers ---

// CreateContainer makes body parent the parent of a new empty container.
// An existing container for parent is kept.
func (e *Engine) CreateContainer(parent int) error {
	e.lock()
	defer e.unlock()
	b, err := e.body(parent)
	if err != nil {
		return err
	}
	if _, ok := e.containers[parent]; !ok {
		e.containers[parent] = NewContainer(b)
	}
	return nil
}

// DestroyContainer releases every child and removes the container.
func (e *Engine) DestroyContainer(parent int) error {
	e.lock()
	defer e.unlock()
	c, ok := e.containers[parent]
	if !ok {
		return e.fail(notFound("container", parent))
	}
	c.DetachAll()
	delete(e.containers, parent)
	return nil
}

// AddChild attaches body child to the container of parent, fixing the
// child's offset from the parent as it is now.
func (e *Engine) AddChild(parent, child int) error {
	e.lock()
	defer e.unlock()
	c, ok := e.containers[parent]
	if !ok {
		return e.fail(notFound("container", parent))
	}
	ch, err := e.body(child)
	if err != nil {
		return err
	}
	for p := c.parent; p != nil; {
		if p == ch {
			return e.fail(invalidParam("body %d is an ancestor of container %d", child, parent))
		}
		if p.container == nil {
			break
		}
		p = p.container.parent
	}
	c.Attach(ch)
	return nil
}

// RemoveChild detaches body child from the container of parent.
func (e *Engine) RemoveChild(parent, child int) error {
	e.lock()
	defer e.unlock()
	c, ok := e.containers[parent]
	if !ok {
		return e.fail(notFound("container", parent))
	}
	ch, err := e.body(child)
	if err != nil {
		return err
	}
	if !c.Detach(ch) {
		return e.fail(notFound("container child", child))
	}
	return nil
}

// Children returns the ids of the bodies attached to parent's container.
func (e *Engine) Children(parent int) []int {
	e.lock()
	defer e.unlock()
	c, ok := e.containers[parent]
	if !ok {
		e.fail(notFound("container", parent))
		return nil
	}
	ids := make([]int, len(c.children))
	for i, ch := range c.children {
		ids[i] = ch.ID
	}
	return ids
}

// --- Oscillation ---

// StartOscillating drives one axis of body id along a sine wave of the given
// amplitude and period around its current position.
func (e *Engine) StartOscillating(id int, axis Axis, amplitude, periodMillis float32) error {
	return e.withBody(id, func(b *Body) error {
		return b.StartOscillating(axis, amplitude, periodMillis, e.time.Now())
	})
}

// OscillateHorizontally is StartOscillating on the X axis.
func (e *Engine) OscillateHorizontally(id int, amplitude, periodMillis float32) error {
	return e.StartOscillating(id, AxisX, amplitude, periodMillis)
}

// OscillateVertically is StartOscillating on the Y axis.
func (e *Engine) OscillateVertically(id int, amplitude, periodMillis float32) error {
	return e.StartOscillating(id, AxisY, amplitude, periodMillis)
}

// StopOscillating releases one axis of body id.
func (e *Engine) StopOscillating(id int, axis Axis) error {
	return e.withBody(id, func(b *Body) error {
		b.StopOscillating(axis)
		return nil
	})
}

// --- Clock ---

// StartUpdates runs a tick every periodMillis milliseconds on a background
// goroutine, restarting the clock if it is already running.
func (e *Engine) StartUpdates(periodMillis int) error {
	e.lock()
	defer e.unlock()
	if e.closed {
		return e.fail(invalidParam("engine is shut down"))
	}
	if periodMillis <= 0 {
		return e.fail(invalidParam("tick period %dms must be positive", periodMillis))
	}
	if err := e.clock.Start(time.Duration(periodMillis) * time.Millisecond); err != nil {
		return e.fail(err)
	}
	return nil
}

// Run starts the clock at the configured period.
func (e *Engine) Run() error {
	return e.StartUpdates(e.cfg.TickMillis)
}

// StopUpdates stops the clock. A tick in progress completes.
func (e *Engine) StopUpdates() {
	e.clock.Stop()
}

// Updating reports whether the clock is running.
func (e *Engine) Updating() bool {
	return e.clock.Running()
}

// Shutdown stops the clock, cancels timed effects, clears every table and
// releases layer surfaces through the renderer. Calling it again does
// nothing.
func (e *Engine) Shutdown() {
	e.clock.Stop()
	e.lock()
	defer e.unlock()
	if e.closed {
		return
	}
	e.closed = true
	e.clearLocked()
	e.layers.releaseAll(e.renderer)
	e.camera = newCamera(e.camera.Viewport)
	log.Printf("rigid: engine shut down after %d ticks", e.ticks)
}
