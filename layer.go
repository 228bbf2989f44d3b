package rigid

import "sort"

// Surface is a drawable bitmap owned by a Layer. The engine never draws on
// it; it only tracks the size and hands it back to the Renderer on release.
type Surface interface {
	Size() (w, h int)
}

// Renderer allocates and releases layer surfaces. The engine calls it under
// its lock, so implementations must not call back into the Engine.
type Renderer interface {
	CreateSurface(w, h int) (Surface, error)
	ReleaseSurface(s Surface)
}

// memSurface is the Surface used when no Renderer is installed.
type memSurface struct {
	w, h int
}

func (s *memSurface) Size() (int, int) { return s.w, s.h }

// headlessRenderer hands out size-only surfaces.
type headlessRenderer struct{}

func (headlessRenderer) CreateSurface(w, h int) (Surface, error) {
	return &memSurface{w: w, h: h}, nil
}

func (headlessRenderer) ReleaseSurface(Surface) {}

// Layer is a named drawing surface with a z-order and a parallax intensity.
type Layer struct {
	Name   string
	ZIndex int
	// Intensity scales the camera (and parallax target) position into Offset.
	// Zero disables parallax for the layer.
	Intensity float32
	// Offset is the parallax translation computed on the last tick.
	Offset Vec2

	surface Surface
}

// Surface returns the layer's drawable.
func (l *Layer) Surface() Surface {
	return l.surface
}

// layerSet is the engine's layer table.
type layerSet struct {
	byName map[string]*Layer
	active string
}

func newLayerSet() layerSet {
	return layerSet{byName: make(map[string]*Layer)}
}

// sorted returns the layers ordered by z, then name.
func (s *layerSet) sorted() []*Layer {
	out := make([]*Layer, 0, len(s.byName))
	for _, l := range s.byName {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ZIndex != out[j].ZIndex {
			return out[i].ZIndex < out[j].ZIndex
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// atZ returns a layer with the given z-index, or nil.
func (s *layerSet) atZ(z int, except *Layer) *Layer {
	for _, l := range s.sorted() {
		if l.ZIndex == z && l != except {
			return l
		}
	}
	return nil
}

// shift moves l by dz, swapping z with the layer currently at the target
// z-index when there is one.
func (s *layerSet) shift(l *Layer, dz int) {
	target := l.ZIndex + dz
	if other := s.atZ(target, l); other != nil {
		other.ZIndex = l.ZIndex
	}
	l.ZIndex = target
}

// applyParallax writes each enabled layer's offset from the camera position
// and, when target is non-nil, overwrites it from the target position.
func (s *layerSet) applyParallax(cam Vec2, target *Body) {
	for _, l := range s.byName {
		if !(l.Intensity > 0) {
			continue
		}
		l.Offset = cam.Scale(l.Intensity)
		if target != nil {
			l.Offset = target.Position.Scale(-l.Intensity)
		}
	}
}

// resetParallax zeroes every intensity and offset.
func (s *layerSet) resetParallax() {
	for _, l := range s.byName {
		l.Intensity = 0
		l.Offset = Vec2{}
	}
}

// releaseAll hands every surface back to r and empties the table.
func (s *layerSet) releaseAll(r Renderer) {
	for name, l := range s.byName {
		if l.surface != nil {
			r.ReleaseSurface(l.surface)
			l.surface = nil
		}
		delete(s.byName, name)
	}
	s.active = ""
}
