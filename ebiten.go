package rigid

import (
	"fmt"
	"image/color"
	"sync/atomic"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// EbitenSurface is a layer Surface backed by an *ebiten.Image.
type EbitenSurface struct {
	image *ebiten.Image
}

// Image returns the underlying *ebiten.Image for drawing.
func (s *EbitenSurface) Image() *ebiten.Image {
	return s.image
}

// Size returns the image size in pixels.
func (s *EbitenSurface) Size() (int, int) {
	b := s.image.Bounds()
	return b.Dx(), b.Dy()
}

// EbitenRenderer allocates layer surfaces as ebiten images and draws an
// engine's layers and debug overlay onto a screen image. Install it with
// Engine.SetRenderer.
type EbitenRenderer struct {
	// ShowBoxes draws every body's rectangle in DrawDebug.
	ShowBoxes bool
	// ShowStats prints TPS and the last tick's stats in DrawDebug.
	ShowStats bool

	// live is updated under the engine lock but read from the render
	// goroutine.
	live  atomic.Int64
	pixel *ebiten.Image
}

// NewEbitenRenderer creates a renderer with boxes and stats shown.
func NewEbitenRenderer() *EbitenRenderer {
	return &EbitenRenderer{ShowBoxes: true, ShowStats: true}
}

// CreateSurface returns a new w x h ebiten image.
func (r *EbitenRenderer) CreateSurface(w, h int) (Surface, error) {
	if w <= 0 || h <= 0 {
		return nil, invalidParam("surface %dx%d must be positive", w, h)
	}
	r.live.Add(1)
	return &EbitenSurface{image: ebiten.NewImage(w, h)}, nil
}

// ReleaseSurface deallocates an image created by CreateSurface.
func (r *EbitenRenderer) ReleaseSurface(s Surface) {
	es, ok := s.(*EbitenSurface)
	if !ok || es.image == nil {
		return
	}
	es.image.Deallocate()
	es.image = nil
	r.live.Add(-1)
}

// Live returns the number of surfaces created and not yet released. It is
// safe to call from any goroutine.
func (r *EbitenRenderer) Live() int {
	return int(r.live.Load())
}

// whitePixel returns a 1x1 white image used to draw solid rectangles.
func (r *EbitenRenderer) whitePixel() *ebiten.Image {
	if r.pixel == nil {
		r.pixel = ebiten.NewImage(1, 1)
		r.pixel.Fill(color.White)
	}
	return r.pixel
}

// DrawLayers draws every layer's surface onto screen in ascending z order,
// translated by its parallax offset and the camera.
func (r *EbitenRenderer) DrawLayers(screen *ebiten.Image, e *Engine) {
	zoom := e.CameraZoom()
	for _, l := range e.Layers() {
		es, ok := l.surface.(*EbitenSurface)
		if !ok || es.image == nil {
			continue
		}
		sx, sy := e.WorldToScreen(l.Offset.X, l.Offset.Y)
		var op ebiten.DrawImageOptions
		op.GeoM.Scale(float64(zoom), float64(zoom))
		op.GeoM.Translate(float64(sx), float64(sy))
		screen.DrawImage(es.image, &op)
	}
}

var (
	boxColor      = color.RGBA{R: 0, G: 220, B: 0, A: 255}
	platformColor = color.RGBA{R: 80, G: 140, B: 255, A: 255}
)

// DrawDebug overlays body outlines and engine stats on screen.
func (r *EbitenRenderer) DrawDebug(screen *ebiten.Image, e *Engine) {
	if r.ShowBoxes {
		zoom := e.CameraZoom()
		for _, b := range e.Bodies() {
			x, y := e.WorldToScreen(b.Position.X, b.Position.Y)
			clr := boxColor
			if b.Platform {
				clr = platformColor
			}
			r.strokeRect(screen, x, y, b.Size.X*zoom, b.Size.Y*zoom, clr)
		}
	}
	if r.ShowStats {
		st := e.Stats()
		ebitenutil.DebugPrint(screen, fmt.Sprintf(
			"TPS: %.1f\nbodies: %d  depth: %d\npairs: %d  hits: %d\ntick: %v",
			ebiten.ActualTPS(), st.Bodies, st.TreeDepth, st.Candidates, st.Collisions, st.Total()))
	}
}

// strokeRect draws a one-pixel outline using four scaled white pixels.
func (r *EbitenRenderer) strokeRect(dst *ebiten.Image, x, y, w, h float32, clr color.RGBA) {
	r.fillRect(dst, x, y, w, 1, clr)
	r.fillRect(dst, x, y+h-1, w, 1, clr)
	r.fillRect(dst, x, y, 1, h, clr)
	r.fillRect(dst, x+w-1, y, 1, h, clr)
}

func (r *EbitenRenderer) fillRect(dst *ebiten.Image, x, y, w, h float32, clr color.RGBA) {
	var op ebiten.DrawImageOptions
	op.GeoM.Scale(float64(w), float64(h))
	op.GeoM.Translate(float64(x), float64(y))
	op.ColorScale.ScaleWithColor(clr)
	dst.DrawImage(r.whitePixel(), &op)
}
