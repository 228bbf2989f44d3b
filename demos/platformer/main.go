// platformer runs a small rigid scene: a player on a row of platforms, a
// patrolling block that oscillates, a follower that chases the player and a
// parallax backdrop. Arrow keys move, space jumps, clicking a body reports
// it in the log. An optional rigid.toml in the working directory overrides
// the engine defaults.
package main

import (
	_ "embed"
	"errors"
	"io/fs"
	"log"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/tanema/gween/ease"

	"github.com/phanxgames/rigid"
)

const (
	screenW = 1024
	screenH = 768

	playerID   = 1
	followerID = 2
	patrolID   = 3

	runSpeed     = 220
	jumpStrength = 420
	jumpMillis   = 120
)

//go:embed scene.json
var sceneScript []byte

type game struct {
	engine   *rigid.Engine
	renderer *rigid.EbitenRenderer
}

// logSink prints the events a player cares about.
type logSink struct {
	rigid.NopSink
}

func (logSink) OnSpriteTouched(id int) { log.Printf("touched body %d", id) }

func (logSink) OnError(err error) { log.Printf("engine error: %v", err) }

func (logSink) OnTimedEvent(id int) { log.Printf("timed event for body %d", id) }

func main() {
	cfg, err := rigid.LoadConfig("rigid.toml")
	if errors.Is(err, fs.ErrNotExist) {
		cfg = rigid.DefaultConfig()
	} else if err != nil {
		log.Fatal(err)
	}
	cfg.WorldWidth, cfg.WorldHeight = screenW, screenH

	e := rigid.NewEngine(cfg)
	r := rigid.NewEbitenRenderer()
	e.SetRenderer(r)
	e.SetEventSink(logSink{})

	runner, err := rigid.LoadScript(sceneScript)
	if err != nil {
		log.Fatal(err)
	}
	if err := runner.Run(e); err != nil {
		log.Fatal(err)
	}

	for i, name := range []string{"sky", "hills", "trees"} {
		if err := e.CreateLayer(name, i); err != nil {
			log.Fatal(err)
		}
		if err := e.SetParallax(name, 0.1*float32(i+1)); err != nil {
			log.Fatal(err)
		}
	}
	if err := e.TrackBody(playerID); err != nil {
		log.Fatal(err)
	}
	_ = e.TriggerTimedEvent(patrolID, 3*time.Second)

	ebiten.SetWindowSize(screenW, screenH)
	ebiten.SetWindowTitle("rigid platformer")
	if err := ebiten.RunGame(&game{engine: e, renderer: r}); err != nil {
		log.Fatal(err)
	}
	e.Shutdown()
}

func (g *game) Update() error {
	e := g.engine

	switch {
	case ebiten.IsKeyPressed(ebiten.KeyArrowLeft):
		_ = e.SetVelocityX(playerID, -runSpeed)
	case ebiten.IsKeyPressed(ebiten.KeyArrowRight):
		_ = e.SetVelocityX(playerID, runSpeed)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) && e.IsOnPlatform(playerID) {
		_ = e.Jump(playerID, -jumpStrength, jumpMillis*time.Millisecond)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyC) {
		// Hand the camera to a scripted pan back to the start.
		_ = e.ScrollCameraTo(screenW/2, screenH/2, 1.5, ease.InOutQuad)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyT) {
		_ = e.TrackBody(playerID)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyB) {
		g.renderer.ShowBoxes = !g.renderer.ShowBoxes
	}
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		x, y := ebiten.CursorPosition()
		e.TouchScreen(float32(x), float32(y))
	}

	e.Step(float32(1 / float64(ebiten.TPS())))
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	g.renderer.DrawLayers(screen, g.engine)
	g.renderer.DrawDebug(screen, g.engine)
}

func (g *game) Layout(_, _ int) (int, int) {
	return screenW, screenH
}
