// Package rigid is a 2D rigid-body simulation engine for games built on
// [Ebitengine].
//
// An [Engine] owns a table of axis-aligned [Body] values keyed by integer id
// and advances them in fixed ticks: integrate velocities, rebuild the
// quadtree broad phase, resolve collisions, run follow and container
// behaviours, update the camera and parallax layers, then notify the
// installed [EventSink].
//
// # Quick start
//
//	e := rigid.NewEngine(rigid.DefaultConfig())
//	e.SetEventSink(mySink)
//
//	e.AddBody(1, 0, 0, 10, 10, 1, 0)  // a falling box
//	e.AddBody(2, 0, 10, 10, 10, 1, 0) // a platform below it
//	e.SetPlatform(2, true)
//
//	e.StartUpdates(16) // tick every 16ms on a background goroutine
//	defer e.Shutdown()
//
// Games that already own a frame loop call [Engine.Step] from
// [ebiten.Game] Update instead of starting the clock:
//
//	func (g *Game) Update() error { g.engine.Step(1.0 / 60); return nil }
//
// # Errors
//
// Every operation that can fail returns an error wrapping [ErrNotFound],
// [ErrInvalidParameter] or [ErrTransientFault], and reports the same error
// through [EventSink.OnError]. Getters return zero values for unknown ids.
//
// # Concurrency
//
// All Engine methods are safe for concurrent use. Events are delivered after
// the engine lock is released, so sinks may call back into the engine.
//
// # Rendering
//
// Layers allocate surfaces through a [Renderer]. The default is headless;
// [EbitenRenderer] backs layers with ebiten images and draws a debug overlay.
// The adapter in rigid/ecs forwards events into a
// [Donburi] world.
//
// [Ebitengine]: https://ebitengine.org
// [Donburi]: https://github.com/yohamta/donburi
package rigid
