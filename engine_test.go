package rigid

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/chewxy/math32"
)

func newTestEngine(t *testing.T) (*Engine, *EventRecorder) {
	t.Helper()
	e := NewEngine(DefaultConfig())
	rec := &EventRecorder{}
	e.SetEventSink(rec)
	t.Cleanup(e.Shutdown)
	return e, rec
}

func mustAdd(t *testing.T, e *Engine, id int, x, y, w, h float32) {
	t.Helper()
	if err := e.AddBody(id, x, y, w, h, 1, 0); err != nil {
		t.Fatalf("AddBody(%d): %v", id, err)
	}
}

func TestEngineBodyRestsOnPlatform(t *testing.T) {
	e, rec := newTestEngine(t)
	mustAdd(t, e, 1, 0, 0, 10, 10)
	mustAdd(t, e, 2, 0, 10, 10, 10)
	if err := e.SetPlatform(2, true); err != nil {
		t.Fatal(err)
	}

	e.Step(0.1)

	evs := rec.Events()
	if len(evs) != 2 {
		t.Fatalf("events = %v, want collision then update", evs)
	}
	c := evs[0]
	if c.Kind != EventCollision || c.ID != 1 || c.Other != 2 || c.Side != SideBottom {
		t.Errorf("first event = %v, want collision(1, 2, bottom)", c)
	}
	if evs[1].Kind != EventUpdate {
		t.Errorf("last event = %v, want update", evs[1])
	}
	if p := e.Position(1); p != (Vec2{0, 0}) {
		t.Errorf("body 1 at %v, want snapped back to (0,0)", p)
	}
	if v := e.Velocity(1); v.Y != 0 {
		t.Errorf("body 1 vy = %g, want 0", v.Y)
	}
	if !e.IsOnPlatform(1) {
		t.Error("body 1 not on platform")
	}
	if p := e.Position(2); p != (Vec2{0, 10}) {
		t.Errorf("platform moved to %v", p)
	}
}

func TestEngineFallingBodyReportsPosition(t *testing.T) {
	e, rec := newTestEngine(t)
	mustAdd(t, e, 1, 0, 0, 10, 10)

	e.Step(0.1)

	moved := rec.Kind(EventPositionChanged)
	if len(moved) != 1 {
		t.Fatalf("position events = %v, want 1", moved)
	}
	if moved[0].ID != 1 || !approxEqual(moved[0].Y, 0.98, epsilon) {
		t.Errorf("position event = %v, want (1, 0, 0.98)", moved[0])
	}
	if !approxEqual(e.Velocity(1).Y, 9.8, epsilon) {
		t.Errorf("vy = %g, want 9.8", e.Velocity(1).Y)
	}
	if e.TickCount() != 1 {
		t.Errorf("TickCount = %d", e.TickCount())
	}
}

func TestEngineSideCollisionBetweenBodies(t *testing.T) {
	e, rec := newTestEngine(t)
	if err := e.SetGravity(0, 0); err != nil {
		t.Fatal(err)
	}
	mustAdd(t, e, 2, 8, 0, 10, 10)
	mustAdd(t, e, 1, 0, 0, 10, 10)

	e.Step(0.1)

	cs := rec.Kind(EventCollision)
	if len(cs) != 1 {
		t.Fatalf("collisions = %v, want exactly one per pair", cs)
	}
	if cs[0].ID != 1 || cs[0].Other != 2 || cs[0].Side != SideRight {
		t.Errorf("collision = %v, want (1, 2, right)", cs[0])
	}
	if st := e.Stats(); st.Collisions != 1 || st.Bodies != 2 {
		t.Errorf("stats = %+v", st)
	}
}

func TestEngineUnknownIDIsReported(t *testing.T) {
	e, rec := newTestEngine(t)

	if err := e.SetVelocity(99, 1, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetVelocity err = %v, want ErrNotFound", err)
	}
	if p := e.Position(99); p != (Vec2{}) {
		t.Errorf("Position(99) = %v, want zero", p)
	}
	errs := rec.Kind(EventError)
	if len(errs) != 2 {
		t.Fatalf("error events = %d, want 2", len(errs))
	}
	for _, ev := range errs {
		if !errors.Is(ev.Err, ErrNotFound) {
			t.Errorf("reported %v, want ErrNotFound", ev.Err)
		}
	}

	rec.Reset()
	if e.HasBody(99) {
		t.Error("HasBody(99) = true")
	}
	if _, ok := e.Body(99); ok {
		t.Error("Body(99) found")
	}
	if len(rec.Events()) != 0 {
		t.Errorf("existence checks reported %v", rec.Events())
	}
	if !e.IsStationary(99) {
		t.Error("missing body not stationary")
	}
}

func TestEngineAddBodyValidation(t *testing.T) {
	e, _ := newTestEngine(t)
	mustAdd(t, e, 1, 0, 0, 10, 10)
	if err := e.AddBody(1, 5, 5, 10, 10, 1, 0); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("duplicate id err = %v", err)
	}
	if err := e.AddBody(2, 0, 0, 0, 10, 1, 0); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("zero width err = %v", err)
	}
	if err := e.AddBody(3, 0, 0, 10, 10, -1, 0); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("negative mass err = %v", err)
	}
	if e.BodyCount() != 1 {
		t.Errorf("BodyCount = %d, want 1", e.BodyCount())
	}
	if err := e.SetBodyProperties(1, 0, 0, 10, 10, 0, 0); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("SetBodyProperties err = %v", err)
	}
	if e.Mass(1) != 1 {
		t.Error("rejected SetBodyProperties changed the body")
	}
}

func TestEngineFaultRollsBackTick(t *testing.T) {
	e, rec := newTestEngine(t)
	mustAdd(t, e, 1, 0, 0, 10, 10)
	mustAdd(t, e, 2, 100, 0, 10, 10)
	// The API refuses non-finite input, so corrupt the body directly.
	e.bodies[2].Velocity.X = math32.NaN()
	rec.Reset()

	e.Step(0.1)

	if p := e.Position(1); p != (Vec2{0, 0}) {
		t.Errorf("body 1 at %v, want tick rolled back", p)
	}
	if len(rec.Kind(EventPositionChanged)) != 0 {
		t.Error("events from the faulted tick were delivered")
	}
	errs := rec.Kind(EventError)
	if len(errs) != 1 || !errors.Is(errs[0].Err, ErrTransientFault) {
		t.Fatalf("errors = %v, want one transient fault", errs)
	}
	if len(rec.Kind(EventUpdate)) != 1 {
		t.Error("OnUpdate not emitted for faulted tick")
	}
	if !e.Stats().Faulted {
		t.Error("Stats().Faulted = false")
	}

	// Repairing the body lets the next tick through.
	if err := e.SetVelocity(2, 0, 0); err != nil {
		t.Fatal(err)
	}
	rec.Reset()
	e.Step(0.1)
	if len(rec.Kind(EventError)) != 0 || e.Stats().Faulted {
		t.Error("tick after repair still faulted")
	}
}

func TestEngineForces(t *testing.T) {
	e, _ := newTestEngine(t)
	if err := e.AddBody(1, 0, 0, 10, 10, 2, 0); err != nil {
		t.Fatal(err)
	}
	if err := e.ApplyForce(1, 4, 2); err != nil {
		t.Fatal(err)
	}
	if e.Velocity(1) != (Vec2{2, 1}) || e.Force(1) != (Vec2{4, 2}) {
		t.Errorf("after ApplyForce: v=%v f=%v", e.Velocity(1), e.Force(1))
	}
	if err := e.SetForceX(1, 6); err != nil {
		t.Fatal(err)
	}
	if e.Force(1) != (Vec2{6, 2}) {
		t.Errorf("SetForceX kept force %v, want (6,2)", e.Force(1))
	}
	if err := e.SetForceY(1, 0); err != nil {
		t.Fatal(err)
	}
	if e.Force(1) != (Vec2{6, 0}) {
		t.Errorf("SetForceY kept force %v, want (6,0)", e.Force(1))
	}
	if err := e.SetGravity(math32.Inf(1), 0); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("infinite gravity err = %v", err)
	}
	if err := e.SetAngularVelocity(1, 3); err != nil || e.AngularVelocity(1) != 3 {
		t.Errorf("AngularVelocity = %g, err %v", e.AngularVelocity(1), err)
	}
}

func TestEngineRejectsNonFiniteInput(t *testing.T) {
	e, rec := newTestEngine(t)
	mustAdd(t, e, 1, 0, 0, 10, 10)
	nan, inf := math32.NaN(), math32.Inf(1)

	if err := e.AddBody(2, nan, 0, 10, 10, 1, 0); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("AddBody NaN x err = %v", err)
	}
	if e.HasBody(2) {
		t.Error("body with NaN position was added")
	}
	calls := map[string]error{
		"SetPosition":         e.SetPosition(1, inf, 0),
		"SetPositionX":        e.SetPositionX(1, nan),
		"SetPositionY":        e.SetPositionY(1, -inf),
		"SetBodyProperties":   e.SetBodyProperties(1, nan, 0, 10, 10, 1, 0),
		"SetVelocity":         e.SetVelocity(1, 0, nan),
		"SetVelocityX":        e.SetVelocityX(1, inf),
		"SetVelocityY":        e.SetVelocityY(1, nan),
		"ApplyForce":          e.ApplyForce(1, nan, 0),
		"SetForceX":           e.SetForceX(1, inf),
		"SetForceY":           e.SetForceY(1, nan),
		"ApplyForceFor":       e.ApplyForceFor(1, Vec2{0, inf}, time.Second),
		"Jump":                e.Jump(1, inf, time.Second),
		"ApplyTorque":         e.ApplyTorque(1, nan),
		"SetAngularVelocity":  e.SetAngularVelocity(1, inf),
		"OscillateVertically": e.OscillateVertically(1, nan, 1000),
	}
	for name, err := range calls {
		if !errors.Is(err, ErrInvalidParameter) {
			t.Errorf("%s err = %v, want ErrInvalidParameter", name, err)
		}
	}
	if e.PendingEffects() != 0 {
		t.Errorf("rejected timed forces left %d effects", e.PendingEffects())
	}

	rec.Reset()
	for i := 0; i < 5; i++ {
		e.Step(0.1)
	}
	if len(rec.Kind(EventError)) != 0 || e.Stats().Faulted {
		t.Errorf("ticks faulted after rejected input: %v", rec.Kind(EventError))
	}
	if y := e.Position(1).Y; !(y > 0) {
		t.Errorf("body 1 stopped integrating at y=%g", y)
	}
}

func TestEngineSetForceRefreshesPlatform(t *testing.T) {
	e, _ := newTestEngine(t)
	mustAdd(t, e, 1, 0, 0, 10, 10)
	mustAdd(t, e, 2, 0, 10, 40, 10)
	mustAdd(t, e, 3, 20, 0, 10, 10)
	if err := e.SetPlatform(2, true); err != nil {
		t.Fatal(err)
	}
	e.Step(0.1)
	if !e.IsOnPlatform(1) || !e.IsOnPlatform(3) {
		t.Fatal("bodies did not settle on the platform")
	}

	// Settled bodies only touch the platform, so a refresh clears the flag.
	if err := e.SetForceX(1, 3); err != nil {
		t.Fatal(err)
	}
	if e.IsOnPlatform(1) {
		t.Error("SetForceX did not refresh the platform flag")
	}
	if err := e.SetForceY(3, -50); err != nil {
		t.Fatal(err)
	}
	if e.IsOnPlatform(3) {
		t.Error("SetForceY did not refresh the platform flag")
	}
}

func TestEngineConcurrentMutators(t *testing.T) {
	e, _ := newTestEngine(t)
	if err := e.StartUpdates(1); err != nil {
		t.Fatal(err)
	}

	const workers, rounds = 4, 200
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				id := 1 + w*rounds + i
				if err := e.AddBody(id, float32(i), 0, 10, 10, 1, 0); err != nil {
					t.Errorf("AddBody(%d): %v", id, err)
					return
				}
				_ = e.ApplyForceFor(id, Vec2{5, 0}, time.Millisecond)
				_ = e.CreateContainer(id)
				_ = e.SetPosition(id, float32(i), 20)
				_ = e.Velocity(id)
				if i%2 == 0 {
					if err := e.RemoveBody(id); err != nil {
						t.Errorf("RemoveBody(%d): %v", id, err)
					}
				}
			}
		}(w)
	}
	wg.Wait()

	ticks := e.TickCount()
	waitFor(t, func() bool { return e.TickCount() > ticks+2 })
	if n := e.BodyCount(); n != workers*rounds/2 {
		t.Errorf("BodyCount = %d, want %d", n, workers*rounds/2)
	}

	e.Shutdown()
	if e.Updating() || e.BodyCount() != 0 || e.PendingEffects() != 0 {
		t.Errorf("after shutdown: updating=%v bodies=%d effects=%d",
			e.Updating(), e.BodyCount(), e.PendingEffects())
	}
}

func TestEngineMotionQueries(t *testing.T) {
	e, _ := newTestEngine(t)
	mustAdd(t, e, 1, 0, 0, 10, 10)
	mustAdd(t, e, 2, 0, 10, 10, 10)
	if err := e.SetPlatform(2, true); err != nil {
		t.Fatal(err)
	}

	if !e.IsStationary(1) || e.IsMoving(1) || e.IsJumping(1) {
		t.Error("new body should be stationary")
	}
	_ = e.SetVelocity(1, 0, -10)
	if !e.IsJumping(1) || e.IsMoving(1) {
		t.Error("vertical speed off platform should be jumping")
	}
	_ = e.SetVelocity(1, 10, 0)
	if !e.IsMoving(1) || e.IsJumping(1) {
		t.Error("horizontal speed should be moving")
	}

	tests := []struct {
		vx, vy float32
		want   float32
	}{
		{1, 0, 0},
		{0, 1, 90},
		{-1, 0, 180},
		{0, -1, 270},
	}
	for _, tt := range tests {
		_ = e.SetVelocity(1, tt.vx, tt.vy)
		if got := e.VelocityAngle(1); !approxEqual(got, tt.want, 1e-3) {
			t.Errorf("VelocityAngle(%g,%g) = %g, want %g", tt.vx, tt.vy, got, tt.want)
		}
	}
}

func TestEnginePredictions(t *testing.T) {
	e, _ := newTestEngine(t)
	if err := e.SetGravity(0, 10); err != nil {
		t.Fatal(err)
	}
	mustAdd(t, e, 1, 0, 0, 10, 10)
	_ = e.SetVelocity(1, 1, 0)

	pos := e.PredictPositions(2)
	if !vecApprox(pos[1], Vec2{2, 20}, epsilon) {
		t.Errorf("predicted = %v, want (2,20)", pos[1])
	}
	if v := e.PredictVelocity(1, 2); !vecApprox(v, Vec2{1, 20}, epsilon) {
		t.Errorf("predicted velocity = %v, want (1,20)", v)
	}
	if e.Position(1) != (Vec2{}) {
		t.Error("prediction mutated the body")
	}
}

func TestEngineOriginPoint(t *testing.T) {
	e, _ := newTestEngine(t)
	mustAdd(t, e, 1, 0, 0, 10, 10)
	if err := e.SetOrigin(1, "Center", 0, 0); err != nil {
		t.Fatal(err)
	}
	_ = e.SetPosition(1, 50, 50)
	if p := e.Position(1); p != (Vec2{45, 45}) {
		t.Errorf("centre origin placed body at %v, want (45,45)", p)
	}
	if err := e.SetOrigin(1, "Custom", 2, 3); err != nil {
		t.Fatal(err)
	}
	_ = e.SetPositionX(1, 10)
	if p := e.Position(1); p.X != 8 {
		t.Errorf("custom origin X = %g, want 8", p.X)
	}
	if err := e.SetOrigin(1, "Middle", 0, 0); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("bad origin err = %v", err)
	}
}

func TestEngineInvertDirection(t *testing.T) {
	e, rec := newTestEngine(t)
	mustAdd(t, e, 1, 0, 0, 10, 10)
	_ = e.SetVelocity(1, 3, -4)

	if err := e.InvertDirection(1, "both"); err != nil {
		t.Fatal(err)
	}
	if e.Velocity(1) != (Vec2{-3, 4}) {
		t.Errorf("velocity = %v, want (-3,4)", e.Velocity(1))
	}
	inv := rec.Kind(EventDirectionInverted)
	if len(inv) != 1 || inv[0].Mode != InvertBoth {
		t.Errorf("inversion events = %v", inv)
	}
	if err := e.InvertDirection(1, "diagonal"); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("bad mode err = %v", err)
	}
}

func TestEngineHandleCollisionAndInvert(t *testing.T) {
	e, rec := newTestEngine(t)
	mustAdd(t, e, 1, 0, 0, 10, 10)
	mustAdd(t, e, 2, 8, 0, 10, 10)
	_ = e.SetVelocity(1, 5, 0)

	if !e.HandleCollisionAndInvert(1, 2) {
		t.Fatal("approaching body not inverted")
	}
	if e.Velocity(1) != (Vec2{-5, 0}) {
		t.Errorf("velocity = %v", e.Velocity(1))
	}
	if e.HandleCollisionAndInvert(1, 2) {
		t.Error("receding body inverted again")
	}
	if n := len(rec.Kind(EventDirectionInverted)); n != 1 {
		t.Errorf("inversion events = %d, want 1", n)
	}
}

func TestEngineElasticAndSide(t *testing.T) {
	e, _ := newTestEngine(t)
	mustAdd(t, e, 1, 0, 0, 10, 10)
	mustAdd(t, e, 2, 0, 8, 10, 10)
	if !e.AreColliding(1, 2) {
		t.Error("overlapping bodies not colliding")
	}
	if s := e.CollisionSide(1, 2); s != SideBottom {
		t.Errorf("side = %v, want bottom", s)
	}
	_ = e.SetVelocity(1, 0, 5)
	if !e.ResolveElastic(1, 2) {
		t.Fatal("ResolveElastic = false")
	}
	if v := e.Velocity(1); !approxEqual(v.Y, 0, epsilon) {
		t.Errorf("equal-mass head-on: v1 = %v, want zero", v)
	}
	if v := e.Velocity(2); !approxEqual(v.Y, 5, epsilon) {
		t.Errorf("v2 = %v, want (0,5)", v)
	}
}

func TestEngineFollow(t *testing.T) {
	e, _ := newTestEngine(t)
	_ = e.SetGravity(0, 0)
	mustAdd(t, e, 1, 0, 0, 10, 10)
	mustAdd(t, e, 2, 0, 100, 10, 10)
	_ = e.SetVelocity(1, 5, 0)

	if err := e.StartFollowing(1, 2, 200, 10); err != nil {
		t.Fatal(err)
	}
	if err := e.StartFollowing(1, 1, 200, 10); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("self follow err = %v", err)
	}
	if err := e.StartFollowing(1, 42, 200, 10); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown leader err = %v", err)
	}

	e.Step(0.1)
	v := e.Velocity(1)
	if !approxEqual(v.Len(), 5, 1e-3) || v.Y < 4.9 {
		t.Errorf("follower velocity = %v, want speed 5 toward leader", v)
	}

	_ = e.SetPosition(2, 0, 1000)
	e.Step(0.1)
	if v := e.Velocity(1); v != (Vec2{}) {
		t.Errorf("follower beyond max distance has velocity %v", v)
	}

	if err := e.RemoveBody(2); err != nil {
		t.Fatal(err)
	}
	if len(e.FollowRelations()) != 0 {
		t.Error("relation survived leader removal")
	}
	if err := e.StopFollowing(1); !errors.Is(err, ErrNotFound) {
		t.Errorf("StopFollowing err = %v", err)
	}
}

func TestEngineNestedContainers(t *testing.T) {
	e, _ := newTestEngine(t)
	_ = e.SetGravity(0, 0)
	mustAdd(t, e, 1, 0, 0, 10, 10)
	mustAdd(t, e, 2, 20, 0, 10, 10)
	mustAdd(t, e, 3, 40, 0, 10, 10)

	for _, step := range []func() error{
		func() error { return e.CreateContainer(1) },
		func() error { return e.AddChild(1, 2) },
		func() error { return e.CreateContainer(2) },
		func() error { return e.AddChild(2, 3) },
	} {
		if err := step(); err != nil {
			t.Fatal(err)
		}
	}

	_ = e.SetPosition(1, 100, 50)
	if p := e.Position(2); p != (Vec2{120, 50}) {
		t.Errorf("child at %v, want (120,50)", p)
	}
	if p := e.Position(3); p != (Vec2{140, 50}) {
		t.Errorf("grandchild at %v, want (140,50)", p)
	}

	_ = e.SetVelocity(1, 10, 0)
	e.Step(1)
	if p := e.Position(3); !vecApprox(p, Vec2{150, 50}, epsilon) {
		t.Errorf("grandchild after tick at %v, want (150,50)", p)
	}

	if err := e.CreateContainer(3); err != nil {
		t.Fatal(err)
	}
	if err := e.AddChild(3, 1); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("cycle err = %v, want ErrInvalidParameter", err)
	}

	if err := e.RemoveChild(1, 3); !errors.Is(err, ErrNotFound) {
		t.Errorf("RemoveChild of non-child err = %v", err)
	}
	if err := e.RemoveBody(1); err != nil {
		t.Fatal(err)
	}
	if e.Children(1) != nil {
		t.Error("container survived parent removal")
	}
	if ids := e.Children(2); len(ids) != 1 || ids[0] != 3 {
		t.Errorf("Children(2) = %v, want [3]", ids)
	}
	if b, _ := e.Body(2); b.container != nil {
		t.Error("body 2 still attached to removed parent")
	}
}

func TestEngineParallax(t *testing.T) {
	e, _ := newTestEngine(t)
	_ = e.SetGravity(0, 0)
	mustAdd(t, e, 1, 10, 20, 10, 10)
	if err := e.CreateLayer("bg", 0); err != nil {
		t.Fatal(err)
	}
	if err := e.SetParallax("bg", -1); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("negative intensity err = %v", err)
	}
	if err := e.SetParallax("bg", 0.5); err != nil {
		t.Fatal(err)
	}

	e.SetCameraPosition(100, 40)
	e.Step(0.1)
	if l, _ := e.Layer("bg"); l.Offset != (Vec2{50, 20}) {
		t.Errorf("camera offset = %v, want (50,20)", l.Offset)
	}

	if err := e.UpdateParallaxRelativeTo(1); err != nil {
		t.Fatal(err)
	}
	if l, _ := e.Layer("bg"); l.Offset != (Vec2{-5, -10}) {
		t.Errorf("target offset = %v, want (-5,-10)", l.Offset)
	}
	e.Step(0.1)
	if l, _ := e.Layer("bg"); l.Offset != (Vec2{-5, -10}) {
		t.Errorf("target offset after tick = %v, want target to win", l.Offset)
	}

	e.SetParallaxEnabled(false)
	if l, _ := e.Layer("bg"); l.Intensity != 0 || l.Offset != (Vec2{}) {
		t.Errorf("disabled layer = %+v", l)
	}
	if e.ParallaxEnabled() {
		t.Error("ParallaxEnabled = true")
	}
}

func TestEngineLayers(t *testing.T) {
	e, _ := newTestEngine(t)
	r := &countingRenderer{}
	e.SetRenderer(r)

	if err := e.CreateLayer("", 0); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("empty name err = %v", err)
	}
	for i, name := range []string{"back", "mid", "front"} {
		if err := e.CreateLayer(name, i); err != nil {
			t.Fatal(err)
		}
	}
	if err := e.CreateLayer("mid", 5); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("duplicate err = %v", err)
	}
	if e.ActiveLayer() != "front" {
		t.Errorf("ActiveLayer = %q, want last created", e.ActiveLayer())
	}
	if l, _ := e.Layer("back"); l.Surface() == nil {
		t.Error("layer has no surface")
	} else if w, h := l.Surface().Size(); w != 1024 || h != 768 {
		t.Errorf("surface %dx%d, want world size", w, h)
	}

	if err := e.MoveLayerUp("back"); err != nil {
		t.Fatal(err)
	}
	names := layerNames(e.Layers())
	if names != "mid,back,front" {
		t.Errorf("order after MoveLayerUp = %s", names)
	}
	if err := e.MoveLayerDown("front"); err != nil {
		t.Fatal(err)
	}
	if names := layerNames(e.Layers()); names != "mid,front,back" {
		t.Errorf("order after MoveLayerDown = %s", names)
	}

	if err := e.ReplaceLayer("mid", 0, 10); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("ReplaceLayer zero width err = %v", err)
	}
	if err := e.ReplaceLayer("mid", 64, 32); err != nil {
		t.Fatal(err)
	}
	if r.released != 1 {
		t.Errorf("released = %d after replace, want 1", r.released)
	}

	if err := e.RemoveLayer("front"); err != nil {
		t.Fatal(err)
	}
	if e.ActiveLayer() != "" {
		t.Error("removed layer still active")
	}
	if err := e.RemoveLayer("front"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second remove err = %v", err)
	}
	if err := e.SetActiveLayer("back"); err != nil {
		t.Fatal(err)
	}

	e.Shutdown()
	if r.created != r.released {
		t.Errorf("created %d surfaces, released %d", r.created, r.released)
	}
}

func layerNames(ls []Layer) string {
	s := ""
	for i, l := range ls {
		if i > 0 {
			s += ","
		}
		s += l.Name
	}
	return s
}

func TestEngineCameraTracking(t *testing.T) {
	e, _ := newTestEngine(t)
	mustAdd(t, e, 1, 100, 100, 10, 10)
	if err := e.TrackBody(1); err != nil {
		t.Fatal(err)
	}
	e.Step(0.1)
	if e.CameraPosition() != e.Position(1) {
		t.Errorf("camera %v not on body %v", e.CameraPosition(), e.Position(1))
	}

	if err := e.ScrollCameraTo(0, 0, 0, nil); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("zero duration err = %v", err)
	}
	start := e.CameraPosition()
	if err := e.ScrollCameraTo(start.X+100, start.Y, 1, nil); err != nil {
		t.Fatal(err)
	}
	if _, ok := e.TrackedBody(); ok {
		t.Error("scroll kept tracking")
	}
	e.Step(0.5)
	if x := e.CameraPosition().X; !approxEqual(x, start.X+50, 0.01) {
		t.Errorf("camera X halfway = %g, want %g", x, start.X+50)
	}

	_ = e.TrackBody(1)
	_ = e.RemoveBody(1)
	if _, ok := e.TrackedBody(); ok {
		t.Error("tracking survived body removal")
	}

	e.SetCameraAndFollow(42, 7, 8)
	if e.CameraPosition() != (Vec2{7, 8}) {
		t.Errorf("fallback camera position = %v", e.CameraPosition())
	}
}

func TestEngineTouch(t *testing.T) {
	e, rec := newTestEngine(t)
	mustAdd(t, e, 2, 5, 5, 10, 10)
	mustAdd(t, e, 1, 0, 0, 10, 10)

	if id, ok := e.Touch(7, 7); !ok || id != 1 {
		t.Errorf("Touch(7,7) = %d, %v; want lowest id 1", id, ok)
	}
	if _, ok := e.Touch(500, 500); ok {
		t.Error("Touch on empty space hit a body")
	}
	touched := rec.Kind(EventSpriteTouched)
	if len(touched) != 1 || touched[0].ID != 1 {
		t.Errorf("touch events = %v", touched)
	}

	// The camera starts at the world origin, centred in a 1024x768 viewport.
	if id, ok := e.TouchScreen(512+12, 384+12); !ok || id != 2 {
		t.Errorf("TouchScreen = %d, %v; want 2", id, ok)
	}
}

func TestEngineTimedEffects(t *testing.T) {
	e, rec := newTestEngine(t)
	clock := NewManualTime(testEpoch)
	e.SetTimeSource(clock)
	_ = e.SetGravity(0, 0)
	mustAdd(t, e, 1, 0, 0, 10, 10)

	if err := e.Jump(1, -5, 100*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	if e.Velocity(1) != (Vec2{0, -5}) || e.Force(1) != (Vec2{0, -5}) {
		t.Errorf("after jump v=%v f=%v", e.Velocity(1), e.Force(1))
	}
	if e.PendingEffects() != 1 {
		t.Errorf("PendingEffects = %d", e.PendingEffects())
	}
	clock.Advance(100 * time.Millisecond)
	if e.Force(1) != (Vec2{}) || e.PendingEffects() != 0 {
		t.Errorf("after expiry f=%v pending=%d", e.Force(1), e.PendingEffects())
	}

	if err := e.TriggerTimedEvent(7, 50*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	clock.Advance(49 * time.Millisecond)
	if len(rec.Kind(EventTimed)) != 0 {
		t.Error("timed event fired early")
	}
	clock.Advance(time.Millisecond)
	if ev := rec.Kind(EventTimed); len(ev) != 1 || ev[0].ID != 7 {
		t.Errorf("timed events = %v", ev)
	}

	if err := e.ApplyForceFor(1, Vec2{3, 0}, -time.Second); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("negative delay err = %v", err)
	}
}

func TestEngineRemoveCancelsEffects(t *testing.T) {
	e, rec := newTestEngine(t)
	clock := NewManualTime(testEpoch)
	e.SetTimeSource(clock)
	mustAdd(t, e, 1, 0, 0, 10, 10)

	_ = e.ApplyForceFor(1, Vec2{2, 0}, 10*time.Millisecond)
	_ = e.TriggerTimedEvent(1, 10*time.Millisecond)
	if err := e.RemoveBody(1); err != nil {
		t.Fatal(err)
	}
	// A new body under the same id must not see the old effects.
	mustAdd(t, e, 1, 0, 0, 10, 10)
	_ = e.ApplyForce(1, 1, 1)

	clock.Advance(time.Second)
	if len(rec.Kind(EventTimed)) != 0 {
		t.Error("cancelled timed event fired")
	}
	if e.Force(1) != (Vec2{1, 1}) {
		t.Errorf("cancelled effect reset the new body's force: %v", e.Force(1))
	}
	if clock.Pending() != 0 || e.PendingEffects() != 0 {
		t.Errorf("pending timers=%d effects=%d", clock.Pending(), e.PendingEffects())
	}
}

func TestEngineOscillationUsesTimeSource(t *testing.T) {
	e, _ := newTestEngine(t)
	clock := NewManualTime(testEpoch)
	e.SetTimeSource(clock)
	_ = e.SetGravity(0, 0)
	mustAdd(t, e, 1, 100, 0, 10, 10)

	if err := e.OscillateHorizontally(1, 10, 1000); err != nil {
		t.Fatal(err)
	}
	if err := e.OscillateVertically(1, 5, 0); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("zero period err = %v", err)
	}
	clock.Advance(250 * time.Millisecond)
	e.Step(1.0 / 60)
	if x := e.Position(1).X; !approxEqual(x, 110, 1e-3) {
		t.Errorf("X = %g, want 110", x)
	}
	_ = e.StopOscillating(1, AxisX)
	clock.Advance(500 * time.Millisecond)
	e.Step(1.0 / 60)
	if x := e.Position(1).X; !approxEqual(x, 110, 1e-3) {
		t.Errorf("stopped oscillation moved X to %g", x)
	}
}

func TestEngineClock(t *testing.T) {
	e, _ := newTestEngine(t)
	if err := e.StartUpdates(0); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("zero period err = %v", err)
	}
	if err := e.StartUpdates(2); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return e.TickCount() >= 3 })
	if !e.Updating() {
		t.Error("Updating = false while running")
	}
	e.StopUpdates()
	e.StopUpdates()
	if e.Updating() {
		t.Error("Updating = true after stop")
	}
}

func TestEngineRunUsesConfiguredPeriod(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TickMillis = 5
	e := NewEngine(cfg)
	t.Cleanup(e.Shutdown)
	if err := e.Run(); err != nil {
		t.Fatal(err)
	}
	if p := e.clock.Period(); p != 5*time.Millisecond {
		t.Errorf("clock period = %v, want 5ms", p)
	}
}

func TestEngineShutdown(t *testing.T) {
	e, rec := newTestEngine(t)
	mustAdd(t, e, 1, 0, 0, 10, 10)
	if err := e.Run(); err != nil {
		t.Fatal(err)
	}

	e.Shutdown()
	e.Shutdown()
	if e.Updating() || e.BodyCount() != 0 {
		t.Errorf("after shutdown: updating=%v bodies=%d", e.Updating(), e.BodyCount())
	}

	rec.Reset()
	e.Step(0.1)
	if len(rec.Events()) != 0 {
		t.Errorf("Step after shutdown emitted %v", rec.Events())
	}
	if err := e.StartUpdates(16); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("StartUpdates after shutdown err = %v", err)
	}
}

func TestNewEngineRepairsConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WorldWidth = -1
	cfg.TickMillis = 0
	cfg.GravityY = 3
	e := NewEngine(cfg)
	got := e.Config()
	if got.WorldWidth != 1024 || got.TickMillis != 16 {
		t.Errorf("repaired config = %+v", got)
	}
	if e.Gravity() != (Vec2{0, 3}) {
		t.Errorf("valid gravity replaced: %v", e.Gravity())
	}
}
