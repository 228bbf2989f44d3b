package rigid

import (
	"encoding/json"
	"fmt"
	"time"
)

// scriptStep represents a single command in a scenario script.
type scriptStep struct {
	Action    string  `json:"action"`
	ID        int     `json:"id,omitempty"`
	Other     int     `json:"other,omitempty"`
	X         float32 `json:"x,omitempty"`
	Y         float32 `json:"y,omitempty"`
	W         float32 `json:"w,omitempty"`
	H         float32 `json:"h,omitempty"`
	Mass      float32 `json:"mass,omitempty"`
	Friction  float32 `json:"friction,omitempty"`
	Axis      string  `json:"axis,omitempty"`
	Amplitude float32 `json:"amplitude,omitempty"`
	Period    float32 `json:"period,omitempty"`
	Max       float32 `json:"max,omitempty"`
	Stop      float32 `json:"stop,omitempty"`
	Off       bool    `json:"off,omitempty"`
	Millis    int     `json:"ms,omitempty"`
	Frames    int     `json:"frames,omitempty"`
	Dt        float32 `json:"dt,omitempty"`
}

// script is the top-level JSON structure for a scenario script.
type script struct {
	Dt    float32      `json:"dt,omitempty"`
	Steps []scriptStep `json:"steps"`
}

// defaultScriptDt is the tick length used when a script names none.
const defaultScriptDt float32 = 1.0 / 60

// ScriptRunner replays a JSON scenario against an Engine one command per
// Step call. Scenarios drive deterministic tests and demo setups.
//
// Recognised actions: add, remove, platform, force, velocity, gravity,
// jump, oscillate, follow, container, child, advance and tick. A tick step
// with frames N spends N Step calls ticking the engine.
type ScriptRunner struct {
	steps     []scriptStep
	dt        float32
	clock     *ManualTime
	cursor    int
	waitCount int
	waitDt    float32
	done      bool
}

// LoadScript parses a JSON scenario and returns a ScriptRunner ready to be
// stepped against an engine.
func LoadScript(jsonData []byte) (*ScriptRunner, error) {
	var sc script
	if err := json.Unmarshal(jsonData, &sc); err != nil {
		return nil, fmt.Errorf("rigid: parse script: %w", err)
	}
	if len(sc.Steps) == 0 {
		return nil, fmt.Errorf("rigid: parse script: no steps")
	}
	for i, st := range sc.Steps {
		if err := st.check(); err != nil {
			return nil, fmt.Errorf("rigid: parse script: step %d: %w", i, err)
		}
	}
	dt := sc.Dt
	if dt <= 0 {
		dt = defaultScriptDt
	}
	return &ScriptRunner{steps: sc.Steps, dt: dt}, nil
}

func (st scriptStep) check() error {
	switch st.Action {
	case "add", "remove", "platform", "force", "velocity", "gravity",
		"jump", "follow", "container", "child", "advance", "tick":
		return nil
	case "oscillate":
		if st.Axis != "x" && st.Axis != "y" {
			return invalidParam("oscillate axis %q must be x or y", st.Axis)
		}
		return nil
	default:
		return invalidParam("unknown action %q", st.Action)
	}
}

// UseManualTime makes "advance" steps move clock forward. Without it they
// are ignored.
func (r *ScriptRunner) UseManualTime(clock *ManualTime) {
	r.clock = clock
}

// Done reports whether every step has been executed.
func (r *ScriptRunner) Done() bool {
	return r.done
}

// Run executes the remaining steps, stopping at the first error.
func (r *ScriptRunner) Run(e *Engine) error {
	for !r.done {
		if err := r.Step(e); err != nil {
			return err
		}
	}
	return nil
}

// Step executes one command, or one pending tick of a multi-frame tick
// step.
func (r *ScriptRunner) Step(e *Engine) error {
	if r.done {
		return nil
	}
	if r.waitCount > 0 {
		r.waitCount--
		e.Step(r.waitDt)
		r.finishIfDone()
		return nil
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return nil
	}

	st := r.steps[r.cursor]
	r.cursor++
	err := r.exec(e, st)
	r.finishIfDone()
	if err != nil {
		return fmt.Errorf("rigid: script step %d (%s): %w", r.cursor-1, st.Action, err)
	}
	return nil
}

func (r *ScriptRunner) finishIfDone() {
	if r.cursor >= len(r.steps) && r.waitCount == 0 {
		r.done = true
	}
}

func (r *ScriptRunner) exec(e *Engine, st scriptStep) error {
	switch st.Action {
	case "add":
		return e.AddBody(st.ID, st.X, st.Y, st.W, st.H, st.Mass, st.Friction)
	case "remove":
		return e.RemoveBody(st.ID)
	case "platform":
		return e.SetPlatform(st.ID, !st.Off)
	case "force":
		if st.Millis > 0 {
			return e.ApplyForceFor(st.ID, Vec2{st.X, st.Y}, time.Duration(st.Millis)*time.Millisecond)
		}
		return e.ApplyForce(st.ID, st.X, st.Y)
	case "velocity":
		return e.SetVelocity(st.ID, st.X, st.Y)
	case "gravity":
		return e.SetGravity(st.X, st.Y)
	case "jump":
		return e.Jump(st.ID, st.Y, time.Duration(st.Millis)*time.Millisecond)
	case "oscillate":
		axis := AxisX
		if st.Axis == "y" {
			axis = AxisY
		}
		return e.StartOscillating(st.ID, axis, st.Amplitude, st.Period)
	case "follow":
		return e.StartFollowing(st.ID, st.Other, st.Max, st.Stop)
	case "container":
		return e.CreateContainer(st.ID)
	case "child":
		return e.AddChild(st.ID, st.Other)
	case "advance":
		if r.clock != nil {
			r.clock.Advance(time.Duration(st.Millis) * time.Millisecond)
		}
	case "tick":
		dt := st.Dt
		if dt <= 0 {
			dt = r.dt
		}
		e.Step(dt)
		if st.Frames > 1 {
			r.waitCount = st.Frames - 1 // this call counts as one
			r.waitDt = dt
		}
	}
	return nil
}
