package rigid

import (
	"log"
	"sort"
	"sync"
)

// Engine owns a simulation: the body table, follow relations, containers,
// camera and layers, and the clock that advances them.
//
// All methods are safe for concurrent use. A single mutex guards every table;
// events generated while it is held are queued and delivered to the EventSink
// after it is released, in the order they were generated.
//
// Operations that name an unknown id report ErrNotFound through
// EventSink.OnError and return a zero value. Mutators also return the error.
type Engine struct {
	mu sync.Mutex

	cfg     Config
	gravity Vec2

	bodies     map[int]*Body
	follows    map[int]FollowRelation // keyed by follower id
	containers map[int]*Container     // keyed by parent id
	effects    map[int][]*effect      // pending timed effects per body id

	tree *QuadTree

	camera          *Camera
	layers          layerSet
	parallaxEnabled bool
	parallaxTarget  int
	hasParallax     bool

	clock    *Clock
	sink     EventSink
	renderer Renderer
	time     TimeSource

	debug bool
	stats TickStats
	ticks uint64

	snapshot   map[int]bodyState
	snapCamera Vec2

	pending []Event
	closed  bool
}

// NewEngine creates an engine configured by cfg. An invalid cfg is replaced
// field by field with defaults and logged.
func NewEngine(cfg Config) *Engine {
	if err := cfg.Validate(); err != nil {
		log.Printf("rigid: %v; using defaults", err)
		def := DefaultConfig()
		if !(cfg.WorldWidth > 0) || !(cfg.WorldHeight > 0) {
			cfg.WorldWidth, cfg.WorldHeight = def.WorldWidth, def.WorldHeight
		}
		if cfg.TickMillis <= 0 {
			cfg.TickMillis = def.TickMillis
		}
		if !cfg.Gravity().IsFinite() {
			cfg.GravityX, cfg.GravityY = def.GravityX, def.GravityY
		}
	}
	world := Rect{0, 0, cfg.WorldWidth, cfg.WorldHeight}
	e := &Engine{
		cfg:             cfg,
		gravity:         cfg.Gravity(),
		bodies:          make(map[int]*Body),
		follows:         make(map[int]FollowRelation),
		containers:      make(map[int]*Container),
		effects:         make(map[int][]*effect),
		tree:            NewQuadTree(world),
		camera:          newCamera(world),
		layers:          newLayerSet(),
		parallaxEnabled: cfg.ParallaxEnabled,
		sink:            NopSink{},
		renderer:        headlessRenderer{},
		time:            SystemTime{},
		debug:           cfg.Debug,
	}
	e.clock = NewClock(e.Step)
	return e
}

// Config returns the configuration the engine was created with.
func (e *Engine) Config() Config {
	return e.cfg
}

// SetEventSink installs the receiver of engine events. nil discards them.
func (e *Engine) SetEventSink(s EventSink) {
	if s == nil {
		s = NopSink{}
	}
	e.mu.Lock()
	e.sink = s
	e.mu.Unlock()
}

// SetRenderer installs the surface provider used for layers. nil selects a
// headless provider. Existing layers keep their surfaces.
func (e *Engine) SetRenderer(r Renderer) {
	if r == nil {
		r = headlessRenderer{}
	}
	e.mu.Lock()
	e.renderer = r
	e.mu.Unlock()
}

// SetTimeSource replaces the clock used for oscillation and timed effects.
// nil selects SystemTime.
func (e *Engine) SetTimeSource(ts TimeSource) {
	if ts == nil {
		ts = SystemTime{}
	}
	e.mu.Lock()
	e.time = ts
	e.mu.Unlock()
}

// SetDebugMode enables or disables per-tick phase timing output on stderr.
func (e *Engine) SetDebugMode(enabled bool) {
	e.mu.Lock()
	e.debug = enabled
	e.mu.Unlock()
}

// Stats returns the measurements of the last tick.
func (e *Engine) Stats() TickStats {
	e.lock()
	defer e.unlock()
	return e.stats
}

// TickCount returns the number of ticks run so far.
func (e *Engine) TickCount() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ticks
}

// lock acquires the engine mutex. Pair it with unlock, never with
// e.mu.Unlock, so queued events get delivered.
func (e *Engine) lock() {
	e.mu.Lock()
}

// unlock releases the mutex and then delivers the queued events.
func (e *Engine) unlock() {
	evs := e.pending
	e.pending = nil
	sink := e.sink
	e.mu.Unlock()
	for _, ev := range evs {
		ev.Deliver(sink)
	}
}

func (e *Engine) emit(ev Event) {
	e.pending = append(e.pending, ev)
}

// fail queues err for OnError and returns it.
func (e *Engine) fail(err error) error {
	e.emit(Event{Kind: EventError, Err: err})
	return err
}

// body looks up id, reporting ErrNotFound when it is missing.
func (e *Engine) body(id int) (*Body, error) {
	b, ok := e.bodies[id]
	if !ok {
		return nil, e.fail(notFound("body", id))
	}
	return b, nil
}

// sortedIDs returns the body ids in ascending order.
func (e *Engine) sortedIDs() []int {
	ids := make([]int, 0, len(e.bodies))
	for id := range e.bodies {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// refreshOnPlatform recomputes b's resting flag: a platform always rests,
// any other body rests while it overlaps a platform.
func (e *Engine) refreshOnPlatform(b *Body) {
	if b.Platform {
		b.onPlatform = true
		return
	}
	for _, p := range e.bodies {
		if p.Platform && p != b && Overlaps(b, p) {
			b.onPlatform = true
			return
		}
	}
	b.onPlatform = false
}

// moved reapplies the invariants that depend on b's position: its own
// resting flag and the positions of its container descendants.
func (e *Engine) moved(b *Body) {
	e.refreshOnPlatform(b)
	if c, ok := e.containers[b.ID]; ok {
		c.Propagate()
		for _, ch := range c.children {
			e.moved(ch)
		}
	}
}
