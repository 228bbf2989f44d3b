package rigid

import (
	"sort"
	"sync"
	"time"
)

// Timer is a pending callback scheduled on a TimeSource.
type Timer interface {
	// Stop prevents the callback from firing. It reports whether the call
	// stopped the timer, false if it had already fired or been stopped.
	Stop() bool
}

// TimeSource supplies wall-clock readings and one-shot timers. The engine
// reads it for oscillation phases and schedules timed effects on it.
type TimeSource interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// SystemTime is the TimeSource backed by the time package.
type SystemTime struct{}

// Now returns time.Now().
func (SystemTime) Now() time.Time { return time.Now() }

// AfterFunc wraps time.AfterFunc.
func (SystemTime) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// ManualTime is a deterministic TimeSource for tests and replays. Time only
// moves when Advance or Set is called.
type ManualTime struct {
	mu      sync.Mutex
	now     time.Time
	seq     uint64
	pending []*manualTimer
}

type manualTimer struct {
	owner    *ManualTime
	deadline time.Time
	seq      uint64
	f        func()
	done     bool
}

// NewManualTime creates a ManualTime reading start.
func NewManualTime(start time.Time) *ManualTime {
	return &ManualTime{now: start}
}

// Now returns the current simulated time.
func (m *ManualTime) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// AfterFunc schedules f to run once the simulated time reaches now+d.
func (m *ManualTime) AfterFunc(d time.Duration, f func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	t := &manualTimer{owner: m, deadline: m.now.Add(d), seq: m.seq, f: f}
	m.pending = append(m.pending, t)
	return t
}

// Advance moves the clock forward by d and runs every callback that came due,
// earliest deadline first. Callbacks run on the caller's goroutine without
// the ManualTime lock held, so they may schedule further timers; those fire
// in the same call when their deadline falls within the advanced window.
func (m *ManualTime) Advance(d time.Duration) {
	m.mu.Lock()
	m.setLocked(m.now.Add(d))
}

// Set moves the clock forward to t and runs due callbacks. A t before the
// current reading is ignored.
func (m *ManualTime) Set(t time.Time) {
	m.mu.Lock()
	m.setLocked(t)
}

// setLocked expects m.mu held and releases it.
func (m *ManualTime) setLocked(target time.Time) {
	for {
		next := m.popDueLocked(target)
		if next == nil {
			break
		}
		m.now = next.deadline
		m.mu.Unlock()
		next.f()
		m.mu.Lock()
	}
	if target.After(m.now) {
		m.now = target
	}
	m.mu.Unlock()
}

// popDueLocked removes and returns the earliest timer due at or before
// target, or nil.
func (m *ManualTime) popDueLocked(target time.Time) *manualTimer {
	sort.SliceStable(m.pending, func(i, j int) bool {
		a, b := m.pending[i], m.pending[j]
		if !a.deadline.Equal(b.deadline) {
			return a.deadline.Before(b.deadline)
		}
		return a.seq < b.seq
	})
	if len(m.pending) == 0 || m.pending[0].deadline.After(target) {
		return nil
	}
	t := m.pending[0]
	m.pending = m.pending[1:]
	t.done = true
	return t
}

// Pending returns the number of timers that have neither fired nor been
// stopped.
func (m *ManualTime) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

func (t *manualTimer) Stop() bool {
	m := t.owner
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	for i, p := range m.pending {
		if p == t {
			m.pending = append(m.pending[:i], m.pending[i+1:]...)
			break
		}
	}
	return true
}
