package rigid

import (
	"fmt"
	"os"
	"time"
)

// TickStats holds per-tick timing and broad-phase metrics.
type TickStats struct {
	IntegrateTime time.Duration
	RebuildTime   time.Duration
	CollideTime   time.Duration
	BehaviorTime  time.Duration
	ParallaxTime  time.Duration
	NotifyTime    time.Duration

	Bodies     int
	TreeDepth  int
	Candidates int // distinct pairs returned by the quadtree
	Collisions int // pairs that actually overlapped
	Faulted    bool
}

// Total returns the summed phase time.
func (s TickStats) Total() time.Duration {
	return s.IntegrateTime + s.RebuildTime + s.CollideTime +
		s.BehaviorTime + s.ParallaxTime + s.NotifyTime
}

// debugLog prints timing and broad-phase stats to stderr.
func (e *Engine) debugLog(tick uint64, stats TickStats) {
	_, _ = fmt.Fprintf(os.Stderr,
		"[rigid] tick %d integrate: %v | rebuild: %v | collide: %v | behaviors: %v | parallax: %v | notify: %v | total: %v\n",
		tick, stats.IntegrateTime, stats.RebuildTime, stats.CollideTime,
		stats.BehaviorTime, stats.ParallaxTime, stats.NotifyTime, stats.Total())
	_, _ = fmt.Fprintf(os.Stderr,
		"[rigid] bodies: %d | tree depth: %d | candidates: %d | collisions: %d\n",
		stats.Bodies, stats.TreeDepth, stats.Candidates, stats.Collisions)
	if stats.Faulted {
		_, _ = fmt.Fprintf(os.Stderr, "[rigid] warning: tick %d faulted and was rolled back\n", tick)
	}
	debugCheckBroadPhase(stats)
}

// debugMaxCandidateRatio is the candidates-per-body level above which the
// quadtree is likely degenerate (most bodies straddling the root midlines).
const debugMaxCandidateRatio = 32

func debugCheckBroadPhase(stats TickStats) {
	if stats.Bodies == 0 {
		return
	}
	if ratio := stats.Candidates / stats.Bodies; ratio > debugMaxCandidateRatio {
		_, _ = fmt.Fprintf(os.Stderr,
			"[rigid] warning: %d candidate pairs per body (threshold %d)\n",
			ratio, debugMaxCandidateRatio)
	}
}
