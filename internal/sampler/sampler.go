package sampler

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/Dicklesworthstone/roofpi/internal/model"
)

// DefaultWindow separates the two counter reads.
const DefaultWindow = 500 * time.Millisecond

// MaxLevel is the top of the reported scale.
const MaxLevel = 10

// Sampler turns two counter snapshots into a 0..MaxLevel load level driven
// by the busiest row.
type Sampler struct {
	Source Source
	Window time.Duration
	Logger *slog.Logger

	sleep func(time.Duration)
}

func New(src Source, window time.Duration) *Sampler {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Sampler{Source: src, Window: window, sleep: time.Sleep}
}

// Sample blocks for one window and returns the level observed across it.
// The sleep is not cut short by ctx; ctx only reaches the source reads.
func (s *Sampler) Sample(ctx context.Context) int {
	before := s.Source.Read(ctx)
	s.sleepFor(s.Window)
	after := s.Source.Read(ctx)
	level := Level(before, after)
	logger(s.Logger).DebugContext(ctx, "cpu sample",
		"rows", len(after), "level", level, "window", s.Window)
	return level
}

func (s *Sampler) sleepFor(d time.Duration) {
	if s.sleep == nil {
		time.Sleep(d)
		return
	}
	s.sleep(d)
}

// Level computes the busiest row's usage between two snapshots, scaled to
// 0..MaxLevel. Rows missing from either snapshot or without tick movement
// are ignored. Counters that went backwards count as no movement.
func Level(before, after model.Snapshot) int {
	return scale(MaxRatio(before, after))
}

// MaxRatio returns the highest busy fraction in [0,1] over rows present in
// both snapshots.
func MaxRatio(before, after model.Snapshot) float64 {
	var best float64
	for label, s0 := range before {
		s1, ok := after[label]
		if !ok {
			continue
		}
		r, ok := busyRatio(s0, s1)
		if ok && r > best {
			best = r
		}
	}
	return best
}

func busyRatio(s0, s1 model.CoreCounters) (float64, bool) {
	total := satSub(s1.Total(), s0.Total())
	if total == 0 {
		return 0, false
	}
	idle := satSub(s1.IdleTotal(), s0.IdleTotal())
	if idle > total {
		idle = total
	}
	return float64(total-idle) / float64(total), true
}

func satSub(a, b uint64) uint64 {
	if a < b {
		return 0
	}
	return a - b
}

func scale(ratio float64) int {
	level := int(math.Round(ratio * MaxLevel))
	if level < 0 {
		return 0
	}
	if level > MaxLevel {
		return MaxLevel
	}
	return level
}
