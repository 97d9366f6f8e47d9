package sampler

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dicklesworthstone/roofpi/internal/model"
)

// row builds counters whose Total is total and IdleTotal is idle.
func row(label string, total, idle uint64) model.CoreCounters {
	return model.CoreCounters{Label: label, User: total - idle, Idle: idle}
}

func snapshot(rows ...model.CoreCounters) model.Snapshot {
	s := model.Snapshot{}
	for _, r := range rows {
		s[r.Label] = r
	}
	return s
}

func TestLevelFollowsBusiestCore(t *testing.T) {
	before := snapshot(row("cpu0", 1000, 500), row("cpu1", 1000, 500))
	after := snapshot(row("cpu0", 1100, 520), row("cpu1", 1100, 590))

	assert.InDelta(t, 0.8, MaxRatio(before, after), 1e-9)
	assert.Equal(t, 8, Level(before, after))
}

func TestLevelAggregateRowCompetes(t *testing.T) {
	before := snapshot(row("cpu", 2000, 1000), row("cpu0", 1000, 500))
	after := snapshot(row("cpu", 2200, 1020), row("cpu0", 1100, 600))

	assert.Equal(t, 9, Level(before, after))
}

func TestLevelNoMovementIsZero(t *testing.T) {
	s := snapshot(row("cpu", 5000, 100), row("cpu0", 2500, 50))
	assert.Equal(t, 0, Level(s, s))
}

func TestLevelEmptyOrDisjointSnapshots(t *testing.T) {
	assert.Equal(t, 0, Level(model.Snapshot{}, model.Snapshot{}))
	assert.Equal(t, 0, Level(
		snapshot(row("cpu0", 10, 0)),
		snapshot(row("cpu1", 999, 0)),
	))
}

func TestLevelRounding(t *testing.T) {
	before := snapshot(row("cpu0", 0, 0))
	assert.Equal(t, 5, Level(before, snapshot(row("cpu0", 100, 55))))  // 0.45
	assert.Equal(t, 6, Level(before, snapshot(row("cpu0", 100, 44))))  // 0.56
	assert.Equal(t, 10, Level(before, snapshot(row("cpu0", 100, 0))))  // 1.0
	assert.Equal(t, 0, Level(before, snapshot(row("cpu0", 100, 100)))) // 0.0
}

func TestLevelCountersGoingBackwards(t *testing.T) {
	// total regressed: row ignored
	assert.Equal(t, 0, Level(
		snapshot(row("cpu0", 1000, 100)),
		snapshot(row("cpu0", 900, 50)),
	))
	// idle regressed while total moved: fully busy
	assert.Equal(t, 10, Level(
		snapshot(row("cpu0", 1000, 800)),
		snapshot(row("cpu0", 1100, 700)),
	))
	// idle moved more than total
	assert.Equal(t, 0, Level(
		snapshot(model.CoreCounters{Label: "cpu0", User: 500, Idle: 100}),
		snapshot(model.CoreCounters{Label: "cpu0", User: 450, Idle: 300}),
	))
}

func TestLevelAlwaysInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	counters := func() model.CoreCounters {
		return model.CoreCounters{
			User: rng.Uint64() >> 8, Nice: rng.Uint64() >> 8, System: rng.Uint64() >> 8,
			Idle: rng.Uint64() >> 8, Iowait: rng.Uint64() >> 8, Irq: uint64(rng.Intn(100)),
			Softirq: uint64(rng.Intn(100)), Steal: uint64(rng.Intn(100)),
		}
	}
	for i := 0; i < 500; i++ {
		a, b := counters(), counters()
		a.Label, b.Label = "cpu", "cpu"
		level := Level(snapshot(a), snapshot(b))
		require.GreaterOrEqual(t, level, 0)
		require.LessOrEqual(t, level, MaxLevel)
	}
}

type fakeSource struct {
	reads []model.Snapshot
	n     int
}

func (f *fakeSource) Read(context.Context) model.Snapshot {
	s := f.reads[f.n]
	f.n++
	return s
}

func TestSampleReadsTwiceAcrossWindow(t *testing.T) {
	src := &fakeSource{reads: []model.Snapshot{
		snapshot(row("cpu0", 100, 100), row("cpu1", 100, 100)),
		snapshot(row("cpu0", 200, 120), row("cpu1", 200, 190)),
	}}
	s := New(src, 0)
	var slept []time.Duration
	s.sleep = func(d time.Duration) { slept = append(slept, d) }

	assert.Equal(t, 8, s.Sample(context.Background()))
	assert.Equal(t, 2, src.n)
	assert.Equal(t, []time.Duration{DefaultWindow}, slept)
}

func TestSampleUnreadableSourceIsZero(t *testing.T) {
	s := New(ProcStat{Path: filepath.Join(t.TempDir(), "missing")}, time.Millisecond)
	assert.Equal(t, 0, s.Sample(context.Background()))
}

func TestSampleFromStatFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stat")
	first := "cpu  100 0 0 100 0 0 0 0 0 0\ncpu0 50 0 0 50 0 0 0 0 0 0\n"
	second := "cpu  150 0 0 150 0 0 0 0 0 0\ncpu0 95 0 0 55 0 0 0 0 0 0\n"
	require.NoError(t, os.WriteFile(path, []byte(first), 0o644))

	s := New(ProcStat{Path: path}, time.Second)
	s.sleep = func(time.Duration) {
		require.NoError(t, os.WriteFile(path, []byte(second), 0o644))
	}
	// cpu0: 45 of 50 ticks busy
	assert.Equal(t, 9, s.Sample(context.Background()))
}
