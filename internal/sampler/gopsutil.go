package sampler

import (
	"context"
	"log/slog"
	"math"

	"github.com/shirou/gopsutil/v3/cpu"

	"github.com/Dicklesworthstone/roofpi/internal/model"
)

// userHZ is the tick rate gopsutil divides the kernel counters by.
const userHZ = 100

// Gopsutil reads the counters through gopsutil. The aggregate row is
// labelled "cpu" like in /proc/stat.
type Gopsutil struct {
	Logger *slog.Logger
}

func (g Gopsutil) Read(ctx context.Context) model.Snapshot {
	snap := model.Snapshot{}
	total, err := cpu.TimesWithContext(ctx, false)
	if err != nil {
		logger(g.Logger).DebugContext(ctx, "gopsutil cpu times", "err", err)
		return snap
	}
	perCore, err := cpu.TimesWithContext(ctx, true)
	if err != nil {
		logger(g.Logger).DebugContext(ctx, "gopsutil per-core cpu times", "err", err)
	}
	for _, t := range total {
		c := fromTimes(t)
		c.Label = cpuPrefix
		snap[c.Label] = c
	}
	for _, t := range perCore {
		c := fromTimes(t)
		snap[c.Label] = c
	}
	return snap
}

func fromTimes(t cpu.TimesStat) model.CoreCounters {
	return model.CoreCounters{
		Label:     t.CPU,
		User:      ticks(t.User),
		Nice:      ticks(t.Nice),
		System:    ticks(t.System),
		Idle:      ticks(t.Idle),
		Iowait:    ticks(t.Iowait),
		Irq:       ticks(t.Irq),
		Softirq:   ticks(t.Softirq),
		Steal:     ticks(t.Steal),
		Guest:     ticks(t.Guest),
		GuestNice: ticks(t.GuestNice),
	}
}

func ticks(seconds float64) uint64 {
	if seconds <= 0 || math.IsNaN(seconds) {
		return 0
	}
	return uint64(math.Round(seconds * userHZ))
}
