package sampler

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/Dicklesworthstone/roofpi/internal/model"
)

const (
	// DefaultStatPath is where the kernel exposes cumulative cpu ticks.
	DefaultStatPath = "/proc/stat"

	cpuPrefix   = "cpu"
	counterCols = 10
)

// Source reads one snapshot of the cpu counters. Failures yield an empty or
// partial snapshot, never an error.
type Source interface {
	Read(ctx context.Context) model.Snapshot
}

// ProcStat reads the counters from a /proc/stat formatted file.
type ProcStat struct {
	Path   string
	Logger *slog.Logger
}

func (p ProcStat) Read(ctx context.Context) model.Snapshot {
	path := p.Path
	if path == "" {
		path = DefaultStatPath
	}
	f, err := os.Open(path)
	if err != nil {
		logger(p.Logger).DebugContext(ctx, "cpu counters unavailable", "path", path, "err", err)
		return model.Snapshot{}
	}
	defer f.Close()
	return ParseStat(f)
}

// ParseStat collects every row starting with "cpu" that carries at least ten
// numeric counters. Short rows and rows with an unparsable counter are left out.
func ParseStat(r io.Reader) model.Snapshot {
	snap := model.Snapshot{}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, cpuPrefix) {
			continue
		}
		if c, ok := parseRow(strings.Fields(line)); ok {
			snap[c.Label] = c
		}
	}
	return snap
}

func parseRow(fields []string) (model.CoreCounters, bool) {
	if len(fields) < counterCols+1 {
		return model.CoreCounters{}, false
	}
	var v [counterCols]uint64
	for i := range v {
		n, err := strconv.ParseUint(fields[i+1], 10, 64)
		if err != nil {
			return model.CoreCounters{}, false
		}
		v[i] = n
	}
	return model.CoreCounters{
		Label:     fields[0],
		User:      v[0],
		Nice:      v[1],
		System:    v[2],
		Idle:      v[3],
		Iowait:    v[4],
		Irq:       v[5],
		Softirq:   v[6],
		Steal:     v[7],
		Guest:     v[8],
		GuestNice: v[9],
	}, true
}

func logger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
