package model

import "time"

// CoreCounters holds the cumulative tick counters of one /proc/stat cpu row.
type CoreCounters struct {
	Label     string
	User      uint64
	Nice      uint64
	System    uint64
	Idle      uint64
	Iowait    uint64
	Irq       uint64
	Softirq   uint64
	Steal     uint64
	Guest     uint64
	GuestNice uint64
}

// Total sums every counter of the row.
func (c CoreCounters) Total() uint64 {
	return c.User + c.Nice + c.System + c.Idle + c.Iowait +
		c.Irq + c.Softirq + c.Steal + c.Guest + c.GuestNice
}

// IdleTotal is the time spent idle or waiting on I/O.
func (c CoreCounters) IdleTotal() uint64 { return c.Idle + c.Iowait }

// Snapshot is one read of every cpu row, keyed by label ("cpu", "cpu0", ...).
type Snapshot map[string]CoreCounters

// Sample is what one service cycle produced.
type Sample struct {
	Timestamp time.Time
	Interval  time.Duration
	Address   string
	CPULevel  int
	Lines     [2]string
}

// Zero returns an empty sample for initialization.
func Zero() Sample { return Sample{Timestamp: time.Now()} }
