// Package service runs the refresh loop: look up the address, sample the
// CPU, and write both lines to the display.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dicklesworthstone/roofpi/internal/format"
	"github.com/Dicklesworthstone/roofpi/internal/lcd"
	"github.com/Dicklesworthstone/roofpi/internal/metrics"
	"github.com/Dicklesworthstone/roofpi/internal/model"
)

// DefaultInterval is the pause between cycles.
const DefaultInterval = 3 * time.Second

type Display interface {
	Write(text string, line lcd.Line) error
}

type Sampler interface {
	Sample(ctx context.Context) int
}

type Resolver interface {
	Lookup(ctx context.Context) string
}

// Service owns the display for the life of the process.
type Service struct {
	Display  Display
	Sampler  Sampler
	Resolver Resolver
	Interval time.Duration
	Logger   *slog.Logger
	Metrics  *metrics.Metrics

	// OnSample, when set, receives every completed cycle.
	OnSample func(model.Sample)

	now func() time.Time
}

func (s *Service) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func (s *Service) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}

// Cycle runs one refresh. A display error is returned unchanged in meaning:
// the device is considered gone and the caller should stop.
func (s *Service) Cycle(ctx context.Context) (model.Sample, error) {
	start := s.clock()
	samp := model.Sample{Timestamp: start, Interval: s.Interval}

	samp.Address = s.Resolver.Lookup(ctx)
	samp.CPULevel = s.Sampler.Sample(ctx)
	samp.Lines = [2]string{
		format.Line(samp.Address, format.Width),
		format.Line(format.Bar(samp.CPULevel), format.Width),
	}

	for i, line := range []lcd.Line{lcd.Line1, lcd.Line2} {
		if err := s.Display.Write(samp.Lines[i], line); err != nil {
			s.Metrics.DisplayError()
			return samp, fmt.Errorf("display line %d: %w", i+1, err)
		}
	}

	took := s.clock().Sub(start)
	s.Metrics.ObserveCycle(samp.CPULevel, took)
	s.logger().DebugContext(ctx, "cycle",
		"address", samp.Address, "cpu_level", samp.CPULevel, "took", took)
	if s.OnSample != nil {
		s.OnSample(samp)
	}
	return samp, nil
}

// Run repeats Cycle every Interval until ctx is cancelled or the display
// fails. Cancellation is only observed between cycles.
func (s *Service) Run(ctx context.Context) error {
	interval := s.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	s.logger().Info("starting refresh loop", "interval", interval)

	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger().Info("refresh loop stopped")
			return nil
		case <-timer.C:
		}
		if _, err := s.Cycle(ctx); err != nil {
			s.logger().ErrorContext(ctx, "display failed", "err", err)
			return err
		}
		if ctx.Err() != nil {
			s.logger().Info("refresh loop stopped")
			return nil
		}
		timer.Reset(interval)
	}
}
