// Package metrics exposes the service's cycle counters to Prometheus.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "roofpi"

// Metrics groups the collectors updated by the service loop.
type Metrics struct {
	Registry      *prometheus.Registry
	CPULevel      prometheus.Gauge
	Cycles        prometheus.Counter
	DisplayErrors prometheus.Counter
	CycleDuration prometheus.Histogram
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		CPULevel: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cpu_level",
			Help:      "Busiest core load of the last cycle on a 0-10 scale.",
		}),
		Cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Completed display refresh cycles.",
		}),
		DisplayErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "display_errors_total",
			Help:      "Display writes that failed on the bus.",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Time spent sampling and writing both display lines.",
			Buckets:   []float64{0.25, 0.5, 0.6, 0.75, 1, 1.5, 2, 5},
		}),
	}
	reg.MustRegister(
		m.CPULevel, m.Cycles, m.DisplayErrors, m.CycleDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveCycle records one finished cycle.
func (m *Metrics) ObserveCycle(level int, took time.Duration) {
	if m == nil {
		return
	}
	m.CPULevel.Set(float64(level))
	m.Cycles.Inc()
	m.CycleDuration.Observe(took.Seconds())
}

// DisplayError counts a failed display write.
func (m *Metrics) DisplayError() {
	if m == nil {
		return
	}
	m.DisplayErrors.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// Serve exposes /metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
