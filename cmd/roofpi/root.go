package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Dicklesworthstone/roofpi/internal/config"
	"github.com/Dicklesworthstone/roofpi/internal/metrics"
	"github.com/Dicklesworthstone/roofpi/internal/netaddr"
	"github.com/Dicklesworthstone/roofpi/internal/sampler"
)

var version = "dev"

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return newRootCmd().ExecuteContext(ctx)
}

// env carries what every subcommand needs once flags are resolved.
type env struct {
	v      *viper.Viper
	cfg    config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	e := &env{v: viper.New()}
	rootCmd := &cobra.Command{
		Use:           "roofpi",
		Short:         "Show the host address and CPU load on a 16x2 I2C display",
		Long:          "roofpi samples the outbound IPv4 address and the busiest CPU core every few seconds and writes them to an HD44780 display behind a PCF8574 I2C backpack.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(e.v)
			if err != nil {
				return err
			}
			e.cfg = cfg
			e.logger = newLogger(cmd.ErrOrStderr(), cfg)
			slog.SetDefault(e.logger)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDisplay(cmd.Context(), e)
		},
	}
	if err := config.BindFlags(rootCmd.PersistentFlags(), e.v); err != nil {
		rootCmd.RunE = func(*cobra.Command, []string) error { return err }
		return rootCmd
	}

	rootCmd.AddCommand(
		newRunCmd(e),
		newOnceCmd(e),
		newPreviewCmd(e),
		newVersionCmd(),
	)
	return rootCmd
}

func newLogger(w io.Writer, cfg config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func newSampler(e *env) *sampler.Sampler {
	var src sampler.Source
	switch e.cfg.Source {
	case config.SourceGopsutil:
		src = sampler.Gopsutil{Logger: e.logger}
	default:
		src = sampler.ProcStat{Path: e.cfg.StatPath, Logger: e.logger}
	}
	s := sampler.New(src, e.cfg.Window)
	s.Logger = e.logger
	return s
}

func newResolver(e *env) *netaddr.Resolver {
	return netaddr.New(e.cfg.Probe, e.logger)
}

// startMetrics serves metrics in the background when an address is set.
func startMetrics(ctx context.Context, e *env) *metrics.Metrics {
	m := metrics.New()
	if e.cfg.MetricsAddr == "" {
		return m
	}
	go func() {
		if err := m.Serve(ctx, e.cfg.MetricsAddr, e.logger); err != nil {
			e.logger.Error("metrics server", "addr", e.cfg.MetricsAddr, "err", err)
		}
	}()
	return m
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the roofpi version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "roofpi", version)
			return err
		},
	}
}
