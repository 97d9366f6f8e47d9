package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/roofpi/internal/lcd"
	"github.com/Dicklesworthstone/roofpi/internal/service"
)

func newRunCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Drive the I2C display until interrupted (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDisplay(cmd.Context(), e)
		},
	}
}

// runDisplay opens the display and loops until ctx ends. Any bus failure
// ends the command with an error so the process exits non-zero.
func runDisplay(ctx context.Context, e *env) error {
	display, closer, err := lcd.Open(e.cfg.Bus, e.cfg.Address, lcd.WithLogger(e.logger))
	if err != nil {
		e.logger.Error("display unavailable", "bus", e.cfg.Bus, "address", e.cfg.Address, "err", err)
		return err
	}
	defer closer.Close()

	svc := &service.Service{
		Display:  display,
		Sampler:  newSampler(e),
		Resolver: newResolver(e),
		Interval: e.cfg.Interval,
		Logger:   e.logger,
		Metrics:  startMetrics(ctx, e),
	}
	return svc.Run(ctx)
}
