package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/roofpi/internal/lcd"
	"github.com/Dicklesworthstone/roofpi/internal/model"
	"github.com/Dicklesworthstone/roofpi/internal/service"
	"github.com/Dicklesworthstone/roofpi/internal/ui"
)

func newPreviewCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "preview",
		Short: "Render the display in the terminal instead of on the I2C bus",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			// the terminal belongs to the preview
			quiet := *e
			quiet.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
			e := &quiet

			emu := lcd.NewEmulator()
			samples := make(chan model.Sample, 1)
			svc := &service.Service{
				Display:  lcd.New(emu, lcd.WithLogger(e.logger)),
				Sampler:  newSampler(e),
				Resolver: newResolver(e),
				Interval: e.cfg.Interval,
				Logger:   e.logger,
				Metrics:  startMetrics(ctx, e),
				OnSample: func(s model.Sample) {
					select {
					case samples <- s:
					default:
					}
				},
			}

			m := ui.New(emu, samples, cancel)
			prog := ui.NewProgram(m)
			go func() {
				if err := svc.Run(ctx); err != nil {
					prog.Send(ui.ErrMsg{Err: err})
				}
			}()
			if _, err := prog.Run(); err != nil {
				return err
			}
			return m.Err()
		},
	}
}
