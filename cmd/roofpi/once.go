package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/roofpi/internal/lcd"
	"github.com/Dicklesworthstone/roofpi/internal/service"
)

func newOnceCmd(e *env) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "once",
		Short: "Run a single cycle against an emulated display and print it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			emu := lcd.NewEmulator()
			svc := &service.Service{
				Display:  lcd.New(emu, lcd.WithLogger(e.logger)),
				Sampler:  newSampler(e),
				Resolver: newResolver(e),
				Interval: e.cfg.Interval,
				Logger:   e.logger,
			}
			samp, err := svc.Cycle(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(samp)
			}
			rows := emu.Rows()
			_, err = fmt.Fprintf(out, "+----------------+\n|%s|\n|%s|\n+----------------+\n", rows[0], rows[1])
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the cycle as JSON instead of the screen")
	return cmd
}
