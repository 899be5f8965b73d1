package cmd

import (
	"context"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	scope "github.com/nimsforest/nimsforestscope"
)

func newSimulateCommand() *cobra.Command {
	simulateCmd := &cobra.Command{
		Use:   "simulate",
		Short: "Render a simulated bouncing ball with spike waveforms",
		RunE:  runSimulate,
	}

	simulateCmd.Flags().Uint64("seed", 1, "Random seed")
	simulateCmd.Flags().Duration("duration", 0, "Stop after this long (0 runs until interrupted)")
	simulateCmd.Flags().Duration("step", 10*time.Millisecond, "Simulation time step")

	return simulateCmd
}

func runSimulate(cmd *cobra.Command, args []string) error {
	seed, _ := cmd.Flags().GetUint64("seed")
	duration, _ := cmd.Flags().GetDuration("duration")
	step, _ := cmd.Flags().GetDuration("step")

	ctx := cmd.Context()
	h, err := newHost(ctx, cmd)
	if err != nil {
		return err
	}

	return h.run(ctx, func(ctx context.Context) error {
		if duration > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, duration)
			defer cancel()
		}

		sim := scope.NewSimulation(seed, h.adapter.Streams(),
			scope.WithSimulationKeys(h.cfg.Keys),
			scope.WithBounceCounters(h.cfg.Counters),
		)
		sim.Start(h.adapter)
		color.Cyan("Simulating, press Ctrl+C to stop")

		ticker := time.NewTicker(step)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				sim.Step(h.adapter, step)
			}
		}
	})
}
