package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	scope "github.com/nimsforest/nimsforestscope"
)

func newReplayCommand() *cobra.Command {
	replayCmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay a JSONL stream recording",
		Long: `Replay reads one record per line:

  {"op":"attributes_reset","stream":"gameplay","data":{"game_width":400,...}}
  {"stream":"gameplay","timestamp":16.6,"data":{"x":200,"y":150}}

Ops are reset, attributes_reset, attributes_updated and sample (default).`,
		RunE: runReplay,
	}

	replayCmd.Flags().StringP("input", "i", "-", "Recording to replay, - for stdin")
	replayCmd.Flags().Float64("speed", 1, "Playback speed for real-time pacing")
	replayCmd.Flags().Bool("realtime", true, "Pace records by their timestamps")

	return replayCmd
}

func runReplay(cmd *cobra.Command, args []string) error {
	input, _ := cmd.Flags().GetString("input")
	speed, _ := cmd.Flags().GetFloat64("speed")
	realtime, _ := cmd.Flags().GetBool("realtime")

	var r io.Reader = os.Stdin
	if input != "-" {
		f, err := os.Open(input)
		if err != nil {
			return fmt.Errorf("open recording: %w", err)
		}
		defer f.Close()
		r = f
	}

	ctx := cmd.Context()
	h, err := newHost(ctx, cmd)
	if err != nil {
		return err
	}

	return h.run(ctx, func(ctx context.Context) error {
		opts := []scope.ReplayOption{scope.WithReplayLogger(h.log)}
		if realtime {
			opts = append(opts, scope.WithRealtime(speed))
		}
		h.adapter.Reset()
		n, err := scope.Replay(ctx, r, h.adapter, opts...)
		color.Cyan("Replayed %d records", n)
		return err
	})
}
