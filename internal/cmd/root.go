package cmd

import (
	"github.com/spf13/cobra"
)

// NewRootCommand builds the nimsforestscope command tree.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "nimsforestscope",
		Short:         "Render telemetry streams to web, Smart TV or video",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "Path to a YAML config file")
	flags.String("web", "", "Serve the visualization on this address (e.g. :8080)")
	flags.Bool("tv", false, "Discover a Smart TV and display frames on it")
	flags.String("record", "", "Record frames to this video file (requires ffmpeg)")
	flags.String("log-level", "", "Log level (overrides config)")
	flags.Bool("console", false, "Print side-display texts to the terminal")
	flags.Bool("hold", false, "Keep serving after the input ends until interrupted")

	rootCmd.AddCommand(newReplayCommand())
	rootCmd.AddCommand(newSimulateCommand())

	return rootCmd
}
