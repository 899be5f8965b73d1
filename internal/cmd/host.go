package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	smarttv "github.com/nimsforest/nimsforestsmarttv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	scope "github.com/nimsforest/nimsforestscope"
)

// host wires an adapter to a canvas, side-display sinks, a viewer and the
// targets selected on the command line.
type host struct {
	cfg     scope.Config
	log     *logrus.Logger
	canvas  *scope.Canvas
	board   *scope.TextBoard
	adapter *scope.Adapter
	viewer  *scope.Viewer
	tv      *scope.SmartTVTarget
	web     *scope.WebTarget
	hold    bool
}

func newHost(ctx context.Context, cmd *cobra.Command) (*host, error) {
	flags := cmd.Flags()
	configPath, _ := flags.GetString("config")
	webAddr, _ := flags.GetString("web")
	useTV, _ := flags.GetBool("tv")
	recordPath, _ := flags.GetString("record")
	logLevel, _ := flags.GetString("log-level")
	console, _ := flags.GetBool("console")
	hold, _ := flags.GetBool("hold")

	cfg, err := scope.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	if webAddr != "" {
		cfg.Web.Addr = webAddr
	}
	if recordPath != "" {
		cfg.Video.Path = recordPath
	}

	log := logrus.New()
	log.SetLevel(cfg.Level())

	h := &host{
		cfg:    cfg,
		log:    log,
		canvas: scope.NewCanvas(0, 0),
		board:  scope.NewTextBoard(),
		hold:   hold,
	}

	opts := append(cfg.Options(), scope.WithLogger(log))
	labels := sinkLabels(cfg)

	var webOpts []scope.WebOption
	if cfg.Web.Dir != "" {
		webOpts = append(webOpts, scope.WithWebDir(cfg.Web.Dir))
	}
	if cfg.Web.Addr != "" {
		h.web, err = scope.NewWebTarget(cfg.Web.Addr, append(webOpts, scope.WithWebLogger(log))...)
		if err != nil {
			return nil, fmt.Errorf("create web target: %w", err)
		}
	}

	var consoleSink *scope.ConsoleSink
	if console {
		consoleSink = scope.NewConsoleSink(os.Stdout)
	}
	for _, label := range labels {
		opts = append(opts,
			scope.WithSink(label, h.board.Sink(label)),
			scope.WithSink(label, scope.LogSink(log, label)),
		)
		if h.web != nil {
			opts = append(opts, scope.WithSink(label, h.web.Sink(label)))
		}
		if consoleSink != nil {
			opts = append(opts, scope.WithSink(label, consoleSink.Sink(label)))
		}
	}

	h.adapter = scope.New(h.canvas, opts...)
	h.viewer = scope.NewViewer(
		scope.WithInterval(h.adapter.BufferInterval()),
		scope.WithViewerLogger(log),
	)
	h.viewer.SetFrameProvider(scope.NewCanvasFrameProvider(h.adapter, h.canvas, h.board))

	if h.web != nil {
		if err := h.viewer.AddTarget(h.web); err != nil {
			return nil, err
		}
		color.Green("Serving on %s", h.web.URL())
	}

	if cfg.Video.Path != "" {
		fps := cfg.Video.FPS
		if fps <= 0 {
			fps = int(1000/h.adapter.BufferMs() + 0.5)
		}
		video, err := scope.NewVideoTarget(cfg.Video.Path, scope.WithVideoFPS(fps))
		if err != nil {
			return nil, err
		}
		if err := h.viewer.AddTarget(video); err != nil {
			return nil, err
		}
		color.Green("Recording to %s at %d fps", cfg.Video.Path, fps)
	}

	if useTV {
		color.Cyan("Discovering Smart TVs...")
		tvs, err := smarttv.Discover(ctx, 5*time.Second)
		if err != nil {
			return nil, fmt.Errorf("discover TVs: %w", err)
		}
		if len(tvs) == 0 {
			return nil, fmt.Errorf("no TVs found on the network")
		}
		tv := &tvs[0]
		color.Green("Found: %s", tv.String())
		h.tv, err = scope.NewSmartTVTarget(tv, scope.WithJFIF(true))
		if err != nil {
			return nil, err
		}
		if err := h.viewer.AddTarget(h.tv); err != nil {
			return nil, err
		}
	}

	return h, nil
}

func sinkLabels(cfg scope.Config) []string {
	labels := []string{cfg.ChannelLabel}
	for _, c := range cfg.Counters {
		labels = append(labels, c.Label)
	}
	return labels
}

// run starts the viewer, runs feed, then waits for interruption when
// holding and closes everything.
func (h *host) run(ctx context.Context, feed func(ctx context.Context) error) error {
	if err := h.viewer.Start(ctx); err != nil {
		return fmt.Errorf("start viewer: %w", err)
	}

	feedErr := feed(ctx)
	if feedErr == nil && h.hold {
		color.Cyan("Input finished, press Ctrl+C to stop")
		<-ctx.Done()
	}

	if h.tv != nil {
		h.tv.Stop(context.Background())
	}
	if err := h.viewer.Close(); err != nil {
		h.log.WithError(err).Warn("closing targets")
	}

	if feedErr != nil && ctx.Err() == nil {
		return feedErr
	}
	return nil
}
