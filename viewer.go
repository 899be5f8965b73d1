package nimsforestscope

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Viewer is the host render loop: it pulls frames from a FrameProvider on
// its own cadence and pushes them to every target.
type Viewer struct {
	mu       sync.RWMutex
	provider FrameProvider
	targets  []Target
	interval time.Duration
	log      logrus.FieldLogger
	cancel   context.CancelFunc
	done     chan struct{}
}

// ViewerOption configures the Viewer.
type ViewerOption func(*Viewer)

// WithInterval sets the time between frames.
func WithInterval(d time.Duration) ViewerOption {
	return func(v *Viewer) {
		if d > 0 {
			v.interval = d
		}
	}
}

// WithViewerLogger sets the logger used by the background loop.
func WithViewerLogger(log logrus.FieldLogger) ViewerOption {
	return func(v *Viewer) {
		v.log = log
	}
}

// NewViewer creates a new Viewer with the given options.
func NewViewer(opts ...ViewerOption) *Viewer {
	v := &Viewer{
		interval: msDuration(DefaultBufferMs),
		log:      logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Interval returns the time between frames.
func (v *Viewer) Interval() time.Duration {
	return v.interval
}

// SetFrameProvider sets the source of frames.
func (v *Viewer) SetFrameProvider(p FrameProvider) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.provider = p
}

// AddTarget adds an output target.
func (v *Viewer) AddTarget(t Target) error {
	if t == nil {
		return fmt.Errorf("nil target")
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.targets = append(v.targets, t)
	return nil
}

// RemoveTarget removes a target by reference.
func (v *Viewer) RemoveTarget(t Target) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i, target := range v.targets {
		if target == t {
			v.targets = append(v.targets[:i], v.targets[i+1:]...)
			return
		}
	}
}

// Start renders a first frame and begins periodic updates.
func (v *Viewer) Start(ctx context.Context) error {
	v.mu.Lock()
	if v.cancel != nil {
		v.mu.Unlock()
		return fmt.Errorf("viewer already started")
	}
	v.mu.Unlock()

	if err := v.Update(ctx); err != nil {
		return err
	}

	v.mu.Lock()
	ctx, v.cancel = context.WithCancel(ctx)
	v.done = make(chan struct{})
	done := v.done
	v.mu.Unlock()

	go v.run(ctx, done)
	return nil
}

func (v *Viewer) run(ctx context.Context, done chan struct{}) {
	ticker := time.NewTicker(v.interval)
	defer ticker.Stop()
	defer close(done)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := v.Update(ctx); err != nil {
				v.log.WithError(err).Warn("frame update failed")
			}
		}
	}
}

// Stop stops periodic updates and waits for the loop to exit.
func (v *Viewer) Stop() {
	v.mu.Lock()
	done := v.done
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
	v.done = nil
	v.mu.Unlock()

	if done != nil {
		<-done
	}
}

// Update renders one frame and pushes it to all targets.
func (v *Viewer) Update(ctx context.Context) error {
	v.mu.RLock()
	provider := v.provider
	targets := make([]Target, len(v.targets))
	copy(targets, v.targets)
	v.mu.RUnlock()

	if provider == nil {
		return fmt.Errorf("no frame provider set")
	}

	frame, err := provider.GetFrame()
	if err != nil {
		return fmt.Errorf("failed to get frame: %w", err)
	}

	var lastErr error
	for _, target := range targets {
		if err := target.Update(ctx, frame); err != nil {
			lastErr = fmt.Errorf("target %s: %w", target.Name(), err)
		}
	}
	return lastErr
}

// Close stops the viewer and closes all targets.
func (v *Viewer) Close() error {
	v.Stop()

	v.mu.Lock()
	targets := v.targets
	v.targets = nil
	v.mu.Unlock()

	var lastErr error
	for _, target := range targets {
		if err := target.Close(); err != nil {
			lastErr = fmt.Errorf("close %s: %w", target.Name(), err)
		}
	}
	return lastErr
}
