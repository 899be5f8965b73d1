// Package nimsforestscope renders multiplexed telemetry streams onto a raster
// surface.
//
// An Adapter receives (stream, timestamp, payload) samples from a host,
// keeps only the latest value per stream plus a mergeable attribute map,
// and paints that state whenever the host asks it to draw. The Viewer,
// targets, Replay and Simulation in this package are host-side helpers
// built on the Adapter's public methods.
package nimsforestscope

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultBufferMs is the advised time between draws (one 60Hz frame).
const DefaultBufferMs = 1000.0 / 60

// Adapter holds the latest state of the recognised streams and paints it
// onto its surface. Every method is synchronous and never fails; unknown
// streams and missing state are ignored.
type Adapter struct {
	mu       sync.Mutex
	surface  Surface
	router   *Router
	store    AttributeStore
	latest   LatestValues
	renderer *Renderer
	display  *SideDisplay
	bufferMs float64
	log      logrus.FieldLogger
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithSink binds a text sink to a side-display label. Several sinks may
// share a label.
func WithSink(label string, sink TextSink) Option {
	return func(a *Adapter) {
		a.display.bind(label, sink)
	}
}

// WithStreams sets the recognised stream names.
func WithStreams(names StreamNames) Option {
	return func(a *Adapter) {
		a.router = NewRouter(names)
	}
}

// WithSceneKeys sets the attribute keys read by the renderer.
func WithSceneKeys(keys SceneKeys) Option {
	return func(a *Adapter) {
		a.renderer.Keys = keys
	}
}

// WithCounters sets which attributes are shown in which sinks.
func WithCounters(counters []CounterBinding) Option {
	return func(a *Adapter) {
		a.display.counters = counters
	}
}

// WithChannelLabel sets the sink label receiving spike channels.
func WithChannelLabel(label string) Option {
	return func(a *Adapter) {
		a.display.channelLabel = label
	}
}

// WithBufferMs sets the advised milliseconds between draws.
func WithBufferMs(ms float64) Option {
	return func(a *Adapter) {
		if ms > 0 {
			a.bufferMs = ms
		}
	}
}

// WithVerticalScale sets the waveform pixels per sample unit.
func WithVerticalScale(scale float64) Option {
	return func(a *Adapter) {
		a.renderer.VerticalScale = scale
	}
}

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(a *Adapter) {
		a.log = log
	}
}

// New creates an adapter painting onto surface. Attributes start absent.
func New(surface Surface, opts ...Option) *Adapter {
	a := &Adapter{
		surface:  surface,
		router:   NewRouter(DefaultStreamNames()),
		renderer: NewRenderer(),
		display:  newSideDisplay(),
		bufferMs: DefaultBufferMs,
		log:      logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// BufferMs returns the advised milliseconds between draws. The adapter
// itself never throttles.
func (a *Adapter) BufferMs() float64 {
	return a.bufferMs
}

// BufferInterval returns BufferMs as a duration.
func (a *Adapter) BufferInterval() time.Duration {
	return msDuration(a.bufferMs)
}

func msDuration(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}

// Streams returns the recognised stream names.
func (a *Adapter) Streams() StreamNames {
	return a.router.Names()
}

// Reset clears attributes and both cached samples.
func (a *Adapter) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.store.Clear()
	a.latest.Clear()
}

// AttributesReset replaces the attributes wholesale when stream is the
// attribute stream.
func (a *Adapter) AttributesReset(stream string, attrs Attributes) {
	if !a.router.IsAttributeStream(stream) {
		a.ignored(stream, "attributes reset")
		return
	}

	a.mu.Lock()
	refresh := a.store.Replace(attrs)
	current := a.currentAttributes()
	a.mu.Unlock()

	if refresh {
		a.display.ShowCounters(current)
	}
}

// AttributesUpdated shallow-merges partial into the attributes when stream
// is the attribute stream. Fields not named in partial are kept.
func (a *Adapter) AttributesUpdated(stream string, partial Attributes) {
	if !a.router.IsAttributeStream(stream) {
		a.ignored(stream, "attributes update")
		return
	}

	a.mu.Lock()
	refresh, err := a.store.Merge(partial)
	current := a.currentAttributes()
	a.mu.Unlock()

	if err != nil {
		a.log.WithField("stream", stream).WithError(err).Error("attributes update dropped")
		return
	}
	if refresh {
		a.display.ShowCounters(current)
	}
}

// Process stores the latest sample of a recognised stream. The timestamp
// is not retained. A spike sample updates the channel sink immediately.
func (a *Adapter) Process(stream string, timestamp float64, payload any) {
	a.mu.Lock()
	route, err := a.router.Route(&a.latest, stream, payload)
	a.mu.Unlock()

	if err != nil {
		a.log.WithFields(logrus.Fields{
			"stream":    stream,
			"timestamp": timestamp,
		}).WithError(err).Warn("sample dropped")
		return
	}
	if route.Kind == StreamUnrecognized {
		a.ignored(stream, "sample")
		return
	}
	if route.ChannelChanged {
		a.display.ShowChannel(route.Channel)
	}
}

// Draw paints the current state onto the surface.
func (a *Adapter) Draw() {
	a.mu.Lock()
	defer a.mu.Unlock()

	var scene Scene
	if attrs, ok := a.store.Current(); ok {
		scene.Attributes = attrs
	}
	if pos, ok := a.latest.Position(); ok {
		scene.Position = &pos
	}
	if spike, ok := a.latest.Spike(); ok {
		scene.Spike = &spike
	}

	if a.renderer.Draw(a.surface, scene) {
		w, h := a.surface.Size()
		a.log.WithFields(logrus.Fields{"width": w, "height": h}).Debug("surface resized")
	}
}

// Attributes returns a copy of the current attributes.
func (a *Adapter) Attributes() (Attributes, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	attrs, ok := a.store.Current()
	if !ok {
		return nil, false
	}
	return attrs.Clone(), true
}

// LatestPosition returns the latest entity position.
func (a *Adapter) LatestPosition() (Position, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.latest.Position()
}

// LatestSpike returns a copy of the latest spike sample.
func (a *Adapter) LatestSpike() (SpikeSample, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	spike, ok := a.latest.Spike()
	if !ok {
		return SpikeSample{}, false
	}
	return spike.clone(), true
}

// currentAttributes copies the attributes for sink writes outside the lock.
func (a *Adapter) currentAttributes() Attributes {
	attrs, _ := a.store.Current()
	return attrs.Clone()
}

func (a *Adapter) ignored(stream, what string) {
	a.log.WithField("stream", stream).Tracef("ignoring %s of unrecognized stream", what)
}
