package nimsforestscope

import (
	"fmt"
	"io"
	"maps"
	"sync"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

// Side-display labels of the bouncing-ball scenario.
const (
	LabelSpikeChannel  = "latest-spike-channel"
	LabelBouncesLeft   = "bounces-left"
	LabelBouncesRight  = "bounces-right"
	LabelBouncesTop    = "bounces-top"
	LabelBouncesBottom = "bounces-bottom"
	LabelBouncesCorner = "bounces-corner"
)

// TextSink is a labeled text output outside the raster surface.
type TextSink interface {
	SetText(text string)
}

// TextSinkFunc adapts a function to TextSink.
type TextSinkFunc func(text string)

// SetText implements TextSink.
func (f TextSinkFunc) SetText(text string) { f(text) }

// CounterBinding shows the attribute Key in the sink labeled Label.
type CounterBinding struct {
	Label string `yaml:"label" json:"label"`
	Key   string `yaml:"key" json:"key"`
}

// DefaultCounters returns the bounce counter bindings.
func DefaultCounters() []CounterBinding {
	return []CounterBinding{
		{Label: LabelBouncesLeft, Key: "bounces_left"},
		{Label: LabelBouncesRight, Key: "bounces_right"},
		{Label: LabelBouncesTop, Key: "bounces_top"},
		{Label: LabelBouncesBottom, Key: "bounces_bottom"},
		{Label: LabelBouncesCorner, Key: "bounces_corner"},
	}
}

// SideDisplay writes adapter state into labeled text sinks. Labels with no
// bound sink are skipped.
type SideDisplay struct {
	sinks        map[string][]TextSink
	channelLabel string
	counters     []CounterBinding
}

func newSideDisplay() *SideDisplay {
	return &SideDisplay{
		sinks:        make(map[string][]TextSink),
		channelLabel: LabelSpikeChannel,
		counters:     DefaultCounters(),
	}
}

func (d *SideDisplay) bind(label string, sink TextSink) {
	d.sinks[label] = append(d.sinks[label], sink)
}

func (d *SideDisplay) write(label, text string) {
	for _, sink := range d.sinks[label] {
		sink.SetText(text)
	}
}

// ShowChannel writes the current spike channel.
func (d *SideDisplay) ShowChannel(channel string) {
	d.write(d.channelLabel, channel)
}

// ShowCounters writes every bound counter from attrs.
func (d *SideDisplay) ShowCounters(attrs Attributes) {
	for _, c := range d.counters {
		d.write(c.Label, attrs.Text(c.Key))
	}
}

// TextBoard is an in-memory set of text sinks, safe for concurrent use.
// Hosts snapshot it together with the canvas to build frames.
type TextBoard struct {
	mu    sync.RWMutex
	texts map[string]string
}

// NewTextBoard creates an empty board.
func NewTextBoard() *TextBoard {
	return &TextBoard{texts: make(map[string]string)}
}

// Sink returns the sink writing to label.
func (b *TextBoard) Sink(label string) TextSink {
	return TextSinkFunc(func(text string) {
		b.mu.Lock()
		b.texts[label] = text
		b.mu.Unlock()
	})
}

// Text returns the text last written to label.
func (b *TextBoard) Text(label string) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.texts[label]
}

// Snapshot returns a copy of all texts.
func (b *TextBoard) Snapshot() map[string]string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return maps.Clone(b.texts)
}

// ConsoleSink prints "label: text" lines with a colored label.
type ConsoleSink struct {
	mu    sync.Mutex
	w     io.Writer
	label *color.Color
}

// NewConsoleSink creates a console sink writing to w.
func NewConsoleSink(w io.Writer) *ConsoleSink {
	return &ConsoleSink{w: w, label: color.New(color.FgCyan, color.Bold)}
}

// Sink returns the sink printing under label.
func (c *ConsoleSink) Sink(label string) TextSink {
	return TextSinkFunc(func(text string) {
		c.mu.Lock()
		defer c.mu.Unlock()
		fmt.Fprintf(c.w, "%s %s\n", c.label.Sprintf("%s:", label), text)
	})
}

// LogSink returns a sink logging every write at debug level.
func LogSink(log logrus.FieldLogger, label string) TextSink {
	return TextSinkFunc(func(text string) {
		log.WithField("label", label).Debugf("side display: %s", text)
	})
}
