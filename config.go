package nimsforestscope

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

var (
	// ErrInvalidBufferMs is returned for a non-positive draw cadence.
	ErrInvalidBufferMs = errors.New("buffer_ms must be positive")
	// ErrInvalidStreams is returned when stream names are empty or equal.
	ErrInvalidStreams = errors.New("entity and spike streams must be distinct and non-empty")
	// ErrInvalidSceneKeys is returned when a scene key is empty.
	ErrInvalidSceneKeys = errors.New("scene keys must be non-empty")
)

// Config is the file form of the adapter and host settings.
type Config struct {
	BufferMs      float64          `yaml:"buffer_ms"`
	VerticalScale float64          `yaml:"vertical_scale"`
	Streams       StreamNames      `yaml:"streams"`
	Keys          SceneKeys        `yaml:"keys"`
	ChannelLabel  string           `yaml:"channel_label"`
	Counters      []CounterBinding `yaml:"counters"`
	LogLevel      string           `yaml:"log_level"`
	Web           WebConfig        `yaml:"web"`
	Video         VideoConfig      `yaml:"video"`
}

// WebConfig configures the web target. An empty Addr disables it.
type WebConfig struct {
	Addr string `yaml:"addr"`
	Dir  string `yaml:"dir"`
}

// VideoConfig configures the video target. An empty Path disables it.
type VideoConfig struct {
	Path string `yaml:"path"`
	FPS  int    `yaml:"fps"`
}

// DefaultConfig returns the settings of the bouncing-ball scenario.
func DefaultConfig() Config {
	return Config{
		BufferMs:      DefaultBufferMs,
		VerticalScale: DefaultVerticalScale,
		Streams:       DefaultStreamNames(),
		Keys:          DefaultSceneKeys(),
		ChannelLabel:  LabelSpikeChannel,
		Counters:      DefaultCounters(),
		LogLevel:      "info",
	}
}

// ParseConfig decodes YAML over DefaultConfig and validates the result.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads a YAML config file. An empty path yields the defaults.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return ParseConfig(data)
}

// Validate checks the settings.
func (c Config) Validate() error {
	if c.BufferMs <= 0 {
		return ErrInvalidBufferMs
	}
	if c.Streams.Entity == "" || c.Streams.Spikes == "" || c.Streams.Entity == c.Streams.Spikes {
		return ErrInvalidStreams
	}
	k := c.Keys
	if k.SurfaceWidth == "" || k.SurfaceHeight == "" || k.EntityWidth == "" || k.EntityHeight == "" {
		return ErrInvalidSceneKeys
	}
	for i, counter := range c.Counters {
		if counter.Label == "" || counter.Key == "" {
			return fmt.Errorf("counter %d: label and key required", i)
		}
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}

// Level returns the configured log level, info when unparsable.
func (c Config) Level() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

// Options converts the adapter part of the config into adapter options.
func (c Config) Options() []Option {
	return []Option{
		WithBufferMs(c.BufferMs),
		WithVerticalScale(c.VerticalScale),
		WithStreams(c.Streams),
		WithSceneKeys(c.Keys),
		WithChannelLabel(c.ChannelLabel),
		WithCounters(c.Counters),
	}
}
