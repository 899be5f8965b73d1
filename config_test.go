package nimsforestscope

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfigOverlaysDefaults(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
buffer_ms: 33
streams:
  spikes: probe
keys:
  entity_width: paddle_w
counters:
  - label: score
    key: points
web:
  addr: ":9090"
log_level: debug
`))
	require.NoError(t, err)

	assert.Equal(t, 33.0, cfg.BufferMs)
	assert.Equal(t, StreamNames{Entity: "gameplay", Spikes: "probe"}, cfg.Streams)
	assert.Equal(t, "paddle_w", cfg.Keys.EntityWidth)
	assert.Equal(t, "ball_height", cfg.Keys.EntityHeight)
	assert.Equal(t, []CounterBinding{{Label: "score", Key: "points"}}, cfg.Counters)
	assert.Equal(t, ":9090", cfg.Web.Addr)
	assert.Equal(t, DefaultVerticalScale, cfg.VerticalScale)
	assert.Equal(t, logrus.DebugLevel, cfg.Level())
}

func TestParseConfigRejects(t *testing.T) {
	cases := map[string]struct {
		yaml string
		err  error
	}{
		"zero buffer":     {"buffer_ms: 0", ErrInvalidBufferMs},
		"same streams":    {"streams: {entity: a, spikes: a}", ErrInvalidStreams},
		"empty stream":    {"streams: {entity: ''}", ErrInvalidStreams},
		"empty scene key": {"keys: {surface_width: ''}", ErrInvalidSceneKeys},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tc.yaml))
			assert.ErrorIs(t, err, tc.err)
		})
	}

	_, err := ParseConfig([]byte("unknown_field: 1"))
	assert.Error(t, err)
	_, err = ParseConfig([]byte("log_level: loud"))
	assert.Error(t, err)
	_, err = ParseConfig([]byte("counters: [{label: x}]"))
	assert.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	path := filepath.Join(t.TempDir(), "scope.yaml")
	require.NoError(t, os.WriteFile(path, []byte("vertical_scale: 0.5\n"), 0o600))
	cfg, err = LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 0.5, cfg.VerticalScale)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestConfigOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BufferMs = 50
	cfg.Streams = StreamNames{Entity: "pong", Spikes: "probe"}
	cfg.ChannelLabel = "chan"

	board := NewTextBoard()
	opts := append(cfg.Options(), WithLogger(quietLogger()), WithSink("chan", board.Sink("chan")))
	a := New(&recordingSurface{}, opts...)

	assert.Equal(t, 50.0, a.BufferMs())
	assert.Equal(t, cfg.Streams, a.Streams())
	a.Process("probe", 0, SpikeSample{Channel: "D"})
	assert.Equal(t, "D", board.Text("chan"))
}
