package nimsforestscope

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const recording = `
{"op":"reset"}
{"op":"attributes_reset","stream":"gameplay","data":{"game_width":400,"game_height":300,"ball_width":10,"ball_height":10,"bounces_left":0}}
{"stream":"gameplay","timestamp":16,"data":{"x":200,"y":150}}
{"op":"sample","stream":"cl_spikes","timestamp":20,"data":{"channel":"A","samples":[1,2,3]}}
{"op":"attributes_updated","stream":"gameplay","timestamp":25,"data":{"bounces_left":1}}
{"stream":"unknown","timestamp":30,"data":{"x":1,"y":1}}

{"stream":"gameplay","timestamp":33,"data":{"x":210,"y":140}}
`

func TestReplayAppliesRecords(t *testing.T) {
	a, _, board := newTestAdapter(t)

	n, err := Replay(context.Background(), strings.NewReader(recording), a, WithReplayLogger(quietLogger()))
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	attrs, ok := a.Attributes()
	require.True(t, ok)
	left, _ := attrs.Float("bounces_left")
	assert.Equal(t, 1.0, left)
	width, _ := attrs.Float("game_width")
	assert.Equal(t, 400.0, width)

	pos, _ := a.LatestPosition()
	assert.Equal(t, Position{X: 210, Y: 140}, pos)
	spike, _ := a.LatestSpike()
	assert.Equal(t, []float64{1, 2, 3}, spike.Samples)
	assert.Equal(t, "A", board.Text(LabelSpikeChannel))
	assert.Equal(t, "1", board.Text(LabelBouncesLeft))
}

func TestReplayErrors(t *testing.T) {
	a, _, _ := newTestAdapter(t)

	n, err := Replay(context.Background(), strings.NewReader("{\"op\":\"reset\"}\nnot json\n"), a)
	assert.Equal(t, 1, n)
	assert.ErrorContains(t, err, "line 2")

	_, err = Replay(context.Background(), strings.NewReader(`{"op":"rewind"}`), a)
	assert.ErrorContains(t, err, "unknown op")

	_, err = Replay(context.Background(), strings.NewReader(`{"op":"attributes_reset","stream":"gameplay","data":[1]}`), a)
	assert.ErrorContains(t, err, "decode attributes")
}

func TestReplayRealtimePacing(t *testing.T) {
	a, _, _ := newTestAdapter(t)
	in := `{"stream":"gameplay","timestamp":0,"data":{"x":0,"y":0}}
{"stream":"gameplay","timestamp":40,"data":{"x":1,"y":1}}
`
	start := time.Now()
	n, err := Replay(context.Background(), strings.NewReader(in), a, WithRealtime(2))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestReplayCancelled(t *testing.T) {
	a, _, _ := newTestAdapter(t)
	in := `{"stream":"gameplay","timestamp":0,"data":{"x":0,"y":0}}
{"stream":"gameplay","timestamp":60000,"data":{"x":1,"y":1}}
`
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	n, err := Replay(ctx, strings.NewReader(in), a, WithRealtime(1))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, n)
}
