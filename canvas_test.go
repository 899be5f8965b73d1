package nimsforestscope

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rgbaAt(c *Canvas, x, y int) color.RGBA {
	return c.Snapshot().RGBAAt(x, y)
}

func TestCanvasFillRect(t *testing.T) {
	c := NewCanvas(40, 30)

	c.FillRect(Rect{X: 10, Y: 10, W: 10, H: 5}, EntityColor)

	assert.Equal(t, EntityColor, rgbaAt(c, 10, 10))
	assert.Equal(t, EntityColor, rgbaAt(c, 19, 14))
	assert.Equal(t, color.RGBA{}, rgbaAt(c, 20, 10))
	assert.Equal(t, color.RGBA{}, rgbaAt(c, 10, 15))
	assert.Equal(t, color.RGBA{}, rgbaAt(c, 9, 12))
}

func TestCanvasFillRectClipped(t *testing.T) {
	c := NewCanvas(10, 10)

	require.NotPanics(t, func() {
		c.FillRect(Rect{X: -5, Y: -5, W: 8, H: 8}, EntityColor)
		c.FillRect(Rect{X: 50, Y: 50, W: 8, H: 8}, EntityColor)
		c.FillRect(Rect{X: 1, Y: 1, W: 0, H: 3}, EntityColor)
	})
	assert.Equal(t, EntityColor, rgbaAt(c, 0, 0))
	assert.Equal(t, EntityColor, rgbaAt(c, 2, 2))
	assert.Equal(t, color.RGBA{}, rgbaAt(c, 3, 3))
}

func TestCanvasStrokePolyline(t *testing.T) {
	c := NewCanvas(20, 20)

	c.StrokePolyline([]Point{{X: 0, Y: 10}, {X: 10, Y: 10}, {X: 19, Y: 10}}, WaveformColor)

	// a 1px line on a pixel edge covers the rows on both sides by half
	for _, x := range []int{1, 5, 15} {
		above := rgbaAt(c, x, 9)
		below := rgbaAt(c, x, 10)
		assert.NotZero(t, above.A, "x=%d", x)
		assert.NotZero(t, below.A, "x=%d", x)
	}
	assert.Equal(t, color.RGBA{}, rgbaAt(c, 5, 5))
	assert.Equal(t, color.RGBA{}, rgbaAt(c, 5, 15))
}

func TestCanvasStrokeDegenerate(t *testing.T) {
	c := NewCanvas(10, 10)
	require.NotPanics(t, func() {
		c.StrokePolyline(nil, WaveformColor)
		c.StrokePolyline([]Point{{X: 1, Y: 1}}, WaveformColor)
		c.StrokePolyline([]Point{{X: 1, Y: 1}, {X: 1, Y: 1}}, WaveformColor)
		c.StrokePolyline([]Point{{X: -50, Y: -50}, {X: 60, Y: 60}}, WaveformColor)
	})
}

func TestCanvasResizeAndClear(t *testing.T) {
	c := NewCanvas(0, 0)
	w, h := c.Size()
	assert.Zero(t, w)
	assert.Zero(t, h)

	require.NotPanics(t, func() {
		c.Clear()
		c.FillRect(Rect{W: 5, H: 5}, EntityColor)
		c.StrokePolyline([]Point{{X: 0, Y: 0}, {X: 4, Y: 4}}, WaveformColor)
	})

	c.Resize(8, 6)
	w, h = c.Size()
	assert.Equal(t, 8, w)
	assert.Equal(t, 6, h)
	assert.Equal(t, 1, c.Resizes())

	c.FillRect(Rect{W: 8, H: 6}, EntityColor)
	c.Clear()
	assert.Equal(t, color.RGBA{}, rgbaAt(c, 4, 3))

	c.FillRect(Rect{W: 8, H: 6}, EntityColor)
	c.Resize(8, 6)
	assert.Equal(t, color.RGBA{}, rgbaAt(c, 4, 3))
}

func TestCanvasSnapshotIsCopy(t *testing.T) {
	c := NewCanvas(4, 4)
	snap := c.Snapshot()

	c.FillRect(Rect{W: 4, H: 4}, EntityColor)

	assert.Equal(t, color.RGBA{}, snap.RGBAAt(1, 1))
	assert.Equal(t, EntityColor, rgbaAt(c, 1, 1))
}

func TestAdapterPaintsCanvas(t *testing.T) {
	c := NewCanvas(0, 0)
	a := New(c, WithLogger(quietLogger()))

	a.Reset()
	a.AttributesReset("gameplay", gameplayAttributes())
	a.Process("gameplay", 0, Position{X: 200, Y: 150})
	a.Process("cl_spikes", 0, SpikeSample{Channel: "A", Samples: flatWaveform(75, -200)})
	a.Draw()
	a.Draw()

	w, h := c.Size()
	assert.Equal(t, 400, w)
	assert.Equal(t, 300, h)
	assert.Equal(t, 1, c.Resizes())

	assert.Equal(t, EntityColor, rgbaAt(c, 200, 150))
	assert.Equal(t, EntityColor, rgbaAt(c, 195, 145))
	assert.Equal(t, color.RGBA{}, rgbaAt(c, 190, 150))

	// waveform at 150 + (-200 / 4) = 100
	assert.NotZero(t, rgbaAt(c, 50, 100).A)
	assert.Equal(t, color.RGBA{}, rgbaAt(c, 50, 200))
}
