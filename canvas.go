package nimsforestscope

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"sync"

	"golang.org/x/image/vector"
)

// Canvas is an in-memory Surface backed by an RGBA image.
// Fills and strokes are anti-aliased by the x/image vector rasterizer.
type Canvas struct {
	mu        sync.Mutex
	img       *image.RGBA
	raster    *vector.Rasterizer
	lineWidth float64
	resizes   int
}

// NewCanvas creates a transparent canvas of the given size.
func NewCanvas(width, height int) *Canvas {
	width, height = max(width, 0), max(height, 0)
	return &Canvas{
		img:       image.NewRGBA(image.Rect(0, 0, width, height)),
		raster:    vector.NewRasterizer(width, height),
		lineWidth: 1,
	}
}

// Size implements Surface.
func (c *Canvas) Size() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := c.img.Bounds()
	return b.Dx(), b.Dy()
}

// Resize implements Surface.
func (c *Canvas) Resize(width, height int) {
	width, height = max(width, 0), max(height, 0)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.img = image.NewRGBA(image.Rect(0, 0, width, height))
	c.raster.Reset(width, height)
	c.resizes++
}

// Clear implements Surface.
func (c *Canvas) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.img.Pix)
}

// StrokePolyline implements Surface. Each segment is rasterized as a quad
// of the canvas line width; all quads share one path so joints are not
// painted twice.
func (c *Canvas) StrokePolyline(points []Point, col color.Color) {
	if len(points) < 2 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	b := c.img.Bounds()
	if b.Empty() {
		return
	}
	c.raster.Reset(b.Dx(), b.Dy())
	half := c.lineWidth / 2
	painted := false
	for i := 1; i < len(points); i++ {
		p0, p1 := points[i-1], points[i]
		dx, dy := p1.X-p0.X, p1.Y-p0.Y
		length := math.Hypot(dx, dy)
		if length == 0 || math.IsNaN(length) || math.IsInf(length, 0) {
			continue
		}
		nx, ny := -dy/length*half, dx/length*half
		c.raster.MoveTo(float32(p0.X+nx), float32(p0.Y+ny))
		c.raster.LineTo(float32(p1.X+nx), float32(p1.Y+ny))
		c.raster.LineTo(float32(p1.X-nx), float32(p1.Y-ny))
		c.raster.LineTo(float32(p0.X-nx), float32(p0.Y-ny))
		c.raster.ClosePath()
		painted = true
	}
	if painted {
		c.raster.Draw(c.img, b, image.NewUniform(col), image.Point{})
	}
}

// FillRect implements Surface.
func (c *Canvas) FillRect(r Rect, col color.Color) {
	if r.W <= 0 || r.H <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	b := c.img.Bounds()
	x0 := math.Max(r.X, 0)
	y0 := math.Max(r.Y, 0)
	x1 := math.Min(r.X+r.W, float64(b.Dx()))
	y1 := math.Min(r.Y+r.H, float64(b.Dy()))
	if x0 >= x1 || y0 >= y1 {
		return
	}
	c.raster.Reset(b.Dx(), b.Dy())
	c.raster.MoveTo(float32(x0), float32(y0))
	c.raster.LineTo(float32(x1), float32(y0))
	c.raster.LineTo(float32(x1), float32(y1))
	c.raster.LineTo(float32(x0), float32(y1))
	c.raster.ClosePath()
	c.raster.Draw(c.img, b, image.NewUniform(col), image.Point{})
}

// Snapshot returns a copy of the current pixels.
func (c *Canvas) Snapshot() *image.RGBA {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := image.NewRGBA(c.img.Bounds())
	draw.Draw(out, out.Bounds(), c.img, c.img.Bounds().Min, draw.Src)
	return out
}

// Resizes returns how many times the canvas has been resized.
func (c *Canvas) Resizes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resizes
}

var _ Surface = (*Canvas)(nil)
