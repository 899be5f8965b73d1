package nimsforestscope

import "image/color"

// Point is a surface coordinate in pixels.
type Point struct {
	X, Y float64
}

// Rect is an axis-aligned rectangle given by its top-left corner and size.
type Rect struct {
	X, Y, W, H float64
}

// Surface is a raster target capable of the 2D paint operations the
// renderer needs. Resizing a surface clears it.
type Surface interface {
	// Size returns the current physical size in pixels.
	Size() (width, height int)

	// Resize changes the physical size and clears the surface.
	Resize(width, height int)

	// Clear erases the whole surface to transparent.
	Clear()

	// StrokePolyline strokes one path through points. The first point
	// starts the path, each further point extends it with a straight
	// segment.
	StrokePolyline(points []Point, c color.Color)

	// FillRect fills r.
	FillRect(r Rect, c color.Color)
}

var (
	// WaveformColor is the CSS "lightblue" used for spike waveforms.
	WaveformColor = color.RGBA{R: 173, G: 216, B: 230, A: 255}
	// EntityColor is the fill of the entity rectangle.
	EntityColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)
