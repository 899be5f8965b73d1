package nimsforestscope

import (
	"image/color"
	"math"
)

// SceneKeys names the attribute fields the renderer reads.
type SceneKeys struct {
	SurfaceWidth  string `yaml:"surface_width" json:"surface_width"`
	SurfaceHeight string `yaml:"surface_height" json:"surface_height"`
	EntityWidth   string `yaml:"entity_width" json:"entity_width"`
	EntityHeight  string `yaml:"entity_height" json:"entity_height"`
}

// DefaultSceneKeys returns the keys of the bouncing-ball scenario.
func DefaultSceneKeys() SceneKeys {
	return SceneKeys{
		SurfaceWidth:  "game_width",
		SurfaceHeight: "game_height",
		EntityWidth:   "ball_width",
		EntityHeight:  "ball_height",
	}
}

// DefaultVerticalScale maps waveform sample values to pixels.
const DefaultVerticalScale = 0.25

// Scene is the state a renderer paints. Nil fields are absent.
type Scene struct {
	Attributes Attributes
	Position   *Position
	Spike      *SpikeSample
}

// Renderer paints a Scene onto a Surface.
type Renderer struct {
	Keys          SceneKeys
	VerticalScale float64
	WaveformColor color.Color
	EntityColor   color.Color
}

// NewRenderer creates a renderer with the default keys, scale and colors.
func NewRenderer() *Renderer {
	return &Renderer{
		Keys:          DefaultSceneKeys(),
		VerticalScale: DefaultVerticalScale,
		WaveformColor: WaveformColor,
		EntityColor:   EntityColor,
	}
}

// Draw resizes s when the attributes declare a different size, clears it,
// then paints the waveform and the entity on top. It reports whether s
// was resized.
func (r *Renderer) Draw(s Surface, scene Scene) bool {
	resized := r.fit(s, scene.Attributes)

	s.Clear()

	if scene.Spike != nil {
		r.drawWaveform(s, scene.Spike.Samples)
	}
	if scene.Position != nil && scene.Attributes != nil {
		r.drawEntity(s, *scene.Position, scene.Attributes)
	}
	return resized
}

func (r *Renderer) fit(s Surface, attrs Attributes) bool {
	if attrs == nil {
		return false
	}
	w, okW := attrs.Float(r.Keys.SurfaceWidth)
	h, okH := attrs.Float(r.Keys.SurfaceHeight)
	if !okW || !okH || !validDimension(w) || !validDimension(h) {
		return false
	}
	width, height := int(w), int(h)
	curW, curH := s.Size()
	if curW == width && curH == height {
		return false
	}
	s.Resize(width, height)
	return true
}

func (r *Renderer) drawWaveform(s Surface, samples []float64) {
	n := len(samples)
	if n == 0 {
		return
	}
	width, height := s.Size()
	halfY := float64(height) / 2
	points := make([]Point, n)
	for i, v := range samples {
		x := 0.0
		if n > 1 {
			x = float64(width-1) * float64(i) / float64(n-1)
		}
		points[i] = Point{X: x, Y: halfY + v*r.VerticalScale}
	}
	s.StrokePolyline(points, r.WaveformColor)
}

func (r *Renderer) drawEntity(s Surface, pos Position, attrs Attributes) {
	w, okW := attrs.Float(r.Keys.EntityWidth)
	h, okH := attrs.Float(r.Keys.EntityHeight)
	if !okW || !okH {
		return
	}
	s.FillRect(Rect{X: pos.X - w/2, Y: pos.Y - h/2, W: w, H: h}, r.EntityColor)
}

func validDimension(v float64) bool {
	return v >= 0 && !math.IsNaN(v) && !math.IsInf(v, 0) && v <= math.MaxInt32
}
