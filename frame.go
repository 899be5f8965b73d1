package nimsforestscope

import (
	"image"
	"sync"
	"time"
)

// Frame is one rendered picture of the adapter plus the side-display texts
// at the time it was drawn.
type Frame struct {
	Seq        uint64
	Image      *image.RGBA
	Texts      map[string]string
	RenderedAt time.Time
}

// Size returns the frame dimensions.
func (f *Frame) Size() (int, int) {
	if f == nil || f.Image == nil {
		return 0, 0
	}
	b := f.Image.Bounds()
	return b.Dx(), b.Dy()
}

// FrameProvider provides frames for visualization targets.
type FrameProvider interface {
	// GetFrame returns the current frame.
	GetFrame() (*Frame, error)
}

// StaticFrameProvider wraps a fixed Frame.
type StaticFrameProvider struct {
	frame *Frame
}

// NewStaticFrameProvider creates a FrameProvider from a fixed Frame.
func NewStaticFrameProvider(frame *Frame) *StaticFrameProvider {
	return &StaticFrameProvider{frame: frame}
}

// GetFrame implements FrameProvider.
func (p *StaticFrameProvider) GetFrame() (*Frame, error) {
	return p.frame, nil
}

// CallbackFrameProvider calls a function to get frames.
type CallbackFrameProvider struct {
	fn func() (*Frame, error)
}

// NewCallbackFrameProvider creates a FrameProvider from a callback function.
func NewCallbackFrameProvider(fn func() (*Frame, error)) *CallbackFrameProvider {
	return &CallbackFrameProvider{fn: fn}
}

// GetFrame implements FrameProvider.
func (p *CallbackFrameProvider) GetFrame() (*Frame, error) {
	return p.fn()
}

// CanvasFrameProvider draws an adapter onto its canvas and snapshots the
// canvas together with a text board.
type CanvasFrameProvider struct {
	mu      sync.Mutex
	adapter *Adapter
	canvas  *Canvas
	board   *TextBoard
	seq     uint64
}

// NewCanvasFrameProvider creates a provider for an adapter built on canvas.
// board may be nil.
func NewCanvasFrameProvider(adapter *Adapter, canvas *Canvas, board *TextBoard) *CanvasFrameProvider {
	return &CanvasFrameProvider{adapter: adapter, canvas: canvas, board: board}
}

// GetFrame implements FrameProvider.
func (p *CanvasFrameProvider) GetFrame() (*Frame, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.adapter.Draw()
	p.seq++
	frame := &Frame{
		Seq:        p.seq,
		Image:      p.canvas.Snapshot(),
		RenderedAt: time.Now(),
	}
	if p.board != nil {
		frame.Texts = p.board.Snapshot()
	}
	return frame, nil
}
