package nimsforestscope

import (
	"context"
	"fmt"
	"image"
	"io"
	"os/exec"
	"sync"

	xdraw "golang.org/x/image/draw"
)

// VideoTarget records frames into a video file with ffmpeg.
// The video size is fixed by the first non-empty frame unless set with
// WithVideoSize; later frames of another size are scaled to fit.
type VideoTarget struct {
	path    string
	fps     int
	width   int
	height  int
	codec   string
	mu      sync.Mutex
	ffmpeg  *exec.Cmd
	stdin   io.WriteCloser
	buf     *image.RGBA
	frames  int
	started bool
}

// VideoOption configures a VideoTarget.
type VideoOption func(*VideoTarget)

// WithVideoFPS sets the video frame rate. It should match the viewer
// interval so playback runs in real time.
func WithVideoFPS(fps int) VideoOption {
	return func(t *VideoTarget) {
		if fps > 0 {
			t.fps = fps
		}
	}
}

// WithVideoSize fixes the output size.
func WithVideoSize(width, height int) VideoOption {
	return func(t *VideoTarget) {
		t.width = width
		t.height = height
	}
}

// WithVideoCodec sets the ffmpeg video codec.
func WithVideoCodec(codec string) VideoOption {
	return func(t *VideoTarget) {
		t.codec = codec
	}
}

// NewVideoTarget creates a target that records frames to path.
func NewVideoTarget(path string, opts ...VideoOption) (*VideoTarget, error) {
	if path == "" {
		return nil, fmt.Errorf("video path required")
	}
	target := &VideoTarget{
		path:  path,
		fps:   60,
		codec: "libx264",
	}

	for _, opt := range opts {
		opt(target)
	}

	return target, nil
}

// Name implements Target.
func (t *VideoTarget) Name() string {
	return fmt.Sprintf("VideoTarget(%s)", t.path)
}

// Frames returns how many frames were written.
func (t *VideoTarget) Frames() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.frames
}

// Update implements Target.
func (t *VideoTarget) Update(ctx context.Context, frame *Frame) error {
	w, h := frame.Size()
	if w == 0 || h == 0 {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.started {
		if t.width <= 0 || t.height <= 0 {
			t.width, t.height = w, h
		}
		if err := t.start(); err != nil {
			return err
		}
	}

	img := t.fit(frame.Image)
	if _, err := t.stdin.Write(img.Pix); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	t.frames++
	return nil
}

// fit returns img when it already has the video size, otherwise img
// scaled into the reusable buffer.
func (t *VideoTarget) fit(img *image.RGBA) *image.RGBA {
	b := img.Bounds()
	if b.Dx() == t.width && b.Dy() == t.height && img.Stride == 4*t.width {
		return img
	}
	if t.buf == nil {
		t.buf = image.NewRGBA(image.Rect(0, 0, t.width, t.height))
	}
	xdraw.ApproxBiLinear.Scale(t.buf, t.buf.Bounds(), img, b, xdraw.Src, nil)
	return t.buf
}

func (t *VideoTarget) start() error {
	// The ffmpeg process outlives any single Update call, so it is not
	// bound to the update context.
	ffmpeg := exec.Command("ffmpeg", "-y",
		"-loglevel", "error",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", t.width, t.height),
		"-r", fmt.Sprintf("%d", t.fps),
		"-i", "pipe:0",
		"-c:v", t.codec,
		"-preset", "ultrafast",
		"-pix_fmt", "yuv420p",
		"-movflags", "+faststart",
		t.path,
	)

	stdin, err := ffmpeg.StdinPipe()
	if err != nil {
		return fmt.Errorf("create pipe: %w", err)
	}
	ffmpeg.Stdout = io.Discard
	ffmpeg.Stderr = io.Discard

	if err := ffmpeg.Start(); err != nil {
		return fmt.Errorf("start ffmpeg: %w", err)
	}
	t.ffmpeg = ffmpeg
	t.stdin = stdin
	t.started = true
	return nil
}

// Close implements Target. It finishes the video file.
func (t *VideoTarget) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.started {
		return nil
	}
	t.started = false
	t.stdin.Close()
	if err := t.ffmpeg.Wait(); err != nil {
		return fmt.Errorf("ffmpeg encode: %w", err)
	}
	return nil
}
