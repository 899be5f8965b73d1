package nimsforestscope

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"os/exec"
	"time"

	smarttv "github.com/nimsforest/nimsforestsmarttv"
)

// SmartTVTarget displays frames as still images on Smart TVs via DLNA.
type SmartTVTarget struct {
	tv             *smarttv.TV
	renderer       *smarttv.Renderer
	useJFIF        bool // Convert to JFIF format for better TV compatibility
	quality        int
	lastImageBytes []byte // Cache to avoid redundant updates
}

// TVOption configures a SmartTVTarget.
type TVOption func(*SmartTVTarget)

// WithJFIF enables JFIF conversion for better TV compatibility.
// Requires ffmpeg and imagemagick to be installed.
func WithJFIF(enable bool) TVOption {
	return func(t *SmartTVTarget) {
		t.useJFIF = enable
	}
}

// WithJPEGQuality sets the quality of plain JPEG encoding.
func WithJPEGQuality(quality int) TVOption {
	return func(t *SmartTVTarget) {
		if quality > 0 && quality <= 100 {
			t.quality = quality
		}
	}
}

// NewSmartTVTarget creates a target that displays frames on a Smart TV.
func NewSmartTVTarget(tv *smarttv.TV, opts ...TVOption) (*SmartTVTarget, error) {
	target := &SmartTVTarget{
		tv:      tv,
		quality: 85,
	}

	for _, opt := range opts {
		opt(target)
	}

	renderer, err := smarttv.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("create smarttv renderer: %w", err)
	}
	target.renderer = renderer

	return target, nil
}

// Name implements Target.
func (t *SmartTVTarget) Name() string {
	if t.tv != nil {
		return fmt.Sprintf("SmartTV(%s)", t.tv.Name)
	}
	return "SmartTV"
}

// Update implements Target. Frames identical to the last displayed one
// are not resent.
func (t *SmartTVTarget) Update(ctx context.Context, frame *Frame) error {
	if w, h := frame.Size(); w == 0 || h == 0 {
		return nil
	}

	var jpegData []byte
	var err error
	if t.useJFIF {
		jpegData, err = convertToJFIF(ctx, frame.Image)
	} else {
		jpegData, err = encodeJPEG(frame.Image, t.quality)
	}
	if err != nil {
		return fmt.Errorf("convert to JPEG: %w", err)
	}

	if bytes.Equal(jpegData, t.lastImageBytes) {
		return nil
	}
	t.lastImageBytes = jpegData

	if err := t.renderer.DisplayImageJPEG(ctx, t.tv, jpegData); err != nil {
		return fmt.Errorf("display on TV: %w", err)
	}

	return nil
}

// Close implements Target.
func (t *SmartTVTarget) Close() error {
	if t.renderer != nil {
		t.renderer.Close()
	}
	return nil
}

// Stop stops playback on the TV.
func (t *SmartTVTarget) Stop(ctx context.Context) error {
	return t.renderer.Stop(ctx, t.tv)
}

// convertToJFIF converts a frame to JFIF-compliant JPEG using ffmpeg + magick,
// which more TVs accept than Go's encoder output.
func convertToJFIF(ctx context.Context, img *image.RGBA) ([]byte, error) {
	bounds := img.Bounds()
	stamp := time.Now().UnixNano()
	tmpFile := fmt.Sprintf("%s/scope_%d.jpg", os.TempDir(), stamp)
	jfifFile := fmt.Sprintf("%s/scope_%d_jfif.jpg", os.TempDir(), stamp)
	defer os.Remove(tmpFile)
	defer os.Remove(jfifFile)

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-y", "-loglevel", "error",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", bounds.Dx(), bounds.Dy()),
		"-i", "pipe:0",
		"-vframes", "1",
		"-pix_fmt", "yuvj420p",
		"-q:v", "2",
		tmpFile,
	)
	cmd.Stdin = bytes.NewReader(img.Pix)
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg: %w", err)
	}

	if err := exec.CommandContext(ctx, "magick", tmpFile, jfifFile).Run(); err != nil {
		// magick is optional
		return os.ReadFile(tmpFile)
	}
	return os.ReadFile(jfifFile)
}

// encodeJPEG encodes a frame as standard JPEG. Transparent pixels become
// black since JPEG has no alpha.
func encodeJPEG(img *image.RGBA, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
