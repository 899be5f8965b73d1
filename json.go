package nimsforestscope

import (
	"encoding/json"
	"sort"
	"time"
)

// FrameJSON is the JSON representation of a Frame for the web frontend.
// Pixels are served separately as PNG.
type FrameJSON struct {
	Seq        uint64     `json:"seq"`
	Width      int        `json:"width"`
	Height     int        `json:"height"`
	RenderedAt time.Time  `json:"rendered_at,omitempty"`
	Texts      []TextJSON `json:"texts"`
}

// TextJSON is one side-display text.
type TextJSON struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// MessageJSON is pushed to websocket clients. Type is "text" for an
// immediate sink write and "frame" when a new frame is available.
type MessageJSON struct {
	Type  string     `json:"type"`
	Text  *TextJSON  `json:"text,omitempty"`
	Frame *FrameJSON `json:"frame,omitempty"`
}

// FrameToJSON converts a Frame to FrameJSON. Texts are sorted by label.
func FrameToJSON(frame *Frame) FrameJSON {
	if frame == nil {
		return FrameJSON{Texts: []TextJSON{}}
	}

	width, height := frame.Size()
	return FrameJSON{
		Seq:        frame.Seq,
		Width:      width,
		Height:     height,
		RenderedAt: frame.RenderedAt,
		Texts:      textsToJSON(frame.Texts),
	}
}

func textsToJSON(texts map[string]string) []TextJSON {
	result := make([]TextJSON, 0, len(texts))
	for label, text := range texts {
		result = append(result, TextJSON{Label: label, Text: text})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Label < result[j].Label
	})
	return result
}

// FrameToJSONBytes converts a Frame to JSON bytes.
func FrameToJSONBytes(frame *Frame) ([]byte, error) {
	return json.Marshal(FrameToJSON(frame))
}

// Record operations understood by Replay.
const (
	OpReset             = "reset"
	OpAttributesReset   = "attributes_reset"
	OpAttributesUpdated = "attributes_updated"
	OpSample            = "sample"
)

// Record is one line of a JSONL stream recording. An empty Op is a sample.
type Record struct {
	Op        string          `json:"op,omitempty"`
	Stream    string          `json:"stream,omitempty"`
	Timestamp float64         `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}
