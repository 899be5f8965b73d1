package nimsforestscope

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
)

// errNullPayload marks a nil or JSON null sample. It clears the cached
// value of its stream instead of being stored.
var errNullPayload = errors.New("null payload")

// Position is the latest sample of the entity stream.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ChannelLabel is a spike channel name. It decodes from JSON strings and
// numbers alike.
type ChannelLabel string

// UnmarshalJSON implements json.Unmarshaler.
func (c *ChannelLabel) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = ChannelLabel(s)
		return nil
	}
	if bytes.Equal(data, []byte("null")) {
		*c = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("channel label: %w", err)
	}
	*c = ChannelLabel(n.String())
	return nil
}

// SpikeSample is the latest waveform of the spike stream.
type SpikeSample struct {
	Channel ChannelLabel `json:"channel"`
	Samples []float64    `json:"samples"`
}

func (s SpikeSample) clone() SpikeSample {
	s.Samples = slices.Clone(s.Samples)
	return s
}

// LatestValues keeps the most recent payload of each recognised stream.
type LatestValues struct {
	position *Position
	spike    *SpikeSample
}

// Clear drops both cached samples.
func (c *LatestValues) Clear() {
	c.position = nil
	c.spike = nil
}

// ClearPosition drops the cached entity position.
func (c *LatestValues) ClearPosition() {
	c.position = nil
}

// ClearSpike drops the cached waveform.
func (c *LatestValues) ClearSpike() {
	c.spike = nil
}

// StorePosition overwrites the cached entity position.
func (c *LatestValues) StorePosition(p Position) {
	c.position = &p
}

// StoreSpike overwrites the cached waveform.
func (c *LatestValues) StoreSpike(s SpikeSample) {
	s = s.clone()
	c.spike = &s
}

// Position returns the cached entity position.
func (c *LatestValues) Position() (Position, bool) {
	if c.position == nil {
		return Position{}, false
	}
	return *c.position, true
}

// Spike returns the cached waveform. The sample slice is shared with the
// cache.
func (c *LatestValues) Spike() (SpikeSample, bool) {
	if c.spike == nil {
		return SpikeSample{}, false
	}
	return *c.spike, true
}

func decodePosition(payload any) (Position, error) {
	switch p := payload.(type) {
	case Position:
		return p, nil
	case *Position:
		if p == nil {
			return Position{}, errNullPayload
		}
		return *p, nil
	}
	var pos Position
	err := decodeJSONPayload(payload, &pos)
	return pos, err
}

func decodeSpike(payload any) (SpikeSample, error) {
	switch s := payload.(type) {
	case SpikeSample:
		return s, nil
	case *SpikeSample:
		if s == nil {
			return SpikeSample{}, errNullPayload
		}
		return *s, nil
	}
	var spike SpikeSample
	err := decodeJSONPayload(payload, &spike)
	return spike, err
}

// decodeJSONPayload decodes raw JSON payloads directly and round-trips
// anything else (generic maps from other decoders) through encoding/json.
func decodeJSONPayload(payload any, v any) error {
	var raw []byte
	switch p := payload.(type) {
	case nil:
		return errNullPayload
	case json.RawMessage:
		raw = p
	case []byte:
		raw = p
	case string:
		raw = []byte(p)
	default:
		b, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("encode payload: %w", err)
		}
		raw = b
	}
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return errNullPayload
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode payload %s: %w", strconv.Quote(truncate(string(raw), 64)), err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
