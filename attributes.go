package nimsforestscope

import (
	"encoding/json"
	"fmt"
	"maps"
	"reflect"

	"dario.cat/mergo"
)

// Attributes is the scene description of a stream: surface and entity
// dimensions, counters and similar scalar or string fields.
type Attributes map[string]any

// Clone returns a shallow copy. A nil receiver yields an empty map.
func (a Attributes) Clone() Attributes {
	out := make(Attributes, len(a))
	maps.Copy(out, a)
	return out
}

// Float returns the numeric value stored under key.
func (a Attributes) Float(key string) (float64, bool) {
	v, ok := a[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// Text formats the value stored under key for a text sink.
// Missing keys format as the empty string.
func (a Attributes) Text(key string) string {
	v, ok := a[key]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// AttributeStore holds the current Attributes of the attribute stream.
// The zero value is absent.
type AttributeStore struct {
	attrs   Attributes
	present bool
}

// Clear returns the store to absent.
func (s *AttributeStore) Clear() {
	s.attrs = nil
	s.present = false
}

// Replace sets the attributes wholesale. It reports whether a side-display
// refresh is needed, which is always the case.
func (s *AttributeStore) Replace(attrs Attributes) bool {
	s.attrs = attrs.Clone()
	s.present = true
	return true
}

// Merge shallow-merges partial over the current attributes. Fields absent
// from partial keep their values; fields present in partial are replaced
// wholesale, map values included. An absent store merges against an empty
// base.
func (s *AttributeStore) Merge(partial Attributes) (bool, error) {
	merged := s.attrs.Clone()
	// mergo descends into map values present on both sides and writes into
	// the shared nested map; dropping them first makes it assign instead.
	for key, v := range partial {
		if v != nil && reflect.TypeOf(v).Kind() == reflect.Map {
			delete(merged, key)
		}
	}
	if err := mergo.Merge(&merged, partial.Clone(), mergo.WithOverride); err != nil {
		return false, fmt.Errorf("merge attributes: %w", err)
	}
	s.attrs = merged
	s.present = true
	return true, nil
}

// Current returns the live attributes map. Callers must not modify it.
func (s *AttributeStore) Current() (Attributes, bool) {
	return s.attrs, s.present
}
